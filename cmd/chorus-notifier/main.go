// Chorus Notifier — рассылает события готовности states.
//
// Notifier:
//   - Слушает события state.completed из RabbitMQ
//   - Проверяет готовность downstream states через store
//   - Публикует адресные state.ready в очереди агентов
//   - По cron-расписанию (SWEEP_SCHEDULE) делает полный sweep
//
// Notifier не мутирует документы и масштабируется горизонтально:
// повторная доставка state.ready безопасна, протокол идемпотентен.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Chorus/internal/cli"
	"github.com/shaiso/Chorus/internal/mq"
	"github.com/shaiso/Chorus/internal/notify"
	"github.com/shaiso/Chorus/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting chorus-notifier")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Document store
	st, err := cli.OpenStore(ctx)
	if err != nil {
		logger.Error("failed to connect to document store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("document store connected")

	// RabbitMQ
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	publisher := mq.NewPublisher(mqConn, logger)

	// Начальный список workflows для sweep (через запятую).
	var workflows []string
	if v := os.Getenv("SWEEP_WORKFLOWS"); v != "" {
		workflows = strings.Split(v, ",")
	}

	n := notify.New(notify.Config{
		Store:         st,
		Publisher:     publisher,
		Conn:          mqConn,
		SweepSchedule: os.Getenv("SWEEP_SCHEDULE"),
		Workflows:     workflows,
		Logger:        logger,
	})

	if err := n.Start(ctx); err != nil {
		logger.Error("failed to start notifier", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("NOTIFIER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	n.Stop()
	logger.Info("chorus-notifier stopped")
}
