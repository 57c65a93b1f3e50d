package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Chorus/internal/controlplane"
	"github.com/shaiso/Chorus/internal/domain"
	"github.com/shaiso/Chorus/internal/mq"
	"github.com/shaiso/Chorus/internal/store"
	"github.com/shaiso/Chorus/internal/telemetry"
)

// eventSeqKey — ключ счётчика событий workflow.
// Монотонный номер позволяет получателям отбрасывать устаревшие события.
func eventSeqKey(workflowID string) string {
	return "cp:wf:" + workflowID + ":events:seq"
}

// Notifier рассылает события готовности states.
type Notifier struct {
	store     store.Client
	eval      *controlplane.Evaluator
	publisher *mq.Publisher
	conn      *mq.Connection

	consumer *mq.Consumer
	cron     *cron.Cron

	// Известные workflows — кандидаты для sweep.
	mu        sync.RWMutex
	workflows map[string]bool

	sweepSchedule string
	logger        *slog.Logger

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Notifier.
type Config struct {
	// Store — клиент document store.
	Store store.Client

	// Publisher — издатель событий.
	Publisher *mq.Publisher

	// Conn — соединение с RabbitMQ.
	Conn *mq.Connection

	// SweepSchedule — cron-выражение для периодического sweep.
	// Пусто — sweep выключен.
	SweepSchedule string

	// Workflows — начальный список workflows для sweep
	// (подхватывается при старте, до первых событий).
	Workflows []string

	// Logger — логгер.
	Logger *slog.Logger
}

// New создаёт новый Notifier.
func New(cfg Config) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workflows := make(map[string]bool, len(cfg.Workflows))
	for _, id := range cfg.Workflows {
		workflows[id] = true
	}

	return &Notifier{
		store:         cfg.Store,
		eval:          controlplane.NewEvaluator(cfg.Store),
		publisher:     cfg.Publisher,
		conn:          cfg.Conn,
		workflows:     workflows,
		sweepSchedule: cfg.SweepSchedule,
		logger:        logger,
	}
}

// Start запускает Notifier: consumer событий завершения и,
// если настроен, cron-sweep.
func (n *Notifier) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	n.cancelFunc = cancel

	n.consumer = mq.NewConsumer(n.conn, n.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueStatesCompleted),
		Handler:  n.handleStateCompleted,
		Prefetch: 10,
	})

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			n.logger.Error("completed consumer error", "error", err)
		}
	}()

	if n.sweepSchedule != "" {
		n.cron = cron.New()
		_, err := n.cron.AddFunc(n.sweepSchedule, func() {
			n.Sweep(ctx)
		})
		if err != nil {
			cancel()
			return err
		}
		n.cron.Start()
		n.logger.Info("sweep scheduled", "schedule", n.sweepSchedule)
	}

	n.logger.Info("notifier started")
	return nil
}

// Stop останавливает Notifier.
func (n *Notifier) Stop() {
	n.logger.Info("stopping notifier...")

	if n.cancelFunc != nil {
		n.cancelFunc()
	}
	if n.cron != nil {
		n.cron.Stop()
	}
	if n.consumer != nil {
		n.consumer.Stop()
	}

	n.wg.Wait()
	n.logger.Info("notifier stopped")
}

// AddWorkflow добавляет workflow в кандидаты для sweep.
func (n *Notifier) AddWorkflow(workflowID string) {
	n.mu.Lock()
	n.workflows[workflowID] = true
	n.mu.Unlock()
}

// handleStateCompleted обрабатывает событие завершения state.
func (n *Notifier) handleStateCompleted(ctx context.Context, d *mq.Delivery) error {
	event := d.Event
	if event.WorkflowID == "" || event.TargetState == "" {
		// Событие без адресата бессмысленно переигрывать.
		return nil
	}

	n.AddWorkflow(event.WorkflowID)

	return n.FanOut(ctx, event.WorkflowID, event.TargetState)
}

// FanOut проверяет downstream states завершившегося source и публикует
// state.ready для каждого готового.
func (n *Notifier) FanOut(ctx context.Context, workflowID, source string) error {
	var meta domain.Meta
	ok, err := n.store.GetJSON(ctx, controlplane.MetaKey(workflowID), &meta)
	if err != nil {
		return err
	}
	if !ok {
		n.logger.Warn("fan-out for unknown workflow", "workflow_id", workflowID)
		return nil
	}

	for _, target := range meta.Downstream(source) {
		if err := n.notifyIfReady(ctx, &meta, workflowID, target, source, ReasonUpstreamSucceeded); err != nil {
			return err
		}
	}
	return nil
}

// Sweep перепроверяет все states известных workflows и повторно
// публикует готовность. Компенсирует события, потерянные, пока
// notifier был выключен.
func (n *Notifier) Sweep(ctx context.Context) {
	n.mu.RLock()
	ids := make([]string, 0, len(n.workflows))
	for id := range n.workflows {
		ids = append(ids, id)
	}
	n.mu.RUnlock()

	for _, workflowID := range ids {
		var meta domain.Meta
		ok, err := n.store.GetJSON(ctx, controlplane.MetaKey(workflowID), &meta)
		if err != nil || !ok {
			continue
		}

		for _, state := range meta.States {
			if err := n.notifyIfReady(ctx, &meta, workflowID, state, "", ReasonSweep); err != nil {
				n.logger.Error("sweep notify failed",
					"workflow_id", workflowID,
					"state", state,
					"error", err,
				)
			}
		}
	}
}

// notifyIfReady публикует state.ready, если target готов и назначен.
func (n *Notifier) notifyIfReady(ctx context.Context, meta *domain.Meta, workflowID, target, source, reason string) error {
	ready, err := n.eval.Ready(ctx, workflowID, target)
	if err != nil {
		return err
	}
	if !ready.Ready {
		return nil
	}

	agent := meta.AssignedAgent(target)
	if agent == "" {
		// Без назначения адресата нет: воркеры находят state сами.
		n.logger.Debug("ready state has no assigned agent",
			"workflow_id", workflowID,
			"state", target,
		)
		return nil
	}

	// Монотонный номер события в рамках workflow.
	seq, err := n.store.Incr(ctx, eventSeqKey(workflowID), 1)
	if err != nil {
		return err
	}

	event := NewReadyEvent(workflowID, target, source, reason, map[string]any{"seq": seq})

	if err := mq.EnsureReadyQueue(ctx, n.conn, agent); err != nil {
		return err
	}
	if err := n.publisher.PublishStateReady(ctx, agent, event); err != nil {
		return err
	}

	telemetry.NotifyPublishedTotal.WithLabelValues(string(domain.EventStateReady)).Inc()

	n.logger.Info("state ready published",
		"workflow_id", workflowID,
		"state", target,
		"agent", agent,
		"reason", reason,
	)
	return nil
}
