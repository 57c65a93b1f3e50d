package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges.
const (
	// ExchangeStates — все события о states.
	ExchangeStates Exchange = "chorus.states"

	// ExchangeDLQ — dead letter queue.
	ExchangeDLQ Exchange = "chorus.dlq"
)

// Queues.
const (
	// QueueStatesCompleted — завершения states; consumer — notifier.
	QueueStatesCompleted Queue = "states.completed"

	// QueueDLQEvents — события, которые не удалось обработать.
	QueueDLQEvents Queue = "dlq.events"
)

// Routing keys.
const (
	// RoutingKeyCompleted — завершение state.
	RoutingKeyCompleted RoutingKey = "completed"

	// RoutingKeyDLQEvents — события в DLQ.
	RoutingKeyDLQEvents RoutingKey = "events"
)

// ReadyQueue возвращает очередь готовности для агента.
// У каждого агента своя очередь: события state.ready адресные.
func ReadyQueue(agentID string) Queue {
	return Queue("states.ready." + agentID)
}

// ReadyRoutingKey возвращает ключ маршрутизации готовности для агента.
func ReadyRoutingKey(agentID string) RoutingKey {
	return RoutingKey("ready." + agentID)
}

// SetupTopology объявляет exchange, базовые очереди и bindings.
// Очереди готовности агентов объявляются отдельно (EnsureReadyQueue),
// когда агент становится известен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		exchanges := []struct {
			name Exchange
			kind string
		}{
			{ExchangeStates, "direct"},
			{ExchangeDLQ, "direct"},
		}
		for _, ex := range exchanges {
			err := ch.ExchangeDeclare(
				string(ex.name), // name
				ex.kind,         // type
				true,            // durable
				false,           // auto-deleted
				false,           // internal
				false,           // no-wait
				nil,             // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		// Аргументы для очередей с DLQ.
		dlqArgs := amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQEvents),
		}

		queues := []struct {
			name Queue
			args amqp.Table
		}{
			{QueueStatesCompleted, dlqArgs},
			{QueueDLQEvents, nil},
		}
		for _, q := range queues {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		bindings := []struct {
			queue      Queue
			routingKey RoutingKey
			exchange   Exchange
		}{
			{QueueStatesCompleted, RoutingKeyCompleted, ExchangeStates},
			{QueueDLQEvents, RoutingKeyDLQEvents, ExchangeDLQ},
		}
		for _, b := range bindings {
			err := ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// EnsureReadyQueue объявляет очередь готовности агента и binding к ней.
// Идемпотентно: повторное объявление с теми же параметрами — no-op.
func EnsureReadyQueue(ctx context.Context, conn *Connection, agentID string) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		queue := ReadyQueue(agentID)

		_, err := ch.QueueDeclare(
			string(queue), // name
			true,          // durable
			false,         // delete when unused
			false,         // exclusive
			false,         // no-wait
			nil,           // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		err = ch.QueueBind(
			string(queue),
			string(ReadyRoutingKey(agentID)),
			string(ExchangeStates),
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
		return nil
	})
}
