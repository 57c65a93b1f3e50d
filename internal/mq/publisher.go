package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Chorus/internal/domain"
)

// Publisher публикует события о states в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует событие в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, event *domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // событие переживёт рестарт RabbitMQ
				MessageId:    event.ID,
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published event",
			"exchange", exchange,
			"routing_key", routingKey,
			"event_id", event.ID,
			"type", event.Type,
		)
		return nil
	})
}

// PublishStateCompleted публикует событие о завершении state.
// Потребитель: notifier.
func (p *Publisher) PublishStateCompleted(ctx context.Context, event *domain.Event) error {
	return p.Publish(ctx, ExchangeStates, RoutingKeyCompleted, event)
}

// PublishStateReady публикует событие готовности в очередь агента.
func (p *Publisher) PublishStateReady(ctx context.Context, agentID string, event *domain.Event) error {
	return p.Publish(ctx, ExchangeStates, ReadyRoutingKey(agentID), event)
}
