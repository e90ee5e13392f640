// Package notify publishes operator notification events to a RabbitMQ topic
// exchange. The notification kind doubles as the routing key, so operator
// consoles can bind narrowly (e.g. only conversation.escalated).
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"deskpilot/internal/logging"
	"deskpilot/internal/types"
)

// Publisher sends notification events over AMQP. Implements types.Notifier.
type Publisher struct {
	conn     *amqp091.Connection
	exchange string
	log      *zap.Logger
}

// New connects to the broker and declares the durable topic exchange.
func New(url, exchange string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		conn:     conn,
		exchange: exchange,
		log:      logging.Get(logging.CategoryNotify),
	}, nil
}

// Publish sends one event. The routing key is the event kind.
func (p *Publisher) Publish(ctx context.Context, event types.NotificationEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = ch.PublishWithContext(ctx, p.exchange, string(event.Kind), false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    event.OccurredAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Kind, err)
	}

	p.log.Debug("published notification",
		zap.String("kind", string(event.Kind)),
		zap.String("conversation_id", event.ConversationID))
	return nil
}

// Close closes the broker connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}
