// Package retry queues invoice redeliveries on RabbitMQ and replays them
// from a background consumer.
package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Queue is the durable queue holding pending redeliveries.
const Queue = "invoice.redeliver"

const publishTimeout = 3 * time.Second

// Task asks for one more delivery attempt of an order's invoice.
type Task struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId"`
	Attempt    int       `json:"attempt"`
	Reason     string    `json:"reason,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch     publishChannel
	logger *zap.Logger
	now    func() time.Time
}

func NewPublisher(conn *amqp.Connection, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declare(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return newPublisher(ch, logger), nil
}

func newPublisher(ch publishChannel, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{ch: ch, logger: logger.Named("retry"), now: time.Now}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// Schedule queues the first redelivery attempt of an order.
func (p *Publisher) Schedule(ctx context.Context, orderID, reason string) error {
	return p.Enqueue(ctx, Task{OrderID: orderID, Attempt: 1, Reason: reason})
}

func (p *Publisher) Enqueue(ctx context.Context, t Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = p.now().UTC()
	}
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(pubCtx, "", Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    t.ID,
		Timestamp:    t.EnqueuedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", Queue, err)
	}
	p.logger.Info("redelivery queued", zap.String("order_id", t.OrderID), zap.Int("attempt", t.Attempt), zap.String("task_id", t.ID))
	return nil
}

// NopPublisher drops every task. It stands in when no broker is configured.
type NopPublisher struct {
	Logger *zap.Logger
}

func (n NopPublisher) Schedule(_ context.Context, orderID, reason string) error {
	if n.Logger != nil {
		n.Logger.Warn("no retry queue configured, invoice needs manual redelivery",
			zap.String("order_id", orderID), zap.String("reason", reason))
	}
	return nil
}

func declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", Queue, err)
	}
	return nil
}
