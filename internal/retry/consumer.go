package retry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"batipro/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 5
	DefaultBackoff     = 30 * time.Second
	consumerTag        = "batipro-invoice-retry"
)

// Handler performs one redelivery attempt.
type Handler interface {
	Redeliver(ctx context.Context, orderID string) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, orderID string) error

func (f HandlerFunc) Redeliver(ctx context.Context, orderID string) error { return f(ctx, orderID) }

type enqueuer interface {
	Enqueue(ctx context.Context, t Task) error
}

type Consumer struct {
	conn        *amqp.Connection
	next        enqueuer
	handler     Handler
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewConsumer(conn *amqp.Connection, next *Publisher, handler Handler, maxAttempts int, backoff time.Duration, logger *zap.Logger) *Consumer {
	return newConsumer(conn, next, handler, maxAttempts, backoff, logger)
}

func newConsumer(conn *amqp.Connection, next enqueuer, handler Handler, maxAttempts int, backoff time.Duration, logger *zap.Logger) *Consumer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if backoff < 0 {
		backoff = DefaultBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		conn:        conn,
		next:        next,
		handler:     handler,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		logger:      logger.Named("retry_consumer"),
		sleep:       sleepContext,
	}
}

// Start consumes the queue in a goroutine until ctx is cancelled or the
// channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declare(ch); err != nil {
		_ = ch.Close()
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := ch.Consume(Queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume: %w", err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("stopping invoice retry consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("retry deliveries channel closed")
					return
				}
				if err := c.process(ctx, msg.Body); err != nil {
					c.logger.Error("redelivery task not settled, requeueing", zap.Error(err))
					_ = msg.Nack(false, true)
					continue
				}
				_ = msg.Ack(false)
			}
		}
	}()
	return nil
}

// process runs one task. A nil error means the delivery can be acked: the
// task succeeded, was rescheduled, or was dropped for good.
func (c *Consumer) process(ctx context.Context, body []byte) error {
	var t Task
	if err := json.Unmarshal(body, &t); err != nil || t.OrderID == "" {
		c.logger.Error("dropping malformed redelivery task", zap.ByteString("body", body), zap.Error(err))
		return nil
	}
	if t.Attempt <= 0 {
		t.Attempt = 1
	}
	log := c.logger.With(zap.String("order_id", t.OrderID), zap.Int("attempt", t.Attempt), zap.String("task_id", t.ID))

	if err := c.sleep(ctx, time.Duration(t.Attempt)*c.backoff); err != nil {
		return err
	}

	err := c.handler.Redeliver(ctx, t.OrderID)
	switch {
	case err == nil:
		log.Info("invoice redelivered")
		return nil
	case errors.Is(err, domain.ErrNotFound):
		log.Warn("dropping redelivery of unknown order")
		return nil
	case t.Attempt >= c.maxAttempts:
		log.Error("redelivery attempts exhausted, invoice needs manual follow-up", zap.Error(err))
		return nil
	}

	log.Warn("redelivery failed, rescheduling", zap.Error(err))
	return c.next.Enqueue(ctx, Task{OrderID: t.OrderID, Attempt: t.Attempt + 1, Reason: err.Error()})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
