package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"notifyhub/pkg/metrics"
	"notifyhub/pkg/util"
)

// ErrDiscard marks a message as unprocessable: the consumer acks it instead
// of requeueing. Poison messages must never block the queue.
var ErrDiscard = errors.New("discard message")

// Discard wraps err so the consumer drops the message instead of retrying.
func Discard(err error) error {
	return fmt.Errorf("%w: %w", ErrDiscard, err)
}

// MessageHandler processes one message body. Return values drive the
// ack/nack decision: nil acks, an ErrDiscard-wrapped error acks and drops,
// any other error requeues (bounded by the retry policy when one is set).
type MessageHandler func(ctx context.Context, data json.RawMessage) error

type deadLetterer interface {
	PublishToDLQ(queueName string, payload []byte, originalError string) error
}

// retryCounter is satisfied by util.RetryCounter.
type retryCounter interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type Consumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   amqp091.Queue
	handler MessageHandler
	logger  *zap.Logger

	retries    retryCounter
	maxRetries int64
	dlq        deadLetterer
}

// NewConsumer connects to the broker and declares the durable queue.
// Prefetch is 1 so messages are processed strictly in enqueue order.
func NewConsumer(url, queueName string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := DeclareQueue(ch, queueName)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	logger.Info("Consumer initialized", zap.String("queue", q.Name))

	return &Consumer{
		conn:    conn,
		channel: ch,
		queue:   q,
		logger:  logger,
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// SetRetryPolicy bounds requeue attempts per message. Once a message has
// been retried more than maxRetries times it is moved to the dead letter
// queue and acked. Without a policy, failed messages requeue indefinitely.
func (c *Consumer) SetRetryPolicy(counter retryCounter, maxRetries int64, dlq deadLetterer) {
	c.retries = counter
	c.maxRetries = maxRetries
	c.dlq = dlq
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming blocks, delivering messages to the handler one at a time.
// Every message resolves to exactly one ack or nack; on process exit,
// unacked in-flight messages are redelivered by the broker.
func (c *Consumer) StartConsuming() error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		"worker",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages", zap.String("queue", c.queue.Name))

	for msg := range deliveries {
		c.handleDelivery(context.Background(), msg)
	}

	return nil
}

func (c *Consumer) handleDelivery(ctx context.Context, msg amqp091.Delivery) {
	start := time.Now()

	// A handler panic must not kill the consume loop; the message goes
	// back to the queue.
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panic recovered",
				zap.String("queue", c.queue.Name),
				zap.Any("panic", r),
			)
			if err := msg.Nack(false, true); err != nil {
				c.logger.Error("Failed to nack message after panic", zap.Error(err))
			}
		}
	}()

	err := c.handler(ctx, msg.Body)
	metrics.RecordMQConsumeLatency(c.queue.Name, time.Since(start))

	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			c.logger.Error("Failed to ack message", zap.Error(ackErr))
		}
	case errors.Is(err, ErrDiscard):
		c.logger.Warn("Discarding message",
			zap.String("queue", c.queue.Name),
			zap.String("message_id", msg.MessageId),
			zap.Error(err),
		)
		if ackErr := msg.Ack(false); ackErr != nil {
			c.logger.Error("Failed to ack discarded message", zap.Error(ackErr))
		}
	default:
		c.retryOrDeadLetter(ctx, msg, err)
	}
}

// retryOrDeadLetter requeues a transiently failed message until the retry
// budget is spent, then dead-letters it.
func (c *Consumer) retryOrDeadLetter(ctx context.Context, msg amqp091.Delivery, handlerErr error) {
	if c.retries == nil || c.dlq == nil || msg.MessageId == "" {
		c.logger.Error("Handler error, requeueing message",
			zap.String("queue", c.queue.Name),
			zap.Error(handlerErr),
		)
		if err := msg.Nack(false, true); err != nil {
			c.logger.Error("Failed to nack message", zap.Error(err))
		}
		return
	}

	key := util.FormatRetryKey(c.queue.Name, msg.MessageId)
	count, err := c.retries.IncrementAndGet(ctx, key)
	if err != nil {
		// Retry state unavailable: requeue rather than risk dropping
		// the message.
		c.logger.Error("Retry counter unavailable, requeueing message", zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if count <= c.maxRetries {
		c.logger.Warn("Handler error, requeueing message",
			zap.String("queue", c.queue.Name),
			zap.String("message_id", msg.MessageId),
			zap.Int64("attempt", count),
			zap.Error(handlerErr),
		)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}

	c.logger.Error("Retry budget exhausted, dead-lettering message",
		zap.String("queue", c.queue.Name),
		zap.String("message_id", msg.MessageId),
		zap.Int64("attempts", count),
		zap.Error(handlerErr),
	)

	if dlqErr := c.dlq.PublishToDLQ(c.queue.Name, msg.Body, handlerErr.Error()); dlqErr != nil {
		// Could not park it; requeue so the broker keeps it.
		c.logger.Error("Failed to publish to DLQ, requeueing message", zap.Error(dlqErr))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}

	metrics.DeadLetterCount.Inc()
	_ = c.retries.Reset(ctx, key)
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("Failed to ack dead-lettered message", zap.Error(ackErr))
	}
}
