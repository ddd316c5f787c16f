package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAcker struct {
	acks  int
	nacks []bool // requeue flag per nack
}

func (f *fakeAcker) Ack(tag uint64, multiple bool) error { f.acks++; return nil }

func (f *fakeAcker) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacks = append(f.nacks, requeue)
	return nil
}

func (f *fakeAcker) Reject(tag uint64, requeue bool) error {
	f.nacks = append(f.nacks, requeue)
	return nil
}

type fakeRetryCounter struct {
	counts map[string]int64
	resets []string
	err    error
}

func newFakeRetryCounter() *fakeRetryCounter {
	return &fakeRetryCounter{counts: map[string]int64{}}
}

func (f *fakeRetryCounter) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRetryCounter) Reset(ctx context.Context, key string) error {
	f.resets = append(f.resets, key)
	return nil
}

type fakeDLQ struct {
	published [][]byte
	reasons   []string
	err       error
}

func (f *fakeDLQ) PublishToDLQ(queueName string, payload []byte, originalError string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload)
	f.reasons = append(f.reasons, originalError)
	return nil
}

func newTestConsumer(handler MessageHandler) *Consumer {
	c := &Consumer{
		queue:  amqp091.Queue{Name: "notifications"},
		logger: zap.NewNop(),
	}
	c.SetHandler(handler)
	return c
}

func delivery(acker *fakeAcker, body, messageID string) amqp091.Delivery {
	return amqp091.Delivery{
		Acknowledger: acker,
		Body:         []byte(body),
		MessageId:    messageID,
		DeliveryTag:  1,
	}
}

func TestHandleDelivery_SuccessAcks(t *testing.T) {
	acker := &fakeAcker{}
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		return nil
	})

	c.handleDelivery(context.Background(), delivery(acker, `{}`, "m1"))

	assert.Equal(t, 1, acker.acks)
	assert.Empty(t, acker.nacks)
}

func TestHandleDelivery_DiscardAcks(t *testing.T) {
	acker := &fakeAcker{}
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		return Discard(errors.New("unknown user"))
	})

	c.handleDelivery(context.Background(), delivery(acker, `{}`, "m1"))

	assert.Equal(t, 1, acker.acks)
	assert.Empty(t, acker.nacks)
}

func TestHandleDelivery_ErrorWithoutPolicyRequeues(t *testing.T) {
	acker := &fakeAcker{}
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		return errors.New("smtp timeout")
	})

	c.handleDelivery(context.Background(), delivery(acker, `{}`, "m1"))

	assert.Equal(t, 0, acker.acks)
	require.Len(t, acker.nacks, 1)
	assert.True(t, acker.nacks[0], "nack must requeue")
}

func TestHandleDelivery_ErrorUnderBudgetRequeues(t *testing.T) {
	acker := &fakeAcker{}
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		return errors.New("smtp timeout")
	})
	c.SetRetryPolicy(newFakeRetryCounter(), 3, &fakeDLQ{})

	c.handleDelivery(context.Background(), delivery(acker, `{}`, "m1"))

	assert.Equal(t, 0, acker.acks)
	require.Len(t, acker.nacks, 1)
	assert.True(t, acker.nacks[0])
}

func TestHandleDelivery_ExhaustedBudgetDeadLetters(t *testing.T) {
	acker := &fakeAcker{}
	counter := newFakeRetryCounter()
	dlq := &fakeDLQ{}
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		return errors.New("smtp timeout")
	})
	c.SetRetryPolicy(counter, 2, dlq)

	// Two requeues, then dead letter on the third failure.
	for i := 0; i < 2; i++ {
		c.handleDelivery(context.Background(), delivery(acker, `{"x":1}`, "m1"))
	}
	require.Len(t, acker.nacks, 2)
	require.Empty(t, dlq.published)

	c.handleDelivery(context.Background(), delivery(acker, `{"x":1}`, "m1"))

	assert.Equal(t, 1, acker.acks)
	require.Len(t, dlq.published, 1)
	assert.JSONEq(t, `{"x":1}`, string(dlq.published[0]))
	assert.Equal(t, "smtp timeout", dlq.reasons[0])
	assert.Contains(t, counter.resets, "retry:notifications:m1")
}

func TestHandleDelivery_DLQFailureRequeues(t *testing.T) {
	acker := &fakeAcker{}
	counter := newFakeRetryCounter()
	counter.counts["retry:notifications:m1"] = 10
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		return errors.New("smtp timeout")
	})
	c.SetRetryPolicy(counter, 2, &fakeDLQ{err: errors.New("broker gone")})

	c.handleDelivery(context.Background(), delivery(acker, `{}`, "m1"))

	assert.Equal(t, 0, acker.acks)
	require.Len(t, acker.nacks, 1)
	assert.True(t, acker.nacks[0])
}

func TestHandleDelivery_CounterErrorRequeues(t *testing.T) {
	acker := &fakeAcker{}
	counter := newFakeRetryCounter()
	counter.err = errors.New("redis down")
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		return errors.New("smtp timeout")
	})
	c.SetRetryPolicy(counter, 2, &fakeDLQ{})

	c.handleDelivery(context.Background(), delivery(acker, `{}`, "m1"))

	require.Len(t, acker.nacks, 1)
	assert.True(t, acker.nacks[0])
}

func TestHandleDelivery_MissingMessageIDRequeues(t *testing.T) {
	acker := &fakeAcker{}
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		return errors.New("smtp timeout")
	})
	c.SetRetryPolicy(newFakeRetryCounter(), 2, &fakeDLQ{})

	c.handleDelivery(context.Background(), delivery(acker, `{}`, ""))

	require.Len(t, acker.nacks, 1)
	assert.True(t, acker.nacks[0])
}

func TestHandleDelivery_PanicRequeues(t *testing.T) {
	acker := &fakeAcker{}
	c := newTestConsumer(func(ctx context.Context, data json.RawMessage) error {
		panic("boom")
	})

	c.handleDelivery(context.Background(), delivery(acker, `{}`, "m1"))

	assert.Equal(t, 0, acker.acks)
	require.Len(t, acker.nacks, 1)
	assert.True(t, acker.nacks[0])
}
