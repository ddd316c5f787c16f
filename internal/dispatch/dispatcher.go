// Package dispatch decides how a notification reaches the user: synchronous
// realtime push for in-app, durable enqueue for email/SMS, or direct
// synchronous send when the broker is unavailable.
package dispatch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	contracts "notifyhub/contracts/mq"
	"notifyhub/internal/history"
	"notifyhub/internal/model"
	"notifyhub/internal/sender"
	"notifyhub/pkg/circuitbreaker"
	"notifyhub/pkg/metrics"
)

// ErrUnknownUser rejects requests for users missing from the directory.
var ErrUnknownUser = errors.New("unknown user")

// Broker is the producer side of the durable queue.
type Broker interface {
	Publish(queueName string, payload any) error
	IsConnected() bool
}

// Realtime pushes a payload to a user's connected clients, best effort.
type Realtime interface {
	PublishToUser(userID string, payload any)
}

// Directory resolves user IDs to contact info.
type Directory interface {
	Lookup(userID string) (model.Contact, bool)
}

// Result is the definite answer every Dispatch call produces. Queued means
// delivery is now the worker's responsibility; the caller hears nothing
// more about it.
type Result struct {
	Accepted bool   `json:"accepted"`
	Queued   bool   `json:"queued"`
	Reason   string `json:"reason,omitempty"`
}

type Deps struct {
	Directory Directory
	History   *history.Store
	Realtime  Realtime
	Broker    Broker // nil when the broker was unreachable at startup
	Email     sender.EmailSender
	SMS       sender.SMSSender
	Queue     string
	Logger    *zap.Logger
}

type Dispatcher struct {
	deps    Deps
	breaker *circuitbreaker.CircuitBreaker
}

func New(deps Deps) *Dispatcher {
	return &Dispatcher{
		deps:    deps,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}
}

// Dispatch routes one notification request. Every path returns a definite
// Result or a typed rejection; broker and transport errors never escape.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.NotificationRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		metrics.DispatchCount.WithLabelValues(string(req.Channel), "rejected").Inc()
		return Result{}, err
	}

	contact, ok := d.deps.Directory.Lookup(req.UserID)
	if !ok {
		metrics.DispatchCount.WithLabelValues(string(req.Channel), "rejected").Inc()
		return Result{}, ErrUnknownUser
	}

	// History is recorded for every accepted request, before routing.
	d.deps.History.Append(req.UserID, model.HistoryEntry{
		Title:   req.Title,
		Message: req.Message,
		Channel: req.Channel,
	})

	if req.Channel == model.ChannelInApp {
		// Best effort: an empty group is not a failure.
		d.deps.Realtime.PublishToUser(req.UserID, req)
		metrics.DispatchCount.WithLabelValues(string(req.Channel), "realtime").Inc()
		return Result{Accepted: true, Queued: false}, nil
	}

	if d.brokerReady() {
		err := d.breaker.Execute(func() error {
			return d.deps.Broker.Publish(d.deps.Queue, contracts.QueuedNotification{
				UserID:  req.UserID,
				Title:   req.Title,
				Message: req.Message,
				Channel: string(req.Channel),
			})
		})
		if err == nil {
			metrics.DispatchCount.WithLabelValues(string(req.Channel), "queued").Inc()
			return Result{Accepted: true, Queued: true}, nil
		}

		if !errors.Is(err, circuitbreaker.ErrOpen) {
			metrics.QueuePublishFailures.Inc()
		}
		d.deps.Logger.Warn("Broker publish failed, falling back to direct send",
			zap.String("user_id", req.UserID),
			zap.String("channel", string(req.Channel)),
			zap.Error(err),
		)
	}

	return d.sendDirect(ctx, req, contact), nil
}

func (d *Dispatcher) brokerReady() bool {
	return d.deps.Broker != nil && d.deps.Broker.IsConnected()
}

// sendDirect is the degradation path: one synchronous attempt via the
// matching channel sender, no retries. The caller learns the outcome
// immediately.
func (d *Dispatcher) sendDirect(ctx context.Context, req model.NotificationRequest, contact model.Contact) Result {
	var err error
	switch req.Channel {
	case model.ChannelEmail:
		err = d.deps.Email.Send(ctx, contact, req.Title, req.Message)
	case model.ChannelSMS:
		err = d.deps.SMS.Send(ctx, contact, req.Title, req.Message)
	}

	outcome := sender.Classify(err)
	metrics.DeliveryAttempts.WithLabelValues(string(req.Channel), outcome.String()).Inc()

	if outcome == sender.Success {
		metrics.DispatchCount.WithLabelValues(string(req.Channel), "direct_success").Inc()
		return Result{Accepted: true, Queued: false}
	}

	metrics.DispatchCount.WithLabelValues(string(req.Channel), "direct_failure").Inc()
	d.deps.Logger.Error("Direct send failed",
		zap.String("user_id", req.UserID),
		zap.String("channel", string(req.Channel)),
		zap.String("outcome", outcome.String()),
		zap.Error(err),
	)
	return Result{Accepted: false, Queued: false, Reason: outcome.String()}
}
