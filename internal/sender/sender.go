// Package sender holds the outbound channel transports and the
// transient-vs-permanent classification of their failures. That
// classification drives the worker's ack/nack decision: a permanent
// failure is dropped, a transient one is requeued.
package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"notifyhub/internal/model"
)

// Outcome is the tri-state result of a send attempt.
type Outcome int

const (
	Success Outcome = iota
	PermanentFailure
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case PermanentFailure:
		return "permanent_failure"
	case TransientFailure:
		return "transient_failure"
	}
	return "unknown"
}

// EmailSender sends one email to a resolved contact.
type EmailSender interface {
	Send(ctx context.Context, contact model.Contact, title, message string) error
}

// SMSSender sends one SMS to a resolved contact.
type SMSSender interface {
	Send(ctx context.Context, contact model.Contact, title, message string) error
}

var (
	errPermanent = errors.New("permanent send failure")
	errTransient = errors.New("transient send failure")
)

// Permanent marks an error as not worth retrying (bad recipient,
// rejected credentials, malformed message).
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", errPermanent, err)
}

// Transient marks an error as retryable (connectivity, timeout).
func Transient(err error) error {
	return fmt.Errorf("%w: %w", errTransient, err)
}

// Classify maps a send error to an Outcome. Explicit markers win; otherwise
// network-shaped errors are transient and everything else is permanent —
// retrying an unknown error risks a requeue storm, while the DLQ keeps the
// evidence either way.
func Classify(err error) Outcome {
	if err == nil {
		return Success
	}

	if errors.Is(err, errPermanent) {
		return PermanentFailure
	}
	if errors.Is(err, errTransient) {
		return TransientFailure
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return TransientFailure
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return TransientFailure
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TransientFailure
	}

	return PermanentFailure
}
