package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	contracts "notifyhub/contracts/mq"
	"notifyhub/internal/model"
	"notifyhub/internal/sender"
	"notifyhub/pkg/metrics"
	"notifyhub/pkg/mq"
)

// Directory resolves user IDs to contact info.
type Directory interface {
	Lookup(userID string) (model.Contact, bool)
}

// NotificationDeliveryHandler consumes queued notifications and sends them
// through the matching channel. Its return value drives the consumer's
// ack/nack decision: nil acks, mq.Discard drops, any other error requeues.
type NotificationDeliveryHandler struct {
	directory Directory
	email     sender.EmailSender
	sms       sender.SMSSender
	logger    *zap.Logger
}

func NewNotificationDeliveryHandler(
	directory Directory,
	email sender.EmailSender,
	sms sender.SMSSender,
	logger *zap.Logger,
) *NotificationDeliveryHandler {
	return &NotificationDeliveryHandler{
		directory: directory,
		email:     email,
		sms:       sms,
		logger:    logger,
	}
}

// Handle processes one queued notification. Deliveries are at-least-once:
// a redelivered message is simply sent again, duplicates and all.
func (h *NotificationDeliveryHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p contracts.QueuedNotification
	if err := json.Unmarshal(raw, &p); err != nil {
		// Poison message; retrying cannot fix a body that does not parse.
		h.logger.Error("Malformed queue message", zap.Error(err))
		return mq.Discard(fmt.Errorf("malformed queue message: %w", err))
	}

	contact, ok := h.directory.Lookup(p.UserID)
	if !ok {
		h.logger.Warn("Unknown user in queued notification", zap.String("user_id", p.UserID))
		return mq.Discard(fmt.Errorf("unknown user %q", p.UserID))
	}

	var err error
	switch model.Channel(p.Channel) {
	case model.ChannelEmail:
		err = h.email.Send(ctx, contact, p.Title, p.Message)
	case model.ChannelSMS:
		err = h.sms.Send(ctx, contact, p.Title, p.Message)
	default:
		// In-app notifications are pushed synchronously by the server and
		// must never be queued; seeing one here is a producer bug.
		h.logger.Warn("Unsupported channel in queued notification",
			zap.String("user_id", p.UserID),
			zap.String("channel", p.Channel),
		)
		return mq.Discard(fmt.Errorf("unsupported channel %q", p.Channel))
	}

	outcome := sender.Classify(err)
	metrics.DeliveryAttempts.WithLabelValues(p.Channel, outcome.String()).Inc()

	switch outcome {
	case sender.Success:
		h.logger.Info("Notification delivered",
			zap.String("user_id", p.UserID),
			zap.String("channel", p.Channel),
		)
		return nil
	case sender.PermanentFailure:
		h.logger.Error("Permanent delivery failure, dropping notification",
			zap.String("user_id", p.UserID),
			zap.String("channel", p.Channel),
			zap.Error(err),
		)
		return mq.Discard(err)
	default:
		// Transient: surface the error so the consumer requeues it.
		h.logger.Warn("Transient delivery failure",
			zap.String("user_id", p.UserID),
			zap.String("channel", p.Channel),
			zap.Error(err),
		)
		return err
	}
}
