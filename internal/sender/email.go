package sender

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"

	"notifyhub/config"
	"notifyhub/internal/model"
)

type postmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender creates the Postmark-backed email sender.
func NewPostmarkSender(cfg config.EmailConfig) (EmailSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("postmark server token is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email from address is required")
	}
	return &postmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:   cfg.From,
	}, nil
}

func (s *postmarkSender) Send(ctx context.Context, contact model.Contact, title, message string) error {
	if contact.Email == "" {
		return Permanent(fmt.Errorf("contact has no email address"))
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       contact.Email,
		Subject:  title,
		TextBody: message,
	})
	if err != nil {
		// Transport-level failure: request never reached the API.
		return Transient(fmt.Errorf("postmark request failed: %w", err))
	}
	if resp.ErrorCode > 0 {
		// API-level rejections (bad recipient, suppressed address,
		// rejected sender signature) are request problems, not outages.
		return Permanent(fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
