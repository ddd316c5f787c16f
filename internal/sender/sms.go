package sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"notifyhub/config"
	"notifyhub/internal/model"
)

type twilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates the Twilio-backed SMS sender.
func NewTwilioSender(cfg config.SMSConfig) (SMSSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("twilio credentials are required")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("twilio from number is required")
	}
	return &twilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		from: cfg.FromNumber,
	}, nil
}

func (s *twilioSender) Send(ctx context.Context, contact model.Contact, title, message string) error {
	if contact.Phone == "" {
		return Permanent(fmt.Errorf("contact has no phone number"))
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(contact.Phone)
	params.SetFrom(s.from)
	params.SetBody(fmt.Sprintf("%s: %s", title, message))

	_, err := s.client.Api.CreateMessage(params)
	if err == nil {
		return nil
	}

	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		// 5xx and rate limiting are service-side and worth retrying;
		// other 4xx mean the request itself is bad.
		if restErr.Status >= 500 || restErr.Status == 429 {
			return Transient(fmt.Errorf("twilio error %d: %s", restErr.Status, restErr.Message))
		}
		return Permanent(fmt.Errorf("twilio error %d: %s", restErr.Status, restErr.Message))
	}

	return Transient(fmt.Errorf("twilio request failed: %w", err))
}
