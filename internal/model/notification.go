package model

import "errors"

// Channel is the closed set of delivery channels.
type Channel string

const (
	ChannelInApp Channel = "in-app"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

var ErrInvalidRequest = errors.New("invalid notification request")

// NotificationRequest is the parsed inbound request handed to the dispatcher.
type NotificationRequest struct {
	UserID  string  `json:"user_id"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Channel Channel `json:"channel"`
}

// Validate enforces the request invariant: all fields non-empty and a known channel.
func (r NotificationRequest) Validate() error {
	if r.UserID == "" || r.Title == "" || r.Message == "" {
		return ErrInvalidRequest
	}
	if !r.Channel.Valid() {
		return ErrInvalidRequest
	}
	return nil
}

// HistoryEntry is one item in a user's in-memory notification history.
type HistoryEntry struct {
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Channel Channel `json:"channel"`
}
