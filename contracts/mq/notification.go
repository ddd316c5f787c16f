// Package mq holds the wire contracts shared by the server and worker
// processes. Both sides marshal to and from these payloads, so field
// changes here are cross-process protocol changes.
package mq

// QueuedNotification is the durable body placed on the notifications queue.
// Channel is always "email" or "sms"; in-app notifications are pushed
// synchronously and never queued.
type QueuedNotification struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Channel string `json:"channel"`
}
