// Package realtime pushes in-app notifications to connected websocket
// clients. Delivery is best effort: no acknowledgment, no retry, and a
// user with no open connections simply misses the push.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub tracks per-user subscription groups. Different users' groups are
// independent; one lock keeps Subscribe/Unsubscribe/PublishToUser
// consistent, none of which hold it across I/O.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Subscribe joins a connection to a user's group.
func (h *Hub) Subscribe(c *Client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.userID != "" {
		h.removeLocked(c)
	}
	c.userID = userID

	group, ok := h.groups[userID]
	if !ok {
		group = make(map[*Client]struct{})
		h.groups[userID] = group
	}
	group[c] = struct{}{}

	h.logger.Info("Client subscribed", zap.String("user_id", userID))
}

// Unsubscribe removes a connection from its group and closes its send
// channel. Safe to call for a client that never registered.
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (h *Hub) removeLocked(c *Client) {
	if c.userID == "" {
		return
	}
	if group, ok := h.groups[c.userID]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.groups, c.userID)
		}
	}
	c.userID = ""
}

// PublishToUser delivers payload to every connection in the user's group.
// An empty group is a no-op, not a failure. A client whose send buffer is
// full is skipped rather than blocking the publish path.
func (h *Hub) PublishToUser(userID string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal realtime payload", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.groups[userID] {
		select {
		case c.send <- body:
		default:
			h.logger.Warn("Dropping realtime payload for slow client",
				zap.String("user_id", userID),
			)
		}
	}
}

// connections returns the current subscriber count for a user.
func (h *Hub) connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[userID])
}
