// Package history keeps the in-memory per-user notification list. It is the
// server process's only record of past notifications and is lost on restart.
package history

import (
	"sync"

	"notifyhub/internal/model"
)

type Store struct {
	mu      sync.Mutex
	entries map[string][]model.HistoryEntry
}

func NewStore() *Store {
	return &Store{entries: make(map[string][]model.HistoryEntry)}
}

// Append records an entry for a user. Entries are kept in arrival order.
func (s *Store) Append(userID string, entry model.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = append(s.entries[userID], entry)
}

// List returns a copy of a user's history, empty slice when none.
func (s *Store) List(userID string) []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.entries[userID]
	out := make([]model.HistoryEntry, len(entries))
	copy(out, entries)
	return out
}
