// Package directory maps user IDs to contact info. The table is loaded once
// at startup and never mutated, so lookups need no locking.
package directory

import (
	"notifyhub/config"
	"notifyhub/internal/model"
)

type Directory struct {
	users map[string]model.UserRecord
}

func New(users []config.UserConfig) *Directory {
	m := make(map[string]model.UserRecord, len(users))
	for _, u := range users {
		m[u.ID] = model.UserRecord{
			ID:           u.ID,
			Email:        u.Email,
			Phone:        u.Phone,
			PasswordHash: u.PasswordHash,
		}
	}
	return &Directory{users: m}
}

// Lookup resolves a user ID to contact info. An unknown ID is a normal
// outcome signaled by ok=false, not an error.
func (d *Directory) Lookup(userID string) (model.Contact, bool) {
	u, ok := d.users[userID]
	if !ok {
		return model.Contact{}, false
	}
	return model.Contact{Email: u.Email, Phone: u.Phone}, true
}

// Record returns the full user record, including credentials.
func (d *Directory) Record(userID string) (model.UserRecord, bool) {
	u, ok := d.users[userID]
	return u, ok
}
