package model

// Contact is the deliverable address set for a user.
type Contact struct {
	Email string
	Phone string
}

// UserRecord is one static directory entry, read-only after process start.
type UserRecord struct {
	ID           string
	Email        string
	Phone        string
	PasswordHash string
}
