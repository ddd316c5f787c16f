package auth

import (
	"errors"

	"notifyhub/internal/directory"
	"notifyhub/pkg/util"
)

var ErrInvalidCredentials = errors.New("invalid user id or password")

// Service checks credentials against the static directory and issues JWTs.
type Service struct {
	directory *directory.Directory
	jwtSecret string
}

func NewService(dir *directory.Directory, jwtSecret string) *Service {
	return &Service{directory: dir, jwtSecret: jwtSecret}
}

// Login verifies the password for a directory user and returns a token.
func (s *Service) Login(userID, password string) (string, error) {
	rec, ok := s.directory.Record(userID)
	if !ok {
		return "", ErrInvalidCredentials
	}

	if !util.CheckPassword(password, rec.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return util.GenerateJWT(rec.ID, s.jwtSecret)
}

// Verify validates a token and returns the user ID it was issued for.
func (s *Service) Verify(token string) (string, error) {
	return util.ParseJWT(token, s.jwtSecret)
}
