package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifyhub/config"
	"notifyhub/internal/directory"
	"notifyhub/pkg/util"
)

func newService(t *testing.T) *Service {
	t.Helper()
	hash, err := util.HashPassword("s3cret")
	require.NoError(t, err)

	dir := directory.New([]config.UserConfig{
		{ID: "user123", Email: "user123@example.com", PasswordHash: hash},
	})
	return NewService(dir, "test-secret")
}

func TestLoginAndVerify(t *testing.T) {
	s := newService(t)

	token, err := s.Login("user123", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user123", userID)
}

func TestLoginWrongPassword(t *testing.T) {
	s := newService(t)

	_, err := s.Login("user123", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	s := newService(t)

	_, err := s.Login("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyGarbageToken(t *testing.T) {
	s := newService(t)

	_, err := s.Verify("not-a-token")
	assert.Error(t, err)
}

func TestVerifyTokenSignedWithOtherSecret(t *testing.T) {
	s := newService(t)

	token, err := util.GenerateJWT("user123", "other-secret")
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.Error(t, err)
}
