package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService("test-secret", "admin", HashPassword("letmein"), time.Minute, time.Hour)
}

func TestLogin(t *testing.T) {
	s := newTestService()

	pair, err := s.Login("admin", "letmein")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(60), pair.ExpiresIn)

	_, err = s.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login("intruder", "letmein")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyAccess(t *testing.T) {
	s := newTestService()
	pair, err := s.Login("admin", "letmein")
	require.NoError(t, err)

	claims, err := s.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)

	// A refresh token is not accepted where an access token is required.
	_, err = s.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.VerifyAccess("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccess_WrongSecret(t *testing.T) {
	s := newTestService()
	pair, err := s.Login("admin", "letmein")
	require.NoError(t, err)

	other := NewService("other-secret", "admin", HashPassword("letmein"), time.Minute, time.Hour)
	_, err = other.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshAndRevoke(t *testing.T) {
	s := newTestService()
	pair, err := s.Login("admin", "letmein")
	require.NoError(t, err)

	rotated, err := s.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)

	require.NoError(t, s.Revoke(pair.RefreshToken))
	_, err = s.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "revoked refresh token must be rejected")

	// Access tokens are not accepted by Refresh.
	_, err = s.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	s := NewService("test-secret", "admin", HashPassword("pw"), time.Minute, time.Hour)
	s.accessTTL = -time.Minute // force already-expired tokens

	pair, err := s.issuePair("admin")
	require.NoError(t, err)

	_, err = s.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
