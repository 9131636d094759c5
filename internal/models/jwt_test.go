package models

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: "admin",
		Role:     "admin",
		Type:     "access",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-side-key"))
	require.NoError(t, err)
	return token
}

func TestCappedExpiryUsesExpClaim(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	token := signedToken(t, now.Add(15*time.Minute))

	assert.Equal(t, now.Add(15*time.Minute).Unix(), CappedExpiry(token, now, 24*time.Hour).Unix())
}

func TestCappedExpiryUsesTTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	token := signedToken(t, now.Add(48*time.Hour))

	assert.Equal(t, now.Add(24*time.Hour), CappedExpiry(token, now, 24*time.Hour))
}

func TestCappedExpiryOpaqueToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.Equal(t, now.Add(time.Hour), CappedExpiry("opaque-token", now, time.Hour))
}

func TestUserFromToken(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))

	user, ok := UserFromToken(token)

	require.True(t, ok)
	assert.Equal(t, User{ID: "7", Username: "admin", Role: "admin"}, user)
	_, ok = UserFromToken("opaque-token")
	assert.False(t, ok)
}
