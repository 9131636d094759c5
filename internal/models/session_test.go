package models

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionValidAt(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	session := Session{AccessToken: "abc", ExpiresAt: now.Add(time.Hour)}

	assert.True(t, session.ValidAt(now))
	assert.True(t, session.ValidAt(now.Add(time.Hour-time.Millisecond)))
	assert.False(t, session.ValidAt(now.Add(time.Hour)))
	assert.False(t, session.ValidAt(now.Add(2*time.Hour)))
}

func TestSessionWithoutTokenIsInvalid(t *testing.T) {
	now := time.Now()
	session := Session{ExpiresAt: now.Add(time.Hour)}

	assert.False(t, session.ValidAt(now))
}

func TestSessionExpiresWithin(t *testing.T) {
	now := time.Now()
	session := Session{AccessToken: "abc", ExpiresAt: now.Add(2 * time.Minute)}

	assert.True(t, session.ExpiresWithin(now, 3*time.Minute))
	assert.False(t, session.ExpiresWithin(now, time.Minute))
}

func TestSessionStringIsRedacted(t *testing.T) {
	session := Session{AccessToken: "super-secret", ExpiresAt: time.Now()}

	assert.NotContains(t, session.String(), "super-secret")
}

func TestSessionSetsBearerHeader(t *testing.T) {
	session := Session{AccessToken: "abc", ExpiresAt: time.Now().Add(time.Hour)}
	req, _ := http.NewRequest(http.MethodGet, "http://localhost/api/units", nil)

	session.OAuth2Token().SetAuthHeader(req)

	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
}
