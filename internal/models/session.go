package models

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Session is the locally persisted login state: a bearer access token and the absolute
// time after which it must not be used anymore.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
}

// ValidAt reports whether the session holds a token that has not expired at the given time.
// Expiry is compared with millisecond precision because that is how it is persisted.
func (s Session) ValidAt(now time.Time) bool {
	return s.AccessToken != "" && now.UnixMilli() < s.ExpiresAt.UnixMilli()
}

// ExpiresWithin reports whether the session expires before now+margin.
func (s Session) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return !now.Add(margin).Before(s.ExpiresAt)
}

// OAuth2Token converts the session into a bearer token that can set request headers.
func (s Session) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{AccessToken: s.AccessToken, TokenType: "Bearer", Expiry: s.ExpiresAt}
}

// String implements the Stringer interface, the token value is never printed.
func (s Session) String() string {
	return fmt.Sprintf("Session<AccessToken: redacted-%d-chars, ExpiresAt: %s>", len(s.AccessToken), s.ExpiresAt.UTC())
}

// BearerToken wraps a raw access token so it can be attached to requests.
func BearerToken(value string) *oauth2.Token {
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}
}
