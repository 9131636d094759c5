package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AccessTokenClaims are the claims the REST API puts in its access tokens.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
	Type     string `json:"type"`
}

// ParseAccessTokenClaims reads the claims without verifying the signature. The signing key
// only lives on the server, the client just uses the claims as hints.
func ParseAccessTokenClaims(token string) (AccessTokenClaims, bool) {
	claims := AccessTokenClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return AccessTokenClaims{}, false
	}
	return claims, true
}

// CappedExpiry returns now+ttl, or the exp claim of the token when that comes first.
func CappedExpiry(token string, now time.Time, ttl time.Duration) time.Time {
	expiresAt := now.Add(ttl)
	claims, ok := ParseAccessTokenClaims(token)
	if !ok || claims.ExpiresAt == nil {
		return expiresAt
	}
	if claims.ExpiresAt.Time.Before(expiresAt) {
		return claims.ExpiresAt.Time
	}
	return expiresAt
}

// UserFromToken rebuilds the user profile from the access token claims.
func UserFromToken(token string) (User, bool) {
	claims, ok := ParseAccessTokenClaims(token)
	if !ok || claims.Subject == "" {
		return User{}, false
	}
	return User{ID: UserID(claims.Subject), Username: claims.Username, Role: claims.Role}, true
}
