// Package tokenstore persists the session credentials. Every operation is total: storage
// failures are logged and reported as absent data, never returned to the caller.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/estatehub/admin-gateway/internal/gwerrors"
	"github.com/estatehub/admin-gateway/internal/models"
)

type TokenStore struct {
	repo LimitedRepository
	now  func() time.Time
}

// Now returns the current time of the store clock.
func (ts *TokenStore) Now() time.Time {
	return ts.now()
}

// Save persists the access token with an expiry of now+ttl.
func (ts *TokenStore) Save(ctx context.Context, token string, ttl time.Duration) {
	ts.SaveUntil(ctx, token, ts.now().Add(ttl))
}

// SaveUntil persists the access token with an absolute expiry. A partial write is rolled back.
func (ts *TokenStore) SaveUntil(ctx context.Context, token string, expiresAt time.Time) {
	if token == "" {
		slog.Warn("TOKEN STORE", "message", "refusing to save an empty access token, clearing instead")
		ts.Clear(ctx)
		return
	}
	// the expiry goes first: a concurrent reader may pair the old token with the new expiry,
	// never the new token with an old expiry that the guard would purge
	err := ts.repo.Set(ctx, ExpiryKey, strconv.FormatInt(expiresAt.UnixMilli(), 10))
	if err == nil {
		err = ts.repo.Set(ctx, AccessTokenKey, token)
	}
	if err != nil {
		slog.Warn("TOKEN STORE", "message", "saving the access token failed", "error", err)
		ts.Clear(ctx)
	}
}

// Read returns the stored session. It reports false if the token or its expiry are missing,
// the expiry cannot be parsed or the storage cannot be read.
func (ts *TokenStore) Read(ctx context.Context) (models.Session, bool) {
	token, ok := ts.get(ctx, AccessTokenKey)
	if !ok || token == "" {
		return models.Session{}, false
	}
	rawExpiry, ok := ts.get(ctx, ExpiryKey)
	if !ok {
		return models.Session{}, false
	}
	expiryMillis, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		slog.Warn("TOKEN STORE", "message", "stored token expiry cannot be parsed", "error", err)
		return models.Session{}, false
	}
	return models.Session{AccessToken: token, ExpiresAt: time.UnixMilli(expiryMillis)}, true
}

// Clear removes the access token and its expiry. It is idempotent.
func (ts *TokenStore) Clear(ctx context.Context) {
	ts.remove(ctx, AccessTokenKey, ExpiryKey)
}

// ClearAll removes everything the session persisted, including the refresh token and the user.
func (ts *TokenStore) ClearAll(ctx context.Context) {
	ts.remove(ctx, AccessTokenKey, ExpiryKey, RefreshTokenKey, UserKey)
}

func (ts *TokenStore) SaveRefreshToken(ctx context.Context, token string) {
	if token == "" {
		ts.remove(ctx, RefreshTokenKey)
		return
	}
	err := ts.repo.Set(ctx, RefreshTokenKey, token)
	if err != nil {
		slog.Warn("TOKEN STORE", "message", "saving the refresh token failed", "error", err)
	}
}

func (ts *TokenStore) RefreshToken(ctx context.Context) (string, bool) {
	token, ok := ts.get(ctx, RefreshTokenKey)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (ts *TokenStore) SaveUser(ctx context.Context, user models.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		slog.Warn("TOKEN STORE", "message", "cannot serialize the user", "error", err)
		return
	}
	err = ts.repo.Set(ctx, UserKey, string(raw))
	if err != nil {
		slog.Warn("TOKEN STORE", "message", "saving the user failed", "error", err)
	}
}

func (ts *TokenStore) User(ctx context.Context) (models.User, bool) {
	raw, ok := ts.get(ctx, UserKey)
	if !ok {
		return models.User{}, false
	}
	var user models.User
	err := json.Unmarshal([]byte(raw), &user)
	if err != nil {
		slog.Warn("TOKEN STORE", "message", "stored user cannot be parsed", "error", err)
		return models.User{}, false
	}
	return user, true
}

func (ts *TokenStore) get(ctx context.Context, key string) (string, bool) {
	value, err := ts.repo.Get(ctx, key)
	if errors.Is(err, gwerrors.ErrMissingDBResource) {
		return "", false
	}
	if err != nil {
		slog.Warn("TOKEN STORE", "message", "reading from the storage failed", "key", key, "error", err)
		return "", false
	}
	return value, true
}

func (ts *TokenStore) remove(ctx context.Context, keys ...string) {
	err := ts.repo.Remove(ctx, keys...)
	if err != nil {
		slog.Warn("TOKEN STORE", "message", "removing from the storage failed", "keys", keys, "error", err)
	}
}

type TokenStoreOption func(*TokenStore) error

func WithRepository(repo LimitedRepository) TokenStoreOption {
	return func(ts *TokenStore) error {
		ts.repo = repo
		return nil
	}
}

// WithClock replaces the wall clock, mostly useful in tests.
func WithClock(now func() time.Time) TokenStoreOption {
	return func(ts *TokenStore) error {
		ts.now = now
		return nil
	}
}

func NewTokenStore(options ...TokenStoreOption) (*TokenStore, error) {
	ts := TokenStore{now: time.Now}
	for _, opt := range options {
		err := opt(&ts)
		if err != nil {
			return nil, err
		}
	}
	if ts.repo == nil {
		return nil, fmt.Errorf("token repository not initialized")
	}
	if ts.now == nil {
		return nil, fmt.Errorf("clock not initialized")
	}
	return &ts, nil
}
