// Package sessions decides whether the persisted session can be used for a request.
package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/estatehub/admin-gateway/internal/models"
)

// SessionReader is the part of the token store the guard depends on.
type SessionReader interface {
	Read(ctx context.Context) (models.Session, bool)
	Clear(ctx context.Context)
}

// Guard is the single source of truth for "is the stored token usable right now".
type Guard struct {
	store SessionReader
	now   func() time.Time
}

// Session returns the stored session if it is still valid. An expired session is purged
// as soon as it is observed.
func (g *Guard) Session(ctx context.Context) (models.Session, bool) {
	session, ok := g.store.Read(ctx)
	if !ok {
		return models.Session{}, false
	}
	if !session.ValidAt(g.now()) {
		slog.Debug("SESSION GUARD", "message", "stored access token expired, clearing it", "expiresAt", session.ExpiresAt)
		g.store.Clear(ctx)
		return models.Session{}, false
	}
	return session, true
}

// GetValidToken returns the access token when it is present and not expired.
func (g *Guard) GetValidToken(ctx context.Context) (string, bool) {
	session, ok := g.Session(ctx)
	if !ok {
		return "", false
	}
	return session.AccessToken, true
}

func (g *Guard) IsAuthenticated(ctx context.Context) bool {
	_, ok := g.GetValidToken(ctx)
	return ok
}

type GuardOption func(*Guard) error

func WithSessionReader(store SessionReader) GuardOption {
	return func(g *Guard) error {
		g.store = store
		return nil
	}
}

func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) error {
		g.now = now
		return nil
	}
}

func NewGuard(options ...GuardOption) (*Guard, error) {
	g := Guard{now: time.Now}
	for _, opt := range options {
		err := opt(&g)
		if err != nil {
			return nil, err
		}
	}
	if g.store == nil {
		return nil, fmt.Errorf("session store not initialized")
	}
	if g.now == nil {
		return nil, fmt.Errorf("clock not initialized")
	}
	return &g, nil
}
