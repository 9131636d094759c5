// Package login owns the lifecycle of the admin session: it logs in, logs out and
// reports who is logged in. Tokens never leave this process.
package login

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/estatehub/admin-gateway/internal/authapi"
	"github.com/estatehub/admin-gateway/internal/gwerrors"
	"github.com/estatehub/admin-gateway/internal/models"
)

type AuthAPI interface {
	Login(ctx context.Context, username, password string) (authapi.LoginResult, error)
	Logout(ctx context.Context, accessToken string) error
	Verify(ctx context.Context, accessToken string) (models.User, error)
}

type SessionStore interface {
	SaveUntil(ctx context.Context, token string, expiresAt time.Time)
	SaveRefreshToken(ctx context.Context, token string)
	SaveUser(ctx context.Context, user models.User)
	User(ctx context.Context) (models.User, bool)
	ClearAll(ctx context.Context)
	Now() time.Time
}

type SessionSource interface {
	Session(ctx context.Context) (models.Session, bool)
}

type EventTracker interface {
	UserLoggedIn(userId string) error
	UserLoggedOut(userId string) error
}

// Status is a snapshot of the local session.
type Status struct {
	Authenticated bool         `json:"authenticated" yaml:"authenticated"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	User          *models.User `json:"user,omitempty" yaml:"user,omitempty"`
}

type Service struct {
	auth     AuthAPI
	store    SessionStore
	sessions SessionSource
	tracker  EventTracker
	tokenTTL time.Duration
}

// Login exchanges the credentials for tokens and persists them together with the user profile.
func (s *Service) Login(ctx context.Context, username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", gwerrors.ErrMissingCredentials)
	}
	result, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return models.User{}, err
	}
	// nothing of a previous session survives a new login
	s.store.ClearAll(ctx)
	expiresAt := models.CappedExpiry(result.AccessToken, s.store.Now(), s.tokenTTL)
	s.store.SaveUntil(ctx, result.AccessToken, expiresAt)
	s.store.SaveRefreshToken(ctx, result.RefreshToken)
	user := result.User
	if user.ID == "" {
		user, _ = models.UserFromToken(result.AccessToken)
	}
	slog.Info("LOGIN", "message", "user logged in", "userID", user.ID, "expiresAt", expiresAt)
	if user.ID == "" {
		slog.Warn("LOGIN", "message", "the login response does not identify the user, no profile stored")
		return user, nil
	}
	s.store.SaveUser(ctx, user)
	s.track(func(t EventTracker) error { return t.UserLoggedIn(string(user.ID)) })
	return user, nil
}

// Logout revokes the token on the server when possible and always drops the local session.
func (s *Service) Logout(ctx context.Context) {
	user, _ := s.store.User(ctx)
	if session, ok := s.sessions.Session(ctx); ok {
		err := s.auth.Logout(ctx, session.AccessToken)
		if err != nil {
			slog.Warn("LOGIN", "message", "server side logout failed, dropping the local session anyway", "error", err)
		}
	}
	s.store.ClearAll(ctx)
	if user.ID != "" {
		s.track(func(t EventTracker) error { return t.UserLoggedOut(string(user.ID)) })
	}
}

// CurrentUser returns the logged in user, falling back to the claims of the access token
// when no profile was stored.
func (s *Service) CurrentUser(ctx context.Context) (models.User, error) {
	session, ok := s.sessions.Session(ctx)
	if !ok {
		return models.User{}, gwerrors.ErrUnauthenticated
	}
	if user, found := s.store.User(ctx); found {
		return user, nil
	}
	if user, found := models.UserFromToken(session.AccessToken); found {
		return user, nil
	}
	return models.User{}, fmt.Errorf("%w: the session has no user profile", gwerrors.ErrUnauthenticated)
}

// Verify asks the server who the current token belongs to and updates the stored profile.
func (s *Service) Verify(ctx context.Context) (models.User, error) {
	session, ok := s.sessions.Session(ctx)
	if !ok {
		return models.User{}, gwerrors.ErrUnauthenticated
	}
	user, err := s.auth.Verify(ctx, session.AccessToken)
	if err != nil {
		return models.User{}, err
	}
	if user.ID != "" {
		s.store.SaveUser(ctx, user)
	}
	return user, nil
}

func (s *Service) Status(ctx context.Context) Status {
	session, ok := s.sessions.Session(ctx)
	if !ok {
		return Status{}
	}
	status := Status{Authenticated: true, ExpiresAt: &session.ExpiresAt}
	if user, err := s.CurrentUser(ctx); err == nil {
		status.User = &user
	}
	return status
}

func (s *Service) track(event func(EventTracker) error) {
	if s.tracker == nil {
		return
	}
	if err := event(s.tracker); err != nil {
		slog.Warn("LOGIN", "message", "could not record the event", "error", err)
	}
}

type ServiceOption func(*Service) error

func WithAuthAPI(auth AuthAPI) ServiceOption {
	return func(s *Service) error {
		s.auth = auth
		return nil
	}
}

func WithSessionStore(store SessionStore) ServiceOption {
	return func(s *Service) error {
		s.store = store
		return nil
	}
}

// WithSessionSource sets where valid sessions are read from, normally the session guard.
func WithSessionSource(sessions SessionSource) ServiceOption {
	return func(s *Service) error {
		s.sessions = sessions
		return nil
	}
}

// WithEventTracker is optional, no events are recorded without it.
func WithEventTracker(tracker EventTracker) ServiceOption {
	return func(s *Service) error {
		s.tracker = tracker
		return nil
	}
}

func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl <= 0 {
			return fmt.Errorf("token TTL (%s) needs to be greater than 0", ttl)
		}
		s.tokenTTL = ttl
		return nil
	}
}

func NewService(options ...ServiceOption) (*Service, error) {
	s := Service{tokenTTL: 24 * time.Hour}
	for _, opt := range options {
		err := opt(&s)
		if err != nil {
			return nil, err
		}
	}
	if s.auth == nil {
		return nil, fmt.Errorf("auth API client not initialized")
	}
	if s.store == nil {
		return nil, fmt.Errorf("token store not initialized")
	}
	if s.sessions == nil {
		return nil, fmt.Errorf("session source not initialized")
	}
	return &s, nil
}
