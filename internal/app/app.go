// Package app wires the session components together. Both the CLI and the gateway
// server build their dependencies through it.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/estatehub/admin-gateway/internal/authapi"
	"github.com/estatehub/admin-gateway/internal/catalog"
	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/db"
	"github.com/estatehub/admin-gateway/internal/interceptor"
	"github.com/estatehub/admin-gateway/internal/login"
	"github.com/estatehub/admin-gateway/internal/metrics"
	"github.com/estatehub/admin-gateway/internal/sessions"
	"github.com/estatehub/admin-gateway/internal/tokenrefresher"
	"github.com/estatehub/admin-gateway/internal/tokenstore"
)

type App struct {
	Config      config.Config
	Repository  db.Repository
	Store       *tokenstore.TokenStore
	Guard       *sessions.Guard
	Coordinator *tokenrefresher.Coordinator
	Transport   *interceptor.Transport
	// HTTPClient sends every request through the interceptor.
	HTTPClient *http.Client
	Catalog    *catalog.Client
	Login      *login.Service
	Metrics    *metrics.PosthogMetricsClient

	base          http.RoundTripper
	onAuthFailure interceptor.AuthFailureHandler
}

type AppOption func(*App) error

func WithConfig(c config.Config) AppOption {
	return func(a *App) error {
		a.Config = c
		return nil
	}
}

// WithRepository skips building the storage backend from the configuration.
func WithRepository(repo db.Repository) AppOption {
	return func(a *App) error {
		a.Repository = repo
		return nil
	}
}

// WithAuthFailureHandler is called when the session cannot be renewed and the
// configured policy is redirect.
func WithAuthFailureHandler(handler interceptor.AuthFailureHandler) AppOption {
	return func(a *App) error {
		a.onAuthFailure = handler
		return nil
	}
}

func New(options ...AppOption) (*App, error) {
	a := App{base: http.DefaultTransport}
	for _, opt := range options {
		err := opt(&a)
		if err != nil {
			return nil, err
		}
	}
	if a.Config.API.BaseURL == nil {
		return nil, fmt.Errorf("API configuration not initialized")
	}
	err := a.build()
	if err != nil {
		a.Close()
		return nil, err
	}
	return &a, nil
}

func (a *App) build() error {
	var err error
	if a.Repository == nil {
		a.Repository, err = db.NewRepository(a.Config.Storage)
		if err != nil {
			return err
		}
	}
	a.Store, err = tokenstore.NewTokenStore(tokenstore.WithRepository(a.Repository))
	if err != nil {
		return err
	}
	a.Guard, err = sessions.NewGuard(sessions.WithSessionReader(a.Store))
	if err != nil {
		return err
	}
	authClient, err := authapi.NewClient(
		authapi.WithAPIConfig(a.Config.API),
		authapi.WithHTTPClient(&http.Client{Transport: a.base, Timeout: a.Config.API.RequestTimeout}),
	)
	if err != nil {
		return err
	}
	a.Metrics, err = metrics.NewFromConfig(a.Config.Monitoring.Posthog)
	if err != nil {
		return err
	}
	coordinatorOptions := []tokenrefresher.CoordinatorOption{
		tokenrefresher.WithRefreshCaller(authClient),
		tokenrefresher.WithStore(a.Store),
		tokenrefresher.WithTokenTTL(a.Config.Session.TokenTTL),
		tokenrefresher.WithTimeout(a.Config.API.RequestTimeout),
		tokenrefresher.WithSettleHook(logOutcome),
	}
	if a.Metrics != nil {
		coordinatorOptions = append(coordinatorOptions, tokenrefresher.WithSettleHook(a.Metrics.SettleHook(installationID())))
	}
	a.Coordinator, err = tokenrefresher.NewCoordinator(coordinatorOptions...)
	if err != nil {
		return err
	}
	a.Transport, err = interceptor.NewTransport(
		interceptor.WithBase(a.base),
		interceptor.WithTokenSource(a.Guard),
		interceptor.WithRefresher(a.Coordinator),
		interceptor.WithAuthPathPrefix(a.Config.API.AuthPathPrefix),
		interceptor.WithFailurePolicy(a.Config.Session.OnAuthFailure, a.onAuthFailure),
	)
	if err != nil {
		return err
	}
	a.HTTPClient = &http.Client{Transport: a.Transport, Timeout: a.Config.API.RequestTimeout}
	a.Catalog, err = catalog.NewClient(catalog.WithAPIConfig(a.Config.API), catalog.WithHTTPClient(a.HTTPClient))
	if err != nil {
		return err
	}
	loginOptions := []login.ServiceOption{
		login.WithAuthAPI(authClient),
		login.WithSessionStore(a.Store),
		login.WithSessionSource(a.Guard),
		login.WithTokenTTL(a.Config.Session.TokenTTL),
	}
	if a.Metrics != nil {
		loginOptions = append(loginOptions, login.WithEventTracker(a.Metrics))
	}
	a.Login, err = login.NewService(loginOptions...)
	return err
}

// ProactiveRefresher returns the scheduled refresher, or nil when it is disabled.
func (a *App) ProactiveRefresher() (*tokenrefresher.ProactiveRefresher, error) {
	refreshConfig := a.Config.Session.ProactiveRefresh
	if !refreshConfig.Enabled {
		return nil, nil
	}
	return tokenrefresher.NewProactiveRefresher(
		tokenrefresher.WithSessionReader(a.Store),
		tokenrefresher.WithRefresher(a.Coordinator),
		tokenrefresher.WithExpiryMargin(refreshConfig.ExpiryMargin),
		tokenrefresher.WithCheckInterval(refreshConfig.CheckInterval),
	)
}

func (a *App) Close() error {
	if a.Metrics != nil {
		a.Metrics.Close()
	}
	if a.Repository != nil {
		return a.Repository.Close()
	}
	return nil
}

func logOutcome(outcome tokenrefresher.Outcome) {
	if outcome.Success {
		slog.Info("APP", "message", "session renewed", "waiters", outcome.Waiters, "duration", outcome.Duration)
		return
	}
	slog.Warn("APP", "message", "session could not be renewed", "waiters", outcome.Waiters, "error", outcome.Err)
}

func installationID() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
