package tokenrefresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/estatehub/admin-gateway/internal/models"
	"github.com/go-co-op/gocron"
)

type SessionReader interface {
	Read(ctx context.Context) (models.Session, bool)
	Now() time.Time
}

type Refresher interface {
	RequestRefresh(ctx context.Context) bool
}

// ProactiveRefresher renews the stored access token shortly before it expires. It goes
// through the coordinator so it never races a refresh triggered by a rejected request.
type ProactiveRefresher struct {
	ExpiryMargin  time.Duration
	CheckInterval time.Duration

	store     SessionReader
	refresher Refresher
}

func (pr *ProactiveRefresher) GetScheduler() (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)

	refreshExpiringTokenTask := func(job gocron.Job) {
		err := pr.refreshExpiringToken(job.Context())
		if err != nil {
			slog.Error("TOKEN REFRESHER", "message", "refreshExpiringToken failed", "error", err)
		}
	}

	_, err := s.Every(pr.CheckInterval).
		DoWithJobDetails(refreshExpiringTokenTask)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (pr *ProactiveRefresher) refreshExpiringToken(ctx context.Context) error {
	session, ok := pr.store.Read(ctx)
	if !ok {
		slog.Debug("TOKEN REFRESHER", "message", "no stored session, nothing to refresh")
		return nil
	}
	if !session.ExpiresWithin(pr.store.Now(), pr.ExpiryMargin) {
		return nil
	}
	slog.Info("TOKEN REFRESHER", "message", "access token expires soon", "expiresAt", session.ExpiresAt)
	if !pr.refresher.RequestRefresh(ctx) {
		return fmt.Errorf("the access token expiring at %s could not be refreshed", session.ExpiresAt)
	}
	return nil
}

type ProactiveRefresherOption func(*ProactiveRefresher) error

func WithExpiryMargin(margin time.Duration) ProactiveRefresherOption {
	return func(pr *ProactiveRefresher) error {
		pr.ExpiryMargin = margin
		return nil
	}
}

func WithCheckInterval(interval time.Duration) ProactiveRefresherOption {
	return func(pr *ProactiveRefresher) error {
		pr.CheckInterval = interval
		return nil
	}
}

func WithSessionReader(store SessionReader) ProactiveRefresherOption {
	return func(pr *ProactiveRefresher) error {
		pr.store = store
		return nil
	}
}

func WithRefresher(refresher Refresher) ProactiveRefresherOption {
	return func(pr *ProactiveRefresher) error {
		pr.refresher = refresher
		return nil
	}
}

// NewProactiveRefresher creates a refresher that handles renewing access tokens which are expiring soon.
func NewProactiveRefresher(options ...ProactiveRefresherOption) (*ProactiveRefresher, error) {
	pr := ProactiveRefresher{}
	for _, opt := range options {
		err := opt(&pr)
		if err != nil {
			return nil, err
		}
	}
	if pr.ExpiryMargin <= 0 {
		return nil, fmt.Errorf("invalid value for ExpiryMargin (%s)", pr.ExpiryMargin)
	}
	if pr.CheckInterval <= 0 {
		return nil, fmt.Errorf("invalid value for CheckInterval (%s)", pr.CheckInterval)
	}
	if pr.store == nil {
		return nil, fmt.Errorf("session store not initialized")
	}
	if pr.refresher == nil {
		return nil, fmt.Errorf("refresher not initialized")
	}
	return &pr, nil
}
