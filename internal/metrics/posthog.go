// Package metrics sends product analytics about the admin session to Posthog.
package metrics

import (
	"crypto/md5"
	"encoding/hex"
	"log/slog"

	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/tokenrefresher"
	"github.com/posthog/posthog-go"
)

const (
	EventUserLoggedIn  = "user_logged_in"
	EventUserLoggedOut = "user_logged_out"
	EventTokenRefresh  = "token_refreshed"
	EventRefreshFailed = "token_refresh_failed"
)

type PosthogMetricsClient struct {
	posthogClient posthog.Client
}

func (p *PosthogMetricsClient) anonymizeUser(userId string) string {
	hash := md5.Sum([]byte(userId))
	return hex.EncodeToString(hash[:])
}

func (p *PosthogMetricsClient) capture(userId string, event string, properties posthog.Properties) error {
	return p.posthogClient.Enqueue(posthog.Capture{
		DistinctId: p.anonymizeUser(userId),
		Event:      event,
		Properties: properties,
	})
}

func (p *PosthogMetricsClient) UserLoggedIn(userId string) error {
	return p.capture(userId, EventUserLoggedIn, nil)
}

func (p *PosthogMetricsClient) UserLoggedOut(userId string) error {
	return p.capture(userId, EventUserLoggedOut, nil)
}

// RefreshSettled records the outcome of a coordinated refresh. The distinct id is the
// installation since refreshes happen outside of any user request.
func (p *PosthogMetricsClient) RefreshSettled(installation string, outcome tokenrefresher.Outcome) error {
	properties := posthog.NewProperties().
		Set("waiters", outcome.Waiters).
		Set("duration_ms", outcome.Duration.Milliseconds())
	event := EventTokenRefresh
	if !outcome.Success {
		event = EventRefreshFailed
	}
	return p.capture(installation, event, properties)
}

// SettleHook adapts RefreshSettled to the refresh coordinator.
func (p *PosthogMetricsClient) SettleHook(installation string) tokenrefresher.SettleHook {
	return func(outcome tokenrefresher.Outcome) {
		err := p.RefreshSettled(installation, outcome)
		if err != nil {
			slog.Warn("METRICS", "message", "could not enqueue refresh event", "error", err)
		}
	}
}

func (p *PosthogMetricsClient) Close() {
	p.posthogClient.Close()
}

func NewPosthogClient(apiKey string, host string, environment string) (*PosthogMetricsClient, error) {
	client, err := posthog.NewWithConfig(
		apiKey,
		posthog.Config{
			Endpoint:               host,
			DefaultEventProperties: posthog.Properties{"environment": environment},
		},
	)
	if err != nil {
		return &PosthogMetricsClient{}, err
	}

	return &PosthogMetricsClient{posthogClient: client}, nil
}

// NewFromConfig returns a Posthog client, or nil when product analytics are disabled.
func NewFromConfig(c config.PosthogConfig) (*PosthogMetricsClient, error) {
	if !c.Enabled {
		return nil, nil
	}
	return NewPosthogClient(string(c.ApiKey), c.Host, c.Environment)
}
