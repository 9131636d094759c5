// Package tokenrefresher renews the access token, either when a request was rejected
// or ahead of time on a schedule.
package tokenrefresher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/estatehub/admin-gateway/internal/gwerrors"
	"github.com/estatehub/admin-gateway/internal/models"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// RefreshCaller performs the network call that trades a refresh token for an access token.
type RefreshCaller interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// CoordinatorStore is the part of the token store the coordinator reads and writes.
type CoordinatorStore interface {
	RefreshToken(ctx context.Context) (string, bool)
	SaveUntil(ctx context.Context, token string, expiresAt time.Time)
	ClearAll(ctx context.Context)
	Now() time.Time
}

// Outcome describes a settled refresh.
type Outcome struct {
	Success  bool
	Waiters  int
	Duration time.Duration
	Err      error
}

type SettleHook func(Outcome)

// Coordinator makes sure at most one refresh call is in flight. Every caller that asks for
// a refresh while one is running waits for it and gets the same result, in arrival order.
type Coordinator struct {
	caller   RefreshCaller
	store    CoordinatorStore
	tokenTTL time.Duration
	timeout  time.Duration
	hooks    []SettleHook

	lock         sync.Mutex
	inFlight     bool
	nextWaiterID uint64
	waiters      *orderedmap.OrderedMap[uint64, chan bool]
}

// RequestRefresh starts a refresh or joins the one in flight and reports whether a new
// access token was stored. It never returns an error: every failure reads as false.
// Cancelling ctx stops waiting but not the refresh itself.
func (c *Coordinator) RequestRefresh(ctx context.Context) bool {
	c.lock.Lock()
	id := c.nextWaiterID
	c.nextWaiterID++
	result := make(chan bool, 1)
	c.waiters.Set(id, result)
	initiate := !c.inFlight
	c.inFlight = true
	c.lock.Unlock()

	if initiate {
		go c.run(ctx)
	}

	select {
	case ok := <-result:
		return ok
	case <-ctx.Done():
		c.lock.Lock()
		c.waiters.Delete(id)
		c.lock.Unlock()
		slog.Debug("REFRESH COORDINATOR", "message", "waiter gave up", "error", ctx.Err())
		return false
	}
}

// InFlight reports whether a refresh call is running.
func (c *Coordinator) InFlight() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.inFlight
}

func (c *Coordinator) waiterCount() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.waiters.Len()
}

func (c *Coordinator) run(parent context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.timeout)
	defer cancel()
	start := time.Now()
	outcome := Outcome{}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("REFRESH COORDINATOR", "message", "refresh panicked", "panic", r)
			c.store.ClearAll(ctx)
			outcome = Outcome{Err: fmt.Errorf("%w: panic: %v", gwerrors.ErrRefreshFailed, r)}
		}
		outcome.Duration = time.Since(start)
		c.settle(outcome)
	}()
	outcome.Err = c.refresh(ctx)
	outcome.Success = outcome.Err == nil
}

func (c *Coordinator) refresh(ctx context.Context) error {
	refreshToken, found := c.store.RefreshToken(ctx)
	if !found {
		slog.Info("REFRESH COORDINATOR", "message", "no refresh token stored, the session cannot be renewed")
		c.store.ClearAll(ctx)
		return fmt.Errorf("%w: %w", gwerrors.ErrRefreshFailed, gwerrors.ErrMissingCredentials)
	}
	accessToken, err := c.caller.Refresh(ctx, refreshToken)
	if err != nil {
		slog.Error("REFRESH COORDINATOR", "message", "refresh call failed", "error", err)
		c.store.ClearAll(ctx)
		return fmt.Errorf("%w: %w", gwerrors.ErrRefreshFailed, err)
	}
	expiresAt := models.CappedExpiry(accessToken, c.store.Now(), c.tokenTTL)
	c.store.SaveUntil(ctx, accessToken, expiresAt)
	slog.Debug("REFRESH COORDINATOR", "message", "access token refreshed", "expiresAt", expiresAt)
	return nil
}

func (c *Coordinator) settle(outcome Outcome) {
	c.lock.Lock()
	waiters := c.waiters
	c.waiters = orderedmap.New[uint64, chan bool]()
	c.inFlight = false
	c.lock.Unlock()

	outcome.Waiters = waiters.Len()
	for pair := waiters.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value <- outcome.Success
	}
	for _, hook := range c.hooks {
		hook(outcome)
	}
}

type CoordinatorOption func(*Coordinator) error

func WithRefreshCaller(caller RefreshCaller) CoordinatorOption {
	return func(c *Coordinator) error {
		c.caller = caller
		return nil
	}
}

func WithStore(store CoordinatorStore) CoordinatorOption {
	return func(c *Coordinator) error {
		c.store = store
		return nil
	}
}

func WithTokenTTL(ttl time.Duration) CoordinatorOption {
	return func(c *Coordinator) error {
		c.tokenTTL = ttl
		return nil
	}
}

// WithTimeout bounds the refresh call, it runs detached from the caller's cancellation.
func WithTimeout(timeout time.Duration) CoordinatorOption {
	return func(c *Coordinator) error {
		c.timeout = timeout
		return nil
	}
}

func WithSettleHook(hook SettleHook) CoordinatorOption {
	return func(c *Coordinator) error {
		c.hooks = append(c.hooks, hook)
		return nil
	}
}

func NewCoordinator(options ...CoordinatorOption) (*Coordinator, error) {
	c := Coordinator{
		tokenTTL: 24 * time.Hour,
		timeout:  30 * time.Second,
		waiters:  orderedmap.New[uint64, chan bool](),
	}
	for _, opt := range options {
		err := opt(&c)
		if err != nil {
			return nil, err
		}
	}
	if c.caller == nil {
		return nil, fmt.Errorf("refresh caller not initialized")
	}
	if c.store == nil {
		return nil, fmt.Errorf("token store not initialized")
	}
	if c.tokenTTL <= 0 {
		return nil, fmt.Errorf("invalid value for the token TTL (%s)", c.tokenTTL)
	}
	if c.timeout <= 0 {
		return nil, fmt.Errorf("invalid value for the refresh timeout (%s)", c.timeout)
	}
	return &c, nil
}
