package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/tokenrefresher"
	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePosthog struct {
	posthog.Client
	lock     sync.Mutex
	captured []posthog.Capture
	err      error
}

func (f *fakePosthog) Enqueue(msg posthog.Message) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.err != nil {
		return f.err
	}
	f.captured = append(f.captured, msg.(posthog.Capture))
	return nil
}

func TestUserEventsAreAnonymized(t *testing.T) {
	fake := &fakePosthog{}
	client := &PosthogMetricsClient{posthogClient: fake}

	require.NoError(t, client.UserLoggedIn("42"))
	require.NoError(t, client.UserLoggedOut("42"))

	require.Len(t, fake.captured, 2)
	assert.Equal(t, EventUserLoggedIn, fake.captured[0].Event)
	assert.Equal(t, EventUserLoggedOut, fake.captured[1].Event)
	// md5 of "42"
	assert.Equal(t, "a1d0c6e83f027327d8461063f4ac58a6", fake.captured[0].DistinctId)
	assert.Equal(t, fake.captured[0].DistinctId, fake.captured[1].DistinctId)
}

func TestSettleHook(t *testing.T) {
	fake := &fakePosthog{}
	client := &PosthogMetricsClient{posthogClient: fake}
	hook := client.SettleHook("laptop")

	hook(tokenrefresher.Outcome{Success: true, Waiters: 3, Duration: 250 * time.Millisecond})
	hook(tokenrefresher.Outcome{Success: false, Waiters: 1})

	require.Len(t, fake.captured, 2)
	assert.Equal(t, EventTokenRefresh, fake.captured[0].Event)
	assert.Equal(t, 3, fake.captured[0].Properties["waiters"])
	assert.Equal(t, int64(250), fake.captured[0].Properties["duration_ms"])
	assert.Equal(t, EventRefreshFailed, fake.captured[1].Event)
}

func TestSettleHookSwallowsErrors(t *testing.T) {
	fake := &fakePosthog{err: fmt.Errorf("queue is full")}
	client := &PosthogMetricsClient{posthogClient: fake}

	assert.NotPanics(t, func() { client.SettleHook("laptop")(tokenrefresher.Outcome{Success: true}) })
}

func TestNewFromConfigDisabled(t *testing.T) {
	client, err := NewFromConfig(config.PosthogConfig{Enabled: false})

	require.NoError(t, err)
	assert.Nil(t, client)
}
