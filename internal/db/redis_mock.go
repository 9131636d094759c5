package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockRedisClient implements LimitedRedisClient in memory.
// Only suitable for testing and local development, expirations and contexts are ignored.
type MockRedisClient struct {
	lock  sync.RWMutex
	store map[string]string
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{store: map[string]string{}}
}

func (m *MockRedisClient) Get(_ context.Context, key string) *redis.StringCmd {
	m.lock.RLock()
	defer m.lock.RUnlock()
	res := redis.StringCmd{}
	val, found := m.store[key]
	if !found {
		res.SetErr(redis.Nil)
		return &res
	}
	res.SetVal(val)
	return &res
}

func (m *MockRedisClient) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := redis.StatusCmd{}
	switch v := value.(type) {
	case string:
		m.store[key] = v
	case []byte:
		m.store[key] = string(v)
	default:
		res.SetErr(fmt.Errorf("unsupported value type %T", value))
		return &res
	}
	res.SetVal("OK")
	return &res
}

func (m *MockRedisClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.lock.Lock()
	defer m.lock.Unlock()
	var deleted int64
	for _, k := range keys {
		if _, found := m.store[k]; found {
			deleted++
		}
		delete(m.store, k)
	}
	res := redis.IntCmd{}
	res.SetVal(deleted)
	return &res
}

func (m *MockRedisClient) Close() error {
	return nil
}
