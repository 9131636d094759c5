package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/gwerrors"
	"github.com/estatehub/admin-gateway/internal/models"
	"github.com/redis/go-redis/v9"
)

type RedisAdapter struct {
	rdb       LimitedRedisClient
	encryptor models.Encryptor
	keyPrefix string
}

func (r *RedisAdapter) key(key string) string {
	return r.keyPrefix + key
}

func (r *RedisAdapter) Get(ctx context.Context, key string) (string, error) {
	raw, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", gwerrors.ErrMissingDBResource
	}
	if err != nil {
		return "", unavailable("redis get", err)
	}
	value, err := decode(r.encryptor, raw)
	if err != nil {
		return "", unavailable("decrypt", err)
	}
	return value, nil
}

func (r *RedisAdapter) Set(ctx context.Context, key, value string) error {
	encoded, err := encode(r.encryptor, value)
	if err != nil {
		return unavailable("encrypt", err)
	}
	err = r.rdb.Set(ctx, r.key(key), encoded, 0).Err()
	if err != nil {
		return unavailable("redis set", err)
	}
	return nil
}

func (r *RedisAdapter) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = r.key(key)
	}
	err := r.rdb.Del(ctx, prefixed...).Err()
	if err != nil {
		return unavailable("redis del", err)
	}
	return nil
}

func (r *RedisAdapter) Close() error {
	return r.rdb.Close()
}

type RedisAdapterOption func(*RedisAdapter) error

func WithRedisConfig(dbType string, redisConfig config.RedisConfig) RedisAdapterOption {
	return func(r *RedisAdapter) error {
		switch dbType {
		case config.DBTypeRedis:
			if len(redisConfig.Addresses) == 0 {
				return fmt.Errorf("at least one redis address is required")
			}
			if redisConfig.IsSentinel {
				r.rdb = redis.NewFailoverClient(&redis.FailoverOptions{
					MasterName:       redisConfig.MasterName,
					SentinelAddrs:    redisConfig.Addresses,
					Password:         string(redisConfig.Password),
					DB:               redisConfig.DBIndex,
					SentinelPassword: string(redisConfig.Password),
				})
				return nil
			}
			r.rdb = redis.NewClient(&redis.Options{
				Password: string(redisConfig.Password),
				DB:       redisConfig.DBIndex,
				Addr:     redisConfig.Addresses[0],
			})
			return nil
		case config.DBTypeRedisMock:
			r.rdb = NewMockRedisClient()
			return nil
		default:
			return fmt.Errorf("unrecognized persistence type %v", dbType)
		}
	}
}

func WithRedisClient(client LimitedRedisClient) RedisAdapterOption {
	return func(r *RedisAdapter) error {
		r.rdb = client
		return nil
	}
}

func WithEncryption(secretKey string) RedisAdapterOption {
	return func(r *RedisAdapter) error {
		encryptor, err := NewGCMEncryptor(secretKey)
		if err != nil {
			return err
		}
		r.encryptor = encryptor
		return nil
	}
}

func WithKeyPrefix(prefix string) RedisAdapterOption {
	return func(r *RedisAdapter) error {
		r.keyPrefix = prefix
		return nil
	}
}

func NewRedisAdapter(options ...RedisAdapterOption) (*RedisAdapter, error) {
	db := RedisAdapter{}
	for _, opt := range options {
		err := opt(&db)
		if err != nil {
			return &RedisAdapter{}, err
		}
	}
	if db.rdb == nil {
		return &RedisAdapter{}, fmt.Errorf("redis client is not initialized")
	}
	return &db, nil
}
