package db

import (
	"context"
	"fmt"

	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/gwerrors"
	"github.com/estatehub/admin-gateway/internal/models"
)

// Repository is a flat string key-value store. Get returns gwerrors.ErrMissingDBResource
// when the key is not present and every backend failure wraps gwerrors.ErrStorageUnavailable.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", gwerrors.ErrStorageUnavailable, op, err)
}

func encode(encryptor models.Encryptor, value string) (string, error) {
	if encryptor == nil {
		return value, nil
	}
	return encryptor.Encrypt(value)
}

func decode(encryptor models.Encryptor, value string) (string, error) {
	if encryptor == nil {
		return value, nil
	}
	return encryptor.Decrypt(value)
}

// NewRepository builds the backend selected in the storage configuration.
func NewRepository(storageConfig config.StorageConfig) (Repository, error) {
	var secretKey string
	if storageConfig.TokenEncryption.Enabled {
		secretKey = string(storageConfig.TokenEncryption.SecretKey)
	}
	switch storageConfig.Type {
	case config.DBTypeSQLite:
		options := []SQLiteAdapterOption{WithSQLiteKeyPrefix(storageConfig.KeyPrefix)}
		if secretKey != "" {
			options = append(options, WithSQLiteEncryption(secretKey))
		}
		return NewSQLiteAdapter(storageConfig.SQLitePath, options...)
	case config.DBTypeRedis, config.DBTypeRedisMock:
		options := []RedisAdapterOption{
			WithRedisConfig(storageConfig.Type, storageConfig.Redis),
			WithKeyPrefix(storageConfig.KeyPrefix),
		}
		if secretKey != "" {
			options = append(options, WithEncryption(secretKey))
		}
		return NewRedisAdapter(options...)
	default:
		return nil, fmt.Errorf("unrecognized storage type %q", storageConfig.Type)
	}
}
