package tokenstore

import "context"

// LimitedRepository is the part of the key-value storage the token store needs.
type LimitedRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// Keys of the persisted session layout.
const (
	AccessTokenKey  string = "admin_token"
	ExpiryKey       string = "token_expiry"
	RefreshTokenKey string = "admin_refresh_token"
	UserKey         string = "user_data"
)
