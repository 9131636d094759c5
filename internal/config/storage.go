package config

import "fmt"

const DBTypeRedis string = "redis"
const DBTypeRedisMock string = "redis-mock"
const DBTypeSQLite string = "sqlite"

type TokenEncryptionConfig struct {
	Enabled   bool
	SecretKey RedactedString
}

type StorageConfig struct {
	Type            string
	SQLitePath      string
	KeyPrefix       string
	Redis           RedisConfig
	TokenEncryption TokenEncryptionConfig
}

func (c StorageConfig) Validate(e RunningEnvironment) error {
	switch c.Type {
	case DBTypeSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("the sqlite path is required for the %q storage type", DBTypeSQLite)
		}
	case DBTypeRedis:
		err := c.Redis.Validate()
		if err != nil {
			return err
		}
	case DBTypeRedisMock:
		if e != Development {
			return fmt.Errorf("storage type cannot be %q in production", DBTypeRedisMock)
		}
	default:
		return fmt.Errorf("unrecognized storage type %q", c.Type)
	}
	if c.TokenEncryption.Enabled && len(c.TokenEncryption.SecretKey) != 32 {
		return fmt.Errorf(
			"token encryption key has to be 32 bytes long, the provided one is %d long",
			len(c.TokenEncryption.SecretKey),
		)
	}
	return nil
}
