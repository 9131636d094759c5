package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func getValidRedisConfig() RedisConfig {
	return RedisConfig{
		Addresses: []string{"localhost:6379"},
	}
}

func TestValidRedisConfig(t *testing.T) {
	config := getValidRedisConfig()

	err := config.Validate()

	assert.NoError(t, err)
}

func TestRedisWithoutAddresses(t *testing.T) {
	config := getValidRedisConfig()
	config.Addresses = nil

	err := config.Validate()

	assert.ErrorContains(t, err, "at least one redis address is required")
}

func TestRedisSentinelWithoutMaster(t *testing.T) {
	config := getValidRedisConfig()
	config.IsSentinel = true

	err := config.Validate()

	assert.ErrorContains(t, err, "the redis master name is required when using sentinels")
}
