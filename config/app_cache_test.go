package config

import (
	"testing"

	"github.com/campuscabs/waitlist/internal/log"
	pkgredis "github.com/campuscabs/waitlist/pkg/redis"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestNewCacheConfig_FromEnv(t *testing.T) {
	t.Setenv("REDIS_HOST", " cache.internal ")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_PASSWORD", `"s3cret"`)
	t.Setenv("REDIS_DB", "2")

	cfg := NewCacheConfig()

	assert.True(t, cfg.IsConfigured())
	assert.Equal(t, "cache.internal", cfg.Host)
	assert.Equal(t, "6379", cfg.Port)
	assert.Equal(t, "s3cret", cfg.Password)
	assert.Equal(t, 2, cfg.DB)
}

func TestNewCache_RejectsBadConfig(t *testing.T) {
	logger := log.NewLoggerWithJSONOutput()

	_, err := (&CacheConfig{}).NewCache(logger)
	assert.ErrorIs(t, err, ErrCacheNotConfigured)

	t.Setenv("REDIS_DB", "first")
	_, err = (&CacheConfig{Host: "localhost", DB: redisDBFromEnv()}).NewCache(logger)
	assert.ErrorIs(t, err, ErrInvalidRedisDB)
}

func TestNewCacheOrNil_WithoutHost(t *testing.T) {
	assert.Nil(t, (&CacheConfig{}).NewCacheOrNil(log.NewLoggerWithJSONOutput()))
}

func TestGetRedisClient(t *testing.T) {
	assert.Nil(t, GetRedisClient(nil))

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = client.Close() })

	assert.Same(t, client, GetRedisClient(pkgredis.NewRedisCacheFromClient(client)))
}
