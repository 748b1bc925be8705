package config

import (
	"context"
	"errors"
	"strconv"

	"github.com/campuscabs/waitlist/internal/log"
	pkgredis "github.com/campuscabs/waitlist/pkg/redis"
	"github.com/campuscabs/waitlist/pkg/utils"
	"github.com/go-redis/redis/v8"
)

var (
	ErrCacheNotConfigured = errors.New("cache host is not configured")
	ErrInvalidRedisDB     = errors.New("REDIS_DB must be a non-negative integer")
)

// Cache is the shared Redis connection. Form sessions and rate limits reach the client through GetRedisClient.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
}

type redisClientProvider interface {
	GetClient() *redis.Client
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:     utils.GetEnvTrimmed("REDIS_HOST"),
		Port:     utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password: sanitizeEnv(GetValueFromEnvironmentVariable("REDIS_PASSWORD", "")),
		DB:       redisDBFromEnv(),
	}
}

// redisDBFromEnv returns -1 for an unusable REDIS_DB so NewCache can report it.
func redisDBFromEnv() int {
	raw := utils.GetEnvTrimmed("REDIS_DB")
	if raw == "" {
		return 0
	}

	db, err := strconv.Atoi(raw)
	if err != nil || db < 0 {
		return -1
	}
	return db
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}
	if cc.DB < 0 {
		return nil, ErrInvalidRedisDB
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cache (Redis) connected successfully", "host", cc.Host, "db", cc.DB)
	return cache, nil
}

// NewCacheOrNil falls back to in-process sessions and rate limits when Redis is missing or unreachable.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Cache (Redis) is not configured; form sessions and rate limits stay in memory")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Error("Failed to create Cache (Redis); form sessions and rate limits stay in memory", "error", err)
		return nil
	}

	return cache
}

func GetRedisClient(cache Cache) *redis.Client {
	if provider, ok := cache.(redisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return err
	}

	logger.Info("Cache connection closed")
	return nil
}
