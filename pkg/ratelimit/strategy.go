package ratelimit

import (
	"time"

	"github.com/go-redis/redis/v8"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

// RateLimiter decides whether the caller identified by key has used up its window.
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(key string) (bool, error)
	Close() error
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Redis is optional. Without it the limiter is local to the process.
	Redis  *redis.Client
	Logger Logger
	// Namespace separates this limiter's Redis keys from other limiters, e.g. "submit".
	Namespace string
}

func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		limiter := NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.Logger)
		limiter.namespace = config.Namespace
		return limiter
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}
