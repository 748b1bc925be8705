package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "ratelimit:"

// slidingWindow trims entries older than the window, then admits the request only while under the limit.
// KEYS[1] key, ARGV now_ms window_ms limit member.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

if redis.call('ZCARD', key) >= limit then
	return 1
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window * 2)
return 0
`)

// RedisRateLimiter shares a sliding window across every instance that talks to the same Redis.
type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	namespace string
	logger    Logger
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, logger Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:   client,
		requests: requests,
		window:   window,
		logger:   logger,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisRateLimiter) IsLimited(key string) (bool, error) {
	fullKey := r.fullKey(key)

	result, err := slidingWindow.Run(context.Background(), r.client,
		[]string{fullKey},
		time.Now().UnixMilli(),
		r.window.Milliseconds(),
		r.requests,
		uuid.NewString(),
	).Int()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script execution failed", "key", fullKey, "error", err)
		}
		return false, fmt.Errorf("rate limiter Redis error: %w", err)
	}

	return result == 1, nil
}

// fullKey keeps limiters that share one Redis apart when they carry a namespace.
func (r *RedisRateLimiter) fullKey(key string) string {
	key = strings.TrimPrefix(key, keyPrefix)
	if r.namespace != "" {
		return keyPrefix + r.namespace + ":" + key
	}
	return keyPrefix + key
}

// Close is a no-op; the client belongs to the application config.
func (r *RedisRateLimiter) Close() error {
	return nil
}
