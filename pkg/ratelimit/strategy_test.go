package ratelimit

import (
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

func TestInMemoryRateLimiter_IsLimited_IsPerKey(t *testing.T) {
	limiter := NewInMemoryRateLimiter(1, time.Second)

	limited, err := limiter.IsLimited("client-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limited {
		t.Fatalf("first request for client-a should not be limited")
	}

	limited, err = limiter.IsLimited("client-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !limited {
		t.Fatalf("second immediate request for client-a should be limited")
	}

	limited, err = limiter.IsLimited("client-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limited {
		t.Fatalf("first request for client-b should not be limited (per-key limiter)")
	}
}

func TestRedisRateLimiter_FullKey(t *testing.T) {
	global := NewRateLimiter(&RateLimitConfig{Requests: 1, Window: time.Second, Redis: redis.NewClient(&redis.Options{})}).(*RedisRateLimiter)
	submit := NewRateLimiter(&RateLimitConfig{Requests: 1, Window: time.Second, Redis: redis.NewClient(&redis.Options{}), Namespace: "submit"}).(*RedisRateLimiter)

	cases := []struct {
		limiter *RedisRateLimiter
		key     string
		want    string
	}{
		{global, "ratelimit:10.0.0.1", "ratelimit:10.0.0.1"},
		{global, "10.0.0.1", "ratelimit:10.0.0.1"},
		{submit, "ratelimit:10.0.0.1", "ratelimit:submit:10.0.0.1"},
	}

	for _, tc := range cases {
		if got := tc.limiter.fullKey(tc.key); got != tc.want {
			t.Fatalf("fullKey(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestNewRateLimiter_FallsBackToMemory(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{Requests: 5, Window: time.Minute, Namespace: "submit"})

	if _, ok := limiter.(*InMemoryRateLimiter); !ok {
		t.Fatalf("expected in-memory limiter without Redis, got %T", limiter)
	}

	requests, window := limiter.GetLimitDetails()
	if requests != 5 || window != time.Minute {
		t.Fatalf("unexpected limit details %d/%s", requests, window)
	}
}

func TestInMemoryRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	limiter := NewInMemoryRateLimiter(1, time.Second)

	if _, err := limiter.IsLimited("idle"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := limiter.IsLimited("active"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	limiter.buckets["idle"].lastSeen = time.Now().Add(-time.Minute)
	limiter.sweep(time.Now())

	if _, ok := limiter.buckets["idle"]; ok {
		t.Fatalf("expected idle bucket to be swept")
	}
	if _, ok := limiter.buckets["active"]; !ok {
		t.Fatalf("expected active bucket to survive")
	}
}
