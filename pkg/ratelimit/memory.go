package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepEvery = 1024

// InMemoryRateLimiter keeps one token bucket per key. Buckets idle for two windows are swept.
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	ops     uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		buckets:  make(map[string]*bucket),
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(key string) (bool, error) {
	if key == "" {
		key = "__empty__"
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(float64(r.requests)/r.window.Seconds()), r.requests)}
		r.buckets[key] = b
	}
	b.lastSeen = now

	r.ops++
	if r.ops%sweepEvery == 0 {
		r.sweep(now)
	}

	return !b.limiter.AllowN(now, 1), nil
}

func (r *InMemoryRateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-2 * r.window)
	for key, b := range r.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(r.buckets, key)
		}
	}
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}
