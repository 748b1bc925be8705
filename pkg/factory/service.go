package factory

import (
	"context"
	"time"

	"github.com/campuscabs/waitlist/internal/log"
	"github.com/campuscabs/waitlist/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type redisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimitConfig struct {
	Requests  int
	Window    time.Duration
	Namespace string
	Logger    ratelimit.Logger
}

type RateLimiterFactory interface {
	CreateRateLimiter() ratelimit.RateLimiter
}

type DefaultRateLimiterFactory struct {
	config *ratelimit.RateLimitConfig
}

// NewDefaultRateLimiterFactory shares the Redis client behind cache when it exposes one,
// so limits hold across instances.
func NewDefaultRateLimiterFactory(requests int, window time.Duration, namespace string, cache Cache, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	var redisClient *redis.Client
	if cache != nil {
		if provider, ok := cache.(redisClientProvider); ok {
			redisClient = provider.GetClient()
		}
	}

	return &DefaultRateLimiterFactory{
		config: &ratelimit.RateLimitConfig{
			Requests:  requests,
			Window:    window,
			Redis:     redisClient,
			Logger:    logger,
			Namespace: namespace,
		},
	}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter() ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(f.config)
}

type FactoryContainer struct {
	RateLimiterFactory RateLimiterFactory
}

func NewFactoryContainer(logger *log.Logger, rateLimitConfig *RateLimitConfig, cache Cache) *FactoryContainer {
	if rateLimitConfig.Logger == nil {
		rateLimitConfig.Logger = logger
	}

	rateLimiterFactory := NewDefaultRateLimiterFactory(rateLimitConfig.Requests, rateLimitConfig.Window, rateLimitConfig.Namespace, cache, rateLimitConfig.Logger)

	return &FactoryContainer{
		RateLimiterFactory: rateLimiterFactory,
	}
}
