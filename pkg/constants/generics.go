package constants

import "time"

// RFC3339DateTimeFormat is used for every timestamp the API returns.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// Per-client request budget across all routes.
const (
	DefaultRateLimitRequests      = 100
	DefaultRateLimitWindowMinutes = 1
)

func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}

// Form submission limits, applied per client on top of the global limiter.
const (
	DefaultSubmitRateLimitRequests = 10
	DefaultFormSessionTTLHours     = 24
)
