package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"time"
)

type RetryPolicy interface {
	Execute(ctx context.Context, fn func() error) error
}

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultConfig keeps the worst case well under a request timeout: three attempts, at most 300ms of waiting.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
	}
}

// Retryable is implemented by errors that know whether a repeat call can succeed.
type Retryable interface {
	Retryable() bool
}

type ExponentialBackoff struct {
	config *Config
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewExponentialBackoff(config *Config) *ExponentialBackoff {
	if config == nil {
		config = DefaultConfig()
	}
	return &ExponentialBackoff{config: config, sleep: sleepContext}
}

// Execute calls fn until it succeeds, returns a non-retryable error, or runs out of attempts.
// Cancelling ctx stops the loop and returns the last error fn produced.
func (eb *ExponentialBackoff) Execute(ctx context.Context, fn func() error) error {
	attempts := max(1, eb.config.MaxAttempts)

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return firstNonNil(lastErr, err)
		}

		lastErr = fn()
		switch {
		case lastErr == nil:
			return nil
		case !IsRetryable(lastErr):
			return lastErr
		case attempt == attempts:
			return &MaxRetriesExceededError{LastError: lastErr, MaxAttempts: attempts}
		}

		if err := eb.sleep(ctx, eb.calculateDelay(attempt)); err != nil {
			return lastErr
		}
	}
}

func (eb *ExponentialBackoff) calculateDelay(attempt int) time.Duration {
	delay := float64(eb.config.BaseDelay) * math.Pow(eb.config.Multiplier, float64(attempt-1))
	return time.Duration(math.Min(delay, float64(eb.config.MaxDelay)))
}

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetryable trusts an explicit Retryable classification. Unclassified errors are
// retried only when they come from the network.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

type MaxRetriesExceededError struct {
	LastError   error
	MaxAttempts int
}

func (e *MaxRetriesExceededError) Error() string {
	return "max retries exceeded: " + e.LastError.Error()
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.LastError
}

func IsMaxRetriesExceeded(err error) bool {
	var maxRetriesErr *MaxRetriesExceededError
	return errors.As(err, &maxRetriesErr)
}
