package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitState is the current circuit breaker state.
type CircuitState int

const (
	// Closed allows requests to pass through
	Closed CircuitState = iota
	// Open blocks all requests
	Open
	// HalfOpen allows limited requests to test recovery
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker guards calls and opens the circuit after repeated failures.
type CircuitBreaker interface {
	Call(func() error) error
	State() CircuitState
}

type Logger interface {
	Warn(msg string, args ...any)
}

type Config struct {
	Name             string
	FailureThreshold int           // Consecutive failures before opening
	RecoveryTimeout  time.Duration // Time to wait before trying HalfOpen
	SuccessThreshold int           // Successes needed to close from HalfOpen

	// IsSuccessful decides whether an error counts against the breaker.
	// Errors caused by the caller (rejected input) should not trip it.
	IsSuccessful func(err error) bool
	Logger       Logger
}

func DefaultConfig() *Config {
	return &Config{
		Name:             "default",
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 3,
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type circuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewCircuitBreaker returns a circuit breaker and applies defaults when config is nil.
func NewCircuitBreaker(config *Config) CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}

	threshold := uint32(config.FailureThreshold)
	if threshold == 0 {
		threshold = 3
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: uint32(config.SuccessThreshold),
		Timeout:     config.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: config.IsSuccessful,
	}

	if config.Logger != nil {
		logger := config.Logger
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		}
	}

	return &circuitBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

func (c *circuitBreaker) Call(fn func() error) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}

	return err
}

func (c *circuitBreaker) State() CircuitState {
	switch c.cb.State() {
	case gobreaker.StateOpen:
		return Open
	case gobreaker.StateHalfOpen:
		return HalfOpen
	default:
		return Closed
	}
}
