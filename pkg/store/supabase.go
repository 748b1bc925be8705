package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/campuscabs/waitlist/pkg/circuitbreaker"
	"github.com/campuscabs/waitlist/pkg/retry"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 10 * time.Second
	insertPath     = "/rest/v1/{table}"
)

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type SupabaseConfig struct {
	URL     string
	Key     string
	Timeout time.Duration

	Breaker *circuitbreaker.Config
	Retry   *retry.Config
	Logger  Logger
}

// SupabaseClient inserts rows through the PostgREST endpoint of a Supabase project.
type SupabaseClient struct {
	http    *resty.Client
	breaker circuitbreaker.CircuitBreaker
	retrier retry.RetryPolicy
	logger  Logger
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid store url %q: %w", raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid store url %q: expected http(s)://host", raw)
	}

	return nil
}

func NewSupabaseClient(cfg SupabaseConfig) (*SupabaseClient, error) {
	if strings.TrimSpace(cfg.URL) == "" || strings.TrimSpace(cfg.Key) == "" {
		return nil, errors.New("supabase url and key are required")
	}
	if err := ValidateURL(cfg.URL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.URL), "/")).
		SetTimeout(timeout).
		SetHeader("apikey", cfg.Key).
		SetAuthToken(cfg.Key).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=minimal")

	breakerCfg := cfg.Breaker
	if breakerCfg == nil {
		breakerCfg = circuitbreaker.DefaultConfig()
		breakerCfg.Name = "supabase"
	}
	breakerCfg.IsSuccessful = func(err error) bool {
		return err == nil || IsRejected(err)
	}
	if cfg.Logger != nil {
		breakerCfg.Logger = cfg.Logger
	}

	return &SupabaseClient{
		http:    httpClient,
		breaker: circuitbreaker.NewCircuitBreaker(breakerCfg),
		retrier: retry.NewExponentialBackoff(cfg.Retry),
		logger:  cfg.Logger,
	}, nil
}

// Insert posts record as a single row. Rejections are returned immediately;
// transient failures are retried and an open breaker short-circuits with ErrUnavailable.
func (c *SupabaseClient) Insert(ctx context.Context, table string, record any) error {
	if strings.TrimSpace(table) == "" {
		return errors.New("table name is required")
	}

	err := c.retrier.Execute(ctx, func() error {
		return c.breaker.Call(func() error {
			return c.post(ctx, table, record)
		})
	})

	if err == nil {
		return nil
	}

	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return &InsertError{Table: table, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}

	var insertErr *InsertError
	if errors.As(err, &insertErr) {
		if c.logger != nil {
			c.logger.Warn("Store insert failed", "table", table, "status", insertErr.StatusCode, "error", insertErr.Err)
		}
		return insertErr
	}

	return &InsertError{Table: table, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
}

func (c *SupabaseClient) post(ctx context.Context, table string, record any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("table", table).
		SetBody(record).
		Post(insertPath)
	if err != nil {
		return &InsertError{Table: table, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}

	return classifyStatus(table, resp.StatusCode(), resp.String())
}

func (c *SupabaseClient) Healthy() bool {
	return c.breaker.State() != circuitbreaker.Open
}

func (c *SupabaseClient) BreakerState() string {
	return c.breaker.State().String()
}
