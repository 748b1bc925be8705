package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campuscabs/waitlist/internal/log"
	"github.com/campuscabs/waitlist/pkg/circuitbreaker"
	"github.com/campuscabs/waitlist/pkg/store"
	"github.com/campuscabs/waitlist/pkg/utils"
)

const DefaultWaitlistTable = "waitlist"

var (
	ErrStoreNotConfigured = errors.New("store is not configured: SUPABASE_URL and SUPABASE_ANON_KEY are required")
	ErrInvalidStoreURL    = errors.New("store url must be an absolute http(s) URL")
)

// storeClientFactory is swapped in tests so no network client is built.
var storeClientFactory = func(cfg store.SupabaseConfig) (store.Client, error) {
	return store.NewSupabaseClient(cfg)
}

type StoreConfig struct {
	URL     string
	Key     string
	Table   string
	Timeout time.Duration
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := sanitizeEnv(utils.GetEnvTrimmed(key)); v != "" {
			return v
		}
	}
	return ""
}

func NewStoreConfig() *StoreConfig {
	cfg := &StoreConfig{
		URL:     firstEnv("SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"),
		Key:     firstEnv("SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"),
		Table:   utils.GetEnvTrimmedOrDefault("WAITLIST_TABLE", DefaultWaitlistTable),
		Timeout: store.DefaultTimeout,
	}

	if raw := utils.GetEnvTrimmed("STORE_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			cfg.Timeout = parsed
		}
	}

	return cfg
}

// Validate reports every missing variable at once.
func (sc *StoreConfig) Validate() error {
	var missing []string
	if sc.URL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if sc.Key == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (missing: %s)", ErrStoreNotConfigured, strings.Join(missing, ", "))
	}

	if err := store.ValidateURL(sc.URL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStoreURL, err)
	}

	return nil
}

func (sc *StoreConfig) NewStore(logger *log.Logger) (store.Client, error) {
	if err := sc.Validate(); err != nil {
		logger.Error("External store configuration is invalid", "error", err)
		return nil, err
	}

	breaker := circuitbreaker.DefaultConfig()
	breaker.Name = "store:" + sc.Table

	client, err := storeClientFactory(store.SupabaseConfig{
		URL:     sc.URL,
		Key:     sc.Key,
		Timeout: sc.Timeout,
		Breaker: breaker,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("Failed to create external store client", "error", err)
		return nil, err
	}

	logger.Info("External store configured", "table", sc.Table, "timeout", sc.Timeout.String())
	return client, nil
}
