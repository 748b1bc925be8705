package config

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/campuscabs/waitlist/config/router"
	"github.com/campuscabs/waitlist/internal/log"
	"github.com/campuscabs/waitlist/internal/models"
	"github.com/campuscabs/waitlist/pkg/constants"
	"github.com/campuscabs/waitlist/pkg/store"
	"github.com/campuscabs/waitlist/pkg/utils"
	"gorm.io/gorm"
)

const defaultRequestTimeout = 30 * time.Second

var ErrAutoMigrateWithoutDatabase = errors.New("--auto-migrate requires APP_DATABASE_URL or POSTGRES_* to be set")

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Store           store.Client
	StoreConfig     *StoreConfig
	Config          *AppConfig
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests       int
	RateLimitWindow         time.Duration
	SubmitRateLimitRequests int
	RequestTimeout          time.Duration
	FormSessionTTL          time.Duration
	SecureCookies           bool
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests:       envPositiveInt("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests),
		RateLimitWindow:         envPositiveDuration("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow()),
		SubmitRateLimitRequests: envPositiveInt("SUBMIT_RATE_LIMIT_REQUESTS", constants.DefaultSubmitRateLimitRequests),
		RequestTimeout:          envPositiveDuration("REQUEST_TIMEOUT", defaultRequestTimeout),
		FormSessionTTL:          envPositiveDuration("FORM_SESSION_TTL", constants.DefaultFormSessionTTLHours*time.Hour),
		SecureCookies:           envBool("COOKIE_SECURE", IsProduction(GetAppEnv())),
	}
}

// Malformed or non-positive overrides fall back to the default.
func envPositiveInt(key string, fallback int) int {
	if parsed, err := strconv.Atoi(utils.GetEnvTrimmed(key)); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func envPositiveDuration(key string, fallback time.Duration) time.Duration {
	if parsed, err := time.ParseDuration(utils.GetEnvTrimmed(key)); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if parsed, err := strconv.ParseBool(utils.GetEnvTrimmed(key)); err == nil {
		return parsed
	}
	return fallback
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

// LoadApplicationConfiguration fails before anything listens when the external store is
// missing or malformed. The database and cache stay optional.
func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	storeConfig := NewStoreConfig()
	storeClient, err := storeConfig.NewStore(logger)
	if err != nil {
		return nil, err
	}

	ac := &ApplicationConfig{
		Logger:      logger,
		Store:       storeClient,
		StoreConfig: storeConfig,
	}

	// From here on a failure must release whatever was already started.
	fail := func(err error) (*ApplicationConfig, error) {
		ac.Cleanup()
		return nil, err
	}

	if ac.TracingShutdown, err = SetupTracing(logger); err != nil {
		return fail(err)
	}

	if ac.DB, err = NewDatabaseOrNil(logger, nil); err != nil {
		return fail(err)
	}

	if autoMigrate {
		if ac.DB == nil {
			return fail(ErrAutoMigrateWithoutDatabase)
		}
		if err := AutoMigrate(logger, ac.DB, models.ModelRegistry...); err != nil {
			return fail(err)
		}
	}

	ac.Config = NewAppConfig()
	ac.Cache = NewCacheConfig().NewCacheOrNil(logger)

	ac.RouterService = router.CreateRouterService(logger, ac.Cache, &router.RouterConfig{
		RateLimitRequests: ac.Config.RateLimitRequests,
		RateLimitWindow:   ac.Config.RateLimitWindow,
		RequestTimeout:    ac.Config.RequestTimeout,
	})

	logger.Info("Application configuration loaded successfully")
	return ac, nil
}
