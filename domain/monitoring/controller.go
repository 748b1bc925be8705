package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/campuscabs/waitlist/config/router"
	"github.com/campuscabs/waitlist/internal/log"
	"github.com/campuscabs/waitlist/pkg/ratelimit"
	"gorm.io/gorm"
)

const (
	healthCheckTimeout     = 2 * time.Second
	probeRequestsPerMinute = 10
)

type Cache interface {
	Ping(ctx context.Context) error
}

// Store is the slice of the external store client that health checks need.
type Store interface {
	Healthy() bool
	BreakerState() string
}

// HealthStatus reports 1 for a healthy dependency and 0 for a failing or unconfigured one.
type HealthStatus struct {
	Database int    `json:"database"`
	Cache    int    `json:"cache"`
	Store    int    `json:"store"`
	Breaker  string `json:"breaker"`
	Uptime   int    `json:"uptime"`
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	store     Store
	startTime time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache, store Store) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		store:     store,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			// Probes get their own tighter budget so they never eat into the signup limit.
			probeLimiter := ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
				Requests:  probeRequestsPerMinute,
				Window:    time.Minute,
				Namespace: "probe",
			})

			routerService.AddGetHandler(controller, probeLimiter, "status", ctrl.status)
			routerService.AddGetHandler(controller, probeLimiter, "health", ctrl.health)
		},
	)
}

func (ctrl *MonitoringController) status(c *router.RequestContext) *router.ServiceResult {
	return &router.ServiceResult{
		StatusCode: http.StatusOK,
		Data:       "Monitoring endpoint is operational.",
		Message:    "Monitoring successful",
	}
}

// health answers 503 while the store breaker is open, since no signup can succeed.
func (ctrl *MonitoringController) health(c *router.RequestContext) *router.ServiceResult {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := ctrl.check(ctx, router.GetLogger(c))

	if status.Store == 0 {
		return &router.ServiceResult{
			StatusCode: http.StatusServiceUnavailable,
			Data:       status,
			Message:    "external store is unavailable",
		}
	}

	return &router.ServiceResult{
		StatusCode: http.StatusOK,
		Data:       status,
		Message:    "campuscabs waitlist health check completed",
	}
}

func (ctrl *MonitoringController) check(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Database: ctrl.databaseUp(ctx, logger),
		Cache:    ctrl.cacheUp(ctx, logger),
		Breaker:  "unknown",
		Uptime:   int(time.Since(ctrl.startTime).Seconds()),
	}

	if ctrl.store == nil {
		logger.Error("External store not wired into health checks")
		return status
	}

	status.Breaker = ctrl.store.BreakerState()
	if ctrl.store.Healthy() {
		status.Store = 1
	} else {
		logger.Warn("External store circuit is open", "breaker", status.Breaker)
	}

	return status
}

func (ctrl *MonitoringController) cacheUp(ctx context.Context, logger *log.Logger) int {
	if ctrl.cache == nil {
		return 0
	}
	if err := ctrl.cache.Ping(ctx); err != nil {
		logger.Error("Cache health check failed", "error", err)
		return 0
	}
	return 1
}

func (ctrl *MonitoringController) databaseUp(ctx context.Context, logger *log.Logger) int {
	if ctrl.db == nil {
		return 0
	}

	sqlDB, err := ctrl.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.Error("Database health check failed", "error", err)
		return 0
	}
	return 1
}
