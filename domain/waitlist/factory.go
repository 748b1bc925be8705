package waitlist

import (
	"time"

	"github.com/campuscabs/waitlist/config/router"
	"github.com/campuscabs/waitlist/internal/log"
	"github.com/campuscabs/waitlist/pkg/ratelimit"
	"github.com/campuscabs/waitlist/pkg/store"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the waitlist domain needs. DB and Redis are optional.
type Dependencies struct {
	DB            *gorm.DB
	Redis         *redis.Client
	Logger        *log.Logger
	Store         store.Inserter
	Table         string
	SessionTTL    time.Duration
	Registerer    prometheus.Registerer
	SubmitLimiter ratelimit.RateLimiter
	Pages         PageConfig
}

type WaitlistServiceFactory interface {
	CreateWaitlistService() WaitlistService
	CreateFormService() FormService
	CreateControllers() []*router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	deps     Dependencies
	recorder *Recorder
	receipts ReceiptRepository
	sessions SessionStore
}

func NewWaitlistServiceFactory(deps Dependencies) WaitlistServiceFactory {
	if deps.Table == "" {
		deps.Table = DefaultTable
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = DefaultSessionTTL
	}
	if deps.Pages.CookieTTL <= 0 {
		deps.Pages.CookieTTL = deps.SessionTTL
	}

	f := &DefaultWaitlistServiceFactory{deps: deps}

	if deps.DB != nil {
		f.receipts = NewReceiptRepository(deps.DB)
	} else {
		deps.Logger.Info("No database configured; waitlist receipts and stats are disabled")
	}

	if deps.Redis != nil {
		f.sessions = NewRedisSessionStore(deps.Redis, deps.SessionTTL)
		deps.Logger.Info("Form sessions stored in Redis", "ttl", deps.SessionTTL.String())
	} else {
		f.sessions = NewMemorySessionStore(deps.SessionTTL)
		deps.Logger.Info("Redis not configured; form sessions kept in memory", "ttl", deps.SessionTTL.String())
	}

	f.recorder = NewRecorder(deps.Logger, deps.Store, deps.Table, f.receipts, deps.Registerer)

	return f
}

func (f *DefaultWaitlistServiceFactory) CreateWaitlistService() WaitlistService {
	return NewWaitlistService(f.deps.Logger, f.recorder, f.receipts)
}

func (f *DefaultWaitlistServiceFactory) CreateFormService() FormService {
	return NewFormService(f.deps.Logger, f.sessions, f.recorder)
}

// CreateControllers returns the JSON API, the form session API and the HTML pages.
func (f *DefaultWaitlistServiceFactory) CreateControllers() []*router.RESTController {
	forms := f.CreateFormService()

	return []*router.RESTController{
		NewWaitlistController(f.CreateWaitlistService(), f.deps.SubmitLimiter),
		NewFormController(forms, f.deps.SubmitLimiter),
		NewPageController(forms, f.deps.SubmitLimiter, f.deps.Pages),
	}
}
