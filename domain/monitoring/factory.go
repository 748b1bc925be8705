package monitoring

import (
	"github.com/campuscabs/waitlist/config/router"
	"github.com/campuscabs/waitlist/internal/log"
	"gorm.io/gorm"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	db     *gorm.DB
	logger *log.Logger
	cache  Cache
	store  Store
}

func NewMonitoringControllerFactory(db *gorm.DB, logger *log.Logger, cache Cache, store Store) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		db:     db,
		logger: logger,
		cache:  cache,
		store:  store,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache, f.store)
}
