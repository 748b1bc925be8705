package domain

import (
	"github.com/campuscabs/waitlist/config"
	"github.com/campuscabs/waitlist/domain/monitoring"
	"github.com/campuscabs/waitlist/domain/waitlist"
	"github.com/campuscabs/waitlist/pkg/factory"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	routerService := appConfig.RouterService

	factories := factory.NewFactoryContainer(appConfig.Logger, &factory.RateLimitConfig{
		Requests:  appConfig.Config.SubmitRateLimitRequests,
		Window:    appConfig.Config.RateLimitWindow,
		Namespace: "submit",
		Logger:    appConfig.Logger,
	}, appConfig.Cache)

	routerService.MountController(monitoring.NewMonitoringControllerFactory(appConfig.DB, appConfig.Logger, appConfig.Cache, appConfig.Store).CreateController())

	waitlistFactory := waitlist.NewWaitlistServiceFactory(waitlist.Dependencies{
		DB:            appConfig.DB,
		Redis:         config.GetRedisClient(appConfig.Cache),
		Logger:        appConfig.Logger,
		Store:         appConfig.Store,
		Table:         appConfig.StoreConfig.Table,
		SessionTTL:    appConfig.Config.FormSessionTTL,
		Registerer:    routerService.MetricsRegisterer(),
		SubmitLimiter: factories.RateLimiterFactory.CreateRateLimiter(),
		Pages: waitlist.PageConfig{
			CookieTTL:     appConfig.Config.FormSessionTTL,
			SecureCookies: appConfig.Config.SecureCookies,
		},
	})

	for _, controller := range waitlistFactory.CreateControllers() {
		routerService.MountController(controller)
	}
}
