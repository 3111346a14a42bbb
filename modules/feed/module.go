package feed

import (
	"glee-scheduler/core/cache"
	"glee-scheduler/core/clock"
	"glee-scheduler/core/config"
	"glee-scheduler/core/middleware"
	"glee-scheduler/modules/feed/controller"
	"glee-scheduler/modules/feed/router"
	"glee-scheduler/modules/feed/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, mw *middleware.Middleware, cfg *config.Config, events service.EventLister, tokens service.FeedTokens, c cache.Cache, clk clock.Clock) {
	svc := service.NewFeedService(events, tokens, c, clk, service.Options{
		BaseURL:        cfg.Server.PublicBaseURL,
		CacheTTL:       cfg.Calendar.FeedCacheTTL,
		LookbackMonths: cfg.Calendar.FeedLookbackMonths,
		Location:       cfg.Calendar.Location(),
		Renderer: service.Renderer{
			ProductID: cfg.Calendar.ProductID,
			Name:      cfg.Calendar.Name,
			UIDDomain: cfg.Calendar.UIDDomain,
		},
	})
	ctrl := controller.NewFeedController(svc, cfg.Calendar.FeedMaxAge)
	router.NewFeedRouter(ctrl).Setup(e, mw)
}
