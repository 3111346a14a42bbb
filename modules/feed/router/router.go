package router

import (
	"glee-scheduler/core/middleware"
	"glee-scheduler/modules/feed/controller"

	"github.com/labstack/echo/v4"
)

type FeedRouter struct {
	controller *controller.FeedController
}

func NewFeedRouter(controller *controller.FeedController) *FeedRouter {
	return &FeedRouter{
		controller: controller,
	}
}

func (r *FeedRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	e.GET("/calendar-feed", r.controller.CalendarFeed)
	e.GET("/export-calendar", r.controller.ExportCalendar, mw.OptionalAuthMiddleware())

	private := e.Group("/api/v1/private/calendar-feed", mw.AuthMiddleware())
	private.GET("/url", r.controller.FeedURL)
	private.POST("/refresh", r.controller.RefreshFeeds, mw.RequireRoles(middleware.ManagerRoles...))
}
