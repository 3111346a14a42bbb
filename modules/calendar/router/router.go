package router

import (
	"glee-scheduler/core/middleware"
	"glee-scheduler/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{
		controller: controller,
	}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	public := v1.Group("/public")
	public.GET("/calendars", r.controller.ListPublicCalendars)
	public.GET("/events", r.controller.ListPublicEvents)

	private := v1.Group("/private", mw.AuthMiddleware())
	manage := mw.RequireRoles(middleware.ManagerRoles...)

	calendars := private.Group("/calendars")
	calendars.GET("", r.controller.ListCalendars)
	calendars.GET("/default", r.controller.GetDefaultCalendar)
	calendars.POST("", r.controller.CreateCalendar, manage)
	calendars.PUT("/:id", r.controller.UpdateCalendar, manage)
	calendars.DELETE("/:id", r.controller.DeleteCalendar, manage)
	calendars.PUT("/:id/visibility", r.controller.SetVisibility, manage)
	calendars.PUT("/:id/default", r.controller.SetDefault, manage)
	calendars.POST("/:id/import", r.controller.ImportEvents, manage)

	events := private.Group("/events")
	events.GET("", r.controller.ListEvents)
	events.GET("/:id", r.controller.GetEvent)
	events.POST("", r.controller.CreateEvent, manage)
	events.POST("/rehearsal-series", r.controller.CreateRehearsalSeries, manage)
	events.PUT("/:id", r.controller.UpdateEvent, manage)
	events.DELETE("/:id", r.controller.DeleteEvent, manage)
}
