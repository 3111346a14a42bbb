package calendar

import (
	"glee-scheduler/core/clock"
	"glee-scheduler/core/database"
	"glee-scheduler/core/middleware"
	"glee-scheduler/modules/calendar/controller"
	"glee-scheduler/modules/calendar/repository"
	"glee-scheduler/modules/calendar/router"
	"glee-scheduler/modules/calendar/service"
	"time"

	"github.com/labstack/echo/v4"
)

// Services exposes the calendar store to the modules that read from it.
type Services struct {
	Calendars service.CalendarService
	Events    service.EventService
}

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, clk clock.Clock, location *time.Location) Services {
	calendarRepo := repository.NewCalendarRepository(db)
	eventRepo := repository.NewEventRepository(db)

	calendarSvc := service.NewCalendarService(calendarRepo)
	eventSvc := service.NewEventService(eventRepo, calendarSvc, clk, location)

	ctrl := controller.NewCalendarController(calendarSvc, eventSvc)
	router.NewCalendarRouter(ctrl).Setup(e, mw)

	return Services{Calendars: calendarSvc, Events: eventSvc}
}
