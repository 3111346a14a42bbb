package appointment

import (
	"glee-scheduler/core/clock"
	"glee-scheduler/core/database"
	"glee-scheduler/core/middleware"
	"glee-scheduler/core/queue"
	"glee-scheduler/modules/appointment/controller"
	"glee-scheduler/modules/appointment/repository"
	"glee-scheduler/modules/appointment/router"
	"glee-scheduler/modules/appointment/service"
	"time"

	"github.com/labstack/echo/v4"
)

type Dependencies struct {
	Events     service.EventStore
	Calendars  service.MeetingCalendarFinder
	Directory  service.Directory
	Dispatcher queue.Dispatcher
	Clock      clock.Clock
	Location   *time.Location
}

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, deps Dependencies) {
	repo := repository.NewAppointmentRepository(db)
	svc := service.NewAppointmentService(repo, deps.Events, deps.Calendars, deps.Directory, deps.Dispatcher, deps.Clock, deps.Location)
	ctrl := controller.NewAppointmentController(svc)
	router.NewAppointmentRouter(ctrl).Setup(e, mw)
}
