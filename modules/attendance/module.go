package attendance

import (
	"glee-scheduler/core/clock"
	"glee-scheduler/core/database"
	"glee-scheduler/core/middleware"
	"glee-scheduler/core/queue"
	"glee-scheduler/core/storage"
	"glee-scheduler/modules/attendance/controller"
	"glee-scheduler/modules/attendance/repository"
	"glee-scheduler/modules/attendance/router"
	"glee-scheduler/modules/attendance/service"

	"github.com/labstack/echo/v4"
)

type Dependencies struct {
	Events              service.EventLookup
	Objects             storage.ObjectStore
	Dispatcher          queue.Dispatcher
	Clock               clock.Clock
	DefaultTokenMinutes int
}

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, deps Dependencies) {
	repo := repository.NewAttendanceRepository(db)
	svc := service.NewAttendanceService(repo, deps.Events, deps.Objects, deps.Dispatcher, deps.Clock, deps.DefaultTokenMinutes)
	ctrl := controller.NewAttendanceController(svc)
	router.NewAttendanceRouter(ctrl).Setup(e, mw)
}
