package notification

import (
	"glee-scheduler/core/clock"
	"glee-scheduler/core/database"
	"glee-scheduler/core/middleware"
	"glee-scheduler/modules/notification/controller"
	"glee-scheduler/modules/notification/repository"
	"glee-scheduler/modules/notification/router"
	"glee-scheduler/modules/notification/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware, clk clock.Clock) *service.NotificationService {
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo, clk)
	ctrl := controller.NewNotificationController(svc)

	router.NewNotificationRouter(ctrl).Setup(e, mw)

	return svc
}
