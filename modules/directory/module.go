package directory

import (
	"glee-scheduler/core/database"
	"glee-scheduler/core/middleware"
	"glee-scheduler/modules/directory/controller"
	"glee-scheduler/modules/directory/repository"
	"glee-scheduler/modules/directory/router"
	"glee-scheduler/modules/directory/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, mw *middleware.Middleware) service.DirectoryService {
	repo := repository.NewProfileRepository(db)
	svc := service.NewDirectoryService(repo)
	ctrl := controller.NewDirectoryController(svc)

	router.NewDirectoryRouter(ctrl).Setup(e, mw)
	return svc
}
