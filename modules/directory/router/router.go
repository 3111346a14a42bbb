package router

import (
	"glee-scheduler/core/middleware"
	"glee-scheduler/modules/directory/controller"

	"github.com/labstack/echo/v4"
)

type DirectoryRouter struct {
	controller *controller.DirectoryController
}

func NewDirectoryRouter(controller *controller.DirectoryController) *DirectoryRouter {
	return &DirectoryRouter{controller: controller}
}

func (r *DirectoryRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	private := v1.Group("/private", mw.AuthMiddleware())
	private.GET("/me", r.controller.GetMe)
}
