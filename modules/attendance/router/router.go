package router

import (
	"glee-scheduler/core/middleware"
	"glee-scheduler/modules/attendance/controller"

	"github.com/labstack/echo/v4"
)

type AttendanceRouter struct {
	controller *controller.AttendanceController
}

func NewAttendanceRouter(controller *controller.AttendanceController) *AttendanceRouter {
	return &AttendanceRouter{
		controller: controller,
	}
}

func (r *AttendanceRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Anonymous scans reach the verifier so they get a structured rejection.
	v1.POST("/private/attendance/scan", r.controller.Scan, mw.OptionalAuthMiddleware())

	manage := v1.Group("/private", mw.AuthMiddleware(), mw.RequireRoles(middleware.ManagerRoles...))
	manage.POST("/events/:id/scan-tokens", r.controller.IssueToken)
	manage.GET("/events/:id/scan-tokens/active", r.controller.ActiveToken)
	manage.GET("/events/:id/attendance", r.controller.ScanHistory)
	manage.DELETE("/scan-tokens/:token", r.controller.DeactivateToken)
}
