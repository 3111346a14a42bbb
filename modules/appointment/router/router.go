package router

import (
	"glee-scheduler/core/middleware"
	"glee-scheduler/modules/appointment/controller"

	"github.com/labstack/echo/v4"
)

type AppointmentRouter struct {
	controller *controller.AppointmentController
}

func NewAppointmentRouter(controller *controller.AppointmentController) *AppointmentRouter {
	return &AppointmentRouter{
		controller: controller,
	}
}

func (r *AppointmentRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	private := v1.Group("/private", mw.AuthMiddleware())
	manage := mw.RequireRoles(middleware.ManagerRoles...)

	events := private.Group("/events/:id")
	events.GET("/team-members", r.controller.ListTeamMembers)
	events.POST("/team-members", r.controller.AddTeamMember, manage)
	events.DELETE("/team-members/:userId", r.controller.RemoveTeamMember, manage)
	events.POST("/team-appointments", r.controller.ScheduleTeamAppointments, manage)

	private.POST("/meetings/call", r.controller.CallMeeting, manage)

	appointments := private.Group("/appointments", manage)
	appointments.GET("", r.controller.ListAppointments)
	appointments.PUT("/:id/status", r.controller.UpdateAppointmentStatus)
}
