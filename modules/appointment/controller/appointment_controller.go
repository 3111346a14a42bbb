package controller

import (
	"glee-scheduler/core/constants"
	"glee-scheduler/core/controller"
	coreentity "glee-scheduler/core/entity"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/params"
	"glee-scheduler/core/utils"
	"glee-scheduler/modules/appointment/dto"
	"glee-scheduler/modules/appointment/entity"
	"glee-scheduler/modules/appointment/service"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AppointmentController struct {
	controller.BaseController
	service service.AppointmentServiceInterface
}

func NewAppointmentController(service service.AppointmentServiceInterface) *AppointmentController {
	return &AppointmentController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func userIDFrom(ctx echo.Context) uuid.UUID {
	if claims, ok := utils.ClaimsFromContext(ctx, constants.ContextTokenData); ok {
		return claims.UserID
	}
	return uuid.Nil
}

func parseUUIDParam(ctx echo.Context, name string) (uuid.UUID, *errors.AppError) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return uuid.Nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid "+name, err)
	}
	return id, nil
}

// ScheduleTeamAppointments handles POST /private/events/:id/team-appointments
// @Summary Stagger one planning appointment per team member
// @Tags Appointment
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body dto.ScheduleRequest true "Roster and anchor"
// @Success 200 {object} dto.ScheduleResult
// @Router /private/events/{id}/team-appointments [post]
func (c *AppointmentController) ScheduleTeamAppointments(ctx echo.Context) error {
	eventID, appErr := parseUUIDParam(ctx, "id")
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	var req dto.ScheduleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	result, appErr := c.service.ScheduleTeamAppointments(ctx.Request().Context(), userIDFrom(ctx), eventID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Appointments scheduled")
}

// CallMeeting handles POST /private/meetings/call
// @Summary Call an executive meeting
// @Tags Appointment
// @Security BearerAuth
// @Param request body dto.CallMeetingRequest true "Meeting details"
// @Success 200 {object} dto.CallMeetingResult
// @Router /private/meetings/call [post]
func (c *AppointmentController) CallMeeting(ctx echo.Context) error {
	var req dto.CallMeetingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	result, appErr := c.service.CallMeeting(ctx.Request().Context(), userIDFrom(ctx), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Meeting called")
}

// ListAppointments handles GET /private/appointments
// @Summary List appointments
// @Tags Appointment
// @Security BearerAuth
// @Param status query string false "scheduled, confirmed or cancelled"
// @Param day query string false "YYYY-MM-DD"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Router /private/appointments [get]
func (c *AppointmentController) ListAppointments(ctx echo.Context) error {
	var query dto.AppointmentListQuery
	if raw := ctx.QueryParam("status"); raw != "" {
		status := entity.AppointmentStatus(raw)
		if !status.Valid() {
			return c.BadRequest(errors.ErrInvalidInput, "Invalid status")
		}
		query.Status = &status
	}
	if raw := ctx.QueryParam("day"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.BadRequest(errors.ErrInvalidInput, "day must be YYYY-MM-DD")
		}
		query.Day = &day
	}

	page := params.NewQueryParams(ctx)
	items, total, appErr := c.service.ListAppointments(ctx.Request().Context(), query, *page)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, coreentity.Pagination[entity.Appointment]{
		Items:      items,
		TotalItems: total,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}, "Success")
}

// UpdateAppointmentStatus handles PUT /private/appointments/:id/status
func (c *AppointmentController) UpdateAppointmentStatus(ctx echo.Context) error {
	id, appErr := parseUUIDParam(ctx, "id")
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	var req dto.UpdateStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	appointment, appErr := c.service.UpdateAppointmentStatus(ctx.Request().Context(), id, req.Status)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, appointment, "Appointment updated")
}

// AddTeamMember handles POST /private/events/:id/team-members
func (c *AppointmentController) AddTeamMember(ctx echo.Context) error {
	eventID, appErr := parseUUIDParam(ctx, "id")
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	var req dto.AddTeamMemberRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	member, appErr := c.service.AddTeamMember(ctx.Request().Context(), eventID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, member, "Team member added")
}

// ListTeamMembers handles GET /private/events/:id/team-members
func (c *AppointmentController) ListTeamMembers(ctx echo.Context) error {
	eventID, appErr := parseUUIDParam(ctx, "id")
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	members, appErr := c.service.ListTeamMembers(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, members, "Success")
}

// RemoveTeamMember handles DELETE /private/events/:id/team-members/:userId
func (c *AppointmentController) RemoveTeamMember(ctx echo.Context) error {
	eventID, appErr := parseUUIDParam(ctx, "id")
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	userID, appErr := parseUUIDParam(ctx, "userId")
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	if appErr := c.service.RemoveTeamMember(ctx.Request().Context(), eventID, userID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Team member removed")
}
