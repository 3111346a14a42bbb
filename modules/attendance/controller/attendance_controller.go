package controller

import (
	"glee-scheduler/core/constants"
	"glee-scheduler/core/controller"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/utils"
	"glee-scheduler/modules/attendance/dto"
	"glee-scheduler/modules/attendance/entity"
	"glee-scheduler/modules/attendance/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AttendanceController struct {
	controller.BaseController
	service service.AttendanceServiceInterface
}

func NewAttendanceController(service service.AttendanceServiceInterface) *AttendanceController {
	return &AttendanceController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func eventIDParam(ctx echo.Context) (uuid.UUID, *errors.AppError) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid event id", err)
	}
	return id, nil
}

// IssueToken handles POST /private/events/:id/scan-tokens
// @Summary Issue a QR scan token for an event
// @Tags Attendance
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body dto.IssueTokenRequest false "Expiry"
// @Success 200 {object} dto.IssuedToken
// @Router /private/events/{id}/scan-tokens [post]
func (c *AttendanceController) IssueToken(ctx echo.Context) error {
	eventID, appErr := eventIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	claims, ok := utils.ClaimsFromContext(ctx, constants.ContextTokenData)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	var req dto.IssueTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	issued, appErr := c.service.IssueToken(ctx.Request().Context(), claims.UserID, eventID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, issued, "Token issued")
}

// ActiveToken handles GET /private/events/:id/scan-tokens/active
func (c *AttendanceController) ActiveToken(ctx echo.Context) error {
	eventID, appErr := eventIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	token, appErr := c.service.ActiveToken(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, token, "Success")
}

// DeactivateToken handles DELETE /private/scan-tokens/:token
func (c *AttendanceController) DeactivateToken(ctx echo.Context) error {
	if appErr := c.service.DeactivateToken(ctx.Request().Context(), ctx.Param("token")); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Token deactivated")
}

// ScanHistory handles GET /private/events/:id/attendance
func (c *AttendanceController) ScanHistory(ctx echo.Context) error {
	eventID, appErr := eventIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	records, appErr := c.service.ScanHistory(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, records, "Success")
}

// Scan handles POST /private/attendance/scan
// @Summary Record attendance from a scanned code
// @Tags Attendance
// @Security BearerAuth
// @Param request body dto.ScanRequest true "Scanned token"
// @Success 200 {object} entity.ScanResult
// @Failure 401 {object} entity.ScanResult
// @Router /private/attendance/scan [post]
func (c *AttendanceController) Scan(ctx echo.Context) error {
	var req dto.ScanRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	userID := uuid.Nil
	if claims, ok := utils.ClaimsFromContext(ctx, constants.ContextTokenData); ok {
		userID = claims.UserID
	}

	result, appErr := c.service.VerifyScan(ctx.Request().Context(), req.Token, userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	if result.Reason == entity.ReasonUnauthenticated {
		return c.Unauthorized(errors.ErrUnauthorized, result.Message, result)
	}

	message := "Attendance recorded"
	if !result.Accepted {
		message = result.Message
	}
	return c.SuccessResponse(ctx, result, message)
}
