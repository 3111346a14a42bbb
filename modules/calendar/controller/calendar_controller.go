package controller

import (
	"glee-scheduler/core/constants"
	"glee-scheduler/core/controller"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/utils"
	"glee-scheduler/modules/calendar/dto"
	"glee-scheduler/modules/calendar/entity"
	"glee-scheduler/modules/calendar/service"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxImportBytes = 2 << 20

type CalendarController struct {
	controller.BaseController
	calendars service.CalendarService
	events    service.EventService
}

func NewCalendarController(calendars service.CalendarService, events service.EventService) *CalendarController {
	return &CalendarController{
		BaseController: controller.NewBaseController(),
		calendars:      calendars,
		events:         events,
	}
}

func (c *CalendarController) userID(ctx echo.Context) uuid.UUID {
	if claims, ok := utils.ClaimsFromContext(ctx, constants.ContextTokenData); ok {
		return claims.UserID
	}
	return uuid.Nil
}

func parseIDParam(ctx echo.Context) (uuid.UUID, *errors.AppError) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid id", err)
	}
	return id, nil
}

// ListPublicCalendars handles GET /public/calendars
// @Summary Visible calendars
// @Tags Calendar
// @Produce json
// @Success 200 {array} entity.Calendar
// @Router /public/calendars [get]
func (c *CalendarController) ListPublicCalendars(ctx echo.Context) error {
	cals, appErr := c.calendars.ListCalendars(ctx.Request().Context(), false)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, cals, "Success")
}

// ListCalendars handles GET /private/calendars
// @Summary All calendars, optionally including hidden ones
// @Tags Calendar
// @Security BearerAuth
// @Param include_hidden query bool false "Include hidden calendars"
// @Success 200 {array} entity.Calendar
// @Router /private/calendars [get]
func (c *CalendarController) ListCalendars(ctx echo.Context) error {
	includeHidden := ctx.QueryParam("include_hidden") == "true"
	cals, appErr := c.calendars.ListCalendars(ctx.Request().Context(), includeHidden)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, cals, "Success")
}

// GetDefaultCalendar handles GET /private/calendars/default
func (c *CalendarController) GetDefaultCalendar(ctx echo.Context) error {
	cal, appErr := c.calendars.GetDefault(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, cal, "Success")
}

// CreateCalendar handles POST /private/calendars
// @Summary Create a calendar
// @Tags Calendar
// @Security BearerAuth
// @Accept json
// @Param request body dto.CreateCalendarRequest true "Calendar"
// @Success 200 {object} entity.Calendar
// @Failure 400 {object} errors.AppError
// @Router /private/calendars [post]
func (c *CalendarController) CreateCalendar(ctx echo.Context) error {
	var req dto.CreateCalendarRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	cal, appErr := c.calendars.CreateCalendar(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, cal, "Calendar created successfully")
}

// UpdateCalendar handles PUT /private/calendars/:id
func (c *CalendarController) UpdateCalendar(ctx echo.Context) error {
	id, appErr := parseIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	var req dto.UpdateCalendarRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	cal, appErr := c.calendars.UpdateCalendar(ctx.Request().Context(), id, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, cal, "Calendar updated successfully")
}

// DeleteCalendar handles DELETE /private/calendars/:id
// @Summary Delete an unused, non-default calendar
// @Tags Calendar
// @Security BearerAuth
// @Param id path string true "Calendar ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} errors.AppError
// @Router /private/calendars/{id} [delete]
func (c *CalendarController) DeleteCalendar(ctx echo.Context) error {
	id, appErr := parseIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	if appErr := c.calendars.DeleteCalendar(ctx.Request().Context(), id); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Calendar deleted successfully")
}

// SetVisibility handles PUT /private/calendars/:id/visibility
func (c *CalendarController) SetVisibility(ctx echo.Context) error {
	id, appErr := parseIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	var req dto.SetVisibilityRequest
	if err := ctx.Bind(&req); err != nil || req.IsVisible == nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "is_visible is required")
	}

	if appErr := c.calendars.SetVisibility(ctx.Request().Context(), id, *req.IsVisible); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, map[string]bool{"is_visible": *req.IsVisible}, "Visibility updated")
}

// SetDefault handles PUT /private/calendars/:id/default
func (c *CalendarController) SetDefault(ctx echo.Context) error {
	id, appErr := parseIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	if appErr := c.calendars.SetDefault(ctx.Request().Context(), id); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Default calendar updated")
}

// ImportEvents handles POST /private/calendars/:id/import with a text/calendar body
func (c *CalendarController) ImportEvents(ctx echo.Context) error {
	id, appErr := parseIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	body := io.LimitReader(ctx.Request().Body, maxImportBytes)
	result, appErr := c.events.ImportEvents(ctx.Request().Context(), c.userID(ctx), id, body)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Import finished")
}

// ListPublicEvents handles GET /public/events
// @Summary Public events on visible calendars
// @Tags Event
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Param calendar_ids query string false "Comma separated calendar ids"
// @Param event_type query string false "Event type"
// @Success 200 {array} entity.Event
// @Router /public/events [get]
func (c *CalendarController) ListPublicEvents(ctx echo.Context) error {
	return c.listEvents(ctx, true)
}

// ListEvents handles GET /private/events
func (c *CalendarController) ListEvents(ctx echo.Context) error {
	return c.listEvents(ctx, false)
}

func (c *CalendarController) listEvents(ctx echo.Context, isPublicView bool) error {
	query, appErr := parseEventListQuery(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	query.IsPublicView = isPublicView

	events, appErr := c.events.ListVisibleEvents(ctx.Request().Context(), query)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, events, "Success")
}

// GetEvent handles GET /private/events/:id
func (c *CalendarController) GetEvent(ctx echo.Context) error {
	id, appErr := parseIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	event, appErr := c.events.GetEvent(ctx.Request().Context(), id)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, event, "Success")
}

// CreateEvent handles POST /private/events
// @Summary Create an event
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Param request body dto.CreateEventRequest true "Event"
// @Success 200 {object} entity.Event
// @Failure 400 {object} errors.AppError
// @Router /private/events [post]
func (c *CalendarController) CreateEvent(ctx echo.Context) error {
	var req dto.CreateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	event, appErr := c.events.CreateEvent(ctx.Request().Context(), c.userID(ctx), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, event, "Event created successfully")
}

// UpdateEvent handles PUT /private/events/:id
func (c *CalendarController) UpdateEvent(ctx echo.Context) error {
	id, appErr := parseIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	var req dto.UpdateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	event, appErr := c.events.UpdateEvent(ctx.Request().Context(), id, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, event, "Event updated successfully")
}

// DeleteEvent handles DELETE /private/events/:id
func (c *CalendarController) DeleteEvent(ctx echo.Context) error {
	id, appErr := parseIDParam(ctx)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	if appErr := c.events.DeleteEvent(ctx.Request().Context(), id); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Event deleted successfully")
}

// CreateRehearsalSeries handles POST /private/events/rehearsal-series
// @Summary Create a weekly rehearsal series
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Param request body dto.RecurringRehearsalRequest true "Series"
// @Success 200 {array} entity.Event
// @Router /private/events/rehearsal-series [post]
func (c *CalendarController) CreateRehearsalSeries(ctx echo.Context) error {
	var req dto.RecurringRehearsalRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	events, appErr := c.events.CreateRecurringRehearsals(ctx.Request().Context(), c.userID(ctx), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, events, "Rehearsal series created")
}

func parseEventListQuery(ctx echo.Context) (dto.EventListQuery, *errors.AppError) {
	var query dto.EventListQuery

	if raw := ctx.QueryParam("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, errors.NewAppError(errors.ErrInvalidInput, "from must be RFC3339", err)
		}
		query.From = &t
	}
	if raw := ctx.QueryParam("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, errors.NewAppError(errors.ErrInvalidInput, "to must be RFC3339", err)
		}
		query.To = &t
	}
	if raw := ctx.QueryParam("calendar_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				return query, errors.NewAppError(errors.ErrInvalidInput, "calendar_ids must be UUIDs", err)
			}
			query.CalendarIDs = append(query.CalendarIDs, id)
		}
	}
	if raw := ctx.QueryParam("event_type"); raw != "" {
		eventType := entity.EventType(raw)
		query.EventType = &eventType
	}
	return query, nil
}
