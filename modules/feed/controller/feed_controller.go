package controller

import (
	"fmt"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/controller"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/utils"
	"glee-scheduler/modules/feed/service"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const calendarContentType = "text/calendar; charset=utf-8"

type FeedController struct {
	controller.BaseController
	service service.FeedServiceInterface
	maxAge  time.Duration
}

func NewFeedController(service service.FeedServiceInterface, maxAge time.Duration) *FeedController {
	return &FeedController{
		BaseController: controller.NewBaseController(),
		service:        service,
		maxAge:         maxAge,
	}
}

type FeedURLResponse struct {
	PublicURL  string `json:"public_url"`
	PrivateURL string `json:"private_url"`
}

// CalendarFeed handles GET /calendar-feed
// @Summary Live iCalendar subscription feed
// @Tags Feed
// @Produce text/calendar
// @Param type query string false "public or private"
// @Param event_type query string false "Only events of this type"
// @Param token query string false "Calendar feed token, required for private"
// @Router /calendar-feed [get]
func (c *FeedController) CalendarFeed(ctx echo.Context) error {
	req := service.FeedRequest{
		Type:      service.ScopeType(ctx.QueryParam("type")),
		EventType: ctx.QueryParam("event_type"),
		Token:     ctx.QueryParam("token"),
	}
	if req.Type == "" {
		req.Type = service.ScopePublic
	}
	if req.Type != service.ScopePublic && req.Type != service.ScopePrivate {
		return c.BadRequest(errors.ErrInvalidInput, "type must be public or private")
	}

	doc, appErr := c.service.Subscription(ctx.Request().Context(), req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	c.setCacheControl(ctx, doc.Private)
	return ctx.Blob(http.StatusOK, calendarContentType, []byte(doc.Body))
}

// ExportCalendar handles GET /export-calendar
// @Summary One-time iCalendar download
// @Tags Feed
// @Produce text/calendar
// @Param type query string false "public, month, all or rangeAll"
// @Param month query int false "Month (1-12) when type=month"
// @Param year query int false "Year when type=month"
// @Router /export-calendar [get]
func (c *FeedController) ExportCalendar(ctx echo.Context) error {
	scope, err := service.ParseScope(ctx.QueryParam("type"), ctx.QueryParam("year"), ctx.QueryParam("month"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, err.Error())
	}
	if _, ok := utils.ClaimsFromContext(ctx, constants.ContextTokenData); !ok {
		scope.PublicOnly = true
	}

	doc, appErr := c.service.ExportOnce(ctx.Request().Context(), scope)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	ctx.Response().Header().Set("X-Event-Count", strconv.Itoa(doc.Events))
	c.setCacheControl(ctx, doc.Private)
	return ctx.Blob(http.StatusOK, calendarContentType, []byte(doc.Body))
}

// FeedURL handles GET /private/calendar-feed/url
// @Summary Subscription URLs for the current user
// @Tags Feed
// @Security BearerAuth
// @Param event_type query string false "Only events of this type"
// @Success 200 {object} FeedURLResponse
// @Router /private/calendar-feed/url [get]
func (c *FeedController) FeedURL(ctx echo.Context) error {
	claims, ok := utils.ClaimsFromContext(ctx, constants.ContextTokenData)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	eventType := ctx.QueryParam("event_type")
	privateURL, appErr := c.service.PrivateFeedURL(ctx.Request().Context(), claims.UserID, eventType)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, FeedURLResponse{
		PublicURL:  c.service.FeedURL(service.ScopePublic, eventType, ""),
		PrivateURL: privateURL,
	}, "Success")
}

// RefreshFeeds handles POST /private/calendar-feed/refresh
func (c *FeedController) RefreshFeeds(ctx echo.Context) error {
	if err := c.service.Invalidate(ctx.Request().Context()); err != nil {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrTransient, "Failed to clear feed cache", err))
	}
	return c.SuccessResponse(ctx, nil, "Feed cache cleared")
}

func (c *FeedController) setCacheControl(ctx echo.Context, private bool) {
	visibility := "public"
	if private {
		visibility = "private"
	}
	ctx.Response().Header().Set(echo.HeaderCacheControl, fmt.Sprintf("%s, max-age=%d", visibility, int(c.maxAge.Seconds())))
}
