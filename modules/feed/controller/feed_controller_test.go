package controller

import (
	"context"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/utils"
	"glee-scheduler/modules/feed/service"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeedService struct {
	lastRequest service.FeedRequest
	lastScope   service.ScopeFilter
	doc         service.Document
}

func (s *stubFeedService) Subscription(ctx context.Context, req service.FeedRequest) (*service.Document, *errors.AppError) {
	s.lastRequest = req
	doc := s.doc
	doc.Private = req.Type == service.ScopePrivate
	return &doc, nil
}

func (s *stubFeedService) ExportOnce(ctx context.Context, scope service.ScopeFilter) (*service.Document, *errors.AppError) {
	s.lastScope = scope
	doc := s.doc
	doc.Filename = "glee-club-" + scope.Key() + ".ics"
	return &doc, nil
}

func (s *stubFeedService) FeedURL(scope service.ScopeType, eventType, token string) string {
	return "https://glee.test/calendar-feed?type=" + string(scope) + "&token=" + token
}

func (s *stubFeedService) PrivateFeedURL(ctx context.Context, userID uuid.UUID, eventType string) (string, *errors.AppError) {
	return s.FeedURL(service.ScopePrivate, eventType, "minted"), nil
}

func (s *stubFeedService) Invalidate(ctx context.Context) error {
	return nil
}

func newTestController() (*FeedController, *stubFeedService) {
	stub := &stubFeedService{doc: service.Document{Body: "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", Events: 0}}
	return NewFeedController(stub, 5*time.Minute), stub
}

func TestCalendarFeed_PublicHeaders(t *testing.T) {
	ctrl, stub := newTestController()
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/calendar-feed?event_type=rehearsal", nil), rec)

	require.NoError(t, ctrl.CalendarFeed(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "public, max-age=300", rec.Header().Get(echo.HeaderCacheControl))
	assert.Empty(t, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, service.ScopePublic, stub.lastRequest.Type)
	assert.Equal(t, "rehearsal", stub.lastRequest.EventType)
}

func TestCalendarFeed_PrivateIsNeverPubliclyCached(t *testing.T) {
	ctrl, stub := newTestController()
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/calendar-feed?type=private&token=whatever", nil), rec)

	require.NoError(t, ctrl.CalendarFeed(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "private, max-age=300", rec.Header().Get(echo.HeaderCacheControl))
	assert.Equal(t, "whatever", stub.lastRequest.Token)
}

func TestCalendarFeed_RejectsUnknownType(t *testing.T) {
	ctrl, _ := newTestController()
	e := echo.New()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/calendar-feed?type=month", nil), httptest.NewRecorder())

	err := ctrl.CalendarFeed(ctx)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestExportCalendar_AnonymousIsPublicOnly(t *testing.T) {
	ctrl, stub := newTestController()
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/export-calendar?type=month&year=2025&month=3", nil), rec)

	require.NoError(t, ctrl.ExportCalendar(ctx))
	assert.True(t, stub.lastScope.PublicOnly)
	assert.Equal(t, service.ScopeMonth, stub.lastScope.Type)
	assert.Equal(t, `attachment; filename="glee-club-month-2025-03-public.ics"`, rec.Header().Get(echo.HeaderContentDisposition))
}

func TestExportCalendar_AuthenticatedKeepsScope(t *testing.T) {
	ctrl, stub := newTestController()
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/export-calendar?type=all", nil), rec)
	ctx.Set(constants.ContextTokenData, &utils.TokenClaims{UserID: uuid.New(), Role: constants.RoleMember})

	require.NoError(t, ctrl.ExportCalendar(ctx))
	assert.False(t, stub.lastScope.PublicOnly)
	assert.Equal(t, `attachment; filename="glee-club-all.ics"`, rec.Header().Get(echo.HeaderContentDisposition))
}

func TestExportCalendar_InvalidMonth(t *testing.T) {
	ctrl, _ := newTestController()
	e := echo.New()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/export-calendar?type=month&year=2025&month=0", nil), httptest.NewRecorder())

	err := ctrl.ExportCalendar(ctx)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestFeedURL_RequiresClaims(t *testing.T) {
	ctrl, _ := newTestController()
	e := echo.New()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/private/calendar-feed/url", nil), httptest.NewRecorder())

	err := ctrl.FeedURL(ctx)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	rec := httptest.NewRecorder()
	ctx = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/private/calendar-feed/url", nil), rec)
	ctx.Set(constants.ContextTokenData, &utils.TokenClaims{UserID: uuid.New(), Role: constants.RoleMember})
	require.NoError(t, ctrl.FeedURL(ctx))
	assert.Contains(t, rec.Body.String(), "token=minted")
}
