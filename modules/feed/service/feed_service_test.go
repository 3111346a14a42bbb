package service

import (
	"context"
	"glee-scheduler/core/clock"
	"glee-scheduler/core/errors"
	calendarentity "glee-scheduler/modules/calendar/entity"
	calendarservice "glee-scheduler/modules/calendar/service"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRenderer = Renderer{ProductID: "Glee Club", Name: "Glee Club", UIDDomain: "glee.test"}

type feedFixture struct {
	svc     *FeedService
	lister  *storeLister
	tokens  *staticTokens
	cache   *memoryCache
	main    calendarentity.Calendar
	hidden  calendarentity.Calendar
	public  calendarentity.Event
	private calendarentity.Event
	secret  calendarentity.Event
}

func strPtr(s string) *string { return &s }

func newFeedFixture(t *testing.T, ttl time.Duration) *feedFixture {
	t.Helper()
	f := &feedFixture{
		main:   calendarentity.Calendar{ID: uuid.New(), Name: "Main", IsVisible: true, IsDefault: true},
		hidden: calendarentity.Calendar{ID: uuid.New(), Name: "Drafts", IsVisible: false},
		tokens: newStaticTokens(),
		cache:  newMemoryCache(),
	}
	end := time.Date(2025, 3, 14, 21, 0, 0, 0, time.UTC)
	f.public = calendarentity.Event{
		ID:          uuid.New(),
		CalendarID:  f.main.ID,
		Title:       "Spring Concert",
		Description: strPtr("Annual spring performance"),
		EventType:   calendarentity.EventTypePerformance,
		StartAt:     time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC),
		EndAt:       &end,
		VenueName:   strPtr("Sisters Chapel"),
		Address:     strPtr("350 Spelman Ln SW"),
		IsPublic:    true,
		Status:      calendarentity.EventStatusConfirmed,
	}
	f.private = calendarentity.Event{
		ID:         uuid.New(),
		CalendarID: f.main.ID,
		Title:      "Sectional",
		EventType:  calendarentity.EventTypeRehearsal,
		StartAt:    time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC),
		IsPublic:   false,
		Status:     calendarentity.EventStatusCancelled,
	}
	f.secret = calendarentity.Event{
		ID:         uuid.New(),
		CalendarID: f.hidden.ID,
		Title:      "Surprise Gala",
		EventType:  calendarentity.EventTypeSocial,
		StartAt:    time.Date(2025, 3, 20, 19, 0, 0, 0, time.UTC),
		IsPublic:   true,
		Status:     calendarentity.EventStatusScheduled,
	}
	f.lister = &storeLister{
		calendars: []calendarentity.Calendar{f.main, f.hidden},
		events:    []calendarentity.Event{f.public, f.private, f.secret},
	}
	clk := clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	f.svc = NewFeedService(f.lister, f.tokens, f.cache, clk, Options{
		BaseURL:        "https://glee.test/",
		CacheTTL:       ttl,
		LookbackMonths: 12,
		Location:       time.UTC,
		Renderer:       testRenderer,
	})
	return f
}

func TestRender_RoundTripsThroughParser(t *testing.T) {
	f := newFeedFixture(t, 0)
	body := testRenderer.Render([]calendarentity.Event{f.public}, RenderOptions{Stamp: time.Now()})

	parsed, err := calendarservice.ParseICS(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, parsed, 1)

	got := parsed[0]
	assert.Equal(t, f.public.ID.String()+"@glee.test", got.UID)
	assert.Equal(t, "Spring Concert", got.Summary)
	assert.Equal(t, "Annual spring performance", got.Description)
	assert.Equal(t, "Sisters Chapel, 350 Spelman Ln SW", got.Location)
	assert.True(t, f.public.StartAt.Equal(got.StartAt))
	require.NotNil(t, got.EndAt)
	assert.True(t, f.public.EndAt.Equal(*got.EndAt))
}

func TestRender_OpenEndedEventRoundTripsWithoutEnd(t *testing.T) {
	f := newFeedFixture(t, 0)
	body := testRenderer.Render([]calendarentity.Event{f.private}, RenderOptions{Stamp: time.Now()})

	parsed, err := calendarservice.ParseICS(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.True(t, f.private.StartAt.Equal(parsed[0].StartAt))
	assert.Nil(t, parsed[0].EndAt)
}

func TestRender_UsesUTCInstantsAndDocumentHeaders(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	f := newFeedFixture(t, 0)
	event := f.private
	event.StartAt = time.Date(2025, 3, 12, 13, 0, 0, 0, loc)

	body := testRenderer.Render([]calendarentity.Event{event}, RenderOptions{Subscription: true, Stamp: time.Now()})
	assert.Contains(t, body, "DTSTART:20250312T170000Z")
	assert.NotContains(t, body, "DTEND")
	assert.Contains(t, body, "METHOD:PUBLISH")
	assert.Contains(t, body, "X-WR-TIMEZONE:UTC")
	assert.Contains(t, body, "X-PUBLISHED-TTL:PT1H")
	assert.Contains(t, body, "STATUS:CANCELLED")
	assert.Contains(t, body, "CATEGORIES:rehearsal")

	export := testRenderer.Render(nil, RenderOptions{Stamp: time.Now()})
	assert.NotContains(t, export, "METHOD:PUBLISH")
	assert.Contains(t, export, "BEGIN:VCALENDAR")
}

func TestExportOnce_PublicNeverIncludesPrivateEvents(t *testing.T) {
	f := newFeedFixture(t, 0)

	doc, appErr := f.svc.ExportOnce(context.Background(), ScopeFilter{Type: ScopePublic})
	require.Nil(t, appErr)
	assert.Contains(t, doc.Body, "Spring Concert")
	assert.NotContains(t, doc.Body, "Sectional")
	assert.NotContains(t, doc.Body, "Surprise Gala")
	assert.Equal(t, "glee-club-public.ics", doc.Filename)
	assert.False(t, doc.Private)
}

func TestExportOnce_AllIncludesPrivateButNotHiddenCalendars(t *testing.T) {
	f := newFeedFixture(t, 0)

	doc, appErr := f.svc.ExportOnce(context.Background(), ScopeFilter{Type: ScopeAll})
	require.Nil(t, appErr)
	assert.Contains(t, doc.Body, "Spring Concert")
	assert.Contains(t, doc.Body, "Sectional")
	assert.NotContains(t, doc.Body, "Surprise Gala")
	assert.Equal(t, 2, doc.Events)
	assert.True(t, doc.Private)
}

func TestExportOnce_MonthIsBoundedInLocation(t *testing.T) {
	f := newFeedFixture(t, 0)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	f.svc.opts.Location = loc

	doc, appErr := f.svc.ExportOnce(context.Background(), ScopeFilter{Type: ScopeMonth, Year: 2025, Month: time.March})
	require.Nil(t, appErr)
	require.NotNil(t, f.lister.last.From)
	require.NotNil(t, f.lister.last.To)
	assert.Equal(t, time.Date(2025, 3, 1, 5, 0, 0, 0, time.UTC), f.lister.last.From.UTC())
	assert.Equal(t, time.Date(2025, 4, 1, 4, 0, 0, 0, time.UTC), f.lister.last.To.UTC())
	assert.Equal(t, "glee-club-month-2025-03.ics", doc.Filename)
}

func TestExportOnce_AnonymousMonthIsPublicOnly(t *testing.T) {
	f := newFeedFixture(t, 0)

	doc, appErr := f.svc.ExportOnce(context.Background(), ScopeFilter{Type: ScopeMonth, Year: 2025, Month: time.March, PublicOnly: true})
	require.Nil(t, appErr)
	assert.NotContains(t, doc.Body, "Sectional")
	assert.Equal(t, "glee-club-month-2025-03-public.ics", doc.Filename)
}

func TestExportOnce_RangeAllIsUnbounded(t *testing.T) {
	f := newFeedFixture(t, 0)

	_, appErr := f.svc.ExportOnce(context.Background(), ScopeFilter{Type: ScopeRangeAll})
	require.Nil(t, appErr)
	assert.Nil(t, f.lister.last.From)
	assert.Nil(t, f.lister.last.To)
}

func TestSubscription_PrivateWithValidToken(t *testing.T) {
	f := newFeedFixture(t, 0)
	token, appErr := f.tokens.EnsureFeedToken(context.Background(), uuid.New())
	require.Nil(t, appErr)

	doc, appErr := f.svc.Subscription(context.Background(), FeedRequest{Type: ScopePrivate, Token: token})
	require.Nil(t, appErr)
	assert.Contains(t, doc.Body, "Sectional")
	assert.True(t, doc.Private)
	assert.Contains(t, doc.Body, "METHOD:PUBLISH")
	require.NotNil(t, f.lister.last.From)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), f.lister.last.From.UTC())
}

func TestSubscription_PrivateWithBadTokenDowngradesToPublic(t *testing.T) {
	f := newFeedFixture(t, 0)
	ctx := context.Background()

	public, appErr := f.svc.Subscription(ctx, FeedRequest{Type: ScopePublic})
	require.Nil(t, appErr)

	for _, token := range []string{"", "not-a-token"} {
		doc, appErr := f.svc.Subscription(ctx, FeedRequest{Type: ScopePrivate, Token: token})
		require.Nil(t, appErr)
		assert.NotContains(t, doc.Body, "Sectional")
		assert.Equal(t, public.Body, doc.Body)
		assert.True(t, doc.Private)
	}
}

func TestSubscription_EventTypeFilter(t *testing.T) {
	f := newFeedFixture(t, 0)

	doc, appErr := f.svc.Subscription(context.Background(), FeedRequest{Type: ScopePublic, EventType: "performance"})
	require.Nil(t, appErr)
	assert.Equal(t, 1, doc.Events)

	_, appErr = f.svc.Subscription(context.Background(), FeedRequest{Type: ScopePublic, EventType: "karaoke"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestSubscription_ServesFromCache(t *testing.T) {
	f := newFeedFixture(t, 30*time.Second)
	ctx := context.Background()

	first, appErr := f.svc.Subscription(ctx, FeedRequest{Type: ScopePublic})
	require.Nil(t, appErr)
	second, appErr := f.svc.Subscription(ctx, FeedRequest{Type: ScopePublic})
	require.Nil(t, appErr)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, 1, f.lister.calls)
	assert.Equal(t, first.Events, second.Events)

	require.NoError(t, f.svc.Invalidate(ctx))
	_, appErr = f.svc.Subscription(ctx, FeedRequest{Type: ScopePublic})
	require.Nil(t, appErr)
	assert.Equal(t, 2, f.lister.calls)
}

func TestSubscription_CachedCountIgnoresEventMarkersInText(t *testing.T) {
	f := newFeedFixture(t, 30*time.Second)
	ctx := context.Background()
	f.public.Description = strPtr("Program notes\nBEGIN:VEVENT\nBEGIN:VEVENT")
	f.lister.events = []calendarentity.Event{f.public}

	first, appErr := f.svc.Subscription(ctx, FeedRequest{Type: ScopePublic})
	require.Nil(t, appErr)
	second, appErr := f.svc.Subscription(ctx, FeedRequest{Type: ScopePublic})
	require.Nil(t, appErr)

	assert.Equal(t, 1, f.lister.calls)
	assert.Equal(t, 1, first.Events)
	assert.Equal(t, 1, second.Events)
	assert.Equal(t, 1, CountEvents(second.Body))
	assert.Equal(t, 3, strings.Count(second.Body, "BEGIN:VEVENT"))
}

func TestSubscription_CacheSeparatesTokenScope(t *testing.T) {
	f := newFeedFixture(t, 30*time.Second)
	ctx := context.Background()
	token, _ := f.tokens.EnsureFeedToken(ctx, uuid.New())

	_, appErr := f.svc.Subscription(ctx, FeedRequest{Type: ScopePublic})
	require.Nil(t, appErr)
	private, appErr := f.svc.Subscription(ctx, FeedRequest{Type: ScopePrivate, Token: token})
	require.Nil(t, appErr)
	assert.Contains(t, private.Body, "Sectional")
}

func TestFeedURL_IsDeterministic(t *testing.T) {
	f := newFeedFixture(t, 0)

	a := f.svc.FeedURL(ScopePrivate, "rehearsal", "abc123")
	b := f.svc.FeedURL(ScopePrivate, "rehearsal", "abc123")
	assert.Equal(t, a, b)
	assert.Equal(t, "https://glee.test/calendar-feed?event_type=rehearsal&token=abc123&type=private", a)
	assert.Equal(t, "https://glee.test/calendar-feed?type=public", f.svc.FeedURL(ScopePublic, "", "ignored"))
}

func TestPrivateFeedURL_MintsTokenOnce(t *testing.T) {
	f := newFeedFixture(t, 0)
	ctx := context.Background()
	userID := uuid.New()

	first, appErr := f.svc.PrivateFeedURL(ctx, userID, "")
	require.Nil(t, appErr)
	second, appErr := f.svc.PrivateFeedURL(ctx, userID, "")
	require.Nil(t, appErr)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "token=tok-")
}

func TestParseScope(t *testing.T) {
	cases := []struct {
		kind, year, month string
		want              ScopeFilter
		wantErr           bool
	}{
		{kind: "", want: ScopeFilter{Type: ScopePublic}},
		{kind: "all", want: ScopeFilter{Type: ScopeAll}},
		{kind: "rangeAll", want: ScopeFilter{Type: ScopeRangeAll}},
		{kind: "month", year: "2025", month: "3", want: ScopeFilter{Type: ScopeMonth, Year: 2025, Month: time.March}},
		{kind: "month", year: "2025", month: "13", wantErr: true},
		{kind: "month", year: "", month: "3", wantErr: true},
		{kind: "weekly", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseScope(tc.kind, tc.year, tc.month)
		if tc.wantErr {
			assert.Error(t, err, tc.kind)
			continue
		}
		require.NoError(t, err, tc.kind)
		assert.Equal(t, tc.want, got)
	}
}
