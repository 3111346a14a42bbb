package service

import (
	"context"
	"testing"
	"time"

	"glee-scheduler/core/clock"
	"glee-scheduler/core/errors"
	"glee-scheduler/modules/calendar/dto"
	"glee-scheduler/modules/calendar/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServices(t *testing.T) (*memoryStore, CalendarService, EventService) {
	t.Helper()
	store := newMemoryStore()
	calendars := NewCalendarService(memoryCalendarRepo{store})
	clk := clock.NewFixed(time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC))
	events := NewEventService(memoryEventRepo{store}, calendars, clk, time.UTC)
	return store, calendars, events
}

func mustCalendar(t *testing.T, svc CalendarService, name string) *entity.Calendar {
	t.Helper()
	cal, appErr := svc.CreateCalendar(context.Background(), &dto.CreateCalendarRequest{Name: name})
	require.Nil(t, appErr)
	return cal
}

func TestCreateCalendar_FirstBecomesDefault(t *testing.T) {
	_, calendars, _ := newServices(t)
	ctx := context.Background()

	first := mustCalendar(t, calendars, "Main")
	second := mustCalendar(t, calendars, "Tour")

	assert.True(t, first.IsDefault)
	assert.False(t, second.IsDefault)
	assert.True(t, second.IsVisible)
	assert.Equal(t, defaultCalendarColor, second.Color)

	def, appErr := calendars.GetDefault(ctx)
	require.Nil(t, appErr)
	assert.Equal(t, first.ID, def.ID)
}

func TestCreateCalendar_Validation(t *testing.T) {
	_, calendars, _ := newServices(t)

	_, appErr := calendars.CreateCalendar(context.Background(), &dto.CreateCalendarRequest{Name: "  "})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)

	_, appErr = calendars.CreateCalendar(context.Background(), &dto.CreateCalendarRequest{Name: "x", Color: "blue"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestDeleteCalendar_DefaultAlwaysRefused(t *testing.T) {
	_, calendars, events := newServices(t)
	ctx := context.Background()
	main := mustCalendar(t, calendars, "Main")

	appErr := calendars.DeleteCalendar(ctx, main.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrIsDefaultCalendar, appErr.Code)

	_, createErr := events.CreateEvent(ctx, uuid.New(), &dto.CreateEventRequest{
		Title: "Concert", EventType: "performance", StartAt: time.Now(),
	})
	require.Nil(t, createErr)

	appErr = calendars.DeleteCalendar(ctx, main.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrIsDefaultCalendar, appErr.Code)
}

func TestDeleteCalendar_InUse(t *testing.T) {
	_, calendars, events := newServices(t)
	ctx := context.Background()
	mustCalendar(t, calendars, "Main")
	tour := mustCalendar(t, calendars, "Tour")

	event, appErr := events.CreateEvent(ctx, uuid.New(), &dto.CreateEventRequest{
		CalendarID: &tour.ID, Title: "Tour stop", EventType: "performance", StartAt: time.Now(),
	})
	require.Nil(t, appErr)

	appErr = calendars.DeleteCalendar(ctx, tour.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCalendarInUse, appErr.Code)

	require.Nil(t, events.DeleteEvent(ctx, event.ID))
	require.Nil(t, calendars.DeleteCalendar(ctx, tour.ID))

	_, appErr = calendars.GetCalendar(ctx, tour.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestDeleteCalendar_Unknown(t *testing.T) {
	_, calendars, _ := newServices(t)
	appErr := calendars.DeleteCalendar(context.Background(), uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestSetDefault_MovesFlag(t *testing.T) {
	store, calendars, _ := newServices(t)
	ctx := context.Background()
	main := mustCalendar(t, calendars, "Main")
	tour := mustCalendar(t, calendars, "Tour")

	require.Nil(t, calendars.SetDefault(ctx, tour.ID))

	defaults := 0
	for _, c := range store.calendars {
		if c.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)

	require.Nil(t, calendars.DeleteCalendar(ctx, main.ID))
	appErr := calendars.DeleteCalendar(ctx, tour.ID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrIsDefaultCalendar, appErr.Code)
}

func TestSetVisibility_HidesFromListing(t *testing.T) {
	_, calendars, _ := newServices(t)
	ctx := context.Background()
	mustCalendar(t, calendars, "Main")
	board := mustCalendar(t, calendars, "Board")

	require.Nil(t, calendars.SetVisibility(ctx, board.ID, false))

	visible, appErr := calendars.ListCalendars(ctx, false)
	require.Nil(t, appErr)
	assert.Len(t, visible, 1)

	all, appErr := calendars.ListCalendars(ctx, true)
	require.Nil(t, appErr)
	assert.Len(t, all, 2)

	appErr = calendars.SetVisibility(ctx, uuid.New(), true)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestFindMeetingCalendar(t *testing.T) {
	_, calendars, _ := newServices(t)
	ctx := context.Background()
	main := mustCalendar(t, calendars, "Main")

	cal, appErr := calendars.FindMeetingCalendar(ctx)
	require.Nil(t, appErr)
	assert.Equal(t, main.ID, cal.ID)

	exec := mustCalendar(t, calendars, "Executive Board")
	cal, appErr = calendars.FindMeetingCalendar(ctx)
	require.Nil(t, appErr)
	assert.Equal(t, exec.ID, cal.ID)
}
