package service

import (
	"context"
	"fmt"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/logger"
	"glee-scheduler/modules/calendar/dto"
	"glee-scheduler/modules/calendar/entity"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

const (
	defaultRehearsalTitle    = "Rehearsal"
	defaultRehearsalStart    = "17:00"
	defaultRehearsalDuration = 75
	maxSeriesSpan            = 366 * 24 * time.Hour
)

var defaultRehearsalDays = []string{"MO", "WE", "FR"}

var weekdayCodes = map[string]rrule.Weekday{
	"MO": rrule.MO,
	"TU": rrule.TU,
	"WE": rrule.WE,
	"TH": rrule.TH,
	"FR": rrule.FR,
	"SA": rrule.SA,
	"SU": rrule.SU,
}

// RehearsalOccurrences expands a weekly series into start instants in loc.
func RehearsalOccurrences(req *dto.RecurringRehearsalRequest, loc *time.Location) ([]time.Time, error) {
	startDate, err := time.ParseInLocation(time.DateOnly, req.StartDate, loc)
	if err != nil {
		return nil, fmt.Errorf("start_date must be YYYY-MM-DD")
	}
	endDate, err := time.ParseInLocation(time.DateOnly, req.EndDate, loc)
	if err != nil {
		return nil, fmt.Errorf("end_date must be YYYY-MM-DD")
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end_date must not be before start_date")
	}
	if endDate.Sub(startDate) > maxSeriesSpan {
		return nil, fmt.Errorf("a series may span at most one year")
	}

	startTime := req.StartTime
	if startTime == "" {
		startTime = defaultRehearsalStart
	}
	clockTime, err := time.Parse("15:04", startTime)
	if err != nil {
		return nil, fmt.Errorf("start_time must be HH:MM")
	}

	codes := req.Weekdays
	if len(codes) == 0 {
		codes = defaultRehearsalDays
	}
	days := make([]rrule.Weekday, 0, len(codes))
	for _, code := range codes {
		day, ok := weekdayCodes[strings.ToUpper(strings.TrimSpace(code))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", code)
		}
		days = append(days, day)
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: days,
		Dtstart:   time.Date(startDate.Year(), startDate.Month(), startDate.Day(), clockTime.Hour(), clockTime.Minute(), 0, 0, loc),
		Until:     time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 23, 59, 59, 0, loc),
	})
	if err != nil {
		return nil, err
	}
	return rule.All(), nil
}

// CreateRecurringRehearsals creates one rehearsal per occurrence and stops at the first failed insert.
func (s *eventService) CreateRecurringRehearsals(ctx context.Context, createdBy uuid.UUID, req *dto.RecurringRehearsalRequest) ([]entity.Event, *errors.AppError) {
	occurrences, err := RehearsalOccurrences(req, s.location)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}

	today := s.clock.Now().In(s.location)
	lastDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.location)
	if len(occurrences) > 0 && occurrences[len(occurrences)-1].Before(lastDay) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "The series ends in the past", nil)
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = defaultRehearsalDuration
	}
	if duration < 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "duration_minutes must be positive", nil)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultRehearsalTitle
	}

	created := make([]entity.Event, 0, len(occurrences))
	for _, start := range occurrences {
		end := start.Add(time.Duration(duration) * time.Minute)
		event, appErr := s.CreateEvent(ctx, createdBy, &dto.CreateEventRequest{
			CalendarID:         req.CalendarID,
			Title:              title,
			EventType:          string(entity.EventTypeRehearsal),
			StartAt:            start,
			EndAt:              &end,
			VenueName:          req.VenueName,
			Address:            req.Address,
			AttendanceRequired: true,
			LateArrivalAllowed: req.LateArrivalAllowed,
		})
		if appErr != nil {
			logger.Error("EventService:CreateRecurringRehearsals:Insert", "start_at", start, "created", len(created), "error", appErr)
			return created, errors.NewAppError(appErr.Code,
				fmt.Sprintf("Created %d of %d rehearsals: %s", len(created), len(occurrences), appErr.Message), appErr)
		}
		created = append(created, *event)
	}

	logger.Info("EventService:CreateRecurringRehearsals", "count", len(created), "from", req.StartDate, "to", req.EndDate)
	return created, nil
}
