package service

import (
	"context"
	"fmt"
	"glee-scheduler/core/clock"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/database"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/logger"
	"glee-scheduler/modules/calendar/dto"
	"glee-scheduler/modules/calendar/entity"
	"glee-scheduler/modules/calendar/repository"
	"glee-scheduler/modules/calendar/visibility"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventService interface {
	CreateEvent(ctx context.Context, createdBy uuid.UUID, req *dto.CreateEventRequest) (*entity.Event, *errors.AppError)
	GetEvent(ctx context.Context, id uuid.UUID) (*entity.Event, *errors.AppError)
	UpdateEvent(ctx context.Context, id uuid.UUID, req *dto.UpdateEventRequest) (*entity.Event, *errors.AppError)
	DeleteEvent(ctx context.Context, id uuid.UUID) *errors.AppError
	ListVisibleEvents(ctx context.Context, query dto.EventListQuery) ([]entity.Event, *errors.AppError)
	CreateRecurringRehearsals(ctx context.Context, createdBy uuid.UUID, req *dto.RecurringRehearsalRequest) ([]entity.Event, *errors.AppError)
	ImportEvents(ctx context.Context, createdBy uuid.UUID, calendarID uuid.UUID, document io.Reader) (*dto.ImportResult, *errors.AppError)
}

type eventService struct {
	repo      repository.EventRepository
	calendars CalendarService
	clock     clock.Clock
	location  *time.Location
}

func NewEventService(repo repository.EventRepository, calendars CalendarService, clk clock.Clock, location *time.Location) EventService {
	if location == nil {
		location = time.UTC
	}
	return &eventService{
		repo:      repo,
		calendars: calendars,
		clock:     clk,
		location:  location,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, createdBy uuid.UUID, req *dto.CreateEventRequest) (*entity.Event, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	calendarID, appErr := s.resolveCalendar(ctx, req.CalendarID)
	if appErr != nil {
		return nil, appErr
	}

	status := entity.EventStatus(req.Status)
	if status == "" {
		status = entity.EventStatusScheduled
	}

	event := &entity.Event{
		CalendarID:           calendarID,
		Title:                strings.TrimSpace(req.Title),
		Description:          req.Description,
		EventType:            entity.EventType(req.EventType),
		StartAt:              instant(req.StartAt),
		EndAt:                utcPtr(req.EndAt),
		VenueName:            req.VenueName,
		Address:              req.Address,
		IsPublic:             req.IsPublic,
		MaxAttendees:         req.MaxAttendees,
		RegistrationRequired: req.RegistrationRequired,
		Status:               status,
		AttendanceRequired:   req.AttendanceRequired,
		AttendanceDeadline:   utcPtr(req.AttendanceDeadline),
		LateArrivalAllowed:   req.LateArrivalAllowed,
		ExcuseRequired:       req.ExcuseRequired,
		ImageRef:             req.ImageRef,
	}
	if createdBy != uuid.Nil {
		event.CreatedBy = &createdBy
	}
	applyDefaultDeadline(event)

	if appErr := validateEvent(event); appErr != nil {
		return nil, appErr
	}
	return s.insert(ctx, event)
}

func (s *eventService) insert(ctx context.Context, event *entity.Event) (*entity.Event, *errors.AppError) {
	var created *entity.Event
	err := database.Retry(ctx, constants.PrimaryWriteAttempts, constants.PrimaryWriteBaseDelay, func() error {
		var err error
		created, err = s.repo.Create(ctx, event)
		return err
	})
	if err != nil {
		if database.IsTransient(err) {
			return nil, errors.NewAppError(errors.ErrTransient, "Event store temporarily unavailable", err)
		}
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to create event", err)
	}

	logger.Info("EventService:CreateEvent", "id", created.ID, "calendar_id", created.CalendarID, "type", created.EventType)
	return created, nil
}

func (s *eventService) GetEvent(ctx context.Context, id uuid.UUID) (*entity.Event, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to load event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id uuid.UUID, req *dto.UpdateEventRequest) (*entity.Event, *errors.AppError) {
	event, appErr := s.GetEvent(ctx, id)
	if appErr != nil {
		return nil, appErr
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	if req.CalendarID != nil {
		if _, appErr := s.calendars.GetCalendar(ctx, *req.CalendarID); appErr != nil {
			return nil, appErr
		}
		event.CalendarID = *req.CalendarID
	}
	if req.StartAt != nil {
		derived := event.AttendanceDeadline != nil &&
			event.AttendanceDeadline.Equal(event.StartAt.Add(entity.DefaultDeadlineOffset))
		event.StartAt = instant(*req.StartAt)
		if derived && req.AttendanceDeadline == nil {
			deadline := event.StartAt.Add(entity.DefaultDeadlineOffset)
			event.AttendanceDeadline = &deadline
		}
	}
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = req.Description
	}
	if req.EventType != nil {
		event.EventType = entity.EventType(*req.EventType)
	}
	if req.EndAt != nil {
		event.EndAt = utcPtr(req.EndAt)
	}
	if req.VenueName != nil {
		event.VenueName = req.VenueName
	}
	if req.Address != nil {
		event.Address = req.Address
	}
	if req.IsPublic != nil {
		event.IsPublic = *req.IsPublic
	}
	if req.MaxAttendees != nil {
		event.MaxAttendees = req.MaxAttendees
	}
	if req.RegistrationRequired != nil {
		event.RegistrationRequired = *req.RegistrationRequired
	}
	if req.Status != nil {
		event.Status = entity.EventStatus(*req.Status)
	}
	if req.AttendanceRequired != nil {
		event.AttendanceRequired = *req.AttendanceRequired
	}
	if req.AttendanceDeadline != nil {
		event.AttendanceDeadline = utcPtr(req.AttendanceDeadline)
	}
	if req.LateArrivalAllowed != nil {
		event.LateArrivalAllowed = *req.LateArrivalAllowed
	}
	if req.ExcuseRequired != nil {
		event.ExcuseRequired = *req.ExcuseRequired
	}
	if req.ImageRef != nil {
		event.ImageRef = req.ImageRef
	}
	applyDefaultDeadline(event)

	if appErr := validateEvent(event); appErr != nil {
		return nil, appErr
	}
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update event", err)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id uuid.UUID) *errors.AppError {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return errors.NewAppError(errors.ErrDeleteFailed, "Failed to delete event", err)
	}
	if !deleted {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	logger.Info("EventService:DeleteEvent", "id", id)
	return nil
}

// ListVisibleEvents loads the requested window and runs it through the visibility filter.
func (s *eventService) ListVisibleEvents(ctx context.Context, query dto.EventListQuery) ([]entity.Event, *errors.AppError) {
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "'to' must not be before 'from'", nil)
	}
	if query.EventType != nil && !query.EventType.Valid() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Unknown event type", nil)
	}

	calendars, appErr := s.calendars.ListCalendars(ctx, true)
	if appErr != nil {
		return nil, appErr
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	events, err := s.repo.List(ctx, entity.EventQuery{
		From:        query.From,
		To:          query.To,
		CalendarIDs: query.CalendarIDs,
		EventType:   query.EventType,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to list events", err)
	}

	return visibility.VisibleEvents(events, calendars, query.CalendarIDs, query.IsPublicView), nil
}

// ImportEvents copies the VEVENTs of an iCalendar document into calendarID.
func (s *eventService) ImportEvents(ctx context.Context, createdBy uuid.UUID, calendarID uuid.UUID, document io.Reader) (*dto.ImportResult, *errors.AppError) {
	if _, appErr := s.calendars.GetCalendar(ctx, calendarID); appErr != nil {
		return nil, appErr
	}

	parsed, err := ParseICS(document)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid iCalendar document", err)
	}

	result := &dto.ImportResult{Events: []entity.Event{}}
	for _, item := range parsed {
		if item.Summary == "" || item.StartAt.IsZero() {
			result.Skipped++
			continue
		}

		req := &dto.CreateEventRequest{
			CalendarID: &calendarID,
			Title:      item.Summary,
			EventType:  string(entity.EventTypeOther),
			StartAt:    item.StartAt,
			EndAt:      item.EndAt,
		}
		if item.Description != "" {
			req.Description = &item.Description
		}
		if item.Location != "" {
			req.VenueName = &item.Location
		}

		created, appErr := s.CreateEvent(ctx, createdBy, req)
		if appErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", item.Summary, appErr.Message))
			continue
		}
		result.Imported++
		result.Events = append(result.Events, *created)
	}

	logger.Info("EventService:ImportEvents", "calendar_id", calendarID, "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

func (s *eventService) resolveCalendar(ctx context.Context, requested *uuid.UUID) (uuid.UUID, *errors.AppError) {
	if requested == nil || *requested == uuid.Nil {
		cal, appErr := s.calendars.GetDefault(ctx)
		if appErr != nil {
			return uuid.Nil, appErr
		}
		return cal.ID, nil
	}
	cal, appErr := s.calendars.GetCalendar(ctx, *requested)
	if appErr != nil {
		return uuid.Nil, appErr
	}
	return cal.ID, nil
}

func applyDefaultDeadline(event *entity.Event) {
	if event.AttendanceRequired && event.AttendanceDeadline == nil {
		deadline := event.StartAt.Add(entity.DefaultDeadlineOffset)
		event.AttendanceDeadline = &deadline
	}
}

func validateEvent(event *entity.Event) *errors.AppError {
	switch {
	case event.Title == "":
		return errors.NewAppError(errors.ErrInvalidInput, "Event title is required", nil)
	case !event.EventType.Valid():
		return errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("Unknown event type %q", event.EventType), nil)
	case !event.Status.Valid():
		return errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("Unknown event status %q", event.Status), nil)
	case event.StartAt.IsZero():
		return errors.NewAppError(errors.ErrInvalidInput, "Event start time is required", nil)
	case event.EndAt != nil && event.EndAt.Before(event.StartAt):
		return errors.NewAppError(errors.ErrInvalidInput, "Event end must not be before its start", nil)
	case event.MaxAttendees != nil && *event.MaxAttendees < 1:
		return errors.NewAppError(errors.ErrInvalidInput, "max_attendees must be at least 1", nil)
	}
	return nil
}

// instant stores times in UTC at whole-second precision, the resolution of ICS DATE-TIME.
func instant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := instant(*t)
	return &u
}
