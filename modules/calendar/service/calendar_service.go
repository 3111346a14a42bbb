package service

import (
	"context"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/logger"
	"glee-scheduler/modules/calendar/dto"
	"glee-scheduler/modules/calendar/entity"
	"glee-scheduler/modules/calendar/repository"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const defaultCalendarColor = "#3B82F6"

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type CalendarService interface {
	CreateCalendar(ctx context.Context, req *dto.CreateCalendarRequest) (*entity.Calendar, *errors.AppError)
	UpdateCalendar(ctx context.Context, id uuid.UUID, req *dto.UpdateCalendarRequest) (*entity.Calendar, *errors.AppError)
	DeleteCalendar(ctx context.Context, id uuid.UUID) *errors.AppError
	SetVisibility(ctx context.Context, id uuid.UUID, visible bool) *errors.AppError
	SetDefault(ctx context.Context, id uuid.UUID) *errors.AppError
	GetDefault(ctx context.Context) (*entity.Calendar, *errors.AppError)
	GetCalendar(ctx context.Context, id uuid.UUID) (*entity.Calendar, *errors.AppError)
	ListCalendars(ctx context.Context, includeHidden bool) ([]entity.Calendar, *errors.AppError)
	FindMeetingCalendar(ctx context.Context) (*entity.Calendar, *errors.AppError)
}

type calendarService struct {
	repo repository.CalendarRepository
}

func NewCalendarService(repo repository.CalendarRepository) CalendarService {
	return &calendarService{repo: repo}
}

func (s *calendarService) CreateCalendar(ctx context.Context, req *dto.CreateCalendarRequest) (*entity.Calendar, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Calendar name is required", nil)
	}
	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = defaultCalendarColor
	}
	if !colorPattern.MatchString(color) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Color must be a hex value like #3B82F6", nil)
	}

	cal := &entity.Calendar{
		Name:        name,
		Color:       color,
		Description: req.Description,
		IsVisible:   true,
	}
	if req.IsVisible != nil {
		cal.IsVisible = *req.IsVisible
	}

	created, err := s.repo.Create(ctx, cal)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to create calendar", err)
	}

	logger.Info("CalendarService:CreateCalendar", "id", created.ID, "name", created.Name, "is_default", created.IsDefault)
	return created, nil
}

func (s *calendarService) UpdateCalendar(ctx context.Context, id uuid.UUID, req *dto.UpdateCalendarRequest) (*entity.Calendar, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	cal, appErr := s.getCalendar(ctx, id)
	if appErr != nil {
		return nil, appErr
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Calendar name is required", nil)
		}
		cal.Name = name
	}
	if req.Color != nil {
		if !colorPattern.MatchString(*req.Color) {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Color must be a hex value like #3B82F6", nil)
		}
		cal.Color = *req.Color
	}
	if req.Description != nil {
		cal.Description = req.Description
	}

	if err := s.repo.Update(ctx, cal); err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update calendar", err)
	}
	return cal, nil
}

// DeleteCalendar refuses the default calendar unconditionally and any calendar still referenced by events.
func (s *calendarService) DeleteCalendar(ctx context.Context, id uuid.UUID) *errors.AppError {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	cal, appErr := s.getCalendar(ctx, id)
	if appErr != nil {
		return appErr
	}
	if cal.IsDefault {
		return errors.NewAppError(errors.ErrIsDefaultCalendar, "The default calendar cannot be deleted", nil)
	}

	count, err := s.repo.CountEvents(ctx, id)
	if err != nil {
		return errors.NewAppError(errors.ErrGetFailed, "Failed to check calendar events", err)
	}
	if count > 0 {
		return errors.NewAppError(errors.ErrCalendarInUse, "Calendar still has events; move them to another calendar first", nil)
	}

	deleted, err := s.repo.DeleteIfUnused(ctx, id)
	if err != nil {
		return errors.NewAppError(errors.ErrDeleteFailed, "Failed to delete calendar", err)
	}
	if !deleted {
		// lost a race with an event insert or a default switch
		current, _ := s.repo.GetByID(ctx, id)
		if current != nil && current.IsDefault {
			return errors.NewAppError(errors.ErrIsDefaultCalendar, "The default calendar cannot be deleted", nil)
		}
		if current == nil {
			return errors.NewAppError(errors.ErrNotFound, "Calendar not found", nil)
		}
		return errors.NewAppError(errors.ErrCalendarInUse, "Calendar still has events; move them to another calendar first", nil)
	}

	logger.Info("CalendarService:DeleteCalendar", "id", id, "name", cal.Name)
	return nil
}

func (s *calendarService) SetVisibility(ctx context.Context, id uuid.UUID, visible bool) *errors.AppError {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	found, err := s.repo.SetVisibility(ctx, id, visible)
	if err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "Failed to update calendar visibility", err)
	}
	if !found {
		return errors.NewAppError(errors.ErrNotFound, "Calendar not found", nil)
	}
	return nil
}

func (s *calendarService) SetDefault(ctx context.Context, id uuid.UUID) *errors.AppError {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	found, err := s.repo.SetDefault(ctx, id)
	if err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "Failed to change default calendar", err)
	}
	if !found {
		return errors.NewAppError(errors.ErrNotFound, "Calendar not found", nil)
	}
	logger.Info("CalendarService:SetDefault", "id", id)
	return nil
}

func (s *calendarService) GetDefault(ctx context.Context) (*entity.Calendar, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	cal, err := s.repo.GetDefault(ctx)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to load default calendar", err)
	}
	if cal == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "No default calendar configured", nil)
	}
	return cal, nil
}

func (s *calendarService) GetCalendar(ctx context.Context, id uuid.UUID) (*entity.Calendar, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()
	return s.getCalendar(ctx, id)
}

func (s *calendarService) ListCalendars(ctx context.Context, includeHidden bool) ([]entity.Calendar, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	cals, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to list calendars", err)
	}
	if includeHidden {
		return cals, nil
	}

	visible := make([]entity.Calendar, 0, len(cals))
	for _, cal := range cals {
		if cal.IsVisible {
			visible = append(visible, cal)
		}
	}
	return visible, nil
}

// FindMeetingCalendar prefers a visible "executive" calendar and falls back to the default.
func (s *calendarService) FindMeetingCalendar(ctx context.Context) (*entity.Calendar, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	cal, err := s.repo.FindByNameLike(ctx, "%executive%")
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to locate meeting calendar", err)
	}
	if cal != nil {
		return cal, nil
	}
	return s.GetDefault(ctx)
}

func (s *calendarService) getCalendar(ctx context.Context, id uuid.UUID) (*entity.Calendar, *errors.AppError) {
	cal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to load calendar", err)
	}
	if cal == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Calendar not found", nil)
	}
	return cal, nil
}
