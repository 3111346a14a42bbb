package service

import (
	"context"
	"fmt"
	"glee-scheduler/core/clock"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/database"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/logger"
	"glee-scheduler/core/params"
	"glee-scheduler/core/queue"
	"glee-scheduler/modules/appointment/dto"
	"glee-scheduler/modules/appointment/entity"
	"glee-scheduler/modules/appointment/repository"
	calendardto "glee-scheduler/modules/calendar/dto"
	calendarentity "glee-scheduler/modules/calendar/entity"
	directoryentity "glee-scheduler/modules/directory/entity"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxParallelInserts = 4

// EventStore is the part of the calendar store the scheduler needs.
type EventStore interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*calendarentity.Event, *errors.AppError)
	CreateEvent(ctx context.Context, createdBy uuid.UUID, req *calendardto.CreateEventRequest) (*calendarentity.Event, *errors.AppError)
}

type MeetingCalendarFinder interface {
	FindMeetingCalendar(ctx context.Context) (*calendarentity.Calendar, *errors.AppError)
}

type Directory interface {
	LookupProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]directoryentity.Profile, *errors.AppError)
	ListExecBoard(ctx context.Context) ([]directoryentity.Profile, *errors.AppError)
}

type AppointmentServiceInterface interface {
	ScheduleTeamAppointments(ctx context.Context, organizerID, eventID uuid.UUID, req *dto.ScheduleRequest) (*dto.ScheduleResult, *errors.AppError)
	CallMeeting(ctx context.Context, organizerID uuid.UUID, req *dto.CallMeetingRequest) (*dto.CallMeetingResult, *errors.AppError)
	ListAppointments(ctx context.Context, query dto.AppointmentListQuery, page params.QueryParams) ([]entity.Appointment, int, *errors.AppError)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) (*entity.Appointment, *errors.AppError)

	AddTeamMember(ctx context.Context, eventID uuid.UUID, req *dto.AddTeamMemberRequest) (*entity.EventTeamMember, *errors.AppError)
	ListTeamMembers(ctx context.Context, eventID uuid.UUID) ([]entity.EventTeamMember, *errors.AppError)
	RemoveTeamMember(ctx context.Context, eventID, userID uuid.UUID) *errors.AppError
}

type AppointmentService struct {
	repo       repository.AppointmentRepositoryInterface
	events     EventStore
	calendars  MeetingCalendarFinder
	directory  Directory
	dispatcher queue.Dispatcher
	stagger    *Stagger
	clock      clock.Clock
	location   *time.Location
}

func NewAppointmentService(
	repo repository.AppointmentRepositoryInterface,
	events EventStore,
	calendars MeetingCalendarFinder,
	directory Directory,
	dispatcher queue.Dispatcher,
	clk clock.Clock,
	location *time.Location,
) *AppointmentService {
	if location == nil {
		location = time.UTC
	}
	return &AppointmentService{
		repo:       repo,
		events:     events,
		calendars:  calendars,
		directory:  directory,
		dispatcher: dispatcher,
		stagger:    NewStagger(),
		clock:      clk,
		location:   location,
	}
}

// ScheduleTeamAppointments gives every roster member a staggered planning slot for the event.
// Inserts are independent: one failure is reported for that participant and the rest proceed.
func (s *AppointmentService) ScheduleTeamAppointments(ctx context.Context, organizerID, eventID uuid.UUID, req *dto.ScheduleRequest) (*dto.ScheduleResult, *errors.AppError) {
	if req.PerSlotMinutes <= 0 || req.PerSlotMinutes > constants.MaxSlotMinutes {
		return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("per_slot_minutes must be between 1 and %d", constants.MaxSlotMinutes), nil)
	}
	anchor, err := ParseAnchor(req.AnchorDate, req.AnchorTime, s.location)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "anchor_date must be YYYY-MM-DD and anchor_time HH:MM", err)
	}

	event, appErr := s.events.GetEvent(ctx, eventID)
	if appErr != nil {
		return nil, appErr
	}

	roster := req.Roster
	if len(roster) == 0 {
		members, err := s.repo.ListTeamMembers(ctx, eventID)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to load team members", err)
		}
		for _, m := range members {
			roster = append(roster, dto.ParticipantRef{UserID: m.UserID, RoleLabel: m.RoleLabel})
		}
	}
	roster = dedupeRoster(roster)

	result := &dto.ScheduleResult{
		EventID:   eventID,
		Requested: len(roster),
		Results:   []dto.ParticipantResult{},
	}
	if len(roster) == 0 {
		return result, nil
	}

	slots, err := s.stagger.Plan(anchor, req.PerSlotMinutes, len(roster))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}

	result.Results = make([]dto.ParticipantResult, len(roster))
	for i, ref := range roster {
		result.Results[i] = dto.ParticipantResult{
			UserID: ref.UserID,
			Start:  slots[i].Start.UTC(),
			End:    slots[i].End.UTC(),
		}
	}

	ids := make([]uuid.UUID, len(roster))
	for i, ref := range roster {
		ids[i] = ref.UserID
	}
	profiles, appErr := s.directory.LookupProfiles(ctx, ids)
	if appErr != nil {
		logger.Error("AppointmentService:ScheduleTeamAppointments:LookupProfiles", "event_id", eventID, "error", appErr)
		for i := range result.Results {
			result.Results[i].Error = "directory unavailable"
		}
		result.Failed = len(roster)
		return result, nil
	}

	appointmentType := strings.TrimSpace(req.AppointmentType)
	if appointmentType == "" {
		appointmentType = entity.AppointmentTypePlanning
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelInserts)
	for i := range roster {
		res := &result.Results[i]
		profile, ok := profiles[roster[i].UserID]
		if !ok {
			res.Error = "participant not found"
			continue
		}
		res.Name = profile.DisplayName()

		appointment := newPlanningAppointment(event, profile, roster[i], slots[i], req.PerSlotMinutes, appointmentType, organizerID)
		g.Go(func() error {
			var created *entity.Appointment
			err := database.Retry(gctx, constants.PrimaryWriteAttempts, constants.PrimaryWriteBaseDelay, func() error {
				var insertErr error
				created, insertErr = s.repo.CreateAppointment(gctx, appointment)
				return insertErr
			})
			if err != nil {
				logger.Error("AppointmentService:ScheduleTeamAppointments:Insert", "event_id", eventID, "user_id", res.UserID, "error", err)
				res.Error = "failed to create appointment"
				return nil
			}
			res.Success = true
			res.Appointment = created
			s.notify(gctx, queue.NotificationPayload{
				UserID:  res.UserID,
				Title:   "Planning appointment scheduled",
				Message: fmt.Sprintf("%s at %s", created.Title, created.ScheduledAt.In(s.location).Format("Mon Jan 2 15:04")),
				Type:    "appointment",
				Data:    map[string]any{"appointment_id": created.ID, "event_id": eventID},
			})
			return nil
		})
	}
	// Workers never return an error; failures are recorded per participant.
	_ = g.Wait()

	for _, res := range result.Results {
		if res.Success {
			result.Created++
		} else {
			result.Failed++
		}
	}

	logger.Info("AppointmentService:ScheduleTeamAppointments:Done",
		"event_id", eventID,
		"requested", result.Requested,
		"created", result.Created,
		"failed", result.Failed,
	)
	return result, nil
}

func newPlanningAppointment(event *calendarentity.Event, profile directoryentity.Profile, ref dto.ParticipantRef, slot Slot, minutes int, appointmentType string, organizerID uuid.UUID) *entity.Appointment {
	eventID := event.ID
	participantID := profile.ID
	description := fmt.Sprintf("Planning session for %s", event.Title)
	if ref.RoleLabel != "" {
		description += " (" + ref.RoleLabel + ")"
	}
	return &entity.Appointment{
		EventID:          &eventID,
		ParticipantID:    &participantID,
		Title:            fmt.Sprintf("%s planning: %s", event.Title, profile.DisplayName()),
		Description:      description,
		ParticipantName:  profile.DisplayName(),
		ParticipantEmail: profile.Email,
		ParticipantPhone: profile.Phone,
		ScheduledAt:      slot.Start.UTC(),
		DurationMinutes:  minutes,
		AppointmentType:  appointmentType,
		Status:           entity.AppointmentStatusScheduled,
		CreatedBy:        organizerID,
		AssignedTo:       organizerID,
	}
}

// dedupeRoster keeps the first occurrence of each user and preserves insertion order.
func dedupeRoster(roster []dto.ParticipantRef) []dto.ParticipantRef {
	seen := make(map[uuid.UUID]bool, len(roster))
	out := make([]dto.ParticipantRef, 0, len(roster))
	for _, ref := range roster {
		if ref.UserID == uuid.Nil || seen[ref.UserID] {
			continue
		}
		seen[ref.UserID] = true
		out = append(out, ref)
	}
	return out
}

// CallMeeting creates a private exec meeting in the meeting calendar and notifies the attendees.
func (s *AppointmentService) CallMeeting(ctx context.Context, organizerID uuid.UUID, req *dto.CallMeetingRequest) (*dto.CallMeetingResult, *errors.AppError) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Title is required", nil)
	}
	if req.StartAt.IsZero() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "start_at is required", nil)
	}
	if req.DurationMinutes <= 0 || req.DurationMinutes > constants.MaxSlotMinutes {
		return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("duration_minutes must be between 1 and %d", constants.MaxSlotMinutes), nil)
	}

	attendees := req.AttendeeIDs
	if len(attendees) == 0 {
		board, appErr := s.directory.ListExecBoard(ctx)
		if appErr != nil {
			return nil, appErr
		}
		for _, p := range board {
			attendees = append(attendees, p.ID)
		}
	}
	attendees = dedupeIDs(attendees)

	meetingCalendar, appErr := s.calendars.FindMeetingCalendar(ctx)
	if appErr != nil {
		return nil, appErr
	}

	endAt := req.StartAt.Add(time.Duration(req.DurationMinutes) * time.Minute)
	event, appErr := s.events.CreateEvent(ctx, organizerID, &calendardto.CreateEventRequest{
		CalendarID:         &meetingCalendar.ID,
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		EventType:          string(calendarentity.EventTypeExecMeeting),
		StartAt:            req.StartAt,
		EndAt:              &endAt,
		VenueName:          req.Venue,
		IsPublic:           false,
		Status:             string(calendarentity.EventStatusScheduled),
		AttendanceRequired: true,
	})
	if appErr != nil {
		return nil, appErr
	}

	result := &dto.CallMeetingResult{EventID: event.ID, Attendees: []uuid.UUID{}}
	for _, userID := range attendees {
		member := &entity.EventTeamMember{EventID: event.ID, UserID: userID, RoleLabel: entity.RoleLabelAttendee}
		if err := s.repo.AddTeamMember(ctx, member); err != nil {
			logger.Error("AppointmentService:CallMeeting:AddTeamMember", "event_id", event.ID, "user_id", userID, "error", err)
			continue
		}
		result.Attendees = append(result.Attendees, userID)

		if s.notify(ctx, queue.NotificationPayload{
			UserID:  userID,
			Title:   "Executive meeting called",
			Message: fmt.Sprintf("%s on %s", event.Title, event.StartAt.In(s.location).Format("Mon Jan 2 15:04")),
			Type:    "meeting",
			Data:    map[string]any{"event_id": event.ID},
		}) {
			result.Notified++
		}
	}

	logger.Info("AppointmentService:CallMeeting:Done", "event_id", event.ID, "attendees", len(result.Attendees), "notified", result.Notified)
	return result, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// notify enqueues a notification; a failure is logged and never undoes the primary write.
func (s *AppointmentService) notify(ctx context.Context, payload queue.NotificationPayload) bool {
	if s.dispatcher == nil {
		return false
	}
	if err := s.dispatcher.EnqueueNotification(ctx, payload); err != nil {
		logger.Warn("AppointmentService:notify", "user_id", payload.UserID, "type", payload.Type, "error", err)
		return false
	}
	return true
}

func (s *AppointmentService) ListAppointments(ctx context.Context, query dto.AppointmentListQuery, page params.QueryParams) ([]entity.Appointment, int, *errors.AppError) {
	filter := entity.AppointmentFilter{Status: query.Status}
	if query.Day != nil {
		day := *query.Day
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.location)
		end := start.AddDate(0, 0, 1)
		filter.DayStart = &start
		filter.DayEnd = &end
	}

	appointments, total, err := s.repo.ListAppointments(ctx, filter, page)
	if err != nil {
		return nil, 0, errors.NewAppError(errors.ErrGetFailed, "Failed to list appointments", err)
	}
	if appointments == nil {
		appointments = []entity.Appointment{}
	}
	return appointments, total, nil
}

func (s *AppointmentService) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) (*entity.Appointment, *errors.AppError) {
	next := entity.AppointmentStatus(status)
	if !next.Valid() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "status must be scheduled, confirmed or cancelled", nil)
	}

	found, err := s.repo.UpdateAppointmentStatus(ctx, id, next)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update appointment", err)
	}
	if !found {
		return nil, errors.NewAppError(errors.ErrNotFound, "Appointment not found", nil)
	}

	appointment, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil || appointment == nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to load appointment", err)
	}
	return appointment, nil
}

// ===================== Team members =====================

func (s *AppointmentService) AddTeamMember(ctx context.Context, eventID uuid.UUID, req *dto.AddTeamMemberRequest) (*entity.EventTeamMember, *errors.AppError) {
	if req.UserID == uuid.Nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "user_id is required", nil)
	}
	if _, appErr := s.events.GetEvent(ctx, eventID); appErr != nil {
		return nil, appErr
	}

	member := &entity.EventTeamMember{
		EventID:   eventID,
		UserID:    req.UserID,
		RoleLabel: strings.TrimSpace(req.RoleLabel),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.AddTeamMember(ctx, member); err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to add team member", err)
	}
	return member, nil
}

func (s *AppointmentService) ListTeamMembers(ctx context.Context, eventID uuid.UUID) ([]entity.EventTeamMember, *errors.AppError) {
	members, err := s.repo.ListTeamMembers(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to list team members", err)
	}
	if members == nil {
		members = []entity.EventTeamMember{}
	}
	return members, nil
}

func (s *AppointmentService) RemoveTeamMember(ctx context.Context, eventID, userID uuid.UUID) *errors.AppError {
	found, err := s.repo.RemoveTeamMember(ctx, eventID, userID)
	if err != nil {
		return errors.NewAppError(errors.ErrDeleteFailed, "Failed to remove team member", err)
	}
	if !found {
		return errors.NewAppError(errors.ErrNotFound, "Team member not found", nil)
	}
	return nil
}
