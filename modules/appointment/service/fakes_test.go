package service

import (
	"context"
	stdErrors "errors"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/params"
	"glee-scheduler/core/queue"
	"glee-scheduler/modules/appointment/entity"
	calendardto "glee-scheduler/modules/calendar/dto"
	calendarentity "glee-scheduler/modules/calendar/entity"
	directoryentity "glee-scheduler/modules/directory/entity"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryAppointmentRepo struct {
	mu           sync.Mutex
	appointments []entity.Appointment
	members      []entity.EventTeamMember
	// failFor maps a participant email to the errors returned by successive inserts.
	failFor map[string][]error
	// lostAck maps a participant email to errors returned after the insert is stored.
	lostAck map[string][]error
}

func newMemoryAppointmentRepo() *memoryAppointmentRepo {
	return &memoryAppointmentRepo{failFor: map[string][]error{}, lostAck: map[string][]error{}}
}

func (r *memoryAppointmentRepo) CreateAppointment(ctx context.Context, a *entity.Appointment) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if errs := r.failFor[a.ParticipantEmail]; len(errs) > 0 {
		r.failFor[a.ParticipantEmail] = errs[1:]
		return nil, errs[0]
	}
	created, ok := r.sameSlot(a)
	if !ok {
		created = *a
		created.ID = uuid.New()
		created.CreatedAt = time.Now()
		created.UpdatedAt = created.CreatedAt
		r.appointments = append(r.appointments, created)
	}
	if errs := r.lostAck[a.ParticipantEmail]; len(errs) > 0 {
		r.lostAck[a.ParticipantEmail] = errs[1:]
		return nil, errs[0]
	}
	return &created, nil
}

// sameSlot mirrors the unique (event_id, participant_id, scheduled_at) key.
func (r *memoryAppointmentRepo) sameSlot(a *entity.Appointment) (entity.Appointment, bool) {
	if a.EventID == nil || a.ParticipantID == nil {
		return entity.Appointment{}, false
	}
	for _, existing := range r.appointments {
		if existing.EventID != nil && *existing.EventID == *a.EventID &&
			existing.ParticipantID != nil && *existing.ParticipantID == *a.ParticipantID &&
			existing.ScheduledAt.Equal(a.ScheduledAt) {
			return existing, true
		}
	}
	return entity.Appointment{}, false
}

func (r *memoryAppointmentRepo) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (r *memoryAppointmentRepo) ListAppointments(ctx context.Context, filter entity.AppointmentFilter, page params.QueryParams) ([]entity.Appointment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.DayStart != nil && a.ScheduledAt.Before(*filter.DayStart) {
			continue
		}
		if filter.DayEnd != nil && !a.ScheduledAt.Before(*filter.DayEnd) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, len(out), nil
}

func (r *memoryAppointmentRepo) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status entity.AppointmentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.appointments {
		if r.appointments[i].ID == id {
			r.appointments[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryAppointmentRepo) AddTeamMember(ctx context.Context, member *entity.EventTeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.members {
		if r.members[i].EventID == member.EventID && r.members[i].UserID == member.UserID {
			r.members[i].RoleLabel = member.RoleLabel
			return nil
		}
	}
	r.members = append(r.members, *member)
	return nil
}

func (r *memoryAppointmentRepo) ListTeamMembers(ctx context.Context, eventID uuid.UUID) ([]entity.EventTeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.EventTeamMember
	for _, m := range r.members {
		if m.EventID == eventID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryAppointmentRepo) RemoveTeamMember(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members {
		if m.EventID == eventID && m.UserID == userID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeEvents struct {
	events  map[uuid.UUID]*calendarentity.Event
	created []calendardto.CreateEventRequest
}

func newFakeEvents(events ...*calendarentity.Event) *fakeEvents {
	f := &fakeEvents{events: map[uuid.UUID]*calendarentity.Event{}}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeEvents) GetEvent(ctx context.Context, id uuid.UUID) (*calendarentity.Event, *errors.AppError) {
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
}

func (f *fakeEvents) CreateEvent(ctx context.Context, createdBy uuid.UUID, req *calendardto.CreateEventRequest) (*calendarentity.Event, *errors.AppError) {
	f.created = append(f.created, *req)
	event := &calendarentity.Event{
		ID:                 uuid.New(),
		CalendarID:         *req.CalendarID,
		Title:              req.Title,
		EventType:          calendarentity.EventType(req.EventType),
		StartAt:            req.StartAt,
		EndAt:              req.EndAt,
		IsPublic:           req.IsPublic,
		AttendanceRequired: req.AttendanceRequired,
		Status:             calendarentity.EventStatus(req.Status),
		CreatedBy:          &createdBy,
	}
	f.events[event.ID] = event
	return event, nil
}

type fakeCalendars struct {
	meeting calendarentity.Calendar
}

func (f *fakeCalendars) FindMeetingCalendar(ctx context.Context) (*calendarentity.Calendar, *errors.AppError) {
	return &f.meeting, nil
}

type fakeDirectory struct {
	profiles map[uuid.UUID]directoryentity.Profile
	board    []directoryentity.Profile
	lookup   *errors.AppError
}

func (f *fakeDirectory) add(name string, execBoard bool) uuid.UUID {
	id := uuid.New()
	p := directoryentity.Profile{ID: id, FullName: name, Email: name + "@glee.test", IsExecBoard: execBoard}
	f.profiles[id] = p
	if execBoard {
		f.board = append(f.board, p)
	}
	return id
}

func (f *fakeDirectory) LookupProfiles(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]directoryentity.Profile, *errors.AppError) {
	if f.lookup != nil {
		return nil, f.lookup
	}
	out := map[uuid.UUID]directoryentity.Profile{}
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeDirectory) ListExecBoard(ctx context.Context) ([]directoryentity.Profile, *errors.AppError) {
	return f.board, nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []queue.NotificationPayload
	fail bool
}

func (d *recordingDispatcher) EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return stdErrors.New("redis: connection refused")
	}
	d.sent = append(d.sent, payload)
	return nil
}
