package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"glee-scheduler/modules/calendar/entity"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu        sync.Mutex
	calendars map[uuid.UUID]*entity.Calendar
	events    map[uuid.UUID]*entity.Event
	failNext  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		calendars: map[uuid.UUID]*entity.Calendar{},
		events:    map[uuid.UUID]*entity.Event{},
	}
}

type memoryCalendarRepo struct{ s *memoryStore }
type memoryEventRepo struct{ s *memoryStore }

func (r memoryCalendarRepo) Create(_ context.Context, cal *entity.Calendar) (*entity.Calendar, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	hasDefault := false
	for _, c := range r.s.calendars {
		if c.IsDefault {
			hasDefault = true
		}
	}
	created := *cal
	created.ID = uuid.New()
	created.IsDefault = !hasDefault
	created.CreatedAt = time.Now()
	r.s.calendars[created.ID] = &created
	out := created
	return &out, nil
}

func (r memoryCalendarRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Calendar, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.calendars[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, nil
}

func (r memoryCalendarRepo) GetDefault(_ context.Context) (*entity.Calendar, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.calendars {
		if c.IsDefault {
			out := *c
			return &out, nil
		}
	}
	return nil, nil
}

func (r memoryCalendarRepo) List(_ context.Context) ([]entity.Calendar, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entity.Calendar, 0, len(r.s.calendars))
	for _, c := range r.s.calendars {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memoryCalendarRepo) Update(_ context.Context, cal *entity.Calendar) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.calendars[cal.ID]; ok {
		c.Name, c.Color, c.Description = cal.Name, cal.Color, cal.Description
	}
	return nil
}

func (r memoryCalendarRepo) SetVisibility(_ context.Context, id uuid.UUID, visible bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.calendars[id]
	if ok {
		c.IsVisible = visible
	}
	return ok, nil
}

func (r memoryCalendarRepo) SetDefault(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.calendars[id]; !ok {
		return false, nil
	}
	for cid, c := range r.s.calendars {
		c.IsDefault = cid == id
	}
	return true, nil
}

func (r memoryCalendarRepo) CountEvents(_ context.Context, id uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.events {
		if e.CalendarID == id {
			n++
		}
	}
	return n, nil
}

func (r memoryCalendarRepo) DeleteIfUnused(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.calendars[id]
	if !ok || c.IsDefault {
		return false, nil
	}
	for _, e := range r.s.events {
		if e.CalendarID == id {
			return false, nil
		}
	}
	delete(r.s.calendars, id)
	return true, nil
}

func (r memoryCalendarRepo) FindByNameLike(_ context.Context, pattern string) (*entity.Calendar, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	needle := strings.ToLower(strings.Trim(pattern, "%"))
	for _, c := range r.s.calendars {
		if c.IsVisible && strings.Contains(strings.ToLower(c.Name), needle) {
			out := *c
			return &out, nil
		}
	}
	return nil, nil
}

func (r memoryEventRepo) Create(_ context.Context, event *entity.Event) (*entity.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failNext; err != nil {
		r.s.failNext = nil
		return nil, err
	}
	created := *event
	created.ID = uuid.New()
	r.s.events[created.ID] = &created
	out := created
	return &out, nil
}

func (r memoryEventRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := r.s.events[id]; ok {
		out := *e
		return &out, nil
	}
	return nil, nil
}

func (r memoryEventRepo) Update(_ context.Context, event *entity.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *event
	r.s.events[event.ID] = &stored
	return nil
}

func (r memoryEventRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.events[id]
	delete(r.s.events, id)
	return ok, nil
}

func (r memoryEventRepo) List(_ context.Context, q entity.EventQuery) ([]entity.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []entity.Event{}
	for _, e := range r.s.events {
		if q.EventType != nil && e.EventType != *q.EventType {
			continue
		}
		if q.To != nil && !e.StartAt.Before(*q.To) {
			continue
		}
		if q.From != nil {
			end := e.StartAt
			if e.EndAt != nil {
				end = *e.EndAt
			}
			if end.Before(*q.From) {
				continue
			}
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}
