package service

import (
	"context"
	"glee-scheduler/core/errors"
	calendardto "glee-scheduler/modules/calendar/dto"
	calendarentity "glee-scheduler/modules/calendar/entity"
	"glee-scheduler/modules/calendar/visibility"
	directoryentity "glee-scheduler/modules/directory/entity"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// storeLister behaves like the calendar store: window filter, then visibility.
type storeLister struct {
	calendars []calendarentity.Calendar
	events    []calendarentity.Event
	calls     int
	last      calendardto.EventListQuery
}

func (l *storeLister) ListVisibleEvents(ctx context.Context, q calendardto.EventListQuery) ([]calendarentity.Event, *errors.AppError) {
	l.calls++
	l.last = q
	var windowed []calendarentity.Event
	for _, e := range l.events {
		end := e.StartAt
		if e.EndAt != nil {
			end = *e.EndAt
		}
		if q.From != nil && end.Before(*q.From) {
			continue
		}
		if q.To != nil && !e.StartAt.Before(*q.To) {
			continue
		}
		if q.EventType != nil && e.EventType != *q.EventType {
			continue
		}
		windowed = append(windowed, e)
	}
	return visibility.VisibleEvents(windowed, l.calendars, q.CalendarIDs, q.IsPublicView), nil
}

type staticTokens struct {
	tokens map[string]directoryentity.Profile
	minted map[uuid.UUID]string
}

func newStaticTokens() *staticTokens {
	return &staticTokens{tokens: map[string]directoryentity.Profile{}, minted: map[uuid.UUID]string{}}
}

func (t *staticTokens) EnsureFeedToken(ctx context.Context, userID uuid.UUID) (string, *errors.AppError) {
	if token, ok := t.minted[userID]; ok {
		return token, nil
	}
	token := "tok-" + strings.ReplaceAll(userID.String(), "-", "")
	t.minted[userID] = token
	t.tokens[token] = directoryentity.Profile{ID: userID}
	return token, nil
}

func (t *staticTokens) ResolveFeedToken(ctx context.Context, token string) (*directoryentity.Profile, bool) {
	p, ok := t.tokens[token]
	if !ok {
		return nil, false
	}
	return &p, true
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) DelPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}
