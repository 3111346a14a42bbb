package service

import (
	"context"
	stdErrors "errors"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/queue"
	"glee-scheduler/modules/attendance/entity"
	calendarentity "glee-scheduler/modules/calendar/entity"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore serializes transactions with one lock and applies a transaction's
// writes only when it commits.
type memoryStore struct {
	mu      sync.Mutex
	tokens  map[string]entity.ScanToken
	records []entity.AttendanceRecord
	events  map[uuid.UUID]calendarentity.Event
	failTx  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tokens: map[string]entity.ScanToken{},
		events: map[uuid.UUID]calendarentity.Event{},
	}
}

func (s *memoryStore) RunInTx(ctx context.Context, fn func(tx ScanTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTx != nil {
		err := s.failTx
		s.failTx = nil
		return err
	}

	tx := &memoryTx{store: s, tokens: map[string]entity.ScanToken{}}
	for k, v := range s.tokens {
		tx.tokens[k] = v
	}
	tx.records = append(tx.records, s.records...)

	if err := fn(tx); err != nil {
		return err
	}
	s.tokens = tx.tokens
	s.records = tx.records
	return nil
}

type memoryTx struct {
	store   *memoryStore
	tokens  map[string]entity.ScanToken
	records []entity.AttendanceRecord
}

func (t *memoryTx) LockToken(ctx context.Context, token string) (*entity.ScanToken, error) {
	if tok, ok := t.tokens[token]; ok {
		return &tok, nil
	}
	return nil, nil
}

func (t *memoryTx) setState(id uuid.UUID, fn func(*entity.ScanToken) bool) bool {
	for k, tok := range t.tokens {
		if tok.ID == id {
			if !fn(&tok) {
				return false
			}
			t.tokens[k] = tok
			return true
		}
	}
	return false
}

func (t *memoryTx) ExpireToken(ctx context.Context, id uuid.UUID) error {
	t.setState(id, func(tok *entity.ScanToken) bool {
		if tok.State != entity.TokenStateActive {
			return false
		}
		tok.State = entity.TokenStateExpired
		return true
	})
	return nil
}

func (t *memoryTx) GetEvent(ctx context.Context, id uuid.UUID) (*calendarentity.Event, error) {
	if e, ok := t.store.events[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (t *memoryTx) HasRecord(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	for _, r := range t.records {
		if r.EventID == eventID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) InsertRecord(ctx context.Context, record *entity.AttendanceRecord) (bool, error) {
	if exists, _ := t.HasRecord(ctx, record.EventID, record.UserID); exists {
		return false, nil
	}
	record.ID = uuid.New()
	record.CreatedAt = record.ScannedAt
	t.records = append(t.records, *record)
	return true, nil
}

func (t *memoryTx) ConsumeToken(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	return t.setState(id, func(tok *entity.ScanToken) bool {
		if tok.State != entity.TokenStateActive {
			return false
		}
		tok.State = entity.TokenStateConsumed
		tok.ConsumedBy = &userID
		tok.ConsumedAt = &at
		return true
	}), nil
}

func (s *memoryStore) CreateToken(ctx context.Context, token *entity.ScanToken) (*entity.ScanToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := *token
	created.ID = uuid.New()
	s.tokens[created.Token] = created
	return &created, nil
}

func (s *memoryStore) GetActiveToken(ctx context.Context, eventID uuid.UUID, now time.Time) (*entity.ScanToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *entity.ScanToken
	for _, tok := range s.tokens {
		if tok.EventID != eventID || tok.State != entity.TokenStateActive || tok.ExpiredAt(now) {
			continue
		}
		if best == nil || tok.IssuedAt.After(best.IssuedAt) {
			tok := tok
			best = &tok
		}
	}
	return best, nil
}

func (s *memoryStore) DeactivateToken(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[token]
	if !ok || tok.State != entity.TokenStateActive {
		return false, nil
	}
	tok.State = entity.TokenStateExpired
	s.tokens[token] = tok
	return true, nil
}

func (s *memoryStore) ListRecords(ctx context.Context, eventID uuid.UUID) ([]entity.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.AttendanceRecord
	for _, r := range s.records {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScannedAt.After(out[j].ScannedAt) })
	return out, nil
}

type storeEvents struct {
	store *memoryStore
}

func (e storeEvents) GetEvent(ctx context.Context, id uuid.UUID) (*calendarentity.Event, *errors.AppError) {
	if ev, ok := e.store.events[id]; ok {
		return &ev, nil
	}
	return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
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
		return stdErrors.New("enqueue timeout")
	}
	d.sent = append(d.sent, payload)
	return nil
}

type memoryObjects struct {
	keys []string
}

func (m *memoryObjects) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	m.keys = append(m.keys, key)
	return "https://cdn.glee.test/" + key, nil
}
