package repository

import (
	"context"
	"fmt"
	"glee-scheduler/core/database"
	"glee-scheduler/core/logger"
	"glee-scheduler/modules/calendar/entity"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type EventRepository interface {
	Create(ctx context.Context, event *entity.Event) (*entity.Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	Update(ctx context.Context, event *entity.Event) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, query entity.EventQuery) ([]entity.Event, error)
}

type eventRepository struct {
	db database.Database
}

func NewEventRepository(db database.Database) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, calendar_id, title, description, event_type, start_at, end_at, venue_name, address,
	is_public, max_attendees, registration_required, status, attendance_required, attendance_deadline,
	late_arrival_allowed, excuse_required, created_by, image_ref, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	query := `
		INSERT INTO events (calendar_id, title, description, event_type, start_at, end_at, venue_name, address,
			is_public, max_attendees, registration_required, status, attendance_required, attendance_deadline,
			late_arrival_allowed, excuse_required, created_by, image_ref)
		VALUES (:calendar_id, :title, :description, :event_type, :start_at, :end_at, :venue_name, :address,
			:is_public, :max_attendees, :registration_required, :status, :attendance_required, :attendance_deadline,
			:late_arrival_allowed, :excuse_required, :created_by, :image_ref)
		RETURNING ` + eventColumns

	rows, err := r.db.NamedQueryContext(ctx, query, event)
	if err != nil {
		logger.Error("EventRepository:Create", "title", event.Title, "error", err)
		return nil, err
	}
	defer rows.Close()

	var created entity.Event
	if rows.Next() {
		if err := rows.StructScan(&created); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	var event entity.Event
	err := r.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		logger.Error("EventRepository:GetByID", "id", id, "error", err)
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	query := `
		UPDATE events
		SET calendar_id = :calendar_id, title = :title, description = :description, event_type = :event_type,
			start_at = :start_at, end_at = :end_at, venue_name = :venue_name, address = :address,
			is_public = :is_public, max_attendees = :max_attendees, registration_required = :registration_required,
			status = :status, attendance_required = :attendance_required, attendance_deadline = :attendance_deadline,
			late_arrival_allowed = :late_arrival_allowed, excuse_required = :excuse_required, image_ref = :image_ref,
			updated_at = NOW()
		WHERE id = :id
	`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		logger.Error("EventRepository:Update", "id", event.ID, "error", err)
		return err
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.SQLx().ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		logger.Error("EventRepository:Delete", "id", id, "error", err)
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected == 1, err
}

func (r *eventRepository) List(ctx context.Context, q entity.EventQuery) ([]entity.Event, error) {
	var (
		conditions []string
		args       []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.From != nil {
		conditions = append(conditions, "COALESCE(end_at, start_at) >= "+next(*q.From))
	}
	if q.To != nil {
		conditions = append(conditions, "start_at < "+next(*q.To))
	}
	if len(q.CalendarIDs) > 0 {
		ids := make([]string, len(q.CalendarIDs))
		for i, id := range q.CalendarIDs {
			ids[i] = id.String()
		}
		conditions = append(conditions, "calendar_id = ANY("+next(pq.Array(ids))+"::uuid[])")
	}
	if q.EventType != nil {
		conditions = append(conditions, "event_type = "+next(string(*q.EventType)))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_at ASC, id ASC"

	var events []entity.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		logger.Error("EventRepository:List", "error", err)
		return nil, err
	}
	return events, nil
}
