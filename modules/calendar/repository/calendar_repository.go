package repository

import (
	"context"
	"database/sql"
	"glee-scheduler/core/database"
	"glee-scheduler/core/logger"
	"glee-scheduler/modules/calendar/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CalendarRepository interface {
	Create(ctx context.Context, cal *entity.Calendar) (*entity.Calendar, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Calendar, error)
	GetDefault(ctx context.Context) (*entity.Calendar, error)
	List(ctx context.Context) ([]entity.Calendar, error)
	Update(ctx context.Context, cal *entity.Calendar) error
	SetVisibility(ctx context.Context, id uuid.UUID, visible bool) (bool, error)
	SetDefault(ctx context.Context, id uuid.UUID) (bool, error)
	CountEvents(ctx context.Context, id uuid.UUID) (int, error)
	DeleteIfUnused(ctx context.Context, id uuid.UUID) (bool, error)
	FindByNameLike(ctx context.Context, pattern string) (*entity.Calendar, error)
}

type calendarRepository struct {
	db database.Database
}

func NewCalendarRepository(db database.Database) CalendarRepository {
	return &calendarRepository{db: db}
}

const calendarColumns = `id, name, color, description, is_visible, is_default, created_at, updated_at`

// Create inserts the calendar; the first calendar in an empty store becomes the default.
func (r *calendarRepository) Create(ctx context.Context, cal *entity.Calendar) (*entity.Calendar, error) {
	query := `
		INSERT INTO calendars (name, color, description, is_visible, is_default)
		VALUES ($1, $2, $3, $4, NOT EXISTS (SELECT 1 FROM calendars WHERE is_default))
		RETURNING ` + calendarColumns

	var created entity.Calendar
	err := r.db.GetContext(ctx, &created, query, cal.Name, cal.Color, cal.Description, cal.IsVisible)
	if database.IsUniqueViolation(err) {
		// lost the race for the single default slot
		err = r.db.GetContext(ctx, &created, `
			INSERT INTO calendars (name, color, description, is_visible, is_default)
			VALUES ($1, $2, $3, $4, false)
			RETURNING `+calendarColumns, cal.Name, cal.Color, cal.Description, cal.IsVisible)
	}
	if err != nil {
		logger.Error("CalendarRepository:Create", "name", cal.Name, "error", err)
		return nil, err
	}
	return &created, nil
}

func (r *calendarRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Calendar, error) {
	var cal entity.Calendar
	err := r.db.GetContext(ctx, &cal, `SELECT `+calendarColumns+` FROM calendars WHERE id = $1`, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		logger.Error("CalendarRepository:GetByID", "id", id, "error", err)
		return nil, err
	}
	return &cal, nil
}

func (r *calendarRepository) GetDefault(ctx context.Context) (*entity.Calendar, error) {
	var cal entity.Calendar
	err := r.db.GetContext(ctx, &cal, `SELECT `+calendarColumns+` FROM calendars WHERE is_default LIMIT 1`)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		logger.Error("CalendarRepository:GetDefault", "error", err)
		return nil, err
	}
	return &cal, nil
}

func (r *calendarRepository) List(ctx context.Context) ([]entity.Calendar, error) {
	var cals []entity.Calendar
	err := r.db.SelectContext(ctx, &cals, `SELECT `+calendarColumns+` FROM calendars ORDER BY is_default DESC, name ASC`)
	if err != nil {
		logger.Error("CalendarRepository:List", "error", err)
		return nil, err
	}
	return cals, nil
}

func (r *calendarRepository) Update(ctx context.Context, cal *entity.Calendar) error {
	query := `
		UPDATE calendars
		SET name = $2, color = $3, description = $4, updated_at = NOW()
		WHERE id = $1
	`
	if err := r.db.ExecContext(ctx, query, cal.ID, cal.Name, cal.Color, cal.Description); err != nil {
		logger.Error("CalendarRepository:Update", "id", cal.ID, "error", err)
		return err
	}
	return nil
}

func (r *calendarRepository) SetVisibility(ctx context.Context, id uuid.UUID, visible bool) (bool, error) {
	var updated uuid.UUID
	err := r.db.GetContext(ctx, &updated,
		`UPDATE calendars SET is_visible = $2, updated_at = NOW() WHERE id = $1 RETURNING id`, id, visible)
	if err != nil {
		if database.IsNotFound(err) {
			return false, nil
		}
		logger.Error("CalendarRepository:SetVisibility", "id", id, "error", err)
		return false, err
	}
	return true, nil
}

// SetDefault moves the default flag to id in one transaction.
func (r *calendarRepository) SetDefault(ctx context.Context, id uuid.UUID) (bool, error) {
	found := false
	err := r.db.WithTx(ctx, nil, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM calendars WHERE id = $1)`, id); err != nil {
			return err
		}
		if !exists {
			return nil
		}
		found = true
		if _, err := tx.ExecContext(ctx, `UPDATE calendars SET is_default = false, updated_at = NOW() WHERE is_default AND id <> $1`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE calendars SET is_default = true, updated_at = NOW() WHERE id = $1`, id)
		return err
	})
	if err != nil {
		logger.Error("CalendarRepository:SetDefault", "id", id, "error", err)
		return false, err
	}
	return found, nil
}

func (r *calendarRepository) CountEvents(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM events WHERE calendar_id = $1`, id); err != nil {
		logger.Error("CalendarRepository:CountEvents", "id", id, "error", err)
		return 0, err
	}
	return count, nil
}

// DeleteIfUnused deletes a non-default calendar that no event references.
func (r *calendarRepository) DeleteIfUnused(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		DELETE FROM calendars
		WHERE id = $1
		  AND NOT is_default
		  AND NOT EXISTS (SELECT 1 FROM events WHERE calendar_id = $1)
	`
	result, err := r.db.SQLx().ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("CalendarRepository:DeleteIfUnused", "id", id, "error", err)
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *calendarRepository) FindByNameLike(ctx context.Context, pattern string) (*entity.Calendar, error) {
	var cal entity.Calendar
	err := r.db.GetContext(ctx, &cal, `
		SELECT `+calendarColumns+`
		FROM calendars
		WHERE is_visible AND name ILIKE $1
		ORDER BY created_at ASC
		LIMIT 1
	`, pattern)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("CalendarRepository:FindByNameLike", "pattern", pattern, "error", err)
		return nil, err
	}
	return &cal, nil
}
