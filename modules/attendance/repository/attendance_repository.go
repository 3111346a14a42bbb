package repository

import (
	"context"
	"database/sql"
	"glee-scheduler/core/database"
	"glee-scheduler/core/logger"
	"glee-scheduler/modules/attendance/entity"
	"glee-scheduler/modules/attendance/service"
	calendarentity "glee-scheduler/modules/calendar/entity"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AttendanceRepository struct {
	DB database.Database
}

func NewAttendanceRepository(db database.Database) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

const tokenColumns = `id, token, event_id, issued_by, issued_at, expires_at, state, consumed_by, consumed_at, qr_code_url`

const recordColumns = `id, event_id, user_id, scanned_at, method, is_late, token_id, created_at`

// ===================== Tokens =====================

func (r *AttendanceRepository) CreateToken(ctx context.Context, token *entity.ScanToken) (*entity.ScanToken, error) {
	query := `
		INSERT INTO attendance_scan_tokens (token, event_id, issued_by, issued_at, expires_at, state, qr_code_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + tokenColumns

	var created entity.ScanToken
	err := r.DB.GetContext(ctx, &created, query,
		token.Token, token.EventID, token.IssuedBy, token.IssuedAt, token.ExpiresAt, string(token.State), token.QRCodeURL)
	if err != nil {
		logger.Error("AttendanceRepository:CreateToken", "event_id", token.EventID, "error", err)
		return nil, err
	}
	return &created, nil
}

func (r *AttendanceRepository) GetActiveToken(ctx context.Context, eventID uuid.UUID, now time.Time) (*entity.ScanToken, error) {
	var token entity.ScanToken
	err := r.DB.GetContext(ctx, &token, `
		SELECT `+tokenColumns+`
		FROM attendance_scan_tokens
		WHERE event_id = $1 AND state = 'active' AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY issued_at DESC
		LIMIT 1
	`, eventID, now)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		logger.Error("AttendanceRepository:GetActiveToken", "event_id", eventID, "error", err)
		return nil, err
	}
	return &token, nil
}

func (r *AttendanceRepository) DeactivateToken(ctx context.Context, token string) (bool, error) {
	result, err := r.DB.SQLx().ExecContext(ctx,
		`UPDATE attendance_scan_tokens SET state = 'expired' WHERE token = $1 AND state = 'active'`, token)
	if err != nil {
		logger.Error("AttendanceRepository:DeactivateToken", "error", err)
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected == 1, err
}

// ===================== Records =====================

func (r *AttendanceRepository) ListRecords(ctx context.Context, eventID uuid.UUID) ([]entity.AttendanceRecord, error) {
	var records []entity.AttendanceRecord
	err := r.DB.SelectContext(ctx, &records, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE event_id = $1
		ORDER BY scanned_at DESC
	`, eventID)
	if err != nil {
		logger.Error("AttendanceRepository:ListRecords", "event_id", eventID, "error", err)
		return nil, err
	}
	return records, nil
}

// ===================== Verification =====================

func (r *AttendanceRepository) RunInTx(ctx context.Context, fn func(tx service.ScanTx) error) error {
	return r.DB.WithTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(tx *sqlx.Tx) error {
		return fn(&scanTx{tx: tx})
	})
}

type scanTx struct {
	tx *sqlx.Tx
}

// LockToken takes a row lock so concurrent scans of one token run one at a time.
func (t *scanTx) LockToken(ctx context.Context, token string) (*entity.ScanToken, error) {
	var scanToken entity.ScanToken
	err := t.tx.GetContext(ctx, &scanToken, `
		SELECT `+tokenColumns+`
		FROM attendance_scan_tokens
		WHERE token = $1
		FOR UPDATE
	`, token)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &scanToken, nil
}

func (t *scanTx) ExpireToken(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE attendance_scan_tokens SET state = 'expired' WHERE id = $1 AND state = 'active'`, id)
	return err
}

func (t *scanTx) GetEvent(ctx context.Context, id uuid.UUID) (*calendarentity.Event, error) {
	var event calendarentity.Event
	err := t.tx.GetContext(ctx, &event, `
		SELECT id, calendar_id, title, start_at, end_at, attendance_required, attendance_deadline, late_arrival_allowed
		FROM events
		WHERE id = $1
		FOR SHARE
	`, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (t *scanTx) HasRecord(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM attendance_records WHERE event_id = $1 AND user_id = $2)`, eventID, userID)
	return exists, err
}

// InsertRecord reports false when a record for (event, user) already exists.
func (t *scanTx) InsertRecord(ctx context.Context, record *entity.AttendanceRecord) (bool, error) {
	rows, err := t.tx.QueryxContext(ctx, `
		INSERT INTO attendance_records (event_id, user_id, scanned_at, method, is_late, token_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING `+recordColumns,
		record.EventID, record.UserID, record.ScannedAt, record.Method, record.IsLate, record.TokenID)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.StructScan(record); err != nil {
		return false, err
	}
	return true, nil
}

func (t *scanTx) ConsumeToken(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE attendance_scan_tokens
		SET state = 'consumed', consumed_by = $2, consumed_at = $3
		WHERE id = $1 AND state = 'active'
	`, id, userID, at)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected == 1, err
}
