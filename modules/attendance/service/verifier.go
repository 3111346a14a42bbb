package service

import (
	"context"
	"glee-scheduler/modules/attendance/entity"
	calendarentity "glee-scheduler/modules/calendar/entity"
	"time"

	"github.com/google/uuid"
)

// ScanTx is the storage seen by one verification. Implementations run it in a
// single transaction holding a row lock on the token.
type ScanTx interface {
	LockToken(ctx context.Context, token string) (*entity.ScanToken, error)
	ExpireToken(ctx context.Context, id uuid.UUID) error
	GetEvent(ctx context.Context, id uuid.UUID) (*calendarentity.Event, error)
	HasRecord(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	InsertRecord(ctx context.Context, record *entity.AttendanceRecord) (bool, error)
	ConsumeToken(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
}

type ScanStore interface {
	RunInTx(ctx context.Context, fn func(tx ScanTx) error) error
}

// verify runs the scan state machine inside tx. The order of checks is token,
// attendance required, lateness, duplicate, commit. A token already consumed by
// the same user reports the duplicate rather than an invalid token.
func verify(ctx context.Context, tx ScanTx, token string, userID uuid.UUID, scannedAt time.Time) (entity.ScanResult, error) {
	scanToken, err := tx.LockToken(ctx, token)
	if err != nil {
		return entity.ScanResult{}, err
	}
	if scanToken == nil {
		return entity.Rejected(entity.ReasonInvalidToken), nil
	}
	if scanToken.State == entity.TokenStateConsumed && scanToken.ConsumedBy != nil && *scanToken.ConsumedBy == userID {
		return entity.Rejected(entity.ReasonAlreadyRecorded), nil
	}
	if scanToken.State != entity.TokenStateActive {
		return entity.Rejected(entity.ReasonInvalidToken), nil
	}
	if scanToken.ExpiredAt(scannedAt) {
		if err := tx.ExpireToken(ctx, scanToken.ID); err != nil {
			return entity.ScanResult{}, err
		}
		return entity.Rejected(entity.ReasonInvalidToken), nil
	}

	event, err := tx.GetEvent(ctx, scanToken.EventID)
	if err != nil {
		return entity.ScanResult{}, err
	}
	if event == nil {
		return entity.Rejected(entity.ReasonInvalidToken), nil
	}
	if !event.AttendanceRequired {
		return entity.Rejected(entity.ReasonAttendanceNotRequired), nil
	}

	deadline := event.EffectiveDeadline()
	isLate := scannedAt.After(deadline)
	if isLate && !event.LateArrivalAllowed {
		return entity.Rejected(entity.ReasonTooLate), nil
	}

	recorded, err := tx.HasRecord(ctx, event.ID, userID)
	if err != nil {
		return entity.ScanResult{}, err
	}
	if recorded {
		return entity.Rejected(entity.ReasonAlreadyRecorded), nil
	}

	tokenID := scanToken.ID
	record := entity.AttendanceRecord{
		EventID:   event.ID,
		UserID:    userID,
		ScannedAt: scannedAt.UTC(),
		Method:    entity.MethodQRScan,
		IsLate:    isLate,
		TokenID:   &tokenID,
	}
	inserted, err := tx.InsertRecord(ctx, &record)
	if err != nil {
		return entity.ScanResult{}, err
	}
	if !inserted {
		return entity.Rejected(entity.ReasonAlreadyRecorded), nil
	}

	consumed, err := tx.ConsumeToken(ctx, scanToken.ID, userID, scannedAt.UTC())
	if err != nil {
		return entity.ScanResult{}, err
	}
	if !consumed {
		return entity.ScanResult{}, errTokenRace
	}

	return entity.Accepted(entity.EventSummary{
		ID:       event.ID,
		Title:    event.Title,
		StartAt:  event.StartAt,
		Deadline: deadline,
	}, record), nil
}
