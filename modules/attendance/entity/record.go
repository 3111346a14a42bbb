package entity

import (
	"time"

	"github.com/google/uuid"
)

const MethodQRScan = "qr_scan"

// AttendanceRecord exists at most once per (event, user).
type AttendanceRecord struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	EventID   uuid.UUID  `db:"event_id" json:"event_id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	ScannedAt time.Time  `db:"scanned_at" json:"scanned_at"`
	Method    string     `db:"method" json:"method"`
	IsLate    bool       `db:"is_late" json:"is_late"`
	TokenID   *uuid.UUID `db:"token_id" json:"token_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
