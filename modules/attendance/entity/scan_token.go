package entity

import (
	"time"

	"github.com/google/uuid"
)

type TokenState string

const (
	TokenStateActive   TokenState = "active"
	TokenStateConsumed TokenState = "consumed"
	TokenStateExpired  TokenState = "expired"
)

// ScanToken is a single-use credential bound to one event. Consumed and
// expired are terminal; nothing moves a token back to active.
type ScanToken struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Token      string     `db:"token" json:"token"`
	EventID    uuid.UUID  `db:"event_id" json:"event_id"`
	IssuedBy   *uuid.UUID `db:"issued_by" json:"issued_by,omitempty"`
	IssuedAt   time.Time  `db:"issued_at" json:"issued_at"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	State      TokenState `db:"state" json:"state"`
	ConsumedBy *uuid.UUID `db:"consumed_by" json:"consumed_by,omitempty"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
	QRCodeURL  *string    `db:"qr_code_url" json:"qr_code_url,omitempty"`
}

// ExpiredAt reports whether an active token has outlived its expiry at now.
func (t ScanToken) ExpiredAt(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
