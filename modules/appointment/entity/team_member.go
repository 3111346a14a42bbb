package entity

import (
	"time"

	"github.com/google/uuid"
)

const RoleLabelAttendee = "attendee"

// EventTeamMember marks a member as needing a planning slot for an event.
type EventTeamMember struct {
	EventID   uuid.UUID `db:"event_id" json:"event_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	RoleLabel string    `db:"role" json:"role_label"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
