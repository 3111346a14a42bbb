package entity

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the directory view of a member: identity, role and contact info.
type Profile struct {
	ID                uuid.UUID `db:"id" json:"id"`
	FullName          string    `db:"full_name" json:"full_name"`
	Email             string    `db:"email" json:"email"`
	Phone             *string   `db:"phone" json:"phone,omitempty"`
	Role              string    `db:"role" json:"role"`
	IsExecBoard       bool      `db:"is_exec_board" json:"is_exec_board"`
	CalendarFeedToken *string   `db:"calendar_feed_token" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}
