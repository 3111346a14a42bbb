package entity

import (
	"time"

	"github.com/google/uuid"
)

// Calendar groups events under one name, color and visibility flag.
// Exactly one calendar carries IsDefault.
type Calendar struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Color       string    `db:"color" json:"color"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsVisible   bool      `db:"is_visible" json:"is_visible"`
	IsDefault   bool      `db:"is_default" json:"is_default"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
