package dto

import (
	"glee-scheduler/modules/calendar/entity"
	"time"

	"github.com/google/uuid"
)

type CreateCalendarRequest struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Description *string `json:"description,omitempty"`
	IsVisible   *bool   `json:"is_visible,omitempty"`
}

type UpdateCalendarRequest struct {
	Name        *string `json:"name,omitempty"`
	Color       *string `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
}

type SetVisibilityRequest struct {
	IsVisible *bool `json:"is_visible"`
}

type CreateEventRequest struct {
	CalendarID           *uuid.UUID `json:"calendar_id,omitempty"`
	Title                string     `json:"title"`
	Description          *string    `json:"description,omitempty"`
	EventType            string     `json:"event_type"`
	StartAt              time.Time  `json:"start_at"`
	EndAt                *time.Time `json:"end_at,omitempty"`
	VenueName            *string    `json:"venue_name,omitempty"`
	Address              *string    `json:"address,omitempty"`
	IsPublic             bool       `json:"is_public"`
	MaxAttendees         *int       `json:"max_attendees,omitempty"`
	RegistrationRequired bool       `json:"registration_required"`
	Status               string     `json:"status,omitempty"`
	AttendanceRequired   bool       `json:"attendance_required"`
	AttendanceDeadline   *time.Time `json:"attendance_deadline,omitempty"`
	LateArrivalAllowed   bool       `json:"late_arrival_allowed"`
	ExcuseRequired       bool       `json:"excuse_required"`
	ImageRef             *string    `json:"image_ref,omitempty"`
}

type UpdateEventRequest struct {
	CalendarID           *uuid.UUID `json:"calendar_id,omitempty"`
	Title                *string    `json:"title,omitempty"`
	Description          *string    `json:"description,omitempty"`
	EventType            *string    `json:"event_type,omitempty"`
	StartAt              *time.Time `json:"start_at,omitempty"`
	EndAt                *time.Time `json:"end_at,omitempty"`
	VenueName            *string    `json:"venue_name,omitempty"`
	Address              *string    `json:"address,omitempty"`
	IsPublic             *bool      `json:"is_public,omitempty"`
	MaxAttendees         *int       `json:"max_attendees,omitempty"`
	RegistrationRequired *bool      `json:"registration_required,omitempty"`
	Status               *string    `json:"status,omitempty"`
	AttendanceRequired   *bool      `json:"attendance_required,omitempty"`
	AttendanceDeadline   *time.Time `json:"attendance_deadline,omitempty"`
	LateArrivalAllowed   *bool      `json:"late_arrival_allowed,omitempty"`
	ExcuseRequired       *bool      `json:"excuse_required,omitempty"`
	ImageRef             *string    `json:"image_ref,omitempty"`
}

// EventListQuery is what a viewer asks for; visibility is applied on top.
type EventListQuery struct {
	From         *time.Time
	To           *time.Time
	CalendarIDs  []uuid.UUID
	EventType    *entity.EventType
	IsPublicView bool
}

type RecurringRehearsalRequest struct {
	CalendarID         *uuid.UUID `json:"calendar_id,omitempty"`
	Title              string     `json:"title"`
	StartDate          string     `json:"start_date"`
	EndDate            string     `json:"end_date"`
	Weekdays           []string   `json:"weekdays,omitempty"`
	StartTime          string     `json:"start_time,omitempty"`
	DurationMinutes    int        `json:"duration_minutes,omitempty"`
	VenueName          *string    `json:"venue_name,omitempty"`
	Address            *string    `json:"address,omitempty"`
	LateArrivalAllowed bool       `json:"late_arrival_allowed"`
}

type ImportResult struct {
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Events   []entity.Event `json:"events"`
	Errors   []string       `json:"errors,omitempty"`
}
