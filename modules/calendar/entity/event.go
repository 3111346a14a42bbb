package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypePerformance EventType = "performance"
	EventTypeRehearsal   EventType = "rehearsal"
	EventTypeSectional   EventType = "sectional"
	EventTypeMeeting     EventType = "meeting"
	EventTypeExecMeeting EventType = "exec-meeting"
	EventTypeVoiceLesson EventType = "voice-lesson"
	EventTypeTutorial    EventType = "tutorial"
	EventTypeSocial      EventType = "social"
	EventTypeWorkshop    EventType = "workshop"
	EventTypeAudition    EventType = "audition"
	EventTypeOther       EventType = "other"
)

var eventTypes = map[EventType]bool{
	EventTypePerformance: true,
	EventTypeRehearsal:   true,
	EventTypeSectional:   true,
	EventTypeMeeting:     true,
	EventTypeExecMeeting: true,
	EventTypeVoiceLesson: true,
	EventTypeTutorial:    true,
	EventTypeSocial:      true,
	EventTypeWorkshop:    true,
	EventTypeAudition:    true,
	EventTypeOther:       true,
}

func (t EventType) Valid() bool {
	return eventTypes[t]
}

type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusPostponed EventStatus = "postponed"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusScheduled, EventStatusConfirmed, EventStatusCancelled, EventStatusPostponed:
		return true
	}
	return false
}

// DefaultDeadlineOffset is added to StartAt when no attendance deadline is set.
const DefaultDeadlineOffset = 30 * time.Minute

type Event struct {
	ID                   uuid.UUID   `db:"id" json:"id"`
	CalendarID           uuid.UUID   `db:"calendar_id" json:"calendar_id"`
	Title                string      `db:"title" json:"title"`
	Description          *string     `db:"description" json:"description,omitempty"`
	EventType            EventType   `db:"event_type" json:"event_type"`
	StartAt              time.Time   `db:"start_at" json:"start_at"`
	EndAt                *time.Time  `db:"end_at" json:"end_at,omitempty"`
	VenueName            *string     `db:"venue_name" json:"venue_name,omitempty"`
	Address              *string     `db:"address" json:"address,omitempty"`
	IsPublic             bool        `db:"is_public" json:"is_public"`
	MaxAttendees         *int        `db:"max_attendees" json:"max_attendees,omitempty"`
	RegistrationRequired bool        `db:"registration_required" json:"registration_required"`
	Status               EventStatus `db:"status" json:"status"`
	AttendanceRequired   bool        `db:"attendance_required" json:"attendance_required"`
	AttendanceDeadline   *time.Time  `db:"attendance_deadline" json:"attendance_deadline,omitempty"`
	LateArrivalAllowed   bool        `db:"late_arrival_allowed" json:"late_arrival_allowed"`
	ExcuseRequired       bool        `db:"excuse_required" json:"excuse_required"`
	CreatedBy            *uuid.UUID  `db:"created_by" json:"created_by,omitempty"`
	ImageRef             *string     `db:"image_ref" json:"image_ref,omitempty"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at" json:"updated_at"`
}

// EffectiveDeadline is the attendance deadline, defaulting to StartAt + 30m.
func (e Event) EffectiveDeadline() time.Time {
	if e.AttendanceDeadline != nil {
		return *e.AttendanceDeadline
	}
	return e.StartAt.Add(DefaultDeadlineOffset)
}

// Location joins venue name and address.
func (e Event) Location() string {
	parts := make([]string, 0, 2)
	if e.VenueName != nil && strings.TrimSpace(*e.VenueName) != "" {
		parts = append(parts, strings.TrimSpace(*e.VenueName))
	}
	if e.Address != nil && strings.TrimSpace(*e.Address) != "" {
		parts = append(parts, strings.TrimSpace(*e.Address))
	}
	return strings.Join(parts, ", ")
}

// EventQuery narrows a listing by time window, calendar and type.
type EventQuery struct {
	From        *time.Time
	To          *time.Time
	CalendarIDs []uuid.UUID
	EventType   *EventType
}
