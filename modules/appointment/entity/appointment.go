package entity

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return true
	}
	return false
}

const AppointmentTypePlanning = "event_planning"

type Appointment struct {
	ID               uuid.UUID         `db:"id" json:"id"`
	EventID          *uuid.UUID        `db:"event_id" json:"event_id,omitempty"`
	ParticipantID    *uuid.UUID        `db:"participant_id" json:"participant_id,omitempty"`
	Title            string            `db:"title" json:"title"`
	Description      string            `db:"description" json:"description"`
	ParticipantName  string            `db:"participant_name" json:"participant_name"`
	ParticipantEmail string            `db:"participant_email" json:"participant_email"`
	ParticipantPhone *string           `db:"participant_phone" json:"participant_phone,omitempty"`
	ScheduledAt      time.Time         `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes  int               `db:"duration_minutes" json:"duration_minutes"`
	AppointmentType  string            `db:"appointment_type" json:"appointment_type"`
	Status           AppointmentStatus `db:"status" json:"status"`
	CreatedBy        uuid.UUID         `db:"created_by" json:"created_by"`
	AssignedTo       uuid.UUID         `db:"assigned_to" json:"assigned_to"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

func (a Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// AppointmentFilter narrows the appointment listing.
type AppointmentFilter struct {
	Status   *AppointmentStatus
	DayStart *time.Time
	DayEnd   *time.Time
}
