package dto

import (
	"glee-scheduler/modules/appointment/entity"
	"time"

	"github.com/google/uuid"
)

type ParticipantRef struct {
	UserID    uuid.UUID `json:"user_id"`
	RoleLabel string    `json:"role_label,omitempty"`
}

// ScheduleRequest asks for one staggered appointment per roster entry.
// An empty roster falls back to the event's team members.
type ScheduleRequest struct {
	Roster          []ParticipantRef `json:"roster,omitempty"`
	AnchorDate      string           `json:"anchor_date"`
	AnchorTime      string           `json:"anchor_time"`
	PerSlotMinutes  int              `json:"per_slot_minutes"`
	AppointmentType string           `json:"appointment_type,omitempty"`
}

type ParticipantResult struct {
	UserID      uuid.UUID           `json:"user_id"`
	Name        string              `json:"name,omitempty"`
	Start       time.Time           `json:"start"`
	End         time.Time           `json:"end"`
	Success     bool                `json:"success"`
	Appointment *entity.Appointment `json:"appointment,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type ScheduleResult struct {
	EventID   uuid.UUID           `json:"event_id"`
	Requested int                 `json:"requested"`
	Created   int                 `json:"created"`
	Failed    int                 `json:"failed"`
	Results   []ParticipantResult `json:"results"`
}

// Appointments returns the successfully created appointments in slot order.
func (r *ScheduleResult) Appointments() []entity.Appointment {
	out := make([]entity.Appointment, 0, r.Created)
	for _, res := range r.Results {
		if res.Success && res.Appointment != nil {
			out = append(out, *res.Appointment)
		}
	}
	return out
}

type AddTeamMemberRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	RoleLabel string    `json:"role_label"`
}

type CallMeetingRequest struct {
	Title           string      `json:"title"`
	Description     *string     `json:"description,omitempty"`
	StartAt         time.Time   `json:"start_at"`
	DurationMinutes int         `json:"duration_minutes"`
	Venue           *string     `json:"venue,omitempty"`
	AttendeeIDs     []uuid.UUID `json:"attendee_ids,omitempty"`
}

type CallMeetingResult struct {
	EventID   uuid.UUID   `json:"event_id"`
	Attendees []uuid.UUID `json:"attendees"`
	Notified  int         `json:"notified"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentListQuery struct {
	Status *entity.AppointmentStatus
	Day    *time.Time
}
