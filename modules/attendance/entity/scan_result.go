package entity

import (
	"time"

	"github.com/google/uuid"
)

type RejectReason string

const (
	ReasonInvalidToken          RejectReason = "InvalidToken"
	ReasonAttendanceNotRequired RejectReason = "AttendanceNotRequired"
	ReasonTooLate               RejectReason = "TooLate"
	ReasonAlreadyRecorded       RejectReason = "AlreadyRecorded"
	ReasonUnauthenticated       RejectReason = "Unauthenticated"
)

var reasonMessages = map[RejectReason]string{
	ReasonInvalidToken:          "This code is invalid, expired or already used",
	ReasonAttendanceNotRequired: "Attendance is not taken for this event",
	ReasonTooLate:               "The attendance window for this event has closed",
	ReasonAlreadyRecorded:       "Your attendance is already recorded",
	ReasonUnauthenticated:       "Sign in to record attendance",
}

func (r RejectReason) Message() string {
	return reasonMessages[r]
}

type EventSummary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	StartAt  time.Time `json:"start_at"`
	Deadline time.Time `json:"attendance_deadline"`
}

// ScanResult is the outcome of one verification: accepted, or rejected with a reason.
type ScanResult struct {
	Accepted bool              `json:"accepted"`
	Reason   RejectReason      `json:"reason,omitempty"`
	Message  string            `json:"message,omitempty"`
	IsLate   bool              `json:"is_late"`
	Event    *EventSummary     `json:"event,omitempty"`
	Record   *AttendanceRecord `json:"record,omitempty"`
}

func Rejected(reason RejectReason) ScanResult {
	return ScanResult{Reason: reason, Message: reason.Message()}
}

func Accepted(event EventSummary, record AttendanceRecord) ScanResult {
	return ScanResult{
		Accepted: true,
		IsLate:   record.IsLate,
		Event:    &event,
		Record:   &record,
	}
}
