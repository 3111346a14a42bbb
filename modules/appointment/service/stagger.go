package service

import (
	"fmt"
	"glee-scheduler/core/constants"
	"math"
	"time"
)

// Slot is one participant's reserved interval.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Stagger lays out back-to-back appointment slots with a fixed buffer between them
type Stagger struct {
	// BufferMinutes between consecutive slots - default 5
	BufferMinutes int
}

func NewStagger() *Stagger {
	return &Stagger{BufferMinutes: constants.AppointmentBufferMinutes}
}

// Plan returns count slots starting at anchor. Slot i starts at anchor + i*(per+buffer).
// perSlotMinutes must lie in (0, MaxSlotMinutes].
func (s *Stagger) Plan(anchor time.Time, perSlotMinutes, count int) ([]Slot, error) {
	if perSlotMinutes <= 0 {
		return nil, fmt.Errorf("per-slot minutes must be positive, got %d", perSlotMinutes)
	}
	if perSlotMinutes > constants.MaxSlotMinutes {
		return nil, fmt.Errorf("per-slot minutes must be at most %d, got %d", constants.MaxSlotMinutes, perSlotMinutes)
	}
	if count <= 0 {
		return []Slot{}, nil
	}

	duration := time.Duration(perSlotMinutes) * time.Minute
	step := duration + time.Duration(s.BufferMinutes)*time.Minute
	if step <= 0 || int64(count-1) > (math.MaxInt64-int64(duration))/int64(step) {
		return nil, fmt.Errorf("%d slots of %d minutes overflow the schedule", count, perSlotMinutes)
	}

	slots := make([]Slot, count)
	for i := range slots {
		start := anchor.Add(time.Duration(i) * step)
		slots[i] = Slot{Start: start, End: start.Add(duration)}
	}
	return slots, nil
}

// ParseAnchor combines a YYYY-MM-DD date and an HH:MM time in loc.
func ParseAnchor(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	anchor, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid anchor %q %q: %w", date, clock, err)
	}
	return anchor, nil
}
