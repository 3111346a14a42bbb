// Package visibility decides which events a viewer may see.
package visibility

import (
	"glee-scheduler/modules/calendar/entity"

	"github.com/google/uuid"
)

// VisibleEvents applies calendar visibility first and the public-view rule second.
//
// With no selection every visible calendar contributes. A selection narrows the
// set to the chosen calendars, and hidden calendars stay excluded even when
// selected. A public view keeps only events flagged public. Input order is kept.
func VisibleEvents(events []entity.Event, calendars []entity.Calendar, selected []uuid.UUID, isPublicView bool) []entity.Event {
	visible := make(map[uuid.UUID]bool, len(calendars))
	for _, cal := range calendars {
		if cal.IsVisible {
			visible[cal.ID] = true
		}
	}

	var chosen map[uuid.UUID]bool
	if len(selected) > 0 {
		chosen = make(map[uuid.UUID]bool, len(selected))
		for _, id := range selected {
			chosen[id] = true
		}
	}

	result := make([]entity.Event, 0, len(events))
	for _, event := range events {
		if !visible[event.CalendarID] {
			continue
		}
		if chosen != nil && !chosen[event.CalendarID] {
			continue
		}
		if isPublicView && !event.IsPublic {
			continue
		}
		result = append(result, event)
	}
	return result
}
