package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// ParsedEvent is one VEVENT read from an iCalendar document.
type ParsedEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	StartAt     time.Time
	EndAt       *time.Time
}

// ParseICS decodes every calendar in r and returns its events with instants in UTC.
func ParseICS(r io.Reader) ([]ParsedEvent, error) {
	decoder := ical.NewDecoder(r)
	var events []ParsedEvent

	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			event, err := parseComponent(comp)
			if err != nil {
				return nil, err
			}
			events = append(events, event)
		}
	}
	return events, nil
}

func parseComponent(comp *ical.Component) (ParsedEvent, error) {
	event := ParsedEvent{
		UID:         textProp(comp, ical.PropUID),
		Summary:     textProp(comp, ical.PropSummary),
		Description: textProp(comp, ical.PropDescription),
		Location:    textProp(comp, ical.PropLocation),
	}

	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		start, err := prop.DateTime(time.UTC)
		if err != nil {
			return event, fmt.Errorf("event %q: invalid DTSTART: %w", event.UID, err)
		}
		event.StartAt = start.UTC()
	}
	if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
		end, err := prop.DateTime(time.UTC)
		if err != nil {
			return event, fmt.Errorf("event %q: invalid DTEND: %w", event.UID, err)
		}
		end = end.UTC()
		event.EndAt = &end
	}
	return event, nil
}

func textProp(comp *ical.Component, name string) string {
	prop := comp.Props.Get(name)
	if prop == nil {
		return ""
	}
	if text, err := prop.Text(); err == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(prop.Value)
}
