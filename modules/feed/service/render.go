package service

import (
	"fmt"
	"glee-scheduler/modules/calendar/entity"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

const (
	publishedTTL = "PT1H"
	// eventMarker opens a VEVENT on its own content line. Text values escape
	// line breaks, so it cannot appear inside a property.
	eventMarker = "\r\nBEGIN:VEVENT\r\n"
)

// Renderer turns events into an iCalendar document with UTC instants.
type Renderer struct {
	ProductID string
	Name      string
	UIDDomain string
}

type RenderOptions struct {
	// Subscription adds METHOD:PUBLISH and a refresh hint for calendar clients.
	Subscription bool
	Name         string
	Stamp        time.Time
}

func (r Renderer) Render(events []entity.Event, opts RenderOptions) string {
	cal := ics.NewCalendarFor(r.ProductID)
	cal.SetProductId(fmt.Sprintf("-//%s//EN", r.ProductID))
	cal.SetCalscale("GREGORIAN")
	name := opts.Name
	if name == "" {
		name = r.Name
	}
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone("UTC")
	if opts.Subscription {
		cal.SetMethod(ics.MethodPublish)
		cal.SetXPublishedTTL(publishedTTL)
	}

	stamp := opts.Stamp.UTC()
	for _, e := range events {
		vevent := cal.AddEvent(r.UID(e))
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(e.StartAt.UTC())
		if e.EndAt != nil {
			vevent.SetEndAt(e.EndAt.UTC())
		}
		vevent.SetSummary(e.Title)
		if e.Description != nil {
			vevent.SetDescription(*e.Description)
		} else {
			vevent.SetDescription("")
		}
		if loc := e.Location(); loc != "" {
			vevent.SetLocation(loc)
		}
		vevent.SetStatus(statusOf(e.Status))
		vevent.AddCategory(string(e.EventType))
		if !e.UpdatedAt.IsZero() {
			vevent.SetModifiedAt(e.UpdatedAt.UTC())
		}
	}
	return cal.Serialize(ics.WithNewLineWindows)
}

// CountEvents counts the VEVENTs in a rendered document.
func CountEvents(body string) int {
	return strings.Count(body, eventMarker)
}

// UID is stable across renders so subscribed clients update in place.
func (r Renderer) UID(e entity.Event) string {
	return fmt.Sprintf("%s@%s", e.ID, r.UIDDomain)
}

func statusOf(s entity.EventStatus) ics.ObjectStatus {
	switch s {
	case entity.EventStatusConfirmed:
		return ics.ObjectStatusConfirmed
	case entity.EventStatusCancelled:
		return ics.ObjectStatusCancelled
	}
	return ics.ObjectStatusTentative
}
