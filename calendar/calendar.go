package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"secconfdb/model"
)

const (
	PRODUCT_ID   = "-//secconfdb//Conference Calendar//EN"
	CONTENT_TYPE = "text/calendar; charset=utf-8"
	UID_DOMAIN   = "secconfdb"
)

// Entry is one all-day calendar event. End is the last day of the event
// and may be left zero for single-day entries.
type Entry struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// UID is stable across exports so calendar clients update entries in place.
func (e Entry) UID() string {
	name := e.Summary + "/" + e.Start.Format("20060102")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@" + UID_DOMAIN
}

func Build(title string, entries []Entry, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(PRODUCT_ID)
	cal.SetXWRCalName(title)

	for _, entry := range entries {
		end := entry.End
		if end.IsZero() {
			end = entry.Start
		}

		event := cal.AddEvent(entry.UID())
		event.SetDtStampTime(stamp)
		event.SetSummary(entry.Summary)
		if entry.Description != "" {
			event.SetDescription(entry.Description)
		}
		if entry.Location != "" {
			event.SetLocation(entry.Location)
		}
		event.SetAllDayStartAt(entry.Start)
		// DTEND of an all-day event is exclusive.
		event.SetAllDayEndAt(end.AddDate(0, 0, 1))
	}

	return cal.Serialize()
}

// Conferences lists each event over its dates. Events without a start
// date cannot be placed on a calendar and are left out.
func Conferences(events []model.Event) []Entry {
	entries := []Entry{}
	for _, e := range events {
		if e.StartDate.IsZero() {
			continue
		}
		entries = append(entries, Entry{
			Summary:     e.Abbreviation,
			Description: e.Name,
			Location:    e.Where(),
			Start:       e.StartDate,
			End:         e.EndDate,
		})
	}
	return entries
}

// Deadlines lists the paper deadline of each event, the extended one
// in place of the paper deadline, and the poster deadline when there is one.
func Deadlines(events []model.Event) []Entry {
	entries := []Entry{}
	for _, e := range events {
		switch {
		case e.ExtendedDeadline != nil:
			entries = append(entries, Entry{
				Summary:     fmt.Sprintf("%v Deadline (extended)", e.Abbreviation),
				Description: fmt.Sprintf("Extended paper deadline for %v", e.Name),
				Location:    e.Where(),
				Start:       *e.ExtendedDeadline,
			})
		case e.Deadline != nil:
			entries = append(entries, Entry{
				Summary:     fmt.Sprintf("%v Deadline", e.Abbreviation),
				Description: fmt.Sprintf("Paper deadline for %v", e.Name),
				Location:    e.Where(),
				Start:       *e.Deadline,
			})
		}

		if e.PosterDeadline != nil {
			entries = append(entries, Entry{
				Summary:     fmt.Sprintf("%v Poster Deadline", e.Abbreviation),
				Description: fmt.Sprintf("Poster deadline for %v", e.Name),
				Location:    e.Where(),
				Start:       *e.PosterDeadline,
			})
		}
	}
	return entries
}
