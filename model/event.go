package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2 Jan 2006"

// Event is one occurrence of a conference (a conference instance).
type Event struct {
	Instance         int        `json:"instance"`
	URL              string     `json:"url"`
	ConferenceID     int        `json:"conference"`
	Abbreviation     string     `json:"abbreviation"`
	Name             string     `json:"name"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          time.Time  `json:"end_date"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	ExtendedDeadline *time.Time `json:"extended_deadline,omitempty"`
	PosterDeadline   *time.Time `json:"poster_deadline,omitempty"`
	LocationID       int        `json:"location_id"`
	Location         string     `json:"location"`
	Region           string     `json:"region,omitempty"`
	RegionCode       string     `json:"region_code,omitempty"`
	Country          string     `json:"country"`
	Proceedings      string     `json:"proceedings,omitempty"`
	ConferenceURL    string     `json:"conference_url,omitempty"`
}

// When pretty-prints the dates, e.g. "27 Feb-2 Mar 2012".
func (e Event) When() string {
	if e.StartDate.IsZero() {
		return ""
	}

	start, end := e.StartDate, e.EndDate
	if end.IsZero() {
		end = start
	}

	s := ""
	switch {
	case start.Year() != end.Year():
		s = start.Format(DateLayout) + "-"
	case start.Month() != end.Month():
		s = start.Format("2 Jan") + "-"
	case start.Day() != end.Day():
		s = strconv.Itoa(start.Day()) + "-"
	}

	return s + end.Format(DateLayout)
}

func (e Event) Where() string {
	return joinPlace(e.Location, e.Region, e.Country)
}

// FormatDeadline renders the paper deadline, or the "extended" or "poster"
// one. Unknown dates render empty.
func (e Event) FormatDeadline(which string) string {
	var date *time.Time
	switch which {
	case "":
		date = e.Deadline
	case "extended":
		date = e.ExtendedDeadline
	case "poster":
		date = e.PosterDeadline
	}

	if date == nil {
		return ""
	}
	return date.Format(DateLayout)
}

// EffectiveDeadline is the extended paper deadline if there is one.
func (e Event) EffectiveDeadline() *time.Time {
	if e.ExtendedDeadline != nil {
		return e.ExtendedDeadline
	}
	return e.Deadline
}

func (e Event) String() string {
	return fmt.Sprintf("%v: %v in %v", e.Abbreviation, e.When(), e.Where())
}

func joinPlace(parts ...string) string {
	present := []string{}
	for _, part := range parts {
		if part != "" {
			present = append(present, part)
		}
	}
	return strings.Join(present, ", ")
}
