package view

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/template/html/v2"
)

const ISODate = "2006-01-02"

//go:embed templates
var templates embed.FS

// NewEngine loads the page templates compiled into the binary.
func NewEngine() *html.Engine {
	root, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(root), ".html")
	engine.AddFuncMap(map[string]interface{}{
		"soonness": func(date *time.Time) string { return Soonness(date, time.Now()) },
		"isoDate":  IsoDate,
		"day":      Day,
		"join":     strings.Join,
		"isSet":    IsSet,
	})
	return engine
}

// Soonness classifies a deadline by how close it is to today, for styling.
func Soonness(date *time.Time, today time.Time) string {
	if date == nil {
		return "dateUnspecified"
	}

	daysLeft := daysBetween(today, *date)
	switch {
	case daysLeft < 0:
		return "tooLate"
	case daysLeft < 7:
		return "reallySoon"
	case daysLeft < 28:
		return "soon"
	case daysLeft < 90:
		return "notSoon"
	}
	return ""
}

// daysBetween counts calendar days, ignoring the time of day.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// IsoDate renders an optional date as form input, empty when unknown.
func IsoDate(date *time.Time) string {
	if date == nil {
		return ""
	}
	return Day(*date)
}

func Day(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(ISODate)
}

func IsSet(value *int, want int) bool {
	return value != nil && *value == want
}
