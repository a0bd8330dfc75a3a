package handlers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"secconfdb/query"
	"secconfdb/sanitize"
)

const formDate = "2006-1-2"

var (
	validDate   = regexp.MustCompile(`^[0-9]{4}-[0-9]{1,2}-[0-9]{1,2}$`)
	validURL    = regexp.MustCompile(`^https?://[A-Za-z0-9\-_./]+$`)
	validAbbrev = regexp.MustCompile(`^[A-Za-z0-9\-]+$`)
	validText   = regexp.MustCompile(`^[A-Za-z0-9, \-_.()]*$`)
	validTags   = regexp.MustCompile(`^[a-z ,]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("confdate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !validDate.MatchString(s) {
			return false
		}
		_, err := time.Parse(formDate, s)
		return err == nil
	})
	v.RegisterValidation("confurl", matches(validURL))
	v.RegisterValidation("abbrev", matches(validAbbrev))
	v.RegisterValidation("safetext", matches(validText))
	v.RegisterValidation("tagnames", matches(validTags))
	return v
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// ValidationError is a form value the editor has to correct.
type ValidationError struct {
	Field string
	Value string
	Rule  string
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case "confdate":
		return fmt.Sprintf("'%v' is not a valid date (YYYY-MM-DD)", e.Value)
	case "confurl":
		return fmt.Sprintf("'%v' is not a valid URL", e.Value)
	case "abbrev":
		return fmt.Sprintf("'%v' is not a valid conference abbreviation", e.Value)
	case "safetext", "tagnames":
		return fmt.Sprintf("'%v' is not database-safe text", e.Value)
	case "required":
		return fmt.Sprintf("%v is required", e.Field)
	case "key":
		return fmt.Sprintf("'%v' is not the key of this table", e.Value)
	}
	return fmt.Sprintf("invalid value '%v' for %v", e.Value, e.Field)
}

func checkStruct(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return err
	}
	first := fieldErrs[0]
	return &ValidationError{
		Field: strings.ToLower(first.Field()),
		Value: fmt.Sprint(first.Value()),
		Rule:  first.Tag(),
	}
}

func checkVar(field, value, rule string) error {
	if err := validate.Var(value, rule); err != nil {
		return &ValidationError{Field: field, Value: value, Rule: rule}
	}
	return nil
}

// EventForm is a conference instance as posted by the editor or the API.
type EventForm struct {
	ID           int64  `form:"id" json:"id"`
	Conference   int    `form:"conference" json:"conference"`
	Abbreviation string `form:"abbreviation" json:"abbreviation" validate:"omitempty,abbrev"`
	Start        string `form:"start" json:"start" validate:"omitempty,confdate"`
	End          string `form:"end" json:"end" validate:"omitempty,confdate"`
	Deadline     string `form:"deadline" json:"deadline" validate:"omitempty,confdate"`
	Extended     string `form:"extended" json:"extended" validate:"omitempty,confdate"`
	Poster       string `form:"poster" json:"poster" validate:"omitempty,confdate"`
	URL          string `form:"url" json:"url" validate:"omitempty,confurl"`
	Proceedings  string `form:"proc" json:"proceedings" validate:"omitempty,confurl"`
	Location     int    `form:"location" json:"location" validate:"required"`
}

func (f *EventForm) Validate() error {
	trim(&f.Abbreviation, &f.Start, &f.End, &f.Deadline, &f.Extended, &f.Poster, &f.URL, &f.Proceedings)
	return checkStruct(f)
}

// Row maps the form onto ConferenceInstances. Empty fields become NULL.
func (f EventForm) Row() query.Row {
	return query.Row{}.
		Add("startDate", nullDate(f.Start)).
		Add("endDate", nullDate(f.End)).
		Add("deadline", nullDate(f.Deadline)).
		Add("extendedDeadline", nullDate(f.Extended)).
		Add("posterDeadline", nullDate(f.Poster)).
		Add("url", nullString(f.URL)).
		Add("proceedings", nullString(f.Proceedings)).
		Add("location", f.Location)
}

// ConferenceForm is a conference as posted by the editor.
type ConferenceForm struct {
	ID           int64  `form:"id" json:"id"`
	Name         string `form:"name" json:"name" validate:"required"`
	Abbreviation string `form:"abbrev" json:"abbreviation" validate:"required,abbrev"`
	Description  string `form:"desc" json:"description"`
	URL          string `form:"url" json:"url" validate:"omitempty,confurl"`
	Type         int    `form:"type" json:"type"`
	Parent       int    `form:"parent" json:"parent"`
	Tags         string `form:"tags" json:"tags" validate:"omitempty,tagnames"`
}

func (f *ConferenceForm) Validate() error {
	f.Name = sanitize.Text(f.Name)
	f.Description = sanitize.Text(f.Description)
	trim(&f.Abbreviation, &f.URL, &f.Tags)

	if err := checkStruct(f); err != nil {
		return err
	}
	if f.ID != 0 && int64(f.Parent) == f.ID {
		return &ValidationError{Field: "parent", Value: fmt.Sprint(f.Parent), Rule: "parent"}
	}
	return nil
}

// TagNames lists the tags typed into the form, e.g. "privacy, crypto".
func (f ConferenceForm) TagNames() []string {
	names := splitNames(f.Tags)
	sort.Strings(names)
	return names
}

// Row maps the form onto Conferences; tagIDs is the resolved tag list.
func (f ConferenceForm) Row(tagIDs string) query.Row {
	return query.Row{}.
		Add("name", f.Name).
		Add("abbreviation", f.Abbreviation).
		Add("description", nullString(f.Description)).
		Add("permanentURL", nullString(f.URL)).
		Add("meeting-type", nullInt(f.Type)).
		Add("parent", nullInt(f.Parent)).
		Add("tags", tagIDs)
}

// simpleValue checks one cell of a lookup table row: links must be URLs,
// everything else plain text.
func simpleValue(column, value string) error {
	if strings.HasPrefix(value, "http") {
		return checkVar(column, value, "confurl")
	}
	return checkVar(column, value, "safetext")
}

func splitNames(s string) []string {
	names := []string{}
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func trim(fields ...*string) {
	for _, field := range fields {
		*field = strings.TrimSpace(*field)
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(i int) any {
	if i == 0 {
		return nil
	}
	return i
}

// nullDate normalises a validated date to YYYY-MM-DD.
func nullDate(s string) any {
	if s == "" {
		return nil
	}
	date, err := time.Parse(formDate, s)
	if err != nil {
		return s
	}
	return date.Format("2006-01-02")
}
