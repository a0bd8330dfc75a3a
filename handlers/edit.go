package handlers

import (
	stdErrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"secconfdb/database"
	"secconfdb/errors"
	"secconfdb/middleware"
	"secconfdb/model"
	"secconfdb/query"
)

const (
	CONFERENCES_TABLE = "Conferences"
	EVENTS_TABLE      = "ConferenceInstances"

	TABLE_NAME_FIELD = "table name"
	TABLE_KEY_FIELD  = "table key"
)

func (h *Handler) EditConferences(c *fiber.Ctx) error {
	ctx := c.UserContext()

	conferences, err := h.catalog.Conferences(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	conferences, tags, err := h.withTagNames(ctx, conferences)
	if err != nil {
		return h.fail(c, err)
	}
	meetingTypes, err := h.catalog.MeetingTypes(ctx)
	if err != nil {
		return h.fail(c, err)
	}

	return h.render(c, "edit/conferences", "Edit conferences", fiber.Map{
		"Conferences":  conferences,
		"AllTags":      tagNames(tags),
		"MeetingTypes": meetingTypes,
		"SimpleTables": database.SimpleTables,
	})
}

func (h *Handler) CreateConference(c *fiber.Ctx) error {
	form := new(ConferenceForm)
	if err := c.BodyParser(form); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable conference parameters: %v", err))
	}
	form.ID = 0

	row, err := h.conferenceRow(c, form)
	if err != nil {
		return h.fail(c, err)
	}

	id, err := h.catalog.Create(c.UserContext(), CONFERENCES_TABLE, row)
	h.recordEdit(c, middleware.Editor(c), model.ActionCreate, CONFERENCES_TABLE, id, row, err)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Redirect("/edit/conference/" + form.Abbreviation)
}

func (h *Handler) EditConference(c *fiber.Ctx) error {
	ctx := c.UserContext()

	conference, events, err := h.catalog.ConferenceEvents(ctx, c.Params("abbreviation"))
	if err != nil {
		return h.fail(c, err)
	}
	conferences, err := h.catalog.Conferences(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	locations, err := h.catalog.Locations(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	meetingTypes, err := h.catalog.MeetingTypes(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	tags, err := h.catalog.Tags(ctx, nil)
	if err != nil {
		return h.fail(c, err)
	}

	return h.render(c, "edit/conference", "Edit "+conference.Abbreviation, fiber.Map{
		"Conference":   conference,
		"Events":       events,
		"Conferences":  conferences,
		"Locations":    locations,
		"MeetingTypes": meetingTypes,
		"AllTags":      tagNames(tags),
	})
}

func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	form := new(EventForm)
	if err := c.BodyParser(form); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable event parameters: %v", err))
	}

	id, err := h.createEvent(c, form, middleware.Editor(c))
	if err != nil {
		return h.fail(c, err)
	}

	abbreviation, err := h.eventAbbreviation(c, form.Abbreviation, int(id))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Redirect("/edit/conference/" + abbreviation)
}

func (h *Handler) UpdateEvent(c *fiber.Ctx) error {
	form := new(EventForm)
	if err := c.BodyParser(form); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable event parameters: %v", err))
	}

	if err := h.updateEvent(c, form, middleware.Editor(c)); err != nil {
		return h.fail(c, err)
	}

	abbreviation, err := h.eventAbbreviation(c, form.Abbreviation, int(form.ID))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Redirect("/edit/conference/" + abbreviation)
}

func (h *Handler) UpdateConference(c *fiber.Ctx) error {
	form := new(ConferenceForm)
	if err := c.BodyParser(form); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable conference parameters: %v", err))
	}
	if form.ID <= 0 {
		return h.fail(c, &ValidationError{Field: "id", Rule: "required"})
	}

	row, err := h.conferenceRow(c, form)
	if err != nil {
		return h.fail(c, err)
	}

	err = h.catalog.Update(c.UserContext(), CONFERENCES_TABLE, form.ID, row)
	h.recordEdit(c, middleware.Editor(c), model.ActionUpdate, CONFERENCES_TABLE, form.ID, row, err)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Redirect("/edit/conference/" + form.Abbreviation)
}

func (h *Handler) EditSimple(c *fiber.Ctx) error {
	table, err := h.catalog.SimpleTable(c.UserContext(), c.Params("table"))
	if stdErrors.Is(err, database.ErrUnknownTable) {
		return errors.RaiseNotFoundError(c, err.Error())
	}
	if err != nil {
		return h.fail(c, err)
	}

	return h.render(c, "edit/simple", "Edit "+table.Name, fiber.Map{
		"Table": table,
	})
}

// UpdateSimple saves one row of a lookup table. Every posted column other
// than the key is written; empty cells become NULL.
func (h *Handler) UpdateSimple(c *fiber.Ctx) error {
	table, key, values, err := simpleForm(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := checkVar(TABLE_KEY_FIELD, key, "abbrev"); err != nil {
		return h.fail(c, err)
	}
	if expected, _ := database.TableKey(table); key != expected {
		return h.fail(c, &ValidationError{Field: TABLE_KEY_FIELD, Value: key, Rule: "key"})
	}

	id, err := strconv.ParseInt(values[key], 10, 64)
	if err != nil {
		return h.fail(c, &ValidationError{Field: key, Value: values[key], Rule: "id"})
	}

	row := query.Row{}
	for _, column := range sortedColumns(values) {
		if column == key {
			continue
		}
		row = row.Add(column, nullString(values[column]))
	}

	err = h.catalog.Update(c.UserContext(), table, id, row)
	h.recordEdit(c, middleware.Editor(c), model.ActionUpdate, table, id, row, err)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Redirect("/edit/simple/" + table)
}

// CreateSimple adds a row to a lookup table from its non-empty cells.
func (h *Handler) CreateSimple(c *fiber.Ctx) error {
	table, _, values, err := simpleForm(c)
	if err != nil {
		return h.fail(c, err)
	}

	row := query.Row{}
	for _, column := range sortedColumns(values) {
		if values[column] == "" {
			continue
		}
		row = row.Add(column, values[column])
	}

	id, err := h.catalog.Create(c.UserContext(), table, row)
	h.recordEdit(c, middleware.Editor(c), model.ActionCreate, table, id, row, err)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Redirect("/edit/simple/" + table)
}

// simpleForm reads a lookup table form: the table name and key column
// travel in "table name" and "table key", every other field is a column.
func simpleForm(c *fiber.Ctx) (string, string, map[string]string, error) {
	args := c.Request().PostArgs()
	table := strings.TrimSpace(string(args.Peek(TABLE_NAME_FIELD)))
	key := strings.TrimSpace(string(args.Peek(TABLE_KEY_FIELD)))

	if err := checkVar(TABLE_NAME_FIELD, table, "abbrev"); err != nil {
		return "", "", nil, err
	}
	if !database.IsSimpleTable(table) {
		return "", "", nil, fmt.Errorf("%v: %w", table, database.ErrUnknownTable)
	}

	values := map[string]string{}
	var formErr error
	args.VisitAll(func(k, v []byte) {
		column := string(k)
		if formErr != nil || strings.HasPrefix(column, "table ") || column == middleware.CSRF_FIELD {
			return
		}
		value := strings.TrimSpace(string(v))
		if err := checkVar("column", column, "abbrev"); err != nil {
			formErr = err
			return
		}
		if err := simpleValue(column, value); err != nil {
			formErr = err
			return
		}
		values[column] = value
	})
	if formErr != nil {
		return "", "", nil, formErr
	}
	return table, key, values, nil
}

func (h *Handler) conferenceRow(c *fiber.Ctx, form *ConferenceForm) (query.Row, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	tagIDs, err := h.tagIDs(c.UserContext(), form.TagNames())
	if err != nil {
		return nil, err
	}
	return form.Row(model.JoinTagIDs(tagIDs)), nil
}

func (h *Handler) createEvent(c *fiber.Ctx, form *EventForm, editor string) (int64, error) {
	if err := form.Validate(); err != nil {
		return 0, err
	}
	if form.Conference <= 0 {
		return 0, &ValidationError{Field: "conference", Rule: "required"}
	}

	row := form.Row().Add("conference", form.Conference)
	id, err := h.catalog.Create(c.UserContext(), EVENTS_TABLE, row)
	h.recordEdit(c, editor, model.ActionCreate, EVENTS_TABLE, id, row, err)
	return id, err
}

func (h *Handler) updateEvent(c *fiber.Ctx, form *EventForm, editor string) error {
	if form.ID <= 0 {
		return &ValidationError{Field: "id", Rule: "required"}
	}
	if err := form.Validate(); err != nil {
		return err
	}

	row := form.Row()
	err := h.catalog.Update(c.UserContext(), EVENTS_TABLE, form.ID, row)
	h.recordEdit(c, editor, model.ActionUpdate, EVENTS_TABLE, form.ID, row, err)
	return err
}

// eventAbbreviation is where to send the editor after an event changed:
// the posted abbreviation, or the one the stored event belongs to.
func (h *Handler) eventAbbreviation(c *fiber.Ctx, posted string, instance int) (string, error) {
	if posted != "" {
		return posted, nil
	}
	event, err := h.catalog.Event(c.UserContext(), instance)
	if err != nil {
		return "", err
	}
	return event.Abbreviation, nil
}

func sortedColumns(values map[string]string) []string {
	columns := make([]string, 0, len(values))
	for column := range values {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

func tagNames(tags []model.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}
