package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"secconfdb/errors"
	"secconfdb/middleware"
	"secconfdb/model"
)

func success(c *fiber.Ctx, message string, data any) error {
	return c.JSON(fiber.Map{"status": "success", "message": message, "data": data})
}

func (h *Handler) APIConferences(c *fiber.Ctx) error {
	ctx := c.UserContext()

	conferences, err := h.catalog.Conferences(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	conferences, _, err = h.withTagNames(ctx, conferences)
	if err != nil {
		return h.fail(c, err)
	}

	return success(c, "conferences", conferences)
}

func (h *Handler) APIConference(c *fiber.Ctx) error {
	conference, events, err := h.catalog.ConferenceEvents(c.UserContext(), c.Params("abbreviation"))
	if err != nil {
		return h.fail(c, err)
	}

	return success(c, "conference", fiber.Map{
		"conference": conference,
		"events":     events,
	})
}

// APIUpcoming lists upcoming events, filtered by ?tags=a,b when given.
func (h *Handler) APIUpcoming(c *fiber.Ctx) error {
	tagIDs, err := h.tagIDs(c.UserContext(), splitNames(c.Query("tags")))
	if err != nil {
		return h.fail(c, err)
	}
	events, err := h.catalog.Upcoming(c.UserContext(), tagIDs)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "upcoming events", events)
}

func (h *Handler) APIDeadlines(c *fiber.Ctx) error {
	tagIDs, err := h.tagIDs(c.UserContext(), splitNames(c.Query("tags")))
	if err != nil {
		return h.fail(c, err)
	}
	events, err := h.catalog.Deadlines(c.UserContext(), tagIDs)
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "upcoming deadlines", events)
}

func (h *Handler) APICreateEvent(c *fiber.Ctx) error {
	editor, ok := h.apiEditor(c)
	if !ok {
		return errors.RaisePermissionsError(c, "only editors can change events")
	}

	form := new(EventForm)
	if err := c.BodyParser(form); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable event parameters: %v", err))
	}

	id, err := h.createEvent(c, form, editor)
	if err != nil {
		return h.fail(c, err)
	}

	event, err := h.catalog.Event(c.UserContext(), int(id))
	if err != nil {
		return h.fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	return success(c, "event created", event)
}

func (h *Handler) APIUpdateEvent(c *fiber.Ctx) error {
	editor, ok := h.apiEditor(c)
	if !ok {
		return errors.RaisePermissionsError(c, "only editors can change events")
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("invalid event id %v", c.Params("id")))
	}

	form := new(EventForm)
	if err := c.BodyParser(form); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("unacceptable event parameters: %v", err))
	}
	form.ID = id

	if _, err := h.catalog.Event(c.UserContext(), int(id)); err != nil {
		return h.fail(c, err)
	}
	if err := h.updateEvent(c, form, editor); err != nil {
		return h.fail(c, err)
	}

	event, err := h.catalog.Event(c.UserContext(), int(id))
	if err != nil {
		return h.fail(c, err)
	}
	return success(c, "event updated", event)
}

func (h *Handler) apiEditor(c *fiber.Ctx) (string, bool) {
	login, role := middleware.Claims(c)
	user := model.UserData{Login: login, Role: role}
	return login, login != "" && user.CanEdit()
}
