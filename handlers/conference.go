package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"secconfdb/errors"
)

// Main lists deadlines, upcoming and recent events for the selected tags.
func (h *Handler) Main(c *fiber.Ctx) error {
	ctx := c.UserContext()
	names := h.selectedTags(c)

	tagIDs, err := h.tagIDs(ctx, names)
	if err != nil {
		return h.fail(c, err)
	}

	deadlines, err := h.catalog.Deadlines(ctx, tagIDs)
	if err != nil {
		return h.fail(c, err)
	}
	upcoming, err := h.catalog.Upcoming(ctx, tagIDs)
	if err != nil {
		return h.fail(c, err)
	}
	recent, err := h.catalog.Recent(ctx, tagIDs)
	if err != nil {
		return h.fail(c, err)
	}

	return h.render(c, "main", "Security conferences", fiber.Map{
		"Tags":      names,
		"Deadlines": deadlines,
		"Upcoming":  upcoming,
		"Recent":    recent,
	})
}

// Conference shows one conference and all of its events.
func (h *Handler) Conference(c *fiber.Ctx) error {
	abbreviation := c.Params("abbreviation")

	conference, events, err := h.catalog.ConferenceEvents(c.UserContext(), abbreviation)
	if err != nil {
		return h.fail(c, err)
	}
	if len(events) == 0 {
		return errors.RaiseNotFoundError(c, fmt.Sprintf("no events for conference %v", abbreviation))
	}

	return h.render(c, "conference", conference.Label(), fiber.Map{
		"Conference": conference,
		"Events":     events,
	})
}

// MostRecent lists the latest event of every conference, stalest first,
// to show which conferences need a new instance.
func (h *Handler) MostRecent(c *fiber.Ctx) error {
	events, err := h.catalog.MostRecent(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}

	return h.render(c, "most_recent", "Most recent events", fiber.Map{
		"Events": events,
	})
}
