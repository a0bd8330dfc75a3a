package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"secconfdb/calendar"
	"secconfdb/metrics"
)

func (h *Handler) ConferenceCalendar(c *fiber.Ctx) error {
	events, err := h.catalog.Upcoming(c.UserContext(), nil)
	if err != nil {
		return h.fail(c, err)
	}

	metrics.CalendarExports.WithLabelValues("conferences").Inc()
	return sendCalendar(c, calendar.Build("Upcoming Conferences", calendar.Conferences(events), time.Now()))
}

func (h *Handler) DeadlineCalendar(c *fiber.Ctx) error {
	events, err := h.catalog.Deadlines(c.UserContext(), nil)
	if err != nil {
		return h.fail(c, err)
	}

	metrics.CalendarExports.WithLabelValues("deadlines").Inc()
	return sendCalendar(c, calendar.Build("Conference Deadlines", calendar.Deadlines(events), time.Now()))
}

func sendCalendar(c *fiber.Ctx, body string) error {
	c.Set(fiber.HeaderContentType, calendar.CONTENT_TYPE)
	return c.SendString(body)
}
