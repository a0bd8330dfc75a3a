package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"secconfdb/errors"
	"secconfdb/handlers"
	"secconfdb/metrics"
	"secconfdb/middleware"
	"secconfdb/view"
)

func NewApp(log *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "secconfdb",
		Views:        view.NewEngine(),
		ErrorHandler: errors.Handler(log),
	})
}

func SetupRoutes(app *fiber.App, h *handlers.Handler, accounts middleware.Authenticator, sign string, log *zap.Logger) {
	app.Use(middleware.Metrics())
	app.Use(middleware.RequestLogger(log))
	app.Use(recover.New())

	app.Get("/healthz", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	//Public pages
	app.Get("/", h.Main)
	app.Get("/conference/:abbreviation", h.Conference)
	app.Get("/preferences", h.Preferences)
	app.Post("/setprefs", h.SetPreferences)
	app.Get("/most_recent", h.MostRecent)

	//Calendars
	app.Get("/conferences.ics", h.ConferenceCalendar)
	app.Get("/deadlines.ics", h.DeadlineCalendar)

	//Editing
	edit := app.Group("/edit", middleware.RequireEditor(accounts, log), middleware.CSRF())
	edit.Get("/conferences", h.EditConferences)
	edit.Post("/create_conference", h.CreateConference)
	edit.Get("/conference/:abbreviation", h.EditConference)
	edit.Post("/conference/create_event", h.CreateEvent)
	edit.Post("/conference/update_event", h.UpdateEvent)
	edit.Post("/conference/update_conference", h.UpdateConference)
	edit.Get("/simple/:table", h.EditSimple)
	edit.Post("/update", h.UpdateSimple)
	edit.Post("/create", h.CreateSimple)

	//Login
	app.Post("/login", h.Login)

	//API
	api := app.Group("/api")
	api.Get("/conferences", h.APIConferences)
	api.Get("/conferences/:abbreviation", h.APIConference)
	api.Get("/upcoming", h.APIUpcoming)
	api.Get("/deadlines", h.APIDeadlines)

	events := api.Group("/events", middleware.Authorize(sign))
	events.Post("/", h.APICreateEvent)
	events.Put("/:id", h.APIUpdateEvent)

	app.Use(func(c *fiber.Ctx) error {
		return errors.RaiseNotFoundError(c, c.Path())
	})
}
