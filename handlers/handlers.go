package handlers

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"secconfdb/database"
	"secconfdb/errors"
	"secconfdb/metrics"
	"secconfdb/middleware"
	"secconfdb/model"
	"secconfdb/query"
)

const (
	LAYOUT      = "layouts/main"
	TAGS_COOKIE = "tags"
)

// Catalog is the conference catalog as the handlers use it.
type Catalog interface {
	Ping(ctx context.Context) error
	Tags(ctx context.Context, names []string) ([]model.Tag, error)
	Deadlines(ctx context.Context, tagIDs []int) ([]model.Event, error)
	Upcoming(ctx context.Context, tagIDs []int) ([]model.Event, error)
	Recent(ctx context.Context, tagIDs []int) ([]model.Event, error)
	MostRecent(ctx context.Context) ([]model.Event, error)
	Event(ctx context.Context, instance int) (model.Event, error)
	ConferenceByID(ctx context.Context, id int) (model.Conference, error)
	ConferenceEvents(ctx context.Context, abbreviation string) (model.Conference, []model.Event, error)
	Conferences(ctx context.Context) ([]model.Conference, error)
	Locations(ctx context.Context) ([]model.Location, error)
	MeetingTypes(ctx context.Context) ([]model.MeetingType, error)
	SimpleTable(ctx context.Context, table string) (model.Table, error)
	Create(ctx context.Context, table string, row query.Row) (int64, error)
	Update(ctx context.Context, table string, id int64, row query.Row) error
}

// Accounts holds editor accounts and the edit history.
type Accounts interface {
	Authenticate(ctx context.Context, login, password string) (model.UserData, error)
	RecordEdit(ctx context.Context, edit model.Edit) error
}

type Options struct {
	DefaultTags []string
	Sign        string
	TokenTTL    time.Duration
}

type Handler struct {
	catalog  Catalog
	accounts Accounts
	log      *zap.Logger
	opts     Options
}

func New(catalog Catalog, accounts Accounts, log *zap.Logger, opts Options) *Handler {
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 8 * time.Hour
	}
	return &Handler{catalog: catalog, accounts: accounts, log: log, opts: opts}
}

// Health reports whether the catalog database answers.
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.catalog.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "error",
			"message": "database unavailable",
			"data":    nil})
	}
	return c.JSON(fiber.Map{"status": "success", "message": "ok", "data": nil})
}

// fail turns an error from a form or the store into a response.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var validationErr *ValidationError
	switch {
	case stdErrors.As(err, &validationErr):
		return errors.RaiseBadRequestError(c, validationErr.Error())
	case stdErrors.Is(err, database.ErrNotFound):
		return errors.RaiseNotFoundError(c, err.Error())
	case stdErrors.Is(err, database.ErrUnauthorized):
		h.log.Warn("database refused access", zap.String("path", c.Path()), zap.Error(err))
		if strings.HasPrefix(c.Path(), "/api/") {
			return errors.RaisePermissionsError(c, "database refused access")
		}
		return errors.RaiseAuthChallenge(c)
	case stdErrors.Is(err, database.ErrConstraint), stdErrors.Is(err, database.ErrUnknownTable):
		return errors.RaiseBadRequestError(c, err.Error())
	}

	h.log.Error("request failed", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
	return errors.RaiseInternalServerError(c, "")
}

func (h *Handler) recordEdit(c *fiber.Ctx, editor, action, table string, id int64, row query.Row, writeErr error) {
	result := "ok"
	if writeErr != nil {
		result = "error"
	}
	metrics.Edits.WithLabelValues(table, action, result).Inc()
	if writeErr != nil {
		return
	}

	values := make(map[string]any, len(row))
	for _, a := range row {
		values[a.Column] = a.Value
	}

	edit := model.Edit{
		Editor:     editor,
		Action:     action,
		Table:      table,
		RowID:      id,
		Values:     values,
		RemoteAddr: c.IP(),
	}
	if err := h.accounts.RecordEdit(c.UserContext(), edit); err != nil {
		h.log.Warn("cannot record edit",
			zap.String("editor", editor),
			zap.String("table", table),
			zap.Int64("id", id),
			zap.Error(err))
	}
}

func (h *Handler) render(c *fiber.Ctx, template, title string, data fiber.Map) error {
	data["Title"] = title
	data["Year"] = time.Now().Year()
	data["CSRF"] = middleware.CSRFToken(c)
	return c.Render(template, data, LAYOUT)
}

// tagIDs resolves tag names to ids. No names means no filtering.
func (h *Handler) tagIDs(ctx context.Context, names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}
	tags, err := h.catalog.Tags(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("cannot read tags: %w", err)
	}
	ids := make([]int, 0, len(tags))
	for _, tag := range tags {
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// withTagNames fills in the tag names of conferences listed without them.
func (h *Handler) withTagNames(ctx context.Context, conferences []model.Conference) ([]model.Conference, []model.Tag, error) {
	tags, err := h.catalog.Tags(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read tags: %w", err)
	}
	names := make(map[int]string, len(tags))
	for _, tag := range tags {
		names[tag.ID] = tag.Name
	}

	for i := range conferences {
		conferences[i].Tags = []string{}
		for _, id := range conferences[i].TagIDs {
			if name, ok := names[id]; ok {
				conferences[i].Tags = append(conferences[i].Tags, name)
			}
		}
	}
	return conferences, tags, nil
}
