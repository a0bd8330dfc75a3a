package handlers

import (
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	TAG_FIELD_PREFIX = "tag:"
	prefsMaxAge      = 10 * 365 * 24 * time.Hour
)

// selectedTags reads the tag filter from the cookie. Without a cookie the
// default tags apply; an empty cookie means no filtering.
func (h *Handler) selectedTags(c *fiber.Ctx) []string {
	var (
		value string
		found bool
	)
	c.Request().Header.VisitAllCookie(func(key, v []byte) {
		if string(key) == TAGS_COOKIE {
			value, found = string(v), true
		}
	})

	if !found {
		names := append([]string{}, h.opts.DefaultTags...)
		sort.Strings(names)
		return names
	}

	names := splitNames(value)
	sort.Strings(names)
	return names
}

func (h *Handler) Preferences(c *fiber.Ctx) error {
	tags, err := h.catalog.Tags(c.UserContext(), nil)
	if err != nil {
		return h.fail(c, err)
	}

	current := map[string]bool{}
	for _, name := range h.selectedTags(c) {
		current[name] = true
	}

	return h.render(c, "prefs", "Preferences", fiber.Map{
		"AllTags": tags,
		"Current": current,
	})
}

// SetPreferences stores the checked tags in a long-lived cookie.
func (h *Handler) SetPreferences(c *fiber.Ctx) error {
	names := []string{}
	c.Request().PostArgs().VisitAll(func(key, _ []byte) {
		if name, ok := strings.CutPrefix(string(key), TAG_FIELD_PREFIX); ok && name != "" {
			names = append(names, name)
		}
	})
	sort.Strings(names)

	c.Cookie(&fiber.Cookie{
		Name:    TAGS_COOKIE,
		Value:   strings.Join(names, ","),
		Path:    "/",
		MaxAge:  int(prefsMaxAge.Seconds()),
		Expires: time.Now().Add(prefsMaxAge),
	})
	return c.Redirect("/")
}
