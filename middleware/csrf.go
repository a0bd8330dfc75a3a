package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"secconfdb/errors"
)

const (
	CSRF_KEY    = "csrf"
	CSRF_FIELD  = "_csrf"
	CSRF_COOKIE = "secconfdb_csrf"
)

// CSRF protects the editing forms. Safe requests get a token in a cookie
// and in the context; unsafe ones must post it back in the CSRF_FIELD.
func CSRF() fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:" + CSRF_FIELD,
		CookieName:     CSRF_COOKIE,
		CookiePath:     "/edit",
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		Expiration:     8 * time.Hour,
		ContextKey:     CSRF_KEY,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return errors.RaiseError(c, fiber.StatusForbidden, "forbidden", err.Error())
		},
	})
}

// CSRFToken returns the token issued for the current request, if any.
func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(CSRF_KEY).(string)
	return token
}
