package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"secconfdb/config"
)

const (
	ERROR_TEMPLATE = "error"
	LAYOUT         = "layouts/main"
)

// RaiseError answers JSON for the API and an error page for everything else.
func RaiseError(context *fiber.Ctx, status int, message string, data string) error {
	if wantsJSON(context) {
		return context.Status(status).JSON(fiber.Map{
			"status":  "error",
			"message": message,
			"data":    data})
	}

	return context.Status(status).Render(ERROR_TEMPLATE, fiber.Map{
		"Title":   message,
		"Year":    time.Now().Year(),
		"Status":  status,
		"Message": message,
		"Data":    data,
	}, LAYOUT)
}

func RaisePermissionsError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusUnauthorized, "lack of permissions", data)
}

func RaiseInternalServerError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusInternalServerError, "internal error", data)
}

func RaiseBadRequestError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusBadRequest, "bad request", data)
}

func RaiseNotFoundError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusNotFound, "resource not found", data)
}

// RaiseAuthChallenge asks the browser for HTTP Basic credentials.
func RaiseAuthChallenge(context *fiber.Ctx) error {
	context.Set(fiber.HeaderWWWAuthenticate, fmt.Sprintf(`Basic realm="%s"`, config.AUTH_REALM))
	return context.Status(fiber.StatusUnauthorized).SendString("Login required")
}

// Handler renders errors no handler dealt with. Fiber errors keep their
// status; anything else is logged and reported as a 500.
func Handler(log *zap.Logger) fiber.ErrorHandler {
	return func(context *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return RaiseError(context, fiberErr.Code, strings.ToLower(fiberErr.Message), "")
		}

		log.Error("unhandled error",
			zap.String("method", context.Method()),
			zap.String("path", context.Path()),
			zap.Error(err))
		return RaiseInternalServerError(context, "")
	}
}

func wantsJSON(context *fiber.Ctx) bool {
	path := context.Path()
	return strings.HasPrefix(path, "/api/") || path == "/login"
}
