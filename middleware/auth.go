package middleware

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"secconfdb/config"
	"secconfdb/database"
	"secconfdb/errors"
	"secconfdb/model"
)

const (
	IDENTITY_KEY = "identity"
	EDITOR_KEY   = "username"

	authTimeout = 5 * time.Second
)

// Authenticator checks editor credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (model.UserData, error)
}

// Authorize guards the JSON API with an HS256 token issued by /login.
func Authorize(sign string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(sign),
		ErrorHandler: jwtError,
		ContextKey:   IDENTITY_KEY,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// RequireEditor asks for HTTP Basic credentials of an editor account.
func RequireEditor(accounts Authenticator, log *zap.Logger) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Realm: config.AUTH_REALM,
		Authorizer: func(login, password string) bool {
			ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
			defer cancel()

			user, err := accounts.Authenticate(ctx, login, password)
			if err != nil {
				if !stdErrors.Is(err, database.ErrUnauthorized) {
					log.Error("cannot check editor credentials", zap.String("login", login), zap.Error(err))
				}
				return false
			}
			if !user.CanEdit() {
				log.Warn("account without edit rights", zap.String("login", login), zap.String("role", user.Role))
				return false
			}
			return true
		},
		Unauthorized:    errors.RaiseAuthChallenge,
		ContextUsername: EDITOR_KEY,
	})
}

// Editor is the login that passed RequireEditor.
func Editor(c *fiber.Ctx) string {
	login, _ := c.Locals(EDITOR_KEY).(string)
	return login
}

// Claims returns the login and role carried by the API token.
func Claims(c *fiber.Ctx) (string, string) {
	token, ok := c.Locals(IDENTITY_KEY).(*jwt.Token)
	if !ok {
		return "", ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ""
	}
	login, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	return login, role
}
