package handlers

import (
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"secconfdb/database"
	"secconfdb/errors"
)

// Login issues an API token to an editor.
func (h *Handler) Login(c *fiber.Ctx) error {
	type Credentials struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}

	var creds = new(Credentials)

	if err := c.BodyParser(creds); err != nil {
		return errors.RaiseBadRequestError(c, fmt.Sprintf("cannot parse credentials: %v", err))
	}

	user, err := h.accounts.Authenticate(c.UserContext(), creds.Login, creds.Password)
	if stdErrors.Is(err, database.ErrUnauthorized) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid login or password",
			"data":    nil})
	}
	if err != nil {
		return h.fail(c, err)
	}
	if !user.CanEdit() {
		return errors.RaisePermissionsError(c, "only editors can use the API")
	}

	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["username"] = user.Login
	claims["exp"] = time.Now().Add(h.opts.TokenTTL).Unix()
	claims["role"] = user.Role

	t, err := token.SignedString([]byte(h.opts.Sign))
	if err != nil {
		h.log.Error("cannot sign token", zap.String("login", user.Login), zap.Error(err))
		return errors.RaiseInternalServerError(c, "")
	}

	return c.JSON(fiber.Map{"status": "success", "message": "Success login", "data": t})
}
