package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"medisync/internal/session"
)

// SessionAuth rejects requests without a valid session and hands the
// authenticated principal to downstream handlers via request locals.
func SessionAuth(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := sessions.Authenticate(c)
		if err != nil {
			if errors.Is(err, session.ErrUnauthenticated) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"message": "Unauthorized",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Internal server error",
			})
		}

		c.Locals("principal", principal)
		return c.Next()
	}
}
