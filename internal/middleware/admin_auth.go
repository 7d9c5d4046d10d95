package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// RequireAdminKey rejects requests without the configured X-Admin-Key header
func RequireAdminKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		given := c.Get("X-Admin-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid admin key",
			})
		}
		return c.Next()
	}
}
