package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/twilio/twilio-go/client"
	"go.uber.org/zap"
)

// ValidateTwilioSignature validates that the webhook request is from Twilio
func ValidateTwilioSignature(authToken string, logger *zap.Logger) fiber.Handler {
	logger = logger.Named("twilio_auth")
	validator := client.NewRequestValidator(authToken)

	return func(c *fiber.Ctx) error {
		// Get Twilio signature from header
		twilioSignature := c.Get("X-Twilio-Signature")
		if twilioSignature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Twilio signature",
			})
		}

		if authToken == "" {
			// Log error but don't expose to client
			logger.Error("TWILIO_AUTH_TOKEN not set, cannot validate webhook")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		// Get all form parameters
		formParams := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			formParams[string(key)] = string(value)
		})

		if !validator.Validate(getFullURL(c), formParams, twilioSignature) {
			logger.Warn("invalid Twilio signature", zap.String("path", c.Path()), zap.String("ip", c.IP()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// getFullURL constructs the URL Twilio called, including the query string
func getFullURL(c *fiber.Ctx) string {
	return fmt.Sprintf("%s://%s%s", c.Protocol(), c.Hostname(), c.OriginalURL())
}
