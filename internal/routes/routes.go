package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/communitybot/internal/config"
	"github.com/Ananth-NQI/communitybot/internal/handlers"
	"github.com/Ananth-NQI/communitybot/internal/middleware"
)

// Handlers groups everything SetupRoutes mounts
type Handlers struct {
	WhatsApp *handlers.WhatsAppHandler
	Health   *handlers.HealthHandler
	Admin    *handlers.AdminHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, cfg *config.Config, h Handlers, logger *zap.Logger) {
	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Community directory bot",
			"version": h.Health.Version,
			"endpoints": fiber.Map{
				"health":  "/health",
				"webhook": "/webhook/whatsapp",
			},
		})
	})

	app.Get("/health", h.Health.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	if cfg.ValidateWebhooks() {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(cfg.TwilioAuthToken, logger), h.WhatsApp.HandleWebhook)
	} else {
		// Development: Skip validation for ngrok
		logger.Warn("WhatsApp webhook signature validation disabled")
		webhooks.Post("/whatsapp", h.WhatsApp.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if cfg.Environment != "production" {
		app.Post("/test/whatsapp", h.WhatsApp.HandleTestWebhook)
	}

	// ========== ADMIN ROUTES ==========
	if cfg.AdminAPIKey == "" {
		logger.Info("admin API disabled, ADMIN_API_KEY not set")
		return
	}
	admin := app.Group("/admin", middleware.RequireAdminKey(cfg.AdminAPIKey))
	admin.Post("/members", h.Admin.CreateMember)
	admin.Get("/members/:phone", h.Admin.GetMember)
	admin.Patch("/members/:memberID", h.Admin.UpdateMemberStatus)
	admin.Get("/query-logs", h.Admin.GetQueryLogs)
}
