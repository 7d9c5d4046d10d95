package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter counts live sessions
type SessionCounter interface {
	ActiveSessions(ctx context.Context) (int64, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version          string
	Storage          string
	TwilioConfigured bool

	store    Pinger
	sessions SessionCounter
	logger   *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, storage string, twilioConfigured bool, store Pinger, sessions SessionCounter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		Version:          version,
		Storage:          storage,
		TwilioConfigured: twilioConfigured,
		store:            store,
		sessions:         sessions,
		logger:           logger.Named("health"),
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	status := "healthy"
	statusCode := fiber.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("store unreachable", zap.Error(err))
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
	}

	response := fiber.Map{
		"status":  status,
		"version": h.Version,
		"services": fiber.Map{
			"storage": h.Storage,
			"twilio":  h.TwilioConfigured,
		},
	}
	if statusCode == fiber.StatusOK {
		if active, err := h.sessions.ActiveSessions(ctx); err == nil {
			response["active_sessions"] = active
		}
	}

	return c.Status(statusCode).JSON(response)
}
