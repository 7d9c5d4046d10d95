package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/communitybot/internal/services"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	conversations *services.ConversationService
	sender        services.Sender
	logger        *zap.Logger
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(conversations *services.ConversationService, sender services.Sender, logger *zap.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{
		conversations: conversations,
		sender:        sender,
		logger:        logger.Named("whatsapp"),
	}
}

// TwilioWebhookPayload represents incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid  string `form:"MessageSid"`
	AccountSid  string `form:"AccountSid"`
	From        string `form:"From"` // WhatsApp number (whatsapp:+919876543210)
	To          string `form:"To"`   // Your Twilio number
	Body        string `form:"Body"` // Message text
	ProfileName string `form:"ProfileName"`
	NumMedia    string `form:"NumMedia"`
}

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status callbacks and media-only messages carry no text
	if payload.From == "" || strings.TrimSpace(payload.Body) == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	from := strings.TrimPrefix(payload.From, "whatsapp:")
	h.logger.Info("message received", zap.String("from", from), zap.String("sid", payload.MessageSid))

	reply, err := h.conversations.HandleMessage(c.UserContext(), from, payload.Body)
	if err != nil {
		// The reply is still sent; only the session update was lost
		h.logger.Error("failed to persist conversation", zap.String("from", from), zap.Error(err))
	}

	if reply != "" {
		if err := h.sender.SendWhatsAppMessage(from, reply); err != nil {
			h.logger.Error("failed to send WhatsApp response", zap.String("to", from), zap.Error(err))
		}
	}

	// Acknowledge webhook receipt
	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload is the JSON body of the development endpoint
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestWebhook runs a message through the bot and returns the reply
// in the response instead of sending it
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil || payload.From == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	reply, err := h.conversations.HandleMessage(c.UserContext(), payload.From, payload.Message)
	if err != nil {
		h.logger.Error("failed to persist conversation", zap.String("from", payload.From), zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"success":  err == nil,
		"response": reply,
	})
}
