package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/communitybot/internal/models"
	"github.com/Ananth-NQI/communitybot/internal/profile"
	"github.com/Ananth-NQI/communitybot/internal/storage"
)

// AdminHandler manages the member directory and exposes the query log
type AdminHandler struct {
	store    storage.Store
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		store:    store,
		validate: validator.New(),
		logger:   logger.Named("admin"),
	}
}

// CreateMemberRequest is the body of POST /admin/members
type CreateMemberRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Phone      string `json:"phone" validate:"required,e164"`
	Profession string `json:"profession" validate:"max=200"`
	Company    string `json:"company" validate:"max=200"`
	LinkedIn   string `json:"linkedin"`
	Instagram  string `json:"instagram"`
	Address    string `json:"address"`
	Verified   bool   `json:"verified"`
}

// CreateMember adds a member to the directory
func (h *AdminHandler) CreateMember(c *fiber.Ctx) error {
	var req CreateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Phone = models.NormalizePhone(req.Phone)
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	member := &models.Member{
		Name:       req.Name,
		Phone:      req.Phone,
		Profession: req.Profession,
		Company:    req.Company,
		Verified:   req.Verified,
		IsActive:   true,
	}

	// Profile fields go through the same validators the bot uses
	for field, raw := range map[profile.Field]string{
		profile.FieldLinkedIn:  req.LinkedIn,
		profile.FieldInstagram: req.Instagram,
		profile.FieldAddress:   req.Address,
	} {
		if raw == "" {
			continue
		}
		result := profile.ValidateField(field, raw)
		if !result.Valid {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": result.Message,
				"field": field,
			})
		}
		member.SetField(field, result.Value)
	}

	if _, err := h.store.GetMemberByPhone(c.UserContext(), member.Phone); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Member with this phone already exists",
		})
	}

	created, err := h.store.CreateMember(c.UserContext(), member)
	if err != nil {
		h.logger.Error("failed to create member", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create member",
		})
	}

	h.logger.Info("member created", zap.String("member_id", created.MemberID), zap.Bool("verified", created.Verified))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"member":  created,
	})
}

// GetMember looks a member up by phone number
func (h *AdminHandler) GetMember(c *fiber.Ctx) error {
	member, err := h.store.GetMemberByPhone(c.UserContext(), c.Params("phone"))
	if errors.Is(err, storage.ErrMemberNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Member not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch member",
		})
	}

	return c.JSON(fiber.Map{
		"success":                    true,
		"member":                     member,
		"enhanced_profile_completed": member.EnhancedProfileCompleted(),
	})
}

// UpdateStatusRequest is the body of PATCH /admin/members/:memberID
type UpdateStatusRequest struct {
	Verified *bool `json:"verified"`
	IsActive *bool `json:"is_active"`
}

// UpdateMemberStatus verifies, suspends or reactivates a member
func (h *AdminHandler) UpdateMemberStatus(c *fiber.Ctx) error {
	memberID := c.Params("memberID")

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Verified == nil && req.IsActive == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to update",
		})
	}

	member, err := h.store.UpdateMemberStatus(c.UserContext(), memberID, req.Verified, req.IsActive)
	if errors.Is(err, storage.ErrMemberNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Member not found",
		})
	}
	if err != nil {
		h.logger.Error("failed to update member status", zap.String("member_id", memberID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update member",
		})
	}

	h.logger.Info("member status updated",
		zap.String("member_id", memberID),
		zap.Bool("verified", member.Verified),
		zap.Bool("is_active", member.IsActive))
	return c.JSON(fiber.Map{
		"success": true,
		"member":  member,
	})
}

// GetQueryLogs returns the search audit trail, optionally for one session
func (h *AdminHandler) GetQueryLogs(c *fiber.Ctx) error {
	logs, err := h.store.GetQueryLogs(c.UserContext(), c.Query("session_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch query logs",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"logs":    logs,
		"count":   len(logs),
	})
}
