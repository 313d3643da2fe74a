// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/imagehost/internal/types"
	tierErrors "github.com/qolzam/imagehost/tiers/errors"
	"github.com/qolzam/imagehost/tiers/models"
	"github.com/qolzam/imagehost/tiers/services"
)

// TierHandler handles tier introspection and assignment
type TierHandler struct {
	tierService services.TierService
}

// NewTierHandler creates a new TierHandler with injected dependencies
func NewTierHandler(tierService services.TierService) *TierHandler {
	return &TierHandler{tierService: tierService}
}

// ListTiers returns every tier
// GET /tiers
func (h *TierHandler) ListTiers(c *fiber.Ctx) error {
	tiers := h.tierService.ListTiers(c.UserContext())
	out := make([]models.TierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, t.ToResponse())
	}
	return c.JSON(fiber.Map{"tiers": out})
}

// MyTier returns the caller's effective tier
// GET /tiers/me
func (h *TierHandler) MyTier(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return tierErrors.HandleUserContextError(c)
	}

	tier, assigned, err := h.tierService.EffectiveTier(c.UserContext(), user.UserID)
	if err != nil {
		return tierErrors.HandleServiceError(c, err)
	}

	return c.JSON(models.MyTierResponse{
		Tier:     tier.ToResponse(),
		Assigned: assigned,
	})
}

// AssignTier sets or clears a user's tier
// PUT /admin/users/:userId/tier
func (h *TierHandler) AssignTier(c *fiber.Ctx) error {
	userID, err := uuid.FromString(c.Params("userId"))
	if err != nil {
		return tierErrors.HandleUUIDError(c, "user id")
	}

	var req models.AssignTierRequest
	if err := c.BodyParser(&req); err != nil {
		return tierErrors.HandleValidationError(c, "Invalid request body")
	}

	if err := h.tierService.AssignTier(c.UserContext(), userID, req.TierID); err != nil {
		return tierErrors.HandleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
