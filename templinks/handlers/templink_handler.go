// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
	imageModels "github.com/qolzam/imagehost/images/models"
	"github.com/qolzam/imagehost/internal/types"
	linkErrors "github.com/qolzam/imagehost/templinks/errors"
	"github.com/qolzam/imagehost/templinks/models"
	"github.com/qolzam/imagehost/templinks/services"
)

// TempLinkHandler handles issuing and redeeming temporary links
type TempLinkHandler struct {
	tempLinkService services.TempLinkService
}

// NewTempLinkHandler creates a new TempLinkHandler with injected dependencies
func NewTempLinkHandler(tempLinkService services.TempLinkService) *TempLinkHandler {
	return &TempLinkHandler{tempLinkService: tempLinkService}
}

// Issue creates a temporary link to one of the caller's images
// POST /images/temp-links
func (h *TempLinkHandler) Issue(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return linkErrors.HandleUserContextError(c)
	}

	// tier gate comes before the body is looked at
	if err := h.tempLinkService.Authorize(c.UserContext(), user); err != nil {
		return linkErrors.HandleServiceError(c, err)
	}

	var req models.IssueRequest
	if err := c.BodyParser(&req); err != nil {
		return linkErrors.HandleValidationError(c, "Invalid request body")
	}

	resp, err := h.tempLinkService.Issue(c.UserContext(), user, req)
	if err != nil {
		return linkErrors.HandleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Fetch redeems a token for the original image
// GET /images/binary/:token
func (h *TempLinkHandler) Fetch(c *fiber.Ctx) error {
	data, err := h.tempLinkService.ValidateAndFetch(c.UserContext(), c.Params("token"))
	if err != nil {
		return linkErrors.HandleServiceError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(imageModels.BinaryResponse{BinaryImage: base64.StdEncoding.EncodeToString(data)})
}
