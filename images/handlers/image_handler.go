// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"encoding/base64"
	"net/url"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/gorilla/schema"
	imageErrors "github.com/qolzam/imagehost/images/errors"
	"github.com/qolzam/imagehost/images/models"
	"github.com/qolzam/imagehost/images/services"
	"github.com/qolzam/imagehost/internal/types"
)

// ImageHandler handles image upload and retrieval
type ImageHandler struct {
	imageService services.ImageService
	decoder      *schema.Decoder
}

// NewImageHandler creates a new ImageHandler with injected dependencies
func NewImageHandler(imageService services.ImageService) *ImageHandler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &ImageHandler{
		imageService: imageService,
		decoder:      decoder,
	}
}

// Upload stores the raw request body as a new image owned by the caller
// POST /images
func (h *ImageHandler) Upload(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return imageErrors.HandleUserContextError(c)
	}

	// fiber reuses the body buffer after the handler returns
	body := append([]byte(nil), c.Body()...)

	resp, err := h.imageService.Upload(c.UserContext(), user, services.UploadInput{
		Data:     body,
		FileName: c.Get(types.HeaderFilename),
	})
	if err != nil {
		return imageErrors.HandleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List returns the caller's images
// GET /images?limit=&offset=
func (h *ImageHandler) List(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return imageErrors.HandleUserContextError(c)
	}

	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return imageErrors.HandleServiceError(c, imageErrors.NewImageError(imageErrors.ErrInvalidQuery, "%v", err))
	}
	var query models.ListQuery
	if err := h.decoder.Decode(&query, values); err != nil {
		return imageErrors.HandleServiceError(c, imageErrors.NewImageError(imageErrors.ErrInvalidQuery, "%v", err))
	}

	resp, err := h.imageService.List(c.UserContext(), user, query)
	if err != nil {
		return imageErrors.HandleServiceError(c, err)
	}
	return c.JSON(resp)
}

// Get returns one of the caller's images
// GET /images/:imageId
func (h *ImageHandler) Get(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return imageErrors.HandleUserContextError(c)
	}

	imageID, err := uuid.FromString(c.Params("imageId"))
	if err != nil {
		return imageErrors.HandleUUIDError(c, "image id")
	}

	resp, err := h.imageService.Get(c.UserContext(), user, imageID)
	if err != nil {
		return imageErrors.HandleServiceError(c, err)
	}
	return c.JSON(resp)
}

// GetBinary returns the original bytes of one of the caller's images
// GET /images/:imageId/binary
func (h *ImageHandler) GetBinary(c *fiber.Ctx) error {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return imageErrors.HandleUserContextError(c)
	}

	imageID, err := uuid.FromString(c.Params("imageId"))
	if err != nil {
		return imageErrors.HandleUUIDError(c, "image id")
	}

	data, err := h.imageService.GetOwnedBinary(c.UserContext(), user, imageID)
	if err != nil {
		return imageErrors.HandleServiceError(c, err)
	}
	return c.JSON(models.BinaryResponse{BinaryImage: base64.StdEncoding.EncodeToString(data)})
}
