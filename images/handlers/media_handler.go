package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	imageErrors "github.com/qolzam/imagehost/images/errors"
	"github.com/qolzam/imagehost/images/provider"
)

const mediaRoot = "uploads/"

// MediaHandler streams stored objects for providers without their own public URLs
type MediaHandler struct {
	blobs provider.BlobProvider
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(blobs provider.BlobProvider) *MediaHandler {
	return &MediaHandler{blobs: blobs}
}

// Serve writes the object under the wildcard key
// GET /media/*
func (h *MediaHandler) Serve(c *fiber.Ctx) error {
	key := c.Params("*")
	if !strings.HasPrefix(key, mediaRoot) || strings.Contains(key, "..") {
		return imageErrors.HandleServiceError(c, imageErrors.ErrImageNotFound)
	}

	obj, err := h.blobs.Get(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, provider.ErrObjectNotFound) {
			return imageErrors.HandleServiceError(c, imageErrors.ErrImageNotFound)
		}
		return imageErrors.HandleServiceError(c, imageErrors.ErrStorageOperation)
	}

	if obj.ContentType != "" {
		c.Set(fiber.HeaderContentType, obj.ContentType)
	}
	// keys are never rewritten
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(obj.Data)
}
