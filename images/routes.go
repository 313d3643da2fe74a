// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package images

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/imagehost/images/handlers"
	"github.com/qolzam/imagehost/internal/middleware/authjwt"
	"github.com/qolzam/imagehost/internal/middleware/constraints"
	"github.com/qolzam/imagehost/internal/middleware/ratelimit"
	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
	"github.com/qolzam/imagehost/internal/types"
)

// ImageHandlers holds all the handlers this router needs.
type ImageHandlers struct {
	ImageHandler *handlers.ImageHandler
	MediaHandler *handlers.MediaHandler
}

// RegisterRoutes is the single entry point for setting up image routes.
// Auth is attached per route because /images/binary/:token shares the prefix and is public.
func RegisterRoutes(app *fiber.App, handlers *ImageHandlers, cfg *platformconfig.Config) {
	if handlers == nil || handlers.ImageHandler == nil {
		panic("ImageHandlers is required")
	}

	jwtAuth := authjwt.New(authjwt.Config{
		PublicKey:   cfg.JWT.PublicKey,
		ClaimKey:    types.ClaimKey,
		UserCtxName: types.UserCtxName,
	})
	limits := ratelimit.LimitsFromConfig(cfg.RateLimits)

	imageRoutes := app.Group("/images")
	imageRoutes.Post("/", jwtAuth, ratelimit.NewUploadLimiter(&limits), handlers.ImageHandler.Upload)
	imageRoutes.Get("/", jwtAuth, handlers.ImageHandler.List)
	imageRoutes.Get("/:imageId", jwtAuth, constraints.RequireUUID("imageId"), handlers.ImageHandler.Get)
	imageRoutes.Get("/:imageId/binary", jwtAuth, constraints.RequireUUID("imageId"), handlers.ImageHandler.GetBinary)

	if handlers.MediaHandler != nil {
		app.Get("/media/*", handlers.MediaHandler.Serve)
	}
}
