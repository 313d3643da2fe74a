// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tiers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/imagehost/internal/middleware/admin"
	"github.com/qolzam/imagehost/internal/middleware/authjwt"
	"github.com/qolzam/imagehost/internal/middleware/constraints"
	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
	"github.com/qolzam/imagehost/internal/types"
	"github.com/qolzam/imagehost/tiers/handlers"
)

// TierHandlers holds all the handlers this router needs.
type TierHandlers struct {
	TierHandler *handlers.TierHandler
}

// RegisterRoutes is the single entry point for setting up tier routes.
func RegisterRoutes(app *fiber.App, handlers *TierHandlers, cfg *platformconfig.Config) {
	if handlers == nil || handlers.TierHandler == nil {
		panic("TierHandlers is required")
	}

	jwtAuth := authjwt.New(authjwt.Config{
		PublicKey:   cfg.JWT.PublicKey,
		ClaimKey:    types.ClaimKey,
		UserCtxName: types.UserCtxName,
	})

	tierRoutes := app.Group("/tiers")
	tierRoutes.Get("/", handlers.TierHandler.ListTiers)
	tierRoutes.Get("/me", jwtAuth, handlers.TierHandler.MyTier)

	adminRoutes := app.Group("/admin", jwtAuth, admin.New(admin.Config{UserCtxName: types.UserCtxName}))
	adminRoutes.Put("/users/:userId/tier",
		constraints.RequireUUID("userId"),
		handlers.TierHandler.AssignTier,
	)
}
