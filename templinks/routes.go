// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package templinks

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/imagehost/internal/middleware/authjwt"
	"github.com/qolzam/imagehost/internal/middleware/constraints"
	"github.com/qolzam/imagehost/internal/middleware/ratelimit"
	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
	"github.com/qolzam/imagehost/internal/types"
	linkErrors "github.com/qolzam/imagehost/templinks/errors"
	"github.com/qolzam/imagehost/templinks/handlers"
	"github.com/qolzam/imagehost/templinks/services"
)

// minTokenBytes rejects values too short to have been issued here
const minTokenBytes = services.TokenBytes / 2

// TempLinkHandlers holds all the handlers this router needs.
type TempLinkHandlers struct {
	TempLinkHandler *handlers.TempLinkHandler
}

// RegisterRoutes is the single entry point for setting up temp link routes.
// Must run before the image routes so /images/temp-links wins over /images/:imageId.
func RegisterRoutes(app *fiber.App, handlers *TempLinkHandlers, cfg *platformconfig.Config) {
	if handlers == nil || handlers.TempLinkHandler == nil {
		panic("TempLinkHandlers is required")
	}

	jwtAuth := authjwt.New(authjwt.Config{
		PublicKey:   cfg.JWT.PublicKey,
		ClaimKey:    types.ClaimKey,
		UserCtxName: types.UserCtxName,
	})
	limits := ratelimit.LimitsFromConfig(cfg.RateLimits)

	app.Post("/images/temp-links",
		jwtAuth,
		ratelimit.NewTempLinkIssueLimiter(&limits),
		handlers.TempLinkHandler.Issue,
	)

	// anonymous, so guessing is throttled by failed lookups per client
	fetch := []fiber.Handler{ratelimit.NewBinaryFetchLimiter(&limits)}
	if cfg.RateLimits.BinaryFailures.Enabled {
		fetch = append(fetch, ratelimit.NewFailureGuard(ratelimit.FailureGuardConfig{
			MaxFailures: cfg.RateLimits.BinaryFailures.Max,
			Window:      cfg.RateLimits.BinaryFailures.Duration,
		}))
	}
	fetch = append(fetch,
		constraints.RequireBase64URL("token", minTokenBytes, linkErrors.NotFound),
		handlers.TempLinkHandler.Fetch,
	)
	app.Get("/images/binary/:token", fetch...)
}
