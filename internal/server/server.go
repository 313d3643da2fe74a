package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/qolzam/imagehost/images"
	imageHandlers "github.com/qolzam/imagehost/images/handlers"
	imageServices "github.com/qolzam/imagehost/images/services"
	"github.com/qolzam/imagehost/internal/middleware/requestid"
	"github.com/qolzam/imagehost/internal/pkg/log"
	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
	"github.com/qolzam/imagehost/templinks"
	linkHandlers "github.com/qolzam/imagehost/templinks/handlers"
	linkServices "github.com/qolzam/imagehost/templinks/services"
	"github.com/qolzam/imagehost/tiers"
	tierHandlers "github.com/qolzam/imagehost/tiers/handlers"
	tierServices "github.com/qolzam/imagehost/tiers/services"
)

// bodySlack lets oversized uploads reach the handler so they get a JSON 413
const bodySlack = 1 << 20

// Server is the assembled API
type Server struct {
	App      *fiber.App
	Registry *tierServices.Registry
	cfg      *platformconfig.Config
}

// Option customizes server assembly
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock shared by uploads and temporary links
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds the fiber app and every feature on top of deps
func New(ctx context.Context, cfg *platformconfig.Config, deps *Deps, opts ...Option) (*Server, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	registry, err := tierServices.NewRegistry(ctx, deps.TierRepo, cfg.Tiers.DefaultName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiers: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "imagehost",
		BodyLimit:    int(cfg.Storage.MaxUploadBytes()) + bodySlack,
		ProxyHeader:  cfg.Server.ProxyHeader,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Server.Debug}))
	app.Use(requestid.New())
	// credentials cannot be combined with a wildcard origin
	origins := cfg.Server.WebDomain
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: origins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Filename, X-Request-ID",
		AllowMethods:     "GET, POST, PUT, OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	tierService := tierServices.NewTierService(deps.TierRepo, registry)
	imageService := imageServices.NewImageService(
		deps.ImageRepo,
		deps.Blobs,
		deps.Renderer,
		tierService,
		cfg.Storage.MaxUploadBytes(),
		imageServices.WithCache(deps.Cache),
		imageServices.WithClock(o.now),
	)
	linkService := linkServices.NewTempLinkService(
		deps.LinkRepo,
		imageService,
		tierService,
		cfg.Server.PublicBaseURL,
		linkServices.WithCache(deps.Cache),
		linkServices.WithClock(o.now),
	)

	tiers.RegisterRoutes(app, &tiers.TierHandlers{
		TierHandler: tierHandlers.NewTierHandler(tierService),
	}, cfg)
	templinks.RegisterRoutes(app, &templinks.TempLinkHandlers{
		TempLinkHandler: linkHandlers.NewTempLinkHandler(linkService),
	}, cfg)
	images.RegisterRoutes(app, &images.ImageHandlers{
		ImageHandler: imageHandlers.NewImageHandler(imageService),
		MediaHandler: imageHandlers.NewMediaHandler(deps.Blobs),
	}, cfg)

	return &Server{App: app, Registry: registry, cfg: cfg}, nil
}

// Start reloads tiers in the background and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	go s.Registry.Run(ctx, s.cfg.Tiers.RefreshInterval)

	errc := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
		log.Info("[server] listening on %s, public base %s", addr, s.cfg.Server.PublicBaseURL)
		errc <- s.App.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info("[server] shutting down")
		return s.App.ShutdownWithTimeout(10 * time.Second)
	}
}

// errorHandler renders errors that escaped the handlers as JSON
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	// handlers that already wrote a body keep it
	if len(c.Response().Body()) > 0 {
		return nil
	}

	if code >= fiber.StatusInternalServerError {
		log.ErrorWithContext(c.UserContext(), "[server] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{
		"code":    httpCode(code),
		"message": err.Error(),
	})
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "IMAGE_TOO_LARGE"
	default:
		if status >= fiber.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
