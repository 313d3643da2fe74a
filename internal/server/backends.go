package server

import (
	"context"
	"fmt"

	"github.com/qolzam/imagehost/images/provider"
	imageRepository "github.com/qolzam/imagehost/images/repository"
	"github.com/qolzam/imagehost/images/thumbnail"
	"github.com/qolzam/imagehost/internal/cache"
	"github.com/qolzam/imagehost/internal/database/postgres"
	"github.com/qolzam/imagehost/internal/pkg/log"
	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
	linkRepository "github.com/qolzam/imagehost/templinks/repository"
	tierRepository "github.com/qolzam/imagehost/tiers/repository"
)

// Deps are the backends the API is assembled from
type Deps struct {
	TierRepo  tierRepository.Repository
	ImageRepo imageRepository.Repository
	LinkRepo  linkRepository.Repository
	Blobs     provider.BlobProvider
	Renderer  thumbnail.Renderer
	Cache     *cache.GenericCacheService

	closers []func() error
}

// Close releases every backend opened by NewDeps
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Warn("[server] close backend: %v", err)
		}
	}
	d.closers = nil
}

// NewDeps opens the backends selected by cfg
func NewDeps(ctx context.Context, cfg *platformconfig.Config) (*Deps, error) {
	deps := &Deps{Renderer: thumbnail.NewImagingRenderer()}

	switch cfg.Database.Type {
	case "memory":
		log.Warn("[server] DB_TYPE=memory, data is lost on restart")
		deps.TierRepo = tierRepository.NewMemoryRepository()
		deps.ImageRepo = imageRepository.NewMemoryRepository()
		deps.LinkRepo = linkRepository.NewMemoryRepository()
	default:
		client, err := postgres.NewClient(ctx, &cfg.Database.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		deps.closers = append(deps.closers, client.Close)

		if cfg.Database.Postgres.AutoMigrate {
			if err := client.Migrate(ctx); err != nil {
				deps.Close()
				return nil, fmt.Errorf("failed to migrate: %w", err)
			}
		}

		schema := cfg.Database.Postgres.Schema
		deps.TierRepo = tierRepository.NewPostgresRepositoryWithSchema(client, schema)
		deps.ImageRepo = imageRepository.NewPostgresRepositoryWithSchema(client, schema)
		deps.LinkRepo = linkRepository.NewPostgresRepositoryWithSchema(client, schema)
		log.Info("[server] connected to postgres %s:%d/%s", cfg.Database.Postgres.Host, cfg.Database.Postgres.Port, cfg.Database.Postgres.Database)
	}

	blobs, err := provider.NewProvider(ctx, &cfg.Storage, cfg.Server.PublicBaseURL)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create storage provider: %w", err)
	}
	deps.Blobs = blobs

	cacheService, err := cache.NewServiceFromPlatform(cfg.Cache)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	deps.Cache = cacheService
	deps.closers = append(deps.closers, cacheService.Close)

	log.Info("[server] storage=%s cache=%s enabled=%t", cfg.Storage.Provider, cfg.Cache.Backend, cacheService.IsEnabled())
	return deps, nil
}
