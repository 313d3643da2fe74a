package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/qolzam/imagehost/internal/pkg/log"
	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
	"github.com/qolzam/imagehost/internal/server"
)

func main() {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load platform config: %v", err)
		os.Exit(1)
	}

	log.Configure(log.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Debug:      cfg.Server.Debug,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := server.NewDeps(ctx, cfg)
	if err != nil {
		log.Error("Failed to initialize backends: %v", err)
		os.Exit(1)
	}
	defer deps.Close()

	srv, err := server.New(ctx, cfg, deps)
	if err != nil {
		log.Error("Failed to build server: %v", err)
		os.Exit(1)
	}

	log.Info("Starting imagehost API (tiers + images + temp links) on port %d", cfg.Server.Port)
	if err := srv.Start(ctx); err != nil {
		log.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
