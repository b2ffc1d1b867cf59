// Package main is the entry point for the strategy execution engine: a
// backend analytics service for the Chinese A-share equity market. It
// loads configuration, wires every shared component via internal/di,
// starts the boundary HTTP API, and shuts down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/boundary"
	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/di"
	"github.com/aristath/sentinel/pkg/logger"
)

func main() {
	devMode := flag.Bool("dev", false, "enable pretty console logging and disable response compression")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *devMode {
		cfg.DevMode = true
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting strategy execution engine")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close job archive")
		}
	}()

	refresh := startUniverseRefresh(container, log)
	defer refresh.Stop()

	archiveHealth := startArchiveHealthCheck(container, log)
	defer archiveHealth.Stop()

	srv := boundary.New(cfg, container, log)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("boundary API failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("boundary API forced to shutdown")
	}

	log.Info().Msg("stopped")
}

// startUniverseRefresh schedules a periodic reference-universe reload so
// QuoteCache's roster entry doesn't silently go stale between requests.
// Grounded on the teacher's cron-based scheduler usage in cmd/server/main.go.
func startUniverseRefresh(container *di.Container, log zerolog.Logger) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@every 30m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := container.Gateway.LoadReferenceUniverse(ctx); err != nil {
			log.Warn().Err(err).Msg("scheduled universe refresh failed")
			return
		}
		log.Debug().Msg("reference universe refreshed")
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to schedule universe refresh")
	}
	c.Start()
	return c
}

// startArchiveHealthCheck schedules a daily integrity check of the job
// archive database, more thorough (and more expensive) than the ping
// handleHealthz performs on every request.
func startArchiveHealthCheck(container *di.Container, log zerolog.Logger) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@every 24h", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Archive.HealthCheck(ctx); err != nil {
			log.Error().Err(err).Msg("archive database integrity check failed")
			return
		}
		log.Debug().Msg("archive database integrity check passed")
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to schedule archive health check")
	}
	c.Start()
	return c
}
