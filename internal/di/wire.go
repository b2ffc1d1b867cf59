// Package di wires the process's shared, long-lived components exactly
// once: the quote cache, both provider clients, the data gateway, the
// universe resolver, the strategy registry, the progress store, the job
// archive, and the job engine that ties them together. Grounded on the
// teacher's internal/di container, trimmed from its 7-database,
// many-repository graph down to the handful of components this service
// actually needs.
package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/archive"
	"github.com/aristath/sentinel/internal/cache"
	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/export"
	"github.com/aristath/sentinel/internal/gateway"
	"github.com/aristath/sentinel/internal/jobengine"
	"github.com/aristath/sentinel/internal/progress"
	"github.com/aristath/sentinel/internal/providers/eastmoney"
	"github.com/aristath/sentinel/internal/providers/sina"
	"github.com/aristath/sentinel/internal/strategy"
	"github.com/aristath/sentinel/internal/universe"
)

// Container holds every process-wide shared component, built once at
// startup and injected into the HTTP layer.
type Container struct {
	Cache     *cache.Cache
	Gateway   *gateway.Gateway
	Universe  *universe.Resolver
	Strategies *strategy.Registry
	Progress  *progress.Store
	Archive   *archive.Store
	Engine    *jobengine.Engine
}

// Wire constructs every shared component and returns the assembled
// container. Close must be called on shutdown to flush the archive
// database.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	quoteCache := cache.New(cfg.CacheSize)

	primary := eastmoney.New(cfg.PrimaryProviderBaseURL, cfg.PrimaryProviderToken, log)
	secondary := sina.New(cfg.SecondaryProviderBaseURL, log)

	gw := gateway.New(cfg, primary, secondary, quoteCache, log)
	resolver := universe.New(gw, log)
	strategies := strategy.NewRegistry()
	progressStore := progress.New(cfg.JobRetention)

	archiveStore, err := archive.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open job archive: %w", err)
	}

	engine := jobengine.New(resolver, gw, strategies, progressStore, cfg.DefaultWorkerCount, cfg.MaxConcurrentJobs, log).
		WithArchiver(archiveStore)

	if cfg.S3ExportBucket != "" {
		sink, err := export.NewSink(context.Background(), cfg.S3ExportBucket, cfg.S3ExportEndpoint, log)
		if err != nil {
			return nil, fmt.Errorf("build s3 export sink: %w", err)
		}
		engine = engine.WithExporter(sink)
	}

	return &Container{
		Cache:      quoteCache,
		Gateway:    gw,
		Universe:   resolver,
		Strategies: strategies,
		Progress:   progressStore,
		Archive:    archiveStore,
		Engine:     engine,
	}, nil
}

// Close releases resources held by the container.
func (c *Container) Close() error {
	return c.Archive.Close()
}
