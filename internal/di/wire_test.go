package di

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel/internal/config"
)

func TestWireAssemblesEveryComponent(t *testing.T) {
	cfg := &config.Config{
		DataDir:               t.TempDir(),
		CacheSize:             100,
		RateLimitRPSPrimary:   5,
		RateLimitRPSSecondary: 3,
		DefaultWorkerCount:    4,
		MaxWorkerCount:        16,
		MaxConcurrentJobs:     4,
		JobRetention:          64,
	}

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.Cache)
	assert.NotNil(t, container.Gateway)
	assert.NotNil(t, container.Universe)
	assert.NotNil(t, container.Strategies)
	assert.NotNil(t, container.Progress)
	assert.NotNil(t, container.Archive)
	assert.NotNil(t, container.Engine)

	defs := container.Strategies.List()
	assert.Len(t, defs, 3)
}

func TestWireSkipsExportSinkWhenBucketEmpty(t *testing.T) {
	cfg := &config.Config{
		DataDir:           t.TempDir(),
		CacheSize:         100,
		JobRetention:      64,
		MaxConcurrentJobs: 1,
		S3ExportBucket:    "",
	}

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })
	// No assertion beyond successful construction: an empty S3ExportBucket
	// must not attempt to build a real S3 client against no credentials.
}
