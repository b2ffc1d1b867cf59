package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t, "PORT", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS_PRIMARY",
		"CACHE_TTL_REFERENCE", "S3_EXPORT_BUCKET", "SCREENER_DATA_DIR")
	t.Setenv("SCREENER_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5.0, cfg.RateLimitRPSPrimary)
	assert.Equal(t, time.Hour, cfg.CacheTTLReference)
	assert.Equal(t, "", cfg.S3ExportBucket)
}

func TestLoadReadsOverridesFromEnv(t *testing.T) {
	t.Setenv("SCREENER_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("S3_EXPORT_BUCKET", "job-results")
	t.Setenv("RATE_LIMIT_RPS_PRIMARY", "12.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "job-results", cfg.S3ExportBucket)
	assert.Equal(t, 12.5, cfg.RateLimitRPSPrimary)
}

func TestLoadCreatesDataDir(t *testing.T) {
	dir := t.TempDir() + "/nested/data"
	t.Setenv("SCREENER_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGetEnvAsListUnsetFallsBackToDefault(t *testing.T) {
	clearEnv(t, "CORS_ALLOWED_ORIGINS")
	out := getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"fallback"})
	assert.Equal(t, []string{"fallback"}, out)
}

func TestGetEnvAsIntIgnoresUnparseableValue(t *testing.T) {
	t.Setenv("CACHE_SIZE", "not-a-number")
	assert.Equal(t, 10000, getEnvAsInt("CACHE_SIZE", 10000))
}
