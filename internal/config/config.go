// Package config loads process configuration from environment variables.
//
// Configuration loading order:
//  1. Load from .env file (if present)
//  2. Read environment variables, falling back to defaults documented here
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/aristath/sentinel/internal/utils"
)

// Config holds process-wide configuration for the strategy execution engine
// and its boundary HTTP surface.
type Config struct {
	DataDir string // base directory for the job-archive database

	Port    int
	LogLevel string
	DevMode  bool

	PrimaryProviderBaseURL    string
	PrimaryProviderToken      string
	SecondaryProviderBaseURL  string

	CORSAllowedOrigins []string

	S3ExportBucket   string // empty disables off-box export of completed job results
	S3ExportEndpoint string // optional S3-compatible endpoint override (e.g. Cloudflare R2)

	CacheSize           int
	CacheTTLReference    time.Duration
	CacheTTLFundamentals time.Duration
	CacheTTLSnapshot     time.Duration

	RateLimitRPSPrimary   float64
	RateLimitRPSSecondary float64

	DefaultWorkerCount int
	MaxWorkerCount     int
	MaxConcurrentJobs  int
	JobRetention       int
}

// Load reads configuration from environment variables, applying the
// defaults from spec.md's configuration surface table.
func Load() (*Config, error) {
	// godotenv.Load returns an error when .env doesn't exist, which is fine.
	_ = godotenv.Load()

	dataDir := getEnv("SCREENER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		PrimaryProviderBaseURL:   getEnv("PRIMARY_PROVIDER_BASE_URL", "https://push2.eastmoney.com"),
		PrimaryProviderToken:     getEnv("PRIMARY_PROVIDER_TOKEN", ""),
		SecondaryProviderBaseURL: getEnv("SECONDARY_PROVIDER_BASE_URL", "https://hq.sinajs.cn"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		S3ExportBucket:   getEnv("S3_EXPORT_BUCKET", ""),
		S3ExportEndpoint: getEnv("S3_EXPORT_ENDPOINT", ""),

		CacheSize:            getEnvAsInt("CACHE_SIZE", 10000),
		CacheTTLReference:    getEnvAsDuration("CACHE_TTL_REFERENCE", time.Hour),
		CacheTTLFundamentals: getEnvAsDuration("CACHE_TTL_FUNDAMENTALS", 15*time.Minute),
		CacheTTLSnapshot:     getEnvAsDuration("CACHE_TTL_SNAPSHOT", 5*time.Minute),

		RateLimitRPSPrimary:   getEnvAsFloat("RATE_LIMIT_RPS_PRIMARY", 5),
		RateLimitRPSSecondary: getEnvAsFloat("RATE_LIMIT_RPS_SECONDARY", 3),

		DefaultWorkerCount: getEnvAsInt("DEFAULT_WORKER_COUNT", 5),
		MaxWorkerCount:     getEnvAsInt("MAX_WORKER_COUNT", 16),
		MaxConcurrentJobs:  getEnvAsInt("MAX_CONCURRENT_JOBS", 4),
		JobRetention:       getEnvAsInt("JOB_RETENTION", 64),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	parsed := utils.ParseCSV(os.Getenv(key))
	if parsed == nil {
		return defaultValue
	}
	return parsed
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
