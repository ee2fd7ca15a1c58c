// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Dataset provider kinds accepted by DATASET_SOURCE.
const (
	SourceLocal = "local"
	SourceS3    = "s3"
	SourceGCS   = "gcs"
	SourceAzure = "azure"
)

// Config holds the configuration shared by the loader, the dashboard and the CLI.
type Config struct {
	DuckDBPath string // analytical store file (default "data/olist.duckdb")
	MetaDBPath string // SQLite ingestion metastore (default "data/ingest_meta.sqlite")

	// Dataset provider
	DatasetSource   string // local, s3, gcs or azure (default "local")
	DatasetDir      string // directory for the local provider (default "data/raw")
	DatasetCacheDir string // local cache for remote providers (default "data/cache")
	DatasetPrefix   string // object key prefix for remote providers
	SourcesFile     string // optional YAML manifest overriding the default source list
	IngestCleanup   bool   // remove the dataset cache after ingestion

	// S3 fields are optional — nil when not configured.
	S3KeyID    *string
	S3Secret   *string
	S3Endpoint *string
	S3Region   *string
	S3Bucket   *string

	GCSBucket  string
	GCSKeyFile string

	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string

	// HTTP
	Host               string
	Port               int
	RateLimitRPS       float64  // sustained requests per second (default 20)
	RateLimitBurst     int      // burst capacity (default 40)
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Query cache
	CacheTTL            time.Duration // 0 disables expiry (default 10m)
	CacheInvalidateCron string        // optional cron schedule that empties the cache

	LogLevel string // log level: debug, info, warn, error (default "info")
	Env      string // environment: "development" (default) or "production"

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// ListenAddr joins Host and Port.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HasS3Config returns true if all required S3 fields are set.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil &&
		c.S3Endpoint != nil && c.S3Region != nil && c.S3Bucket != nil
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DuckDBPath:          os.Getenv("DUCKDB_PATH"),
		MetaDBPath:          os.Getenv("META_DB_PATH"),
		DatasetSource:       strings.ToLower(strings.TrimSpace(os.Getenv("DATASET_SOURCE"))),
		DatasetDir:          os.Getenv("DATASET_DIR"),
		DatasetCacheDir:     os.Getenv("DATASET_CACHE_DIR"),
		DatasetPrefix:       strings.Trim(os.Getenv("DATASET_PREFIX"), "/"),
		SourcesFile:         os.Getenv("SOURCES_FILE"),
		IngestCleanup:       parseBoolEnvDefault("INGEST_CLEANUP", false),
		GCSBucket:           os.Getenv("GCS_BUCKET"),
		GCSKeyFile:          os.Getenv("GCS_KEY_FILE"),
		AzureAccountName:    os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:     os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureContainer:      os.Getenv("AZURE_CONTAINER"),
		Host:                os.Getenv("HOST"),
		CacheInvalidateCron: strings.TrimSpace(os.Getenv("CACHE_INVALIDATE_CRON")),
		LogLevel:            os.Getenv("LOG_LEVEL"),
		Env:                 os.Getenv("ENV"),
	}

	if v := os.Getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("PORT must be a number between 1 and 65535, got %q", v)
		}
		cfg.Port = n
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid RATE_LIMIT_RPS %q", v))
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid RATE_LIMIT_BURST %q", v))
		}
	}

	cfg.CacheTTL = 10 * time.Minute
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.CacheTTL = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring invalid CACHE_TTL %q", v))
		}
	}

	// S3 fields are optional — only set if present
	if v := os.Getenv("S3_KEY_ID"); v != "" {
		cfg.S3KeyID = &v
	}
	if v := os.Getenv("S3_SECRET"); v != "" {
		cfg.S3Secret = &v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3Endpoint = &v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.S3Region = &v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3Bucket = &v
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	if cfg.DuckDBPath == "" {
		cfg.DuckDBPath = "data/olist.duckdb"
	}
	if cfg.MetaDBPath == "" {
		cfg.MetaDBPath = "data/ingest_meta.sqlite"
	}
	if cfg.DatasetSource == "" {
		cfg.DatasetSource = SourceLocal
	}
	if cfg.DatasetDir == "" {
		cfg.DatasetDir = "data/raw"
	}
	if cfg.DatasetCacheDir == "" {
		cfg.DatasetCacheDir = "data/cache"
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 20
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 40
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := cfg.ValidateSource(); err != nil {
		return nil, err
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

// ValidateSource checks that the selected dataset source is fully configured.
func (c *Config) ValidateSource() error {
	switch c.DatasetSource {
	case SourceLocal:
		return nil
	case SourceS3:
		if !c.HasS3Config() {
			return fmt.Errorf("DATASET_SOURCE=s3 requires S3_KEY_ID, S3_SECRET, S3_ENDPOINT, S3_REGION and S3_BUCKET")
		}
	case SourceGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("DATASET_SOURCE=gcs requires GCS_BUCKET")
		}
		if c.GCSKeyFile == "" {
			c.Warnings = append(c.Warnings, "GCS_KEY_FILE not set (using application default credentials)")
		}
	case SourceAzure:
		if c.AzureAccountName == "" || c.AzureAccountKey == "" || c.AzureContainer == "" {
			return fmt.Errorf("DATASET_SOURCE=azure requires AZURE_ACCOUNT_NAME, AZURE_ACCOUNT_KEY and AZURE_CONTAINER")
		}
	default:
		return fmt.Errorf("unknown DATASET_SOURCE %q (want local, s3, gcs or azure)", c.DatasetSource)
	}
	return nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
