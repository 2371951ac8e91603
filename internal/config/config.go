// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host    string
	Port    string
	Env     string // "development", "production", "testing"
	BaseURL string // public origin used in verification links and QR codes

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible asset storage. Storage is optional; uploads are disabled
	// when the endpoint or credentials are empty.
	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3BucketPublic  string
	S3BucketPrivate string
	S3PublicURL     string

	// Designer behaviour
	DraftTTL       time.Duration // idle lifetime of an editing draft
	RenderCacheTTL time.Duration // lifetime of cached certificate pages
	GridSize       float64       // drag snapping in logical px; 0 disables
	MaxUploadBytes int64
	SeedGallery    bool // insert the starter templates on an empty database

	// WriteRateLimit caps certificate issuing and uploads per client IP per
	// minute. 0 disables the limit.
	WriteRateLimit int
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or a value does not parse.
func Load() (*Config, error) {
	cfg := &Config{
		Host:    envOrDefault("APP_HOST", "0.0.0.0"),
		Port:    envOrDefault("APP_PORT", "8080"),
		Env:     envOrDefault("APP_ENV", "development"),
		BaseURL: strings.TrimRight(envOrDefault("APP_BASE_URL", "http://localhost:8080"), "/"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "certstudio"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "certstudio"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Region:        envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3BucketPublic:  envOrDefault("S3_BUCKET_PUBLIC", "certstudio-assets"),
		S3BucketPrivate: envOrDefault("S3_BUCKET_PRIVATE", "certstudio-private"),
		S3PublicURL:     os.Getenv("S3_PUBLIC_URL"),
	}

	var err error
	if cfg.DraftTTL, err = durationOrDefault("DRAFT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RenderCacheTTL, err = durationOrDefault("RENDER_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.GridSize, err = floatOrDefault("GRID_SIZE", 0); err != nil {
		return nil, err
	}
	if cfg.GridSize < 0 {
		return nil, fmt.Errorf("GRID_SIZE must not be negative")
	}
	maxUpload, err := floatOrDefault("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload * (1 << 20))
	cfg.SeedGallery = envOrDefault("SEED_GALLERY", "true") == "true"
	if cfg.WriteRateLimit, err = intOrDefault("WRITE_RATE_LIMIT", 60); err != nil {
		return nil, err
	}
	if cfg.WriteRateLimit < 0 {
		return nil, fmt.Errorf("WRITE_RATE_LIMIT must not be negative")
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if strings.HasPrefix(cfg.BaseURL, "http://localhost") {
			return nil, fmt.Errorf("APP_BASE_URL must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// StorageEnabled reports whether S3 credentials were provided.
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func floatOrDefault(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func intOrDefault(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
