// Package config provides centralized configuration management for the registry.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Catalog    CatalogConfig
	Validation ValidationConfig
	Upload     UploadConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds report store connection settings.
// Reports are not persisted when URL is empty.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Migrate applies pending schema migrations on startup (default: true)
	Migrate bool `env:"DB_MIGRATE" default:"true"`
}

// Enabled reports whether a report store is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// CatalogConfig selects where table definitions come from.
type CatalogConfig struct {
	// Path is a tables.yaml file. Empty uses the definitions built into the binary.
	Path string `env:"CATALOG_PATH"`

	// ReloadInterval is how often Path is checked for changes. Zero disables reloading.
	ReloadInterval time.Duration `env:"CATALOG_RELOAD_INTERVAL" default:"0s"`
}

// ValidationConfig holds validator settings.
type ValidationConfig struct {
	// FormSearch lets files that declare no form match any form of their level (default: true)
	FormSearch bool `env:"VALIDATION_FORM_SEARCH" default:"true"`

	// MetadataTables also requires the core metadata tables (default: true)
	MetadataTables bool `env:"VALIDATION_METADATA_TABLES" default:"true"`

	// MaxConcurrent is the maximum number of validations running at once (default: 8)
	MaxConcurrent int `env:"VALIDATION_MAX_CONCURRENT" default:"8"`

	// MaxWaitTime is how long a request waits for a validation slot (default: 10s)
	MaxWaitTime time.Duration `env:"VALIDATION_MAX_WAIT_TIME" default:"10s"`
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// Timeout is the maximum duration for a single upload validation (default: 1m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"1m"`
}

// RateLimitConfig holds per-IP token bucket settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// Burst is the bucket size per IP (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`

	// UploadLimit is requests per minute for validation endpoints (default: 30)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects administrative endpoints such as catalog reload (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted X-API-Key values
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
