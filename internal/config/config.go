// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `envconfig:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds file upload and parsing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed size of one file in bytes (default: 100MB)
	MaxFileSize int64 `envconfig:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxFiles is the maximum number of files in one append request (default: 20)
	MaxFiles int `envconfig:"UPLOAD_MAX_FILES" default:"20"`

	// MaxConcurrent is the maximum number of requests parsing files at once (default: 5)
	MaxConcurrent int `envconfig:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// ParseWorkers is how many files one request parses in parallel (default: 4)
	ParseWorkers int `envconfig:"UPLOAD_PARSE_WORKERS" default:"4"`

	// MaxWaitTime is how long to wait for a parse slot (default: 30s)
	MaxWaitTime time.Duration `envconfig:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// SessionConfig holds per-browser session settings.
type SessionConfig struct {
	// TTL is how long an idle session keeps its results (default: 2h)
	TTL time.Duration `envconfig:"SESSION_TTL" default:"2h"`

	// SweepInterval is how often expired sessions are removed (default: 5m)
	SweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// PreviewRows is how many rows result previews show (default: 5)
	PreviewRows int `envconfig:"SESSION_PREVIEW_ROWS" default:"5"`

	// SecureCookie sets the Secure flag on the session cookie (default: false)
	SecureCookie bool `envconfig:"SESSION_SECURE_COOKIE" default:"false"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 100)
	RequestsPerMinute int `envconfig:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// Burst is how many requests an IP may make at once (default: 20)
	Burst int `envconfig:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `envconfig:"API_KEYS"`

	// RequireAPIKey enforces API key auth on /api routes (default: false)
	RequireAPIKey bool `envconfig:"REQUIRE_API_KEY" default:"false"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `envconfig:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds operation history settings.
type HistoryConfig struct {
	// DatabaseURL enables the Postgres history store when set
	DatabaseURL string `envconfig:"HISTORY_DATABASE_URL"`

	// MaxEntries bounds the in-memory history (default: 500)
	MaxEntries int `envconfig:"HISTORY_MAX_ENTRIES" default:"500"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `envconfig:"HISTORY_DB_MAX_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `envconfig:"HISTORY_DB_MAX_CONN_LIFETIME" default:"1h"`

	// Retention is how long database entries are kept (default: 30 days)
	Retention time.Duration `envconfig:"HISTORY_RETENTION" default:"720h"`

	// PruneInterval is how often old database entries are deleted (default: 24h)
	PruneInterval time.Duration `envconfig:"HISTORY_PRUNE_INTERVAL" default:"24h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
