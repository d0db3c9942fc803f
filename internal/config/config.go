// Package config provides centralized configuration management for the record
// service. It loads configuration from environment variables with defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	Credentials CredentialsConfig
	Audit       AuditConfig
	Rate        RateLimitConfig
	Security    SecurityConfig
	Logging     LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 3000)
	// PORT is honoured for hosting platforms that inject it.
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3000"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// StoreConfig selects and configures the tabular store.
type StoreConfig struct {
	// Backend is sheets or sqlite (default: sheets)
	Backend string `env:"STORE_BACKEND" default:"sheets"`

	// SpreadsheetID identifies the Google spreadsheet holding the collections.
	SpreadsheetID string `env:"SHEETS_SPREADSHEET_ID" envAlt:"SPREADSHEET_ID"`

	// ConnectionTTL is how long an authenticated Sheets client is reused.
	// Zero re-authenticates on every operation (default: 30m)
	ConnectionTTL time.Duration `env:"SHEETS_CONNECTION_TTL" default:"30m"`

	// SQLitePath is the database file for the sqlite backend (default: sheetdb.sqlite)
	SQLitePath string `env:"SQLITE_PATH" default:"sheetdb.sqlite"`
}

// CredentialsConfig holds the service account credentials for the Sheets
// backend. They are consulted in field order.
type CredentialsConfig struct {
	ClientEmail string `env:"GOOGLE_CLIENT_EMAIL"`

	// PrivateKey may carry literal \n sequences; they are unescaped on use.
	PrivateKey string `env:"GOOGLE_PRIVATE_KEY"`

	ServiceAccountJSON string `env:"SERVICE_ACCOUNT_JSON"`
	ServiceAccountFile string `env:"SERVICE_ACCOUNT_FILE" default:"service-account.json"`
}

// AuditConfig holds settings for the PostgreSQL audit trail.
// Leaving URL empty keeps auditing in the structured log only.
type AuditConfig struct {
	URL string `env:"AUDIT_DATABASE_URL" envAlt:"DATABASE_URL"`

	// MaxConns is the maximum number of pool connections (default: 4)
	MaxConns int `env:"AUDIT_DB_MAX_CONNS" default:"4"`

	// MinConns is the number of connections kept open (default: 0)
	MinConns int `env:"AUDIT_DB_MIN_CONNS" default:"0"`

	MaxConnLifetime time.Duration `env:"AUDIT_DB_MAX_CONN_LIFETIME" default:"1h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// WriteLimit is requests per minute for endpoints that write records (default: 20)
	WriteLimit int `env:"RATE_LIMIT_WRITES" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey protects the generic collection API (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted X-API-Key values
	APIKeys []string `env:"API_KEYS"`

	// CORSAllowedOrigins lists origins allowed to call the API (default: *)
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`

	// EnableDebugEndpoint exposes /api/debug (default: false)
	EnableDebugEndpoint bool `env:"ENABLE_DEBUG_ENDPOINT" default:"false"`
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
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// AuditEnabled reports whether mutations are also written to PostgreSQL.
func (c *AuditConfig) AuditEnabled() bool {
	return c.URL != ""
}
