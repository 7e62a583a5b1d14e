// Package config loads application settings from struct-tag defaults, an
// optional YAML file and environment variables, and validates them on
// startup so misconfiguration fails fast.
//
// Each leaf field carries its environment variable name (env, optionally
// envAlt), its default, and its YAML key. A config file mirrors the section
// layout:
//
//	server:
//	  port: 9090
//	upload:
//	  max_concurrent: 3
//	import:
//	  legacy_encoding: cp949
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Upload   UploadConfig    `yaml:"upload"`
	Import   ImportConfig    `yaml:"import"`
	Rate     RateLimitConfig `yaml:"rate_limit"`
	Security SecurityConfig  `yaml:"security"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0" yaml:"host"`
	Port int    `env:"SERVER_PORT" default:"8080" yaml:"port"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s" yaml:"read_timeout"`

	// WriteTimeout stays 0 so progress streams are not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s" yaml:"write_timeout"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s" yaml:"shutdown_timeout"`

	// RequestTimeout bounds non-streaming API requests; 0 disables it.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s" yaml:"request_timeout"`
}

// DatabaseConfig holds PostgreSQL pool settings.
type DatabaseConfig struct {
	// URL is required. DB_URL is accepted as an alias.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" yaml:"url"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20" yaml:"max_conns"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"4" yaml:"min_conns"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h" yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m" yaml:"max_conn_idle_time"`

	// AutoMigrate creates missing tables at startup.
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true" yaml:"auto_migrate"`
}

// UploadConfig holds bulk upload settings.
type UploadConfig struct {
	// MaxFileSize is in bytes (default 32MB).
	MaxFileSize   int64         `env:"UPLOAD_MAX_FILE_SIZE" default:"33554432" yaml:"max_file_size"`
	MaxConcurrent int           `env:"UPLOAD_MAX_CONCURRENT" default:"5" yaml:"max_concurrent"`
	MaxWaitTime   time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s" yaml:"max_wait_time"`
	Timeout       time.Duration `env:"UPLOAD_TIMEOUT" default:"10m" yaml:"timeout"`

	// ResultRetention is how long finished upload results stay queryable.
	ResultRetention time.Duration `env:"UPLOAD_RESULT_RETENTION" default:"30m" yaml:"result_retention"`
}

// ImportConfig holds spreadsheet reconciliation settings.
type ImportConfig struct {
	HeaderSearchRows int `env:"IMPORT_HEADER_SEARCH_ROWS" default:"20" yaml:"header_search_rows"`

	// LegacyEncoding decodes CSV payloads that are not UTF-8.
	LegacyEncoding string `env:"IMPORT_LEGACY_ENCODING" default:"euc-kr" yaml:"legacy_encoding"`

	// Sheet selects the workbook sheet; empty means the first one.
	Sheet string `env:"IMPORT_SHEET" yaml:"sheet"`

	// FieldTable is a YAML field table replacing the built-in synonyms.
	FieldTable string `env:"IMPORT_FIELD_TABLE" yaml:"field_table"`
}

// RateLimitConfig holds per-IP request budgets per minute.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100" yaml:"requests_per_minute"`
	UploadLimit       int  `env:"RATE_LIMIT_UPLOAD" default:"10" yaml:"upload"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies lists proxy IPs or CIDRs whose forwarding headers are honored.
	TrustedProxies []string `env:"TRUSTED_PROXIES" yaml:"trusted_proxies"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true" yaml:"enable_csp"`

	// RequireAPIKey rejects /api requests without one of APIKeys.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false" yaml:"require_api_key"`
	APIKeys       []string `env:"API_KEYS" yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info" yaml:"level"`
	Format string `env:"LOG_FORMAT" default:"text" yaml:"format"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
