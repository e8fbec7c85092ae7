// Package config defines the top-level configuration for the relay daemon
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by RELAYD_* environment variables.
type Config struct {
	Clob     ClobConfig     `toml:"clob"`
	Orders   OrdersConfig   `toml:"orders"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Sync     SyncConfig     `toml:"sync"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ClobConfig holds the matching engine endpoint and HMAC credentials. The
// secret can be given inline (base64) or as an encrypted file plus password.
type ClobConfig struct {
	Host                string `toml:"host"`
	Address             string `toml:"address"`
	ApiKey              string `toml:"api_key"`
	ApiSecret           string `toml:"api_secret"`
	ApiPassphrase       string `toml:"api_passphrase"`
	EncryptedSecretPath string `toml:"encrypted_secret_path"`
	SecretPassword      string `toml:"secret_password"`
}

// OrdersConfig holds the submission-path tunables.
type OrdersConfig struct {
	// PriceCapCents / PriceFloorCents are the market-order price assumptions
	// (cents scale: 99 = $0.99).
	PriceCapCents   int `toml:"price_cap_cents"`
	PriceFloorCents int `toml:"price_floor_cents"`

	// RateLimit / RateWindow bound submissions per user.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// SyncConfig holds the reconciliation job parameters.
type SyncConfig struct {
	// CronSecret authenticates the external scheduler. An empty secret
	// disables the HTTP trigger.
	CronSecret string `toml:"cron_secret"`

	DefaultLimit int      `toml:"default_limit"`
	MaxLimit     int      `toml:"max_limit"`
	BatchSize    int      `toml:"batch_size"`
	TimeBudget   duration `toml:"time_budget"`

	// Interval is the self-scheduling period used in sync and full modes.
	Interval duration `toml:"interval"`
}

// ArchiveConfig holds the cold-storage archival parameters.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled      bool     `toml:"enabled"`
	Port         int      `toml:"port"`
	CORSOrigins  []string `toml:"cors_origins"`
	APIKey       string   `toml:"api_key"`
	IPRateLimit  int      `toml:"ip_rate_limit"`
	IPRateWindow duration `toml:"ip_rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Clob: ClobConfig{
			Host: "https://clob.forkmarkets.io",
		},
		Orders: OrdersConfig{
			PriceCapCents:   99,
			PriceFloorCents: 1,
			RateLimit:       10,
			RateWindow:      duration{time.Second},
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "relayd",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "relayd-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Sync: SyncConfig{
			DefaultLimit: 200,
			MaxLimit:     500,
			BatchSize:    50,
			TimeBudget:   duration{25 * time.Second},
			Interval:     duration{time.Minute},
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:      true,
			Port:         8000,
			CORSOrigins:  []string{"http://localhost:3000"},
			IPRateLimit:  60,
			IPRateWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"ledger_write_failed", "error"},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"sync":    true,
	"archive": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, sync, archive, full)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Clob
	if c.Clob.Host == "" {
		errs = append(errs, "clob: host must not be empty")
	}
	if c.Clob.ApiKey == "" {
		errs = append(errs, "clob: api_key must not be empty")
	}
	if c.Clob.ApiSecret == "" && c.Clob.EncryptedSecretPath == "" {
		errs = append(errs, "clob: either api_secret or encrypted_secret_path must be set")
	}
	if c.Clob.EncryptedSecretPath != "" && c.Clob.SecretPassword == "" {
		errs = append(errs, "clob: secret_password is required when encrypted_secret_path is set")
	}

	// Orders
	if c.Orders.PriceCapCents <= 0 || c.Orders.PriceCapCents > 100 {
		errs = append(errs, fmt.Sprintf("orders: price_cap_cents must be 1-100, got %d", c.Orders.PriceCapCents))
	}
	if c.Orders.PriceFloorCents < 0 || c.Orders.PriceFloorCents >= c.Orders.PriceCapCents {
		errs = append(errs, "orders: price_floor_cents must be >= 0 and below price_cap_cents")
	}
	if c.Orders.RateLimit < 1 {
		errs = append(errs, "orders: rate_limit must be >= 1")
	}

	// Database
	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 is only required when archival runs.
	if c.Archive.Enabled || c.Mode == "archive" {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archival is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archival is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
	}

	// Sync
	if c.Sync.DefaultLimit < 1 {
		errs = append(errs, "sync: default_limit must be >= 1")
	}
	if c.Sync.MaxLimit < c.Sync.DefaultLimit {
		errs = append(errs, "sync: max_limit must be >= default_limit")
	}
	if c.Sync.BatchSize < 1 {
		errs = append(errs, "sync: batch_size must be >= 1")
	}
	if c.Sync.TimeBudget.Duration <= 0 {
		errs = append(errs, "sync: time_budget must be positive")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
