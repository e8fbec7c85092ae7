package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies RELAYD_* environment variable overrides, and
// validates the result. A missing config file is not an error; defaults
// plus env overrides are used instead.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, derr := toml.DecodeFile(path, &cfg); derr != nil {
				return nil, fmt.Errorf("config: decode %s: %w", path, derr)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides overlays RELAYD_* environment variables onto cfg. Every
// override is optional; unset variables leave the file/default value alone.
func applyEnvOverrides(cfg *Config) {
	setStr("RELAYD_MODE", &cfg.Mode)
	setStr("RELAYD_LOG_LEVEL", &cfg.LogLevel)

	// Clob
	setStr("RELAYD_CLOB_HOST", &cfg.Clob.Host)
	setStr("RELAYD_CLOB_ADDRESS", &cfg.Clob.Address)
	setStr("RELAYD_CLOB_API_KEY", &cfg.Clob.ApiKey)
	setStr("RELAYD_CLOB_API_SECRET", &cfg.Clob.ApiSecret)
	setStr("RELAYD_CLOB_API_PASSPHRASE", &cfg.Clob.ApiPassphrase)
	setStr("RELAYD_CLOB_ENCRYPTED_SECRET_PATH", &cfg.Clob.EncryptedSecretPath)
	setStr("RELAYD_CLOB_SECRET_PASSWORD", &cfg.Clob.SecretPassword)

	// Orders
	setInt("RELAYD_ORDERS_PRICE_CAP_CENTS", &cfg.Orders.PriceCapCents)
	setInt("RELAYD_ORDERS_PRICE_FLOOR_CENTS", &cfg.Orders.PriceFloorCents)
	setInt("RELAYD_ORDERS_RATE_LIMIT", &cfg.Orders.RateLimit)
	setDuration("RELAYD_ORDERS_RATE_WINDOW", &cfg.Orders.RateWindow)

	// Database
	setStr("RELAYD_DATABASE_DSN", &cfg.Database.DSN)
	setStr("RELAYD_DATABASE_HOST", &cfg.Database.Host)
	setInt("RELAYD_DATABASE_PORT", &cfg.Database.Port)
	setStr("RELAYD_DATABASE_NAME", &cfg.Database.Database)
	setStr("RELAYD_DATABASE_USER", &cfg.Database.User)
	setStr("RELAYD_DATABASE_PASSWORD", &cfg.Database.Password)
	setStr("RELAYD_DATABASE_SSL_MODE", &cfg.Database.SSLMode)
	setInt("RELAYD_DATABASE_POOL_MAX_CONNS", &cfg.Database.PoolMaxConns)
	setInt("RELAYD_DATABASE_POOL_MIN_CONNS", &cfg.Database.PoolMinConns)
	setBool("RELAYD_DATABASE_RUN_MIGRATIONS", &cfg.Database.RunMigrations)

	// Redis
	setStr("RELAYD_REDIS_ADDR", &cfg.Redis.Addr)
	setStr("RELAYD_REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("RELAYD_REDIS_DB", &cfg.Redis.DB)
	setInt("RELAYD_REDIS_POOL_SIZE", &cfg.Redis.PoolSize)
	setBool("RELAYD_REDIS_TLS_ENABLED", &cfg.Redis.TLSEnabled)

	// S3
	setStr("RELAYD_S3_ENDPOINT", &cfg.S3.Endpoint)
	setStr("RELAYD_S3_REGION", &cfg.S3.Region)
	setStr("RELAYD_S3_BUCKET", &cfg.S3.Bucket)
	setStr("RELAYD_S3_ACCESS_KEY", &cfg.S3.AccessKey)
	setStr("RELAYD_S3_SECRET_KEY", &cfg.S3.SecretKey)
	setBool("RELAYD_S3_USE_SSL", &cfg.S3.UseSSL)
	setBool("RELAYD_S3_FORCE_PATH_STYLE", &cfg.S3.ForcePathStyle)

	// Sync
	setStr("RELAYD_SYNC_CRON_SECRET", &cfg.Sync.CronSecret)
	setInt("RELAYD_SYNC_DEFAULT_LIMIT", &cfg.Sync.DefaultLimit)
	setInt("RELAYD_SYNC_MAX_LIMIT", &cfg.Sync.MaxLimit)
	setInt("RELAYD_SYNC_BATCH_SIZE", &cfg.Sync.BatchSize)
	setDuration("RELAYD_SYNC_TIME_BUDGET", &cfg.Sync.TimeBudget)
	setDuration("RELAYD_SYNC_INTERVAL", &cfg.Sync.Interval)

	// Archive
	setBool("RELAYD_ARCHIVE_ENABLED", &cfg.Archive.Enabled)
	setInt("RELAYD_ARCHIVE_RETENTION_DAYS", &cfg.Archive.RetentionDays)
	setDuration("RELAYD_ARCHIVE_INTERVAL", &cfg.Archive.Interval)

	// Server
	setBool("RELAYD_SERVER_ENABLED", &cfg.Server.Enabled)
	setInt("RELAYD_SERVER_PORT", &cfg.Server.Port)
	setStringSlice("RELAYD_SERVER_CORS_ORIGINS", &cfg.Server.CORSOrigins)
	setStr("RELAYD_SERVER_API_KEY", &cfg.Server.APIKey)
	setInt("RELAYD_SERVER_IP_RATE_LIMIT", &cfg.Server.IPRateLimit)
	setDuration("RELAYD_SERVER_IP_RATE_WINDOW", &cfg.Server.IPRateWindow)

	// Notify
	setStr("RELAYD_TELEGRAM_TOKEN", &cfg.Notify.TelegramToken)
	setStr("RELAYD_TELEGRAM_CHAT_ID", &cfg.Notify.TelegramChatID)
	setStr("RELAYD_DISCORD_WEBHOOK_URL", &cfg.Notify.DiscordWebhookURL)
	setStringSlice("RELAYD_NOTIFY_EVENTS", &cfg.Notify.Events)
}

func setStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(key string, dst *duration) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(key string, dst *[]string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			*dst = out
		}
	}
}
