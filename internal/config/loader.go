package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ORACLEBETS_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ORACLEBETS_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ORACLEBETS_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "ORACLEBETS_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ORACLEBETS_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ORACLEBETS_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ORACLEBETS_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ORACLEBETS_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ORACLEBETS_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ORACLEBETS_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ORACLEBETS_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ORACLEBETS_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ORACLEBETS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ORACLEBETS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ORACLEBETS_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ORACLEBETS_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ORACLEBETS_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ORACLEBETS_REDIS_TLS_ENABLED")

	// ── Oracle ──
	setStr(&cfg.Oracle.HermesURL, "ORACLEBETS_ORACLE_HERMES_URL")
	setDuration(&cfg.Oracle.MaxPriceAge, "ORACLEBETS_ORACLE_MAX_PRICE_AGE")
	setDuration(&cfg.Oracle.CacheTTL, "ORACLEBETS_ORACLE_CACHE_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ORACLEBETS_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ORACLEBETS_S3_REGION")
	setStr(&cfg.S3.Bucket, "ORACLEBETS_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ORACLEBETS_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ORACLEBETS_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ORACLEBETS_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ORACLEBETS_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "ORACLEBETS_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "ORACLEBETS_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Archive.Cron, "ORACLEBETS_ARCHIVE_CRON")

	// ── Server ──
	setInt(&cfg.Server.Port, "ORACLEBETS_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ORACLEBETS_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ORACLEBETS_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "ORACLEBETS_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "ORACLEBETS_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ORACLEBETS_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ORACLEBETS_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ORACLEBETS_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ORACLEBETS_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "ORACLEBETS_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
