package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/oraclebets/oraclebets/internal/blob/s3"
	"github.com/oraclebets/oraclebets/internal/cache/redis"
	"github.com/oraclebets/oraclebets/internal/config"
	"github.com/oraclebets/oraclebets/internal/domain"
	"github.com/oraclebets/oraclebets/internal/metrics"
	"github.com/oraclebets/oraclebets/internal/notify"
	"github.com/oraclebets/oraclebets/internal/oracle"
	"github.com/oraclebets/oraclebets/internal/oracle/pyth"
	"github.com/oraclebets/oraclebets/internal/store/postgres"
)

// Dependencies bundles every infrastructure dependency the application needs.
// It is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Persistence
	Postgres *postgres.Client
	Stores   domain.Stores
	Tx       domain.TxRunner

	// Redis-backed coordination
	Redis       *redis.Client
	Locks       domain.LockManager
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter

	// Oracle
	Prices domain.PriceSource

	// Blob storage (nil unless archival is enabled)
	Archiver   domain.Archiver
	BlobReader domain.BlobReader

	// Notifications (nil unless a channel is configured)
	Notifier *notify.Notifier

	// Observability
	Metrics *metrics.Metrics
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	deps.Postgres = pgClient
	deps.Stores = pgClient.Stores()
	deps.Tx = pgClient

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Redis = redisClient
	deps.Locks = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)
	if cfg.Server.RateLimit > 0 {
		deps.RateLimiter = redis.NewRateLimiter(redisClient, cfg.Server.RateLimit, cfg.Server.RateWindow.Duration)
	}

	// --- Oracle ---
	hermes := pyth.NewClient(cfg.Oracle.HermesURL)
	oracleCache := redis.NewOracleCache(redisClient, cfg.Oracle.CacheTTL.Duration)
	deps.Prices = oracle.NewCachedSource(hermes, oracleCache)

	// --- S3 blob storage (archival only) ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client),
			deps.Stores.Markets,
			deps.Stores.Bets,
		)
		deps.BlobReader = s3blob.NewReader(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	// --- Metrics ---
	deps.Metrics = metrics.New()

	return deps, cleanup, nil
}
