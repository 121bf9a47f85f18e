// Package app provides the top-level application lifecycle management for the
// settlement engine. It wires together all dependencies (stores, caches, the
// oracle, blob storage, services, and notifications) and runs the HTTP server
// plus background workers until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	s3blob "github.com/oraclebets/oraclebets/internal/blob/s3"
	"github.com/oraclebets/oraclebets/internal/config"
	"github.com/oraclebets/oraclebets/internal/notify"
	"github.com/oraclebets/oraclebets/internal/pipeline"
	"github.com/oraclebets/oraclebets/internal/server"
	"github.com/oraclebets/oraclebets/internal/server/handler"
	"github.com/oraclebets/oraclebets/internal/server/ws"
	"github.com/oraclebets/oraclebets/internal/service"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the HTTP
// server and background workers, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.Int("port", a.cfg.Server.Port),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	// Services.
	protocolSvc := service.NewProtocolService(deps.Stores, deps.Tx, a.logger)
	marketSvc := service.NewMarketService(
		deps.Stores, deps.Tx, deps.Locks, deps.SignalBus,
		deps.Prices, a.cfg.Oracle.MaxPriceAge.Duration, a.logger,
	)
	betSvc := service.NewBetService(deps.Stores, deps.Tx, deps.Locks, deps.SignalBus, a.logger)
	reputationSvc := service.NewReputationService(deps.Stores)
	activitySvc := service.NewActivityService(deps.SignalBus)

	// WebSocket hub fans out live events to subscribers.
	hub := ws.NewHub(deps.SignalBus, deps.Metrics, a.logger)
	g.Go(func() error {
		return hub.Run(ctx, service.EventsChannel)
	})

	// HTTP server.
	handlers := server.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": deps.Postgres,
			"redis":    deps.Redis,
		}, a.logger),
		Protocol:   handler.NewProtocolHandler(protocolSvc, a.logger),
		Markets:    handler.NewMarketHandler(marketSvc, a.logger),
		Bets:       handler.NewBetHandler(betSvc, a.logger),
		Reputation: handler.NewReputationHandler(reputationSvc, a.logger),
		Activity:   handler.NewActivityHandler(activitySvc, a.logger),
	}
	if deps.BlobReader != nil {
		handlers.Archives = handler.NewArchiveHandler(deps.BlobReader, s3blob.SettlementsPrefix, a.logger)
	}
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, deps.RateLimiter, deps.Metrics, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	// Notification relay.
	if deps.Notifier != nil {
		relay := notify.NewRelay(deps.SignalBus, deps.Notifier, a.logger)
		g.Go(func() error {
			return relay.Run(ctx, service.EventsChannel)
		})
	}

	// Settlement archival on a cron schedule.
	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		archiver := pipeline.NewArchiver(deps.Archiver, a.cfg.Archive.RetentionDays, a.logger).
			WithMetrics(deps.Metrics)
		g.Go(func() error {
			return archiver.RunCron(ctx, a.cfg.Archive.Cron)
		})
	}

	err = g.Wait()
	if err != nil && ctx.Err() != nil {
		// Cancellation is the normal shutdown path.
		return nil
	}
	return err
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
