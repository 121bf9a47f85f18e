// Package server assembles the HTTP and WebSocket API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
	"github.com/oraclebets/oraclebets/internal/metrics"
	"github.com/oraclebets/oraclebets/internal/server/handler"
	"github.com/oraclebets/oraclebets/internal/server/middleware"
	"github.com/oraclebets/oraclebets/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health     *handler.HealthHandler
	Protocol   *handler.ProtocolHandler
	Markets    *handler.MarketHandler
	Bets       *handler.BetHandler
	Reputation *handler.ReputationHandler
	Activity   *handler.ActivityHandler
	// Archives is nil when object storage is not configured.
	Archives *handler.ArchiveHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain wired. limiter, m, and wsHub may be nil.
func NewServer(
	cfg Config,
	handlers Handlers,
	wsHub *ws.Hub,
	limiter domain.RateLimiter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()

	// Probes and metrics carry no auth.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/ready", handlers.Health.Ready)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	// Protocol endpoints.
	mux.HandleFunc("POST /api/protocol/initialize", handlers.Protocol.Initialize)
	mux.HandleFunc("GET /api/protocol", handlers.Protocol.Get)

	// Market lifecycle.
	mux.HandleFunc("POST /api/markets", handlers.Markets.CreateMarket)
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("POST /api/markets/{id}/close", handlers.Markets.CloseMarket)
	mux.HandleFunc("POST /api/markets/{id}/resolve", handlers.Markets.ResolveMarket)
	mux.HandleFunc("POST /api/markets/{id}/cancel", handlers.Markets.CancelMarket)
	mux.HandleFunc("POST /api/markets/{id}/expire", handlers.Markets.ExpireMarket)

	// Wagers and payouts.
	mux.HandleFunc("POST /api/markets/{id}/bets", handlers.Bets.PlaceBet)
	mux.HandleFunc("GET /api/markets/{id}/bets", handlers.Bets.ListMarketBets)
	mux.HandleFunc("GET /api/markets/{id}/bets/{bettor}", handlers.Bets.GetBet)
	mux.HandleFunc("POST /api/markets/{id}/claim", handlers.Bets.Claim)
	mux.HandleFunc("POST /api/markets/{id}/reclaim", handlers.Bets.Reclaim)
	mux.HandleFunc("GET /api/bettors/{bettor}/bets", handlers.Bets.ListBettorBets)

	// Reputation.
	mux.HandleFunc("GET /api/reputation/{agent}", handlers.Reputation.GetReputation)
	mux.HandleFunc("GET /api/leaderboard", handlers.Reputation.Leaderboard)

	// Event feed.
	mux.HandleFunc("GET /api/activity", handlers.Activity.ListActivity)

	// Cold-storage archives.
	if handlers.Archives != nil {
		mux.HandleFunc("GET /api/archives", handlers.Archives.ListArchives)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux
	h = middleware.Identity()(h)
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil {
		h = middleware.RateLimit(limiter)(h)
	}
	h = middleware.Logging(logger, m)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// complete within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
