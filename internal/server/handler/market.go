package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
	"github.com/oraclebets/oraclebets/internal/service"
)

// MarketService defines what the market handler needs from the service
// layer. It is declared locally so the handler package does not depend on
// the concrete service implementation.
type MarketService interface {
	Create(ctx context.Context, creator string, p service.CreateMarketParams) (domain.Market, error)
	Close(ctx context.Context, marketID uint64) (domain.Market, error)
	Resolve(ctx context.Context, marketID uint64) (domain.Market, error)
	Cancel(ctx context.Context, caller string, marketID uint64) (domain.Market, error)
	Expire(ctx context.Context, marketID uint64) (domain.Market, error)
	Get(ctx context.Context, marketID uint64) (domain.Market, error)
	List(ctx context.Context, status domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error)
	Count(ctx context.Context) (int64, error)
}

// MarketHandler serves market lifecycle endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logger,
	}
}

// createMarketRequest is the body of POST /api/markets.
type createMarketRequest struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	OracleFeedID       string    `json:"oracle_feed_id"`
	TargetPrice        int64     `json:"target_price"`
	TargetAbove        bool      `json:"target_above"`
	Deadline           time.Time `json:"deadline"`
	ResolutionDeadline time.Time `json:"resolution_deadline"`
	MinBet             uint64    `json:"min_bet"`
	MaxBet             uint64    `json:"max_bet"`
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// CreateMarket opens a new market owned by the caller.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req createMarketRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.OracleFeedID == "" {
		writeError(w, http.StatusBadRequest, "title and oracle_feed_id are required")
		return
	}

	m, err := h.markets.Create(r.Context(), caller, service.CreateMarketParams{
		Title:              req.Title,
		Description:        req.Description,
		OracleFeedID:       req.OracleFeedID,
		TargetPrice:        req.TargetPrice,
		TargetAbove:        req.TargetAbove,
		Deadline:           req.Deadline,
		ResolutionDeadline: req.ResolutionDeadline,
		MinBet:             req.MinBet,
		MaxBet:             req.MaxBet,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ListMarkets returns markets, optionally filtered by status.
// GET /api/markets?status=open&limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	status := domain.MarketStatus(r.URL.Query().Get("status"))

	markets, err := h.markets.List(r.Context(), status, opts)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	total, err := h.markets.Count(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market by id.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := marketIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	m, err := h.markets.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// CloseMarket closes the betting window.
// POST /api/markets/{id}/close
func (h *MarketHandler) CloseMarket(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.markets.Close)
}

// ResolveMarket settles the market against a fresh oracle reading.
// POST /api/markets/{id}/resolve
func (h *MarketHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.markets.Resolve)
}

// ExpireMarket marks a market whose resolution window passed unresolved.
// POST /api/markets/{id}/expire
func (h *MarketHandler) ExpireMarket(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.markets.Expire)
}

// CancelMarket voids a bet-free market. Creator only.
// POST /api/markets/{id}/cancel
func (h *MarketHandler) CancelMarket(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	h.runTransition(w, r, func(ctx context.Context, id uint64) (domain.Market, error) {
		return h.markets.Cancel(ctx, caller, id)
	})
}

// runTransition parses the market id, applies the transition, and writes the
// updated market.
func (h *MarketHandler) runTransition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, marketID uint64) (domain.Market, error),
) {
	id, err := marketIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	m, err := fn(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
