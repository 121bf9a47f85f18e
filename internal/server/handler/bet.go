package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// BetService defines what the bet handler needs from the service layer.
type BetService interface {
	Place(ctx context.Context, bettor string, marketID uint64, amount uint64, position bool) (domain.Bet, error)
	Claim(ctx context.Context, bettor string, marketID uint64) (uint64, error)
	Reclaim(ctx context.Context, bettor string, marketID uint64) (uint64, error)
	Get(ctx context.Context, marketID uint64, bettor string) (domain.Bet, error)
	ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.Bet, error)
	ListByBettor(ctx context.Context, bettor string, opts domain.ListOpts) ([]domain.Bet, error)
}

// BetHandler serves wagering, claim, and reclaim endpoints.
type BetHandler struct {
	bets   BetService
	logger *slog.Logger
}

// NewBetHandler creates a BetHandler.
func NewBetHandler(bets BetService, logger *slog.Logger) *BetHandler {
	return &BetHandler{bets: bets, logger: logger}
}

// placeBetRequest is the body of POST /api/markets/{id}/bets.
type placeBetRequest struct {
	Amount   uint64 `json:"amount"`
	Position bool   `json:"position"`
}

// payoutResponse reports the value paid out by a claim or reclaim.
type payoutResponse struct {
	MarketID uint64 `json:"market_id"`
	Bettor   string `json:"bettor"`
	Amount   uint64 `json:"amount"`
}

// PlaceBet escrows a wager for the caller.
// POST /api/markets/{id}/bets
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := marketIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req placeBetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bet, err := h.bets.Place(r.Context(), caller, id, req.Amount, req.Position)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, bet)
}

// Claim pays out the caller's winning bet.
// POST /api/markets/{id}/claim
func (h *BetHandler) Claim(w http.ResponseWriter, r *http.Request) {
	h.runPayout(w, r, h.bets.Claim)
}

// Reclaim refunds the caller's principal on a voided or unresolvable market.
// POST /api/markets/{id}/reclaim
func (h *BetHandler) Reclaim(w http.ResponseWriter, r *http.Request) {
	h.runPayout(w, r, h.bets.Reclaim)
}

// runPayout parses the market id, runs a payout operation for the caller,
// and writes the amount paid.
func (h *BetHandler) runPayout(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, bettor string, marketID uint64) (uint64, error),
) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := marketIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	amount, err := fn(r.Context(), caller, id)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, payoutResponse{
		MarketID: id,
		Bettor:   caller,
		Amount:   amount,
	})
}

// ListMarketBets returns all bets on a market.
// GET /api/markets/{id}/bets
func (h *BetHandler) ListMarketBets(w http.ResponseWriter, r *http.Request) {
	id, err := marketIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	bets, err := h.bets.ListByMarket(r.Context(), id, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": bets})
}

// GetBet returns one bettor's bet on a market.
// GET /api/markets/{id}/bets/{bettor}
func (h *BetHandler) GetBet(w http.ResponseWriter, r *http.Request) {
	id, err := marketIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	bettor := r.PathValue("bettor")
	if bettor == "" {
		writeError(w, http.StatusBadRequest, "missing bettor")
		return
	}

	bet, err := h.bets.Get(r.Context(), id, bettor)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bet)
}

// ListBettorBets returns all of a bettor's bets.
// GET /api/bettors/{bettor}/bets
func (h *BetHandler) ListBettorBets(w http.ResponseWriter, r *http.Request) {
	bettor := r.PathValue("bettor")
	if bettor == "" {
		writeError(w, http.StatusBadRequest, "missing bettor")
		return
	}

	bets, err := h.bets.ListByBettor(r.Context(), bettor, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": bets})
}
