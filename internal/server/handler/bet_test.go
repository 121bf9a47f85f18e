package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraclebets/oraclebets/internal/domain"
	"github.com/oraclebets/oraclebets/internal/server/middleware"
)

// stubBetService returns canned values for every BetService method.
type stubBetService struct {
	bet    domain.Bet
	payout uint64
	err    error
}

func (s *stubBetService) Place(_ context.Context, bettor string, marketID uint64, amount uint64, position bool) (domain.Bet, error) {
	return domain.Bet{MarketID: marketID, Bettor: bettor, Amount: amount, Position: position}, s.err
}

func (s *stubBetService) Claim(context.Context, string, uint64) (uint64, error) {
	return s.payout, s.err
}

func (s *stubBetService) Reclaim(context.Context, string, uint64) (uint64, error) {
	return s.payout, s.err
}

func (s *stubBetService) Get(context.Context, uint64, string) (domain.Bet, error) {
	return s.bet, s.err
}

func (s *stubBetService) ListByMarket(context.Context, uint64, domain.ListOpts) ([]domain.Bet, error) {
	return []domain.Bet{s.bet}, s.err
}

func (s *stubBetService) ListByBettor(context.Context, string, domain.ListOpts) ([]domain.Bet, error) {
	return []domain.Bet{s.bet}, s.err
}

func newBetMux(svc BetService) http.Handler {
	h := NewBetHandler(svc, slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/markets/{id}/bets", h.PlaceBet)
	mux.HandleFunc("GET /api/markets/{id}/bets", h.ListMarketBets)
	mux.HandleFunc("GET /api/markets/{id}/bets/{bettor}", h.GetBet)
	mux.HandleFunc("POST /api/markets/{id}/claim", h.Claim)
	mux.HandleFunc("POST /api/markets/{id}/reclaim", h.Reclaim)
	return middleware.Identity()(mux)
}

func TestPlaceBet(t *testing.T) {
	mux := newBetMux(&stubBetService{})

	req := httptest.NewRequest(http.MethodPost, "/api/markets/4/bets",
		strings.NewReader(`{"amount":500,"position":true}`))
	req.Header.Set(middleware.CallerHeader, "bob")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bettor":"bob"`)
	assert.Contains(t, rec.Body.String(), `"amount":500`)
}

func TestPlaceBetRequiresCaller(t *testing.T) {
	mux := newBetMux(&stubBetService{})

	req := httptest.NewRequest(http.MethodPost, "/api/markets/4/bets",
		strings.NewReader(`{"amount":500,"position":true}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceBetTooSmall(t *testing.T) {
	mux := newBetMux(&stubBetService{err: domain.ErrBetTooSmall})

	req := httptest.NewRequest(http.MethodPost, "/api/markets/4/bets",
		strings.NewReader(`{"amount":1,"position":true}`))
	req.Header.Set(middleware.CallerHeader, "bob")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClaim(t *testing.T) {
	mux := newBetMux(&stubBetService{payout: 800})

	req := httptest.NewRequest(http.MethodPost, "/api/markets/4/claim", nil)
	req.Header.Set(middleware.CallerHeader, "bob")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":800`)
}

func TestClaimConflicts(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"already claimed", domain.ErrAlreadyClaimed},
		{"did not win", domain.ErrBetDidNotWin},
		{"not resolved", domain.ErrMarketNotResolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newBetMux(&stubBetService{err: tt.err})
			req := httptest.NewRequest(http.MethodPost, "/api/markets/4/claim", nil)
			req.Header.Set(middleware.CallerHeader, "bob")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusConflict, rec.Code)
		})
	}
}

func TestReclaim(t *testing.T) {
	mux := newBetMux(&stubBetService{payout: 300})

	req := httptest.NewRequest(http.MethodPost, "/api/markets/4/reclaim", nil)
	req.Header.Set(middleware.CallerHeader, "carol")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":300`)
}

func TestGetBetNotFound(t *testing.T) {
	mux := newBetMux(&stubBetService{err: domain.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/markets/4/bets/bob", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
