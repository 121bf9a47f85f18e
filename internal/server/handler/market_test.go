package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraclebets/oraclebets/internal/domain"
	"github.com/oraclebets/oraclebets/internal/server/middleware"
	"github.com/oraclebets/oraclebets/internal/service"
)

// stubMarketService returns canned values for every MarketService method.
type stubMarketService struct {
	market domain.Market
	err    error
}

func (s *stubMarketService) Create(_ context.Context, creator string, _ service.CreateMarketParams) (domain.Market, error) {
	m := s.market
	m.Creator = creator
	return m, s.err
}

func (s *stubMarketService) Close(context.Context, uint64) (domain.Market, error) {
	return s.market, s.err
}

func (s *stubMarketService) Resolve(context.Context, uint64) (domain.Market, error) {
	return s.market, s.err
}

func (s *stubMarketService) Cancel(context.Context, string, uint64) (domain.Market, error) {
	return s.market, s.err
}

func (s *stubMarketService) Expire(context.Context, uint64) (domain.Market, error) {
	return s.market, s.err
}

func (s *stubMarketService) Get(context.Context, uint64) (domain.Market, error) {
	return s.market, s.err
}

func (s *stubMarketService) List(context.Context, domain.MarketStatus, domain.ListOpts) ([]domain.Market, error) {
	return []domain.Market{s.market}, s.err
}

func (s *stubMarketService) Count(context.Context) (int64, error) {
	return 1, s.err
}

func newMarketMux(svc MarketService) http.Handler {
	h := NewMarketHandler(svc, slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/markets", h.CreateMarket)
	mux.HandleFunc("GET /api/markets", h.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", h.GetMarket)
	mux.HandleFunc("POST /api/markets/{id}/close", h.CloseMarket)
	mux.HandleFunc("POST /api/markets/{id}/cancel", h.CancelMarket)
	return middleware.Identity()(mux)
}

func TestCreateMarketRequiresCaller(t *testing.T) {
	mux := newMarketMux(&stubMarketService{})

	req := httptest.NewRequest(http.MethodPost, "/api/markets", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateMarket(t *testing.T) {
	svc := &stubMarketService{market: domain.Market{
		MarketID: 7,
		Title:    "SOL above $250",
		Status:   domain.MarketStatusOpen,
	}}
	mux := newMarketMux(svc)

	body := `{
		"title": "SOL above $250",
		"oracle_feed_id": "feed-sol-usd",
		"target_price": 250000000,
		"target_above": true,
		"deadline": "` + time.Now().Add(time.Hour).UTC().Format(time.RFC3339) + `",
		"resolution_deadline": "` + time.Now().Add(2*time.Hour).UTC().Format(time.RFC3339) + `",
		"min_bet": 100,
		"max_bet": 1000
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/markets", strings.NewReader(body))
	req.Header.Set(middleware.CallerHeader, "alice")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"creator":"alice"`)
}

func TestCreateMarketValidationStatus(t *testing.T) {
	svc := &stubMarketService{err: domain.ErrDeadlineInPast}
	mux := newMarketMux(svc)

	body := `{"title":"t","oracle_feed_id":"f"}`
	req := httptest.NewRequest(http.MethodPost, "/api/markets", strings.NewReader(body))
	req.Header.Set(middleware.CallerHeader, "alice")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrDeadlineInPast.Error())
}

func TestGetMarketErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"not found", "/api/markets/5", domain.ErrNotFound, http.StatusNotFound},
		{"bad id", "/api/markets/abc", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newMarketMux(&stubMarketService{err: tt.err})
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCloseMarketStateConflict(t *testing.T) {
	mux := newMarketMux(&stubMarketService{err: domain.ErrMarketNotOpen})

	req := httptest.NewRequest(http.MethodPost, "/api/markets/3/close", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelMarketForbidden(t *testing.T) {
	mux := newMarketMux(&stubMarketService{err: domain.ErrUnauthorized})

	req := httptest.NewRequest(http.MethodPost, "/api/markets/3/cancel", nil)
	req.Header.Set(middleware.CallerHeader, "mallory")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListMarkets(t *testing.T) {
	svc := &stubMarketService{market: domain.Market{MarketID: 1, Status: domain.MarketStatusOpen}}
	mux := newMarketMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/markets?status=open&limit=10", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}
