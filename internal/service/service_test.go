package service

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// In-memory store fakes. They back the service tests without Postgres or
// Redis; the tx fake applies mutations directly, which is enough for
// single-goroutine tests.

type memProtocolStore struct {
	p   *domain.Protocol
	mux sync.Mutex
}

func (s *memProtocolStore) Create(_ context.Context, p domain.Protocol) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.p != nil {
		return domain.ErrAlreadyExists
	}
	cp := p
	s.p = &cp
	return nil
}

func (s *memProtocolStore) Get(_ context.Context) (domain.Protocol, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.p == nil {
		return domain.Protocol{}, domain.ErrNotFound
	}
	return *s.p, nil
}

func (s *memProtocolStore) Update(_ context.Context, p domain.Protocol) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.p == nil {
		return domain.ErrNotFound
	}
	cp := p
	s.p = &cp
	return nil
}

type memMarketStore struct {
	markets map[uint64]domain.Market
	mux     sync.Mutex
}

func newMemMarketStore() *memMarketStore {
	return &memMarketStore{markets: make(map[uint64]domain.Market)}
}

func (s *memMarketStore) Create(_ context.Context, m domain.Market) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.markets[m.MarketID]; ok {
		return domain.ErrAlreadyExists
	}
	s.markets[m.MarketID] = m
	return nil
}

func (s *memMarketStore) Get(_ context.Context, id uint64) (domain.Market, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *memMarketStore) Update(_ context.Context, m domain.Market) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.markets[m.MarketID]; !ok {
		return domain.ErrNotFound
	}
	s.markets[m.MarketID] = m
	return nil
}

func (s *memMarketStore) List(_ context.Context, status domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	var out []domain.Market
	for _, m := range s.markets {
		if status == "" || m.Status == status {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketID > out[j].MarketID })
	return paginate(out, opts), nil
}

func (s *memMarketStore) Count(_ context.Context) (int64, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return int64(len(s.markets)), nil
}

func (s *memMarketStore) ListTerminalBefore(_ context.Context, before time.Time, opts domain.ListOpts) ([]domain.Market, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	var out []domain.Market
	for _, m := range s.markets {
		if m.Status.Terminal() && m.CreatedAt.Before(before) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketID < out[j].MarketID })
	return paginate(out, opts), nil
}

type betKey struct {
	marketID uint64
	bettor   string
}

type memBetStore struct {
	bets map[betKey]domain.Bet
	mux  sync.Mutex
}

func newMemBetStore() *memBetStore {
	return &memBetStore{bets: make(map[betKey]domain.Bet)}
}

func (s *memBetStore) Create(_ context.Context, b domain.Bet) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	k := betKey{b.MarketID, b.Bettor}
	if _, ok := s.bets[k]; ok {
		return domain.ErrAlreadyExists
	}
	s.bets[k] = b
	return nil
}

func (s *memBetStore) Get(_ context.Context, marketID uint64, bettor string) (domain.Bet, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	b, ok := s.bets[betKey{marketID, bettor}]
	if !ok {
		return domain.Bet{}, domain.ErrNotFound
	}
	return b, nil
}

func (s *memBetStore) Update(_ context.Context, b domain.Bet) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	k := betKey{b.MarketID, b.Bettor}
	if _, ok := s.bets[k]; !ok {
		return domain.ErrNotFound
	}
	s.bets[k] = b
	return nil
}

func (s *memBetStore) ListByMarket(_ context.Context, marketID uint64, opts domain.ListOpts) ([]domain.Bet, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	var out []domain.Bet
	for k, b := range s.bets {
		if k.marketID == marketID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.Before(out[j].PlacedAt) })
	return paginate(out, opts), nil
}

func (s *memBetStore) ListByBettor(_ context.Context, bettor string, opts domain.ListOpts) ([]domain.Bet, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	var out []domain.Bet
	for k, b := range s.bets {
		if k.bettor == bettor {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.After(out[j].PlacedAt) })
	return paginate(out, opts), nil
}

type memReputationStore struct {
	reps map[string]domain.Reputation
	mux  sync.Mutex
}

func newMemReputationStore() *memReputationStore {
	return &memReputationStore{reps: make(map[string]domain.Reputation)}
}

func (s *memReputationStore) Get(_ context.Context, agent string) (domain.Reputation, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	r, ok := s.reps[agent]
	if !ok {
		return domain.Reputation{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *memReputationStore) Upsert(_ context.Context, r domain.Reputation) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.reps[r.Agent] = r
	return nil
}

func (s *memReputationStore) List(_ context.Context, opts domain.ListOpts) ([]domain.Reputation, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	var out []domain.Reputation
	for _, r := range s.reps {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccuracyBps != out[j].AccuracyBps {
			return out[i].AccuracyBps > out[j].AccuracyBps
		}
		return out[i].TotalWagered > out[j].TotalWagered
	})
	return paginate(out, opts), nil
}

type memVaultStore struct {
	balances map[uint64]uint64
	mux      sync.Mutex
}

func newMemVaultStore() *memVaultStore {
	return &memVaultStore{balances: make(map[uint64]uint64)}
}

func (s *memVaultStore) Create(_ context.Context, marketID uint64) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.balances[marketID]; ok {
		return domain.ErrAlreadyExists
	}
	s.balances[marketID] = 0
	return nil
}

func (s *memVaultStore) Credit(_ context.Context, marketID uint64, amount uint64) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.balances[marketID]; !ok {
		return domain.ErrNotFound
	}
	s.balances[marketID] += amount
	return nil
}

func (s *memVaultStore) Debit(_ context.Context, marketID uint64, amount uint64) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	bal, ok := s.balances[marketID]
	if !ok || bal < amount {
		return domain.ErrNotFound
	}
	s.balances[marketID] = bal - amount
	return nil
}

func (s *memVaultStore) Balance(_ context.Context, marketID uint64) (uint64, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	bal, ok := s.balances[marketID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return bal, nil
}

func paginate[T any](items []T, opts domain.ListOpts) []T {
	if opts.Offset >= len(items) {
		return nil
	}
	items = items[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}

// memTx applies the callback against the live stores. Mutations are not
// rolled back on error, which the tests account for by asserting on the
// error before any state.
type memTx struct {
	stores domain.Stores
}

func (t *memTx) InTx(_ context.Context, fn func(domain.Stores) error) error {
	return fn(t.stores)
}

// memLocks grants every acquisition and counts them.
type memLocks struct {
	acquired int
	mux      sync.Mutex
}

func (l *memLocks) AcquireMarket(_ context.Context, _ uint64, _ time.Duration) (func(), error) {
	l.mux.Lock()
	l.acquired++
	l.mux.Unlock()
	return func() {}, nil
}

// memBus records published payloads and serves a fixed-size stream.
type memBus struct {
	published [][]byte
	stream    []streamEntry
	mux       sync.Mutex
}

type streamEntry struct {
	typ     string
	payload []byte
}

func (b *memBus) Publish(_ context.Context, _ string, payload []byte) error {
	b.mux.Lock()
	defer b.mux.Unlock()
	b.published = append(b.published, payload)
	return nil
}

func (b *memBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (b *memBus) StreamAppend(_ context.Context, _ string, eventType string, payload []byte) error {
	b.mux.Lock()
	defer b.mux.Unlock()
	b.stream = append(b.stream, streamEntry{typ: eventType, payload: payload})
	return nil
}

func (b *memBus) StreamRead(_ context.Context, _ string, lastID string, count int) ([]domain.StreamMessage, error) {
	b.mux.Lock()
	defer b.mux.Unlock()
	start := 0
	if lastID != "0" && lastID != "0-0" {
		if n, err := strconv.Atoi(lastID); err == nil {
			start = n
		}
	}
	var out []domain.StreamMessage
	for i := start; i < len(b.stream) && len(out) < count; i++ {
		out = append(out, domain.StreamMessage{
			ID:      strconv.Itoa(i + 1),
			Type:    b.stream[i].typ,
			Payload: b.stream[i].payload,
		})
	}
	return out, nil
}

// fixedPrices returns one canned reading or error for every feed.
type fixedPrices struct {
	reading domain.OracleReading
	err     error
}

func (p *fixedPrices) GetPrice(_ context.Context, feedID string, _ time.Duration) (domain.OracleReading, error) {
	if p.err != nil {
		return domain.OracleReading{}, p.err
	}
	r := p.reading
	r.FeedID = feedID
	return r, nil
}

// fixture wires every service against shared in-memory state.
type fixture struct {
	stores   domain.Stores
	bus      *memBus
	locks    *memLocks
	prices   *fixedPrices
	now      time.Time
	protocol *ProtocolService
	markets  *MarketService
	bets     *BetService
	reps     *ReputationService
	activity *ActivityService
}

func newFixture() *fixture {
	stores := domain.Stores{
		Protocol:   &memProtocolStore{},
		Markets:    newMemMarketStore(),
		Bets:       newMemBetStore(),
		Reputation: newMemReputationStore(),
		Vaults:     newMemVaultStore(),
	}
	tx := &memTx{stores: stores}
	bus := &memBus{}
	locks := &memLocks{}
	prices := &fixedPrices{}
	logger := slog.New(slog.DiscardHandler)
	now := time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)

	f := &fixture{
		stores:   stores,
		bus:      bus,
		locks:    locks,
		prices:   prices,
		now:      now,
		protocol: NewProtocolService(stores, tx, logger),
		markets:  NewMarketService(stores, tx, locks, bus, prices, 0, logger),
		bets:     NewBetService(stores, tx, locks, bus, logger),
		reps:     NewReputationService(stores),
		activity: NewActivityService(bus),
	}
	f.protocol.now = func() time.Time { return f.now }
	f.markets.now = func() time.Time { return f.now }
	f.bets.now = func() time.Time { return f.now }
	return f
}

// advance moves the fixture clock forward.
func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func defaultParams(now time.Time) CreateMarketParams {
	return CreateMarketParams{
		Title:              "SOL above $250 by Friday",
		Description:        "Resolves yes if SOL trades at or above the target.",
		OracleFeedID:       "feed-sol-usd",
		TargetPrice:        250_000_000,
		TargetAbove:        true,
		Deadline:           now.Add(time.Hour),
		ResolutionDeadline: now.Add(2 * time.Hour),
		MinBet:             100,
		MaxBet:             100_000,
	}
}
