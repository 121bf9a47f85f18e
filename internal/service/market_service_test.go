package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraclebets/oraclebets/internal/domain"
)

func TestInitializeOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Admin)
	assert.Equal(t, uint64(0), p.MarketCount)

	_, err = f.protocol.Initialize(ctx, "other")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCreateMarket(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)

	m, err := f.markets.Create(ctx, "alice", defaultParams(f.now))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), m.MarketID)
	assert.Equal(t, domain.MarketStatusOpen, m.Status)
	assert.Equal(t, "alice", m.Creator)

	// Counter advanced, so the next market gets id 1.
	m2, err := f.markets.Create(ctx, "bob", defaultParams(f.now))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m2.MarketID)

	proto, err := f.protocol.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), proto.MarketCount)

	// Vault opened alongside the market.
	bal, err := f.stores.Vaults.Balance(ctx, m.MarketID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bal)

	// Creator reputation recorded.
	rep, err := f.reps.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rep.MarketsCreated)
}

func TestCreateMarketValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(*CreateMarketParams)
		wantErr error
	}{
		{
			name:    "deadline in past",
			mutate:  func(p *CreateMarketParams) { p.Deadline = f.now.Add(-time.Minute) },
			wantErr: domain.ErrDeadlineInPast,
		},
		{
			name: "resolution before deadline",
			mutate: func(p *CreateMarketParams) {
				p.ResolutionDeadline = p.Deadline.Add(-time.Minute)
			},
			wantErr: domain.ErrInvalidResolutionDeadline,
		},
		{
			name:    "zero min bet",
			mutate:  func(p *CreateMarketParams) { p.MinBet = 0 },
			wantErr: domain.ErrInvalidMinBet,
		},
		{
			name:    "max below min",
			mutate:  func(p *CreateMarketParams) { p.MaxBet = 50 },
			wantErr: domain.ErrInvalidMaxBet,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := defaultParams(f.now)
			tt.mutate(&params)
			_, err := f.markets.Create(ctx, "alice", params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCloseMarket(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)
	m, err := f.markets.Create(ctx, "alice", defaultParams(f.now))
	require.NoError(t, err)

	// Too early.
	_, err = f.markets.Close(ctx, m.MarketID)
	assert.ErrorIs(t, err, domain.ErrMarketNotReady)

	f.advance(61 * time.Minute)
	closed, err := f.markets.Close(ctx, m.MarketID)
	require.NoError(t, err)
	assert.Equal(t, domain.MarketStatusClosed, closed.Status)

	// Idempotent re-close is rejected.
	_, err = f.markets.Close(ctx, m.MarketID)
	assert.ErrorIs(t, err, domain.ErrMarketNotOpen)
}

func TestResolveMarket(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)
	m, err := f.markets.Create(ctx, "alice", defaultParams(f.now))
	require.NoError(t, err)

	f.advance(61 * time.Minute)
	f.prices.reading = domain.OracleReading{
		Price:       260_000_000,
		Expo:        -6,
		PublishedAt: f.now.Add(-30 * time.Second),
	}

	resolved, err := f.markets.Resolve(ctx, m.MarketID)
	require.NoError(t, err)
	assert.Equal(t, domain.MarketStatusResolved, resolved.Status)
	require.NotNil(t, resolved.Outcome)
	assert.True(t, *resolved.Outcome)
	require.NotNil(t, resolved.ResolvedPrice)
	assert.Equal(t, int64(260_000_000), *resolved.ResolvedPrice)

	// Terminal: a second resolve fails.
	_, err = f.markets.Resolve(ctx, m.MarketID)
	assert.ErrorIs(t, err, domain.ErrMarketNotOpen)
}

func TestResolveBelowTarget(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)

	params := defaultParams(f.now)
	params.TargetAbove = false
	m, err := f.markets.Create(ctx, "alice", params)
	require.NoError(t, err)

	f.advance(61 * time.Minute)
	f.prices.reading = domain.OracleReading{
		Price:       240_000_000,
		PublishedAt: f.now,
	}

	resolved, err := f.markets.Resolve(ctx, m.MarketID)
	require.NoError(t, err)
	require.NotNil(t, resolved.Outcome)
	assert.True(t, *resolved.Outcome)
}

func TestResolveStalePrice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)
	m, err := f.markets.Create(ctx, "alice", defaultParams(f.now))
	require.NoError(t, err)

	f.advance(61 * time.Minute)
	f.prices.reading = domain.OracleReading{
		Price:       260_000_000,
		PublishedAt: f.now.Add(-3 * time.Minute),
	}

	_, err = f.markets.Resolve(ctx, m.MarketID)
	assert.ErrorIs(t, err, domain.ErrStalePrice)

	// Still resolvable with a fresh reading afterwards.
	f.prices.reading.PublishedAt = f.now
	_, err = f.markets.Resolve(ctx, m.MarketID)
	assert.NoError(t, err)
}

func TestResolveAfterWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)
	m, err := f.markets.Create(ctx, "alice", defaultParams(f.now))
	require.NoError(t, err)

	f.advance(3 * time.Hour)
	_, err = f.markets.Resolve(ctx, m.MarketID)
	assert.ErrorIs(t, err, domain.ErrResolutionExpired)
}

func TestCancelMarket(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)
	m, err := f.markets.Create(ctx, "alice", defaultParams(f.now))
	require.NoError(t, err)

	// Only the creator may cancel.
	_, err = f.markets.Cancel(ctx, "mallory", m.MarketID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	cancelled, err := f.markets.Cancel(ctx, "alice", m.MarketID)
	require.NoError(t, err)
	assert.Equal(t, domain.MarketStatusCancelled, cancelled.Status)
}

func TestCancelWithBetsRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)
	m, err := f.markets.Create(ctx, "alice", defaultParams(f.now))
	require.NoError(t, err)

	_, err = f.bets.Place(ctx, "bob", m.MarketID, 500, true)
	require.NoError(t, err)

	_, err = f.markets.Cancel(ctx, "alice", m.MarketID)
	assert.ErrorIs(t, err, domain.ErrMarketHasBets)
}

func TestExpireMarket(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)
	m, err := f.markets.Create(ctx, "alice", defaultParams(f.now))
	require.NoError(t, err)

	// Inside the resolution window expire is premature.
	f.advance(90 * time.Minute)
	_, err = f.markets.Expire(ctx, m.MarketID)
	assert.ErrorIs(t, err, domain.ErrMarketNotReady)

	f.advance(31 * time.Minute)
	expired, err := f.markets.Expire(ctx, m.MarketID)
	require.NoError(t, err)
	assert.Equal(t, domain.MarketStatusExpired, expired.Status)
}

func TestEventsPublished(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)
	m, err := f.markets.Create(ctx, "alice", defaultParams(f.now))
	require.NoError(t, err)
	_, err = f.bets.Place(ctx, "bob", m.MarketID, 500, true)
	require.NoError(t, err)

	entries, err := f.activity.Recent(ctx, "0", 10, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EventMarketCreated, entries[0].Event.Type)
	assert.Equal(t, domain.EventBetPlaced, entries[1].Event.Type)
	assert.Equal(t, uint64(500), entries[1].Event.Amount)
}

func TestActivityTypeFilter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.protocol.Initialize(ctx, "admin")
	require.NoError(t, err)
	m, err := f.markets.Create(ctx, "alice", defaultParams(f.now))
	require.NoError(t, err)
	_, err = f.bets.Place(ctx, "bob", m.MarketID, 500, true)
	require.NoError(t, err)
	_, err = f.bets.Place(ctx, "carol", m.MarketID, 700, false)
	require.NoError(t, err)

	entries, err := f.activity.Recent(ctx, "0", 10, string(domain.EventBetPlaced))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].Event.Actor)
	assert.Equal(t, "carol", entries[1].Event.Actor)

	entries, err = f.activity.Recent(ctx, "0", 10, string(domain.EventMarketCreated))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, m.MarketID, entries[0].Event.MarketID)
}
