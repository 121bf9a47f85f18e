package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// ProtocolStore persists the singleton protocol record.
type ProtocolStore interface {
	// Create fails with ErrAlreadyExists when the protocol has already been
	// initialized.
	Create(ctx context.Context, p Protocol) error
	Get(ctx context.Context) (Protocol, error)
	Update(ctx context.Context, p Protocol) error
}

// MarketStore persists markets.
type MarketStore interface {
	Create(ctx context.Context, m Market) error
	Get(ctx context.Context, marketID uint64) (Market, error)
	Update(ctx context.Context, m Market) error
	// List returns markets filtered by status; an empty status matches all.
	List(ctx context.Context, status MarketStatus, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)
	// ListTerminalBefore returns terminal markets created before the cutoff,
	// for export to cold storage.
	ListTerminalBefore(ctx context.Context, before time.Time, opts ListOpts) ([]Market, error)
}

// BetStore persists wagers keyed by (market, bettor).
type BetStore interface {
	// Create fails with ErrAlreadyExists when the bettor already holds a bet
	// on the market.
	Create(ctx context.Context, b Bet) error
	Get(ctx context.Context, marketID uint64, bettor string) (Bet, error)
	Update(ctx context.Context, b Bet) error
	ListByMarket(ctx context.Context, marketID uint64, opts ListOpts) ([]Bet, error)
	ListByBettor(ctx context.Context, bettor string, opts ListOpts) ([]Bet, error)
}

// ReputationStore persists per-participant reputation records.
type ReputationStore interface {
	Get(ctx context.Context, agent string) (Reputation, error)
	Upsert(ctx context.Context, r Reputation) error
	// List returns reputations ordered by accuracy (desc), then total
	// wagered (desc), for the leaderboard.
	List(ctx context.Context, opts ListOpts) ([]Reputation, error)
}

// VaultStore tracks the escrow balance held per market: credited on every
// wager, debited on every payout or refund. The balance can never go
// negative.
type VaultStore interface {
	Create(ctx context.Context, marketID uint64) error
	Credit(ctx context.Context, marketID uint64, amount uint64) error
	// Debit fails when the vault balance would go negative.
	Debit(ctx context.Context, marketID uint64, amount uint64) error
	Balance(ctx context.Context, marketID uint64) (uint64, error)
}

// Stores bundles the per-entity stores that participate in one atomic unit.
type Stores struct {
	Protocol   ProtocolStore
	Markets    MarketStore
	Bets       BetStore
	Reputation ReputationStore
	Vaults     VaultStore
}

// TxRunner executes fn against a transaction-scoped Stores bundle. Every
// mutation made through the bundle commits or rolls back as a whole, which is
// what makes each operation all-or-nothing.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Stores) error) error
}

// LockManager provides per-market mutual exclusion. Mutations against the
// same market id run one at a time.
type LockManager interface {
	AcquireMarket(ctx context.Context, marketID uint64, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter bounds how many requests a caller may make per window.
type RateLimiter interface {
	// Allow reports whether the caller identified by key may proceed.
	Allow(ctx context.Context, key string) (bool, error)
}

// OracleCache caches the most recent reading per feed so repeated resolve
// attempts within the freshness window do not refetch from the oracle.
type OracleCache interface {
	SetReading(ctx context.Context, r OracleReading) error
	// GetReading returns ErrNotFound when no reading is cached for the feed.
	GetReading(ctx context.Context, feedID string) (OracleReading, error)
}
