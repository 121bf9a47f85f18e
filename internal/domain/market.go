package domain

import "time"

// Text length bounds enforced at market creation.
const (
	MaxTitleLen       = 128
	MaxDescriptionLen = 512
)

// MarketStatus represents the lifecycle state of a market.
//
// Legal transitions: Open -> {Closed, Resolved, Cancelled, Expired} and
// Closed -> {Resolved, Expired}. Resolved, Cancelled and Expired are
// terminal. No transition is reversible.
type MarketStatus string

const (
	MarketStatusOpen      MarketStatus = "open"
	MarketStatusClosed    MarketStatus = "closed"
	MarketStatusResolved  MarketStatus = "resolved"
	MarketStatusCancelled MarketStatus = "cancelled"
	MarketStatusExpired   MarketStatus = "expired"
)

// Terminal reports whether no further lifecycle transitions are possible.
func (s MarketStatus) Terminal() bool {
	switch s {
	case MarketStatusResolved, MarketStatusCancelled, MarketStatusExpired:
		return true
	}
	return false
}

// Market is a single binary-outcome proposition with a betting window and a
// resolution window. Markets are never destroyed; terminal markets remain as
// the permanent settlement record.
type Market struct {
	MarketID    uint64       `json:"market_id"`
	Creator     string       `json:"creator"`
	Title       string       `json:"title"`
	Description string       `json:"description"`

	// OracleFeedID identifies the external price stream used at resolution.
	OracleFeedID string `json:"oracle_feed_id"`
	// TargetPrice is in the oracle's native scale; no rescaling is performed
	// at resolution, so the two must be expressed in the same units by
	// construction.
	TargetPrice int64 `json:"target_price"`
	// TargetAbove selects the outcome rule: when true, YES wins if the
	// resolved price is >= TargetPrice; when false, YES wins if it is below.
	TargetAbove bool `json:"target_above"`

	Deadline           time.Time `json:"deadline"`
	ResolutionDeadline time.Time `json:"resolution_deadline"`

	MinBet uint64 `json:"min_bet"`
	MaxBet uint64 `json:"max_bet"`

	// Pool totals equal the sum of amounts of all bets on each side.
	TotalYes uint64 `json:"total_yes"`
	TotalNo  uint64 `json:"total_no"`
	YesCount uint32 `json:"yes_count"`
	NoCount  uint32 `json:"no_count"`

	Status MarketStatus `json:"status"`

	// Set only on resolution. Nil means unresolved; a legitimate resolved
	// price of zero is therefore distinguishable from "no price".
	Outcome       *bool      `json:"outcome,omitempty"`
	ResolvedPrice *int64     `json:"resolved_price,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Pools returns (winningPool, losingPool) for the given outcome.
func (m Market) Pools(outcome bool) (winning, losing uint64) {
	if outcome {
		return m.TotalYes, m.TotalNo
	}
	return m.TotalNo, m.TotalYes
}
