package domain

import "time"

// Bet is a single escrowed wager. A bettor holds at most one bet per market,
// so (MarketID, Bettor) is the natural key.
type Bet struct {
	MarketID uint64 `json:"market_id"`
	Bettor   string `json:"bettor"`
	// Amount is the escrowed value, within the market's bounds at placement.
	Amount uint64 `json:"amount"`
	// Position is the side taken: true = YES, false = NO.
	Position bool `json:"position"`
	// Claimed is the one-shot flag set by either a winnings claim or a
	// refund reclaim; it is never cleared.
	Claimed  bool      `json:"claimed"`
	PlacedAt time.Time `json:"placed_at"`
}
