package domain

import "time"

// AccuracyDenomBps is the basis-point scale for the accuracy ratio.
const AccuracyDenomBps = 10000

// Reputation is derived per-participant bookkeeping. It is created lazily on
// first market creation or first wager and updated as a side effect of
// creation, wagering, and claiming.
//
// Known quirk, preserved deliberately: nothing ever increments Losses or
// TotalLost, so AccuracyBps divides wins by wins and saturates at 10000 for
// any participant with at least one win. See DESIGN.md.
type Reputation struct {
	Agent          string    `json:"agent"`
	TotalBets      uint32    `json:"total_bets"`
	Wins           uint32    `json:"wins"`
	Losses         uint32    `json:"losses"`
	TotalWagered   uint64    `json:"total_wagered"`
	TotalWon       uint64    `json:"total_won"`
	TotalLost      uint64    `json:"total_lost"`
	MarketsCreated uint32    `json:"markets_created"`
	AccuracyBps    uint16    `json:"accuracy_bps"`
	LastActive     time.Time `json:"last_active"`
}
