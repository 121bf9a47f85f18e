// Package settlement holds the pure settlement core: lifecycle transition
// guards, outcome determination, payout arithmetic, and reputation updates.
// Nothing in this package performs I/O; services feed it loaded records and
// an explicit current time, and persist whatever it returns.
package settlement

import (
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ValidateNewMarket checks the construction-time invariants of a market
// before it ever reaches Open.
func ValidateNewMarket(title, description string, deadline, resolutionDeadline time.Time, minBet, maxBet uint64, now time.Time) error {
	if len(title) > domain.MaxTitleLen {
		return domain.ErrTitleTooLong
	}
	if len(description) > domain.MaxDescriptionLen {
		return domain.ErrDescriptionTooLong
	}
	if !deadline.After(now) {
		return domain.ErrDeadlineInPast
	}
	if !resolutionDeadline.After(deadline) {
		return domain.ErrInvalidResolutionDeadline
	}
	if minBet == 0 {
		return domain.ErrInvalidMinBet
	}
	if maxBet < minBet {
		return domain.ErrInvalidMaxBet
	}
	return nil
}

// CanPlaceBet gates wager placement: market open, betting window still
// running, amount within bounds.
func CanPlaceBet(m domain.Market, amount uint64, now time.Time) error {
	if m.Status != domain.MarketStatusOpen {
		return domain.ErrMarketNotOpen
	}
	if !now.Before(m.Deadline) {
		return domain.ErrBettingClosed
	}
	if amount < m.MinBet {
		return domain.ErrBetTooSmall
	}
	if amount > m.MaxBet {
		return domain.ErrBetTooLarge
	}
	return nil
}

// CanClose gates the Open -> Closed transition. Close is a pure status
// update once the betting deadline has passed; re-invoking it on a non-open
// market fails with a state error.
func CanClose(m domain.Market, now time.Time) error {
	if m.Status != domain.MarketStatusOpen {
		return domain.ErrMarketNotOpen
	}
	if now.Before(m.Deadline) {
		return domain.ErrMarketNotReady
	}
	return nil
}

// CanResolve gates the {Open, Closed} -> Resolved transition. The oracle
// reading itself is validated separately by ValidateReading.
func CanResolve(m domain.Market, now time.Time) error {
	if m.Status != domain.MarketStatusOpen && m.Status != domain.MarketStatusClosed {
		return domain.ErrMarketNotOpen
	}
	if now.Before(m.Deadline) {
		return domain.ErrMarketNotReady
	}
	if now.After(m.ResolutionDeadline) {
		return domain.ErrResolutionExpired
	}
	return nil
}

// CanCancel gates the Open -> Cancelled transition: creator only, and only
// while no funds are at stake.
func CanCancel(m domain.Market, caller string) error {
	if caller != m.Creator {
		return domain.ErrUnauthorized
	}
	if m.Status != domain.MarketStatusOpen {
		return domain.ErrMarketNotOpen
	}
	if m.YesCount != 0 || m.NoCount != 0 {
		return domain.ErrMarketHasBets
	}
	return nil
}

// CanExpire gates the {Open, Closed} -> Expired transition, legal once the
// resolution window has closed without a resolution.
func CanExpire(m domain.Market, now time.Time) error {
	if m.Status != domain.MarketStatusOpen && m.Status != domain.MarketStatusClosed {
		return domain.ErrMarketNotOpen
	}
	if !now.After(m.ResolutionDeadline) {
		return domain.ErrMarketNotReady
	}
	return nil
}

// CanClaim gates a winnings claim: resolved market, unclaimed bet on the
// winning side.
func CanClaim(m domain.Market, b domain.Bet) error {
	if m.Status != domain.MarketStatusResolved || m.Outcome == nil {
		return domain.ErrMarketNotResolved
	}
	if b.Claimed {
		return domain.ErrAlreadyClaimed
	}
	if b.Position != *m.Outcome {
		return domain.ErrBetDidNotWin
	}
	return nil
}

// CanReclaim gates a principal-only refund. Refunds are available when the
// market was cancelled, when the resolution window closed without a
// resolution (whether or not an explicit expire transition ran), or when the
// market resolved with an empty winning pool — without that last case a
// market with bets only on the losing side would strand every escrowed
// lamport.
func CanReclaim(m domain.Market, b domain.Bet, now time.Time) error {
	if b.Claimed {
		return domain.ErrAlreadyClaimed
	}
	switch {
	case m.Status == domain.MarketStatusCancelled:
		return nil
	case m.Status == domain.MarketStatusExpired:
		return nil
	case m.Status != domain.MarketStatusResolved && now.After(m.ResolutionDeadline):
		// Lazy expiry: nobody invoked expire_market, but the window closed.
		return nil
	case m.Status == domain.MarketStatusResolved && m.Outcome != nil:
		if winning, _ := m.Pools(*m.Outcome); winning == 0 {
			return nil
		}
	}
	return domain.ErrMarketNotReclaimable
}
