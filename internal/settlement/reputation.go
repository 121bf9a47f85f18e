package settlement

import (
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ApplyMarketCreated records a market creation against the creator's
// reputation.
func ApplyMarketCreated(r *domain.Reputation, now time.Time) error {
	created, err := AddU32(r.MarketsCreated, 1)
	if err != nil {
		return err
	}
	r.MarketsCreated = created
	r.LastActive = now
	return nil
}

// ApplyWager records a placed bet against the bettor's reputation.
func ApplyWager(r *domain.Reputation, amount uint64, now time.Time) error {
	bets, err := AddU32(r.TotalBets, 1)
	if err != nil {
		return err
	}
	wagered, err := AddU64(r.TotalWagered, amount)
	if err != nil {
		return err
	}
	r.TotalBets = bets
	r.TotalWagered = wagered
	r.LastActive = now
	return nil
}

// ApplyWin records a successful claim. Only the profit (winnings minus the
// returned principal) counts toward TotalWon.
func ApplyWin(r *domain.Reputation, profit uint64, now time.Time) error {
	wins, err := AddU32(r.Wins, 1)
	if err != nil {
		return err
	}
	won, err := AddU64(r.TotalWon, profit)
	if err != nil {
		return err
	}
	r.Wins = wins
	r.TotalWon = won
	if err := recomputeAccuracy(r); err != nil {
		return err
	}
	r.LastActive = now
	return nil
}

// recomputeAccuracy derives AccuracyBps = wins * 10000 / (wins + losses)
// with truncating division, zero when the denominator is zero. Losses are
// never incremented anywhere, so in practice the ratio saturates; see the
// Reputation doc comment.
func recomputeAccuracy(r *domain.Reputation) error {
	total, err := AddU32(r.Wins, r.Losses)
	if err != nil {
		return err
	}
	if total == 0 {
		r.AccuracyBps = 0
		return nil
	}
	bps := uint64(r.Wins) * domain.AccuracyDenomBps / uint64(total)
	if bps > domain.AccuracyDenomBps {
		return domain.ErrOverflow
	}
	r.AccuracyBps = uint16(bps)
	return nil
}
