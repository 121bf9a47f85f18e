package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
	"github.com/oraclebets/oraclebets/internal/settlement"
)

// BetService handles wager placement and the two exits from escrow: winnings
// claims and principal refunds. Every mutation runs under the market's lock
// and inside one transaction.
type BetService struct {
	stores domain.Stores
	tx     domain.TxRunner
	locks  domain.LockManager
	bus    domain.SignalBus
	logger *slog.Logger
	now    func() time.Time
}

// NewBetService creates a BetService.
func NewBetService(
	stores domain.Stores,
	tx domain.TxRunner,
	locks domain.LockManager,
	bus domain.SignalBus,
	logger *slog.Logger,
) *BetService {
	return &BetService{
		stores: stores,
		tx:     tx,
		locks:  locks,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// Place escrows a wager on one side of an open market. The bet row, the pool
// totals, the vault credit, the protocol volume, and the bettor's reputation
// all commit together.
func (s *BetService) Place(ctx context.Context, bettor string, marketID uint64, amount uint64, position bool) (domain.Bet, error) {
	unlock, err := s.locks.AcquireMarket(ctx, marketID, lockTTL)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("bet_service: place: %w", err)
	}
	defer unlock()

	now := s.now().UTC()

	var bet domain.Bet
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		m, err := st.Markets.Get(ctx, marketID)
		if err != nil {
			return err
		}
		if err := settlement.CanPlaceBet(m, amount, now); err != nil {
			return err
		}

		bet = domain.Bet{
			MarketID: marketID,
			Bettor:   bettor,
			Amount:   amount,
			Position: position,
			PlacedAt: now,
		}
		if err := st.Bets.Create(ctx, bet); err != nil {
			return err
		}

		if position {
			if m.TotalYes, err = settlement.AddU64(m.TotalYes, amount); err != nil {
				return err
			}
			if m.YesCount, err = settlement.AddU32(m.YesCount, 1); err != nil {
				return err
			}
		} else {
			if m.TotalNo, err = settlement.AddU64(m.TotalNo, amount); err != nil {
				return err
			}
			if m.NoCount, err = settlement.AddU32(m.NoCount, 1); err != nil {
				return err
			}
		}
		if err := st.Markets.Update(ctx, m); err != nil {
			return err
		}

		if err := st.Vaults.Credit(ctx, marketID, amount); err != nil {
			return err
		}

		proto, err := st.Protocol.Get(ctx)
		if err != nil {
			return fmt.Errorf("load protocol: %w", err)
		}
		if proto.TotalVolume, err = settlement.AddU64(proto.TotalVolume, amount); err != nil {
			return err
		}
		if err := st.Protocol.Update(ctx, proto); err != nil {
			return err
		}

		rep, err := loadOrNewReputation(ctx, st, bettor)
		if err != nil {
			return err
		}
		if err := settlement.ApplyWager(&rep, amount, now); err != nil {
			return err
		}
		return st.Reputation.Upsert(ctx, rep)
	})
	if err != nil {
		return domain.Bet{}, fmt.Errorf("bet_service: place: %w", err)
	}

	s.logger.InfoContext(ctx, "bet_service: bet placed",
		slog.Uint64("market_id", marketID),
		slog.String("bettor", bettor),
		slog.Uint64("amount", amount),
		slog.Bool("position", position),
	)
	publishEvent(ctx, s.bus, s.logger, domain.Event{
		Type:     domain.EventBetPlaced,
		MarketID: marketID,
		Actor:    bettor,
		Amount:   amount,
		At:       now,
	})
	return bet, nil
}

// Claim pays out a winning bet on a resolved market: the principal plus a
// proportional, floor-divided share of the losing pool. One shot per bet.
func (s *BetService) Claim(ctx context.Context, bettor string, marketID uint64) (uint64, error) {
	unlock, err := s.locks.AcquireMarket(ctx, marketID, lockTTL)
	if err != nil {
		return 0, fmt.Errorf("bet_service: claim: %w", err)
	}
	defer unlock()

	now := s.now().UTC()

	var winnings uint64
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		m, err := st.Markets.Get(ctx, marketID)
		if err != nil {
			return err
		}
		bet, err := st.Bets.Get(ctx, marketID, bettor)
		if err != nil {
			return err
		}
		if err := settlement.CanClaim(m, bet); err != nil {
			return err
		}

		winningPool, losingPool := m.Pools(*m.Outcome)
		winnings, err = settlement.Winnings(bet.Amount, winningPool, losingPool)
		if err != nil {
			return err
		}

		bet.Claimed = true
		if err := st.Bets.Update(ctx, bet); err != nil {
			return err
		}
		if err := st.Vaults.Debit(ctx, marketID, winnings); err != nil {
			return err
		}

		rep, err := loadOrNewReputation(ctx, st, bettor)
		if err != nil {
			return err
		}
		if err := settlement.ApplyWin(&rep, winnings-bet.Amount, now); err != nil {
			return err
		}
		return st.Reputation.Upsert(ctx, rep)
	})
	if err != nil {
		return 0, fmt.Errorf("bet_service: claim: %w", err)
	}

	s.logger.InfoContext(ctx, "bet_service: winnings claimed",
		slog.Uint64("market_id", marketID),
		slog.String("bettor", bettor),
		slog.Uint64("winnings", winnings),
	)
	publishEvent(ctx, s.bus, s.logger, domain.Event{
		Type:     domain.EventClaimed,
		MarketID: marketID,
		Actor:    bettor,
		Amount:   winnings,
		At:       now,
	})
	return winnings, nil
}

// Reclaim refunds a bet's principal, no more and no less, on a market that
// was cancelled, expired, passed its resolution deadline unresolved, or
// resolved with an empty winning pool. One shot per bet; reputation is
// untouched.
func (s *BetService) Reclaim(ctx context.Context, bettor string, marketID uint64) (uint64, error) {
	unlock, err := s.locks.AcquireMarket(ctx, marketID, lockTTL)
	if err != nil {
		return 0, fmt.Errorf("bet_service: reclaim: %w", err)
	}
	defer unlock()

	now := s.now().UTC()

	var refund uint64
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		m, err := st.Markets.Get(ctx, marketID)
		if err != nil {
			return err
		}
		bet, err := st.Bets.Get(ctx, marketID, bettor)
		if err != nil {
			return err
		}
		if err := settlement.CanReclaim(m, bet, now); err != nil {
			return err
		}

		refund = bet.Amount
		bet.Claimed = true
		if err := st.Bets.Update(ctx, bet); err != nil {
			return err
		}
		return st.Vaults.Debit(ctx, marketID, refund)
	})
	if err != nil {
		return 0, fmt.Errorf("bet_service: reclaim: %w", err)
	}

	s.logger.InfoContext(ctx, "bet_service: bet reclaimed",
		slog.Uint64("market_id", marketID),
		slog.String("bettor", bettor),
		slog.Uint64("refund", refund),
	)
	publishEvent(ctx, s.bus, s.logger, domain.Event{
		Type:     domain.EventReclaimed,
		MarketID: marketID,
		Actor:    bettor,
		Amount:   refund,
		At:       now,
	})
	return refund, nil
}

// Get returns the bettor's bet on a market.
func (s *BetService) Get(ctx context.Context, marketID uint64, bettor string) (domain.Bet, error) {
	b, err := s.stores.Bets.Get(ctx, marketID, bettor)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("bet_service: get (%d, %s): %w", marketID, bettor, err)
	}
	return b, nil
}

// ListByMarket returns all bets on a market, earliest first.
func (s *BetService) ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.Bet, error) {
	bets, err := s.stores.Bets.ListByMarket(ctx, marketID, opts)
	if err != nil {
		return nil, fmt.Errorf("bet_service: list by market %d: %w", marketID, err)
	}
	return bets, nil
}

// ListByBettor returns all of a bettor's bets, most recent first.
func (s *BetService) ListByBettor(ctx context.Context, bettor string, opts domain.ListOpts) ([]domain.Bet, error) {
	bets, err := s.stores.Bets.ListByBettor(ctx, bettor, opts)
	if err != nil {
		return nil, fmt.Errorf("bet_service: list by bettor %s: %w", bettor, err)
	}
	return bets, nil
}
