package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
	"github.com/oraclebets/oraclebets/internal/settlement"
)

// CreateMarketParams carries the caller-supplied fields of a new market.
type CreateMarketParams struct {
	Title              string
	Description        string
	OracleFeedID       string
	TargetPrice        int64
	TargetAbove        bool
	Deadline           time.Time
	ResolutionDeadline time.Time
	MinBet             uint64
	MaxBet             uint64
}

// MarketService drives the market lifecycle: creation, closing the betting
// window, oracle resolution, cancellation, and expiry. Every transition runs
// under the market's lock and inside one transaction.
type MarketService struct {
	stores domain.Stores
	tx     domain.TxRunner
	locks  domain.LockManager
	bus    domain.SignalBus
	prices domain.PriceSource
	logger *slog.Logger

	// maxPriceAge bounds oracle reading staleness at resolution.
	maxPriceAge time.Duration
	now         func() time.Time
}

// NewMarketService creates a MarketService. A maxPriceAge of zero selects the
// default freshness bound.
func NewMarketService(
	stores domain.Stores,
	tx domain.TxRunner,
	locks domain.LockManager,
	bus domain.SignalBus,
	prices domain.PriceSource,
	maxPriceAge time.Duration,
	logger *slog.Logger,
) *MarketService {
	if maxPriceAge <= 0 {
		maxPriceAge = settlement.DefaultMaxPriceAge
	}
	return &MarketService{
		stores:      stores,
		tx:          tx,
		locks:       locks,
		bus:         bus,
		prices:      prices,
		logger:      logger,
		maxPriceAge: maxPriceAge,
		now:         time.Now,
	}
}

// Create validates and persists a new market. The market id comes from the
// protocol counter; the counter increment, the market row, its vault, and the
// creator's reputation update all commit together.
func (s *MarketService) Create(ctx context.Context, creator string, p CreateMarketParams) (domain.Market, error) {
	now := s.now().UTC()

	if err := settlement.ValidateNewMarket(
		p.Title, p.Description, p.Deadline, p.ResolutionDeadline, p.MinBet, p.MaxBet, now,
	); err != nil {
		return domain.Market{}, err
	}

	var m domain.Market
	err := s.tx.InTx(ctx, func(st domain.Stores) error {
		proto, err := st.Protocol.Get(ctx)
		if err != nil {
			return fmt.Errorf("load protocol: %w", err)
		}

		count, err := settlement.AddU64(proto.MarketCount, 1)
		if err != nil {
			return err
		}

		m = domain.Market{
			MarketID:           proto.MarketCount,
			Creator:            creator,
			Title:              p.Title,
			Description:        p.Description,
			OracleFeedID:       p.OracleFeedID,
			TargetPrice:        p.TargetPrice,
			TargetAbove:        p.TargetAbove,
			Deadline:           p.Deadline,
			ResolutionDeadline: p.ResolutionDeadline,
			MinBet:             p.MinBet,
			MaxBet:             p.MaxBet,
			Status:             domain.MarketStatusOpen,
			CreatedAt:          now,
		}
		if err := st.Markets.Create(ctx, m); err != nil {
			return err
		}
		if err := st.Vaults.Create(ctx, m.MarketID); err != nil {
			return err
		}

		rep, err := loadOrNewReputation(ctx, st, creator)
		if err != nil {
			return err
		}
		if err := settlement.ApplyMarketCreated(&rep, now); err != nil {
			return err
		}
		if err := st.Reputation.Upsert(ctx, rep); err != nil {
			return err
		}

		proto.MarketCount = count
		return st.Protocol.Update(ctx, proto)
	})
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: create: %w", err)
	}

	s.logger.InfoContext(ctx, "market_service: market created",
		slog.Uint64("market_id", m.MarketID),
		slog.String("creator", creator),
	)
	publishEvent(ctx, s.bus, s.logger, domain.Event{
		Type:     domain.EventMarketCreated,
		MarketID: m.MarketID,
		Actor:    creator,
		At:       now,
	})
	return m, nil
}

// Close moves an open market to Closed once its betting deadline has passed.
// Anyone may invoke it.
func (s *MarketService) Close(ctx context.Context, marketID uint64) (domain.Market, error) {
	return s.transition(ctx, marketID, domain.EventMarketClosed, "",
		func(m *domain.Market, now time.Time) error {
			if err := settlement.CanClose(*m, now); err != nil {
				return err
			}
			m.Status = domain.MarketStatusClosed
			return nil
		})
}

// Resolve settles a market against a fresh oracle reading. Anyone may invoke
// it once the betting deadline has passed and before the resolution window
// closes.
func (s *MarketService) Resolve(ctx context.Context, marketID uint64) (domain.Market, error) {
	unlock, err := s.locks.AcquireMarket(ctx, marketID, lockTTL)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: resolve: %w", err)
	}
	defer unlock()

	now := s.now().UTC()

	m, err := s.stores.Markets.Get(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: resolve: %w", err)
	}
	if err := settlement.CanResolve(m, now); err != nil {
		return domain.Market{}, err
	}

	reading, err := s.prices.GetPrice(ctx, m.OracleFeedID, s.maxPriceAge)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: resolve: %w", err)
	}

	var resolved domain.Market
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		m, err := st.Markets.Get(ctx, marketID)
		if err != nil {
			return err
		}
		if err := settlement.CanResolve(m, now); err != nil {
			return err
		}
		if err := settlement.ValidateReading(m, reading, now, s.maxPriceAge); err != nil {
			return err
		}

		outcome := settlement.Outcome(m, reading.Price)
		m.Status = domain.MarketStatusResolved
		m.Outcome = &outcome
		m.ResolvedPrice = &reading.Price
		m.ResolvedAt = &now
		resolved = m
		return st.Markets.Update(ctx, m)
	})
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: resolve: %w", err)
	}

	s.logger.InfoContext(ctx, "market_service: market resolved",
		slog.Uint64("market_id", marketID),
		slog.Bool("outcome", *resolved.Outcome),
		slog.Int64("price", reading.Price),
	)
	publishEvent(ctx, s.bus, s.logger, domain.Event{
		Type:     domain.EventMarketResolved,
		MarketID: marketID,
		Outcome:  resolved.Outcome,
		At:       now,
	})
	return resolved, nil
}

// Cancel voids an open, bet-free market. Creator only.
func (s *MarketService) Cancel(ctx context.Context, caller string, marketID uint64) (domain.Market, error) {
	return s.transition(ctx, marketID, domain.EventMarketCancelled, caller,
		func(m *domain.Market, _ time.Time) error {
			if err := settlement.CanCancel(*m, caller); err != nil {
				return err
			}
			m.Status = domain.MarketStatusCancelled
			return nil
		})
}

// Expire marks a market whose resolution window closed without a resolution.
// Anyone may invoke it; reclaim does not depend on it having run.
func (s *MarketService) Expire(ctx context.Context, marketID uint64) (domain.Market, error) {
	return s.transition(ctx, marketID, domain.EventMarketExpired, "",
		func(m *domain.Market, now time.Time) error {
			if err := settlement.CanExpire(*m, now); err != nil {
				return err
			}
			m.Status = domain.MarketStatusExpired
			return nil
		})
}

// transition runs a guarded status change under the market lock and inside a
// transaction, then emits the event.
func (s *MarketService) transition(
	ctx context.Context,
	marketID uint64,
	eventType domain.EventType,
	actor string,
	apply func(m *domain.Market, now time.Time) error,
) (domain.Market, error) {
	unlock, err := s.locks.AcquireMarket(ctx, marketID, lockTTL)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: %s: %w", eventType, err)
	}
	defer unlock()

	now := s.now().UTC()

	var m domain.Market
	err = s.tx.InTx(ctx, func(st domain.Stores) error {
		loaded, err := st.Markets.Get(ctx, marketID)
		if err != nil {
			return err
		}
		if err := apply(&loaded, now); err != nil {
			return err
		}
		m = loaded
		return st.Markets.Update(ctx, loaded)
	})
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: %s: %w", eventType, err)
	}

	s.logger.InfoContext(ctx, "market_service: status changed",
		slog.Uint64("market_id", marketID),
		slog.String("status", string(m.Status)),
	)
	publishEvent(ctx, s.bus, s.logger, domain.Event{
		Type:     eventType,
		MarketID: marketID,
		Actor:    actor,
		At:       now,
	})
	return m, nil
}

// Get returns a single market.
func (s *MarketService) Get(ctx context.Context, marketID uint64) (domain.Market, error) {
	m, err := s.stores.Markets.Get(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get %d: %w", marketID, err)
	}
	return m, nil
}

// List returns markets filtered by status; an empty status matches all.
func (s *MarketService) List(ctx context.Context, status domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := s.stores.Markets.List(ctx, status, opts)
	if err != nil {
		return nil, fmt.Errorf("market_service: list: %w", err)
	}
	return markets, nil
}

// Count returns the total number of markets.
func (s *MarketService) Count(ctx context.Context) (int64, error) {
	count, err := s.stores.Markets.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("market_service: count: %w", err)
	}
	return count, nil
}

// loadOrNewReputation returns the agent's reputation record, or a zero record
// for a first-time participant.
func loadOrNewReputation(ctx context.Context, st domain.Stores, agent string) (domain.Reputation, error) {
	rep, err := st.Reputation.Get(ctx, agent)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Reputation{Agent: agent}, nil
	}
	if err != nil {
		return domain.Reputation{}, err
	}
	return rep, nil
}
