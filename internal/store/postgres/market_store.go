package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	db querier
}

const marketColumns = `
	market_id, creator, title, description, oracle_feed_id,
	target_price, target_above, deadline, resolution_deadline,
	min_bet, max_bet, total_yes, total_no, yes_count, no_count,
	status, outcome, resolved_price, resolved_at, created_at`

// Create inserts a new market row.
func (s *MarketStore) Create(ctx context.Context, m domain.Market) error {
	const query = `
		INSERT INTO markets (
			market_id, creator, title, description, oracle_feed_id,
			target_price, target_above, deadline, resolution_deadline,
			min_bet, max_bet, total_yes, total_no, yes_count, no_count,
			status, outcome, resolved_price, resolved_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20
		)`

	amounts, err := marketAmounts(m)
	if err != nil {
		return fmt.Errorf("postgres: create market %d: %w", m.MarketID, err)
	}

	_, err = s.db.Exec(ctx, query,
		int64(m.MarketID), m.Creator, m.Title, m.Description, m.OracleFeedID,
		m.TargetPrice, m.TargetAbove, m.Deadline, m.ResolutionDeadline,
		amounts.minBet, amounts.maxBet,
		amounts.totalYes, amounts.totalNo, int32(m.YesCount), int32(m.NoCount),
		string(m.Status), m.Outcome, m.ResolvedPrice, m.ResolvedAt, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create market %d: %w", m.MarketID, err)
	}
	return nil
}

// Get returns a single market by its sequential id.
func (s *MarketStore) Get(ctx context.Context, marketID uint64) (domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE market_id = $1`

	m, err := scanMarket(s.db.QueryRow(ctx, query, int64(marketID)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Market{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Market{}, fmt.Errorf("postgres: get market %d: %w", marketID, err)
	}
	return m, nil
}

// Update rewrites every mutable field of a market row.
func (s *MarketStore) Update(ctx context.Context, m domain.Market) error {
	const query = `
		UPDATE markets SET
			total_yes      = $2,
			total_no       = $3,
			yes_count      = $4,
			no_count       = $5,
			status         = $6,
			outcome        = $7,
			resolved_price = $8,
			resolved_at    = $9
		WHERE market_id = $1`

	amounts, err := marketAmounts(m)
	if err != nil {
		return fmt.Errorf("postgres: update market %d: %w", m.MarketID, err)
	}

	tag, err := s.db.Exec(ctx, query,
		int64(m.MarketID),
		amounts.totalYes, amounts.totalNo, int32(m.YesCount), int32(m.NoCount),
		string(m.Status), m.Outcome, m.ResolvedPrice, m.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update market %d: %w", m.MarketID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns markets, newest first, filtered by status when one is given.
func (s *MarketStore) List(ctx context.Context, status domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY market_id DESC LIMIT %d OFFSET %d`, opts.Limit, opts.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	return collectMarkets(rows)
}

// Count returns the total number of markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM markets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

// ListTerminalBefore returns resolved, cancelled, and expired markets created
// before the cutoff, oldest first, for export to cold storage.
func (s *MarketStore) ListTerminalBefore(ctx context.Context, before time.Time, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets
		WHERE status IN ('resolved', 'cancelled', 'expired') AND created_at < $1
		ORDER BY market_id ASC`
	query += fmt.Sprintf(` LIMIT %d OFFSET %d`, opts.Limit, opts.Offset)

	rows, err := s.db.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list terminal markets: %w", err)
	}
	defer rows.Close()

	return collectMarkets(rows)
}

// marketBigints holds a market's monetary fields narrowed for BIGINT
// parameters.
type marketBigints struct {
	minBet, maxBet, totalYes, totalNo int64
}

// marketAmounts narrows every monetary field of a market, failing with
// domain.ErrOverflow instead of sending a wrapped value.
func marketAmounts(m domain.Market) (marketBigints, error) {
	var out marketBigints
	var err error
	if out.minBet, err = asBigint(m.MinBet); err != nil {
		return out, fmt.Errorf("min bet: %w", err)
	}
	if out.maxBet, err = asBigint(m.MaxBet); err != nil {
		return out, fmt.Errorf("max bet: %w", err)
	}
	if out.totalYes, err = asBigint(m.TotalYes); err != nil {
		return out, fmt.Errorf("yes pool: %w", err)
	}
	if out.totalNo, err = asBigint(m.TotalNo); err != nil {
		return out, fmt.Errorf("no pool: %w", err)
	}
	return out, nil
}

// scanMarket scans a single market row into a domain.Market.
func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	var marketID, minBet, maxBet, totalYes, totalNo int64
	var yesCount, noCount int32
	var status string

	err := row.Scan(
		&marketID, &m.Creator, &m.Title, &m.Description, &m.OracleFeedID,
		&m.TargetPrice, &m.TargetAbove, &m.Deadline, &m.ResolutionDeadline,
		&minBet, &maxBet, &totalYes, &totalNo, &yesCount, &noCount,
		&status, &m.Outcome, &m.ResolvedPrice, &m.ResolvedAt, &m.CreatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}

	m.MarketID = uint64(marketID)
	m.MinBet = uint64(minBet)
	m.MaxBet = uint64(maxBet)
	m.TotalYes = uint64(totalYes)
	m.TotalNo = uint64(totalNo)
	m.YesCount = uint32(yesCount)
	m.NoCount = uint32(noCount)
	m.Status = domain.MarketStatus(status)
	return m, nil
}

// collectMarkets drains rows into a slice.
func collectMarkets(rows pgx.Rows) ([]domain.Market, error) {
	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate markets: %w", err)
	}
	return markets, nil
}

// Compile-time interface check.
var _ domain.MarketStore = (*MarketStore)(nil)
