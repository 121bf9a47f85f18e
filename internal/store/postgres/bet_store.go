package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// BetStore implements domain.BetStore using PostgreSQL. The (market_id,
// bettor) primary key enforces the one-bet-per-market rule at the storage
// layer as well.
type BetStore struct {
	db querier
}

// Create inserts a new bet. A duplicate (market, bettor) pair fails with
// domain.ErrAlreadyExists.
func (s *BetStore) Create(ctx context.Context, b domain.Bet) error {
	const query = `
		INSERT INTO bets (market_id, bettor, amount, position, claimed, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	amount, err := asBigint(b.Amount)
	if err != nil {
		return fmt.Errorf("postgres: create bet (%d, %s): %w", b.MarketID, b.Bettor, err)
	}

	_, err = s.db.Exec(ctx, query,
		int64(b.MarketID), b.Bettor, amount, b.Position, b.Claimed, b.PlacedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create bet (%d, %s): %w", b.MarketID, b.Bettor, err)
	}
	return nil
}

// Get returns the bettor's bet on a market.
func (s *BetStore) Get(ctx context.Context, marketID uint64, bettor string) (domain.Bet, error) {
	const query = `
		SELECT market_id, bettor, amount, position, claimed, placed_at
		FROM bets WHERE market_id = $1 AND bettor = $2`

	b, err := scanBet(s.db.QueryRow(ctx, query, int64(marketID), bettor))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Bet{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Bet{}, fmt.Errorf("postgres: get bet (%d, %s): %w", marketID, bettor, err)
	}
	return b, nil
}

// Update rewrites the claimed flag, the bet's only mutable field.
func (s *BetStore) Update(ctx context.Context, b domain.Bet) error {
	const query = `
		UPDATE bets SET claimed = $3 WHERE market_id = $1 AND bettor = $2`

	tag, err := s.db.Exec(ctx, query, int64(b.MarketID), b.Bettor, b.Claimed)
	if err != nil {
		return fmt.Errorf("postgres: update bet (%d, %s): %w", b.MarketID, b.Bettor, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByMarket returns all bets on a market, earliest first.
func (s *BetStore) ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.Bet, error) {
	query := fmt.Sprintf(`
		SELECT market_id, bettor, amount, position, claimed, placed_at
		FROM bets WHERE market_id = $1
		ORDER BY placed_at ASC LIMIT %d OFFSET %d`, opts.Limit, opts.Offset)

	rows, err := s.db.Query(ctx, query, int64(marketID))
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets for market %d: %w", marketID, err)
	}
	defer rows.Close()

	return collectBets(rows)
}

// ListByBettor returns all of a bettor's bets, most recent first.
func (s *BetStore) ListByBettor(ctx context.Context, bettor string, opts domain.ListOpts) ([]domain.Bet, error) {
	query := fmt.Sprintf(`
		SELECT market_id, bettor, amount, position, claimed, placed_at
		FROM bets WHERE bettor = $1
		ORDER BY placed_at DESC LIMIT %d OFFSET %d`, opts.Limit, opts.Offset)

	rows, err := s.db.Query(ctx, query, bettor)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets for bettor %s: %w", bettor, err)
	}
	defer rows.Close()

	return collectBets(rows)
}

// scanBet scans a single bet row.
func scanBet(row pgx.Row) (domain.Bet, error) {
	var b domain.Bet
	var marketID, amount int64

	err := row.Scan(&marketID, &b.Bettor, &amount, &b.Position, &b.Claimed, &b.PlacedAt)
	if err != nil {
		return domain.Bet{}, err
	}

	b.MarketID = uint64(marketID)
	b.Amount = uint64(amount)
	return b, nil
}

// collectBets drains rows into a slice.
func collectBets(rows pgx.Rows) ([]domain.Bet, error) {
	var bets []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate bets: %w", err)
	}
	return bets, nil
}

// Compile-time interface check.
var _ domain.BetStore = (*BetStore)(nil)
