package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ReputationStore implements domain.ReputationStore using PostgreSQL.
type ReputationStore struct {
	db querier
}

// Get returns the reputation record for an agent, or domain.ErrNotFound when
// the agent has never created a market or wagered.
func (s *ReputationStore) Get(ctx context.Context, agent string) (domain.Reputation, error) {
	const query = `
		SELECT agent, total_bets, wins, losses, total_wagered, total_won,
		       total_lost, markets_created, accuracy_bps, last_active
		FROM reputation WHERE agent = $1`

	r, err := scanReputation(s.db.QueryRow(ctx, query, agent))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Reputation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Reputation{}, fmt.Errorf("postgres: get reputation %s: %w", agent, err)
	}
	return r, nil
}

// Upsert inserts or fully rewrites an agent's reputation record.
func (s *ReputationStore) Upsert(ctx context.Context, r domain.Reputation) error {
	const query = `
		INSERT INTO reputation (
			agent, total_bets, wins, losses, total_wagered, total_won,
			total_lost, markets_created, accuracy_bps, last_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (agent) DO UPDATE SET
			total_bets      = EXCLUDED.total_bets,
			wins            = EXCLUDED.wins,
			losses          = EXCLUDED.losses,
			total_wagered   = EXCLUDED.total_wagered,
			total_won       = EXCLUDED.total_won,
			total_lost      = EXCLUDED.total_lost,
			markets_created = EXCLUDED.markets_created,
			accuracy_bps    = EXCLUDED.accuracy_bps,
			last_active     = EXCLUDED.last_active`

	_, err := s.db.Exec(ctx, query,
		r.Agent, int32(r.TotalBets), int32(r.Wins), int32(r.Losses),
		int64(r.TotalWagered), int64(r.TotalWon), int64(r.TotalLost),
		int32(r.MarketsCreated), int16(r.AccuracyBps), r.LastActive,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert reputation %s: %w", r.Agent, err)
	}
	return nil
}

// List returns the leaderboard: accuracy descending, then total wagered.
func (s *ReputationStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Reputation, error) {
	query := fmt.Sprintf(`
		SELECT agent, total_bets, wins, losses, total_wagered, total_won,
		       total_lost, markets_created, accuracy_bps, last_active
		FROM reputation
		ORDER BY accuracy_bps DESC, total_wagered DESC
		LIMIT %d OFFSET %d`, opts.Limit, opts.Offset)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list reputation: %w", err)
	}
	defer rows.Close()

	var reps []domain.Reputation
	for rows.Next() {
		r, err := scanReputation(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan reputation: %w", err)
		}
		reps = append(reps, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate reputation: %w", err)
	}
	return reps, nil
}

// scanReputation scans a single reputation row.
func scanReputation(row pgx.Row) (domain.Reputation, error) {
	var r domain.Reputation
	var totalBets, wins, losses, marketsCreated int32
	var totalWagered, totalWon, totalLost int64
	var accuracyBps int16

	err := row.Scan(
		&r.Agent, &totalBets, &wins, &losses, &totalWagered, &totalWon,
		&totalLost, &marketsCreated, &accuracyBps, &r.LastActive,
	)
	if err != nil {
		return domain.Reputation{}, err
	}

	r.TotalBets = uint32(totalBets)
	r.Wins = uint32(wins)
	r.Losses = uint32(losses)
	r.TotalWagered = uint64(totalWagered)
	r.TotalWon = uint64(totalWon)
	r.TotalLost = uint64(totalLost)
	r.MarketsCreated = uint32(marketsCreated)
	r.AccuracyBps = uint16(accuracyBps)
	return r, nil
}

// Compile-time interface check.
var _ domain.ReputationStore = (*ReputationStore)(nil)
