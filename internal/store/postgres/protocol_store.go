package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// ProtocolStore implements domain.ProtocolStore over the singleton protocol
// row.
type ProtocolStore struct {
	db querier
}

// Create inserts the singleton record. A second initialization fails with
// domain.ErrAlreadyExists.
func (s *ProtocolStore) Create(ctx context.Context, p domain.Protocol) error {
	const query = `
		INSERT INTO protocol (id, admin, market_count, total_volume, initialized_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	tag, err := s.db.Exec(ctx, query,
		p.Admin, int64(p.MarketCount), int64(p.TotalVolume), p.InitializedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create protocol: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get returns the singleton record, or domain.ErrNotFound before initialize.
func (s *ProtocolStore) Get(ctx context.Context) (domain.Protocol, error) {
	const query = `
		SELECT admin, market_count, total_volume, initialized_at
		FROM protocol WHERE id = 1`

	var p domain.Protocol
	var marketCount, totalVolume int64
	err := s.db.QueryRow(ctx, query).Scan(
		&p.Admin, &marketCount, &totalVolume, &p.InitializedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Protocol{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Protocol{}, fmt.Errorf("postgres: get protocol: %w", err)
	}
	p.MarketCount = uint64(marketCount)
	p.TotalVolume = uint64(totalVolume)
	return p, nil
}

// Update rewrites the mutable counters of the singleton record.
func (s *ProtocolStore) Update(ctx context.Context, p domain.Protocol) error {
	const query = `
		UPDATE protocol SET market_count = $1, total_volume = $2 WHERE id = 1`

	tag, err := s.db.Exec(ctx, query, int64(p.MarketCount), int64(p.TotalVolume))
	if err != nil {
		return fmt.Errorf("postgres: update protocol: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Compile-time interface check.
var _ domain.ProtocolStore = (*ProtocolStore)(nil)
