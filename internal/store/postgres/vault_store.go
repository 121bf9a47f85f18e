package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// VaultStore implements domain.VaultStore using PostgreSQL. The balance
// column carries a CHECK (balance >= 0) so an over-debit can never commit
// even if a caller's bookkeeping is wrong.
type VaultStore struct {
	db querier
}

// Create opens a zero-balance vault for a market.
func (s *VaultStore) Create(ctx context.Context, marketID uint64) error {
	const query = `INSERT INTO vaults (market_id, balance) VALUES ($1, 0)`

	_, err := s.db.Exec(ctx, query, int64(marketID))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: create vault %d: %w", marketID, err)
	}
	return nil
}

// Credit adds escrowed value to a market's vault.
func (s *VaultStore) Credit(ctx context.Context, marketID uint64, amount uint64) error {
	const query = `UPDATE vaults SET balance = balance + $2 WHERE market_id = $1`

	delta, err := asBigint(amount)
	if err != nil {
		return fmt.Errorf("postgres: credit vault %d: %w", marketID, err)
	}

	tag, err := s.db.Exec(ctx, query, int64(marketID), delta)
	if err != nil {
		return fmt.Errorf("postgres: credit vault %d: %w", marketID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Debit removes value from a market's vault. The guard in the WHERE clause
// refuses to take the balance negative.
func (s *VaultStore) Debit(ctx context.Context, marketID uint64, amount uint64) error {
	const query = `
		UPDATE vaults SET balance = balance - $2
		WHERE market_id = $1 AND balance >= $2`

	delta, err := asBigint(amount)
	if err != nil {
		return fmt.Errorf("postgres: debit vault %d: %w", marketID, err)
	}

	tag, err := s.db.Exec(ctx, query, int64(marketID), delta)
	if err != nil {
		return fmt.Errorf("postgres: debit vault %d: %w", marketID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the vault is missing or the balance is short; both mean the
		// escrow invariant has been violated upstream.
		return fmt.Errorf("postgres: debit vault %d by %d: insufficient balance", marketID, amount)
	}
	return nil
}

// Balance returns the current escrow balance for a market.
func (s *VaultStore) Balance(ctx context.Context, marketID uint64) (uint64, error) {
	const query = `SELECT balance FROM vaults WHERE market_id = $1`

	var balance int64
	err := s.db.QueryRow(ctx, query, int64(marketID)).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: vault balance %d: %w", marketID, err)
	}
	return uint64(balance), nil
}

// Compile-time interface check.
var _ domain.VaultStore = (*VaultStore)(nil)
