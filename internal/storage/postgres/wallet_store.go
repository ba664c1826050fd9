package postgres

import (
	"context"
	"fmt"

	"solana-copy-bot/internal/domain"
	"solana-copy-bot/internal/storage"
)

// walletSchema is applied on startup; the table is small enough that a
// migration tool is not warranted.
const walletSchema = `
CREATE TABLE IF NOT EXISTS wallet_policies (
	address    TEXT PRIMARY KEY,
	enabled    BOOLEAN NOT NULL DEFAULT TRUE,
	copy_sol   BOOLEAN NOT NULL DEFAULT TRUE,
	copy_spl   BOOLEAN NOT NULL DEFAULT TRUE,
	copy_swaps BOOLEAN NOT NULL DEFAULT TRUE,
	max_amount DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)
`

// WalletStore implements storage.WalletStore using PostgreSQL.
type WalletStore struct {
	pool *Pool
}

// NewWalletStore creates a new WalletStore and ensures the schema exists.
func NewWalletStore(ctx context.Context, pool *Pool) (*WalletStore, error) {
	if _, err := pool.Exec(ctx, walletSchema); err != nil {
		return nil, fmt.Errorf("ensure wallet_policies schema: %w", err)
	}
	return &WalletStore{pool: pool}, nil
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// List retrieves all wallet policies, ordered by address ASC.
func (s *WalletStore) List(ctx context.Context) ([]*domain.WalletPolicy, error) {
	query := `
		SELECT address, enabled, copy_sol, copy_spl, copy_swaps, max_amount
		FROM wallet_policies
		ORDER BY address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list wallet policies: %w", err)
	}
	defer rows.Close()

	var result []*domain.WalletPolicy
	for rows.Next() {
		var w domain.WalletPolicy
		if err := rows.Scan(&w.Address, &w.Enabled, &w.CopySOL, &w.CopySPL, &w.CopySwaps, &w.MaxAmount); err != nil {
			return nil, fmt.Errorf("scan wallet policy: %w", err)
		}
		result = append(result, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet policies: %w", err)
	}
	return result, nil
}

// Insert adds a new policy. Returns ErrDuplicateKey if the address exists.
func (s *WalletStore) Insert(ctx context.Context, w *domain.WalletPolicy) error {
	if w == nil || w.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO wallet_policies (address, enabled, copy_sol, copy_spl, copy_swaps, max_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query, w.Address, w.Enabled, w.CopySOL, w.CopySPL, w.CopySwaps, w.MaxAmount)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert wallet policy: %w", err)
	}
	return nil
}

// Update replaces the policy for its address. Returns ErrNotFound if absent.
func (s *WalletStore) Update(ctx context.Context, w *domain.WalletPolicy) error {
	if w == nil || w.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE wallet_policies
		SET enabled = $2, copy_sol = $3, copy_spl = $4, copy_swaps = $5, max_amount = $6, updated_at = NOW()
		WHERE address = $1
	`

	tag, err := s.pool.Exec(ctx, query, w.Address, w.Enabled, w.CopySOL, w.CopySPL, w.CopySwaps, w.MaxAmount)
	if err != nil {
		return fmt.Errorf("update wallet policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes the policy for an address. Returns ErrNotFound if absent.
func (s *WalletStore) Delete(ctx context.Context, address string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM wallet_policies WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("delete wallet policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
