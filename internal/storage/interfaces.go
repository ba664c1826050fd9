package storage

import (
	"context"

	"solana-copy-bot/internal/domain"
)

// WalletStore provides access to wallet_policies storage. The manager
// loads the full set on start and writes through on every mutation.
type WalletStore interface {
	// List retrieves all wallet policies, ordered by address ASC.
	List(ctx context.Context) ([]*domain.WalletPolicy, error)

	// Insert adds a new policy. Returns ErrDuplicateKey if the address exists.
	Insert(ctx context.Context, w *domain.WalletPolicy) error

	// Update replaces the policy for its address. Returns ErrNotFound if absent.
	Update(ctx context.Context, w *domain.WalletPolicy) error

	// Delete removes the policy for an address. Returns ErrNotFound if absent.
	Delete(ctx context.Context, address string) error
}
