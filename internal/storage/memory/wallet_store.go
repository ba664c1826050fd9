// Package memory provides in-memory store implementations, used when no
// database is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-copy-bot/internal/domain"
	"solana-copy-bot/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
type WalletStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WalletPolicy // keyed by address
}

// NewWalletStore creates a new in-memory wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{
		data: make(map[string]*domain.WalletPolicy),
	}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// List retrieves all wallet policies, ordered by address ASC.
func (s *WalletStore) List(_ context.Context) ([]*domain.WalletPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WalletPolicy, 0, len(s.data))
	for _, w := range s.data {
		policyCopy := *w
		result = append(result, &policyCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})
	return result, nil
}

// Insert adds a new policy. Returns ErrDuplicateKey if the address exists.
func (s *WalletStore) Insert(_ context.Context, w *domain.WalletPolicy) error {
	if w == nil || w.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[w.Address]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	policyCopy := *w
	s.data[w.Address] = &policyCopy
	return nil
}

// Update replaces the policy for its address. Returns ErrNotFound if absent.
func (s *WalletStore) Update(_ context.Context, w *domain.WalletPolicy) error {
	if w == nil || w.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[w.Address]; !exists {
		return storage.ErrNotFound
	}
	policyCopy := *w
	s.data[w.Address] = &policyCopy
	return nil
}

// Delete removes the policy for an address. Returns ErrNotFound if absent.
func (s *WalletStore) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[address]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, address)
	return nil
}
