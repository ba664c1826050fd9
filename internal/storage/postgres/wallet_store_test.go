package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-bot/internal/domain"
	"solana-copy-bot/internal/storage"
)

func testPolicy(address string) *domain.WalletPolicy {
	limit := 1.5
	return &domain.WalletPolicy{
		Address:   address,
		Enabled:   true,
		CopySOL:   true,
		CopySPL:   false,
		CopySwaps: true,
		MaxAmount: &limit,
	}
}

func TestWalletStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s, err := NewWalletStore(ctx, pool)
	require.NoError(t, err)

	require.NoError(t, s.Insert(ctx, testPolicy("bbb")))
	require.NoError(t, s.Insert(ctx, testPolicy("aaa")))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "aaa", got[0].Address, "ordered by address")
	assert.True(t, got[0].Enabled)
	assert.False(t, got[0].CopySPL)
	require.NotNil(t, got[0].MaxAmount)
	assert.Equal(t, 1.5, *got[0].MaxAmount)
}

func TestWalletStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s, err := NewWalletStore(ctx, pool)
	require.NoError(t, err)

	require.NoError(t, s.Insert(ctx, testPolicy("aaa")))
	assert.ErrorIs(t, s.Insert(ctx, testPolicy("aaa")), storage.ErrDuplicateKey)
}

func TestWalletStore_UpdateAndDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s, err := NewWalletStore(ctx, pool)
	require.NoError(t, err)

	require.NoError(t, s.Insert(ctx, testPolicy("aaa")))

	updated := testPolicy("aaa")
	updated.Enabled = false
	updated.MaxAmount = nil
	require.NoError(t, s.Update(ctx, updated))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Enabled)
	assert.Nil(t, got[0].MaxAmount)

	assert.ErrorIs(t, s.Update(ctx, testPolicy("missing")), storage.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "aaa"))
	assert.ErrorIs(t, s.Delete(ctx, "aaa"), storage.ErrNotFound)
}

func TestWalletStore_SchemaIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := NewWalletStore(ctx, pool)
	require.NoError(t, err)
	_, err = NewWalletStore(ctx, pool)
	require.NoError(t, err, "schema creation runs on every startup")
}
