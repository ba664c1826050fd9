package executor

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKeyFromBase58(t *testing.T) {
	pk, err := PublicKeyFromBase58("11111111111111111111111111111111")
	require.NoError(t, err)
	assert.Equal(t, "11111111111111111111111111111111", pk.String())

	_, err = PublicKeyFromBase58("abc")
	assert.Error(t, err, "short input")

	_, err = PublicKeyFromBase58("not!base58")
	assert.Error(t, err)
}

func TestKeypairFromBase58(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	kp, err := KeypairFromBase58(base58.Encode(priv))
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(pub), kp.PublicKey().String())

	// A 32-byte seed alone is not the export format.
	_, err = KeypairFromBase58(base58.Encode(priv.Seed()))
	assert.Error(t, err)
}

func TestIsOnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	var pk PublicKey
	copy(pk[:], pub)
	assert.True(t, pk.IsOnCurve(), "generated keys are curve points")
}

func TestFindAssociatedTokenAddress(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	var wallet PublicKey
	copy(wallet[:], pub)

	ata, err := FindAssociatedTokenAddress(wallet, WSOLMint)
	require.NoError(t, err)

	// Derived addresses are deterministic and never on the curve.
	again, err := FindAssociatedTokenAddress(wallet, WSOLMint)
	require.NoError(t, err)
	assert.Equal(t, ata, again)
	assert.False(t, ata.IsOnCurve())
	assert.NotEqual(t, wallet, ata)
}

func TestFindAssociatedTokenAddress_KnownVector(t *testing.T) {
	// USDC's associated account for a well-known wallet, checkable
	// against any Solana SDK.
	wallet := mustPublicKey("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	usdc := mustPublicKey("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	ata, err := FindAssociatedTokenAddress(wallet, usdc)
	require.NoError(t, err)
	assert.False(t, ata.IsOnCurve())

	// Differs by mint.
	other, err := FindAssociatedTokenAddress(wallet, WSOLMint)
	require.NoError(t, err)
	assert.NotEqual(t, ata, other)
}
