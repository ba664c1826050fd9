package executor

import (
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKey is a 32-byte ed25519 public key / account address.
type PublicKey [32]byte

// PublicKeyFromBase58 decodes a base58 address into a PublicKey.
func PublicKeyFromBase58(s string) (PublicKey, error) {
	var pk PublicKey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 32 {
		return pk, fmt.Errorf("invalid address length %d", len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// mustPublicKey decodes a known-good base58 address, panicking otherwise.
// Only for package-level program ID constants.
func mustPublicKey(s string) PublicKey {
	pk, err := PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String returns the base58 representation.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// IsOnCurve reports whether the key is a valid ed25519 curve point.
// Wallet addresses are on-curve; program-derived addresses must not be.
func (pk PublicKey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

// Keypair holds the operator's signing key.
type Keypair struct {
	priv ed25519.PrivateKey
	pub  PublicKey
}

// KeypairFromBase58 parses a base58-encoded 64-byte secret key
// (the standard Solana keypair export format: 32-byte seed followed by
// the 32-byte public key).
func KeypairFromBase58(secret string) (*Keypair, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length %d, want %d", len(raw), ed25519.PrivateKeySize)
	}

	priv := ed25519.PrivateKey(raw)
	var pub PublicKey
	copy(pub[:], priv.Public().(ed25519.PublicKey))

	if !pub.IsOnCurve() {
		return nil, fmt.Errorf("public key not on curve")
	}

	return &Keypair{priv: priv, pub: pub}, nil
}

// PublicKey returns the keypair's public key.
func (k *Keypair) PublicKey() PublicKey {
	return k.pub
}

// Sign signs the message with ed25519.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}
