package executor

import (
	"crypto/sha256"
	"fmt"
)

// Program IDs used by the build strategies.
var (
	systemProgramID = mustPublicKey("11111111111111111111111111111111")
	tokenProgramID  = mustPublicKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	ataProgramID    = mustPublicKey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	raydiumAMMV4ID  = mustPublicKey("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

	// WSOLMint is the wrapped SOL mint address.
	WSOLMint = mustPublicKey("So11111111111111111111111111111111111111112")
)

const pdaMarker = "ProgramDerivedAddress"

// createProgramAddress hashes the seeds with the program ID and the PDA
// marker. The result is only a valid PDA when it is NOT on the ed25519
// curve; on-curve results are rejected.
func createProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var pk PublicKey
	copy(pk[:], h.Sum(nil))

	if pk.IsOnCurve() {
		return PublicKey{}, fmt.Errorf("derived address is on curve")
	}
	return pk, nil
}

// findProgramAddress searches bump seeds 255..0 for the first off-curve
// derived address.
func findProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		withBump := append(seeds[:len(seeds):len(seeds)], []byte{byte(bump)})
		pk, err := createProgramAddress(withBump, programID)
		if err == nil {
			return pk, uint8(bump), nil
		}
	}
	return PublicKey{}, 0, fmt.Errorf("no viable bump seed found")
}

// FindAssociatedTokenAddress derives the associated token account for a
// wallet and mint.
func FindAssociatedTokenAddress(wallet, mint PublicKey) (PublicKey, error) {
	pk, _, err := findProgramAddress(
		[][]byte{wallet[:], tokenProgramID[:], mint[:]},
		ataProgramID,
	)
	if err != nil {
		return PublicKey{}, fmt.Errorf("derive associated token address: %w", err)
	}
	return pk, nil
}
