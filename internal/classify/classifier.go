// Package classify turns raw ledger records into kind-tagged,
// amount-normalized transactions. Classification is a pure function of
// its inputs: no network calls, no hidden state, bit-identical output
// for identical input.
package classify

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/mr-tron/base58"

	"solana-copy-bot/internal/domain"
	"solana-copy-bot/internal/solana"
)

// Well-known program IDs.
const (
	// SystemProgram is the native transfer program.
	SystemProgram = "11111111111111111111111111111111"
	// TokenProgram is the SPL token program.
	TokenProgram = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
)

// SPL token program instruction opcodes (first data byte).
const (
	tokenOpTransfer        = 3
	tokenOpTransferChecked = 12
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1e9

// Classify inspects a transaction's instructions in order and returns the
// first recognized kind. A transaction is never multi-labeled; ties
// resolve to the first match. Malformed payloads never error out; they
// degrade to unknown with a nil amount.
func Classify(tx *solana.TransactionDetail, sourceWallet string) *domain.ClassifiedTransaction {
	out := &domain.ClassifiedTransaction{
		Signature:    tx.Signature,
		Kind:         domain.KindUnknown,
		SourceWallet: sourceWallet,
		Success:      !tx.Meta.Failed(),
		Raw:          tx.Raw,
	}
	if tx.BlockTime != nil {
		t := time.Unix(*tx.BlockTime, 0).UTC()
		out.BlockTime = &t
	}

	if tx.Message == nil || len(tx.Message.Instructions) == 0 {
		return out
	}

	keys := tx.Message.AccountKeys
	for _, ix := range tx.Message.Instructions {
		switch ix.ProgramID(keys) {
		case SystemProgram:
			out.Kind = domain.KindSOLTransfer
			out.Amount = lamportDelta(tx, sourceWallet)
			return out
		case TokenProgram:
			amount, mint, ok := decodeTokenTransfer(ix, keys)
			if !ok {
				continue
			}
			out.Kind = domain.KindSPLTransfer
			out.Amount = amount
			out.TokenMint = mint
			return out
		case RaydiumAMMV4:
			out.Kind = domain.KindRaydiumSwap
			out.Amount = lamportDelta(tx, sourceWallet)
			return out
		}
	}

	// Instructions decoded fine but matched no copyable kind.
	out.Kind = domain.KindProgramInteraction
	return out
}

// lamportDelta extracts the source wallet's balance change in SOL by
// diffing pre/post snapshots. Instruction-level lamport fields can be
// ambiguous about direction; the balance diff is the only reliable
// amount source. Returns nil when the wallet or the snapshots are
// missing from the record.
func lamportDelta(tx *solana.TransactionDetail, sourceWallet string) *float64 {
	if tx.Meta == nil || tx.Message == nil {
		return nil
	}

	idx := -1
	for i, key := range tx.Message.AccountKeys {
		if key == sourceWallet {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(tx.Meta.PreBalances) || idx >= len(tx.Meta.PostBalances) {
		return nil
	}

	delta := float64(tx.Meta.PreBalances[idx]) - float64(tx.Meta.PostBalances[idx])
	amount := math.Abs(delta) / LamportsPerSOL
	return &amount
}

// decodeTokenTransfer decodes an SPL token instruction's fixed-layout
// payload. TransferChecked carries the decimals and references the mint
// in its account list, so the amount normalizes deterministically. A
// plain Transfer omits both; it still classifies as a token transfer but
// with no extractable amount.
func decodeTokenTransfer(ix solana.CompiledInstruction, accountKeys []string) (amount *float64, mint string, ok bool) {
	data, err := base58.Decode(ix.Data)
	if err != nil || len(data) == 0 {
		return nil, "", false
	}

	switch data[0] {
	case tokenOpTransfer:
		if len(data) < 9 {
			return nil, "", false
		}
		// Amount is raw token units; without the mint's decimals there
		// is no deterministic normalization.
		return nil, "", true

	case tokenOpTransferChecked:
		if len(data) < 10 {
			return nil, "", false
		}
		raw := binary.LittleEndian.Uint64(data[1:9])
		decimals := data[9]

		// TransferChecked accounts: source, mint, destination, owner.
		if len(ix.Accounts) >= 2 {
			mintIdx := ix.Accounts[1]
			if mintIdx >= 0 && mintIdx < len(accountKeys) {
				mint = accountKeys[mintIdx]
			}
		}

		a := float64(raw) / math.Pow10(int(decimals))
		return &a, mint, true
	}

	return nil, "", false
}
