// Package policy decides copy-eligibility for classified transactions.
package policy

import (
	"solana-copy-bot/internal/domain"
)

// Evaluator applies per-wallet toggles and global amount bounds.
// Evaluation is pure and total over valid inputs.
type Evaluator struct {
	minAmount float64
	// failClosed rejects transactions whose amount could not be
	// extracted. The shipped default is fail-open: an amount-less
	// transaction that passed the kind-gate is eligible, because no
	// ceiling or floor check is possible. Flipping this materially
	// changes risk exposure.
	failClosed bool
}

// NewEvaluator creates an evaluator with the global amount floor.
func NewEvaluator(minAmount float64, failClosed bool) *Evaluator {
	return &Evaluator{minAmount: minAmount, failClosed: failClosed}
}

// IsEligible reports whether tx qualifies for replication under the
// wallet's policy. Rules run in order and short-circuit on first failure:
// kind-gate, ceiling, floor.
func (e *Evaluator) IsEligible(tx *domain.ClassifiedTransaction, w domain.WalletPolicy) bool {
	switch tx.Kind {
	case domain.KindSOLTransfer:
		if !w.CopySOL {
			return false
		}
	case domain.KindSPLTransfer:
		if !w.CopySPL {
			return false
		}
	case domain.KindRaydiumSwap:
		if !w.CopySwaps {
			return false
		}
	default:
		// unknown and program-interaction are never copyable
		return false
	}

	if tx.Amount == nil {
		return !e.failClosed
	}

	if w.MaxAmount != nil && *tx.Amount > *w.MaxAmount {
		return false
	}
	if *tx.Amount < e.minAmount {
		return false
	}

	return true
}
