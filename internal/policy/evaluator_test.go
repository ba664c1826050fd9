package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solana-copy-bot/internal/domain"
)

func f(v float64) *float64 { return &v }

func allOn() domain.WalletPolicy {
	return domain.WalletPolicy{
		Address:   "wallet",
		Enabled:   true,
		CopySOL:   true,
		CopySPL:   true,
		CopySwaps: true,
	}
}

func TestIsEligible_KindGates(t *testing.T) {
	e := NewEvaluator(0.001, false)

	tests := []struct {
		name     string
		kind     domain.TxKind
		mutate   func(*domain.WalletPolicy)
		eligible bool
	}{
		{"sol allowed", domain.KindSOLTransfer, func(w *domain.WalletPolicy) {}, true},
		{"sol gated", domain.KindSOLTransfer, func(w *domain.WalletPolicy) { w.CopySOL = false }, false},
		{"spl allowed", domain.KindSPLTransfer, func(w *domain.WalletPolicy) {}, true},
		{"spl gated", domain.KindSPLTransfer, func(w *domain.WalletPolicy) { w.CopySPL = false }, false},
		{"swap allowed", domain.KindRaydiumSwap, func(w *domain.WalletPolicy) {}, true},
		{"swap gated", domain.KindRaydiumSwap, func(w *domain.WalletPolicy) { w.CopySwaps = false }, false},
		{"program interaction never", domain.KindProgramInteraction, func(w *domain.WalletPolicy) {}, false},
		{"unknown never", domain.KindUnknown, func(w *domain.WalletPolicy) {}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := allOn()
			tt.mutate(&w)
			tx := &domain.ClassifiedTransaction{Kind: tt.kind, Amount: f(0.5)}
			assert.Equal(t, tt.eligible, e.IsEligible(tx, w))
		})
	}
}

func TestIsEligible_Ceiling(t *testing.T) {
	e := NewEvaluator(0.001, false)
	w := allOn()
	w.MaxAmount = f(1.0)

	over := &domain.ClassifiedTransaction{Kind: domain.KindSOLTransfer, Amount: f(1.5)}
	assert.False(t, e.IsEligible(over, w))

	atLimit := &domain.ClassifiedTransaction{Kind: domain.KindSOLTransfer, Amount: f(1.0)}
	assert.True(t, e.IsEligible(atLimit, w), "ceiling is inclusive")
}

func TestIsEligible_NoCeilingConfigured(t *testing.T) {
	e := NewEvaluator(0.001, false)
	w := allOn()

	big := &domain.ClassifiedTransaction{Kind: domain.KindSOLTransfer, Amount: f(500)}
	assert.True(t, e.IsEligible(big, w))
}

func TestIsEligible_Floor(t *testing.T) {
	e := NewEvaluator(0.01, false)
	w := allOn()

	dust := &domain.ClassifiedTransaction{Kind: domain.KindSOLTransfer, Amount: f(0.0001)}
	assert.False(t, e.IsEligible(dust, w))

	atFloor := &domain.ClassifiedTransaction{Kind: domain.KindSOLTransfer, Amount: f(0.01)}
	assert.True(t, e.IsEligible(atFloor, w), "floor is inclusive")
}

func TestIsEligible_NilAmount(t *testing.T) {
	tx := &domain.ClassifiedTransaction{Kind: domain.KindSPLTransfer}
	w := allOn()
	w.MaxAmount = f(1.0)

	open := NewEvaluator(0.001, false)
	assert.True(t, open.IsEligible(tx, w), "fail-open passes amount-less transactions")

	closed := NewEvaluator(0.001, true)
	assert.False(t, closed.IsEligible(tx, w), "fail-closed rejects amount-less transactions")
}

func TestIsEligible_GateBeforeAmount(t *testing.T) {
	// Kind-gate failure short-circuits before any amount check, so an
	// amount-less transaction on a gated kind is rejected even fail-open.
	e := NewEvaluator(0.001, false)
	w := allOn()
	w.CopySPL = false

	tx := &domain.ClassifiedTransaction{Kind: domain.KindSPLTransfer}
	assert.False(t, e.IsEligible(tx, w))
}
