package domain

// WalletPolicy configures copy behavior for a single watched wallet.
// Address is the identity and never changes after creation; the toggles
// and ceiling are mutated in place via partial updates.
type WalletPolicy struct {
	Address   string   `json:"address"`
	Enabled   bool     `json:"enabled"`
	CopySOL   bool     `json:"copy_sol"`
	CopySPL   bool     `json:"copy_spl"`
	CopySwaps bool     `json:"copy_swaps"`
	MaxAmount *float64 `json:"max_amount,omitempty"`
}

// WalletUpdate is a partial-field patch for a WalletPolicy.
// Nil fields are left untouched.
type WalletUpdate struct {
	Enabled   *bool    `json:"enabled,omitempty"`
	CopySOL   *bool    `json:"copy_sol,omitempty"`
	CopySPL   *bool    `json:"copy_spl,omitempty"`
	CopySwaps *bool    `json:"copy_swaps,omitempty"`
	MaxAmount *float64 `json:"max_amount,omitempty"`
}

// Apply mutates the policy with the fields present in the patch.
func (p *WalletPolicy) Apply(u WalletUpdate) {
	if u.Enabled != nil {
		p.Enabled = *u.Enabled
	}
	if u.CopySOL != nil {
		p.CopySOL = *u.CopySOL
	}
	if u.CopySPL != nil {
		p.CopySPL = *u.CopySPL
	}
	if u.CopySwaps != nil {
		p.CopySwaps = *u.CopySwaps
	}
	if u.MaxAmount != nil {
		p.MaxAmount = u.MaxAmount
	}
}
