package domain

import (
	"encoding/json"
	"time"
)

// TxKind is the classified kind of an observed transaction.
type TxKind string

const (
	KindSOLTransfer        TxKind = "sol_transfer"
	KindSPLTransfer        TxKind = "spl_transfer"
	KindRaydiumSwap        TxKind = "raydium_swap"
	KindProgramInteraction TxKind = "program_interaction"
	KindUnknown            TxKind = "unknown"
)

// ClassifiedTransaction is the normalized, kind-tagged representation of a
// raw ledger record. Instances are immutable after creation; the history
// ring owns them once appended.
//
// Amount is nil exactly when the classifier could not extract a
// deterministic value. Policy evaluation treats nil distinctly from a
// present-but-small amount.
type ClassifiedTransaction struct {
	Signature    string          `json:"signature"`
	BlockTime    *time.Time      `json:"block_time,omitempty"`
	Kind         TxKind          `json:"transaction_type"`
	SourceWallet string          `json:"source_wallet"`
	Amount       *float64        `json:"amount,omitempty"`
	TokenMint    string          `json:"token_mint,omitempty"`
	Success      bool            `json:"success"`
	Raw          json.RawMessage `json:"-"`
}
