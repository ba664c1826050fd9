package solana

import "encoding/json"

// TransactionDetail is a full transaction record as returned by
// getTransaction with json encoding.
type TransactionDetail struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Meta      *TransactionMeta
	Message   *TransactionMessage
	// Raw is the unmodified getTransaction result, retained for audit.
	Raw json.RawMessage
}

// TransactionMeta contains execution metadata for a transaction.
type TransactionMeta struct {
	Err          interface{}
	Fee          uint64
	PreBalances  []uint64
	PostBalances []uint64
	LogMessages  []string
}

// Failed reports whether the transaction failed on-chain.
func (m *TransactionMeta) Failed() bool {
	return m != nil && m.Err != nil
}

// TransactionMessage is the compiled message of a transaction.
type TransactionMessage struct {
	AccountKeys  []string
	Instructions []CompiledInstruction
}

// CompiledInstruction references accounts by index into the message's
// account key list. Data is base58-encoded.
type CompiledInstruction struct {
	ProgramIDIndex int
	Accounts       []int
	Data           string
}

// ProgramID resolves the instruction's target program from the account keys.
// Returns an empty string when the index is out of range.
func (ix CompiledInstruction) ProgramID(accountKeys []string) string {
	if ix.ProgramIDIndex < 0 || ix.ProgramIDIndex >= len(accountKeys) {
		return ""
	}
	return accountKeys[ix.ProgramIDIndex]
}

// TokenAmount is the token quantity representation used by getTokenSupply.
type TokenAmount struct {
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals"`
}
