package solana

import "context"

// RPCClient defines the request/response half of the ledger transport.
// Absence and per-call errors are recoverable; callers must never treat
// them as fatal to the process.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature.
	// Returns (nil, nil) when the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*TransactionDetail, error)

	// GetBalance retrieves the lamport balance of an address.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetLatestBlockhash retrieves a fresh blockhash for signing.
	// Blockhashes expire quickly and must not be reused across retries.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a base58-encoded signed transaction and
	// returns its signature.
	SendTransaction(ctx context.Context, signedTx string) (string, error)

	// GetTokenSupply retrieves supply info for a mint, including decimals.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)
}
