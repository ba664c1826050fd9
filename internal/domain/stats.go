package domain

import "time"

// CopyStats holds process-wide running counters for copy attempts.
// All counters are monotonically increasing; LastActivity moves forward
// with each processed attempt.
type CopyStats struct {
	TotalTransactionsCopied int        `json:"total_transactions_copied"`
	SuccessfulCopies        int        `json:"successful_copies"`
	FailedCopies            int        `json:"failed_copies"`
	TotalVolumeCopied       float64    `json:"total_volume_copied"`
	SOLTransfersCopied      int        `json:"sol_transfers_copied"`
	SPLTransfersCopied      int        `json:"spl_transfers_copied"`
	SwapsCopied             int        `json:"swaps_copied"`
	LastActivity            *time.Time `json:"last_activity,omitempty"`
}
