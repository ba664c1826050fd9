package classify

import (
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-bot/internal/domain"
	"solana-copy-bot/internal/solana"
)

const (
	testWallet = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	testDest   = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	testMint   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func solTransferDetail() *solana.TransactionDetail {
	return &solana.TransactionDetail{
		Signature: "sig-sol",
		Meta: &solana.TransactionMeta{
			PreBalances:  []uint64{5_000_000_000, 0, 1},
			PostBalances: []uint64{3_500_000_000, 1_500_000_000, 1},
		},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, testDest, SystemProgram},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 2, Accounts: []int{0, 1}, Data: ""},
			},
		},
	}
}

func TestClassify_SOLTransfer(t *testing.T) {
	tx := Classify(solTransferDetail(), testWallet)

	assert.Equal(t, domain.KindSOLTransfer, tx.Kind)
	assert.Equal(t, testWallet, tx.SourceWallet)
	assert.True(t, tx.Success)
	require.NotNil(t, tx.Amount)
	assert.InDelta(t, 1.5, *tx.Amount, 1e-9)
}

func TestClassify_SOLTransfer_MissingBalances(t *testing.T) {
	detail := solTransferDetail()
	detail.Meta.PreBalances = nil
	detail.Meta.PostBalances = nil

	tx := Classify(detail, testWallet)

	assert.Equal(t, domain.KindSOLTransfer, tx.Kind)
	assert.Nil(t, tx.Amount)
}

func TestClassify_SOLTransfer_WalletNotInKeys(t *testing.T) {
	tx := Classify(solTransferDetail(), "someOtherWallet11111111111111111111111111111")

	assert.Equal(t, domain.KindSOLTransfer, tx.Kind)
	assert.Nil(t, tx.Amount)
}

func TestClassify_SPLTransferChecked(t *testing.T) {
	// TransferChecked: opcode 12, amount 2_500_000 raw, 6 decimals
	data := make([]byte, 10)
	data[0] = tokenOpTransferChecked
	binary.LittleEndian.PutUint64(data[1:9], 2_500_000)
	data[9] = 6

	detail := &solana.TransactionDetail{
		Signature: "sig-spl",
		Meta:      &solana.TransactionMeta{},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, testMint, testDest, TokenProgram},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 3, Accounts: []int{0, 1, 2, 0}, Data: base58.Encode(data)},
			},
		},
	}

	tx := Classify(detail, testWallet)

	assert.Equal(t, domain.KindSPLTransfer, tx.Kind)
	assert.Equal(t, testMint, tx.TokenMint)
	require.NotNil(t, tx.Amount)
	assert.InDelta(t, 2.5, *tx.Amount, 1e-9)
}

func TestClassify_SPLTransfer_PlainTransferHasNoAmount(t *testing.T) {
	// Plain Transfer: opcode 3, amount without decimals or mint
	data := make([]byte, 9)
	data[0] = tokenOpTransfer
	binary.LittleEndian.PutUint64(data[1:9], 1_000_000)

	detail := &solana.TransactionDetail{
		Signature: "sig-spl-plain",
		Meta:      &solana.TransactionMeta{},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, testDest, TokenProgram},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 2, Accounts: []int{0, 1, 0}, Data: base58.Encode(data)},
			},
		},
	}

	tx := Classify(detail, testWallet)

	assert.Equal(t, domain.KindSPLTransfer, tx.Kind)
	assert.Nil(t, tx.Amount)
	assert.Empty(t, tx.TokenMint)
}

func TestClassify_RaydiumSwap(t *testing.T) {
	detail := &solana.TransactionDetail{
		Signature: "sig-swap",
		Meta: &solana.TransactionMeta{
			PreBalances:  []uint64{10_000_000_000, 0},
			PostBalances: []uint64{9_750_000_000, 0},
		},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, RaydiumAMMV4},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []int{0}, Data: ""},
			},
		},
	}

	tx := Classify(detail, testWallet)

	assert.Equal(t, domain.KindRaydiumSwap, tx.Kind)
	require.NotNil(t, tx.Amount)
	assert.InDelta(t, 0.25, *tx.Amount, 1e-9)
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// System instruction before the Raydium one; classification stops
	// at the first recognized program.
	detail := &solana.TransactionDetail{
		Signature: "sig-both",
		Meta: &solana.TransactionMeta{
			PreBalances:  []uint64{2_000_000_000, 0, 0},
			PostBalances: []uint64{1_000_000_000, 0, 0},
		},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, SystemProgram, RaydiumAMMV4},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []int{0}, Data: ""},
				{ProgramIDIndex: 2, Accounts: []int{0}, Data: ""},
			},
		},
	}

	tx := Classify(detail, testWallet)
	assert.Equal(t, domain.KindSOLTransfer, tx.Kind)
}

func TestClassify_UnrecognizedProgramIsInteraction(t *testing.T) {
	detail := &solana.TransactionDetail{
		Signature: "sig-other",
		Meta:      &solana.TransactionMeta{},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, "ComputeBudget111111111111111111111111111111"},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []int{}, Data: ""},
			},
		},
	}

	tx := Classify(detail, testWallet)

	assert.Equal(t, domain.KindProgramInteraction, tx.Kind)
	assert.Nil(t, tx.Amount)
}

func TestClassify_NoInstructionsIsUnknown(t *testing.T) {
	detail := &solana.TransactionDetail{
		Signature: "sig-empty",
		Meta:      &solana.TransactionMeta{},
		Message:   &solana.TransactionMessage{AccountKeys: []string{testWallet}},
	}

	tx := Classify(detail, testWallet)
	assert.Equal(t, domain.KindUnknown, tx.Kind)

	detail.Message = nil
	tx = Classify(detail, testWallet)
	assert.Equal(t, domain.KindUnknown, tx.Kind)
}

func TestClassify_MalformedTokenDataSkipped(t *testing.T) {
	// Token instruction with undecodable data falls through; with no
	// other recognized instruction the result is program_interaction.
	detail := &solana.TransactionDetail{
		Signature: "sig-bad-data",
		Meta:      &solana.TransactionMeta{},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, TokenProgram},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []int{0}, Data: "not-base58-!!!"},
			},
		},
	}

	tx := Classify(detail, testWallet)
	assert.Equal(t, domain.KindProgramInteraction, tx.Kind)
}

func TestClassify_FailedTransaction(t *testing.T) {
	detail := solTransferDetail()
	detail.Meta.Err = map[string]interface{}{"InstructionError": []interface{}{}}

	tx := Classify(detail, testWallet)
	assert.False(t, tx.Success)
}

func TestClassify_BlockTime(t *testing.T) {
	detail := solTransferDetail()
	bt := int64(1_700_000_000)
	detail.BlockTime = &bt

	tx := Classify(detail, testWallet)
	require.NotNil(t, tx.BlockTime)
	assert.Equal(t, bt, tx.BlockTime.Unix())
}

func TestClassify_Deterministic(t *testing.T) {
	// Re-classifying the same record yields identical output, including
	// for records that degrade on malformed payloads.
	bt := int64(1_700_000_000)
	withTime := solTransferDetail()
	withTime.BlockTime = &bt

	malformed := &solana.TransactionDetail{
		Signature: "sig-bad-data",
		Meta:      &solana.TransactionMeta{},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{testWallet, TokenProgram},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []int{0}, Data: "not-base58-!!!"},
			},
		},
	}

	for _, detail := range []*solana.TransactionDetail{
		withTime,
		solTransferDetail(),
		malformed,
		{Signature: "sig-empty"},
	} {
		first := Classify(detail, testWallet)
		second := Classify(detail, testWallet)
		assert.Equal(t, first, second, "signature %s", detail.Signature)
	}
}
