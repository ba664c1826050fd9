// Package executor builds and submits transactions that mirror observed
// activity with the operator's own funds. Every failure is reported in
// the Result; Execute never panics and never aborts the caller.
package executor

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"solana-copy-bot/internal/domain"
	"solana-copy-bot/internal/solana"
)

// LamportsPerSOL converts between lamports and whole SOL.
const LamportsPerSOL = 1_000_000_000

// SPL token program TransferChecked opcode.
const tokenOpTransferChecked = 12

// Result describes the outcome of one copy attempt.
type Result struct {
	Succeeded bool
	Signature string
	Err       error
}

// Executor replicates classified transactions on behalf of the operator
// keypair.
type Executor struct {
	rpc    solana.RPCClient
	signer *Keypair
	log    *logrus.Entry
}

func NewExecutor(rpc solana.RPCClient, signer *Keypair, logger *logrus.Entry) *Executor {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Executor{rpc: rpc, signer: signer, log: logger}
}

// Execute builds the copy transaction for tx, signs it with the operator
// keypair and submits it. The observed on-chain detail provides the
// instruction accounts the copy mirrors.
func (e *Executor) Execute(ctx context.Context, tx *domain.ClassifiedTransaction, detail *solana.TransactionDetail) Result {
	if tx == nil || detail == nil {
		return Result{Err: fmt.Errorf("missing transaction detail")}
	}

	var (
		instr Instruction
		err   error
	)
	switch tx.Kind {
	case domain.KindSOLTransfer:
		instr, err = e.buildSOLTransfer(tx, detail)
	case domain.KindSPLTransfer:
		instr, err = e.buildSPLTransfer(ctx, tx, detail)
	case domain.KindRaydiumSwap:
		instr, err = e.buildRaydiumSwap(tx, detail)
	default:
		err = fmt.Errorf("kind %q is not copyable", tx.Kind)
	}
	if err != nil {
		e.log.WithError(err).WithField("signature", tx.Signature).Warn("copy build failed")
		return Result{Err: err}
	}

	// A fresh blockhash per attempt; stale hashes are rejected by the
	// cluster.
	blockhash, err := e.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return Result{Err: fmt.Errorf("get latest blockhash: %w", err)}
	}

	encoded, err := BuildTransaction(e.signer, blockhash, instr)
	if err != nil {
		return Result{Err: fmt.Errorf("build transaction: %w", err)}
	}

	sig, err := e.rpc.SendTransaction(ctx, encoded)
	if err != nil {
		e.log.WithError(err).WithField("source", tx.Signature).Warn("copy submission failed")
		return Result{Err: fmt.Errorf("send transaction: %w", err)}
	}

	e.log.WithFields(logrus.Fields{
		"source": tx.Signature,
		"copy":   sig,
		"kind":   tx.Kind,
	}).Info("copy submitted")
	return Result{Succeeded: true, Signature: sig}
}

// buildSOLTransfer mirrors a system transfer. The destination is taken
// from the observed instruction, the lamport amount from the classified
// balance delta.
func (e *Executor) buildSOLTransfer(tx *domain.ClassifiedTransaction, detail *solana.TransactionDetail) (Instruction, error) {
	if tx.Amount == nil {
		return Instruction{}, fmt.Errorf("transfer amount unknown")
	}
	ix, keys, err := findInstruction(detail, systemProgramID.String())
	if err != nil {
		return Instruction{}, err
	}
	if len(ix.Accounts) < 2 {
		return Instruction{}, fmt.Errorf("system transfer has %d accounts", len(ix.Accounts))
	}
	dest, err := accountAt(keys, ix.Accounts[1])
	if err != nil {
		return Instruction{}, err
	}

	lamports := uint64(math.Round(*tx.Amount * LamportsPerSOL))
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2) // SystemProgram::Transfer
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	return Instruction{
		ProgramID: systemProgramID,
		Accounts: []AccountMeta{
			{PubKey: e.signer.PublicKey(), IsSigner: true, IsWritable: true},
			{PubKey: dest, IsWritable: true},
		},
		Data: data,
	}, nil
}

// buildSPLTransfer mirrors a checked token transfer from the operator's
// associated token account to the observed destination account.
func (e *Executor) buildSPLTransfer(ctx context.Context, tx *domain.ClassifiedTransaction, detail *solana.TransactionDetail) (Instruction, error) {
	if tx.Amount == nil {
		return Instruction{}, fmt.Errorf("transfer amount unknown")
	}
	if tx.TokenMint == "" {
		return Instruction{}, fmt.Errorf("token mint unknown")
	}
	mint, err := PublicKeyFromBase58(tx.TokenMint)
	if err != nil {
		return Instruction{}, fmt.Errorf("token mint: %w", err)
	}

	supply, err := e.rpc.GetTokenSupply(ctx, tx.TokenMint)
	if err != nil {
		return Instruction{}, fmt.Errorf("get token supply: %w", err)
	}
	if supply == nil {
		return Instruction{}, fmt.Errorf("token supply unavailable for %s", tx.TokenMint)
	}
	decimals := supply.Decimals

	ix, keys, err := findInstruction(detail, tokenProgramID.String())
	if err != nil {
		return Instruction{}, err
	}
	if len(ix.Accounts) < 4 {
		return Instruction{}, fmt.Errorf("token transfer has %d accounts", len(ix.Accounts))
	}
	dest, err := accountAt(keys, ix.Accounts[2])
	if err != nil {
		return Instruction{}, err
	}

	source, err := FindAssociatedTokenAddress(e.signer.PublicKey(), mint)
	if err != nil {
		return Instruction{}, err
	}

	raw := uint64(math.Round(*tx.Amount * math.Pow10(int(decimals))))
	data := make([]byte, 10)
	data[0] = tokenOpTransferChecked
	binary.LittleEndian.PutUint64(data[1:9], raw)
	data[9] = decimals

	return Instruction{
		ProgramID: tokenProgramID,
		Accounts: []AccountMeta{
			{PubKey: source, IsWritable: true},
			{PubKey: mint},
			{PubKey: dest, IsWritable: true},
			{PubKey: e.signer.PublicKey(), IsSigner: true},
		},
		Data: data,
	}, nil
}

// buildRaydiumSwap clones the observed AMM swap, substituting the
// operator's token accounts for the source wallet's. The swapped mint
// comes from the pool's ray_log entry.
func (e *Executor) buildRaydiumSwap(tx *domain.ClassifiedTransaction, detail *solana.TransactionDetail) (Instruction, error) {
	if tx.Amount == nil {
		return Instruction{}, fmt.Errorf("swap amount unknown")
	}
	ix, keys, err := findInstruction(detail, raydiumAMMV4ID.String())
	if err != nil {
		return Instruction{}, err
	}
	if len(ix.Accounts) < 17 {
		return Instruction{}, fmt.Errorf("swap has %d accounts", len(ix.Accounts))
	}

	mint, err := swapMintFromLogs(detail)
	if err != nil {
		return Instruction{}, err
	}

	wsolAccount, err := FindAssociatedTokenAddress(e.signer.PublicKey(), WSOLMint)
	if err != nil {
		return Instruction{}, err
	}
	tokenAccount, err := FindAssociatedTokenAddress(e.signer.PublicKey(), mint)
	if err != nil {
		return Instruction{}, err
	}

	accounts := make([]AccountMeta, 0, len(ix.Accounts))
	for i, idx := range ix.Accounts {
		pk, err := accountAt(keys, idx)
		if err != nil {
			return Instruction{}, err
		}
		meta := AccountMeta{PubKey: pk, IsWritable: true}
		// The last three accounts are the user's source token account,
		// destination token account and owner.
		switch i {
		case len(ix.Accounts) - 3:
			meta.PubKey = wsolAccount
		case len(ix.Accounts) - 2:
			meta.PubKey = tokenAccount
		case len(ix.Accounts) - 1:
			meta = AccountMeta{PubKey: e.signer.PublicKey(), IsSigner: true, IsWritable: true}
		}
		accounts = append(accounts, meta)
	}

	amountIn := uint64(math.Round(*tx.Amount * LamportsPerSOL))
	data := make([]byte, 17)
	data[0] = 9 // swap_base_in
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], 0) // min_amount_out

	return Instruction{
		ProgramID: raydiumAMMV4ID,
		Accounts:  accounts,
		Data:      data,
	}, nil
}

// swapMintFromLogs decodes the pool's ray_log entry and returns the
// non-WSOL side of the pair.
func swapMintFromLogs(detail *solana.TransactionDetail) (PublicKey, error) {
	if detail.Meta == nil {
		return PublicKey{}, fmt.Errorf("transaction meta missing")
	}
	for _, line := range detail.Meta.LogMessages {
		idx := strings.Index(line, "ray_log: ")
		if idx < 0 {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(line[idx+len("ray_log: "):])
		if err != nil || len(raw) < 97 {
			continue
		}
		var coin, pc PublicKey
		copy(coin[:], raw[33:65])
		copy(pc[:], raw[65:97])
		if coin != WSOLMint {
			return coin, nil
		}
		if pc != WSOLMint {
			return pc, nil
		}
	}
	return PublicKey{}, fmt.Errorf("swap mint not found in logs")
}

func findInstruction(detail *solana.TransactionDetail, programID string) (solana.CompiledInstruction, []string, error) {
	if detail.Message == nil {
		return solana.CompiledInstruction{}, nil, fmt.Errorf("transaction message missing")
	}
	keys := detail.Message.AccountKeys
	for _, ix := range detail.Message.Instructions {
		if ix.ProgramID(keys) == programID {
			return ix, keys, nil
		}
	}
	return solana.CompiledInstruction{}, nil, fmt.Errorf("no instruction for program %s", programID)
}

func accountAt(keys []string, idx int) (PublicKey, error) {
	if idx < 0 || idx >= len(keys) {
		return PublicKey{}, fmt.Errorf("account index %d out of range", idx)
	}
	pk, err := PublicKeyFromBase58(keys[idx])
	if err != nil {
		return PublicKey{}, fmt.Errorf("account %d: %w", idx, err)
	}
	return pk, nil
}
