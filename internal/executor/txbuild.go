package executor

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// AccountMeta describes how an instruction uses an account.
type AccountMeta struct {
	PubKey     PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single instruction to compile into a transaction.
type Instruction struct {
	ProgramID PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// appendCompactU16 appends n in the compact-u16 (shortvec) encoding used
// by the legacy transaction wire format.
func appendCompactU16(buf []byte, n int) []byte {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// compiledKeys is the ordered, deduplicated account list of a message.
type compiledKeys struct {
	keys                []PublicKey
	numRequiredSigs     int
	numReadonlySigned   int
	numReadonlyUnsigned int
}

// compileKeys merges the fee payer and every instruction account into the
// canonical ordering: writable signers, readonly signers, writable
// non-signers, readonly non-signers (program IDs included).
func compileKeys(payer PublicKey, instrs []Instruction) compiledKeys {
	type meta struct {
		signer   bool
		writable bool
	}
	metas := map[PublicKey]*meta{
		payer: {signer: true, writable: true},
	}
	order := []PublicKey{payer}

	upsert := func(pk PublicKey, signer, writable bool) {
		m, ok := metas[pk]
		if !ok {
			m = &meta{}
			metas[pk] = m
			order = append(order, pk)
		}
		m.signer = m.signer || signer
		m.writable = m.writable || writable
	}

	for _, ix := range instrs {
		for _, acc := range ix.Accounts {
			upsert(acc.PubKey, acc.IsSigner, acc.IsWritable)
		}
		upsert(ix.ProgramID, false, false)
	}

	var ck compiledKeys
	// Four passes preserve first-seen order within each class.
	for _, pk := range order {
		m := metas[pk]
		if m.signer && m.writable {
			ck.keys = append(ck.keys, pk)
			ck.numRequiredSigs++
		}
	}
	for _, pk := range order {
		m := metas[pk]
		if m.signer && !m.writable {
			ck.keys = append(ck.keys, pk)
			ck.numRequiredSigs++
			ck.numReadonlySigned++
		}
	}
	for _, pk := range order {
		m := metas[pk]
		if !m.signer && m.writable {
			ck.keys = append(ck.keys, pk)
		}
	}
	for _, pk := range order {
		m := metas[pk]
		if !m.signer && !m.writable {
			ck.keys = append(ck.keys, pk)
			ck.numReadonlyUnsigned++
		}
	}
	return ck
}

func (ck compiledKeys) index(pk PublicKey) (int, error) {
	for i, k := range ck.keys {
		if k == pk {
			return i, nil
		}
	}
	return 0, fmt.Errorf("account %s not in message", pk)
}

// serializeMessage builds the legacy message wire format: a three-byte
// header, the compact account list, the recent blockhash and the compact
// instruction list.
func serializeMessage(ck compiledKeys, blockhash [32]byte, instrs []Instruction) ([]byte, error) {
	msg := []byte{
		byte(ck.numRequiredSigs),
		byte(ck.numReadonlySigned),
		byte(ck.numReadonlyUnsigned),
	}

	msg = appendCompactU16(msg, len(ck.keys))
	for _, k := range ck.keys {
		msg = append(msg, k[:]...)
	}

	msg = append(msg, blockhash[:]...)

	msg = appendCompactU16(msg, len(instrs))
	for _, ix := range instrs {
		progIdx, err := ck.index(ix.ProgramID)
		if err != nil {
			return nil, err
		}
		msg = append(msg, byte(progIdx))

		msg = appendCompactU16(msg, len(ix.Accounts))
		for _, acc := range ix.Accounts {
			idx, err := ck.index(acc.PubKey)
			if err != nil {
				return nil, err
			}
			msg = append(msg, byte(idx))
		}

		msg = appendCompactU16(msg, len(ix.Data))
		msg = append(msg, ix.Data...)
	}

	return msg, nil
}

// BuildTransaction compiles, signs and base58-encodes a transaction with
// the signer as fee payer and sole signature.
func BuildTransaction(signer *Keypair, blockhash string, instrs ...Instruction) (string, error) {
	bhRaw, err := base58.Decode(blockhash)
	if err != nil {
		return "", fmt.Errorf("decode blockhash: %w", err)
	}
	if len(bhRaw) != 32 {
		return "", fmt.Errorf("invalid blockhash length %d", len(bhRaw))
	}
	var bh [32]byte
	copy(bh[:], bhRaw)

	ck := compileKeys(signer.PublicKey(), instrs)
	if ck.numRequiredSigs != 1 {
		return "", fmt.Errorf("expected single signer, message requires %d", ck.numRequiredSigs)
	}

	msg, err := serializeMessage(ck, bh, instrs)
	if err != nil {
		return "", err
	}

	sig := signer.Sign(msg)

	tx := appendCompactU16(nil, 1)
	tx = append(tx, sig...)
	tx = append(tx, msg...)

	return base58.Encode(tx), nil
}
