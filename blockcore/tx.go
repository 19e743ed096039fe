package blockcore

import (
	"fmt"
)

// TxIn is a transaction input. WitnessStack is only serialized when the
// transaction is serialized in witness form.
type TxIn struct {
	PreviousOutputHash  Hash256
	PreviousOutputIndex uint32
	ScriptSig           []byte
	Sequence            uint32
	WitnessStack        [][]byte
}

// TxOut is a transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// Transaction is a Bitcoin-family transaction. It supports two
// serializations: legacy (pre-SegWit, used for txid) and witness
// (SegWit marker+flag plus witness stacks, used for wtxid).
type Transaction struct {
	Version  int32
	TxIn     []TxIn
	TxOut    []TxOut
	LockTime uint32
}

// HasWitness reports whether any input carries a non-empty witness stack.
func (tx *Transaction) HasWitness() bool {
	for _, in := range tx.TxIn {
		if len(in.WitnessStack) > 0 {
			return true
		}
	}
	return false
}

// Serialize encodes tx per spec.md §3: legacy form when witness is false,
// SegWit marker+flag+witness-stacks form when true and at least one input
// carries a witness stack (otherwise the legacy form is emitted).
func (tx *Transaction) Serialize(witness bool) []byte {
	buf := make([]byte, 0, 256)
	buf = appendInt32LE(buf, tx.Version)

	if witness && tx.HasWitness() {
		buf = append(buf, 0x00, 0x01)
	}

	buf = WriteCompactSize(buf, uint64(len(tx.TxIn)))
	for _, in := range tx.TxIn {
		buf = append(buf, in.PreviousOutputHash[:]...)
		buf = appendUint32LE(buf, in.PreviousOutputIndex)
		buf = WriteCompactSize(buf, uint64(len(in.ScriptSig)))
		buf = append(buf, in.ScriptSig...)
		buf = appendUint32LE(buf, in.Sequence)
	}

	buf = WriteCompactSize(buf, uint64(len(tx.TxOut)))
	for _, out := range tx.TxOut {
		buf = appendInt64LE(buf, out.Value)
		buf = WriteCompactSize(buf, uint64(len(out.PkScript)))
		buf = append(buf, out.PkScript...)
	}

	if witness && tx.HasWitness() {
		for _, in := range tx.TxIn {
			buf = WriteCompactSize(buf, uint64(len(in.WitnessStack)))
			for _, item := range in.WitnessStack {
				buf = WriteCompactSize(buf, uint64(len(item)))
				buf = append(buf, item...)
			}
		}
	}

	buf = appendUint32LE(buf, tx.LockTime)
	return buf
}

// Txid returns the double-SHA256 of the legacy serialization.
func (tx *Transaction) Txid() Hash256 {
	return DoubleSHA256(tx.Serialize(false))
}

// Wtxid returns the double-SHA256 of the witness serialization.
func (tx *Transaction) Wtxid() Hash256 {
	return DoubleSHA256(tx.Serialize(true))
}

// FirstScriptSigOffset returns the byte position, within the requested
// serialization form, at which the first TxIn's scriptSig content begins
// (i.e. immediately after its CompactSize length prefix). The coinbase
// builder uses this to translate scriptSig-local offsets into
// transaction-absolute offsets, per spec.md §4.C.
func (tx *Transaction) FirstScriptSigOffset(withWitness bool) int {
	off := 4 // version
	if withWitness && tx.HasWitness() {
		off += 2 // marker + flag
	}

	n, sz := compactSizeLen(uint64(len(tx.TxIn)))
	off += sz
	_ = n

	off += 32 + 4 // previousOutputHash + previousOutputIndex of the first input

	_, sz = compactSizeLen(uint64(len(tx.TxIn[0].ScriptSig)))
	off += sz

	return off
}

// compactSizeLen returns the encoded byte length for v without allocating.
func compactSizeLen(v uint64) (uint64, int) {
	switch {
	case v < 0xfd:
		return v, 1
	case v <= 0xffff:
		return v, 3
	case v <= 0xffffffff:
		return v, 5
	default:
		return v, 9
	}
}

// DeserializeTransaction decodes a transaction from either serialization
// form, returning the transaction, whether witness data was present, and
// the number of bytes consumed. No error is returned for trailing bytes;
// callers compare consumed to len(buf) themselves, matching spec.md §7's
// MalformedTransaction trigger "leaves bytes unread".
func DeserializeTransaction(buf []byte) (*Transaction, bool, int, error) {
	orig := buf
	if len(buf) < 4 {
		return nil, false, 0, fmt.Errorf("%w: truncated version", ErrMalformedTransaction)
	}
	tx := &Transaction{}
	tx.Version = int32(le32(buf))
	buf = buf[4:]

	hasWitness := false
	if len(buf) >= 2 && buf[0] == 0x00 && buf[1] == 0x01 {
		hasWitness = true
		buf = buf[2:]
	}

	nIn, n, err := ReadCompactSize(buf)
	if err != nil {
		return nil, false, 0, fmt.Errorf("%w: txin count: %v", ErrMalformedTransaction, err)
	}
	buf = buf[n:]

	tx.TxIn = make([]TxIn, nIn)
	for i := range tx.TxIn {
		if len(buf) < 36 {
			return nil, false, 0, fmt.Errorf("%w: truncated txin outpoint", ErrMalformedTransaction)
		}
		copy(tx.TxIn[i].PreviousOutputHash[:], buf[:32])
		tx.TxIn[i].PreviousOutputIndex = le32(buf[32:36])
		buf = buf[36:]

		scriptLen, n, err := ReadCompactSize(buf)
		if err != nil {
			return nil, false, 0, fmt.Errorf("%w: scriptSig length: %v", ErrMalformedTransaction, err)
		}
		buf = buf[n:]
		if uint64(len(buf)) < scriptLen+4 {
			return nil, false, 0, fmt.Errorf("%w: truncated scriptSig/sequence", ErrMalformedTransaction)
		}
		tx.TxIn[i].ScriptSig = append([]byte(nil), buf[:scriptLen]...)
		buf = buf[scriptLen:]
		tx.TxIn[i].Sequence = le32(buf[:4])
		buf = buf[4:]
	}

	nOut, n, err := ReadCompactSize(buf)
	if err != nil {
		return nil, false, 0, fmt.Errorf("%w: txout count: %v", ErrMalformedTransaction, err)
	}
	buf = buf[n:]

	tx.TxOut = make([]TxOut, nOut)
	for i := range tx.TxOut {
		if len(buf) < 8 {
			return nil, false, 0, fmt.Errorf("%w: truncated txout value", ErrMalformedTransaction)
		}
		tx.TxOut[i].Value = int64(le64(buf[:8]))
		buf = buf[8:]
		scriptLen, n, err := ReadCompactSize(buf)
		if err != nil {
			return nil, false, 0, fmt.Errorf("%w: pkScript length: %v", ErrMalformedTransaction, err)
		}
		buf = buf[n:]
		if uint64(len(buf)) < scriptLen {
			return nil, false, 0, fmt.Errorf("%w: truncated pkScript", ErrMalformedTransaction)
		}
		tx.TxOut[i].PkScript = append([]byte(nil), buf[:scriptLen]...)
		buf = buf[scriptLen:]
	}

	if hasWitness {
		for i := range tx.TxIn {
			nItems, n, err := ReadCompactSize(buf)
			if err != nil {
				return nil, false, 0, fmt.Errorf("%w: witness item count: %v", ErrMalformedTransaction, err)
			}
			buf = buf[n:]
			stack := make([][]byte, nItems)
			for j := range stack {
				itemLen, n, err := ReadCompactSize(buf)
				if err != nil {
					return nil, false, 0, fmt.Errorf("%w: witness item length: %v", ErrMalformedTransaction, err)
				}
				buf = buf[n:]
				if uint64(len(buf)) < itemLen {
					return nil, false, 0, fmt.Errorf("%w: truncated witness item", ErrMalformedTransaction)
				}
				stack[j] = append([]byte(nil), buf[:itemLen]...)
				buf = buf[itemLen:]
			}
			tx.TxIn[i].WitnessStack = stack
		}
	}

	if len(buf) < 4 {
		return nil, false, 0, fmt.Errorf("%w: truncated lockTime", ErrMalformedTransaction)
	}
	tx.LockTime = le32(buf[:4])
	buf = buf[4:]

	consumed := len(orig) - len(buf)
	return tx, hasWitness, consumed, nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
