package blockcore

import (
	"bytes"
	"testing"
)

func TestTransactionRoundTripLegacy(t *testing.T) {
	tx := &Transaction{
		Version: 1,
		TxIn: []TxIn{{
			PreviousOutputHash:  Hash256{0x01, 0x02},
			PreviousOutputIndex: 0xffffffff,
			ScriptSig:           []byte{0x51, 0x52, 0x53},
			Sequence:            0xffffffff,
		}},
		TxOut: []TxOut{{
			Value:    5000000000,
			PkScript: []byte{OpDup, OpHash160, 0x14},
		}},
		LockTime: 0,
	}

	raw := tx.Serialize(false)
	decoded, hasWitness, consumed, err := DeserializeTransaction(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hasWitness {
		t.Fatalf("expected no witness marker in legacy-only tx")
	}
	if consumed != len(raw) {
		t.Fatalf("consumed %d, want %d", consumed, len(raw))
	}
	if !bytes.Equal(decoded.Serialize(false), raw) {
		t.Fatalf("round trip mismatch")
	}
}

func TestTransactionRoundTripWitness(t *testing.T) {
	tx := &Transaction{
		Version: 2,
		TxIn: []TxIn{{
			PreviousOutputHash:  Hash256{},
			PreviousOutputIndex: 0xffffffff,
			ScriptSig:           []byte{0x01},
			Sequence:            0xffffffff,
			WitnessStack:        [][]byte{make([]byte, 32)},
		}},
		TxOut: []TxOut{{Value: 0, PkScript: []byte{OpReturn}}},
	}

	raw := tx.Serialize(true)
	decoded, hasWitness, consumed, err := DeserializeTransaction(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !hasWitness {
		t.Fatalf("expected witness marker present")
	}
	if consumed != len(raw) {
		t.Fatalf("consumed %d, want %d", consumed, len(raw))
	}
	if len(decoded.TxIn[0].WitnessStack) != 1 || len(decoded.TxIn[0].WitnessStack[0]) != 32 {
		t.Fatalf("witness stack not preserved: %+v", decoded.TxIn[0].WitnessStack)
	}
}

func TestTxidExcludesWitnessData(t *testing.T) {
	base := &Transaction{
		Version: 2,
		TxIn: []TxIn{{
			PreviousOutputHash:  Hash256{},
			PreviousOutputIndex: 0,
			ScriptSig:           []byte{0x01},
			Sequence:            0xffffffff,
		}},
		TxOut: []TxOut{{Value: 100, PkScript: []byte{OpReturn}}},
	}
	withWitness := *base
	withWitness.TxIn = []TxIn{{
		PreviousOutputHash:  base.TxIn[0].PreviousOutputHash,
		PreviousOutputIndex: base.TxIn[0].PreviousOutputIndex,
		ScriptSig:           base.TxIn[0].ScriptSig,
		Sequence:            base.TxIn[0].Sequence,
		WitnessStack:        [][]byte{{0xde, 0xad}},
	}}

	if base.Txid() != withWitness.Txid() {
		t.Fatalf("txid must be witness-independent")
	}
	if base.Wtxid() == withWitness.Wtxid() {
		t.Fatalf("wtxid must depend on witness data")
	}
}

func TestFirstScriptSigOffsetMatchesManualWalk(t *testing.T) {
	tx := &Transaction{
		Version: 1,
		TxIn: []TxIn{{
			PreviousOutputHash:  Hash256{},
			PreviousOutputIndex: 0xffffffff,
			ScriptSig:           []byte{0xaa, 0xbb, 0xcc},
			Sequence:            0xffffffff,
		}},
		TxOut: []TxOut{{Value: 1, PkScript: []byte{0x51}}},
	}
	raw := tx.Serialize(false)
	off := tx.FirstScriptSigOffset(false)
	if !bytes.Equal(raw[off:off+3], tx.TxIn[0].ScriptSig) {
		t.Fatalf("offset %d does not point at scriptSig content, got %x", off, raw[off:off+3])
	}
}
