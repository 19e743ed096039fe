package blockcore

import (
	"bytes"
	"testing"
)

func TestBuildCoinbaseTxLegacyOffsetsPointIntoScriptSig(t *testing.T) {
	cfg := MiningConfig{
		MiningAddressScript:   bytes.Repeat([]byte{0xaa}, 20),
		CoinbaseMessage:       []byte("pool/"),
		FixedExtraNonceSize:   4,
		MutableExtraNonceSize: 4,
	}

	legacy, witness := BuildCoinbaseTx(
		700000, 5000000000,
		0, nil,
		false, nil,
		nil,
		cfg,
	)

	tx, hasWitness, consumed, err := DeserializeTransaction(legacy.Data)
	if err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	if hasWitness {
		t.Fatalf("expected no witness marker for non-segwit coinbase")
	}
	if consumed != len(legacy.Data) {
		t.Fatalf("consumed %d, want %d", consumed, len(legacy.Data))
	}

	scriptSig := tx.TxIn[0].ScriptSig
	heightPush := SerializeForCoinbase(700000)
	if !bytes.Equal(scriptSig[:len(heightPush)], heightPush) {
		t.Fatalf("scriptSig does not start with BIP34 height push")
	}

	extraNonceRegion := legacy.Data[legacy.ExtraNonceOffset : legacy.ExtraNonceOffset+8]
	if !bytes.Equal(extraNonceRegion, make([]byte, 8)) {
		t.Fatalf("extranonce region not zero-filled: %x", extraNonceRegion)
	}

	if legacy.ExtraDataOffset != legacy.ExtraNonceOffset-len(cfg.CoinbaseMessage) {
		t.Fatalf("extraDataOffset %d inconsistent with extraNonceOffset %d and message length %d",
			legacy.ExtraDataOffset, legacy.ExtraNonceOffset, len(cfg.CoinbaseMessage))
	}

	if witness.Data != nil && len(witness.Data) == 0 {
		t.Fatalf("witness data unexpectedly empty slice")
	}
}

func TestBuildCoinbaseTxSegwitAddsWitnessCommitmentOutput(t *testing.T) {
	cfg := MiningConfig{
		MiningAddressScript:   bytes.Repeat([]byte{0xbb}, 20),
		CoinbaseMessage:       []byte("pool/"),
		FixedExtraNonceSize:   4,
		MutableExtraNonceSize: 4,
	}
	commitment := Script(bytes.Repeat([]byte{0xcc}, 38))

	legacy, witness := BuildCoinbaseTx(
		1, 5000000000,
		0, nil,
		true, commitment,
		nil,
		cfg,
	)

	tx, hasWitness, _, err := DeserializeTransaction(witness.Data)
	if err != nil {
		t.Fatalf("decode witness: %v", err)
	}
	if !hasWitness {
		t.Fatalf("expected witness marker present for segwit coinbase")
	}
	if len(tx.TxOut) != 2 {
		t.Fatalf("expected payout + witness commitment outputs, got %d", len(tx.TxOut))
	}
	if !bytes.Equal(tx.TxOut[1].PkScript, commitment) {
		t.Fatalf("witness commitment output script mismatch")
	}
	if tx.TxOut[1].Value != 0 {
		t.Fatalf("witness commitment output value = %d, want 0", tx.TxOut[1].Value)
	}

	if legacyTx, _, _, err := DeserializeTransaction(legacy.Data); err == nil {
		if legacyTx.TxIn[0].PreviousOutputIndex != 0xffffffff {
			t.Fatalf("coinbase previousOutputIndex must be 0xffffffff")
		}
	} else {
		t.Fatalf("decode legacy: %v", err)
	}
}

func TestBuildCoinbaseTxDevFeeOutput(t *testing.T) {
	cfg := MiningConfig{
		MiningAddressScript:   bytes.Repeat([]byte{0xdd}, 20),
		CoinbaseMessage:       []byte("pool/"),
		FixedExtraNonceSize:   4,
		MutableExtraNonceSize: 4,
	}
	devScript := Script(bytes.Repeat([]byte{0x01}, 25))

	legacy, _ := BuildCoinbaseTx(
		1, 4000000000,
		500000000, devScript,
		false, nil,
		nil,
		cfg,
	)

	tx, _, _, err := DeserializeTransaction(legacy.Data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tx.TxOut) != 2 {
		t.Fatalf("expected payout + dev/fund output, got %d", len(tx.TxOut))
	}
	if tx.TxOut[1].Value != 500000000 || !bytes.Equal(tx.TxOut[1].PkScript, devScript) {
		t.Fatalf("dev fee output mismatch: %+v", tx.TxOut[1])
	}
}
