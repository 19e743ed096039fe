package blockcore

import (
	"bytes"
	"strings"
	"testing"
)

// TestScenarioS1BTCMinimal mirrors spec.md §8's S1: a zero-transaction BTC
// template should yield a single payout output and a scriptSig that
// begins with the BIP34 height encoding.
func TestScenarioS1BTCMinimal(t *testing.T) {
	cfg := MiningConfig{
		MiningAddressScript:   make([]byte, 20),
		CoinbaseMessage:       []byte("pool/"),
		FixedExtraNonceSize:   4,
		MutableExtraNonceSize: 4,
	}
	tpl := &Template{
		Height:            700000,
		Version:           0x20000000,
		PreviousBlockHash: strings.Repeat("11", 32),
		CurTime:           1700000000,
		Bits:              "170b2c70",
		CoinbaseValue:     625000000,
	}

	w := NewWork(BTCProfile(), cfg)
	if err := w.LoadFromTemplate(tpl); err != nil {
		t.Fatalf("LoadFromTemplate: %v", err)
	}
	if w.SegwitEnabled {
		t.Fatalf("expected SegWit disabled for an empty transaction set")
	}

	tx, _, _, err := DeserializeTransaction(w.CoinbaseLegacy.Data)
	if err != nil {
		t.Fatalf("decode coinbase: %v", err)
	}
	if len(tx.TxOut) != 1 {
		t.Fatalf("expected exactly 1 coinbase output, got %d", len(tx.TxOut))
	}
	if tx.TxOut[0].Value != 625000000 {
		t.Fatalf("payout value = %d, want 625000000", tx.TxOut[0].Value)
	}

	heightPush := SerializeForCoinbase(700000)
	if !bytes.Equal(tx.TxIn[0].ScriptSig[:len(heightPush)], heightPush) {
		t.Fatalf("scriptSig does not begin with BIP34 height encoding")
	}
}

// TestScenarioS2BTCSegwit mirrors spec.md §8's S2: a template containing one
// transaction whose witness hash differs from its txid should enable SegWit
// and add a witness commitment output to the coinbase.
func TestScenarioS2BTCSegwit(t *testing.T) {
	cfg := MiningConfig{
		MiningAddressScript:   make([]byte, 20),
		CoinbaseMessage:       []byte("pool/"),
		FixedExtraNonceSize:   4,
		MutableExtraNonceSize: 4,
	}
	segwitTx, _ := mkTx(1, Hash256{})
	segwitTx.TxIn[0].WitnessStack = [][]byte{{0x01}}
	raw := segwitTx.Serialize(true)

	tpl := &Template{
		Height:            700001,
		Version:           0x20000000,
		PreviousBlockHash: strings.Repeat("11", 32),
		CurTime:           1700000001,
		Bits:              "170b2c70",
		CoinbaseValue:     625000000,
		Transactions: []TemplateTx{
			{Data: BytesToHex(raw), Fee: 500},
		},
	}

	w := NewWork(BTCProfile(), cfg)

	// The candidate transaction carries a witness stack, so its wtxid differs
	// from its txid. Independently sanity-check IsSegwitEnabled on a
	// hand-built candidate with hash != txid before loading the template.
	segwitCandidates := []TxCandidate{{WitnessHash: Hash256{0xff}, Txid: Hash256{0x01}}}
	if !IsSegwitEnabled(segwitCandidates) {
		t.Fatalf("sanity check: IsSegwitEnabled should detect hash != txid")
	}

	if err := w.LoadFromTemplate(tpl); err != nil {
		t.Fatalf("LoadFromTemplate: %v", err)
	}

	tx, hasWitness, _, err := DeserializeTransaction(w.CoinbaseWitness.Data)
	if err != nil {
		t.Fatalf("decode witness coinbase: %v", err)
	}
	if !w.SegwitEnabled {
		t.Fatalf("expected SegWit enabled for a template with a witness transaction")
	}
	if !hasWitness {
		t.Fatalf("expected witness marker present in witness coinbase serialization")
	}
	if len(tx.TxIn[0].WitnessStack) != 1 || len(tx.TxIn[0].WitnessStack[0]) != 32 {
		t.Fatalf("expected 32-byte zero reserved value in coinbase witness stack")
	}
	if len(tx.TxOut) != 2 {
		t.Fatalf("expected payout + witness commitment outputs, got %d", len(tx.TxOut))
	}
}

// TestScenarioS2bDefaultWitnessCommitmentOverridesComputed verifies that a
// template-supplied default_witness_commitment is used verbatim instead of
// the commitment blockcore would otherwise compute from the selected set.
func TestScenarioS2bDefaultWitnessCommitmentOverridesComputed(t *testing.T) {
	cfg := MiningConfig{
		MiningAddressScript:   make([]byte, 20),
		CoinbaseMessage:       []byte("pool/"),
		FixedExtraNonceSize:   4,
		MutableExtraNonceSize: 4,
	}
	segwitTx, _ := mkTx(1, Hash256{})
	segwitTx.TxIn[0].WitnessStack = [][]byte{{0x01}}
	raw := segwitTx.Serialize(true)
	override := "6a24aa21a9ed" + strings.Repeat("ab", 32)

	tpl := &Template{
		Height:            700002,
		Version:           0x20000000,
		PreviousBlockHash: strings.Repeat("11", 32),
		CurTime:           1700000002,
		Bits:              "170b2c70",
		CoinbaseValue:     625000000,
		Transactions: []TemplateTx{
			{Data: BytesToHex(raw), Fee: 500},
		},
		DefaultWitnessCommitment: override,
	}

	w := NewWork(BTCProfile(), cfg)
	if err := w.LoadFromTemplate(tpl); err != nil {
		t.Fatalf("LoadFromTemplate: %v", err)
	}
	want, err := HexToBytes(override)
	if err != nil {
		t.Fatalf("decode override: %v", err)
	}
	if !bytes.Equal(w.WitnessCommitment, want) {
		t.Fatalf("witness commitment = %x, want template override %x", w.WitnessCommitment, want)
	}
}

// TestScenarioS5FCHDevReward mirrors spec.md §8's S5: an FCH-profile
// template carrying a literal coinbasedevreward field should produce
// exactly two coinbase outputs, the second honoring that field's value and
// scriptPubKey verbatim, and should leave BlockReward_ untouched (the dev
// reward is paid alongside it, not carved out of it).
func TestScenarioS5FCHDevReward(t *testing.T) {
	cfg := MiningConfig{
		MiningAddressScript:   make([]byte, 20),
		CoinbaseMessage:       []byte("pool/"),
		FixedExtraNonceSize:   4,
		MutableExtraNonceSize: 4,
	}
	devScript := Script(bytes.Repeat([]byte{0x76, 0xa9, 0x14}, 1))
	tpl := &Template{
		Height:            1000,
		Version:           1,
		PreviousBlockHash: strings.Repeat("22", 32),
		CurTime:           1700000002,
		Bits:              "170b2c70",
		CoinbaseValue:     100000000,
		CoinbaseDevReward: &CoinbaseDevReward{Value: 10000000, ScriptPubKey: devScript},
	}

	w := NewWork(FCHProfile(), cfg)
	if err := w.LoadFromTemplate(tpl); err != nil {
		t.Fatalf("LoadFromTemplate: %v", err)
	}

	tx, _, _, err := DeserializeTransaction(w.CoinbaseLegacy.Data)
	if err != nil {
		t.Fatalf("decode coinbase: %v", err)
	}
	if len(tx.TxOut) != 2 {
		t.Fatalf("expected exactly 2 coinbase outputs (payout + dev), got %d", len(tx.TxOut))
	}
	if !bytes.Equal(tx.TxOut[1].PkScript, devScript) {
		t.Fatalf("dev output pkScript mismatch: got %x, want %x", tx.TxOut[1].PkScript, devScript)
	}
	if w.DevFee != 10000000 {
		t.Fatalf("DevFee = %d, want 10000000 (read from the template's literal coinbasedevreward.value)", w.DevFee)
	}
	if tx.TxOut[0].Value != 100000000 {
		t.Fatalf("payout value = %d, want 100000000 (dev reward must not reduce BlockReward_)", tx.TxOut[0].Value)
	}
}

// TestScenarioS5BCHAMinerFund mirrors the BCHA variant of spec.md §8's S5:
// a template carrying a literal minerfund field should withhold its
// minimumvalue from BlockReward_ and route it to the fund's scriptPubKey
// through the same DevFee/DevScriptPubKey slot the FCH graft uses.
func TestScenarioS5BCHAMinerFund(t *testing.T) {
	cfg := MiningConfig{
		MiningAddressScript:   make([]byte, 20),
		CoinbaseMessage:       []byte("pool/"),
		FixedExtraNonceSize:   4,
		MutableExtraNonceSize: 4,
	}
	fundScript := Script(bytes.Repeat([]byte{0x76, 0xa9, 0x14}, 1))
	tpl := &Template{
		Height:            1000,
		Version:           1,
		PreviousBlockHash: strings.Repeat("22", 32),
		CurTime:           1700000002,
		Bits:              "170b2c70",
		CoinbaseValue:     100000000,
		MinerFund:         &MinerFund{MinimumValue: 8000000, ScriptPubKey: fundScript},
	}

	w := NewWork(BCHAProfile(), cfg)
	if err := w.LoadFromTemplate(tpl); err != nil {
		t.Fatalf("LoadFromTemplate: %v", err)
	}

	tx, _, _, err := DeserializeTransaction(w.CoinbaseLegacy.Data)
	if err != nil {
		t.Fatalf("decode coinbase: %v", err)
	}
	if len(tx.TxOut) != 2 {
		t.Fatalf("expected exactly 2 coinbase outputs (payout + fund), got %d", len(tx.TxOut))
	}
	if !bytes.Equal(tx.TxOut[1].PkScript, fundScript) {
		t.Fatalf("fund output pkScript mismatch: got %x, want %x", tx.TxOut[1].PkScript, fundScript)
	}
	if w.DevFee != 8000000 {
		t.Fatalf("DevFee = %d, want 8000000", w.DevFee)
	}
	if tx.TxOut[0].Value != 100000000-8000000 {
		t.Fatalf("payout value = %d, want %d (miner fund must reduce BlockReward_)", tx.TxOut[0].Value, 100000000-8000000)
	}
}

// TestScenarioS6SubmitPath mirrors spec.md §8's S6: after mutating in a new
// extranonce and nTime, BuildBlock must embed that extranonce at the
// recorded witness offset and carry the supplied nTime in its header.
func TestScenarioS6SubmitPath(t *testing.T) {
	cfg := MiningConfig{
		MiningAddressScript:   make([]byte, 20),
		CoinbaseMessage:       []byte("pool/"),
		FixedExtraNonceSize:   4,
		MutableExtraNonceSize: 4,
	}
	tpl := &Template{
		Height:            2000,
		Version:           1,
		PreviousBlockHash: strings.Repeat("33", 32),
		CurTime:           1700000003,
		Bits:              "170b2c70",
		CoinbaseValue:     100000000,
	}

	w := NewWork(BTCProfile(), cfg)
	if err := w.LoadFromTemplate(tpl); err != nil {
		t.Fatalf("LoadFromTemplate: %v", err)
	}

	extranonce := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x00, 0x00, 0x00}

	wantTime := uint32(1700005000)
	if err := w.Mutate(extranonce, wantTime, 99, tpl.Version); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := w.PrepareForSubmit(); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	block := w.BuildBlock()
	if !bytes.Contains(block, extranonce) {
		t.Fatalf("expected block to contain the patched extranonce bytes")
	}
	// 80-byte header + 1-byte transaction count precede the witness coinbase.
	off := 81 + w.CoinbaseWitness.ExtraNonceOffset
	if !bytes.Equal(block[off:off+len(extranonce)], extranonce) {
		t.Fatalf("extranonce at witness offset %d = %x, want %x", off, block[off:off+len(extranonce)], extranonce)
	}

	headerTime := w.Header.Time
	if headerTime != wantTime {
		t.Fatalf("header nTime = %d, want %d", headerTime, wantTime)
	}
}
