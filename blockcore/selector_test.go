package blockcore

import "testing"

func mkTx(lockTime uint32, prevHash Hash256) (*Transaction, []byte) {
	tx := &Transaction{
		Version: 1,
		TxIn: []TxIn{{
			PreviousOutputHash:  prevHash,
			PreviousOutputIndex: 0,
			ScriptSig:           []byte{0x01, 0x02},
			Sequence:            0xffffffff,
		}},
		TxOut: []TxOut{{
			Value:    1000,
			PkScript: []byte{OpDup, OpHash160, 0x00, OpEqualVerify, OpCheckSig},
		}},
		LockTime: lockTime,
	}
	return tx, tx.Serialize(false)
}

func candidateFor(lockTime uint32, prevHash Hash256, fee int64) TxCandidate {
	tx, raw := mkTx(lockTime, prevHash)
	return TxCandidate{
		Data:        raw,
		Txid:        tx.Txid(),
		WitnessHash: tx.Txid(),
		Fee:         fee,
	}
}

func TestSelectNoDependencies(t *testing.T) {
	a := candidateFor(1, Hash256{}, 100)
	b := candidateFor(2, Hash256{}, 200)
	reward := int64(5000)

	selected, complete := Select([]TxCandidate{a, b}, 0, &reward, false)
	if !complete {
		t.Fatalf("expected complete selection")
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if reward != 5000-100-200 {
		t.Fatalf("reward = %d, want %d", reward, 5000-100-200)
	}
}

func TestSelectParentBeforeChild(t *testing.T) {
	a := candidateFor(1, Hash256{}, 10)
	aTx, _ := mkTx(1, Hash256{})
	b := candidateFor(2, aTx.Txid(), 20)

	reward := int64(1000)
	selected, complete := Select([]TxCandidate{b, a}, 0, &reward, false)
	if !complete {
		t.Fatalf("expected complete selection")
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if selected[0].Txid != a.Txid {
		t.Fatalf("expected parent a to be emitted before child b")
	}
}

func TestSelectTxLimitChargesAllCandidateFees(t *testing.T) {
	a := candidateFor(1, Hash256{}, 100)
	b := candidateFor(2, Hash256{}, 200)
	reward := int64(5000)

	selected, complete := Select([]TxCandidate{a, b}, 1, &reward, false)
	if complete {
		t.Fatalf("expected incomplete selection under cap")
	}
	if len(selected) != 1 {
		t.Fatalf("expected 1 selected under cap, got %d", len(selected))
	}
	// btcLike.h subtracts every candidate's fee from blockReward during the
	// initial pass, before the cap drops anything; a dropped candidate's fee
	// is never added back.
	if reward != 5000-100-200 {
		t.Fatalf("reward = %d, want %d (both candidates' fees charged)", reward, 5000-100-200)
	}
}

func TestSelectCapWithDependencyChain(t *testing.T) {
	// A, B(dep A), C, D(dep C), cap=2. Expect {A, B} emitted; C and D
	// refused by the cap, but all four fees are still charged against
	// reward per btcLike.h's unconditional subtraction.
	aTx, aRaw := mkTx(1, Hash256{})
	a := TxCandidate{Data: aRaw, Txid: aTx.Txid(), WitnessHash: aTx.Txid(), Fee: 10}

	bTx, bRaw := mkTx(2, aTx.Txid())
	b := TxCandidate{Data: bRaw, Txid: bTx.Txid(), WitnessHash: bTx.Txid(), Fee: 20}

	cTx, cRaw := mkTx(3, Hash256{0x09})
	c := TxCandidate{Data: cRaw, Txid: cTx.Txid(), WitnessHash: cTx.Txid(), Fee: 30}

	dTx, dRaw := mkTx(4, cTx.Txid())
	d := TxCandidate{Data: dRaw, Txid: dTx.Txid(), WitnessHash: dTx.Txid(), Fee: 40}

	reward := int64(1000)
	selected, complete := Select([]TxCandidate{a, b, c, d}, 2, &reward, false)
	if complete {
		t.Fatalf("expected incomplete selection under cap=2")
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if selected[0].Txid != a.Txid || selected[1].Txid != b.Txid {
		t.Fatalf("expected {A, B} selected in that order")
	}
	if reward != 1000-10-20-30-40 {
		t.Fatalf("reward = %d, want %d (all four candidates' fees deducted)", reward, 1000-10-20-30-40)
	}
}

func TestSelectHashSortOrdersByTxid(t *testing.T) {
	a := candidateFor(1, Hash256{}, 10)
	b := candidateFor(2, Hash256{}, 20)
	reward := int64(1000)

	selected, _ := Select([]TxCandidate{a, b}, 0, &reward, true)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if selected[0].Txid.String() > selected[1].Txid.String() {
		t.Fatalf("expected ascending txid order after hash sort")
	}
}
