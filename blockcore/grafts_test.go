package blockcore

import "testing"

func TestProcessCoinbaseDevRewardNilField(t *testing.T) {
	fee, script := ProcessCoinbaseDevReward(nil)
	if fee != 0 || script != nil {
		t.Fatalf("absent coinbasedevreward must not produce a fee")
	}
}

func TestProcessCoinbaseDevRewardReadsTemplateValue(t *testing.T) {
	scriptPubKey := Script{0x01, 0x02}
	fee, script := ProcessCoinbaseDevReward(&CoinbaseDevReward{
		Value:        10000000,
		ScriptPubKey: scriptPubKey,
	})
	if fee != 10000000 {
		t.Fatalf("dev fee = %d, want %d", fee, 10000000)
	}
	if len(script) != 2 || script[0] != 0x01 || script[1] != 0x02 {
		t.Fatalf("dev script mismatch: %v", script)
	}
}

func TestProcessCoinbaseDevRewardDoesNotTouchBlockReward(t *testing.T) {
	reward := int64(1000000000)
	_, _ = ProcessCoinbaseDevReward(&CoinbaseDevReward{Value: 10000000, ScriptPubKey: Script{0x01}})
	if reward != 1000000000 {
		t.Fatalf("processCoinbaseDevReward must never mutate blockReward, per btcLike.h's signature")
	}
}

func TestProcessMinerFundNilField(t *testing.T) {
	reward := int64(500000000)
	amount, script := ProcessMinerFund(&reward, nil)
	if amount != 0 || script != nil {
		t.Fatalf("absent minerfund must not withhold anything")
	}
	if reward != 500000000 {
		t.Fatalf("reward mutated despite absent minerfund")
	}
}

func TestProcessMinerFundWithholdsMinimumValueFromBlockReward(t *testing.T) {
	reward := int64(900000000)
	fundScript := Script{0x03}
	amount, script := ProcessMinerFund(&reward, &MinerFund{
		MinimumValue: 72000000,
		ScriptPubKey: fundScript,
	})
	if amount != 72000000 {
		t.Fatalf("fund amount = %d, want %d", amount, 72000000)
	}
	if reward != 900000000-72000000 {
		t.Fatalf("reward after fund = %d, want %d", reward, 900000000-72000000)
	}
	if len(script) != 1 || script[0] != 0x03 {
		t.Fatalf("fund script mismatch")
	}
}
