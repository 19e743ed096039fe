package blockcore

import "testing"

func TestGetDifficultyKnownBits(t *testing.T) {
	// bits=0x1d00ffff is Bitcoin's genesis difficulty-1 target.
	diff := GetDifficulty(0x1d00ffff)
	if diff < 0.999 || diff > 1.001 {
		t.Fatalf("difficulty for genesis bits = %v, want ~1.0", diff)
	}
}

func TestGetDifficultyHigherBitsLowerDifficulty(t *testing.T) {
	d1 := GetDifficulty(0x1d00ffff)
	d2 := GetDifficulty(0x1e00ffff)
	if d2 >= d1 {
		t.Fatalf("larger exponent should mean lower difficulty: d1=%v d2=%v", d1, d2)
	}
}

func TestTargetFromBitsRoundTripsExponent(t *testing.T) {
	target := TargetFromBits(0x1d00ffff)
	if target.Sign() <= 0 {
		t.Fatalf("expected positive target")
	}
	if target.BitLen() != 224 {
		t.Fatalf("TargetFromBits(0x1d00ffff) bit length = %d, want 224 (0xffff << 208)", target.BitLen())
	}
}

func TestLTCProfileDifficultyFactor(t *testing.T) {
	if LTCProfile().DifficultyFactor() != 65536.0 {
		t.Fatalf("LTC difficulty factor must be 65536.0")
	}
	if BTCProfile().DifficultyFactor() != 1.0 {
		t.Fatalf("BTC difficulty factor must be 1.0")
	}
}

func TestLTCProfileConsensusHashDiffersFromDisplayHash(t *testing.T) {
	header := make([]byte, 80)
	profile := LTCProfile()
	consensus, err := profile.HashHeaderForConsensus(header)
	if err != nil {
		t.Fatalf("consensus hash: %v", err)
	}
	display := profile.HashHeaderForDisplay(header)
	if consensus == display {
		t.Fatalf("LTC consensus (scrypt) and display (SHA-256d) hashes must never coincide")
	}
}

func TestBCHProfileNeedsHashSort(t *testing.T) {
	if !BCHProfile().NeedsHashSort() {
		t.Fatalf("BCH profile must request hash-sorted selection")
	}
	if BTCProfile().NeedsHashSort() {
		t.Fatalf("BTC profile must not request hash-sorted selection")
	}
}

func TestProfileGraftSupport(t *testing.T) {
	if !FCHProfile().SupportsDevReward() {
		t.Fatalf("FCH profile must support the dev reward graft")
	}
	if !BCHAProfile().SupportsMinerFund() {
		t.Fatalf("BCHA profile must support the miner fund graft")
	}
	if BCHProfile().SupportsMinerFund() {
		t.Fatalf("plain BCH profile must not support the miner fund graft")
	}
}
