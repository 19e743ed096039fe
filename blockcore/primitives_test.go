package blockcore

import (
	"bytes"
	"testing"
)

func TestCompactSizeRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000}
	for _, v := range cases {
		buf := WriteCompactSize(nil, v)
		got, n, err := ReadCompactSize(buf)
		if err != nil {
			t.Fatalf("ReadCompactSize(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d -> %d", v, got)
		}
		if n != len(buf) {
			t.Fatalf("consumed %d, want %d for value %d", n, len(buf), v)
		}
	}
}

func TestSerializeForCoinbaseMinimal(t *testing.T) {
	// Height 0 encodes as a single zero byte per BIP34.
	if got := SerializeForCoinbase(0); !bytes.Equal(got, []byte{0x00}) {
		t.Fatalf("height 0 = %x, want 00", got)
	}
	// Height 1 should be length-prefixed, 1 byte payload.
	got := SerializeForCoinbase(1)
	if len(got) != 2 || got[0] != 1 || got[1] != 1 {
		t.Fatalf("height 1 = %x, want 0101", got)
	}
}

func TestSerializeForCoinbaseHighBitPadding(t *testing.T) {
	// 0x80 has its high bit set, so BIP34 requires a trailing zero byte to
	// avoid being read back as a negative script number.
	got := SerializeForCoinbase(0x80)
	if len(got) != 3 || got[0] != 2 || got[1] != 0x80 || got[2] != 0x00 {
		t.Fatalf("height 0x80 = %x, want 02 80 00", got)
	}
}

func TestReverseBytes(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03}
	out := ReverseBytes(in)
	if !bytes.Equal(out, []byte{0x03, 0x02, 0x01}) {
		t.Fatalf("ReverseBytes = %x", out)
	}
	if !bytes.Equal(in, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("ReverseBytes mutated its input")
	}
}

func TestHexToBytesRejectsOddLength(t *testing.T) {
	if _, err := HexToBytes("abc"); err == nil {
		t.Fatalf("expected error for odd-length hex string")
	}
}
