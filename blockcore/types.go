package blockcore

import "fmt"

// Hash256 is a 32-byte double-SHA256-family hash, stored in internal
// little-endian byte order. The zero value denotes "null" (e.g. the
// coinbase's previous output hash).
type Hash256 [32]byte

// String renders the hash in Bitcoin's reversed-byte display convention.
func (h Hash256) String() string {
	return BytesToHex(ReverseBytes(h[:]))
}

// IsZero reports whether h is the null hash.
func (h Hash256) IsZero() bool {
	return h == Hash256{}
}

// HashFromDisplayHex decodes a reversed-byte-order hex string (as returned
// by getblocktemplate's previousblockhash/txid fields) into internal
// little-endian form.
func HashFromDisplayHex(s string) (Hash256, error) {
	var h Hash256
	if len(s) != 64 {
		return h, fmt.Errorf("blockcore: hash hex must be 64 chars, got %d", len(s))
	}
	raw, err := HexToBytes(s)
	if err != nil {
		return h, fmt.Errorf("blockcore: decode hash hex: %w", err)
	}
	copy(h[:], ReverseBytes(raw))
	return h, nil
}

// Script is an opaque Bitcoin script byte string.
type Script []byte

// Opcodes referenced by the coinbase builder and witness commitment.
const (
	OpZero        byte = 0x00
	OpReturn      byte = 0x6A
	OpDup         byte = 0x76
	OpEqual       byte = 0x87
	OpEqualVerify byte = 0x88
	OpHash160     byte = 0xA9
	OpCheckSig    byte = 0xAC
)
