package blockcore

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// WriteCompactSize appends the Bitcoin CompactSize (a.k.a. VarInt) encoding
// of v to buf and returns the extended slice.
func WriteCompactSize(buf []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(buf, byte(v))
	case v <= 0xffff:
		buf = append(buf, 0xfd, 0, 0)
		binary.LittleEndian.PutUint16(buf[len(buf)-2:], uint16(v))
		return buf
	case v <= 0xffffffff:
		buf = append(buf, 0xfe, 0, 0, 0, 0)
		binary.LittleEndian.PutUint32(buf[len(buf)-4:], uint32(v))
		return buf
	default:
		buf = append(buf, 0xff, 0, 0, 0, 0, 0, 0, 0, 0)
		binary.LittleEndian.PutUint64(buf[len(buf)-8:], v)
		return buf
	}
}

// ReadCompactSize decodes a CompactSize value at the start of buf, returning
// the value and the number of bytes consumed.
func ReadCompactSize(buf []byte) (uint64, int, error) {
	if len(buf) == 0 {
		return 0, 0, fmt.Errorf("blockcore: compact size: empty buffer")
	}
	switch b := buf[0]; {
	case b < 0xfd:
		return uint64(b), 1, nil
	case b == 0xfd:
		if len(buf) < 3 {
			return 0, 0, fmt.Errorf("blockcore: compact size: truncated u16")
		}
		return uint64(binary.LittleEndian.Uint16(buf[1:3])), 3, nil
	case b == 0xfe:
		if len(buf) < 5 {
			return 0, 0, fmt.Errorf("blockcore: compact size: truncated u32")
		}
		return uint64(binary.LittleEndian.Uint32(buf[1:5])), 5, nil
	default:
		if len(buf) < 9 {
			return 0, 0, fmt.Errorf("blockcore: compact size: truncated u64")
		}
		return binary.LittleEndian.Uint64(buf[1:9]), 9, nil
	}
}

func appendUint32LE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64LE(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendInt32LE(buf []byte, v int32) []byte {
	return appendUint32LE(buf, uint32(v))
}

func appendInt64LE(buf []byte, v int64) []byte {
	return appendUint64LE(buf, uint64(v))
}

// SerializeForCoinbase emits the BIP-34 minimal height encoding: a
// CompactSize length byte followed by height in little-endian, with
// trailing zero bytes dropped.
func SerializeForCoinbase(height int64) []byte {
	if height == 0 {
		return []byte{0x00}
	}
	var raw []byte
	v := height
	for v > 0 {
		raw = append(raw, byte(v&0xff))
		v >>= 8
	}
	// If the high bit of the last byte is set, the minimal encoding would be
	// read back as negative; append a zero byte to keep it unambiguous.
	if raw[len(raw)-1]&0x80 != 0 {
		raw = append(raw, 0x00)
	}
	out := make([]byte, 0, len(raw)+1)
	out = append(out, byte(len(raw)))
	out = append(out, raw...)
	return out
}

// HexToBytes decodes lowercase or uppercase hex into bytes, rejecting odd
// length input.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("blockcore: hex string has odd length %d", len(s))
	}
	return hex.DecodeString(s)
}

// BytesToHex renders b as lowercase hex.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// ReverseBytes returns a new slice holding b's bytes in reverse order,
// used throughout to flip between internal little-endian and Bitcoin's
// big-endian display convention.
func ReverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
