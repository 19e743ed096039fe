package blockcore

import (
	stdsha "crypto/sha256"

	simdsha "github.com/minio/sha256-simd"
	"golang.org/x/crypto/scrypt"
)

// sha256SumFunc mirrors the teacher's hash_sha256.go backend-selector
// pattern so the core can swap in the SIMD implementation without touching
// call sites.
type sha256SumFunc func([]byte) [32]byte

var sha256Sum sha256SumFunc = stdsha.Sum256

// SetSHA256Implementation switches the SHA-256 backend used by DoubleSHA256.
// Pool operators call this once at startup based on CPU feature detection,
// exactly as the teacher's setSha256Implementation does.
func SetSHA256Implementation(useSIMD bool) {
	if useSIMD {
		sha256Sum = simdsha.Sum256
		return
	}
	sha256Sum = stdsha.Sum256
}

// DoubleSHA256 computes SHA-256d, the hash used for txids, merkle nodes,
// and (for every chain but Litecoin) header display/consensus hashing.
func DoubleSHA256(data []byte) [32]byte {
	first := sha256Sum(data)
	return sha256Sum(first[:])
}

// ltcScryptConsensusHash computes Litecoin's original scrypt_1024_1_1_256
// proof-of-work hash over an 80-byte block header. This is never used for
// display or merkle hashing; see LTCProfile.HashHeaderForDisplay.
func ltcScryptConsensusHash(header []byte) ([32]byte, error) {
	var out [32]byte
	raw, err := scrypt.Key(header, header, 1024, 1, 1, 32)
	if err != nil {
		return out, err
	}
	copy(out[:], raw)
	return out, nil
}
