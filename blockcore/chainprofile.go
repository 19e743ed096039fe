package blockcore

import (
	"math/big"
)

// ChainProfile captures the per-chain constants and hash-function choices
// that vary across the Bitcoin-family networks this package serves. It
// generalizes the teacher's single process-wide chainParams var
// (network_params.go) into a value the core can carry per-Work rather than
// assume globally.
type ChainProfile interface {
	// Name identifies the profile for logging and template selection.
	Name() string

	// DifficultyFactor scales the raw bits-derived difficulty for display
	// and share accounting; 1.0 for BTC/BCH/FCH, 65536.0 for LTC (per
	// LTC::Stratum::DifficultyFactor in original_source/.../ltc.h).
	DifficultyFactor() float64

	// HashHeaderForConsensus returns the hash that must satisfy the target
	// for the block to be valid. For every profile but Litecoin this is
	// DoubleSHA256; Litecoin uses scrypt_1024_1_1_256.
	HashHeaderForConsensus(header []byte) (Hash256, error)

	// HashHeaderForDisplay returns the hash used for merkle roots, txids,
	// and share/job display. This is always DoubleSHA256, even on chains
	// whose consensus hash differs (spec.md §9's LTC note).
	HashHeaderForDisplay(header []byte) Hash256

	// NeedsHashSort reports whether the transaction selector must sort its
	// output by ascending hex txid after dependency ordering, matching
	// BCHN/BCHABC's sortByHash flag in transactionFilter<Proto>.
	NeedsHashSort() bool

	// SupportsDevReward reports whether loadFromTemplate should invoke
	// ProcessCoinbaseDevReward (FCH-style founders'/dev reward split).
	SupportsDevReward() bool

	// SupportsMinerFund reports whether loadFromTemplate should invoke
	// ProcessMinerFund (BCHA-style coinbase miner fund output).
	SupportsMinerFund() bool
}

// btcProfile is the baseline SHA-256d chain: consensus and display hashing
// coincide, no dev reward or miner fund, no selector sort.
type btcProfile struct{ name string }

func (p btcProfile) Name() string { return p.name }
func (p btcProfile) DifficultyFactor() float64 { return 1.0 }
func (p btcProfile) HashHeaderForConsensus(header []byte) (Hash256, error) {
	return DoubleSHA256(header), nil
}
func (p btcProfile) HashHeaderForDisplay(header []byte) Hash256 {
	return DoubleSHA256(header)
}
func (p btcProfile) NeedsHashSort() bool     { return false }
func (p btcProfile) SupportsDevReward() bool { return false }
func (p btcProfile) SupportsMinerFund() bool { return false }

// BTCProfile is the standard Bitcoin chain profile.
func BTCProfile() ChainProfile { return btcProfile{name: "BTC"} }

// ltcProfile overrides consensus hashing with scrypt while keeping
// DoubleSHA256 for display, per spec.md §9's explicit "never unify" note.
type ltcProfile struct{ btcProfile }

func (p ltcProfile) DifficultyFactor() float64 { return 65536.0 }
func (p ltcProfile) HashHeaderForConsensus(header []byte) (Hash256, error) {
	return ltcScryptConsensusHash(header)
}

// LTCProfile is the Litecoin chain profile: scrypt consensus PoW, SHA-256d
// display/merkle hashing.
func LTCProfile() ChainProfile { return ltcProfile{btcProfile{name: "LTC"}} }

// bchProfile sorts the selected transactions by ascending txid hex after
// dependency resolution and supports the BCHA miner fund graft.
type bchProfile struct {
	btcProfile
	minerFund bool
}

func (p bchProfile) NeedsHashSort() bool     { return true }
func (p bchProfile) SupportsMinerFund() bool { return p.minerFund }

// BCHProfile is the Bitcoin Cash (BCHN) profile: no miner fund.
func BCHProfile() ChainProfile { return bchProfile{btcProfile: btcProfile{name: "BCH"}} }

// BCHAProfile is the Bitcoin Cash ABC profile with the miner fund graft
// enabled, per spec.md §4.H.
func BCHAProfile() ChainProfile {
	return bchProfile{btcProfile: btcProfile{name: "BCHA"}, minerFund: true}
}

// fchProfile enables the founders'/developer coinbase reward split.
type fchProfile struct{ btcProfile }

func (p fchProfile) SupportsDevReward() bool { return true }

// FCHProfile is the FreeCash profile with the dev reward graft
// enabled, per spec.md §4.H.
func FCHProfile() ChainProfile { return fchProfile{btcProfile{name: "FCH"}} }

// GetDifficulty converts a compact "bits" field into its floating-point
// difficulty representation, ported verbatim from
// original_source/.../btcLike.h's getDifficulty:
//
//	nShift = (bits>>24)&0xff; dDiff = 0xffff / (bits&0x00ffffff)
//	while nShift < 29: dDiff *= 256; nShift++
//	while nShift > 29: dDiff /= 256; nShift--
func GetDifficulty(bits uint32) float64 {
	nShift := int((bits >> 24) & 0xff)
	mantissa := bits & 0x00ffffff
	if mantissa == 0 {
		return 0
	}
	dDiff := float64(0xffff) / float64(mantissa)
	for nShift < 29 {
		dDiff *= 256
		nShift++
	}
	for nShift > 29 {
		dDiff /= 256
		nShift--
	}
	return dDiff
}

// TargetFromBits expands a compact "bits" field into its 256-bit target,
// following Bitcoin Core's nBits decoding: the low 23 bits are a mantissa
// (the sign bit 0x00800000 is masked off), the high byte is a byte-count
// exponent.
func TargetFromBits(bits uint32) *big.Int {
	exponent := uint(bits >> 24)
	mantissa := int64(bits & 0x007fffff)
	target := big.NewInt(mantissa)
	if exponent <= 3 {
		target.Rsh(target, 8*(3-exponent))
	} else {
		target.Lsh(target, 8*(exponent-3))
	}
	return target
}
