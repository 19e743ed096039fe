package blockcore

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// parseBitsHex decodes getblocktemplate's "bits" field, an 8-character hex
// string holding the compact target in big-endian byte order, into the
// little-endian uint32 a BlockHeader stores.
func parseBitsHex(s string) (uint32, error) {
	raw, err := HexToBytes(s)
	if err != nil || len(raw) != 4 {
		return 0, fmt.Errorf("blockcore: bits must be 4 bytes of hex, got %q", s)
	}
	return binary.BigEndian.Uint32(raw), nil
}

// workState enumerates Work's lifecycle per spec.md §3's state machine:
// New -> Loaded -> Mutated* -> Submitting -> (Accepted | Rejected).
type workState int

const (
	WorkNew workState = iota
	WorkLoaded
	WorkMutated
	WorkSubmitting
	WorkAccepted
	WorkRejected
)

// BlockHeader is the 80-byte Bitcoin-family block header.
type BlockHeader struct {
	Version       int32
	PrevBlockHash Hash256
	MerkleRoot    Hash256
	Time          uint32
	Bits          uint32
	Nonce         uint32
}

// Serialize encodes the header in the fixed 80-byte wire format.
func (h *BlockHeader) Serialize() []byte {
	buf := make([]byte, 0, 80)
	buf = appendInt32LE(buf, h.Version)
	buf = append(buf, h.PrevBlockHash[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = appendUint32LE(buf, h.Time)
	buf = appendUint32LE(buf, h.Bits)
	buf = appendUint32LE(buf, h.Nonce)
	return buf
}

// Template is the decoded subset of a getblocktemplate response that Work
// needs to build a job, per spec.md §6's field table.
type Template struct {
	Height                   int64
	Version                  int32
	PreviousBlockHash        string
	CurTime                  uint32
	Bits                     string
	CoinbaseValue            int64
	Transactions             []TemplateTx
	VBAvailable              map[string]uint32
	VBRequired               uint32
	Rules                    []string
	DefaultWitnessCommitment string

	// CoinbaseDevReward and MinerFund are the mutually-exclusive external
	// grafts' per-template literal fields, per spec.md §6: FCH populates
	// the former, BCHA the latter; neither is present on plain BTC-family
	// templates.
	CoinbaseDevReward *CoinbaseDevReward
	MinerFund         *MinerFund
}

// TemplateTx is one transaction entry inside a getblocktemplate response.
type TemplateTx struct {
	Data string
	Fee  int64
}

// Work is the mutable per-job object a Stratum job is built around: it owns
// the chain profile, mining config, selected transactions, coinbase, merkle
// path, and header, and walks through the states in workState as the pool
// loads a template, mutates extranonce/time/version, and finally submits.
// It is never shared across goroutines concurrently; spec.md §5 requires a
// single owner at a time (no internal locking is provided).
type Work struct {
	state   workState
	profile ChainProfile
	cfg     MiningConfig

	Height        int64
	BlockReward   int64
	DevFee        int64
	SegwitEnabled bool

	Header BlockHeader

	CoinbaseLegacy  CoinbaseTx
	CoinbaseWitness CoinbaseTx
	MerklePath      []Hash256
	SelectedTxs     []SelectedTx

	WitnessCommitment Script

	extraData []byte
}

// NewWork constructs an unloaded Work bound to the given chain profile and
// mining configuration.
func NewWork(profile ChainProfile, cfg MiningConfig) *Work {
	return &Work{state: WorkNew, profile: profile, cfg: cfg}
}

// State reports the current lifecycle state, primarily for tests and
// logging.
func (w *Work) State() workState { return w.state }

// LoadFromTemplate implements spec.md §4.G's Load operation, grounded on
// btcLike.h's WorkTy::loadFromTemplate: validates required fields, selects
// transactions through Select (dependency ordering, capped at
// cfg.TxNumLimit when that is positive), applies the dev-reward and miner-fund grafts
// from the template's own coinbasedevreward/minerfund fields, computes the
// witness commitment when SegWit is active, builds the coinbase
// transaction, and computes the merkle path. It may be called only from
// WorkNew.
func (w *Work) LoadFromTemplate(tpl *Template) error {
	if w.state != WorkNew {
		return fmt.Errorf("%w: LoadFromTemplate requires WorkNew, have state %d", ErrInvalidState, w.state)
	}
	if tpl.PreviousBlockHash == "" || tpl.Bits == "" || tpl.CurTime == 0 {
		return fmt.Errorf("%w: missing previousblockhash/bits/curtime", ErrMalformedTemplate)
	}

	prevHash, err := HashFromDisplayHex(tpl.PreviousBlockHash)
	if err != nil {
		return fmt.Errorf("%w: previousblockhash: %v", ErrMalformedTemplate, err)
	}
	bitsVal, err := parseBitsHex(tpl.Bits)
	if err != nil {
		return fmt.Errorf("%w: bits: %v", ErrMalformedTemplate, err)
	}

	w.Height = tpl.Height
	w.BlockReward = tpl.CoinbaseValue

	candidates := make([]TxCandidate, 0, len(tpl.Transactions))
	for _, t := range tpl.Transactions {
		raw, err := HexToBytes(t.Data)
		if err != nil {
			return fmt.Errorf("%w: transaction hex: %v", ErrMalformedTransaction, err)
		}
		tx, _, consumed, err := DeserializeTransaction(raw)
		if err != nil {
			return err
		}
		if consumed != len(raw) {
			return fmt.Errorf("%w: trailing bytes after transaction decode", ErrMalformedTransaction)
		}
		candidates = append(candidates, TxCandidate{
			Data:        raw,
			Txid:        tx.Txid(),
			WitnessHash: tx.Wtxid(),
			Fee:         t.Fee,
		})
	}

	w.SegwitEnabled = IsSegwitEnabled(candidates)

	selected, _ := Select(candidates, w.cfg.TxNumLimit, &w.BlockReward, w.profile.NeedsHashSort())
	w.SelectedTxs = selected

	var devScript Script
	if w.profile.SupportsDevReward() && tpl.CoinbaseDevReward != nil {
		w.DevFee, devScript = ProcessCoinbaseDevReward(tpl.CoinbaseDevReward)
	}
	if w.profile.SupportsMinerFund() && tpl.MinerFund != nil {
		w.DevFee, devScript = ProcessMinerFund(&w.BlockReward, tpl.MinerFund)
	}

	if w.SegwitEnabled {
		if tpl.DefaultWitnessCommitment != "" {
			commitment, err := HexToBytes(tpl.DefaultWitnessCommitment)
			if err != nil {
				return fmt.Errorf("%w: default_witness_commitment: %v", ErrMalformedTemplate, err)
			}
			w.WitnessCommitment = commitment
		} else {
			commitment, err := ComputeWitnessCommitment(selected)
			if err != nil {
				return err
			}
			w.WitnessCommitment = commitment
		}
	}

	legacy, witness := BuildCoinbaseTx(
		w.Height, w.BlockReward,
		w.DevFee, devScript,
		w.SegwitEnabled, w.WitnessCommitment,
		w.extraData,
		w.cfg,
	)
	w.CoinbaseLegacy = legacy
	w.CoinbaseWitness = witness

	leaves := make([]Hash256, 0, len(selected)+1)
	leaves = append(leaves, DoubleSHA256(legacy.Data))
	for _, tx := range selected {
		leaves = append(leaves, tx.Txid)
	}
	w.MerklePath = BuildMerklePath(leaves)

	w.Header = BlockHeader{
		Version:       tpl.Version,
		PrevBlockHash: prevHash,
		Time:          tpl.CurTime,
		Bits:          bitsVal,
	}

	w.state = WorkLoaded
	return nil
}

// Mutate writes extranonce bytes into both coinbase serializations at their
// respective ExtraNonceOffset (the scriptSig content is identical in both;
// only the surrounding transaction bytes differ) and recomputes the merkle
// root from the legacy coinbase hash, implementing spec.md §4.G's Mutate
// operation: cheap enough to call once per share. It may be called from
// WorkLoaded or WorkMutated.
func (w *Work) Mutate(extranonce []byte, nTime uint32, nonce uint32, version int32) error {
	if w.state != WorkLoaded && w.state != WorkMutated {
		return fmt.Errorf("%w: Mutate requires WorkLoaded or WorkMutated, have state %d", ErrInvalidState, w.state)
	}

	copy(w.CoinbaseLegacy.Data[w.CoinbaseLegacy.ExtraNonceOffset:], extranonce)
	copy(w.CoinbaseWitness.Data[w.CoinbaseWitness.ExtraNonceOffset:], extranonce)

	coinbaseHash := DoubleSHA256(w.CoinbaseLegacy.Data)
	w.Header.MerkleRoot = ComputeMerkleRoot(coinbaseHash, w.MerklePath)
	w.Header.Time = nTime
	w.Header.Nonce = nonce
	w.Header.Version = version
	w.state = WorkMutated
	return nil
}

// PrepareForSubmit transitions Work into WorkSubmitting, the point past
// which no further Mutate calls are permitted until the submit result is
// known.
func (w *Work) PrepareForSubmit() error {
	if w.state != WorkMutated && w.state != WorkLoaded {
		return fmt.Errorf("%w: PrepareForSubmit requires a loaded/mutated Work, have state %d", ErrInvalidState, w.state)
	}
	w.state = WorkSubmitting
	return nil
}

// maxTargetBits is the network's minimum-difficulty compact target
// (Bitcoin's genesis bits, 0x1d00ffff), used as target_max in the share
// difficulty formula per spec.md §4.A.
const maxTargetBits uint32 = 0x1d00ffff

// CheckConsensus verifies the header's consensus hash is at or below the
// target implied by its bits field, per spec.md §4.A, and returns the
// share difficulty of that hash regardless of whether it clears the block
// target: shareDiff = target_max / hash_as_u256 × DifficultyFactor, where
// target_max is the chain's minimum-difficulty target. It does not change
// state; callers call MarkAccepted/MarkRejected afterward.
func (w *Work) CheckConsensus() (ok bool, shareDiff float64, err error) {
	hash, err := w.profile.HashHeaderForConsensus(w.Header.Serialize())
	if err != nil {
		return false, 0, err
	}
	target := TargetFromBits(w.Header.Bits)
	hashInt := new(big.Int).SetBytes(ReverseBytes(hash[:]))

	maxTarget := TargetFromBits(maxTargetBits)
	shareDiff = 0
	if hashInt.Sign() > 0 {
		ratio := new(big.Rat).SetFrac(maxTarget, hashInt)
		f, _ := ratio.Float64()
		shareDiff = f * w.profile.DifficultyFactor()
	}

	return hashInt.Cmp(target) <= 0, shareDiff, nil
}

// MarkAccepted transitions a submitting Work into WorkAccepted.
func (w *Work) MarkAccepted() error {
	if w.state != WorkSubmitting {
		return fmt.Errorf("%w: MarkAccepted requires WorkSubmitting, have state %d", ErrInvalidState, w.state)
	}
	w.state = WorkAccepted
	return nil
}

// MarkRejected transitions a submitting Work into WorkRejected.
func (w *Work) MarkRejected() error {
	if w.state != WorkSubmitting {
		return fmt.Errorf("%w: MarkRejected requires WorkSubmitting, have state %d", ErrInvalidState, w.state)
	}
	w.state = WorkRejected
	return nil
}

// BuildBlock serializes the full submitted block: header, transaction
// count, the witness coinbase, then every selected transaction's raw
// bytes, matching btcLike.h's buildBlockImpl.
func (w *Work) BuildBlock() []byte {
	buf := make([]byte, 0, 1024)
	buf = append(buf, w.Header.Serialize()...)
	buf = WriteCompactSize(buf, uint64(len(w.SelectedTxs)+1))
	buf = append(buf, w.CoinbaseWitness.Data...)
	for _, tx := range w.SelectedTxs {
		buf = append(buf, tx.Data...)
	}
	return buf
}

// GetDifficulty returns the work's target difficulty, scaled by the chain
// profile's DifficultyFactor (spec.md §3's getDifficulty formula).
func (w *Work) GetDifficulty() float64 {
	return GetDifficulty(w.Header.Bits) * w.profile.DifficultyFactor()
}
