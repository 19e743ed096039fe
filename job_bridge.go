package main

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"blockforge/blockcore"
)

// defaultVersionMask is the ASIC-boost-safe version rolling mask advertised
// to miners when cfg.VersionMask is unset, per BIP320's conventional
// 0x1fffe000 (bits 13-28) range.
const defaultVersionMask = uint32(0x1fffe000)

// chainProfileByName resolves a config "chain" string into the
// blockcore.ChainProfile that builds and validates templates for it.
func chainProfileByName(name string) (blockcore.ChainProfile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "btc":
		return blockcore.BTCProfile(), nil
	case "ltc":
		return blockcore.LTCProfile(), nil
	case "bch":
		return blockcore.BCHProfile(), nil
	case "bcha":
		return blockcore.BCHAProfile(), nil
	case "fch":
		return blockcore.FCHProfile(), nil
	default:
		return nil, fmt.Errorf("unknown chain %q (want btc, ltc, bch, bcha, or fch)", name)
	}
}

// doubleSHA256 delegates to blockcore's SHA-256d, which itself switches
// between the stdlib and minio/sha256-simd backends.
func doubleSHA256(data []byte) []byte {
	h := blockcore.DoubleSHA256(data)
	return h[:]
}

// reverseBytes delegates to blockcore's byte-order flip, used throughout
// this file's neighbors to move between internal little-endian hashes and
// Bitcoin's big-endian display convention.
func reverseBytes(b []byte) []byte {
	return blockcore.ReverseBytes(b)
}

// targetFromBits decodes a getblocktemplate "bits" hex string into the
// target it implies, delegating the exponent/mantissa expansion to
// blockcore.TargetFromBits.
func targetFromBits(bitsStr string) (*big.Int, error) {
	raw, err := blockcore.HexToBytes(bitsStr)
	if err != nil || len(raw) != 4 {
		return nil, fmt.Errorf("bits must be 4 bytes of hex, got %q", bitsStr)
	}
	bits := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	return blockcore.TargetFromBits(bits), nil
}

// uint256BEFromBigInt renders a target as a fixed 32-byte big-endian array,
// the wire form used for Stratum's "target" job field.
func uint256BEFromBigInt(v *big.Int) [32]byte {
	var out [32]byte
	v.FillBytes(out[:])
	return out
}

// stripWitnessData decodes raw via blockcore's transaction codec and
// re-serializes it in legacy (pre-SegWit) form, returning whether the
// original carried witness data. validateTransactions uses this to hash the
// legacy form when computing a SegWit transaction's txid.
func stripWitnessData(raw []byte) ([]byte, bool, error) {
	tx, hasWitness, consumed, err := blockcore.DeserializeTransaction(raw)
	if err != nil {
		return nil, false, err
	}
	if consumed != len(raw) {
		return nil, false, fmt.Errorf("transaction decode left %d trailing bytes", len(raw)-consumed)
	}
	if !hasWitness {
		return raw, false, nil
	}
	return tx.Serialize(false), true, nil
}

// buildMerkleBranches computes the merkle branch for the coinbase's leaf
// position (always index 0) given the other transactions' txids, delegating
// to blockcore.BuildMerklePath. txids are in display (reversed) byte order,
// as produced by validateTransactions; the coinbase hash itself is not yet
// known at this point, so a zero placeholder occupies leaf 0 -- its value
// never influences a recorded branch, since BuildMerklePath only ever
// records the *sibling* of the running leaf-0 position, never leaf 0 itself.
func buildMerkleBranches(txids [][]byte) []string {
	leaves := make([]blockcore.Hash256, 0, len(txids)+1)
	leaves = append(leaves, blockcore.Hash256{})
	for _, id := range txids {
		var h blockcore.Hash256
		copy(h[:], reverseBytes(id))
		leaves = append(leaves, h)
	}
	path := blockcore.BuildMerklePath(leaves)
	branches := make([]string, len(path))
	for i, h := range path {
		branches[i] = blockcore.BytesToHex(h[:])
	}
	return branches
}

// blockcoreTemplateFrom translates a getblocktemplate response into the
// blockcore.Template that Work.LoadFromTemplate consumes: plain field
// reshaping, plus resolving the FCH/BCHA grafts' literal template fields
// into blockcore.CoinbaseDevReward/MinerFund (the latter's destination
// address resolved into a scriptPubKey the same way a configured payout
// address is, via scriptPubKeyForAddress).
func blockcoreTemplateFrom(tpl GetBlockTemplateResult) (blockcore.Template, error) {
	vbAvailable := make(map[string]uint32, len(tpl.VbAvailable))
	for name, bit := range tpl.VbAvailable {
		if bit < 0 {
			continue
		}
		vbAvailable[name] = uint32(bit)
	}

	txs := make([]blockcore.TemplateTx, len(tpl.Transactions))
	for i, tx := range tpl.Transactions {
		txs[i] = blockcore.TemplateTx{Data: tx.Data, Fee: tx.Fee}
	}

	out := blockcore.Template{
		Height:                   tpl.Height,
		Version:                  tpl.Version,
		PreviousBlockHash:        tpl.Previous,
		CurTime:                  uint32(tpl.CurTime),
		Bits:                     tpl.Bits,
		CoinbaseValue:            tpl.CoinbaseValue,
		Transactions:             txs,
		VBAvailable:              vbAvailable,
		VBRequired:               uint32(tpl.VbRequired),
		Rules:                    tpl.Rules,
		DefaultWitnessCommitment: tpl.DefaultWitnessCommitment,
	}

	if tpl.CoinbaseDevReward != nil {
		scriptPubKey, err := hex.DecodeString(tpl.CoinbaseDevReward.ScriptPubKey)
		if err != nil {
			return blockcore.Template{}, fmt.Errorf("decode coinbasedevreward scriptpubkey: %w", err)
		}
		out.CoinbaseDevReward = &blockcore.CoinbaseDevReward{
			Value:        tpl.CoinbaseDevReward.Value,
			ScriptPubKey: scriptPubKey,
		}
	}
	if tpl.MinerFund != nil {
		if len(tpl.MinerFund.Addresses) == 0 {
			return blockcore.Template{}, fmt.Errorf("minerfund template field has no addresses")
		}
		scriptPubKey, err := scriptPubKeyForAddress(tpl.MinerFund.Addresses[0], ChainParams())
		if err != nil {
			return blockcore.Template{}, fmt.Errorf("minerfund address: %w", err)
		}
		out.MinerFund = &blockcore.MinerFund{
			MinimumValue: tpl.MinerFund.MinimumValue,
			ScriptPubKey: scriptPubKey,
		}
	}

	return out, nil
}

// decodeMerkleBranchesBytes decodes the hex branches buildMerkleBranches
// produced back into fixed-size hashes, the form Job.merkleBranchesBytes
// keeps for reuse on every coinbase mutation without re-hexing.
func decodeMerkleBranchesBytes(branches []string) ([][32]byte, error) {
	out := make([][32]byte, len(branches))
	for i, b := range branches {
		raw, err := blockcore.HexToBytes(b)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("merkle branch %d must be 32 bytes of hex: %v", i, err)
		}
		copy(out[i][:], raw)
	}
	return out, nil
}
