package blockcore

import "fmt"

// witnessCommitmentHeader is the fixed OP_RETURN prefix that marks a
// coinbase output as carrying a SegWit witness commitment: OP_RETURN,
// a 36-byte push, then the 4-byte commitment-header magic, per BIP141.
var witnessCommitmentHeader = [6]byte{OpReturn, 0x24, 0xaa, 0x21, 0xa9, 0xed}

// IsSegwitEnabled reports whether any candidate transaction carries a
// non-empty witness stack, mirroring btcLike.h's isSegwitEnabled check
// performed over the raw template transaction list before selection.
func IsSegwitEnabled(candidates []TxCandidate) bool {
	for _, c := range candidates {
		if c.WitnessHash != c.Txid {
			return true
		}
	}
	return false
}

// ComputeWitnessCommitment builds the BIP141 coinbase witness commitment
// script for a selected transaction set: SHA-256d of the witness merkle
// root (computed over the coinbase wtxid, which is always the zero hash,
// followed by the selected transactions' wtxids) concatenated with a
// 32-byte zero reserved value, wrapped in the OP_RETURN push described in
// spec.md §4.F.
func ComputeWitnessCommitment(selected []SelectedTx) (Script, error) {
	leaves := make([]Hash256, 0, len(selected)+1)
	leaves = append(leaves, Hash256{}) // coinbase wtxid is defined as zero
	for _, tx := range selected {
		leaves = append(leaves, tx.WitnessHash)
	}

	witnessRoot := BuildMerkleRoot(leaves)

	buf := make([]byte, 64)
	copy(buf[:32], witnessRoot[:])
	commitment := DoubleSHA256(buf)

	if commitment.IsZero() {
		return nil, fmt.Errorf("%w: witness commitment hashed to zero", ErrWitnessComputationFailed)
	}

	script := make(Script, 0, len(witnessCommitmentHeader)+32)
	script = append(script, witnessCommitmentHeader[:]...)
	script = append(script, commitment[:]...)
	return script, nil
}
