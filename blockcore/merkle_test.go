package blockcore

import "testing"

func TestBuildMerkleBranchesEmpty(t *testing.T) {
	path := BuildMerklePath(nil)
	if path != nil {
		t.Fatalf("expected nil path for empty leaf set, got %v", path)
	}
}

func TestBuildMerkleBranchesSingleTx(t *testing.T) {
	leaf := Hash256{0x01}
	path := BuildMerklePath([]Hash256{leaf})
	if len(path) != 0 {
		t.Fatalf("single-leaf tree should have an empty branch, got %d entries", len(path))
	}
	root := BuildMerkleRoot([]Hash256{leaf})
	if root != leaf {
		t.Fatalf("single-leaf root should equal the leaf itself")
	}
}

func TestBuildMerkleBranchesOddLeafCount(t *testing.T) {
	leaves := []Hash256{{0x01}, {0x02}, {0x03}}
	root := BuildMerkleRoot(leaves)
	path := BuildMerklePath(leaves)
	recomputed := ComputeMerkleRoot(leaves[0], path)
	if recomputed != root {
		t.Fatalf("recomputed root %x != direct root %x", recomputed, root)
	}
}

func TestComputeMerkleRootMatchesDirectForEvenCount(t *testing.T) {
	leaves := []Hash256{{0x01}, {0x02}, {0x03}, {0x04}}
	root := BuildMerkleRoot(leaves)
	path := BuildMerklePath(leaves)
	recomputed := ComputeMerkleRoot(leaves[0], path)
	if recomputed != root {
		t.Fatalf("recomputed root %x != direct root %x", recomputed, root)
	}
}

func TestMerklePathChangesWithCoinbaseOnly(t *testing.T) {
	other := []Hash256{{0x02}, {0x03}}
	leaves1 := append([]Hash256{{0x01}}, other...)
	leaves2 := append([]Hash256{{0xff}}, other...)

	path := BuildMerklePath(leaves1)
	root1 := ComputeMerkleRoot(leaves1[0], path)
	root2 := ComputeMerkleRoot(leaves2[0], path)
	if root1 == root2 {
		t.Fatalf("changing only the coinbase leaf should change the root")
	}
}
