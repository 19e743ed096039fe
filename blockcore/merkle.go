package blockcore

// BuildMerklePath computes the merkle branch needed to recompute a tree's
// root given only the leaf at index 0 (the coinbase transaction). At each
// level the sibling of the current node is recorded, and an odd trailing
// node is duplicated rather than promoted, matching Bitcoin's merkle tree
// construction.
func BuildMerklePath(leaves []Hash256) []Hash256 {
	if len(leaves) == 0 {
		return nil
	}
	level := make([]Hash256, len(leaves))
	copy(level, leaves)

	var path []Hash256
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		path = append(path, level[1])

		next := make([]Hash256, len(level)/2)
		for i := 0; i < len(next); i++ {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return path
}

// ComputeMerkleRoot recombines a coinbase hash with a previously computed
// merkle path to produce the tree root, the inverse operation BuildMerklePath
// is designed to support: recompute the root cheaply whenever only the
// coinbase (extranonce) changes.
func ComputeMerkleRoot(coinbaseHash Hash256, path []Hash256) Hash256 {
	root := coinbaseHash
	for _, sibling := range path {
		root = hashPair(root, sibling)
	}
	return root
}

// BuildMerkleRoot computes the full merkle root directly from a leaf set,
// used by tests and by callers that want the root without retaining a
// reusable path.
func BuildMerkleRoot(leaves []Hash256) Hash256 {
	if len(leaves) == 0 {
		return Hash256{}
	}
	level := make([]Hash256, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]Hash256, len(level)/2)
		for i := 0; i < len(next); i++ {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0]
}

func hashPair(a, b Hash256) Hash256 {
	buf := make([]byte, 64)
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return DoubleSHA256(buf)
}
