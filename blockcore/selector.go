package blockcore

import (
	"math"
	"sort"
)

// TxCandidate is a single getblocktemplate transaction entry prior to
// selection: its raw bytes, decoded txid/wtxid, and declared fee.
type TxCandidate struct {
	Data        []byte
	Txid        Hash256
	WitnessHash Hash256
	Fee         int64
}

// SelectedTx is a candidate that survived selection, augmented with the
// dependency-resolution bookkeeping the coinbase/template assembly stages
// need.
type SelectedTx struct {
	TxCandidate
	DependsOn int // index into the candidate slice passed to Select, or -1 if none
	Visited   bool
}

// maxSelectorDepth bounds the dependency-chase recursion per spec.md §9,
// preventing a pathological template from driving addTransaction into
// unbounded recursion.
const maxSelectorDepth = 10000

// Select runs the transaction filter described in spec.md §4.D, grounded on
// original_source/.../btcLike.h's transactionFilter<Proto>: it builds a
// txid index, subtracts every candidate's fee from blockReward unconditionally
// (btcLike.h:92's `*blockReward -= txTree[i].Fee;`, run over the full
// candidate set before any cap-driven dropping, with no add-back for a
// transaction the cap later refuses), resolves each candidate's first
// unconfirmed-parent dependency, then walks candidates in template order
// calling addTransaction, which recursively emits any unselected ancestor
// before the transaction itself, stopping once txLimit outputs have been
// emitted.
func Select(candidates []TxCandidate, txLimit int, blockReward *int64, sortByHash bool) ([]SelectedTx, bool) {
	working := make([]SelectedTx, len(candidates))
	for i, c := range candidates {
		working[i] = SelectedTx{TxCandidate: c, DependsOn: -1}
		*blockReward -= c.Fee
	}

	txidIndex := make(map[Hash256]int, len(working))
	for i, tx := range working {
		txidIndex[tx.Txid] = i
	}

	for i := range working {
		parents, _, _, err := DeserializeTransaction(working[i].Data)
		if err != nil {
			continue
		}
		for _, in := range parents.TxIn {
			if idx, ok := txidIndex[in.PreviousOutputHash]; ok {
				working[i].DependsOn = idx
				break
			}
		}
	}

	result := make([]SelectedTx, 0, len(working))
	for i := range working {
		if txLimit > 0 && len(result) >= txLimit {
			break
		}
		ok := addTransaction(working, i, txLimit, &result, blockReward, 0)
		if !ok {
			break
		}
	}

	if sortByHash {
		sort.Slice(result, func(i, j int) bool {
			return result[i].Txid.String() < result[j].Txid.String()
		})
	}

	complete := len(result) == len(working)
	return result, complete
}

// addTransaction emits txIdx's unconfirmed parent (if any and not already
// emitted) before txIdx itself, then emits txIdx. blockReward has already
// been charged every candidate's fee up front in Select, so a transaction
// the cap drops here still leaves blockReward reduced by its fee — it is
// never added back. It returns false once txLimit has been reached,
// signaling the caller to stop walking further candidates, matching
// btcLike.h's addTransaction/transactionFilter contract.
func addTransaction(working []SelectedTx, txIdx, txLimit int, result *[]SelectedTx, blockReward *int64, depth int) bool {
	if depth > maxSelectorDepth {
		return false
	}
	if working[txIdx].Visited {
		return true
	}
	if txLimit > 0 && len(*result) >= txLimit {
		return false
	}

	if dep := working[txIdx].DependsOn; dep >= 0 && !working[dep].Visited {
		if !addTransaction(working, dep, txLimit, result, blockReward, depth+1) {
			return false
		}
	}

	if working[txIdx].Visited {
		return true
	}
	if txLimit > 0 && len(*result) >= txLimit {
		return false
	}

	working[txIdx].Visited = true
	*result = append(*result, working[txIdx])
	return true
}

// EstimateCount returns how many of the given candidates could be selected
// under txLimit without actually running selection, used by callers that
// need to size buffers ahead of a real Select call.
func EstimateCount(total, txLimit int) int {
	if txLimit <= 0 {
		return total
	}
	return int(math.Min(float64(total), float64(txLimit)))
}
