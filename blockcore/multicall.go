package blockcore

import "sync/atomic"

// MultiCall is a generic fan-in join primitive, ported from
// original_source/src/include/poolcommon/multiCall.h's MultiCall<T> template.
// It fans a fixed number of concurrent results into a single slice and
// invokes one aggregate callback exactly once, when the last result lands.
//
// Unlike a sync.WaitGroup, MultiCall also collects the per-call results;
// unlike an errgroup, it has no early-cancellation semantics — every call
// is expected to complete, matching spec.md §5's MultiCall contract.
type MultiCall[T any] struct {
	data     []T
	finished atomic.Uint32
	total    uint32
	callback func([]T)
}

// NewMultiCall allocates a MultiCall for exactly n expected results. cb is
// invoked once, from whichever goroutine delivers the final result, with
// the completed slice in call-index order.
func NewMultiCall[T any](n int, cb func([]T)) *MultiCall[T] {
	return &MultiCall[T]{
		data:     make([]T, n),
		total:    uint32(n),
		callback: cb,
	}
}

// Callback returns a completion function bound to call index i. Exactly one
// call must be made per index; calling it more than once for the same index
// double-counts toward completion, mirroring the C++ original's lack of a
// duplicate-call guard.
func (m *MultiCall[T]) Callback(i int) func(T) {
	return func(result T) {
		m.data[i] = result
		if m.finished.Add(1) == m.total {
			m.callback(m.data)
		}
	}
}

// Len reports how many results this MultiCall was sized for.
func (m *MultiCall[T]) Len() int { return len(m.data) }
