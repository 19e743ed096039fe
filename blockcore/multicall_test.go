package blockcore

import (
	"sync"
	"testing"
)

func TestMultiCallInvokesCallbackOnceAllDone(t *testing.T) {
	var calls int
	var got []int
	var mu sync.Mutex

	mc := NewMultiCall[int](3, func(results []int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		got = append(got, results...)
	})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			mc.Callback(i)(i * 10)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected exactly 1 aggregate callback invocation, got %d", calls)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
}

func TestMultiCallPreservesCallIndexOrder(t *testing.T) {
	done := make(chan []string, 1)
	mc := NewMultiCall[string](3, func(results []string) {
		done <- results
	})

	mc.Callback(2)("c")
	mc.Callback(0)("a")
	mc.Callback(1)("b")

	results := <-done
	if results[0] != "a" || results[1] != "b" || results[2] != "c" {
		t.Fatalf("results not in call-index order: %v", results)
	}
}

func TestMultiCallLen(t *testing.T) {
	mc := NewMultiCall[int](5, func([]int) {})
	if mc.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", mc.Len())
	}
}
