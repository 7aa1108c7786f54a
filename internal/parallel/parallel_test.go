package parallel_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/maxtruxa/bpt/internal/parallel"
)

func TestRunAllItemsProcessedExactlyOnce(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	var mu sync.Mutex
	seen := make(map[int]int)

	err := parallel.Run(items, 4, func(x int) error {
		mu.Lock()
		seen[x]++
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(seen) != 100 {
		t.Fatalf("processed %d distinct items, want 100", len(seen))
	}
	for x, n := range seen {
		if n != 1 {
			t.Errorf("item %d processed %d times, want 1", x, n)
		}
	}
}

func TestRunStopsOnFirstError(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	boom := errors.New("boom")
	var processed int64

	err := parallel.Run(items, 4, func(x int) error {
		atomic.AddInt64(&processed, 1)
		if x == 7 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
	if processed > 99 {
		t.Fatalf("processed %d items after failure injection, want <= 99", processed)
	}
}

func TestCollectGathersSuccessfulResults(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results, err := parallel.Collect(items, 2, func(x int) (int, error) {
		return x * x, nil
	})
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	sum := 0
	for _, r := range results {
		sum += r
	}
	if sum != 1+4+9+16+25 {
		t.Errorf("sum of squares = %d, want 55", sum)
	}
}

func TestRunDefaultsJobsFromHardwareConcurrency(t *testing.T) {
	items := []int{1, 2, 3}
	err := parallel.Run(items, 0, func(int) error { return nil })
	if err != nil {
		t.Fatalf("Run with jobs=0 returned error: %v", err)
	}
}
