// Package parallel implements the single worker-pool primitive shared by
// every phase of the build executor (compile, archive, link), collapsing
// the three hand-rolled mutex-guarded pools the teacher-pattern duplicated
// per phase into one (see spec §9).
package parallel

import (
	"runtime"
	"sync"
)

// Run drains items from a shared index under a single mutex across jobs
// goroutines, invoking fn for each item. It returns nil if every fn call
// returned nil, or the first error any goroutine observed.
//
// On the first error, in-flight fn calls are allowed to finish but no new
// item is dispatched: every worker checks for a recorded error at the top
// of its loop before taking the next item, which is the "early-stop" flag
// from spec §5 ("Cancellation").
//
// If jobs < 1, it defaults to runtime.NumCPU()+2, matching the
// teacher-pattern's hardware_concurrency()+2 default.
func Run[T any](items []T, jobs int, fn func(T) error) error {
	if jobs < 1 {
		jobs = runtime.NumCPU() + 2
	}
	if len(items) == 0 {
		return nil
	}
	if jobs > len(items) {
		jobs = len(items)
	}

	var mu sync.Mutex
	idx := 0
	var firstErr error

	worker := func() {
		for {
			mu.Lock()
			if firstErr != nil || idx >= len(items) {
				mu.Unlock()
				return
			}
			item := items[idx]
			idx++
			mu.Unlock()

			if err := fn(item); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}
	}

	var wg sync.WaitGroup
	wg.Add(jobs)
	for i := 0; i < jobs; i++ {
		go func() {
			defer wg.Done()
			worker()
		}()
	}
	wg.Wait()

	return firstErr
}

// Collect is like Run, but fn additionally returns a result value which is
// appended (under the same lock) to the returned slice whenever err is
// nil. The order of the results follows completion order, not the order
// of items.
func Collect[T, R any](items []T, jobs int, fn func(T) (R, error)) ([]R, error) {
	var mu sync.Mutex
	var results []R

	err := Run(items, jobs, func(item T) error {
		r, err := fn(item)
		if err != nil {
			return err
		}
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
		return nil
	})
	return results, err
}
