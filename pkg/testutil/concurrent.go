package testutil

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ConcurrentResult tallies outcomes of a concurrent burst.
type ConcurrentResult struct {
	Successes int32
	Matched   int32
	Errors    int32
}

// Total returns the number of calls made.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Matched + r.Errors
}

// RunConcurrent starts n goroutines behind a shared gate so they race, then
// tallies nil results as Successes, errors matching target as Matched, and
// everything else as Errors.
func RunConcurrent(n int, target error, fn func(idx int) error) *ConcurrentResult {
	var (
		wg                        sync.WaitGroup
		successes, matched, other atomic.Int32
	)
	gate := make(chan struct{})

	for i := range n {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-gate
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case target != nil && errors.Is(err, target):
				matched.Add(1)
			default:
				other.Add(1)
			}
		}(i)
	}
	close(gate)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Matched:   matched.Load(),
		Errors:    other.Load(),
	}
}
