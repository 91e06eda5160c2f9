// Package batch runs independent units of work under a concurrency ceiling.
// Every unit finishes (or fails) before the batch returns; one unit's failure
// never aborts its siblings.
package batch

import (
	"context"
	"sync"
)

// DefaultConcurrency is deliberately small to respect third-party rate
// limits.
const DefaultConcurrency = 3

// Result pairs one unit's output with its error. Results[i] always
// corresponds to input i, regardless of completion order.
type Result[T any] struct {
	Value T
	Err   error
}

// Run executes work(ctx, i) for i in [0, n) with at most limit units in
// flight. The ceiling gates items, not the calls an item makes internally: a
// unit holding a permit may fan out further on its own.
//
// Cancellation is honored at unit start: units not yet started when ctx is
// done fail with ctx.Err(); units already running are left to observe ctx
// through their own blocking calls.
func Run[T any](ctx context.Context, limit int, n int, work func(ctx context.Context, index int) (T, error)) []Result[T] {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]Result[T], n)
	gate := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		select {
		case gate <- struct{}{}:
		case <-ctx.Done():
			results[i] = Result[T]{Err: ctx.Err()}
			continue
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-gate }()

			v, err := work(ctx, i)
			results[i] = Result[T]{Value: v, Err: err}
		}(i)
	}

	wg.Wait()
	return results
}
