package ultracache

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// DefaultOffloadWorkers bounds how many blocking functions run at once.
const DefaultOffloadWorkers = 10

// offloadPool runs blocking functions on their own goroutines, at most
// size at a time.
type offloadPool struct {
	sem *semaphore.Weighted
}

func newOffloadPool(size int) *offloadPool {
	if size <= 0 {
		size = DefaultOffloadWorkers
	}
	return &offloadPool{sem: semaphore.NewWeighted(int64(size))}
}

type offloadResult[R any] struct {
	value R
	err   error
}

// offload waits for a free worker honoring ctx, then runs fn on it. Once fn
// has started it runs to completion even if the caller stops waiting.
func offload[R any](ctx context.Context, pool *offloadPool, fn func() (R, error)) (R, error) {
	var zero R
	if err := pool.sem.Acquire(ctx, 1); err != nil {
		OffloadRejected.Inc()
		return zero, fmt.Errorf("ultracache: waiting for worker: %w", err)
	}

	done := make(chan offloadResult[R], 1)
	OffloadActive.Inc()
	go func() {
		defer pool.sem.Release(1)
		defer OffloadActive.Dec()
		defer func() {
			if r := recover(); r != nil {
				done <- offloadResult[R]{err: fmt.Errorf("ultracache: offloaded call panicked: %v", r)}
			}
		}()
		v, err := fn()
		done <- offloadResult[R]{value: v, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
