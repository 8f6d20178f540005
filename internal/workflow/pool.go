package workflow

import (
	"context"
	"sync"

	"mediasort/internal/services"
)

// Task processes the file at index i.
type Task[T any] func(ctx context.Context, i int) T

// Pool bounds the number of concurrently running tasks.
type Pool struct {
	workers int
}

// NewPool returns a pool with the given width; values below one mean one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers reports the pool width.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes task for every index in [0, n) and returns the results in
// index order. Indexes never dispatched because ctx was cancelled get the
// value returned by skipped. onDone, when set, is called once per finished
// task from the worker goroutine.
func Run[T any](ctx context.Context, p *Pool, n int, task Task[T], skipped func(i int, err error) T, onDone func(i int, v T)) []T {
	results := make([]T, n)
	if n == 0 {
		return results
	}

	workers := p.workers
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				v := task(services.WithFileIndex(ctx, i+1), i)
				results[i] = v
				if onDone != nil {
					onDone(i, v)
				}
			}
		}()
	}

	next := 0
dispatch:
	for ; next < n; next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	if next < n && skipped != nil {
		err := ctx.Err()
		for i := next; i < n; i++ {
			results[i] = skipped(i, err)
		}
	}
	return results
}
