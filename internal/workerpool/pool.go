// Package workerpool runs a batch of tasks concurrently with a bounded
// number of workers and returns results in submission order.
package workerpool

import (
	"context"
	"runtime"
	"sync"
)

// Task is one unit of work producing a text result.
type Task func(ctx context.Context) (string, error)

// Result is the outcome of one task.
type Result struct {
	Value string
	Err   error
}

// Pool limits concurrent task execution with a semaphore.
type Pool struct {
	semaphore chan struct{}
}

// New creates a pool with the given worker limit; non-positive means one
// worker per CPU.
func New(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &Pool{semaphore: make(chan struct{}, maxWorkers)}
}

// Run executes all tasks concurrently and returns their results indexed by
// submission order, so callers can serialize outcomes deterministically no
// matter which task finished first.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]Result, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(index int, t Task) {
			defer wg.Done()

			select {
			case p.semaphore <- struct{}{}:
				defer func() { <-p.semaphore }()
			case <-ctx.Done():
				results[index] = Result{Err: ctx.Err()}
				return
			}

			value, err := t(ctx)
			results[index] = Result{Value: value, Err: err}
		}(i, task)
	}
	wg.Wait()
	return results
}
