// Package bgtask implements a bounded-parallelism background task
// executor: short background units of work (preheat index builds,
// thumbnail generation) run with a concurrency ceiling independent of
// the main scheduler's worker pool, so a burst of cheap background
// work can't starve or be starved by page-load jobs.
//
// Implemented with golang.org/x/sync/semaphore for the concurrency
// ceiling and golang.org/x/sync/errgroup to collect the first error out
// of a batch.
package bgtask

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Executor runs a bounded number of tasks concurrently.
type Executor struct {
	sem *semaphore.Weighted
}

// New creates an Executor allowing up to maxConcurrent tasks to run at
// once.
func New(maxConcurrent int64) *Executor {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Executor{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Submit runs fn once a slot is free, blocking until one is (or ctx is
// cancelled).
func (e *Executor) Submit(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)
	return fn(ctx)
}

// Go runs fn in its own goroutine once a slot is free, without
// blocking the caller. Errors are dropped; use RunAll if you need to
// observe them.
func (e *Executor) Go(ctx context.Context, fn func(ctx context.Context) error) {
	go func() {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer e.sem.Release(1)
		_ = fn(ctx)
	}()
}

// RunAll runs every fn with this executor's concurrency ceiling,
// returning the first error encountered (if any), after all tasks have
// finished.
func (e *Executor) RunAll(ctx context.Context, fns []func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error {
			return e.Submit(gctx, fn)
		})
	}
	return g.Wait()
}
