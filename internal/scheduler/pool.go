package scheduler

import (
	"context"
	"sync"
)

// Pool runs a fixed set of primary and secondary workers against a
// shared Scheduler. Completion events from every worker are merged
// onto a single channel.
type Pool struct {
	Scheduler *Scheduler
	Events    chan CompletedEvent

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a Scheduler and starts primaryCount primary workers
// plus secondaryCount secondary workers against it.
func NewPool(primaryCount, secondaryCount int) *Pool {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		Scheduler: s,
		Events:    make(chan CompletedEvent, 64),
		cancel:    cancel,
	}

	for i := 0; i < primaryCount; i++ {
		w := NewWorker(PrimaryWorkerConfig(i), s, p.Events)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(ctx)
		}()
	}
	for i := 0; i < secondaryCount; i++ {
		w := NewWorker(SecondaryWorkerConfig(i), s, p.Events)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(ctx)
		}()
	}

	return p
}

// Shutdown stops all workers and the scheduler, waiting for in-flight
// executors to observe cancellation and return.
func (p *Pool) Shutdown() {
	p.Scheduler.Close()
	p.cancel()
	p.wg.Wait()
	close(p.Events)
}
