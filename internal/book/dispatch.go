package book

import (
	"sync"

	"github.com/neoview/album-core/internal/scheduler"
)

// resultRegistry bridges the worker pool's single merged completion
// channel back to individual synchronous callers waiting on a specific
// job key. Grounded on manager.go's main select loop, which reads a
// single in-flight load's result off one channel (loadCh) and routes
// it into page state; generalized here into a keyed registry since
// this core serves many concurrent page loads rather than one current
// image at a time.
type resultRegistry struct {
	mu      sync.Mutex
	waiters map[string]chan scheduler.CompletedEvent
}

func newResultRegistry() *resultRegistry {
	return &resultRegistry{waiters: make(map[string]chan scheduler.CompletedEvent)}
}

// register returns a channel that will receive the CompletedEvent for
// key, once. Callers must call forget if they give up waiting before
// an event arrives (e.g. on context cancellation).
func (r *resultRegistry) register(key string) <-chan scheduler.CompletedEvent {
	ch := make(chan scheduler.CompletedEvent, 1)
	r.mu.Lock()
	r.waiters[key] = ch
	r.mu.Unlock()
	return ch
}

func (r *resultRegistry) forget(key string) {
	r.mu.Lock()
	delete(r.waiters, key)
	r.mu.Unlock()
}

// route delivers ev to its registered waiter, if any, and reports
// whether one was found. Events with no registered waiter (prefetch,
// preheat, thumbnail jobs that nobody is synchronously blocked on) are
// simply not delivered anywhere; their side effects already happened
// inside the executor itself.
func (r *resultRegistry) route(ev scheduler.CompletedEvent) bool {
	r.mu.Lock()
	ch, ok := r.waiters[ev.Key]
	if ok {
		delete(r.waiters, ev.Key)
	}
	r.mu.Unlock()

	if ok {
		ch <- ev
	}
	return ok
}
