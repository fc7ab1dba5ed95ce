package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Stats reports scheduler occupancy for metrics.
type Stats struct {
	QueueSize   int
	ActiveCount int
	Sequence    uint64
}

// activeJob tracks a queued-or-running job's context, so a later
// enqueue of the same key can cancel it and a worker can detect a
// cancellation that happened while the job was still queued.
type activeJob struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Scheduler holds the priority queue and the cancellation tokens for
// jobs currently queued or running. It has no goroutines of its own;
// Workers (worker.go) pull from it.
type Scheduler struct {
	mu sync.Mutex

	queue        jobHeap
	active       map[string]*activeJob
	sequence     uint64
	wake         chan struct{}
	parentCtx    context.Context
	parentCancel context.CancelFunc
}

// New creates an empty Scheduler. Calling Close cancels every active
// job and stops accepting new work.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		active:       make(map[string]*activeJob),
		wake:         make(chan struct{}, 1),
		parentCtx:    ctx,
		parentCancel: cancel,
	}
	heap.Init(&s.queue)
	return s
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Enqueue inserts job into the queue, cancelling and replacing any
// still-active job sharing the same key. It returns a context bound to
// the job's lifetime; the executor must watch it for cancellation.
func (s *Scheduler) Enqueue(job Job) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.active[job.Key]; ok {
		old.cancel()
		log.WithField("key", job.Key).Debug("scheduler: replacing in-flight job with same key")
	}

	ctx, cancel := context.WithCancel(s.parentCtx)
	s.active[job.Key] = &activeJob{ctx: ctx, cancel: cancel}

	s.sequence++
	job.CreatedAt = time.Now()
	heap.Push(&s.queue, &prioritizedJob{job: job, sequence: s.sequence})

	s.signal()
	return ctx
}

// EnqueueBatch enqueues jobs in order, for preload bursts.
func (s *Scheduler) EnqueueBatch(jobs []Job) []context.Context {
	ctxs := make([]context.Context, len(jobs))
	for i, j := range jobs {
		ctxs[i] = s.Enqueue(j)
	}
	return ctxs
}

// CancelByPrefix cancels every active job whose key starts with prefix,
// used to cancel a book's outstanding prefetch or stream jobs at once.
func (s *Scheduler) CancelByPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, aj := range s.active {
		if hasPrefix(key, prefix) {
			aj.cancel()
			delete(s.active, key)
			n++
		}
	}
	if n > 0 {
		log.WithFields(log.Fields{"prefix": prefix, "count": n}).Debug("scheduler: cancelled jobs by prefix")
	}
}

func hasPrefix(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return s[:len(prefix)] == prefix
}

// CancelAll cancels every active job and drops the queue.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, aj := range s.active {
		aj.cancel()
	}
	s.active = make(map[string]*activeJob)
	s.queue = s.queue[:0]
	heap.Init(&s.queue)
}

// tryDequeue pops the highest-priority job at or above minPriority,
// skipping any job whose context was already cancelled. Returns
// ok=false if nothing eligible is queued.
func (s *Scheduler) tryDequeue(minPriority Priority) (Job, context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.queue.Len() > 0 {
		top := s.queue[0]
		if top.job.Priority < minPriority {
			return Job{}, nil, false
		}
		pj := heap.Pop(&s.queue).(*prioritizedJob)

		aj, ok := s.active[pj.job.Key]
		if !ok {
			continue // completed or cancelled-and-removed since enqueue
		}
		if aj.ctx.Err() != nil {
			delete(s.active, pj.job.Key)
			continue // cancelled while still queued
		}
		return pj.job, aj.ctx, true
	}
	return Job{}, nil, false
}

// Complete marks key's job as finished, removing its cancellation
// token.
func (s *Scheduler) Complete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, key)
}

// Stats reports current occupancy.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		QueueSize:   s.queue.Len(),
		ActiveCount: len(s.active),
		Sequence:    s.sequence,
	}
}

// HasJob reports whether key currently has an active (queued or
// running) job.
func (s *Scheduler) HasJob(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[key]
	return ok
}

// Close cancels all active jobs and stops the scheduler from accepting
// further dequeues.
func (s *Scheduler) Close() {
	s.parentCancel()
	s.CancelAll()
}
