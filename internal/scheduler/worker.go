package scheduler

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrCancelled is returned by an Executor (or wraps its error) when it
// stopped early because its context was cancelled.
var ErrCancelled = errors.New("job cancelled")

// WorkerConfig selects which jobs a Worker is willing to run. Primary
// workers only take Preload-and-above priority; Secondary workers take
// everything, including Thumbnail.
type WorkerConfig struct {
	ID          int
	IsPrimary   bool
	MinPriority Priority
}

// PrimaryWorkerConfig builds the config for a primary worker.
func PrimaryWorkerConfig(id int) WorkerConfig {
	return WorkerConfig{ID: id, IsPrimary: true, MinPriority: PriorityPreload}
}

// SecondaryWorkerConfig builds the config for a secondary worker.
func SecondaryWorkerConfig(id int) WorkerConfig {
	return WorkerConfig{ID: id, IsPrimary: false, MinPriority: PriorityThumbnail}
}

// Worker repeatedly pulls jobs from a Scheduler and runs them until its
// Run context is cancelled.
type Worker struct {
	config    WorkerConfig
	scheduler *Scheduler
	events    chan<- CompletedEvent
}

// NewWorker creates a Worker pulling from scheduler and publishing
// completion events to events. events should be buffered or drained
// promptly; Run will block sending to it otherwise.
func NewWorker(config WorkerConfig, scheduler *Scheduler, events chan<- CompletedEvent) *Worker {
	return &Worker{config: config, scheduler: scheduler, events: events}
}

// Run blocks processing jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	kind := "secondary"
	if w.config.IsPrimary {
		kind = "primary"
	}
	log.WithFields(log.Fields{"worker": w.config.ID, "kind": kind}).Debug("scheduler worker starting")

	for {
		select {
		case <-ctx.Done():
			log.WithField("worker", w.config.ID).Debug("scheduler worker stopping")
			return
		case <-w.scheduler.wake:
			w.drain(ctx)
		}
	}
}

// drain dequeues and runs exactly one eligible job, then returns so Run
// goes back to selecting on wake. A worker that looped internally here
// until the queue ran dry would serialize an entire burst of enqueues
// onto itself while the rest of the pool sat idle; re-signalling after
// the dequeue (below) instead lets the other idle workers fan out
// across the same burst.
func (w *Worker) drain(ctx context.Context) {
	job, jobCtx, ok := w.scheduler.tryDequeue(w.config.MinPriority)
	if !ok {
		return
	}

	// There may be more eligible work behind this job; wake another idle
	// worker now instead of waiting until this job finishes.
	w.scheduler.signal()

	start := time.Now()
	out, err := job.Executor(jobCtx)
	elapsed := time.Since(start)

	w.scheduler.Complete(job.Key)

	cancelled := jobCtx.Err() != nil
	event := CompletedEvent{
		Key:       job.Key,
		Category:  job.Category,
		Output:    out,
		Err:       err,
		Cancelled: cancelled,
		Elapsed:   elapsed,
		WorkerID:  w.config.ID,
	}

	logEntry := log.WithFields(log.Fields{
		"worker":  w.config.ID,
		"key":     job.Key,
		"elapsed": elapsed,
	})
	switch {
	case cancelled:
		logEntry.Debug("scheduler job cancelled")
	case err != nil:
		logEntry.WithError(err).Warn("scheduler job failed")
	default:
		logEntry.Debug("scheduler job completed")
	}

	select {
	case w.events <- event:
	case <-ctx.Done():
	}
}
