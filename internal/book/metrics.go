package book

import (
	"sync"
	"time"

	"github.com/neoview/album-core/internal/scheduler"
)

// TaskSummary is one entry of the background queue's recent-activity
// ring buffer, grounded on worker.go's CompletedEvent but trimmed to
// what get_background_queue_metrics reports.
type TaskSummary struct {
	Key       string
	Category  scheduler.Category
	Succeeded bool
	Cancelled bool
	Elapsed   time.Duration
}

// queueMetrics accumulates completed/failed counters and a bounded
// history of recent jobs from the pool's completion stream, since
// scheduler.Stats only reports queue depth and active count, not
// historical outcomes.
type queueMetrics struct {
	mu        sync.Mutex
	completed int64
	failed    int64
	recent    []TaskSummary
}

const recentTaskCapacity = 20

func newQueueMetrics() *queueMetrics {
	return &queueMetrics{recent: make([]TaskSummary, 0, recentTaskCapacity)}
}

func (m *queueMetrics) record(ev scheduler.CompletedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok := ev.Err == nil && !ev.Cancelled
	if ok {
		m.completed++
	} else if !ev.Cancelled {
		m.failed++
	}

	summary := TaskSummary{
		Key:       ev.Key,
		Category:  ev.Category,
		Succeeded: ok,
		Cancelled: ev.Cancelled,
		Elapsed:   ev.Elapsed,
	}
	if len(m.recent) == recentTaskCapacity {
		copy(m.recent, m.recent[1:])
		m.recent[len(m.recent)-1] = summary
	} else {
		m.recent = append(m.recent, summary)
	}
}

// BackgroundQueueMetrics is the snapshot returned by
// (*Book).GetBackgroundQueueMetrics.
type BackgroundQueueMetrics struct {
	QueueDepth  int
	ActiveCount int
	Completed   int64
	Failed      int64
	Recent      []TaskSummary
}

func (m *queueMetrics) snapshot(stats scheduler.Stats) BackgroundQueueMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	recent := make([]TaskSummary, len(m.recent))
	copy(recent, m.recent)

	return BackgroundQueueMetrics{
		QueueDepth:  stats.QueueSize,
		ActiveCount: stats.ActiveCount,
		Completed:   m.completed,
		Failed:      m.failed,
		Recent:      recent,
	}
}
