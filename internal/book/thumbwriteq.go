package book

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/neoview/album-core/internal/thumbnaildb"
)

// ThumbnailWriteQueue batches thumbnail saves into periodic
// transactions rather than one commit per generated thumbnail, since a
// prefetch burst can produce dozens of thumbnails within a few
// milliseconds of each other. Writes to the same key between flushes
// coalesce into the most recent one. Pending writes are flushed once
// per interval by the queue's own timer loop; bgtask.Executor is not
// involved.
type ThumbnailWriteQueue struct {
	db       *thumbnaildb.DB
	interval time.Duration

	mu      sync.Mutex
	pending map[string]thumbnaildb.ThumbnailEntry

	stop chan struct{}
	done chan struct{}
}

// NewThumbnailWriteQueue creates a queue that flushes to db every
// interval. A non-positive interval is replaced with two seconds, the
// default aw-man-style write delay.
func NewThumbnailWriteQueue(db *thumbnaildb.DB, interval time.Duration) *ThumbnailWriteQueue {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ThumbnailWriteQueue{
		db:       db,
		interval: interval,
		pending:  make(map[string]thumbnaildb.ThumbnailEntry),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Enqueue stages key/data for the next flush, replacing any
// not-yet-written entry already queued under the same key.
func (q *ThumbnailWriteQueue) Enqueue(key string, ghash int64, data []byte) {
	q.mu.Lock()
	q.pending[key] = thumbnaildb.ThumbnailEntry{Key: key, Ghash: ghash, Data: data}
	q.mu.Unlock()
}

// Run drains the queue on a timer until Stop is called. Meant to be
// started once, in its own goroutine, from NewAppContext.
func (q *ThumbnailWriteQueue) Run() {
	defer close(q.done)
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.flush()
		case <-q.stop:
			q.flush()
			return
		}
	}
}

// Stop flushes any remaining pending writes and stops the timer loop.
func (q *ThumbnailWriteQueue) Stop() {
	close(q.stop)
	<-q.done
}

func (q *ThumbnailWriteQueue) flush() {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	items := make([]thumbnaildb.ThumbnailEntry, 0, len(q.pending))
	for _, item := range q.pending {
		items = append(items, item)
	}
	q.pending = make(map[string]thumbnaildb.ThumbnailEntry)
	q.mu.Unlock()

	saved, err := q.db.SaveThumbnailsBatch(items)
	if err != nil {
		log.WithError(err).WithField("count", len(items)).Warn("thumbnail write queue: batch save failed")
		return
	}
	if saved != len(items) {
		log.WithFields(log.Fields{"saved": saved, "submitted": len(items)}).
			Warn("thumbnail write queue: partial batch save")
	}
}
