package book

import (
	"context"

	"github.com/neoview/album-core/internal/pagecache"
	"github.com/neoview/album-core/internal/pathkey"
)

// CacheStats aggregates the three cache layers' occupancy into the
// snapshot get_cache_stats returns.
type CacheStats struct {
	IndexCacheEntries int
	Page              pagecache.Stats
	InstanceHandles   int
	PreheatQueueDepth int
}

// GetCacheStats reports current occupancy across the index, page, and
// instance caches plus the preheat queue depth.
func (b *Book) GetCacheStats() CacheStats {
	return CacheStats{
		IndexCacheEntries: b.ac.IndexCache.Len(),
		Page:              b.ac.PageCache.Stats(),
		InstanceHandles:   b.ac.InstanceCache.Len(),
		PreheatQueueDepth: b.ac.Preheater.QueueSize(),
	}
}

// ClearIndexCache drops every cached archive index, mirroring
// clear_index_cache.
func (b *Book) ClearIndexCache() {
	b.ac.IndexCache.Clear()
}

// InvalidateArchiveCache drops every cached entry for archivePath across
// all three cache layers that key off it (index, instance, page) and
// the thumbnail store's archive-prefixed rows, the
// guarantee the "invalidate an archive" property requires: a later read
// never observes state built before the invalidation.
func (b *Book) InvalidateArchiveCache(archivePath string) {
	b.ac.IndexCache.Invalidate(archivePath)
	b.ac.InstanceCache.Invalidate(archivePath)
	b.ac.PageCache.Invalidate(pathkey.ArchivePrefix(archivePath))
	b.ac.ThumbDB.Invalidate(pathkey.ArchivePrefix(archivePath))
}

// PreheatAdjacent enqueues path's natural-sort neighbor archives for
// index warm-up and schedules the drain on the background executor,
// mirroring archive_preheat.rs's trigger-then-background-execute split.
func (b *Book) PreheatAdjacent(archivePath string) {
	b.ac.Preheater.Trigger(archivePath)
	b.ac.Background.Go(context.Background(), func(ctx context.Context) error {
		b.ac.Preheater.ExecutePreheat(b.ac.IndexCache)
		return nil
	})
}

// CancelPreheat empties the pending preheat queue.
func (b *Book) CancelPreheat() {
	b.ac.Preheater.Cancel()
}

// GetBackgroundQueueMetrics reports scheduler occupancy plus the
// completed/failed counters and recent-task history accumulated from
// the worker pool's completion stream, mirroring get_background_queue_metrics.
func (b *Book) GetBackgroundQueueMetrics() BackgroundQueueMetrics {
	return b.ac.metrics.snapshot(b.ac.Scheduler.Stats())
}
