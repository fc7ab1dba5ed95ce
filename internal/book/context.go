package book

import (
	"github.com/neoview/album-core/internal/archiveindex"
	"github.com/neoview/album-core/internal/bgtask"
	"github.com/neoview/album-core/internal/bufferpool"
	"github.com/neoview/album-core/internal/config"
	"github.com/neoview/album-core/internal/decoder"
	"github.com/neoview/album-core/internal/dedup"
	"github.com/neoview/album-core/internal/dirstream"
	"github.com/neoview/album-core/internal/instancecache"
	"github.com/neoview/album-core/internal/loadqueue"
	"github.com/neoview/album-core/internal/pagecache"
	"github.com/neoview/album-core/internal/preheat"
	"github.com/neoview/album-core/internal/prefetch"
	"github.com/neoview/album-core/internal/scheduler"
	"github.com/neoview/album-core/internal/thumbnaildb"
)

// AppContext holds every process-wide singleton component, created
// once at startup and passed by value from then on -- replacing the
// original's scattered lazy globals/Arc<Mutex<...>> singletons with a
// single explicitly constructed holder and no hidden global mutable
// state.
type AppContext struct {
	IndexCache    *archiveindex.Cache
	InstanceCache *instancecache.Cache
	PageCache     *pagecache.Cache
	ThumbDB       *thumbnaildb.DB

	Scheduler  *scheduler.Scheduler
	WorkerPool *scheduler.Pool
	Prefetcher *prefetch.Engine
	Preheater  *preheat.System
	LoadQueue  *loadqueue.Queue
	Streams    *dirstream.Manager
	Background *bgtask.Executor
	Decoder    decoder.Decoder
	BufferPool *bufferpool.Pool
	Dedup      *dedup.Deduplicator

	results *resultRegistry
	metrics *queueMetrics
	writeq  *ThumbnailWriteQueue
}

// NewAppContext builds every shared component from config.Conf's
// tunables (PreloadAhead/Behind, PrimaryWorkers/SecondaryWorkers,
// PageCacheCount/Bytes, IndexCacheEntries, PreheatQueueDepth), and
// opens thumbDBPath as the persistent thumbnail store.
func NewAppContext(thumbDBPath string, compressionEnabled bool) (*AppContext, error) {
	thumbDB, err := thumbnaildb.Open(thumbDBPath, compressionEnabled)
	if err != nil {
		return nil, err
	}

	indexCache := archiveindex.New(config.Conf.IndexCacheEntries)
	pool := scheduler.NewPool(config.Conf.PrimaryWorkers, config.Conf.SecondaryWorkers)

	ac := &AppContext{
		IndexCache:    indexCache,
		InstanceCache: instancecache.New(0),
		PageCache:     pagecache.New(config.Conf.PageCacheCount, config.Conf.PageCacheBytes),
		ThumbDB:       thumbDB,
		Scheduler:     pool.Scheduler,
		WorkerPool:    pool,
		Prefetcher:    prefetch.New(pool.Scheduler, config.Conf.PreloadAhead, config.Conf.PreloadBehind),
		Preheater:     preheat.New(config.Conf.PreheatQueueDepth),
		LoadQueue:     loadqueue.New(),
		Streams:       dirstream.NewManager(),
		Background:    bgtask.New(int64(config.Conf.SecondaryWorkers)),
		Decoder:       decoder.New(),
		BufferPool:    bufferpool.New(),
		Dedup:         dedup.New(),
		results:       newResultRegistry(),
		metrics:       newQueueMetrics(),
	}
	ac.writeq = NewThumbnailWriteQueue(thumbDB, config.Conf.ThumbnailWriteDelay())
	go ac.routeEvents(pool.Events)
	go ac.writeq.Run()
	return ac, nil
}

// routeEvents drains the pool's merged completion channel for the
// lifetime of the process, delivering each event to its synchronous
// waiter (if any) and recording it into the background queue metrics
// regardless of whether anyone was waiting on it.
func (ac *AppContext) routeEvents(events <-chan scheduler.CompletedEvent) {
	for ev := range events {
		ac.results.route(ev)
		ac.metrics.record(ev)
	}
}

// Close shuts down every component that owns a background goroutine or
// OS resource (worker pool, instance cache file handles, thumbnail
// database connection).
func (ac *AppContext) Close() {
	ac.writeq.Stop()
	ac.WorkerPool.Shutdown()
	ac.InstanceCache.Close()
	ac.ThumbDB.Close()
}
