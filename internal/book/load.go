package book

import (
	"context"
	"fmt"
	"os"

	"github.com/neoview/album-core/internal/pathkey"
	"github.com/neoview/album-core/internal/prefetch"
	"github.com/neoview/album-core/internal/scheduler"
)

// pageAt returns a copy of the page at index, bounds-checked against
// the currently open book.
func (b *Book) pageAt(index int) (Page, string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 0 || index >= len(b.info.Pages) {
		return Page{}, "", false, ErrNotFound
	}
	return b.info.Pages[index], b.info.Path, b.index != nil, nil
}

// LoadImage returns the decoded-ready bytes for pageIndex, serving from
// PageCache when present and otherwise routing the read through the job
// scheduler at current-page priority, mirroring
// archive_service_load_image's cache-then-schedule flow.
func (b *Book) LoadImage(ctx context.Context, pageIndex int) ([]byte, error) {
	page, bookPath, isArchive, err := b.pageAt(pageIndex)
	if err != nil {
		return nil, err
	}

	key := pathkey.BuildKey(bookPath, page.InnerPath, isArchive)
	fp := pathkey.Fingerprint(key)

	if data, ok := b.ac.PageCache.Get(fp); ok {
		return data, nil
	}

	v, _, err := b.ac.Dedup.Do(key, func() (any, error) {
		return b.loadAndCache(ctx, bookPath, page, isArchive, key, fp, scheduler.PriorityCurrentPage)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// loadAndCache enqueues a scheduler job reading page's bytes, blocks for
// its result via the result registry, and stores a successful read into
// PageCache before returning it.
func (b *Book) loadAndCache(ctx context.Context, bookPath string, page Page, isArchive bool, key string, fp uint64, priority scheduler.Priority) ([]byte, error) {
	job := scheduler.PageLoadJob(bookPath, page.Index, priority, func(jobCtx context.Context) (scheduler.Output, error) {
		data, err := b.readPageBytes(jobCtx, page, isArchive)
		if err != nil {
			return scheduler.Output{}, err
		}
		return scheduler.Output{
			BookPath:  bookPath,
			PageIndex: page.Index,
			Data:      data,
			MimeType:  ResolveMIME(page.InnerPath),
		}, nil
	})

	resultCh := b.ac.results.register(job.Key)
	b.ac.Scheduler.Enqueue(job)

	select {
	case ev := <-resultCh:
		if ev.Cancelled {
			return nil, ErrCancelled
		}
		if ev.Err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, ev.Err)
		}
		b.ac.PageCache.Put(key, fp, ev.Output.Data)
		return ev.Output.Data, nil
	case <-ctx.Done():
		b.ac.results.forget(job.Key)
		return nil, ctx.Err()
	}
}

// readPageBytes performs the actual read: through the leased archive
// handle by stable entry index for archive books, or a plain file read
// for folder books.
func (b *Book) readPageBytes(ctx context.Context, page Page, isArchive bool) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if !isArchive {
		data, err := os.ReadFile(page.InnerPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		return data, nil
	}

	lease, err := b.ac.InstanceCache.Get(page.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer lease.Release()

	idx, err := b.ac.IndexCache.GetOrBuild(page.ArchivePath)
	if err != nil {
		return nil, classifyArchiveErr(err)
	}
	entry, ok := idx.Lookup(page.InnerPath)
	if !ok {
		return nil, ErrNotFound
	}

	data, err := lease.Handler().ReadByIndex(entry.EntryIndex)
	if err != nil {
		return nil, classifyArchiveErr(err)
	}
	return data, nil
}

// PreloadRange synchronously loads count pages starting at start,
// returning how many were actually loaded (clamped to the book's page
// count). Mirrors archive_service_preload_range; each page is loaded at
// preload rather than current-page priority since none of them are what
// is currently on screen.
func (b *Book) PreloadRange(ctx context.Context, start, count int) (int, error) {
	b.mu.RLock()
	total := b.info.TotalPages
	bookPath := b.info.Path
	isArchive := b.index != nil
	b.mu.RUnlock()

	if total == 0 {
		return 0, ErrNotFound
	}
	if start < 0 {
		start = 0
	}
	end := start + count
	if end > total {
		end = total
	}

	loaded := 0
	for i := start; i < end; i++ {
		page, _, _, err := b.pageAt(i)
		if err != nil {
			continue
		}
		key := pathkey.BuildKey(bookPath, page.InnerPath, isArchive)
		fp := pathkey.Fingerprint(key)
		if _, ok := b.ac.PageCache.Peek(fp); ok {
			loaded++
			continue
		}
		if _, err := b.ac.Dedup.Do(key, func() (any, error) {
			return b.loadAndCache(ctx, bookPath, page, isArchive, key, fp, scheduler.PriorityPreload)
		}); err == nil {
			loaded++
		}
		if ctx.Err() != nil {
			break
		}
	}
	return loaded, nil
}

// NotifyPageChange tells the prefetch engine where the reader now is,
// mirroring archive_service_notify_page_change. The prefetch engine's
// own LoadFunc short-circuits through PageCache before touching the
// archive, so candidates already cached cost nothing beyond the lookup.
// Prefetching is skipped once PageCache occupancy passes 80%, matching
// the "stop issuing prefetch jobs" backpressure rule.
func (b *Book) NotifyPageChange(pageIndex int, dir prefetch.Direction) {
	b.mu.RLock()
	bookPath := b.info.Path
	total := b.info.TotalPages
	isArchive := b.index != nil
	b.mu.RUnlock()

	if bookPath == "" || total == 0 {
		return
	}
	if b.ac.PageCache.OccupancyRatio() > 0.8 {
		return
	}

	b.ac.Prefetcher.RequestPrefetch(bookPath, pageIndex, total, dir, func(ctx context.Context, candidateIndex int) (scheduler.Output, error) {
		page, _, _, err := b.pageAt(candidateIndex)
		if err != nil {
			return scheduler.Output{}, err
		}
		key := pathkey.BuildKey(bookPath, page.InnerPath, isArchive)
		fp := pathkey.Fingerprint(key)
		if data, ok := b.ac.PageCache.Get(fp); ok {
			return scheduler.Output{BookPath: bookPath, PageIndex: candidateIndex, Data: data, MimeType: ResolveMIME(page.InnerPath)}, nil
		}
		data, err := b.readPageBytes(ctx, page, isArchive)
		if err != nil {
			return scheduler.Output{}, err
		}
		b.ac.PageCache.Put(key, fp, data)
		return scheduler.Output{BookPath: bookPath, PageIndex: candidateIndex, Data: data, MimeType: ResolveMIME(page.InnerPath)}, nil
	})
}

// CancelPrefetch cancels the active book's in-flight prefetch jobs,
// mirroring archive_service_cancel_prefetch.
func (b *Book) CancelPrefetch() {
	path := b.Info().Path
	if path == "" {
		return
	}
	b.ac.Prefetcher.CancelCurrent(path)
}

// IsCached reports whether pageIndex's bytes are currently resident in
// PageCache, without promoting it in the LRU, matching
// archive_service_is_cached's read-only intent.
func (b *Book) IsCached(pageIndex int) bool {
	page, bookPath, isArchive, err := b.pageAt(pageIndex)
	if err != nil {
		return false
	}
	key := pathkey.BuildKey(bookPath, page.InnerPath, isArchive)
	_, ok := b.ac.PageCache.Peek(pathkey.Fingerprint(key))
	return ok
}

// CheckCacheBatch is the batched form of IsCached, mirroring
// archive_service_check_cache_batch.
func (b *Book) CheckCacheBatch(pageIndices []int) map[int]bool {
	out := make(map[int]bool, len(pageIndices))
	for _, i := range pageIndices {
		out[i] = b.IsCached(i)
	}
	return out
}
