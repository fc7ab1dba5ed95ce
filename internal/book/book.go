package book

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/neoview/album-core/internal/archive"
	"github.com/neoview/album-core/internal/archiveindex"
	"github.com/neoview/album-core/internal/natsort"
	"github.com/neoview/album-core/internal/pathkey"
	"github.com/neoview/album-core/internal/prefetch"
)

// Book is a single opened archive or folder, holding the state the
// lifecycle and page-I/O operations act on: the page list, which
// ArchiveIndex it was built from (nil for folder books), and the last
// navigation direction used to plan the next prefetch. Grounded on
// models/book.rs's BookInfo plus the per-book fields
// archive_service_commands.rs threads through its ArchiveService, here
// held explicitly instead of behind a Mutex<Option<ArchiveService>>
// singleton.
type Book struct {
	ac *AppContext

	mu            sync.RWMutex
	info          BookInfo
	index         *archiveindex.ArchiveIndex // nil for folder books
	currentPage   int
	lastDirection prefetch.Direction
}

// NewBook creates an unopened Book bound to ac. Call OpenBook before
// using any other method.
func NewBook(ac *AppContext) *Book {
	return &Book{ac: ac, lastDirection: prefetch.DirectionNone}
}

// OpenBook builds the page list for path (an archive file or a plain
// directory) and makes it the book's active content, mirroring
// archive_service_open. A concurrent OpenBook call for a different path
// cancels this one via the shared load queue (archive_service_commands.rs
// "only one open/preload may run at a time").
func (b *Book) OpenBook(ctx context.Context, path string) (*BookInfo, error) {
	cmd := b.ac.LoadQueue.Submit(path)
	defer b.ac.LoadQueue.Complete(cmd)

	norm := pathkey.Normalize(path)
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var info BookInfo
	var idx *archiveindex.ArchiveIndex

	if fi.IsDir() {
		info, err = buildFolderInfo(norm)
		if err != nil {
			return nil, err
		}
	} else {
		idx, err = b.ac.IndexCache.GetOrBuild(path)
		if err != nil {
			return nil, classifyArchiveErr(err)
		}
		info = buildArchiveInfo(norm, idx)
	}

	if cmd.IsCancelled() {
		return nil, ErrCancelled
	}

	b.mu.Lock()
	b.info = info
	b.index = idx
	b.currentPage = 0
	b.lastDirection = prefetch.DirectionNone
	b.mu.Unlock()

	if idx != nil {
		b.ac.Preheater.Trigger(path)
		b.ac.Background.Go(context.Background(), func(ctx context.Context) error {
			b.ac.Preheater.ExecutePreheat(b.ac.IndexCache)
			return nil
		})
	}

	out := info
	return &out, nil
}

// CloseBook cancels every in-flight job for the currently open book
// (page loads and prefetch) and clears its state, mirroring
// archive_service_close.
func (b *Book) CloseBook() {
	b.mu.Lock()
	path := b.info.Path
	isArchive := b.index != nil
	b.info = BookInfo{}
	b.index = nil
	b.currentPage = 0
	b.lastDirection = prefetch.DirectionNone
	b.mu.Unlock()

	if path == "" {
		return
	}

	b.ac.Prefetcher.CancelCurrent(path)
	b.ac.Scheduler.CancelByPrefix("page:" + path + ":")
	if isArchive {
		b.ac.LoadQueue.CancelCurrent()
	}
}

// Info returns a copy of the currently open book's BookInfo.
func (b *Book) Info() BookInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.info
}

// CurrentPage returns the currently selected page index.
func (b *Book) CurrentPage() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.currentPage
}

// NavigateToPage moves the book's cursor to pageIndex and notifies the
// prefetch engine of the new position and direction, returning the
// resolved page index. Out-of-range indices are clamped, matching the
// original's saturating navigation rather than erroring on every
// off-by-one caused by a stale page count in the caller.
func (b *Book) NavigateToPage(pageIndex int) (int, error) {
	b.mu.Lock()
	if b.info.TotalPages == 0 {
		b.mu.Unlock()
		return 0, ErrNotFound
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageIndex >= b.info.TotalPages {
		pageIndex = b.info.TotalPages - 1
	}

	dir := prefetch.DirectionNone
	switch {
	case pageIndex > b.currentPage:
		dir = prefetch.DirectionForward
	case pageIndex < b.currentPage:
		dir = prefetch.DirectionBackward
	default:
		dir = b.lastDirection
	}
	b.currentPage = pageIndex
	b.lastDirection = dir
	b.mu.Unlock()

	b.NotifyPageChange(pageIndex, dir)
	return pageIndex, nil
}

// NextPage advances one page forward.
func (b *Book) NextPage() (int, error) {
	return b.NavigateToPage(b.CurrentPage() + 1)
}

// PrevPage moves one page backward.
func (b *Book) PrevPage() (int, error) {
	return b.NavigateToPage(b.CurrentPage() - 1)
}

func buildArchiveInfo(archivePath string, idx *archiveindex.ArchiveIndex) BookInfo {
	paths := idx.ImagePaths()
	sorter := natsort.NewNaturalSorter()
	sort.Slice(paths, func(i, j int) bool { return sorter.Compare(paths[i], paths[j]) })

	pages := make([]Page, len(paths))
	for i, p := range paths {
		entry, _ := idx.Lookup(p)
		pages[i] = Page{
			Index:       i,
			ArchivePath: archivePath,
			InnerPath:   p,
			DisplayName: filepath.Base(p),
			BytesSize:   entry.Size,
		}
	}

	return BookInfo{
		Path:       archivePath,
		Name:       filepath.Base(archivePath),
		Kind:       KindArchive,
		TotalPages: len(pages),
		Pages:      pages,
	}
}

func buildFolderInfo(dirPath string) (BookInfo, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return BookInfo{}, fmt.Errorf("%w: %v", ErrIO, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if archive.IsImageName(e.Name()) {
			names = append(names, e.Name())
		}
	}

	sorter := natsort.NewNaturalSorter()
	sort.Slice(names, func(i, j int) bool { return sorter.Compare(names[i], names[j]) })

	pages := make([]Page, len(names))
	for i, name := range names {
		full := filepath.Join(dirPath, name)
		size := uint64(0)
		if fi, err := os.Stat(full); err == nil {
			size = uint64(fi.Size())
		}
		pages[i] = Page{
			Index:       i,
			ArchivePath: "",
			InnerPath:   full,
			DisplayName: name,
			BytesSize:   size,
		}
	}

	return BookInfo{
		Path:       dirPath,
		Name:       filepath.Base(dirPath),
		Kind:       KindFolder,
		TotalPages: len(pages),
		Pages:      pages,
	}, nil
}

func classifyArchiveErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, archive.ErrMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, archive.ErrNotFound), errors.Is(err, archive.ErrEntryNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, archive.ErrUnsupported):
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	default:
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
}
