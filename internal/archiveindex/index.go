// Package archiveindex implements ArchiveIndex and IndexCache, the
// per-archive central-directory index that turns an N-step archive
// scan into O(1) lookup by normalized inner path. Grounded on
// archive_index_builder.rs, expressed against this module's own
// internal/archive.Handler rather than a rar/sevenzip/zip handler trio,
// since those are now one layer down.
package archiveindex

import (
	"os"
	"sync"

	"github.com/neoview/album-core/internal/archive"
	"github.com/neoview/album-core/internal/pathkey"
)

// Stamp is the (mtime_seconds, file_size) tuple used to detect a stale
// cache entry.
type Stamp struct {
	ModTime int64
	Size    int64
}

func stampOf(path string) (Stamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Stamp{}, err
	}
	return Stamp{ModTime: fi.ModTime().Unix(), Size: fi.Size()}, nil
}

// IndexEntry is one row of the ArchiveIndex.
type IndexEntry struct {
	EntryIndex     uint32
	Size           uint64
	CompressedSize uint64
	Modified       int64
	IsDir          bool
	IsImage        bool
}

// ArchiveIndex is the ordered mapping inner_path -> IndexEntry for one
// archive, built once and validated by (mtime, size).
type ArchiveIndex struct {
	mu sync.RWMutex

	archivePath   string
	stamp         Stamp
	byName        map[string]IndexEntry
	orderedNames  []string // insertion order, mirrors archive's own entry order
	estimatedSize uint64
	kind          archive.Kind
}

// ArchivePath returns the normalized path this index was built for.
func (idx *ArchiveIndex) ArchivePath() string {
	return idx.archivePath
}

// Kind returns the archive format.
func (idx *ArchiveIndex) Kind() archive.Kind {
	return idx.kind
}

// Stamp returns the (mtime, size) snapshot captured at build time.
func (idx *ArchiveIndex) Stamp() Stamp {
	return idx.stamp
}

// EstimatedSize returns the sum of every entry's uncompressed size, used
// for preheat/cache budgeting.
func (idx *ArchiveIndex) EstimatedSize() uint64 {
	return idx.estimatedSize
}

// Len returns the number of entries, including directories.
func (idx *ArchiveIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byName)
}

// Lookup returns the entry for a (caller-normalized) inner path. If the
// entry exists in the archive, lookup by its normalized path always
// succeeds.
func (idx *ArchiveIndex) Lookup(innerPath string) (IndexEntry, bool) {
	n := pathkey.Normalize(innerPath)
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.byName[n]
	return e, ok
}

// ImagePaths returns every image entry's normalized inner path, in the
// archive's own entry order (the order Page/PrefetchEngine re-sort with
// natsort).
func (idx *ArchiveIndex) ImagePaths() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]string, 0, len(idx.orderedNames))
	for _, n := range idx.orderedNames {
		if idx.byName[n].IsImage {
			out = append(out, n)
		}
	}
	return out
}

// Build constructs an ArchiveIndex by listing every entry in h, an O(N)
// scan over the archive's entries. h must already be open; Build does
// not close it.
func Build(archivePath string, h archive.Handler) (*ArchiveIndex, error) {
	stamp, err := stampOf(archivePath)
	if err != nil {
		return nil, err
	}

	entries, err := h.ListEntries()
	if err != nil {
		return nil, err
	}

	idx := &ArchiveIndex{
		archivePath:  pathkey.Normalize(archivePath),
		stamp:        stamp,
		byName:       make(map[string]IndexEntry, len(entries)),
		orderedNames: make([]string, 0, len(entries)),
		kind:         h.Kind(),
	}

	var total uint64
	for _, e := range entries {
		n := pathkey.Normalize(e.Name) // every stored inner_path is normalized
		idx.byName[n] = IndexEntry{
			EntryIndex:     e.EntryIndex,
			Size:           e.Size,
			CompressedSize: e.CompressedSize,
			Modified:       e.Modified,
			IsDir:          e.IsDir,
			IsImage:        e.IsImage,
		}
		idx.orderedNames = append(idx.orderedNames, n)
		total += e.Size
	}
	idx.estimatedSize = total

	return idx, nil
}

// Stale reports whether the on-disk file no longer matches the stamp this
// index was built with.
func (idx *ArchiveIndex) Stale() bool {
	cur, err := stampOf(idx.archivePath)
	if err != nil {
		return true
	}
	return cur != idx.stamp
}
