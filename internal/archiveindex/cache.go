package archiveindex

import (
	"github.com/neoview/album-core/internal/archive"
	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Cache is the process-wide IndexCache: an LRU of ArchiveIndex keyed by
// normalized archive path, validated by stamp on every Get and built
// with golang.org/x/sync/singleflight so concurrent callers for the
// same path never double-build.
type Cache struct {
	lru   *lru.Cache[string, *ArchiveIndex]
	group singleflight.Group
}

// New creates an IndexCache bounded by entry count, defaulting to 64.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	l, err := lru.New[string, *ArchiveIndex](maxEntries)
	if err != nil {
		// Only possible if maxEntries <= 0, already guarded above.
		panic(err)
	}
	return &Cache{lru: l}
}

// GetOrBuild returns the cached index for archivePath, validating its
// stamp and rebuilding on mismatch. At most one build happens per
// (path, stamp) concurrently; other callers for the same path block on
// that one build rather than starting their own.
func (c *Cache) GetOrBuild(archivePath string) (*ArchiveIndex, error) {
	if idx, ok := c.lru.Get(archivePath); ok {
		if !idx.Stale() {
			return idx, nil
		}
		log.Debugln("archiveindex: stale stamp, rebuilding", archivePath)
		c.lru.Remove(archivePath)
	}

	v, err, _ := c.group.Do(archivePath, func() (interface{}, error) {
		// Re-check: another goroutine may have finished the build for us
		// while we were waiting to enter Do for this key.
		if idx, ok := c.lru.Get(archivePath); ok && !idx.Stale() {
			return idx, nil
		}

		h, err := archive.Open(archivePath)
		if err != nil {
			return nil, err
		}
		defer h.Close()

		idx, err := Build(archivePath, h)
		if err != nil {
			return nil, err
		}
		c.lru.Add(archivePath, idx)
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ArchiveIndex), nil
}

// Peek returns the cached index without validating its stamp or
// triggering a build, used by callers that only want a best-effort
// estimate (e.g. cache stats).
func (c *Cache) Peek(archivePath string) (*ArchiveIndex, bool) {
	return c.lru.Peek(archivePath)
}

// Invalidate drops the cached index for archivePath, if any.
func (c *Cache) Invalidate(archivePath string) {
	c.lru.Remove(archivePath)
}

// Clear drops every cached index.
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Len returns the number of indexes currently cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}
