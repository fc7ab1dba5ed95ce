// Package instancecache implements InstanceCache: a pool of opened
// archive handles so repeated reads against the same archive reuse its
// open file descriptor instead of reopening on every page request.
// The original's weak-reference model -- "a non-owning handle that
// promotes to a strong handle on use; failure to promote forces
// re-open" -- is modeled here with an explicit refcount instead of a
// language-level weak pointer: a Lease is the strong handle, and a handle
// with zero outstanding leases is eligible for eviction the same way a
// weak reference would fail to upgrade.
package instancecache

import (
	"os"
	"sync"
	"time"

	"github.com/neoview/album-core/internal/archive"
	"github.com/neoview/album-core/internal/pathkey"
)

type entry struct {
	handler  archive.Handler
	modTime  int64
	size     int64
	refs     int
	lastUsed time.Time
}

// Cache is the process-wide InstanceCache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxOpen int
}

// New creates an InstanceCache that keeps at most maxOpen handles with no
// outstanding lease open at once (handles with outstanding leases are
// never forcibly closed).
func New(maxOpen int) *Cache {
	if maxOpen <= 0 {
		maxOpen = 32
	}
	return &Cache{entries: make(map[string]*entry), maxOpen: maxOpen}
}

// Lease is a strong, non-owning reference obtained from Get. Callers must
// call Release exactly once when done reading.
type Lease struct {
	cache   *Cache
	path    string
	handler archive.Handler
}

// Handler returns the leased archive.Handler. Do not call its Close
// method directly -- call Release instead, which accounts for other
// concurrent leases before deciding whether the handle may actually be
// closed.
func (l *Lease) Handler() archive.Handler {
	return l.handler
}

// Release returns the lease to the cache. The underlying handle is not
// necessarily closed immediately; it may be kept warm for the next
// caller and closed later by the LRU sweep.
func (l *Lease) Release() {
	l.cache.release(l.path)
}

// Get promotes a handle for archivePath: reuses an already-open handle if
// its stamp still matches the file on disk, otherwise opens a fresh one
// (failure to promote forces re-open).
func (c *Cache) Get(archivePath string) (*Lease, error) {
	norm := pathkey.Normalize(archivePath)

	fi, err := os.Stat(archivePath)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if e, ok := c.entries[norm]; ok {
		if e.modTime == fi.ModTime().Unix() && e.size == fi.Size() {
			e.refs++
			c.mu.Unlock()
			return &Lease{cache: c, path: norm, handler: e.handler}, nil
		}
		// Stamp mismatch: the slot is discarded and a new handle opened
		// below.
		if e.refs == 0 {
			e.handler.Close()
		}
		delete(c.entries, norm)
	}
	c.mu.Unlock()

	h, err := archive.Open(archivePath)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[norm] = &entry{
		handler: h,
		modTime: fi.ModTime().Unix(),
		size:    fi.Size(),
		refs:    1,
	}
	c.evictLocked()
	c.mu.Unlock()

	return &Lease{cache: c, path: norm, handler: h}, nil
}

func (c *Cache) release(norm string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[norm]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		e.refs = 0
		e.lastUsed = time.Now()
		c.evictLocked()
	}
}

// evictLocked closes idle (refs==0) handles, oldest first, until the
// cache holds no more than maxOpen. Must be called with c.mu held.
func (c *Cache) evictLocked() {
	for len(c.entries) > c.maxOpen {
		var oldestKey string
		var oldestTime time.Time
		found := false
		for k, e := range c.entries {
			if e.refs != 0 {
				continue
			}
			if !found || e.lastUsed.Before(oldestTime) {
				oldestKey, oldestTime, found = k, e.lastUsed, true
			}
		}
		if !found {
			// Every handle is leased; nothing evictable right now.
			return
		}
		c.entries[oldestKey].handler.Close()
		delete(c.entries, oldestKey)
	}
}

// Invalidate force-closes and drops the handle for archivePath, whether
// or not it is currently leased; in-flight reads through an outstanding
// lease then fail with an IO error, since invalidation is only called on
// a confirmed archive mutation/removal.
func (c *Cache) Invalidate(archivePath string) {
	norm := pathkey.Normalize(archivePath)
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[norm]; ok {
		e.handler.Close()
		delete(c.entries, norm)
	}
}

// Len returns the number of handles currently tracked (open or leased).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close closes every tracked handle, for process shutdown.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		e.handler.Close()
		delete(c.entries, k)
	}
}
