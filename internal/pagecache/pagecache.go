// Package pagecache implements PageCache: a bounded LRU of decoded page
// bytes with a two-phase soft/hard eviction policy modeled after
// NeeView-style memory pools, and a peek-without-promotion read path so
// high-fanout concurrent serve-byte requests don't thrash eviction
// order.
//
// No available library implements a byte-budgeted two-phase LRU
// (github.com/hashicorp/golang-lru/v2, used for IndexCache, only
// tracks entry count), so this is hand-rolled on
// container/list plus a single mutex with a short critical section per
// operation.
package pagecache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

type record struct {
	key      string // compound key, for prefix invalidation
	fp       uint64
	bytes    []byte
	lastUsed time.Time
}

// Cache is the process-wide PageCache.
type Cache struct {
	mu sync.Mutex

	ll    *list.List // front = most recently used
	items map[uint64]*list.Element

	countLimit int
	byteLimit  int64
	curBytes   int64
}

// New creates a PageCache bounded by countLimit entries and byteLimit
// total bytes.
func New(countLimit int, byteLimit int64) *Cache {
	if countLimit <= 0 {
		countLimit = 64
	}
	if byteLimit <= 0 {
		byteLimit = 512 * 1024 * 1024
	}
	return &Cache{
		ll:         list.New(),
		items:      make(map[uint64]*list.Element),
		countLimit: countLimit,
		byteLimit:  byteLimit,
	}
}

// Get returns the cached bytes for fingerprint, promoting it to
// most-recently-used.
func (c *Cache) Get(fingerprint uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[fingerprint]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*record).bytes, true
}

// Peek returns the cached bytes without promoting LRU position, so
// high-fanout concurrent serve-byte requests don't thrash eviction
// order.
func (c *Cache) Peek(fingerprint uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[fingerprint]
	if !ok {
		return nil, false
	}
	return e.Value.(*record).bytes, true
}

// Put inserts bytes under (key, fingerprint). If bytes exceeds 10% of the
// byte budget it is not cached at all; the caller still gets to serve
// it, just uncached, rather than treating the oversized entry as an
// error.
func (c *Cache) Put(key string, fingerprint uint64, bytes []byte) {
	if int64(len(bytes)) > c.byteLimit/10 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[fingerprint]; ok {
		old := e.Value.(*record)
		c.curBytes -= int64(len(old.bytes))
		old.bytes = bytes
		old.lastUsed = time.Now()
		c.curBytes += int64(len(bytes))
		c.ll.MoveToFront(e)
	} else {
		r := &record{key: key, fp: fingerprint, bytes: bytes, lastUsed: time.Now()}
		e := c.ll.PushFront(r)
		c.items[fingerprint] = e
		c.curBytes += int64(len(bytes))
	}

	c.evictLocked()
}

// evictLocked applies the two-phase soft/hard eviction policy. Must be
// called with c.mu held.
func (c *Cache) evictLocked() {
	softCount := c.countLimit * 150 / 100
	trimToCount := c.countLimit * 120 / 100

	// Phase 1 (soft): only kicks in once occupancy exceeds 150% of target;
	// trims down to 120%.
	if c.ll.Len() > softCount {
		for c.ll.Len() > trimToCount {
			c.evictOldestLocked()
		}
	}

	// Phase 2 (hard): kicks in once occupancy exceeds 120% of target or
	// the byte budget, trimming back down below both.
	hardCount := c.countLimit * 120 / 100
	for c.ll.Len() > hardCount || c.curBytes > c.byteLimit {
		if c.ll.Len() == 0 {
			break
		}
		c.evictOldestLocked()
	}
}

func (c *Cache) evictOldestLocked() {
	e := c.ll.Back()
	if e == nil {
		return
	}
	r := e.Value.(*record)
	c.ll.Remove(e)
	delete(c.items, r.fp)
	c.curBytes -= int64(len(r.bytes))
}

// Invalidate removes every entry whose compound key starts with
// "<archivePath>::".
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for e := c.ll.Front(); e != nil; e = e.Next() {
		if strings.HasPrefix(e.Value.(*record).key, prefix) {
			toRemove = append(toRemove, e)
		}
	}
	for _, e := range toRemove {
		r := e.Value.(*record)
		c.ll.Remove(e)
		delete(c.items, r.fp)
		c.curBytes -= int64(len(r.bytes))
	}
}

// Stats reports current occupancy for cache-stats introspection.
type Stats struct {
	Count    int
	Bytes    int64
	MaxCount int
	MaxBytes int64
}

// Stats returns a snapshot of current occupancy.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Count:    c.ll.Len(),
		Bytes:    c.curBytes,
		MaxCount: c.countLimit,
		MaxBytes: c.byteLimit,
	}
}

// OccupancyRatio returns current bytes used as a fraction of the byte
// budget, used by Book.NotifyPageChange to stop requesting prefetch
// jobs once occupancy exceeds 80%.
func (c *Cache) OccupancyRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byteLimit == 0 {
		return 0
	}
	return float64(c.curBytes) / float64(c.byteLimit)
}
