// Package dedup lets callers racing to produce the same keyed result
// share a single in-flight computation instead of each doing the work
// independently. Used by the
// page-load path in internal/book (two requests for the same page
// arrive back to back); directory/archive streaming does not use it.
//
// Grounded on golang.org/x/sync/singleflight, already wired into
// internal/archiveindex for index builds; this package gives page loads
// the same primitive under a string-keyed API instead of each caller
// holding its own singleflight.Group.
package dedup

import "golang.org/x/sync/singleflight"

// Deduplicator collapses concurrent calls for the same key into one.
type Deduplicator struct {
	group singleflight.Group
}

// New creates an empty Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{}
}

// Do executes fn for key if no call for key is already in flight,
// otherwise waits for the in-flight call and shares its result.
// shared reports whether the result came from an in-flight call this
// goroutine didn't start.
func (d *Deduplicator) Do(key string, fn func() (any, error)) (v any, shared bool, err error) {
	return d.group.Do(key, fn)
}

// Forget removes key from the in-flight set, so the next Do call for key
// starts fresh rather than joining a stale result.
func (d *Deduplicator) Forget(key string) {
	d.group.Forget(key)
}
