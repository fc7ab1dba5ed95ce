// Package preheat implements background index warm-up for the sibling
// archives of the one currently open, so opening the next book in a
// directory is fast.
//
// Grounded directly on archive_preheat.rs: trigger()/get_adjacent_archives
// (natural-sort neighbor discovery within the same directory),
// pop_next()/execute_preheat() (bounded FIFO queue, skip-if-already-cached),
// and is_archive() (extension allowlist) all carry over in shape.
// natural_cmp becomes github.com/facette/natsort, the directory-level
// natural sort used alongside the byte-level internal/natsort.
package preheat

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/facette/natsort"
	log "github.com/sirupsen/logrus"

	"github.com/neoview/album-core/internal/archiveindex"
)

var archiveExts = map[string]bool{
	".zip": true,
	".rar": true,
	".7z":  true,
	".cbz": true,
	".cbr": true,
}

func isArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return archiveExts[ext]
}

// System holds a bounded FIFO queue of archive paths awaiting index
// warm-up, plus a per-directory debounce so rapid successive triggers
// for the same directory don't re-scan the filesystem every time.
type System struct {
	mu           sync.Mutex
	queue        []string
	maxQueueSize int

	debounceTTL   time.Duration
	lastTriggerAt map[string]time.Time
}

// New creates a PreheatSystem bounded to maxQueueSize pending archives.
func New(maxQueueSize int) *System {
	if maxQueueSize <= 0 {
		maxQueueSize = 5
	}
	return &System{
		maxQueueSize:  maxQueueSize,
		debounceTTL:   2 * time.Second,
		lastTriggerAt: make(map[string]time.Time),
	}
}

// Trigger identifies currentArchive's natural-sort neighbors in its
// directory and enqueues them for index warm-up, evicting the oldest
// queued entries if the queue would exceed maxQueueSize.
func (s *System) Trigger(currentArchive string) {
	dir := filepath.Dir(currentArchive)

	s.mu.Lock()
	if last, ok := s.lastTriggerAt[dir]; ok && time.Since(last) < s.debounceTTL {
		s.mu.Unlock()
		return
	}
	s.lastTriggerAt[dir] = time.Now()
	s.mu.Unlock()

	prev, next := s.AdjacentArchives(currentArchive)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range []string{prev, next} {
		if p == "" {
			continue
		}
		if !contains(s.queue, p) {
			log.WithField("path", p).Debug("preheat: enqueuing neighbor archive")
			s.queue = append(s.queue, p)
		}
	}

	for len(s.queue) > s.maxQueueSize {
		removed := s.queue[0]
		s.queue = s.queue[1:]
		log.WithField("path", removed).Debug("preheat: queue overflow, dropping oldest")
	}
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

// AdjacentArchives returns the natural-sort previous and next archive
// paths in path's directory, or "" if there is none.
func (s *System) AdjacentArchives(path string) (prev, next string) {
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ""
	}

	var archives []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		full := filepath.Join(dir, e.Name())
		if isArchive(full) {
			archives = append(archives, full)
		}
	}

	natsort.Sort(archives)

	name := filepath.Base(path)
	idx := -1
	for i, a := range archives {
		if filepath.Base(a) == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", ""
	}
	if idx > 0 {
		prev = archives[idx-1]
	}
	if idx+1 < len(archives) {
		next = archives[idx+1]
	}
	return prev, next
}

// PopNext dequeues the next pending preheat path, or "" if the queue is
// empty.
func (s *System) PopNext() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return ""
	}
	p := s.queue[0]
	s.queue = s.queue[1:]
	return p
}

// QueueSize reports the number of archives awaiting warm-up.
func (s *System) QueueSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Cancel empties the queue, cancelling any not-yet-started warm-up.
func (s *System) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
}

// ExecutePreheat drains the queue, building and caching an index for
// every archive not already cached. Intended to be run from a
// background worker (internal/bgtask), one drain pass at a time.
func (s *System) ExecutePreheat(indexCache *archiveindex.Cache) {
	for {
		path := s.PopNext()
		if path == "" {
			return
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if _, ok := indexCache.Peek(path); ok {
			log.WithField("path", path).Debug("preheat: skipping, already cached")
			continue
		}
		if _, err := indexCache.GetOrBuild(path); err != nil {
			log.WithError(err).WithField("path", path).Warn("preheat: index build failed")
		} else {
			log.WithField("path", path).Debug("preheat: index warmed")
		}
	}
}
