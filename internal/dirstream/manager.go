package dirstream

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/facette/natsort"

	"github.com/neoview/album-core/internal/archive"
)

// DirEntry describes one item returned by a directory stream.
type DirEntry struct {
	Name  string
	Path  string
	IsDir bool
}

// ArchiveEntryInfo describes one item returned by an archive stream.
type ArchiveEntryInfo struct {
	Name    string
	Index   uint32
	Size    uint64
	IsDir   bool
	IsImage bool
}

type streamHandle struct {
	path   string
	cancel context.CancelFunc
}

// Manager tracks in-flight streams so callers can cancel by id or by
// path.
type Manager struct {
	mu      sync.Mutex
	streams map[string]*streamHandle
	byPath  map[string][]string
	nextID  uint64
}

// NewManager creates an empty stream Manager.
func NewManager() *Manager {
	return &Manager{
		streams: make(map[string]*streamHandle),
		byPath:  make(map[string][]string),
	}
}

func (m *Manager) allocID() string {
	n := atomic.AddUint64(&m.nextID, 1)
	return fmt.Sprintf("stream-%d", n)
}

func (m *Manager) register(path string, cancel context.CancelFunc) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.allocID()
	m.streams[id] = &streamHandle{path: path, cancel: cancel}
	m.byPath[path] = append(m.byPath[path], id)
	return id
}

func (m *Manager) unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.streams[id]
	if !ok {
		return
	}
	delete(m.streams, id)
	ids := m.byPath[h.path]
	for i, existing := range ids {
		if existing == id {
			m.byPath[h.path] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// CancelStream cancels the stream identified by id. Returns false if no
// such stream is active.
func (m *Manager) CancelStream(id string) bool {
	m.mu.Lock()
	h, ok := m.streams[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	h.cancel()
	return true
}

// CancelStreamsForPath cancels every active stream scanning path,
// returning how many were cancelled.
func (m *Manager) CancelStreamsForPath(path string) int {
	m.mu.Lock()
	ids := append([]string(nil), m.byPath[path]...)
	m.mu.Unlock()

	for _, id := range ids {
		m.CancelStream(id)
	}
	return len(ids)
}

// StreamDirectory enumerates root's immediate children in natural-sort
// order, emitting them in batches. Returns a stream id (for
// cancellation) and the event channel.
func (m *Manager) StreamDirectory(ctx context.Context, root string, batchSize int) (string, <-chan Event[DirEntry]) {
	ctx, cancel := context.WithCancel(ctx)
	id := m.register(root, cancel)
	b := NewBatcher[DirEntry](ctx, batchSize)

	go func() {
		defer m.unregister(id)
		defer cancel()

		entries, err := os.ReadDir(root)
		if err != nil {
			b.Fail(err)
			return
		}

		names := make([]string, len(entries))
		byName := make(map[string]os.DirEntry, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
			byName[e.Name()] = e
		}
		natsort.Sort(names)

		for _, name := range names {
			e := byName[name]
			if !b.Add(DirEntry{Name: name, Path: filepath.Join(root, name), IsDir: e.IsDir()}) {
				close(b.out)
				return
			}
		}
		b.Complete(len(names))
	}()

	return id, b.Events()
}

// StreamArchive opens archivePath and streams its entries in archive
// order, batching as it goes.
func (m *Manager) StreamArchive(ctx context.Context, archivePath string, batchSize int) (string, <-chan Event[ArchiveEntryInfo]) {
	ctx, cancel := context.WithCancel(ctx)
	id := m.register(archivePath, cancel)
	b := NewBatcher[ArchiveEntryInfo](ctx, batchSize)

	go func() {
		defer m.unregister(id)
		defer cancel()

		h, err := archive.Open(archivePath)
		if err != nil {
			b.Fail(err)
			return
		}
		defer h.Close()

		entries, err := h.ListEntries()
		if err != nil {
			b.Fail(err)
			return
		}

		for _, e := range entries {
			info := ArchiveEntryInfo{
				Name:    e.Name,
				Index:   e.EntryIndex,
				Size:    e.Size,
				IsDir:   e.IsDir,
				IsImage: e.IsImage,
			}
			if !b.Add(info) {
				close(b.out)
				return
			}
		}
		b.Complete(len(entries))
	}()

	return id, b.Events()
}

// IsArchivePath reports whether path looks like a supported archive, by
// extension.
func IsArchivePath(path string) bool {
	return archive.KindFromExt(path) != archive.KindUnknown
}
