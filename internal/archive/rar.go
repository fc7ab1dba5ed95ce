package archive

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/nwaples/rardecode"
)

// rarHandler implements a "skip to target index" read: RAR requires a
// sequential header walk, so read_by_index reopens the stream and
// advances header-by-header, skipping the payload
// of every entry before idx instead of decompressing it. The ArchiveIndex
// turns what would be an O(N) scan-every-time into at most N header-skips
// with no wasted decompression of the entries we pass over.
type rarHandler struct {
	path string

	mu      sync.Mutex
	entries []Entry
}

func openRar(path string) (Handler, error) {
	// Validate the archive opens cleanly before returning the handler.
	rc, err := rardecode.OpenReader(path, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	rc.Close()
	return &rarHandler{path: path}, nil
}

func (r *rarHandler) Kind() Kind { return KindRar }

func (r *rarHandler) Close() error { return nil }

// walk opens a fresh sequential reader and invokes visit for every header
// in order. visit returns (stop, err): stop=true ends the walk early
// (used by FirstImage and ReadByIndex's skip-to-target).
func (r *rarHandler) walk(visit func(idx uint32, h *rardecode.FileHeader, rc *rardecode.ReadCloser) (stop bool, err error)) error {
	rc, err := rardecode.OpenReader(r.path, "")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer rc.Close()

	var idx uint32
	for {
		h, err := rc.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}

		stop, err := visit(idx, h, rc)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
		idx++
	}
}

func (r *rarHandler) build() error {
	var entries []Entry
	err := r.walk(func(idx uint32, h *rardecode.FileHeader, rc *rardecode.ReadCloser) (bool, error) {
		name := filepath.ToSlash(filepath.Clean(h.Name))
		e := Entry{
			Name:       name,
			EntryIndex: idx,
			Size:       uint64(h.UnPackedSize),
			IsDir:      h.IsDir,
		}
		if !h.ModificationTime.IsZero() {
			e.Modified = h.ModificationTime.Unix()
		}
		e.IsImage = !e.IsDir && IsImageName(name)
		entries = append(entries, e)
		return false, nil
	})
	if err != nil {
		return err
	}
	r.entries = entries
	return nil
}

func (r *rarHandler) ListEntries() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		if err := r.build(); err != nil {
			return nil, err
		}
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

func (r *rarHandler) ReadByIndex(idx uint32) ([]byte, error) {
	var data []byte
	found := false
	err := r.walk(func(i uint32, h *rardecode.FileHeader, rc *rardecode.ReadCloser) (bool, error) {
		if i != idx {
			// Do not read: Next() on the following iteration discards
			// whatever of this entry's payload was not consumed.
			return false, nil
		}
		b, err := io.ReadAll(rc)
		if err != nil {
			return true, fmt.Errorf("%w: %v", ErrIO, err)
		}
		data = b
		found = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: index %d", ErrEntryNotFound, idx)
	}
	return data, nil
}

func (r *rarHandler) ReadByName(name string) ([]byte, error) {
	name = filepath.ToSlash(filepath.Clean(name))

	var data []byte
	found := false
	err := r.walk(func(i uint32, h *rardecode.FileHeader, rc *rardecode.ReadCloser) (bool, error) {
		if filepath.ToSlash(filepath.Clean(h.Name)) != name {
			return false, nil
		}
		b, err := io.ReadAll(rc)
		if err != nil {
			return true, fmt.Errorf("%w: %v", ErrIO, err)
		}
		data = b
		found = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return data, nil
}

func (r *rarHandler) FirstImage() (Entry, []byte, error) {
	var (
		entry Entry
		data  []byte
		found bool
	)
	err := r.walk(func(idx uint32, h *rardecode.FileHeader, rc *rardecode.ReadCloser) (bool, error) {
		name := filepath.ToSlash(filepath.Clean(h.Name))
		if h.IsDir || !IsImageName(name) {
			return false, nil
		}
		b, err := io.ReadAll(rc)
		if err != nil {
			return true, fmt.Errorf("%w: %v", ErrIO, err)
		}
		entry = Entry{Name: name, EntryIndex: idx, Size: uint64(h.UnPackedSize), IsImage: true}
		data = b
		found = true
		return true, nil
	})
	if err != nil {
		return Entry{}, nil, err
	}
	if !found {
		return Entry{}, nil, ErrNotFound
	}
	return entry, data, nil
}
