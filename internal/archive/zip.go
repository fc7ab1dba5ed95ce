package archive

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zip"
)

// zipHandler wraps a seekable ZIP reader. klauspost/compress/zip parses
// the central directory once on open, so ListEntries/ReadByIndex are both
// effectively O(1) against that in-memory table: the cached entry list
// mirrors the central directory, so read-by-index avoids a full
// re-parse.
type zipHandler struct {
	path string
	rc   *zip.ReadCloser

	mu      sync.Mutex
	entries []Entry
	byName  map[string]int // normalized name -> index into entries/rc.File
}

func openZip(path string) (Handler, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	return &zipHandler{path: path, rc: rc}, nil
}

func (z *zipHandler) Kind() Kind { return KindZip }

func (z *zipHandler) Close() error {
	return z.rc.Close()
}

func (z *zipHandler) build() {
	z.entries = make([]Entry, len(z.rc.File))
	z.byName = make(map[string]int, len(z.rc.File))
	for i, f := range z.rc.File {
		name := filepath.ToSlash(filepath.Clean(f.Name))
		e := Entry{
			Name:           name,
			EntryIndex:     uint32(i),
			Size:           f.UncompressedSize64,
			CompressedSize: f.CompressedSize64,
			IsDir:          f.FileInfo().IsDir(),
		}
		if !f.Modified.IsZero() {
			e.Modified = f.Modified.Unix()
		}
		e.IsImage = !e.IsDir && IsImageName(name)
		z.entries[i] = e
		z.byName[name] = i
	}
}

func (z *zipHandler) ListEntries() ([]Entry, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.entries == nil {
		z.build()
	}
	out := make([]Entry, len(z.entries))
	copy(out, z.entries)
	return out, nil
}

func (z *zipHandler) ReadByIndex(idx uint32) ([]byte, error) {
	z.mu.Lock()
	if z.entries == nil {
		z.build()
	}
	if int(idx) >= len(z.rc.File) {
		z.mu.Unlock()
		return nil, fmt.Errorf("%w: index %d", ErrEntryNotFound, idx)
	}
	f := z.rc.File[idx]
	z.mu.Unlock()

	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return b, nil
}

func (z *zipHandler) ReadByName(name string) ([]byte, error) {
	name = filepath.ToSlash(filepath.Clean(name))

	z.mu.Lock()
	if z.entries == nil {
		z.build()
	}
	idx, ok := z.byName[name]
	z.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return z.ReadByIndex(uint32(idx))
}

func (z *zipHandler) FirstImage() (Entry, []byte, error) {
	// Short-circuit: do not build the full listing/byName map just to find
	// the cover.
	z.mu.Lock()
	alreadyBuilt := z.entries != nil
	z.mu.Unlock()

	if alreadyBuilt {
		entries, _ := z.ListEntries()
		for _, e := range entries {
			if e.IsImage {
				b, err := z.ReadByIndex(e.EntryIndex)
				return e, b, err
			}
		}
		return Entry{}, nil, ErrNotFound
	}

	for i, f := range z.rc.File {
		name := filepath.ToSlash(filepath.Clean(f.Name))
		if f.FileInfo().IsDir() || !IsImageName(name) {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return Entry{}, nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		b, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return Entry{}, nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		e := Entry{
			Name:       name,
			EntryIndex: uint32(i),
			Size:       f.UncompressedSize64,
			IsImage:    true,
		}
		return e, b, nil
	}
	return Entry{}, nil, ErrNotFound
}
