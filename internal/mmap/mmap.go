// Package mmap provides a zero-copy byte view over an archive file, for
// callers that want the whole archive's bytes without an
// intermediate read-all-into-a-slice copy.
//
// Memory mapping is an inherently syscall-level, platform-specific
// concern, so this wraps the standard library's syscall.Mmap on
// platforms that support it (unix_mmap.go) and falls back to reading the
// file into memory on platforms that don't (other_mmap.go).
package mmap

import "os"

// View is a read-only, possibly memory-mapped view over a file's bytes.
type View interface {
	// Bytes returns the file's contents. Do not mutate the returned slice.
	Bytes() []byte
	// Close releases the mapping (or, on the fallback path, is a no-op).
	Close() error
}

// Open maps path into memory if the platform supports it, otherwise
// reads it into a regular heap-allocated slice.
func Open(path string) (View, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	return openPlatform(f, fi.Size())
}
