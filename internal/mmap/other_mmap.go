//go:build !unix

package mmap

import (
	"io"
	"os"
)

// heapView is the fallback for platforms without a mapped-memory
// syscall.Mmap (e.g. plain Windows builds of this module): the bytes are
// read once into a normal slice, which still gives callers a single
// shared, read-only []byte to serve from.
type heapView struct {
	data []byte
}

func (v *heapView) Bytes() []byte { return v.data }
func (v *heapView) Close() error  { return nil }

func openPlatform(f *os.File, size int64) (View, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &heapView{data: data}, nil
}
