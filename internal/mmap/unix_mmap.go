//go:build unix

package mmap

import (
	"os"
	"syscall"
)

type unixView struct {
	data []byte
}

func (v *unixView) Bytes() []byte { return v.data }

func (v *unixView) Close() error {
	if v.data == nil {
		return nil
	}
	err := syscall.Munmap(v.data)
	v.data = nil
	return err
}

func openPlatform(f *os.File, size int64) (View, error) {
	if size == 0 {
		return &unixView{data: []byte{}}, nil
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &unixView{data: data}, nil
}
