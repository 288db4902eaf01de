// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmapfile maps a file read-only into memory.  Pack readers do
// point lookups by binary search, so the mapping is advised MADV_RANDOM.
package mmapfile

import (
	"fmt"
	"os"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

type File struct {
	data     []byte
	isClosed atomic.Bool
}

func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		// the mapping outlives the descriptor
		_ = f.Close()
	}()

	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := stats.Size()
	if size == 0 {
		return nil, fmt.Errorf("empty file: %s", path)
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("file too large to map: %s", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap(%s): %w", path, err)
	}

	if err := unix.Madvise(data, syscall.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("madvise: %w", err)
	}

	return &File{data: data}, nil
}

// Data returns the mapped bytes; the slice is invalid after Close.
func (m *File) Data() []byte {
	return m.data
}

func (m *File) Len() int {
	return len(m.data)
}

func (m *File) Close() error {
	if m.isClosed.Swap(true) {
		return nil
	}
	data := m.data
	m.data = nil
	return unix.Munmap(data)
}
