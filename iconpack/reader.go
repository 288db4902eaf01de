// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package iconpack

import (
	"fmt"
	"sort"

	"github.com/cyberfoil/offlinedb/internal/mmapfile"
	"github.com/cyberfoil/offlinedb/internal/packfile"
)

// Reader is a random-access view over an emitted icon pack.
type Reader struct {
	h    packfile.Header
	mmap *mmapfile.File
}

func Open(path string) (*Reader, error) {
	m, err := mmapfile.Open(path)
	if err != nil {
		return nil, err
	}

	var h packfile.Header
	if err := h.UnmarshalBytes(m.Data(), Magic); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("iconpack.Open(%s): %w", path, err)
	}
	if h.Stride != EntrySize {
		_ = m.Close()
		return nil, fmt.Errorf("iconpack.Open(%s): unsupported stride %d", path, h.Stride)
	}
	if uint64(m.Len()) < h.TrailerOff {
		_ = m.Close()
		return nil, fmt.Errorf("iconpack.Open(%s): truncated: %d < %d", path, m.Len(), h.TrailerOff)
	}

	return &Reader{h: h, mmap: m}, nil
}

func (r *Reader) Count() int {
	return int(r.h.Count)
}

// DataLen returns the length of the trailing data region in bytes.
func (r *Reader) DataLen() uint64 {
	return uint64(r.mmap.Len()) - r.h.TrailerOff
}

// Entry returns the i'th entry in key order.
func (r *Reader) Entry(i int) Entry {
	off := packfile.HeaderSize + i*EntrySize
	return unmarshalEntry(r.mmap.Data()[off : off+EntrySize])
}

// Lookup binary-searches for key and returns the index of its first entry.
// Duplicate keys are legal; callers can scan forward from i while
// Entry(i).Key == key.
func (r *Reader) Lookup(key uint64) (i int, ok bool) {
	n := r.Count()
	i = sort.Search(n, func(i int) bool {
		return r.Entry(i).Key >= key
	})
	return i, i < n && r.Entry(i).Key == key
}

// Payload returns the data-region bytes for e.  The slice aliases the mapped
// file and is invalid after Close.
func (r *Reader) Payload(e Entry) ([]byte, error) {
	start := r.h.TrailerOff + e.DataOff
	end := start + uint64(e.DataSize)
	if end > uint64(r.mmap.Len()) || end < start {
		return nil, fmt.Errorf("entry range [%d, %d) beyond data region", e.DataOff, end)
	}
	return r.mmap.Data()[start:end], nil
}

func (r *Reader) Close() error {
	return r.mmap.Close()
}
