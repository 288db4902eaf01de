// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package titlepack

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/cyberfoil/offlinedb/internal/mmapfile"
	"github.com/cyberfoil/offlinedb/internal/packfile"
)

// Reader is a random-access view over an emitted title pack.  Records are
// sorted by key, so Lookup is a binary search over the mapped array region.
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
		return nil, fmt.Errorf("titlepack.Open(%s): %w", path, err)
	}
	if h.Stride != RecordSize {
		_ = m.Close()
		return nil, fmt.Errorf("titlepack.Open(%s): unsupported stride %d", path, h.Stride)
	}
	if uint64(m.Len()) < h.TrailerOff {
		_ = m.Close()
		return nil, fmt.Errorf("titlepack.Open(%s): truncated: %d < %d", path, m.Len(), h.TrailerOff)
	}

	return &Reader{h: h, mmap: m}, nil
}

func (r *Reader) Count() int {
	return int(r.h.Count)
}

// Record returns the i'th record in key order.
func (r *Reader) Record(i int) Record {
	off := packfile.HeaderSize + i*RecordSize
	return unmarshalRecord(r.mmap.Data()[off : off+RecordSize])
}

// Lookup binary-searches for key.
func (r *Reader) Lookup(key uint64) (Record, bool) {
	n := r.Count()
	i := sort.Search(n, func(i int) bool {
		return r.Record(i).Key >= key
	})
	if i < n {
		if rec := r.Record(i); rec.Key == key {
			return rec, true
		}
	}
	return Record{}, false
}

// String resolves a record's string offset against the trailer blob.
// Offset 0 and out-of-range offsets resolve to the empty string.
func (r *Reader) String(off uint32) string {
	if off == 0 {
		return ""
	}
	blob := r.mmap.Data()[r.h.TrailerOff:]
	if uint64(off) >= uint64(len(blob)) {
		return ""
	}
	end := bytes.IndexByte(blob[off:], 0)
	if end < 0 {
		return ""
	}
	return string(blob[off : int(off)+end])
}

func (r *Reader) Close() error {
	return r.mmap.Close()
}
