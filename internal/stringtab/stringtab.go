// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package stringtab builds the string trailer of a title pack: a blob of
// NUL-terminated UTF-8 strings where each distinct value is stored exactly
// once.  Offset 0 is reserved to mean empty/absent, so the blob always starts
// with a single NUL byte.
package stringtab

// Table interns strings for a single builder invocation; it is owned by the
// builder and discarded with it.
type Table struct {
	blob    []byte
	offsets map[string]uint32
}

func New() *Table {
	return &Table{
		blob:    []byte{0},
		offsets: map[string]uint32{"": 0},
	}
}

// Intern returns the blob offset for value, appending it if unseen.  The
// empty string always maps to offset 0 without touching the blob.
func (t *Table) Intern(value string) uint32 {
	if off, ok := t.offsets[value]; ok {
		return off
	}
	off := uint32(len(t.blob))
	t.blob = append(t.blob, value...)
	t.blob = append(t.blob, 0)
	t.offsets[value] = off
	return off
}

// Bytes returns the accumulated blob.  Offsets handed out by Intern remain
// valid for the lifetime of the table.
func (t *Table) Bytes() []byte {
	return t.blob
}

func (t *Table) Len() int {
	return len(t.blob)
}
