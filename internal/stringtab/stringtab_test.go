// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package stringtab

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAt decodes the NUL-terminated string starting at off, the way the
// consuming runtime does.
func readAt(blob []byte, off uint32) string {
	end := bytes.IndexByte(blob[off:], 0)
	if end < 0 {
		return ""
	}
	return string(blob[off : int(off)+end])
}

func TestTable_EmptyIsZero(t *testing.T) {
	tab := New()
	assert.Equal(t, uint32(0), tab.Intern(""))
	assert.Equal(t, []byte{0}, tab.Bytes())
	assert.Equal(t, 1, tab.Len())
}

func TestTable_RoundTrip(t *testing.T) {
	tab := New()

	values := []string{"Foo", "Bar", "日本語タイトル", "Foo Bar"}
	offs := make([]uint32, len(values))
	for i, v := range values {
		offs[i] = tab.Intern(v)
		require.NotZero(t, offs[i])
	}

	blob := tab.Bytes()
	for i, v := range values {
		assert.Equal(t, v, readAt(blob, offs[i]))
	}
}

func TestTable_Dedupes(t *testing.T) {
	tab := New()

	first := tab.Intern("Nintendo")
	lenAfterFirst := tab.Len()

	// same value again must not grow the blob
	assert.Equal(t, first, tab.Intern("Nintendo"))
	assert.Equal(t, lenAfterFirst, tab.Len())

	// exact-match interning only: a prefix is its own entry
	prefix := tab.Intern("Nin")
	assert.NotEqual(t, first, prefix)
	assert.Greater(t, tab.Len(), lenAfterFirst)
}

func TestTable_LayoutIsInsertionOrder(t *testing.T) {
	tab := New()
	a := tab.Intern("a")
	b := tab.Intern("bb")
	c := tab.Intern("ccc")

	assert.Equal(t, uint32(1), a)
	assert.Equal(t, uint32(3), b)
	assert.Equal(t, uint32(6), c)
	assert.Equal(t, []byte("\x00a\x00bb\x00ccc\x00"), tab.Bytes())
}
