// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package titleid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"0100000000010000", "0100000000010000"},
		{"0x0100000000010000", "0100000000010000"},
		{"ABCDEF", "0000000000abcdef"},
		{"0xAB", "00000000000000ab"},
		{"  1  ", "0000000000000001"},
	}
	for _, c := range cases {
		got, err := Normalize(c.raw)
		require.NoError(t, err, c.raw)
		assert.Equal(t, c.want, got, c.raw)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range []string{"1", "0xAB", "0100000000010000", "ffffffffffffffff"} {
		once, err := Normalize(raw)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"0x",
		"xyz",
		"01000000000100zz",
		"00100000000010000",  // 17 digits
		"0x00100000000010000",
	} {
		_, err := Normalize(raw)
		assert.ErrorIs(t, err, ErrInvalid, raw)
		_, err = Key(raw)
		assert.ErrorIs(t, err, ErrInvalid, raw)
	}
}

func TestKey(t *testing.T) {
	k, err := Key("0x0100000000010000")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0100000000010000), k)

	k, err = Key("ffffffffffffffff")
	require.NoError(t, err)
	assert.Equal(t, uint64(0xffffffffffffffff), k)

	k, err = Key("ab")
	require.NoError(t, err)
	assert.Equal(t, uint64(0xab), k)
}
