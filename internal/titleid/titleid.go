// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package titleid canonicalizes raw title identifiers.  Both pack builders
// key on the same normalization so one logical title maps to the same 64-bit
// key in every pack.
package titleid

import (
	"errors"
	"strconv"
	"strings"
)

// Width is the canonical identifier width in hex digits.
const Width = 16

var ErrInvalid = errors.New("invalid title id")

// Normalize lowercases a raw identifier, strips an optional 0x prefix and
// left-pads with zeroes to 16 hex digits.  Identifiers longer than 16 digits
// or containing non-hex characters are rejected, never truncated.  The empty
// identifier is rejected too: padding it to all zeroes would silently invent
// title key 0 for rows whose id column is blank.
func Normalize(raw string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.TrimPrefix(v, "0x")
	if len(v) == 0 || len(v) > Width {
		return "", ErrInvalid
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", ErrInvalid
		}
	}
	if len(v) < Width {
		v = strings.Repeat("0", Width-len(v)) + v
	}
	return v, nil
}

// Key normalizes raw and parses it as an unsigned 64-bit key.
func Key(raw string) (uint64, error) {
	v, err := Normalize(raw)
	if err != nil {
		return 0, err
	}
	k, err := strconv.ParseUint(v, 16, 64)
	if err != nil {
		// unreachable after Normalize, but don't mask it
		return 0, ErrInvalid
	}
	return k, nil
}
