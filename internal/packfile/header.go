// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package packfile holds the fixed 32-byte header shared by both pack
// formats: an 8-byte ASCII magic, a format version, the stride and count of
// the fixed-size element array, a reserved word, and the byte offset of the
// variable trailer.  The trailer offset is always 32 + count*stride, but it
// is persisted so readers never have to recompute it.
package packfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderSize is the on-disk size of a pack header.
	HeaderSize = 32

	formatVersion = 1
)

type Header struct {
	Magic      [8]byte
	Version    uint32
	Stride     uint32
	Count      uint32
	Reserved   uint32
	TrailerOff uint64
}

// NewHeader returns a version-1 header for count elements of the given
// stride, with the trailer offset already computed.
func NewHeader(magic string, stride, count uint32) Header {
	h := Header{
		Version:    formatVersion,
		Stride:     stride,
		Count:      count,
		TrailerOff: HeaderSize + uint64(count)*uint64(stride),
	}
	copy(h.Magic[:], magic)
	return h
}

func (h *Header) MarshalTo(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("header buffer too short: %d < %d", len(buf), HeaderSize)
	}

	copy(buf[0:8], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[8:12], h.Version)
	binary.LittleEndian.PutUint32(buf[12:16], h.Stride)
	binary.LittleEndian.PutUint32(buf[16:20], h.Count)
	binary.LittleEndian.PutUint32(buf[20:24], h.Reserved)
	binary.LittleEndian.PutUint64(buf[24:32], h.TrailerOff)

	return nil
}

func (h *Header) WriteTo(w io.Writer) (int64, error) {
	var buf [HeaderSize]byte
	if err := h.MarshalTo(buf[:]); err != nil {
		return 0, err
	}
	if _, err := w.Write(buf[:]); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	return int64(HeaderSize), nil
}

// UnmarshalBytes decodes and validates a header, checking the expected magic
// tag and format version.
func (h *Header) UnmarshalBytes(buf []byte, magic string) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("header too short: %d < %d", len(buf), HeaderSize)
	}

	buf = buf[:HeaderSize]

	copy(h.Magic[:], buf[0:8])
	if string(h.Magic[:]) != magic {
		return fmt.Errorf("bad magic %q on pack file (want %q) -- wrong file or corrupted", h.Magic[:], magic)
	}

	h.Version = binary.LittleEndian.Uint32(buf[8:12])
	if h.Version != formatVersion {
		return fmt.Errorf("can only read v%d pack files; found v%d", formatVersion, h.Version)
	}

	h.Stride = binary.LittleEndian.Uint32(buf[12:16])
	h.Count = binary.LittleEndian.Uint32(buf[16:20])
	h.Reserved = binary.LittleEndian.Uint32(buf[20:24])
	h.TrailerOff = binary.LittleEndian.Uint64(buf[24:32])

	if want := HeaderSize + uint64(h.Count)*uint64(h.Stride); h.TrailerOff != want {
		return fmt.Errorf("trailer offset %d inconsistent with count %d * stride %d", h.TrailerOff, h.Count, h.Stride)
	}

	return nil
}
