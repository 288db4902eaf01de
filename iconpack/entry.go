// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package iconpack builds and reads icon packs: a 32-byte header, a
// fixed-stride entry array sorted by title key, and a trailer of raw image
// payloads concatenated in entry order.
package iconpack

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// Magic is the 8-byte ASCII tag at the start of every icon pack.
const Magic = "CFICONP1"

// EntrySize is the fixed stride of one entry in the array region.
const EntrySize = 32

// extFieldSize is the fixed on-disk extension field: up to 7 ASCII bytes,
// NUL-padded to 8.
const extFieldSize = 8

// Entry describes one payload in the trailing data region.  DataOff is
// relative to the start of the data region.
type Entry struct {
	Key      uint64
	DataOff  uint64
	DataSize uint32
	Ext      string
	Reserved uint32
}

func (e Entry) marshalTo(buf []byte) {
	_ = buf[EntrySize-1]

	binary.LittleEndian.PutUint64(buf[0:8], e.Key)
	binary.LittleEndian.PutUint64(buf[8:16], e.DataOff)
	binary.LittleEndian.PutUint32(buf[16:20], e.DataSize)
	var ext [extFieldSize]byte
	copy(ext[:extFieldSize-1], e.Ext)
	copy(buf[20:28], ext[:])
	binary.LittleEndian.PutUint32(buf[28:32], e.Reserved)
}

func unmarshalEntry(buf []byte) Entry {
	_ = buf[EntrySize-1]

	ext := buf[20:28]
	if i := bytes.IndexByte(ext, 0); i >= 0 {
		ext = ext[:i]
	}
	return Entry{
		Key:      binary.LittleEndian.Uint64(buf[0:8]),
		DataOff:  binary.LittleEndian.Uint64(buf[8:16]),
		DataSize: binary.LittleEndian.Uint32(buf[16:20]),
		Ext:      string(ext),
		Reserved: binary.LittleEndian.Uint32(buf[28:32]),
	}
}

// NormalizeExt canonicalizes a source format string into the fixed extension
// alphabet; anything unrecognized becomes "bin".
func NormalizeExt(rawFormat string) string {
	switch strings.ToLower(strings.TrimSpace(rawFormat)) {
	case "jpg", "jpeg":
		return "jpg"
	case "png":
		return "png"
	case "webp":
		return "webp"
	case "bmp":
		return "bmp"
	case "tif", "tiff":
		return "tiff"
	default:
		return "bin"
	}
}
