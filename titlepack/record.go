// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package titlepack builds and reads title metadata packs: a 32-byte header,
// a fixed-stride record array sorted by title key for binary search, and a
// trailer of interned NUL-terminated strings.
package titlepack

import "encoding/binary"

// Magic is the 8-byte ASCII tag at the start of every title pack.
const Magic = "CFTITLE1"

// RecordSize is the fixed stride of one record in the array region.
const RecordSize = 48

// Flag bits marking which optional fields are present on a record.
const (
	FlagHasName uint32 = 1 << iota
	FlagHasPublisher
	FlagHasIntro
	FlagHasDescription
	FlagHasSize
	FlagHasVersion
	FlagHasReleaseDate
	FlagHasIsDemo
)

// Record is one fixed-size title entry.  String fields are offsets into the
// pack's string trailer; offset 0 means absent.  IsDemo is -1 when absent.
type Record struct {
	Key            uint64
	NameOff        uint32
	PublisherOff   uint32
	IntroOff       uint32
	DescriptionOff uint32
	Size           uint64
	Version        uint32
	ReleaseDate    uint32
	IsDemo         int32
	Flags          uint32
}

// Has reports whether the given flag bit is set.
func (r Record) Has(flag uint32) bool {
	return r.Flags&flag != 0
}

func (r Record) marshalTo(buf []byte) {
	_ = buf[RecordSize-1]

	binary.LittleEndian.PutUint64(buf[0:8], r.Key)
	binary.LittleEndian.PutUint32(buf[8:12], r.NameOff)
	binary.LittleEndian.PutUint32(buf[12:16], r.PublisherOff)
	binary.LittleEndian.PutUint32(buf[16:20], r.IntroOff)
	binary.LittleEndian.PutUint32(buf[20:24], r.DescriptionOff)
	binary.LittleEndian.PutUint64(buf[24:32], r.Size)
	binary.LittleEndian.PutUint32(buf[32:36], r.Version)
	binary.LittleEndian.PutUint32(buf[36:40], r.ReleaseDate)
	binary.LittleEndian.PutUint32(buf[40:44], uint32(r.IsDemo))
	binary.LittleEndian.PutUint32(buf[44:48], r.Flags)
}

func unmarshalRecord(buf []byte) Record {
	_ = buf[RecordSize-1]

	return Record{
		Key:            binary.LittleEndian.Uint64(buf[0:8]),
		NameOff:        binary.LittleEndian.Uint32(buf[8:12]),
		PublisherOff:   binary.LittleEndian.Uint32(buf[12:16]),
		IntroOff:       binary.LittleEndian.Uint32(buf[16:20]),
		DescriptionOff: binary.LittleEndian.Uint32(buf[20:24]),
		Size:           binary.LittleEndian.Uint64(buf[24:32]),
		Version:        binary.LittleEndian.Uint32(buf[32:36]),
		ReleaseDate:    binary.LittleEndian.Uint32(buf[36:40]),
		IsDemo:         int32(binary.LittleEndian.Uint32(buf[40:44])),
		Flags:          binary.LittleEndian.Uint32(buf[44:48]),
	}
}
