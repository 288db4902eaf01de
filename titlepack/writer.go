// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package titlepack

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/cyberfoil/offlinedb/internal/packfile"
	"github.com/cyberfoil/offlinedb/internal/stringtab"
	"github.com/cyberfoil/offlinedb/internal/titleid"
)

const writeBufferSize = 1 * 1024 * 1024

// BuilderOption configures the Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	logger *slog.Logger
}

// WithLogger sets an optional logger the builder uses for progress updates.
// If not provided, no logging output is produced.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(opts *builderOptions) {
		opts.logger = logger
	}
}

// row is a surviving source entry before sorting and string interning.
// Scalars use -1 as the absent sentinel, matching the original loose typing.
type row struct {
	key         uint64
	name        string
	publisher   string
	intro       string
	description string
	size        int64
	version     int64
	releaseDate int64
	isDemo      int8
}

func (r row) empty() bool {
	return r.name == "" && r.publisher == "" && r.intro == "" && r.description == "" &&
		r.size < 0 && r.version < 0 && r.releaseDate < 0 && r.isDemo < 0
}

// Builder accumulates title metadata in memory and emits a sorted pack.
// Building should happen once; the builder is not reusable after Finalize.
type Builder struct {
	resultPath string
	outFile    *os.File
	strings    *stringtab.Table
	rows       []row
	byKey      map[uint64]int
	logger     *slog.Logger
	finished   bool
}

// NewBuilder creates a Builder that writes to a temp file next to resultPath
// and atomically renames it into place at Finalize.
func NewBuilder(resultPath string, opts ...BuilderOption) (*Builder, error) {
	var options builderOptions
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&options)
	}

	resultPath, err := filepath.Abs(resultPath)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(resultPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll(%q): %w", dir, err)
	}
	outFile, err := os.CreateTemp(dir, "titlepack.*.tmp")
	if err != nil {
		return nil, fmt.Errorf("CreateTemp failed (may need permissions for dir %q): %w", dir, err)
	}

	return &Builder{
		resultPath: resultPath,
		outFile:    outFile,
		strings:    stringtab.New(),
		byKey:      make(map[uint64]int),
		logger:     options.logger,
	}, nil
}

// Add resolves and coerces one source entry.  rawID is the map key from the
// source object; an explicit "id" field in fields takes precedence.  Fields
// of unexpected type degrade to absent; an entry with every field absent is
// dropped.  Only an unparseable identifier is an error.
func (b *Builder) Add(rawID string, fields map[string]any) error {
	if id, ok := fields["id"].(string); ok && id != "" {
		rawID = id
	}
	key, err := titleid.Key(rawID)
	if err != nil {
		return fmt.Errorf("title id %q: %w", rawID, err)
	}

	r := row{
		key:         key,
		name:        asString(fields["name"]),
		publisher:   asString(fields["publisher"]),
		intro:       asString(fields["intro"]),
		description: asString(fields["description"]),
		size:        asNonNegInt(fields["size"], math.MaxInt64),
		version:     asNonNegInt(fields["version"], math.MaxUint32),
		releaseDate: asNonNegInt(fields["releaseDate"], math.MaxUint32),
		isDemo:      asTriBool(fields["isDemo"]),
	}
	if r.empty() {
		return nil
	}

	// normalized key collisions keep the later entry
	if i, ok := b.byKey[key]; ok {
		b.logger.Debug("duplicate title key, keeping later entry", "key", fmt.Sprintf("%016x", key))
		b.rows[i] = r
		return nil
	}
	b.byKey[key] = len(b.rows)
	b.rows = append(b.rows, r)
	return nil
}

// Finalize sorts the surviving records, interns their strings and writes
// header + records + string blob, then renames the pack into place.  It
// returns the number of records written.
func (b *Builder) Finalize() (n int, err error) {
	if b.finished {
		return 0, fmt.Errorf("titlepack: Finalize called twice")
	}
	b.finished = true

	defer func() {
		if err != nil {
			_ = b.outFile.Close()
			_ = os.Remove(b.outFile.Name())
		}
	}()

	sort.Slice(b.rows, func(i, j int) bool {
		return b.rows[i].key < b.rows[j].key
	})

	w := bufio.NewWriterSize(b.outFile, writeBufferSize)

	h := packfile.NewHeader(Magic, RecordSize, uint32(len(b.rows)))
	if _, err := h.WriteTo(w); err != nil {
		return 0, fmt.Errorf("header.WriteTo: %w", err)
	}

	var buf [RecordSize]byte
	for _, r := range b.rows {
		rec := Record{
			Key:    r.key,
			IsDemo: -1,
		}
		if r.name != "" {
			rec.NameOff = b.strings.Intern(r.name)
			rec.Flags |= FlagHasName
		}
		if r.publisher != "" {
			rec.PublisherOff = b.strings.Intern(r.publisher)
			rec.Flags |= FlagHasPublisher
		}
		if r.intro != "" {
			rec.IntroOff = b.strings.Intern(r.intro)
			rec.Flags |= FlagHasIntro
		}
		if r.description != "" {
			rec.DescriptionOff = b.strings.Intern(r.description)
			rec.Flags |= FlagHasDescription
		}
		if r.size >= 0 {
			rec.Size = uint64(r.size)
			rec.Flags |= FlagHasSize
		}
		if r.version >= 0 {
			rec.Version = uint32(r.version)
			rec.Flags |= FlagHasVersion
		}
		if r.releaseDate >= 0 {
			rec.ReleaseDate = uint32(r.releaseDate)
			rec.Flags |= FlagHasReleaseDate
		}
		if r.isDemo >= 0 {
			rec.IsDemo = int32(r.isDemo)
			rec.Flags |= FlagHasIsDemo
		}

		rec.marshalTo(buf[:])
		if _, err := w.Write(buf[:]); err != nil {
			return 0, fmt.Errorf("write record: %w", err)
		}
	}

	if _, err := w.Write(b.strings.Bytes()); err != nil {
		return 0, fmt.Errorf("write string blob: %w", err)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("bufio.Flush: %w", err)
	}
	if err := b.outFile.Sync(); err != nil {
		return 0, fmt.Errorf("f.Sync: %w", err)
	}
	if err := b.outFile.Close(); err != nil {
		return 0, fmt.Errorf("f.Close: %w", err)
	}
	if err := os.Rename(b.outFile.Name(), b.resultPath); err != nil {
		return 0, fmt.Errorf("os.Rename: %w", err)
	}

	b.logger.Info("wrote title pack", "path", b.resultPath, "records", len(b.rows), "stringBytes", b.strings.Len())
	return len(b.rows), nil
}

// Discard removes the partially written temp file.  Safe to call after a
// failed (or never reached) Finalize; a no-op after success.
func (b *Builder) Discard() {
	if b.finished {
		return
	}
	b.finished = true
	_ = b.outFile.Close()
	_ = os.Remove(b.outFile.Name())
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asNonNegInt accepts only integral, non-negative JSON numbers that fit the
// field's on-disk width; anything else (floats, strings, bools, null,
// out-of-range values) is absent.  Callers must decode the source with
// json.Decoder.UseNumber for this to see json.Number values.
func asNonNegInt(v any, limit int64) int64 {
	num, ok := v.(json.Number)
	if !ok {
		return -1
	}
	n, err := num.Int64()
	if err != nil || n < 0 || n > limit {
		return -1
	}
	return n
}

func asTriBool(v any) int8 {
	b, ok := v.(bool)
	if !ok {
		return -1
	}
	if b {
		return 1
	}
	return 0
}
