// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package iconpack

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/cyberfoil/offlinedb/internal/packfile"
	"github.com/cyberfoil/offlinedb/internal/titleid"
)

const (
	writeBufferSize = 4 * 1024 * 1024

	// progressEvery is how often Add emits a progress log line.
	progressEvery = 1000
)

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

// pendingEntry remembers where a payload landed in the spool file; final
// data-region offsets are assigned after sorting.
type pendingEntry struct {
	key      uint64
	ext      string
	spoolOff uint64
	size     uint32
}

// Builder streams icon payloads to a temporary spool file while accumulating
// an in-memory entry table, so peak memory is bounded by the number of
// entries rather than total payload bytes.  Finalize sorts the entries,
// assigns final offsets and writes header + entries + payloads, then renames
// the pack into place.  The spool file is removed on every exit path.
type Builder struct {
	resultPath string
	outFile    *os.File
	spool      *os.File
	spoolW     *bufio.Writer
	entries    []pendingEntry
	spooled    uint64
	logger     *slog.Logger
	finished   bool
}

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
	outFile, err := os.CreateTemp(dir, "iconpack.*.tmp")
	if err != nil {
		return nil, fmt.Errorf("CreateTemp failed (may need permissions for dir %q): %w", dir, err)
	}
	spool, err := os.CreateTemp(dir, "iconpack.*.spool")
	if err != nil {
		_ = outFile.Close()
		_ = os.Remove(outFile.Name())
		return nil, fmt.Errorf("CreateTemp spool: %w", err)
	}

	return &Builder{
		resultPath: resultPath,
		outFile:    outFile,
		spool:      spool,
		spoolW:     bufio.NewWriterSize(spool, writeBufferSize),
		logger:     options.logger,
	}, nil
}

// Add appends one source row.  Nil or empty payloads never produce an entry.
// Duplicate keys are legal; all entries for a key are retained in encounter
// order.
func (b *Builder) Add(titleID, format string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	if int64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("icon payload for %q too large: %d bytes", titleID, len(payload))
	}

	key, err := titleid.Key(titleID)
	if err != nil {
		return fmt.Errorf("title id %q: %w", titleID, err)
	}

	if _, err := b.spoolW.Write(payload); err != nil {
		return fmt.Errorf("spool write: %w", err)
	}
	b.entries = append(b.entries, pendingEntry{
		key:      key,
		ext:      NormalizeExt(format),
		spoolOff: b.spooled,
		size:     uint32(len(payload)),
	})
	b.spooled += uint64(len(payload))

	if len(b.entries)%progressEvery == 0 {
		b.logger.Info("packed icons", "count", len(b.entries))
	}
	return nil
}

// Finalize emits the pack and returns the number of entries written.
func (b *Builder) Finalize() (n int, err error) {
	if b.finished {
		return 0, fmt.Errorf("iconpack: Finalize called twice")
	}
	b.finished = true

	defer b.removeSpool()
	defer func() {
		if err != nil {
			_ = b.outFile.Close()
			_ = os.Remove(b.outFile.Name())
		}
	}()

	if err := b.spoolW.Flush(); err != nil {
		return 0, fmt.Errorf("spool flush: %w", err)
	}

	// ties keep encounter order so duplicate icons for one key are stable
	sort.SliceStable(b.entries, func(i, j int) bool {
		return b.entries[i].key < b.entries[j].key
	})

	w := bufio.NewWriterSize(b.outFile, writeBufferSize)

	h := packfile.NewHeader(Magic, EntrySize, uint32(len(b.entries)))
	if _, err := h.WriteTo(w); err != nil {
		return 0, fmt.Errorf("header.WriteTo: %w", err)
	}

	// data-region offsets follow sorted order, not spool order
	var buf [EntrySize]byte
	var dataOff uint64
	for _, pe := range b.entries {
		e := Entry{
			Key:      pe.key,
			DataOff:  dataOff,
			DataSize: pe.size,
			Ext:      pe.ext,
		}
		e.marshalTo(buf[:])
		if _, err := w.Write(buf[:]); err != nil {
			return 0, fmt.Errorf("write entry: %w", err)
		}
		dataOff += uint64(pe.size)
	}

	for _, pe := range b.entries {
		sr := io.NewSectionReader(b.spool, int64(pe.spoolOff), int64(pe.size))
		if _, err := io.Copy(w, sr); err != nil {
			return 0, fmt.Errorf("copy payload: %w", err)
		}
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

	b.logger.Info("wrote icon pack", "path", b.resultPath, "entries", len(b.entries), "dataBytes", dataOff)
	return len(b.entries), nil
}

// Discard removes the spool and the partially written temp file.  Safe to
// call after a failed (or never reached) Finalize; a no-op after success.
func (b *Builder) Discard() {
	if b.finished {
		return
	}
	b.finished = true
	b.removeSpool()
	_ = b.outFile.Close()
	_ = os.Remove(b.outFile.Name())
}

// removeSpool is best-effort; cleanup errors are ignored.
func (b *Builder) removeSpool() {
	if b.spool == nil {
		return
	}
	_ = b.spool.Close()
	_ = os.Remove(b.spool.Name())
	b.spool = nil
}
