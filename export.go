// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package offlinedb turns a relational icon store and a JSON title-metadata
// index into two compact, randomly-seekable pack files for the offline
// runtime.  See the titlepack and iconpack packages for the container
// formats; this package wires sources to builders.
package offlinedb

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/cyberfoil/offlinedb/iconpack"
	"github.com/cyberfoil/offlinedb/titlepack"
)

var (
	// ErrInputNotFound marks a missing source file or table.
	ErrInputNotFound = errors.New("input not found")
	// ErrBadShape marks source JSON whose top level is not an object.
	ErrBadShape = errors.New("expected top-level JSON object")
)

// ExportTitles builds a title pack from a title-id-keyed JSON object.
// Entries are consumed in document order, so normalized-key collisions
// deterministically keep the last entry.  Returns the record count.
func ExportTitles(titlesJSONPath, packPath string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = discardLogger()
	}
	f, err := os.Open(titlesJSONPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("titles json %q: %w", titlesJSONPath, ErrInputNotFound)
		}
		return 0, fmt.Errorf("os.Open: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	b, err := titlepack.NewBuilder(packPath, titlepack.WithLogger(logger))
	if err != nil {
		return 0, err
	}
	defer b.Discard()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("titles json %q: %w", titlesJSONPath, ErrBadShape)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return 0, fmt.Errorf("titles json %q: %w", titlesJSONPath, ErrBadShape)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return 0, fmt.Errorf("titles json: %w", err)
		}
		key := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return 0, fmt.Errorf("titles json entry %q: %w", key, err)
		}

		entryDec := json.NewDecoder(bytes.NewReader(raw))
		entryDec.UseNumber()
		var entry map[string]any
		if err := entryDec.Decode(&entry); err != nil {
			// non-object values are skipped, matching the source index
			continue
		}

		if err := b.Add(key, entry); err != nil {
			return 0, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return 0, fmt.Errorf("titles json: %w", err)
	}

	return b.Finalize()
}

// ExportIcons builds an icon pack from the images table of a SQLite
// database, streaming each payload through the builder's spool file.
// Returns the entry count.
func ExportIcons(iconDBPath, packPath string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = discardLogger()
	}
	if st, err := os.Stat(iconDBPath); err != nil || !st.Mode().IsRegular() {
		return 0, fmt.Errorf("icon db %q: %w", iconDBPath, ErrInputNotFound)
	}

	db, err := sql.Open("sqlite", iconDBPath)
	if err != nil {
		return 0, fmt.Errorf("sql.Open: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.Query("SELECT title_id, format, image FROM images")
	if err != nil {
		return 0, fmt.Errorf("images table: %w (%w)", ErrInputNotFound, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	b, err := iconpack.NewBuilder(packPath, iconpack.WithLogger(logger))
	if err != nil {
		return 0, err
	}
	defer b.Discard()

	for rows.Next() {
		var titleID, format sql.NullString
		var image []byte
		if err := rows.Scan(&titleID, &format, &image); err != nil {
			return 0, fmt.Errorf("rows.Scan: %w", err)
		}
		if err := b.Add(titleID.String, format.String, image); err != nil {
			return 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("rows.Err: %w", err)
	}

	return b.Finalize()
}

// VerifyPacks re-opens both emitted packs and checks the invariants a
// consuming runtime depends on: parseable self-describing headers, ascending
// key order, and icon extents that tile the data region exactly.
func VerifyPacks(titlesPackPath, iconsPackPath string) error {
	tr, err := titlepack.Open(titlesPackPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = tr.Close()
	}()
	for i := 1; i < tr.Count(); i++ {
		if tr.Record(i-1).Key >= tr.Record(i).Key {
			return fmt.Errorf("%s: records not strictly ascending at %d", titlesPackPath, i)
		}
	}

	ir, err := iconpack.Open(iconsPackPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = ir.Close()
	}()
	var off uint64
	for i := 0; i < ir.Count(); i++ {
		e := ir.Entry(i)
		if i > 0 && ir.Entry(i-1).Key > e.Key {
			return fmt.Errorf("%s: entries not sorted at %d", iconsPackPath, i)
		}
		if e.DataOff != off {
			return fmt.Errorf("%s: entry %d extent starts at %d, want %d", iconsPackPath, i, e.DataOff, off)
		}
		if _, err := ir.Payload(e); err != nil {
			return fmt.Errorf("%s: entry %d: %w", iconsPackPath, i, err)
		}
		off += uint64(e.DataSize)
	}
	if off != ir.DataLen() {
		return fmt.Errorf("%s: data region %d bytes, entries cover %d", iconsPackPath, ir.DataLen(), off)
	}

	return nil
}

// discardLogger is the default for callers that pass a nil logger.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
