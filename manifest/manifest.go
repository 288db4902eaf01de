// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package manifest emits the JSON descriptor the offline runtime downloads
// first: per-pack URL, size and sha256 digest, plus a db_version stamp.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Schema is the manifest schema version understood by the runtime.
const Schema = 1

type FileEntry struct {
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

type Manifest struct {
	Schema      int                  `json:"schema"`
	DBVersion   string               `json:"db_version"`
	GeneratedAt string               `json:"generated_at_utc"`
	Files       map[string]FileEntry `json:"files"`
}

var whitespace = regexp.MustCompile(`\s+`)

// normalizeURLToken strips all whitespace; URL fields must not contain any.
func normalizeURLToken(raw string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(raw), "")
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("os.Open: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	digest := sha256.New()
	if _, err := io.Copy(digest, f); err != nil {
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// NewFileEntry hashes and sizes one pack file.
func NewFileEntry(path, url string) (FileEntry, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileEntry{}, fmt.Errorf("os.Stat: %w", err)
	}
	sum, err := hashFile(path)
	if err != nil {
		return FileEntry{}, err
	}
	return FileEntry{URL: url, Size: st.Size(), SHA256: sum}, nil
}

// Build describes the given pack files.  baseURL may be empty, in which case
// URLs are the bare file names.  dbVersion defaults to a UTC timestamp.
func Build(packPaths []string, baseURL, dbVersion string, now time.Time) (Manifest, error) {
	baseURL = strings.TrimSuffix(normalizeURLToken(baseURL), "/")
	now = now.UTC()

	dbVersion = strings.TrimSpace(dbVersion)
	if dbVersion == "" {
		dbVersion = now.Format("20060102150405")
	}

	m := Manifest{
		Schema:      Schema,
		DBVersion:   dbVersion,
		GeneratedAt: now.Format("2006-01-02T15:04:05Z"),
		Files:       make(map[string]FileEntry, len(packPaths)),
	}
	for _, path := range packPaths {
		name := filepath.Base(path)
		url := name
		if baseURL != "" {
			url = baseURL + "/" + name
		}
		entry, err := NewFileEntry(path, url)
		if err != nil {
			return Manifest{}, fmt.Errorf("%s: %w", name, err)
		}
		m.Files[name] = entry
	}
	return m, nil
}

// Write marshals m with two-space indentation and a trailing newline.
func Write(path string, m Manifest) error {
	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}
	buf = append(buf, '\n')
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("os.WriteFile: %w", err)
	}
	return nil
}
