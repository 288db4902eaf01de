// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package discover locates source artefacts (icon.db, titles json) under a
// directory when no explicit path is given.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IconDBCandidates are the recognized icon database file names.
var IconDBCandidates = []string{
	"icon.db",
	"icons.db",
}

// TitlesJSONCandidates are the recognized title metadata file names, most
// specific first.
var TitlesJSONCandidates = []string{
	"titles.US.en.json",
	"titles.us.en.json",
	"title.US.en.json",
	"title.us.en.json",
	"titles.en.json",
	"titles.json",
}

// FindCandidate returns the path of the first candidate found in dir: an
// exact name in dir itself, then a case-insensitive match in dir, then a
// case-insensitive match anywhere below it.  Returns "" when nothing matches.
func FindCandidate(dir string, candidates []string) string {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
			return path
		}
	}

	lower := make(map[string]bool, len(candidates))
	for _, name := range candidates {
		lower[strings.ToLower(name)] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.Type().IsRegular() && lower[strings.ToLower(e.Name())] {
			return filepath.Join(dir, e.Name())
		}
	}

	var matches []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() && lower[strings.ToLower(d.Name())] {
			matches = append(matches, path)
		}
		return nil
	})
	sort.Strings(matches)
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}
