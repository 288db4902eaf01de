// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFindCandidate_Exact(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "icons.db"))

	got := FindCandidate(dir, IconDBCandidates)
	assert.Equal(t, filepath.Join(dir, "icons.db"), got)
}

func TestFindCandidate_CaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Titles.JSON"))

	got := FindCandidate(dir, TitlesJSONCandidates)
	assert.Equal(t, filepath.Join(dir, "Titles.JSON"), got)
}

func TestFindCandidate_Recursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "nested", "deeper", "icon.db"))

	got := FindCandidate(dir, IconDBCandidates)
	assert.Equal(t, filepath.Join(dir, "nested", "deeper", "icon.db"), got)
}

func TestFindCandidate_PrefersMoreSpecificName(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "titles.json"))
	touch(t, filepath.Join(dir, "titles.US.en.json"))

	got := FindCandidate(dir, TitlesJSONCandidates)
	assert.Equal(t, filepath.Join(dir, "titles.US.en.json"), got)
}

func TestFindCandidate_Missing(t *testing.T) {
	assert.Equal(t, "", FindCandidate(t.TempDir(), IconDBCandidates))
	assert.Equal(t, "", FindCandidate(filepath.Join(t.TempDir(), "nope"), IconDBCandidates))
}
