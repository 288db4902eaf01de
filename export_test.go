// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package offlinedb

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberfoil/offlinedb/iconpack"
	"github.com/cyberfoil/offlinedb/titlepack"
)

func writeTitlesJSON(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "titles.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func newIconDB(t *testing.T) (string, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "icon.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE images (title_id TEXT, format TEXT, image BLOB)`)
	require.NoError(t, err)
	return path, db
}

func TestExportTitles(t *testing.T) {
	src := writeTitlesJSON(t, `{
		"0100000000010000": {"name": "Foo", "isDemo": true},
		"0200000000020000": {"publisher": "Acme", "size": 4096},
		"0300000000030000": {},
		"0400000000040000": 17
	}`)
	pack := filepath.Join(t.TempDir(), "titles.pack")

	n, err := ExportTitles(src, pack, nil)
	require.NoError(t, err)
	// the all-empty entry and the non-object entry are dropped
	require.Equal(t, 2, n)

	r, err := titlepack.Open(pack)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	rec, ok := r.Lookup(0x0100000000010000)
	require.True(t, ok)
	assert.Equal(t, "Foo", r.String(rec.NameOff))
	assert.Equal(t, int32(1), rec.IsDemo)

	rec, ok = r.Lookup(0x0200000000020000)
	require.True(t, ok)
	assert.Equal(t, "Acme", r.String(rec.PublisherOff))
	assert.Equal(t, uint64(4096), rec.Size)
}

func TestExportTitles_DocumentOrderLastWriteWins(t *testing.T) {
	// both keys normalize to 0xab; document order decides the winner
	src := writeTitlesJSON(t, `{
		"0xAB": {"name": "first"},
		"00000000000000ab": {"name": "second"}
	}`)
	pack := filepath.Join(t.TempDir(), "titles.pack")

	n, err := ExportTitles(src, pack, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	r, err := titlepack.Open(pack)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	rec, ok := r.Lookup(0xab)
	require.True(t, ok)
	assert.Equal(t, "second", r.String(rec.NameOff))
}

func TestExportTitles_Errors(t *testing.T) {
	pack := filepath.Join(t.TempDir(), "titles.pack")

	_, err := ExportTitles(filepath.Join(t.TempDir(), "missing.json"), pack, nil)
	assert.ErrorIs(t, err, ErrInputNotFound)

	_, err = ExportTitles(writeTitlesJSON(t, `["not", "an", "object"]`), pack, nil)
	assert.ErrorIs(t, err, ErrBadShape)

	_, err = ExportTitles(writeTitlesJSON(t, `{`), pack, nil)
	assert.Error(t, err)

	// no pack file may be left behind on failure
	_, err = os.Stat(pack)
	assert.True(t, os.IsNotExist(err))
}

func TestExportIcons(t *testing.T) {
	dbPath, db := newIconDB(t)

	_, err := db.Exec(`INSERT INTO images (title_id, format, image) VALUES
		('0100000000010000', 'JPEG', ?),
		('0100000000010000', 'PNG', ?),
		('0200000000020000', 'gif', ?),
		('0300000000030000', 'png', NULL),
		('0400000000040000', 'png', ?)`,
		[]byte("jpeg-bytes"), []byte("png-bytes"), []byte("gif-bytes"), []byte{})
	require.NoError(t, err)

	pack := filepath.Join(t.TempDir(), "icons.pack")
	n, err := ExportIcons(dbPath, pack, nil)
	require.NoError(t, err)
	// NULL and empty payloads never produce entries
	require.Equal(t, 3, n)

	r, err := iconpack.Open(pack)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	i, ok := r.Lookup(0x0100000000010000)
	require.True(t, ok)
	assert.Equal(t, "jpg", r.Entry(i).Ext)
	assert.Equal(t, "png", r.Entry(i+1).Ext)

	i, ok = r.Lookup(0x0200000000020000)
	require.True(t, ok)
	assert.Equal(t, "bin", r.Entry(i).Ext)
	payload, err := r.Payload(r.Entry(i))
	require.NoError(t, err)
	assert.Equal(t, []byte("gif-bytes"), payload)
}

func TestExportIcons_Errors(t *testing.T) {
	pack := filepath.Join(t.TempDir(), "icons.pack")

	_, err := ExportIcons(filepath.Join(t.TempDir(), "missing.db"), pack, nil)
	assert.ErrorIs(t, err, ErrInputNotFound)

	// a database without the images table is a missing input, not an I/O bug
	empty := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", empty)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE other (x TEXT)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = ExportIcons(empty, pack, nil)
	assert.ErrorIs(t, err, ErrInputNotFound)

	_, err = os.Stat(pack)
	assert.True(t, os.IsNotExist(err))
}

func TestVerifyPacks(t *testing.T) {
	dir := t.TempDir()
	titlesPack := filepath.Join(dir, "titles.pack")
	iconsPack := filepath.Join(dir, "icons.pack")

	_, err := ExportTitles(writeTitlesJSON(t, `{"01": {"name": "Foo"}, "02": {"name": "Bar"}}`), titlesPack, nil)
	require.NoError(t, err)

	dbPath, db := newIconDB(t)
	_, err = db.Exec(`INSERT INTO images (title_id, format, image) VALUES ('02', 'png', ?), ('01', 'jpg', ?)`,
		[]byte("pp"), []byte("jj"))
	require.NoError(t, err)
	_, err = ExportIcons(dbPath, iconsPack, nil)
	require.NoError(t, err)

	require.NoError(t, VerifyPacks(titlesPack, iconsPack))

	// swapping the two files must fail verification
	assert.Error(t, VerifyPacks(iconsPack, titlesPack))
}
