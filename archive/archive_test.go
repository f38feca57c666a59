package archive_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durabackup/dura/archive"
	"github.com/durabackup/dura/archive/band"
	"github.com/durabackup/dura/archivetest"
)

func TestCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	a, err := archive.Create(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, a.Path())

	// The header and block directory are in place.
	data, err := os.ReadFile(filepath.Join(dir, "DURA"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dura_archive_version":"0.6"`)
	fi, err := os.Stat(filepath.Join(dir, "d"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestCreateInExistingEmptyDir(t *testing.T) {
	dir := t.TempDir()
	_, err := archive.Create(dir)
	assert.NoError(t, err)
}

func TestCreateInNonEmptyDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stuff"), nil, 0666))

	_, err := archive.Create(dir)
	assert.ErrorIs(t, err, archive.ErrNotEmpty)
}

func TestOpen(t *testing.T) {
	s := archivetest.New(t)
	a, err := archive.Open(s.Dir)
	require.NoError(t, err)
	assert.Equal(t, s.Dir, a.Path())
}

func TestOpenNotAnArchive(t *testing.T) {
	// An empty directory is not an archive.
	_, err := archive.Open(t.TempDir())
	assert.ErrorIs(t, err, archive.ErrNotAnArchive)

	// Nor is a missing one.
	_, err = archive.Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, archive.ErrNotAnArchive)
}

func TestOpenUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DURA"),
		[]byte(`{"dura_archive_version":"42.1"}`), 0666))

	_, err := archive.Open(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive version")
}

func TestListBandIDs(t *testing.T) {
	s := archivetest.New(t)

	ids, err := s.ListBandIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	s.StoreTwoVersions(t)
	ids, err = s.ListBandIDs()
	require.NoError(t, err)
	assert.Equal(t, []band.ID{band.ID(0), band.ID(1)}, ids)

	next, err := s.NextBandID()
	require.NoError(t, err)
	assert.Equal(t, band.ID(2), next)
}

func TestListBandIDsIgnoresStrays(t *testing.T) {
	s := archivetest.New(t)
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir, "junk"), 0777))

	ids, err := s.ListBandIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLastCompleteBand(t *testing.T) {
	s := archivetest.New(t)

	_, err := s.LastCompleteBand()
	assert.ErrorIs(t, err, archive.ErrArchiveEmpty)

	s.StoreTwoVersions(t)
	b, err := s.LastCompleteBand()
	require.NoError(t, err)
	assert.Equal(t, band.ID(1), b.ID())

	// An unclosed band is skipped.
	_, err = s.CreateBand()
	require.NoError(t, err)
	b, err = s.LastCompleteBand()
	require.NoError(t, err)
	assert.Equal(t, band.ID(1), b.ID())
}

func TestReferencedBlocks(t *testing.T) {
	s := archivetest.New(t)
	s.StoreTwoVersions(t)

	referenced, err := s.ReferencedBlocks()
	require.NoError(t, err)
	names, err := s.BlockDir().BlockNames()
	require.NoError(t, err)
	assert.Equal(t, len(names), len(referenced))
	for _, name := range names {
		assert.Contains(t, referenced, name)
	}

	unref, err := s.UnreferencedBlocks()
	require.NoError(t, err)
	assert.Empty(t, unref)
}

func TestUnreferencedBlocks(t *testing.T) {
	s := archivetest.New(t)
	hash, _, _, err := s.BlockDir().Store([]byte("orphan"))
	require.NoError(t, err)

	unref, err := s.UnreferencedBlocks()
	require.NoError(t, err)
	assert.Equal(t, []string{hash}, unref)
}

func TestDescribe(t *testing.T) {
	s := archivetest.New(t)
	s.StoreTwoVersions(t)

	var buf bytes.Buffer
	require.NoError(t, s.Describe(&buf))
	out := buf.String()
	assert.Contains(t, out, s.Dir)
	assert.Contains(t, out, "Format version:    0.6")
	assert.Contains(t, out, "Backup versions:   2")
	assert.Contains(t, out, "b0001 (complete)")
	assert.Contains(t, out, "Stored blocks:")
}
