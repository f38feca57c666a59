package archive_test

import (
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durabackup/dura/archive"
	"github.com/durabackup/dura/archive/band"
	"github.com/durabackup/dura/archive/index"
	"github.com/durabackup/dura/archivetest"
)

func storedApaths(t *testing.T, st *archive.StoredTree) []string {
	var apaths []string
	it := st.Iter()
	for it.Scan() {
		apaths = append(apaths, string(it.Entry().Apath))
	}
	require.NoError(t, it.Err())
	return apaths
}

func TestOpenStoredTree(t *testing.T) {
	s := archivetest.New(t)
	s.StoreTwoVersions(t)

	st, err := s.OpenStoredTree(archive.BandSelection{})
	require.NoError(t, err)
	assert.Equal(t, band.ID(1), st.Band().ID())

	expected := []string{"/", "/hello", "/hello2", "/subdir", "/subdir/subfile"}
	if archivetest.SymlinksSupported() {
		expected = []string{"/", "/hello", "/hello2", "/link", "/subdir", "/subdir/subfile"}
	}
	assert.Equal(t, expected, storedApaths(t, st))
}

func TestOpenStoredTreeEmptyArchive(t *testing.T) {
	s := archivetest.New(t)
	_, err := s.OpenStoredTree(archive.BandSelection{})
	assert.ErrorIs(t, err, archive.ErrArchiveEmpty)

	_, err = s.OpenStoredTree(archive.BandSelection{AllowIncomplete: true})
	assert.ErrorIs(t, err, archive.ErrArchiveEmpty)
}

func TestOpenStoredTreeSpecificBand(t *testing.T) {
	s := archivetest.New(t)
	s.StoreTwoVersions(t)

	id := band.ID(0)
	st, err := s.OpenStoredTree(archive.BandSelection{Band: &id})
	require.NoError(t, err)
	assert.Equal(t, band.ID(0), st.Band().ID())

	// The first version still has the original file content even
	// though it changed before the second backup.
	data := readStoredFile(t, st, "/hello")
	assert.Equal(t, "hello world", data)

	st, err = s.OpenStoredTree(archive.BandSelection{})
	require.NoError(t, err)
	assert.Equal(t, "changed", readStoredFile(t, st, "/hello"))
}

func TestOpenStoredTreeIncomplete(t *testing.T) {
	s := archivetest.New(t)
	s.StoreTwoVersions(t)
	// Leave an unfinished band at the end.
	_, err := s.CreateBand()
	require.NoError(t, err)

	// By default the incomplete band is skipped.
	st, err := s.OpenStoredTree(archive.BandSelection{})
	require.NoError(t, err)
	assert.Equal(t, band.ID(1), st.Band().ID())

	// Asking for it explicitly without AllowIncomplete is an error.
	id := band.ID(2)
	_, err = s.OpenStoredTree(archive.BandSelection{Band: &id})
	assert.Error(t, err)

	// With AllowIncomplete the unfinished band can be read.
	st, err = s.OpenStoredTree(archive.BandSelection{AllowIncomplete: true})
	require.NoError(t, err)
	assert.Equal(t, band.ID(2), st.Band().ID())
	assert.Empty(t, storedApaths(t, st))
}

func readStoredFile(t *testing.T, st *archive.StoredTree, ap string) string {
	it := st.Iter()
	for it.Scan() {
		e := it.Entry()
		if string(e.Apath) != ap {
			continue
		}
		r, err := st.FileContents(e)
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		return string(data)
	}
	require.NoError(t, it.Err())
	t.Fatalf("%q not found in stored tree", ap)
	return ""
}

func TestFileContentsAddressPastBlockEnd(t *testing.T) {
	s := archivetest.New(t)
	s.StoreTwoVersions(t)

	st, err := s.OpenStoredTree(archive.BandSelection{})
	require.NoError(t, err)
	var e index.Entry
	it := st.Iter()
	for it.Scan() {
		if cand := it.Entry(); len(cand.Addrs) > 0 {
			e = cand
			break
		}
	}
	require.NotEmpty(t, e.Addrs)

	// A start so large that adding the length wraps around uint64
	// must be an error, not a silent out of range slice.
	e.Addrs[0].Start = math.MaxUint64
	e.Addrs[0].Len = 2
	r, err := st.FileContents(e)
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	assert.Error(t, err)
}

func TestFileContentsOfDir(t *testing.T) {
	s := archivetest.New(t)
	s.StoreTwoVersions(t)

	st, err := s.OpenStoredTree(archive.BandSelection{})
	require.NoError(t, err)
	it := st.Iter()
	require.True(t, it.Scan())
	root := it.Entry()
	_, err = st.FileContents(root)
	assert.Error(t, err)
}
