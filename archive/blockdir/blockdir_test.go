package blockdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durabackup/dura/archive/transport"
)

func testBlockDir(t *testing.T) (*BlockDir, string) {
	dir := t.TempDir()
	b, err := Create(transport.NewLocal(dir))
	require.NoError(t, err)
	return b, dir
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	// BLAKE2b-512 in hex
	assert.Len(t, h, 128)
	assert.Equal(t, h, Hash([]byte("hello")))
	assert.NotEqual(t, h, Hash([]byte("goodbye")))
}

func TestStoreGet(t *testing.T) {
	b, dir := testBlockDir(t)

	hash, compressedLen, isNew, err := b.Store([]byte("some file content"))
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Greater(t, compressedLen, uint64(0))

	// Block lives in a subdirectory named by the hash prefix.
	_, err = os.Stat(filepath.Join(dir, hash[:3], hash))
	assert.NoError(t, err)

	data, err := b.Get(hash)
	require.NoError(t, err)
	assert.Equal(t, "some file content", string(data))
}

func TestStoreDeduplicates(t *testing.T) {
	b, _ := testBlockDir(t)

	hash1, _, isNew, err := b.Store([]byte("same content"))
	require.NoError(t, err)
	assert.True(t, isNew)

	hash2, _, isNew, err := b.Store([]byte("same content"))
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, hash1, hash2)

	names, err := b.BlockNames()
	require.NoError(t, err)
	assert.Equal(t, []string{hash1}, names)
}

func TestGetMissing(t *testing.T) {
	b, _ := testBlockDir(t)
	hash := Hash([]byte("never stored"))
	_, err := b.Get(hash)
	assert.Error(t, err)
}

func TestGetCorrupt(t *testing.T) {
	b, dir := testBlockDir(t)

	hash, _, _, err := b.Store([]byte("good content"))
	require.NoError(t, err)

	// Overwrite with a valid block of the wrong content.
	other, _, _, err := b.Store([]byte("other content"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, other[:3], other))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, hash[:3], hash), data, 0666))

	_, err = b.Get(hash)
	assert.ErrorIs(t, err, ErrBlockCorrupt)
}

func TestCompressedSize(t *testing.T) {
	b, _ := testBlockDir(t)
	hash, compressedLen, _, err := b.Store([]byte("hello hello hello hello"))
	require.NoError(t, err)

	size, err := b.CompressedSize(hash)
	require.NoError(t, err)
	assert.Equal(t, compressedLen, size)
}

func TestBlockNames(t *testing.T) {
	b, _ := testBlockDir(t)
	var want []string
	for _, content := range []string{"one", "two", "three"} {
		hash, _, _, err := b.Store([]byte(content))
		require.NoError(t, err)
		want = append(want, hash)
	}
	names, err := b.BlockNames()
	require.NoError(t, err)
	assert.ElementsMatch(t, want, names)
}
