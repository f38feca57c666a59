package transport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalReadWrite(t *testing.T) {
	l := NewLocal(t.TempDir())

	err := l.WriteFile("sub/dir/file", []byte("potato"))
	require.NoError(t, err)

	data, err := l.ReadFile("sub/dir/file")
	require.NoError(t, err)
	assert.Equal(t, "potato", string(data))

	_, err = l.ReadFile("missing")
	assert.True(t, os.IsNotExist(err))
}

func TestLocalWriteLeavesNoTemporaries(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir)

	require.NoError(t, l.WriteFile("file", []byte("hello")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "file", entries[0].Name())
}

func TestLocalListDir(t *testing.T) {
	l := NewLocal(t.TempDir())

	require.NoError(t, l.Mkdir("b"))
	require.NoError(t, l.Mkdir("a"))
	require.NoError(t, l.WriteFile("zz", nil))
	require.NoError(t, l.WriteFile("aa", nil))

	files, dirs, err := l.ListDir("")
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "zz"}, files)
	assert.Equal(t, []string{"a", "b"}, dirs)
}

func TestLocalMkdirExisting(t *testing.T) {
	l := NewLocal(t.TempDir())
	require.NoError(t, l.Mkdir("d"))
	assert.NoError(t, l.Mkdir("d"))
}

func TestLocalExists(t *testing.T) {
	l := NewLocal(t.TempDir())

	ok, err := l.Exists("nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.WriteFile("yes", nil))
	ok, err = l.Exists("yes")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalSub(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir)
	sub := l.Sub("inner")

	require.NoError(t, sub.WriteFile("file", []byte("x")))

	data, err := os.ReadFile(filepath.Join(dir, "inner", "file"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.Equal(t, filepath.Join(dir, "inner"), sub.Root())
}
