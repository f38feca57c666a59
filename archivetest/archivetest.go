// Package archivetest provides fixtures for testing against archives.
package archivetest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/durabackup/dura/archive"
	"github.com/durabackup/dura/backup"
)

// Scratch is a temporary archive for a test to use.
type Scratch struct {
	*archive.Archive

	// Dir is the directory the archive lives in.
	Dir string
}

// New makes an empty archive in a temporary directory.
func New(t *testing.T) *Scratch {
	dir := filepath.Join(t.TempDir(), "archive")
	a, err := archive.Create(dir)
	require.NoError(t, err)
	return &Scratch{Archive: a, Dir: dir}
}

// SymlinksSupported reports whether the platform can store symlinks.
func SymlinksSupported() bool {
	return os.PathSeparator == '/'
}

// MakeSourceTree writes a small standard source tree and returns its
// root: hello, hello2, subdir/subfile and, where supported, a symlink.
func MakeSourceTree(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello"), []byte("hello world"), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello2"), []byte("contents"), 0666))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subdir", "subfile"), []byte("nested file content"), 0666))
	if SymlinksSupported() {
		require.NoError(t, os.Symlink("target", filepath.Join(dir, "link")))
	}
	return dir
}

// StoreTwoVersions makes two backups of the standard source tree into
// the archive, with a small change in between.
func (s *Scratch) StoreTwoVersions(t *testing.T) {
	source := MakeSourceTree(t)
	_, err := backup.Backup(context.Background(), s.Archive, source, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(source, "hello"), []byte("changed"), 0666))
	_, err = backup.Backup(context.Background(), s.Archive, source, nil)
	require.NoError(t, err)
}
