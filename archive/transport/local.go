package transport

import (
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/durabackup/dura/lib/random"
)

// Temporary files have this prefix.  Anything carrying it is not yet
// part of the archive and can be cleaned up.
const tmpPrefix = "tmp"

// Local is a Transport on the local filesystem.
type Local struct {
	root string
}

// NewLocal makes a Transport rooted at the directory dir.
//
// The directory need not exist yet.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// Root returns the directory this transport is rooted at.
func (l *Local) Root() string {
	return l.root
}

// fullPath converts a transport relative name to an OS path.
func (l *Local) fullPath(name string) string {
	if name == "" {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(name))
}

// ReadFile returns the entire contents of the named file.
func (l *Local) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(l.fullPath(name))
}

// WriteFile writes data to the named file via a temporary file and
// rename, so a crash can't leave a half written file in the archive.
func (l *Local) WriteFile(name string, data []byte) error {
	full := l.fullPath(name)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.Wrapf(err, "failed to make directory %q", dir)
	}
	tmp := filepath.Join(dir, tmpPrefix+random.String(8))
	if err := os.WriteFile(tmp, data, 0666); err != nil {
		return errors.Wrapf(err, "failed to write temporary file for %q", full)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to rename temporary file to %q", full)
	}
	return nil
}

// ListDir returns the sorted file and directory names inside name.
func (l *Local) ListDir(name string) (files, dirs []string, err error) {
	entries, err := os.ReadDir(l.fullPath(name))
	if err != nil {
		return nil, nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}
	return files, dirs, nil
}

// Mkdir creates the named directory if it doesn't already exist.
func (l *Local) Mkdir(name string) error {
	err := os.Mkdir(l.fullPath(name), 0777)
	if err != nil && !os.IsExist(err) {
		return err
	}
	return nil
}

// Exists reports whether the named file or directory exists.
func (l *Local) Exists(name string) (bool, error) {
	_, err := os.Lstat(l.fullPath(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Remove removes the named file.
func (l *Local) Remove(name string) error {
	return os.Remove(l.fullPath(name))
}

// Sub returns a Transport rooted at the named subdirectory.
func (l *Local) Sub(name string) Transport {
	return &Local{root: filepath.Join(l.root, filepath.FromSlash(path.Clean(name)))}
}
