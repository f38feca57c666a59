// Package livetree walks a source directory producing entries in
// apath order, ready to copy into an archive.
//
// Apath order means every directory's entries come out together and
// parents always precede children, which is what the index writer
// requires.
package livetree

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/durabackup/dura/archive/apath"
	"github.com/durabackup/dura/archive/index"
	"github.com/durabackup/dura/dura"
	"github.com/durabackup/dura/excludes"
)

// Entry is one file, directory or symlink in the source tree.
type Entry struct {
	Apath  apath.Apath
	Kind   index.Kind
	Mtime  int64
	Size   int64
	Target string

	// OS path of the entry, for opening files.
	RealPath string
}

// Tree is a source directory to be backed up.
type Tree struct {
	root     string
	excludes *excludes.Set
}

// Open opens the directory dir as a source tree.
func Open(dir string) (*Tree, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open source %q", dir)
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("source %q is not a directory", dir)
	}
	return &Tree{root: dir}, nil
}

// WithExcludes returns a tree that skips entries matching the set.
func (t *Tree) WithExcludes(set *excludes.Set) *Tree {
	return &Tree{root: t.root, excludes: set}
}

// Root returns the directory the tree was opened at.
func (t *Tree) Root() string {
	return t.root
}

// Walk calls fn for every entry in the tree in apath order, starting
// with the root directory itself.
//
// Unreadable entries are logged and skipped rather than stopping the
// walk; fn errors do stop it.
func (t *Tree) Walk(fn func(Entry) error) error {
	rootEntry, err := t.entryAt(apath.Root, t.root)
	if err != nil {
		return err
	}
	if err := fn(*rootEntry); err != nil {
		return err
	}
	return t.walkDir(apath.Root, t.root, fn)
}

// walkDir emits all the direct children of one directory, then
// recurses into each subdirectory in order.
func (t *Tree) walkDir(dirApath apath.Apath, dirPath string, fn func(Entry) error) error {
	osEntries, err := os.ReadDir(dirPath)
	if err != nil {
		dura.Errorf(nil, "Failed to read directory %q: %v", dirPath, err)
		return nil
	}
	names := make([]string, 0, len(osEntries))
	for _, e := range osEntries {
		names = append(names, e.Name())
	}
	// Bytewise order within the directory.
	sort.Strings(names)

	var subdirs []string
	for _, name := range names {
		childApath := childApath(dirApath, name)
		if !apath.Valid(string(childApath)) {
			dura.Errorf(nil, "Skipping %q: not storable in an archive", name)
			continue
		}
		if t.excludes.Match(childApath) {
			dura.Debugf(nil, "Excluded %q", childApath)
			continue
		}
		childPath := filepath.Join(dirPath, name)
		entry, err := t.entryAt(childApath, childPath)
		if err != nil {
			dura.Errorf(nil, "Failed to stat %q: %v", childPath, err)
			continue
		}
		if err := fn(*entry); err != nil {
			return err
		}
		if entry.Kind == index.KindDir {
			subdirs = append(subdirs, name)
		}
	}
	for _, name := range subdirs {
		err := t.walkDir(childApath(dirApath, name), filepath.Join(dirPath, name), fn)
		if err != nil {
			return err
		}
	}
	return nil
}

// childApath joins a child name onto a directory's apath.
func childApath(dir apath.Apath, name string) apath.Apath {
	if dir == apath.Root {
		return apath.Apath("/" + name)
	}
	return apath.Apath(string(dir) + "/" + name)
}

// entryAt builds an Entry for one path, without following symlinks.
func (t *Tree) entryAt(ap apath.Apath, realPath string) (*Entry, error) {
	fi, err := os.Lstat(realPath)
	if err != nil {
		return nil, err
	}
	entry := &Entry{
		Apath:    ap,
		Mtime:    fi.ModTime().Unix(),
		RealPath: realPath,
	}
	switch {
	case fi.IsDir():
		entry.Kind = index.KindDir
	case fi.Mode()&os.ModeSymlink != 0:
		entry.Kind = index.KindSymlink
		target, err := os.Readlink(realPath)
		if err != nil {
			return nil, err
		}
		entry.Target = target
	case fi.Mode().IsRegular():
		entry.Kind = index.KindFile
		entry.Size = fi.Size()
	default:
		return nil, errors.Errorf("unsupported file type %v", fi.Mode())
	}
	return entry, nil
}
