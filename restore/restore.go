// Package restore copies a stored tree out of an archive onto the
// filesystem.
package restore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/durabackup/dura/archive"
	"github.com/durabackup/dura/archive/apath"
	"github.com/durabackup/dura/archive/index"
	"github.com/durabackup/dura/dura"
	"github.com/durabackup/dura/excludes"
)

// ErrDestinationNotEmpty means the restore destination already has
// something in it and ForceOverwrite was not given.
var ErrDestinationNotEmpty = errors.New("destination directory is not empty")

// Options configures a restore.
type Options struct {
	// Band selects which version to restore; the default is the
	// latest complete backup.
	Band archive.BandSelection

	// ForceOverwrite allows restoring into a non-empty directory.
	ForceOverwrite bool

	// PrintFilenames logs every file name as it is restored.
	PrintFilenames bool

	// Excludes are glob patterns to leave out of the restore.
	Excludes []string
}

// Stats describes what a restore wrote.
type Stats struct {
	Files    int
	Dirs     int
	Symlinks int
	Errors   int
	Elapsed  time.Duration
}

// Summary writes a human readable description of the stats to w.
func (s *Stats) Summary(w io.Writer) {
	fmt.Fprintf(w, "Restored %d files, %d directories, %d symlinks\n",
		s.Files, s.Dirs, s.Symlinks)
	if s.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	}
}

// Restore copies a stored tree from the archive into destDir.
//
// The destination is created if needed and must be empty unless
// ForceOverwrite is set.
func Restore(ctx context.Context, a *archive.Archive, destDir string, opt *Options) (*Stats, error) {
	if opt == nil {
		opt = &Options{}
	}
	start := time.Now()
	set, err := excludes.New(opt.Excludes)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(destDir, 0777); err != nil {
		return nil, errors.Wrapf(err, "failed to create destination %q", destDir)
	}
	if !opt.ForceOverwrite {
		entries, err := os.ReadDir(destDir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list destination %q", destDir)
		}
		if len(entries) != 0 {
			return nil, errors.Wrapf(ErrDestinationNotEmpty, "%q", destDir)
		}
	}
	st, err := a.OpenStoredTree(opt.Band)
	if err != nil {
		return nil, err
	}
	dura.Infof(a, "Restoring %v to %q", st.Band().ID(), destDir)

	stats := &Stats{}
	// Directory mtimes are applied after their contents are written,
	// deepest first, or writing children would bump them again.
	type dirFixup struct {
		path  string
		mtime int64
	}
	var dirFixups []dirFixup

	// Excluding a directory excludes everything under it, but the
	// index still lists the children, so excluded directory apaths
	// are remembered to prune them.
	var excludedDirs []string

	// Restored symlinks are remembered so a crafted index can't make
	// us write through one to somewhere outside the destination.
	var symlinked []string

	it := st.Iter()
	for it.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := it.Entry()
		// The index is untrusted input: a corrupt or crafted entry
		// like "/../evil" must not escape the destination.
		if !apath.Valid(string(e.Apath)) {
			dura.Errorf(nil, "Skipping %q: invalid path in index", e.Apath)
			stats.Errors++
			continue
		}
		if underAny(symlinked, e.Apath) {
			dura.Errorf(nil, "Skipping %q: parent was restored as a symlink", e.Apath)
			stats.Errors++
			continue
		}
		if set.Match(e.Apath) || underAny(excludedDirs, e.Apath) {
			dura.Debugf(nil, "Excluded %q", e.Apath)
			if e.Kind == index.KindDir {
				excludedDirs = append(excludedDirs, string(e.Apath))
			}
			continue
		}
		if opt.PrintFilenames {
			dura.Logf(nil, "%s", e.Apath)
		} else {
			dura.Infof(nil, "%s", e.Apath)
		}
		path := realPath(destDir, e.Apath)
		switch e.Kind {
		case index.KindDir:
			if err := os.MkdirAll(path, 0777); err != nil {
				return nil, errors.Wrapf(err, "failed to restore directory %q", e.Apath)
			}
			dirFixups = append(dirFixups, dirFixup{path: path, mtime: e.Mtime})
			stats.Dirs++
		case index.KindFile:
			if err := restoreFile(st, e, path); err != nil {
				dura.Errorf(nil, "Failed to restore %q: %v", e.Apath, err)
				stats.Errors++
				continue
			}
			stats.Files++
		case index.KindSymlink:
			if err := os.Symlink(e.Target, path); err != nil {
				dura.Errorf(nil, "Failed to restore symlink %q: %v", e.Apath, err)
				stats.Errors++
				continue
			}
			symlinked = append(symlinked, string(e.Apath))
			stats.Symlinks++
		default:
			dura.Errorf(nil, "Unknown entry kind %q for %q", e.Kind, e.Apath)
			stats.Errors++
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	for i := len(dirFixups) - 1; i >= 0; i-- {
		f := dirFixups[i]
		mtime := time.Unix(f.mtime, 0)
		if err := os.Chtimes(f.path, mtime, mtime); err != nil {
			dura.Errorf(nil, "Failed to set directory mtime on %q: %v", f.path, err)
			stats.Errors++
		}
	}
	stats.Elapsed = time.Since(start)
	return stats, nil
}

// underAny reports whether ap is inside any of the directories.
func underAny(dirs []string, ap apath.Apath) bool {
	for _, dir := range dirs {
		if strings.HasPrefix(string(ap), dir+"/") {
			return true
		}
	}
	return false
}

// realPath converts an apath to an OS path under destDir.
func realPath(destDir string, ap apath.Apath) string {
	if ap == apath.Root {
		return destDir
	}
	return filepath.Join(destDir, filepath.FromSlash(string(ap)[1:]))
}

// restoreFile writes one stored file to path and sets its mtime.
func restoreFile(st *archive.StoredTree, e index.Entry, path string) error {
	r, err := st.FileContents(e)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, r)
	closeErr := f.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	mtime := time.Unix(e.Mtime, 0)
	return os.Chtimes(path, mtime, mtime)
}
