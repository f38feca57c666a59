// Package backup copies a live source tree into a new band in an
// archive.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/durabackup/dura/archive"
	"github.com/durabackup/dura/archive/band"
	"github.com/durabackup/dura/archive/blockdir"
	"github.com/durabackup/dura/archive/index"
	"github.com/durabackup/dura/dura"
	"github.com/durabackup/dura/excludes"
	"github.com/durabackup/dura/livetree"
)

// Options configures how a backup is made.
type Options struct {
	// PrintFilenames logs every file name as it is copied, at
	// notice level rather than needing -v.
	PrintFilenames bool

	// Excludes are glob patterns to leave out of the backup.
	Excludes []string
}

// Stats describes what a backup copied.
type Stats struct {
	BandID             band.ID
	Files              int
	Dirs               int
	Symlinks           int
	Errors             int
	FileBytes          uint64
	NewBlocks          int
	NewBlockBytes      uint64
	DeduplicatedBlocks int
	IndexHunks         int
	Elapsed            time.Duration
}

// Summary writes a human readable description of the stats to w.
func (s *Stats) Summary(w io.Writer) {
	fmt.Fprintf(w, "Stored %v: %d files, %d directories, %d symlinks (%s)\n",
		s.BandID, s.Files, s.Dirs, s.Symlinks, humanize.Bytes(s.FileBytes))
	fmt.Fprintf(w, "New blocks: %d (%s compressed), deduplicated: %d\n",
		s.NewBlocks, humanize.Bytes(s.NewBlockBytes), s.DeduplicatedBlocks)
	if s.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	}
}

// Backup copies the tree at sourceDir into a new band in the archive.
//
// Per file errors are logged and counted but don't stop the backup;
// an error is only returned if the archive itself can't be written.
func Backup(ctx context.Context, a *archive.Archive, sourceDir string, opt *Options) (*Stats, error) {
	if opt == nil {
		opt = &Options{}
	}
	start := time.Now()
	set, err := excludes.New(opt.Excludes)
	if err != nil {
		return nil, err
	}
	tree, err := livetree.Open(sourceDir)
	if err != nil {
		return nil, err
	}
	tree = tree.WithExcludes(set)

	w, err := begin(a, opt)
	if err != nil {
		return nil, err
	}
	err = tree.Walk(func(e livetree.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return w.copyEntry(e)
	})
	if err != nil {
		return nil, err
	}
	stats, err := w.finish()
	if err != nil {
		return nil, err
	}
	stats.Elapsed = time.Since(start)
	return stats, nil
}

// writer accepts tree entries in apath order and stores them.
type writer struct {
	band   *band.Band
	index  *index.Writer
	blocks *blockdir.BlockDir
	opt    *Options
	stats  Stats
}

func begin(a *archive.Archive, opt *Options) (*writer, error) {
	b, err := a.CreateBand()
	if err != nil {
		return nil, err
	}
	dura.Infof(a, "Starting backup %v", b.ID())
	return &writer{
		band:   b,
		index:  b.IndexWriter(),
		blocks: a.BlockDir(),
		opt:    opt,
		stats:  Stats{BandID: b.ID()},
	}, nil
}

func (w *writer) finish() (*Stats, error) {
	hunks, err := w.index.Finish()
	if err != nil {
		return nil, err
	}
	if err := w.band.Close(hunks); err != nil {
		return nil, err
	}
	w.stats.IndexHunks = hunks
	return &w.stats, nil
}

func (w *writer) copyEntry(e livetree.Entry) error {
	if w.opt.PrintFilenames {
		dura.Logf(nil, "%s", e.Apath)
	} else {
		dura.Infof(nil, "%s", e.Apath)
	}
	entry := index.Entry{
		Apath: e.Apath,
		Kind:  e.Kind,
		Mtime: e.Mtime,
	}
	switch e.Kind {
	case index.KindDir:
		w.stats.Dirs++
	case index.KindSymlink:
		entry.Target = e.Target
		w.stats.Symlinks++
	case index.KindFile:
		addrs, err := w.storeFile(e)
		if err != nil {
			dura.Errorf(nil, "Failed to store %q: %v", e.Apath, err)
			w.stats.Errors++
			return nil
		}
		entry.Addrs = addrs
		w.stats.Files++
	default:
		return errors.Errorf("unknown entry kind %q for %q", e.Kind, e.Apath)
	}
	return w.index.Append(entry)
}

// storeFile reads a file in block sized chunks and stores each chunk,
// returning the addresses of its content.
func (w *writer) storeFile(e livetree.Entry) ([]index.Address, error) {
	f, err := os.Open(e.RealPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	var addrs []index.Address
	buf := make([]byte, blockdir.MaxBlockSize)
	for {
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			hash, compressedLen, isNew, storeErr := w.blocks.Store(buf[:n])
			if storeErr != nil {
				return nil, storeErr
			}
			if isNew {
				w.stats.NewBlocks++
				w.stats.NewBlockBytes += compressedLen
			} else {
				w.stats.DeduplicatedBlocks++
			}
			addrs = append(addrs, index.Address{Hash: hash, Start: 0, Len: uint64(n)})
			w.stats.FileBytes += uint64(n)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return addrs, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
