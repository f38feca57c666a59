// Package archive implements the top level of a backup archive: a
// directory holding a header, a block directory with file content for
// all versions, and a series of bands each holding one backup.
package archive

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/durabackup/dura/archive/band"
	"github.com/durabackup/dura/archive/blockdir"
	"github.com/durabackup/dura/archive/jsonio"
	"github.com/durabackup/dura/archive/transport"
	"github.com/durabackup/dura/dura"
)

const (
	headerFilename = "DURA"
	blockDirName   = "d"
)

// Errors returned by the archive layer.  Compare with errors.Cause.
var (
	// ErrNotAnArchive means the directory does not hold an archive.
	ErrNotAnArchive = errors.New("directory is not a dura archive")

	// ErrNotEmpty means a new archive was asked for in a directory
	// that already has something in it.
	ErrNotEmpty = errors.New("new archive directory is not empty")

	// ErrArchiveEmpty means the archive holds no complete backup.
	ErrArchiveEmpty = errors.New("archive is empty")
)

// header is the JSON document identifying an archive and its format
// version.
type header struct {
	ArchiveVersion string `json:"dura_archive_version"`
}

// Archive holds backup material at some directory.
type Archive struct {
	t      transport.Transport
	blocks *blockdir.BlockDir
}

// Create makes a new archive in the directory dir.
//
// The directory is created if needed and must be empty.
func Create(dir string) (*Archive, error) {
	t := transport.NewLocal(dir)
	if err := t.Mkdir(""); err != nil {
		return nil, errors.Wrapf(err, "failed to create archive directory %q", dir)
	}
	files, dirs, err := t.ListDir("")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list new archive directory %q", dir)
	}
	if len(files) != 0 || len(dirs) != 0 {
		return nil, errors.Wrapf(ErrNotEmpty, "%q", dir)
	}
	blocks, err := blockdir.Create(t.Sub(blockDirName))
	if err != nil {
		return nil, err
	}
	err = jsonio.Write(t, headerFilename, &header{ArchiveVersion: dura.ArchiveVersion})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to write archive header in %q", dir)
	}
	return &Archive{t: t, blocks: blocks}, nil
}

// Open opens an existing archive in the directory dir, checking the
// header.
func Open(dir string) (*Archive, error) {
	t := transport.NewLocal(dir)
	var h header
	if err := jsonio.Read(t, headerFilename, &h); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrapf(ErrNotAnArchive, "%q", dir)
		}
		return nil, errors.Wrapf(err, "failed to read archive header in %q", dir)
	}
	if h.ArchiveVersion != dura.ArchiveVersion {
		return nil, errors.Errorf("unsupported archive version %q in %q", h.ArchiveVersion, dir)
	}
	return &Archive{t: t, blocks: blockdir.New(t.Sub(blockDirName))}, nil
}

// Path returns the directory the archive lives in.
func (a *Archive) Path() string {
	return a.t.Root()
}

// String describes the archive for logs.
func (a *Archive) String() string {
	return fmt.Sprintf("archive %q", a.t.Root())
}

// BlockDir returns the archive's block store.
func (a *Archive) BlockDir() *blockdir.BlockDir {
	return a.blocks
}

// ListBandIDs returns the ids of all bands, sorted from first to last.
//
// Stray directories that are not bands are ignored: Validate reports
// on those.
func (a *Archive) ListBandIDs() ([]band.ID, error) {
	_, dirs, err := a.t.ListDir("")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list bands")
	}
	var ids []band.ID
	for _, name := range dirs {
		if name == blockDirName {
			continue
		}
		id, err := band.ParseID(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	band.SortIDs(ids)
	return ids, nil
}

// NextBandID returns the id a new band should use.
func (a *Archive) NextBandID() (band.ID, error) {
	ids, err := a.ListBandIDs()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return band.ID(0), nil
	}
	return ids[len(ids)-1].Next(), nil
}

// OpenBand opens the band with the given id.
func (a *Archive) OpenBand(id band.ID) (*band.Band, error) {
	return band.Open(a.t, id)
}

// CreateBand makes a new band with the next free id.
func (a *Archive) CreateBand() (*band.Band, error) {
	id, err := a.NextBandID()
	if err != nil {
		return nil, err
	}
	return band.Create(a.t, id)
}

// LastCompleteBand returns the last closed band, or ErrArchiveEmpty if
// there is none.
func (a *Archive) LastCompleteBand() (*band.Band, error) {
	ids, err := a.ListBandIDs()
	if err != nil {
		return nil, err
	}
	for i := len(ids) - 1; i >= 0; i-- {
		b, err := a.OpenBand(ids[i])
		if err != nil {
			return nil, err
		}
		closed, err := b.IsClosed()
		if err != nil {
			return nil, err
		}
		if closed {
			return b, nil
		}
	}
	return nil, errors.Wrapf(ErrArchiveEmpty, "%q", a.Path())
}

// ReferencedBlocks returns the hashes of all blocks referenced by any
// band's index.
func (a *Archive) ReferencedBlocks() (map[string]struct{}, error) {
	ids, err := a.ListBandIDs()
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]struct{})
	for _, id := range ids {
		b, err := a.OpenBand(id)
		if err != nil {
			return nil, err
		}
		it := b.Index()
		for it.Scan() {
			for _, addr := range it.Entry().Addrs {
				referenced[addr.Hash] = struct{}{}
			}
		}
		if err := it.Err(); err != nil {
			return nil, errors.Wrapf(err, "failed to read index of band %v", id)
		}
	}
	return referenced, nil
}

// UnreferencedBlocks returns the hashes of blocks present but
// referenced by no band.
func (a *Archive) UnreferencedBlocks() ([]string, error) {
	referenced, err := a.ReferencedBlocks()
	if err != nil {
		return nil, err
	}
	names, err := a.blocks.BlockNames()
	if err != nil {
		return nil, err
	}
	var unref []string
	for _, name := range names {
		if _, ok := referenced[name]; !ok {
			unref = append(unref, name)
		}
	}
	return unref, nil
}

// Describe writes summary information about the archive to w.
func (a *Archive) Describe(w io.Writer) error {
	ids, err := a.ListBandIDs()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Archive directory: %s\n", a.Path())
	fmt.Fprintf(w, "Format version:    %s\n", dura.ArchiveVersion)
	fmt.Fprintf(w, "Backup versions:   %d\n", len(ids))
	if len(ids) > 0 {
		last := ids[len(ids)-1]
		b, err := a.OpenBand(last)
		if err != nil {
			return err
		}
		closed, err := b.IsClosed()
		if err != nil {
			return err
		}
		state := "incomplete"
		if closed {
			state = "complete"
		}
		fmt.Fprintf(w, "Latest version:    %v (%s)\n", last, state)
	}
	names, err := a.blocks.BlockNames()
	if err != nil {
		return err
	}
	var totalCompressed uint64
	for _, name := range names {
		size, err := a.blocks.CompressedSize(name)
		if err != nil {
			return err
		}
		totalCompressed += size
	}
	fmt.Fprintf(w, "Stored blocks:     %d (%s compressed)\n", len(names), humanize.Bytes(totalCompressed))
	return nil
}
