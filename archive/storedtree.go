package archive

import (
	"io"

	"github.com/pkg/errors"

	"github.com/durabackup/dura/archive/band"
	"github.com/durabackup/dura/archive/blockdir"
	"github.com/durabackup/dura/archive/index"
)

// BandSelection chooses which backup version of an archive to read.
//
// The zero value selects the latest complete version.
type BandSelection struct {
	// Band is a specific band to open; nil means the latest.
	Band *band.ID

	// AllowIncomplete permits reading a band that was never closed,
	// which holds only a prefix of the source tree.
	AllowIncomplete bool
}

// StoredTree reads one version of a tree stored in the archive.
//
// This hides from the caller that file data is spread over compressed
// blocks shared with other versions.
type StoredTree struct {
	band   *band.Band
	blocks *blockdir.BlockDir
}

// OpenStoredTree opens the version of the archive chosen by sel.
func (a *Archive) OpenStoredTree(sel BandSelection) (*StoredTree, error) {
	var b *band.Band
	var err error
	switch {
	case sel.Band != nil:
		b, err = a.OpenBand(*sel.Band)
	case sel.AllowIncomplete:
		var ids []band.ID
		ids, err = a.ListBandIDs()
		if err == nil {
			if len(ids) == 0 {
				return nil, errors.Wrapf(ErrArchiveEmpty, "%q", a.Path())
			}
			b, err = a.OpenBand(ids[len(ids)-1])
		}
	default:
		b, err = a.LastCompleteBand()
	}
	if err != nil {
		return nil, err
	}
	if !sel.AllowIncomplete {
		closed, err := b.IsClosed()
		if err != nil {
			return nil, err
		}
		if !closed {
			return nil, errors.Errorf("band %v is incomplete", b.ID())
		}
	}
	return &StoredTree{band: b, blocks: a.blocks}, nil
}

// Band returns the band this tree is stored in.
func (st *StoredTree) Band() *band.Band {
	return st.band
}

// Iter returns an iterator over the tree's index entries, in apath
// order.
func (st *StoredTree) Iter() *index.Iter {
	return st.band.Index()
}

// FileContents returns a reader for the content of a stored file.
//
// Blocks are fetched lazily as the reader is consumed.
func (st *StoredTree) FileContents(e index.Entry) (io.Reader, error) {
	if e.Kind != index.KindFile {
		return nil, errors.Errorf("%q is not a file", e.Apath)
	}
	return &storedFile{blocks: st.blocks, addrs: e.Addrs}, nil
}

// storedFile reads file content spread across block addresses.
type storedFile struct {
	blocks *blockdir.BlockDir
	addrs  []index.Address
	buf    []byte
}

func (f *storedFile) Read(p []byte) (int, error) {
	for len(f.buf) == 0 {
		if len(f.addrs) == 0 {
			return 0, io.EOF
		}
		addr := f.addrs[0]
		f.addrs = f.addrs[1:]
		data, err := f.blocks.Get(addr.Hash)
		if err != nil {
			return 0, err
		}
		// Two comparisons so a huge Start+Len can't wrap around.
		if addr.Start > uint64(len(data)) || addr.Len > uint64(len(data))-addr.Start {
			return 0, errors.Errorf("address %v+%v is out of range in block %s", addr.Start, addr.Len, addr.Hash)
		}
		f.buf = data[addr.Start : addr.Start+addr.Len]
	}
	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	return n, nil
}
