// Package blockdir stores file content in an archive as
// content-addressed compressed blocks.
//
// Blocks are named by the hex BLAKE2b-512 hash of their uncompressed
// content and stored Snappy compressed under a subdirectory named by
// the first three characters of the hash.  Blocks are immutable once
// written, so a block that is already present never needs rewriting -
// that is what makes incremental backups cheap.
package blockdir

import (
	"encoding/hex"
	"os"

	"github.com/klauspost/compress/snappy"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/durabackup/dura/archive/transport"
)

// MaxBlockSize is the largest amount of uncompressed data stored in a
// single block.  Files larger than this are split across blocks.
const MaxBlockSize = 1 << 20

// subdirNameChars of the hash name the subdirectory a block lives in.
const subdirNameChars = 3

// ErrBlockCorrupt means a block's content does not match its name.
var ErrBlockCorrupt = errors.New("block content does not match hash")

// BlockDir is a content-addressed block store.
type BlockDir struct {
	t transport.Transport
}

// New opens an existing block directory on t.
func New(t transport.Transport) *BlockDir {
	return &BlockDir{t: t}
}

// Create makes a new empty block directory on t.
func Create(t transport.Transport) (*BlockDir, error) {
	if err := t.Mkdir(""); err != nil {
		return nil, errors.Wrap(err, "failed to create block directory")
	}
	return &BlockDir{t: t}, nil
}

// Hash returns the hex hash naming a block with this content.
func Hash(data []byte) string {
	sum := blake2b.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// blockPath returns the transport path of the named block.
func blockPath(hash string) string {
	return hash[:subdirNameChars] + "/" + hash
}

// Contains reports whether the named block is present.
func (b *BlockDir) Contains(hash string) (bool, error) {
	return b.t.Exists(blockPath(hash))
}

// Store writes data as a block, unless it is already present.
//
// It returns the hash naming the block, the compressed size on disk,
// and whether the block was newly written.
func (b *BlockDir) Store(data []byte) (hash string, compressedLen uint64, isNew bool, err error) {
	hash = Hash(data)
	present, err := b.Contains(hash)
	if err != nil {
		return "", 0, false, err
	}
	compressed := snappy.Encode(nil, data)
	if present {
		return hash, uint64(len(compressed)), false, nil
	}
	if err := b.t.WriteFile(blockPath(hash), compressed); err != nil {
		return "", 0, false, errors.Wrapf(err, "failed to store block %s", hash)
	}
	return hash, uint64(len(compressed)), true, nil
}

// Get returns the uncompressed content of the named block, checking it
// against the hash.
func (b *BlockDir) Get(hash string) ([]byte, error) {
	compressed, err := b.t.ReadFile(blockPath(hash))
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrapf(err, "block %s missing", hash)
		}
		return nil, errors.Wrapf(err, "failed to read block %s", hash)
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decompress block %s", hash)
	}
	if Hash(data) != hash {
		return nil, errors.Wrapf(ErrBlockCorrupt, "block %s", hash)
	}
	return data, nil
}

// CompressedSize returns the on-disk size of the named block.
func (b *BlockDir) CompressedSize(hash string) (uint64, error) {
	data, err := b.t.ReadFile(blockPath(hash))
	if err != nil {
		return 0, err
	}
	return uint64(len(data)), nil
}

// BlockNames returns the hashes of all blocks present, in no
// particular order.
func (b *BlockDir) BlockNames() ([]string, error) {
	_, subdirs, err := b.t.ListDir("")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list block directory")
	}
	var names []string
	for _, subdir := range subdirs {
		files, _, err := b.t.ListDir(subdir)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list block subdirectory %q", subdir)
		}
		names = append(names, files...)
	}
	return names, nil
}
