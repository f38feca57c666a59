// Package index reads and writes the index of a band.
//
// The index is a series of numbered hunks, each a Snappy compressed
// JSON array of entries.  Entries are strictly ordered by apath across
// the whole index, which lets readers merge and seek without loading
// everything.
package index

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/snappy"
	"github.com/pkg/errors"

	"github.com/durabackup/dura/archive/apath"
	"github.com/durabackup/dura/archive/transport"
)

// MaxEntriesPerHunk is the default number of entries per index hunk.
const MaxEntriesPerHunk = 1000

// hunksPerSubdir is how many hunks share one index subdirectory.
const hunksPerSubdir = 10000

// Kind of a tree entry.
type Kind string

// Kinds of tree entries stored in an index.
const (
	KindDir     Kind = "Dir"
	KindFile    Kind = "File"
	KindSymlink Kind = "Symlink"
)

// Address of a range of content within a block.
type Address struct {
	Hash  string `json:"hash"`
	Start uint64 `json:"start"`
	Len   uint64 `json:"len"`
}

// Entry describes one file, directory or symlink in a stored tree.
type Entry struct {
	Apath  apath.Apath `json:"apath"`
	Kind   Kind        `json:"kind"`
	Mtime  int64       `json:"mtime,omitempty"`
	Addrs  []Address   `json:"addrs,omitempty"`
	Target string      `json:"target,omitempty"`
}

// hunkPath returns the transport path of hunk n.
func hunkPath(n int) string {
	return fmt.Sprintf("%05d/%09d", n/hunksPerSubdir, n)
}

// Writer accumulates index entries and writes them out in hunks.
//
// Entries must be appended in strictly increasing apath order.
type Writer struct {
	t        transport.Transport
	entries  []Entry
	hunks    int
	last     apath.Apath
	any      bool
	finished bool
}

// NewWriter makes a Writer storing hunks on t.
func NewWriter(t transport.Transport) *Writer {
	return &Writer{t: t}
}

// Append adds an entry to the index.
func (w *Writer) Append(e Entry) error {
	if !apath.Valid(string(e.Apath)) {
		return errors.Errorf("invalid apath %q", e.Apath)
	}
	if w.any && apath.Compare(e.Apath, w.last) <= 0 {
		return errors.Errorf("index entry %q out of order after %q", e.Apath, w.last)
	}
	w.last = e.Apath
	w.any = true
	w.entries = append(w.entries, e)
	if len(w.entries) >= MaxEntriesPerHunk {
		return w.FinishHunk()
	}
	return nil
}

// FinishHunk writes out the pending entries as a new hunk.
//
// Does nothing if there are no pending entries.
func (w *Writer) FinishHunk() error {
	if len(w.entries) == 0 {
		return nil
	}
	data, err := json.Marshal(w.entries)
	if err != nil {
		return errors.Wrap(err, "failed to marshal index hunk")
	}
	compressed := snappy.Encode(nil, data)
	if err := w.t.WriteFile(hunkPath(w.hunks), compressed); err != nil {
		return errors.Wrapf(err, "failed to write index hunk %d", w.hunks)
	}
	w.hunks++
	w.entries = w.entries[:0]
	return nil
}

// Finish flushes any pending entries and returns the number of hunks
// written.
func (w *Writer) Finish() (int, error) {
	if w.finished {
		return w.hunks, errors.New("index writer already finished")
	}
	if err := w.FinishHunk(); err != nil {
		return w.hunks, err
	}
	w.finished = true
	return w.hunks, nil
}

// Iter iterates the entries of a stored index in order.
//
// Use like bufio.Scanner:
//
//	it := index.NewIter(t)
//	for it.Scan() {
//		entry := it.Entry()
//	}
//	if err := it.Err(); err != nil ...
type Iter struct {
	t        transport.Transport
	nextHunk int
	buf      []Entry
	pos      int
	err      error
	done     bool
}

// NewIter makes an iterator over the index stored on t.
func NewIter(t transport.Transport) *Iter {
	return &Iter{t: t}
}

// Scan advances to the next entry, returning false at the end or on
// error.
func (it *Iter) Scan() bool {
	if it.err != nil || it.done {
		return false
	}
	for it.pos >= len(it.buf) {
		if err := it.readHunk(); err != nil {
			if err == io.EOF {
				it.done = true
			} else {
				it.err = err
			}
			return false
		}
	}
	it.pos++
	return true
}

// Entry returns the entry Scan advanced to.
func (it *Iter) Entry() Entry {
	return it.buf[it.pos-1]
}

// Err returns the first error hit while iterating, if any.
func (it *Iter) Err() error {
	return it.err
}

// readHunk loads the next hunk into the buffer, returning io.EOF when
// there are no more.
func (it *Iter) readHunk() error {
	compressed, err := it.t.ReadFile(hunkPath(it.nextHunk))
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return io.EOF
		}
		return errors.Wrapf(err, "failed to read index hunk %d", it.nextHunk)
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return errors.Wrapf(err, "failed to decompress index hunk %d", it.nextHunk)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrapf(err, "failed to unmarshal index hunk %d", it.nextHunk)
	}
	it.nextHunk++
	it.buf = entries
	it.pos = 0
	return nil
}
