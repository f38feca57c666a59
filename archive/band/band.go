// Package band implements bands, the directories an archive stores
// one backup version in.
//
// Bands are named b0000, b0001, ... in the order they were written.  A
// band carries a head file written when the backup starts, an index of
// the tree contents, and a tail file written when the backup finishes.
// A band with no tail is incomplete: it can be read but only holds a
// prefix of the source tree.
package band

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/durabackup/dura/archive/index"
	"github.com/durabackup/dura/archive/jsonio"
	"github.com/durabackup/dura/archive/transport"
	"github.com/durabackup/dura/dura"
)

const (
	headFilename = "BANDHEAD"
	tailFilename = "BANDTAIL"
	indexDirname = "i"
	idPrefix     = "b"
	idDigits     = 4
)

// ID identifies a band within an archive.
type ID int

// ParseID parses a band directory name like "b0001".
//
// It returns an error for anything that is not a well formed band
// name, so it can also be used to filter directory listings.
func ParseID(s string) (ID, error) {
	// Names are at least idDigits long but grow when an archive has
	// more than 10000 backups, so only bound the minimum.
	if !strings.HasPrefix(s, idPrefix) || len(s) < len(idPrefix)+idDigits {
		return 0, errors.Errorf("invalid band id %q", s)
	}
	digits := s[len(idPrefix):]
	// Atoi alone would also accept "+123".
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("invalid band id %q", s)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, errors.Errorf("invalid band id %q", s)
	}
	return ID(n), nil
}

// String returns the band directory name, eg "b0001".
func (id ID) String() string {
	return fmt.Sprintf("%s%0*d", idPrefix, idDigits, int(id))
}

// Next returns the id of the band after this one.
func (id ID) Next() ID {
	return id + 1
}

// SortIDs sorts band ids from first to last.
func SortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// Head is the metadata written when a band is created.
type Head struct {
	StartTime         int64  `json:"start_time"`
	BandFormatVersion string `json:"band_format_version"`
}

// Tail is the metadata written when a band is closed.
type Tail struct {
	StartTime      int64 `json:"start_time"`
	EndTime        int64 `json:"end_time"`
	IndexHunkCount int   `json:"index_hunk_count"`
}

// Band is one backup version in an archive.
type Band struct {
	id   ID
	t    transport.Transport
	head Head
}

// Create makes a new empty band on the archive transport t.
func Create(t transport.Transport, id ID) (*Band, error) {
	bt := t.Sub(id.String())
	if err := bt.Mkdir(""); err != nil {
		return nil, errors.Wrapf(err, "failed to create band %v", id)
	}
	if err := bt.Mkdir(indexDirname); err != nil {
		return nil, errors.Wrapf(err, "failed to create band index directory %v", id)
	}
	head := Head{
		StartTime:         time.Now().Unix(),
		BandFormatVersion: dura.ArchiveVersion,
	}
	if err := jsonio.Write(bt, headFilename, &head); err != nil {
		return nil, errors.Wrapf(err, "failed to write head of band %v", id)
	}
	return &Band{id: id, t: bt, head: head}, nil
}

// Open opens an existing band on the archive transport t.
func Open(t transport.Transport, id ID) (*Band, error) {
	bt := t.Sub(id.String())
	var head Head
	if err := jsonio.Read(bt, headFilename, &head); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Errorf("band %v not found", id)
		}
		return nil, errors.Wrapf(err, "failed to read head of band %v", id)
	}
	return &Band{id: id, t: bt, head: head}, nil
}

// ID returns the band's id.
func (b *Band) ID() ID {
	return b.id
}

// Head returns the band's head metadata.
func (b *Band) Head() Head {
	return b.head
}

// IndexWriter returns a writer for the band's index.
func (b *Band) IndexWriter() *index.Writer {
	return index.NewWriter(b.t.Sub(indexDirname))
}

// Index returns an iterator over the band's index.
func (b *Band) Index() *index.Iter {
	return index.NewIter(b.t.Sub(indexDirname))
}

// Close writes the band's tail, marking it complete.
func (b *Band) Close(indexHunkCount int) error {
	tail := Tail{
		StartTime:      b.head.StartTime,
		EndTime:        time.Now().Unix(),
		IndexHunkCount: indexHunkCount,
	}
	if err := jsonio.Write(b.t, tailFilename, &tail); err != nil {
		return errors.Wrapf(err, "failed to write tail of band %v", b.id)
	}
	return nil
}

// IsClosed reports whether the band has been closed.
func (b *Band) IsClosed() (bool, error) {
	return b.t.Exists(tailFilename)
}

// Tail returns the band's tail metadata, if it has been closed.
func (b *Band) Tail() (Tail, error) {
	var tail Tail
	if err := jsonio.Read(b.t, tailFilename, &tail); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return tail, errors.Errorf("band %v is not closed", b.id)
		}
		return tail, errors.Wrapf(err, "failed to read tail of band %v", b.id)
	}
	return tail, nil
}
