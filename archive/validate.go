package archive

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/durabackup/dura/archive/apath"
	"github.com/durabackup/dura/dura"
)

// ErrValidationFailed means Validate found problems in the archive.
var ErrValidationFailed = errors.New("archive failed validation")

// ValidateStats summarises what Validate looked at and what it found.
type ValidateStats struct {
	BandCount           int
	IncompleteBandCount int
	BlockCount          int
	BlockErrorCount     int
	MissingBlockCount   int
	AddressErrorCount   int
	IndexErrorCount     int
}

// HasProblems reports whether any checks failed.
func (s *ValidateStats) HasProblems() bool {
	return s.BlockErrorCount > 0 || s.MissingBlockCount > 0 ||
		s.AddressErrorCount > 0 || s.IndexErrorCount > 0
}

// Validate checks that the archive is internally consistent: every
// block decompresses to content matching its hash, every band index
// decodes in apath order, and every address points at a block range
// that exists.
//
// Problems are logged and counted rather than stopping the check, so
// one bad block doesn't hide the rest.
func (a *Archive) Validate(ctx context.Context) (*ValidateStats, error) {
	stats := &ValidateStats{}
	blockLens, err := a.validateBlocks(ctx, stats)
	if err != nil {
		return stats, err
	}
	if err := a.validateBands(ctx, stats, blockLens); err != nil {
		return stats, err
	}
	if stats.HasProblems() {
		return stats, errors.Wrapf(ErrValidationFailed, "%q", a.Path())
	}
	return stats, nil
}

// validateBlocks reads every block in parallel, checking hashes, and
// returns the uncompressed length of each good block.
func (a *Archive) validateBlocks(ctx context.Context, stats *ValidateStats) (map[string]uint64, error) {
	names, err := a.blocks.BlockNames()
	if err != nil {
		return nil, err
	}
	stats.BlockCount = len(names)

	blockLens := make(map[string]uint64, len(names))
	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := a.blocks.Get(name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				dura.Errorf(a, "Bad block %s: %v", name, err)
				stats.BlockErrorCount++
				return nil
			}
			blockLens[name] = uint64(len(data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blockLens, nil
}

// validateBands checks every band's index against the blocks found.
func (a *Archive) validateBands(ctx context.Context, stats *ValidateStats, blockLens map[string]uint64) error {
	ids, err := a.ListBandIDs()
	if err != nil {
		return err
	}
	stats.BandCount = len(ids)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := a.OpenBand(id)
		if err != nil {
			dura.Errorf(a, "Failed to open band %v: %v", id, err)
			stats.IndexErrorCount++
			continue
		}
		closed, err := b.IsClosed()
		if err != nil {
			return err
		}
		if !closed {
			stats.IncompleteBandCount++
		}
		var last apath.Apath
		any := false
		it := b.Index()
		for it.Scan() {
			e := it.Entry()
			if !apath.Valid(string(e.Apath)) || (any && apath.Compare(e.Apath, last) <= 0) {
				dura.Errorf(a, "Index of band %v out of order at %q", id, e.Apath)
				stats.IndexErrorCount++
			}
			last = e.Apath
			any = true
			for _, addr := range e.Addrs {
				blockLen, ok := blockLens[addr.Hash]
				if !ok {
					dura.Errorf(a, "Block %s missing for %q in band %v", addr.Hash, e.Apath, id)
					stats.MissingBlockCount++
					continue
				}
				// Two comparisons so a huge Start+Len can't wrap around.
				if addr.Start > blockLen || addr.Len > blockLen-addr.Start {
					dura.Errorf(a, "Address out of range for %q in band %v", e.Apath, id)
					stats.AddressErrorCount++
				}
			}
		}
		if err := it.Err(); err != nil {
			dura.Errorf(a, "Failed to read index of band %v: %v", id, err)
			stats.IndexErrorCount++
		}
	}
	return nil
}
