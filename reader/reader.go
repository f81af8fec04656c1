// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package reader drives the wire decoder and the chain assembler over a
// directory of blk*.dat files, dispatching confirmed blocks to a caller
// callback in height order.
package reader

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/flokiorg/blkreader/chain"
	"github.com/flokiorg/blkreader/chainhash"
	blog "github.com/flokiorg/blkreader/log"
	"github.com/flokiorg/blkreader/metrics"
	"github.com/flokiorg/blkreader/wire"
)

// log is this package's diagnostics sink, defaulting to a no-op.
var log blog.Logger = blog.Disabled

// UseLogger sets the logger the reader package uses for diagnostics.
func UseLogger(logger blog.Logger) {
	log = logger
}

// blkFilePattern is the doublestar glob a directory entry's basename
// must match to be treated as a block file: "blk" followed by at least
// five digits, then any further characters, then the ".dat" suffix. A
// matching name whose part between "blk" and ".dat" is not all digits is
// rejected when the file is opened (wire.BlkFileIndex).
const blkFilePattern = "blk[0-9][0-9][0-9][0-9][0-9]*.dat"

// DefaultMaxBlocks is the default cap applied by DefaultOptions.
const DefaultMaxBlocks = 1000

// DefaultMaxOrphans is the default cap applied by DefaultOptions.
const DefaultMaxOrphans = 10000

// Options configures a Reader. The zero value of a pointer field means
// "no cap" for that field; use DefaultOptions for the conventional
// defaults instead of Options{}.
type Options struct {
	// MaxBlocks stops reading once height reaches this many emitted
	// blocks. nil means unlimited.
	MaxBlocks *uint32

	// MaxOrphans stops reading once the assembler's orphan queue
	// reaches this size. nil means unlimited.
	MaxOrphans *int

	// MaxBlkFiles truncates the sorted file list to this many entries.
	// nil means no truncation.
	MaxBlkFiles *int

	// StopFlag, when non-nil, is observed between records; a true value
	// stops the read cleanly.
	StopFlag *atomic.Bool

	// Magic is the 4-byte network magic expected at the start of every
	// record. The zero value is replaced with wire.MainNetMagic.
	Magic wire.BlockMagic

	// Metrics, if non-nil, receives counters and gauges as blocks are
	// inserted and emitted. A nil Metrics is safe and simply records
	// nothing.
	Metrics *metrics.Recorder

	// BlockFunc is invoked exactly once per emitted block, in ascending
	// height order starting at 0.
	BlockFunc func(block wire.LazyBlock, height uint32)

	// FileFunc is invoked once per fully-consumed file, with the current
	// height (blocks emitted so far) and the header timestamp of the last
	// record read from it.
	FileFunc func(path string, height uint32, lastHeaderTime uint32)
}

// DefaultOptions returns the conventional caps: 1000 blocks, 10000
// orphans, no file limit, no stop flag.
func DefaultOptions() Options {
	maxBlocks := uint32(DefaultMaxBlocks)
	maxOrphans := DefaultMaxOrphans
	return Options{
		MaxBlocks:  &maxBlocks,
		MaxOrphans: &maxOrphans,
		Magic:      wire.MainNetMagic,
	}
}

// Reader drives a directory of blk*.dat files through the chain
// assembler, dispatching confirmed blocks in height order.
type Reader struct {
	dir     string
	opts    Options
	chain   *chain.Chain
	height  uint32
	metrics *metrics.Recorder
}

// New returns a Reader over dir.
func New(dir string, opts Options) *Reader {
	if opts.Magic == (wire.BlockMagic{}) {
		opts.Magic = wire.MainNetMagic
	}
	return &Reader{
		dir:     dir,
		opts:    opts,
		chain:   chain.New(chainhash.ZeroHash),
		metrics: opts.Metrics,
	}
}

// Height returns the number of blocks emitted so far.
func (r *Reader) Height() uint32 {
	return r.height
}

// OrphanCount returns the number of blocks currently queued in the
// assembler awaiting an unseen parent.
func (r *Reader) OrphanCount() int {
	return r.chain.OrphanCount()
}

// Read lists dir, processes its blk*.dat files in sorted order, and
// returns once every file is consumed or a stop condition fires. A stop
// condition (the stop flag, MaxBlocks, or MaxOrphans) ends Read cleanly
// with a nil error; the forest is left exactly as it stood at that
// moment, and up to chain.ConfirmationDepth-1 blocks may remain
// unemitted. Call Drain afterward to flush them.
func (r *Reader) Read() error {
	files, err := r.listFiles()
	if err != nil {
		return err
	}

	for _, path := range files {
		if r.stopRequested() || r.maxBlocksReached() {
			return nil
		}

		stopped, err := r.readFile(path)
		if err != nil {
			return err
		}
		if stopped {
			return nil
		}
	}
	return nil
}

// Drain pops every remaining block from the assembler regardless of
// depth, dispatching each to BlockFunc in height order. Use it after Read
// to flush the final sub-confirmation-depth tail.
func (r *Reader) Drain() {
	for {
		block, ok := r.chain.PopHead()
		if !ok {
			return
		}
		r.emit(block)
	}
}

// readFile drives the decoder for path to EOF or until a stop condition
// fires. stopped is true iff a stop condition ended the read before EOF.
func (r *Reader) readFile(path string) (stopped bool, err error) {
	dec, err := wire.OpenFile(path, r.opts.Magic)
	if err != nil {
		return false, err
	}
	defer dec.Close()

	var lastHeaderTime uint32

	for {
		block, err := dec.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return false, err
		}

		lastHeaderTime = uint32(block.Header.Timestamp.Unix())

		r.chain.Insert(block)
		r.drainConfirmed()
		r.sampleGauges()

		if r.stopRequested() {
			log.Debugf("reader: stop signal received in %s", path)
			return true, nil
		}
		if r.maxBlocksReached() {
			log.Debugf("reader: max blocks reached in %s", path)
			return true, nil
		}
		if r.maxOrphansReached() {
			log.Debugf("reader: max orphans reached in %s", path)
			return true, nil
		}
	}

	log.Debugf("reader: finished %s at height=%d", path, r.height)
	r.metrics.FileProcessed()
	if r.opts.FileFunc != nil {
		r.opts.FileFunc(path, r.height, lastHeaderTime)
	}
	return false, nil
}

// drainConfirmed emits every block whose branch has reached
// chain.ConfirmationDepth, popping the head each time (so blocks leave in
// height order), stopping as soon as the forest falls below that depth.
func (r *Reader) drainConfirmed() {
	for r.chain.LongestChainDepth() >= chain.ConfirmationDepth {
		block, ok := r.chain.PopHead()
		if !ok {
			return
		}
		r.emit(block)
	}
}

func (r *Reader) emit(block wire.LazyBlock) {
	height := r.height
	r.height++
	r.metrics.BlockEmitted()
	if r.opts.BlockFunc != nil {
		r.opts.BlockFunc(block, height)
	}
}

func (r *Reader) sampleGauges() {
	r.metrics.SetOrphansHeld(r.chain.OrphanCount())
	r.metrics.SetLongestChainDepth(r.chain.LongestChainDepth())
}

func (r *Reader) stopRequested() bool {
	return r.opts.StopFlag != nil && r.opts.StopFlag.Load()
}

func (r *Reader) maxBlocksReached() bool {
	return r.opts.MaxBlocks != nil && r.height >= *r.opts.MaxBlocks
}

func (r *Reader) maxOrphansReached() bool {
	return r.opts.MaxOrphans != nil && r.chain.OrphanCount() >= *r.opts.MaxOrphans
}

// listFiles returns dir's blk*.dat files in sorted (numeric, given
// fixed-width naming) order, truncated to MaxBlkFiles if set.
func (r *Reader) listFiles() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, &wire.IOError{Path: r.dir, Err: err}
	}

	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := doublestar.Match(blkFilePattern, e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, filepath.Join(r.dir, e.Name()))
		}
	}
	sort.Strings(matches)

	if r.opts.MaxBlkFiles != nil && len(matches) > *r.opts.MaxBlkFiles {
		matches = matches[:*r.opts.MaxBlkFiles]
	}
	return matches, nil
}
