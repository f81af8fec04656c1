// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	blog "github.com/flokiorg/blkreader/log"
)

// BlockMagic identifies the network a blk*.dat file belongs to. Mainnet
// Bitcoin (and its direct forks) use F9 BE B4 D9.
type BlockMagic [4]byte

// MainNetMagic is the 4-byte magic prefixing every record on Bitcoin
// mainnet and the networks descended from it.
var MainNetMagic = BlockMagic{0xf9, 0xbe, 0xb4, 0xd9}

// log is this package's diagnostics sink. It defaults to a no-op logger;
// call UseLogger to wire it up.
var log blog.Logger = blog.Disabled

// UseLogger sets the logger the wire package uses for diagnostics.
func UseLogger(logger blog.Logger) {
	log = logger
}

// blkFilenameRe matches the "blkNNNNN.dat" filename shape: a run of
// decimal digits between the "blk" prefix and the ".dat" suffix, with no
// constraint on digit count beyond "at least one".
var blkFilenameRe = regexp.MustCompile(`^blk([0-9]+)\.dat$`)

// BlkFileIndex parses the numeric index out of a blkNNNNN.dat path.
func BlkFileIndex(path string) (uint32, error) {
	m := blkFilenameRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, &InvalidFilenameError{Path: path}
	}
	n, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, &InvalidFilenameError{Path: path, Err: err}
	}
	return uint32(n), nil
}

// FileDecoder walks a single blk*.dat file, yielding one LazyBlock per
// framed record.
type FileDecoder struct {
	path     string
	blkIndex uint32
	magic    BlockMagic
	r        *bufio.Reader
	f        *os.File
	offset   int64
}

// OpenFile opens path and prepares to decode its framed records against
// magic. The file index used in every returned LazyBlock is parsed once,
// here, from path's filename.
func OpenFile(path string, magic BlockMagic) (*FileDecoder, error) {
	idx, err := BlkFileIndex(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	return &FileDecoder{
		path:     path,
		blkIndex: idx,
		magic:    magic,
		r:        bufio.NewReader(f),
		f:        f,
	}, nil
}

// Close releases the underlying file handle.
func (d *FileDecoder) Close() error {
	return d.f.Close()
}

// Next decodes and returns the next framed record. It returns io.EOF
// (unwrapped) once the file is cleanly exhausted between records.
func (d *FileDecoder) Next() (LazyBlock, error) {
	startOffset := d.offset

	var magicBuf [4]byte
	n, err := io.ReadFull(d.r, magicBuf[:])
	if err != nil {
		if err == io.EOF {
			return LazyBlock{}, io.EOF
		}
		return LazyBlock{}, &TruncatedError{Path: d.path, Offset: startOffset, Want: 4, Got: n, Err: err}
	}
	if BlockMagic(magicBuf) != d.magic {
		return LazyBlock{}, &CorruptFrameError{Path: d.path, Offset: startOffset, Got: magicBuf}
	}

	var sizeBuf [4]byte
	if _, err := io.ReadFull(d.r, sizeBuf[:]); err != nil {
		return LazyBlock{}, &TruncatedError{Path: d.path, Offset: startOffset + 4, Want: 4, Got: 0, Err: err}
	}
	size := littleEndian.Uint32(sizeBuf[:])

	var header BlockHeader
	if err := header.Deserialize(d.r); err != nil {
		return LazyBlock{}, &TruncatedError{Path: d.path, Offset: startOffset + 8, Want: HeaderLen, Got: 0, Err: err}
	}

	blobLen := int(size) - HeaderLen
	if blobLen < 0 {
		return LazyBlock{}, &TruncatedError{Path: d.path, Offset: startOffset + 8, Want: HeaderLen, Got: int(size)}
	}
	blob := make([]byte, blobLen)
	if blobLen > 0 {
		if _, err := io.ReadFull(d.r, blob); err != nil {
			return LazyBlock{}, &TruncatedError{Path: d.path, Offset: startOffset + 8 + HeaderLen, Want: blobLen, Got: 0, Err: err}
		}
	}

	d.offset = startOffset + 8 + int64(size)

	log.Tracef("decoded record at %s offset=%d size=%d", d.path, startOffset, size)

	return LazyBlock{
		Header:   header,
		TxBlob:   blob,
		BlkPath:  d.path,
		BlkIndex: d.blkIndex,
		Offset:   startOffset,
	}, nil
}
