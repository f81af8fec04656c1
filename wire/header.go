// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/flokiorg/blkreader/chainhash"
)

// HeaderLen is the fixed size, in bytes, of a serialized BlockHeader:
// version(4) + prev block hash(32) + merkle root(32) + time(4) + bits(4)
// + nonce(4).
const HeaderLen = 80

// littleEndian is the single byte order used throughout the on-disk block
// file format.
var littleEndian = binary.LittleEndian

// BlockHeader is the fixed 80-byte record every block begins with.  Only
// the header is parsed eagerly; the rest of a block's bytes are retained
// as an opaque blob in LazyBlock.TxBlob.
type BlockHeader struct {
	// Version of the block. Not the same as the protocol version.
	Version int32

	// PrevBlock is the hash of the previous block header in the chain.
	PrevBlock chainhash.Hash

	// MerkleRoot is the root of the Merkle tree of this block's
	// transactions. Not verified by blkreader (no consensus validation).
	MerkleRoot chainhash.Hash

	// Timestamp the block was created. Encoded on disk as a uint32 unix
	// timestamp.
	Timestamp time.Time

	// Bits is the compact-form difficulty target.
	Bits uint32

	// Nonce used by the miner to satisfy the difficulty target.
	Nonce uint32
}

// BlockHash computes the block's identifier: the double-SHA256 digest of
// the serialized 80-byte header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	return chainhash.DoubleHashRaw(func(w io.Writer) error {
		return writeBlockHeader(w, h)
	})
}

// Deserialize reads the 80-byte header from r.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

// Serialize writes the 80-byte header to w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

func readBlockHeader(r io.Reader, h *BlockHeader) error {
	var buf [HeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}

	h.Version = int32(littleEndian.Uint32(buf[0:4]))
	copy(h.PrevBlock[:], buf[4:36])
	copy(h.MerkleRoot[:], buf[36:68])
	h.Timestamp = time.Unix(int64(littleEndian.Uint32(buf[68:72])), 0).UTC()
	h.Bits = littleEndian.Uint32(buf[72:76])
	h.Nonce = littleEndian.Uint32(buf[76:80])
	return nil
}

func writeBlockHeader(w io.Writer, h *BlockHeader) error {
	var buf [HeaderLen]byte

	littleEndian.PutUint32(buf[0:4], uint32(h.Version))
	copy(buf[4:36], h.PrevBlock[:])
	copy(buf[36:68], h.MerkleRoot[:])
	littleEndian.PutUint32(buf[68:72], uint32(h.Timestamp.Unix()))
	littleEndian.PutUint32(buf[72:76], h.Bits)
	littleEndian.PutUint32(buf[76:80], h.Nonce)

	_, err := w.Write(buf[:])
	return err
}
