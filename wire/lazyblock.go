// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"

	"github.com/flokiorg/blkreader/chainhash"
)

// LazyBlock is the unit that flows from the file decoder into the chain
// assembler: a parsed header plus the raw, still-undecoded transaction
// bytes, together with enough locator information to re-open the exact
// bytes on disk later.
type LazyBlock struct {
	Header   BlockHeader
	TxBlob   []byte
	BlkPath  string
	BlkIndex uint32
	Offset   int64
}

// ID returns the block's identifier: the double-SHA256 of its header.
// It is a pure function of Header and therefore stable across copies.
func (b *LazyBlock) ID() chainhash.Hash {
	return b.Header.BlockHash()
}

// PrevID returns the identifier of the block this one extends.
func (b *LazyBlock) PrevID() chainhash.Hash {
	return b.Header.PrevBlock
}

// Block is the fully decoded pair LazyBlock.Decode returns: the header
// plus the parsed transaction list.
type Block struct {
	Header BlockHeader
	Txs    []Tx
}

// Decode consumes TxBlob and returns the full (header, txs) pair. It does
// not mutate the receiver and may be called repeatedly; callers that want
// to avoid repeating the decode cost should memoize through
// blockcache.Cache instead.
func (b *LazyBlock) Decode() (*Block, error) {
	txs, err := decodeTxVector(bytes.NewReader(b.TxBlob))
	if err != nil {
		return nil, err
	}
	return &Block{Header: b.Header, Txs: txs}, nil
}
