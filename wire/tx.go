// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/flokiorg/blkreader/chainhash"
)

// maxScriptSize bounds a single scriptSig/scriptPubKey/witness-item read;
// it is far above anything a real chain produces and exists only to stop
// a corrupt length prefix from causing an enormous allocation.
const maxScriptSize = 1 << 24

// witnessMarker and witnessFlag are the two bytes that, in place of the
// input count, signal that a transaction carries segregated witness data
// (BIP144).
const (
	witnessMarker = 0x00
	witnessFlag   = 0x01
)

// OutPoint identifies a previous transaction output being spent.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// TxIn is one input of a transaction: the output it spends, the unlocking
// script (retained verbatim, never interpreted), and the sequence field.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Witness          [][]byte
	Sequence         uint32
}

// TxOut is one output of a transaction: an amount and a locking script
// (retained verbatim, never classified or interpreted).
type TxOut struct {
	Value    int64
	PkScript []byte
}

// Tx is a consensus-decoded transaction. blkreader does not validate or
// interpret scripts; Tx exists purely so a consumer's Decode() call has
// something structured to inspect (input/output counts, amounts, raw
// scripts) without re-parsing the blob by hand.
type Tx struct {
	Version  int32
	TxIn     []TxIn
	TxOut    []TxOut
	LockTime uint32
}

// decodeTxVector reads the consensus-encoded vector of transactions that
// follows a block header: a CompactSize transaction count followed by
// that many serialized transactions. This is exactly the payload
// LazyBlock.TxBlob holds.
func decodeTxVector(r io.Reader) ([]Tx, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	txs := make([]Tx, count)
	for i := range txs {
		if err := txs[i].decode(r); err != nil {
			return nil, err
		}
	}
	return txs, nil
}

func (tx *Tx) decode(r io.Reader) error {
	var versionBuf [4]byte
	if _, err := io.ReadFull(r, versionBuf[:]); err != nil {
		return err
	}
	tx.Version = int32(binary.LittleEndian.Uint32(versionBuf[:]))

	inCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}

	segwit := false
	if inCount == witnessMarker {
		var flag [1]byte
		if _, err := io.ReadFull(r, flag[:]); err != nil {
			return err
		}
		if flag[0] != witnessFlag {
			return fmt.Errorf("unexpected segwit flag byte 0x%02x", flag[0])
		}
		segwit = true

		inCount, err = ReadVarInt(r)
		if err != nil {
			return err
		}
	}

	tx.TxIn = make([]TxIn, inCount)
	for i := range tx.TxIn {
		if err := tx.TxIn[i].decode(r); err != nil {
			return err
		}
	}

	outCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	tx.TxOut = make([]TxOut, outCount)
	for i := range tx.TxOut {
		if err := tx.TxOut[i].decode(r); err != nil {
			return err
		}
	}

	if segwit {
		for i := range tx.TxIn {
			witnessCount, err := ReadVarInt(r)
			if err != nil {
				return err
			}
			witness := make([][]byte, witnessCount)
			for j := range witness {
				item, err := readVarBytes(r, maxScriptSize, "witness item")
				if err != nil {
					return err
				}
				witness[j] = item
			}
			tx.TxIn[i].Witness = witness
		}
	}

	var lockTimeBuf [4]byte
	if _, err := io.ReadFull(r, lockTimeBuf[:]); err != nil {
		return err
	}
	tx.LockTime = binary.LittleEndian.Uint32(lockTimeBuf[:])

	return nil
}

func (in *TxIn) decode(r io.Reader) error {
	if _, err := io.ReadFull(r, in.PreviousOutPoint.Hash[:]); err != nil {
		return err
	}

	var indexBuf [4]byte
	if _, err := io.ReadFull(r, indexBuf[:]); err != nil {
		return err
	}
	in.PreviousOutPoint.Index = binary.LittleEndian.Uint32(indexBuf[:])

	script, err := readVarBytes(r, maxScriptSize, "signature script")
	if err != nil {
		return err
	}
	in.SignatureScript = script

	var seqBuf [4]byte
	if _, err := io.ReadFull(r, seqBuf[:]); err != nil {
		return err
	}
	in.Sequence = binary.LittleEndian.Uint32(seqBuf[:])

	return nil
}

func (out *TxOut) decode(r io.Reader) error {
	var valueBuf [8]byte
	if _, err := io.ReadFull(r, valueBuf[:]); err != nil {
		return err
	}
	out.Value = int64(binary.LittleEndian.Uint64(valueBuf[:]))

	script, err := readVarBytes(r, maxScriptSize, "pk script")
	if err != nil {
		return err
	}
	out.PkScript = script

	return nil
}
