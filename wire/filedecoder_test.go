// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// encodeRecord builds one magic|size|header|blob framed record.
func encodeRecord(t *testing.T, magic BlockMagic, header BlockHeader, blob []byte) []byte {
	t.Helper()

	var hbuf bytes.Buffer
	require.NoError(t, header.Serialize(&hbuf))

	var out bytes.Buffer
	out.Write(magic[:])

	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(hbuf.Len()+len(blob)))
	out.Write(sizeBuf[:])
	out.Write(hbuf.Bytes())
	out.Write(blob)
	return out.Bytes()
}

func writeBlkFile(t *testing.T, dir, name string, records [][]byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	for _, r := range records {
		buf.Write(r)
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func sampleHeader(seed byte) BlockHeader {
	h := BlockHeader{
		Version:   1,
		Timestamp: time.Unix(1231006505, 0).UTC(),
		Bits:      0x1d00ffff,
		Nonce:     uint32(seed),
	}
	h.MerkleRoot[0] = seed
	return h
}

func TestFileDecoderRoundTrip(t *testing.T) {
	dir := t.TempDir()

	h1 := sampleHeader(1)
	blob1 := []byte{0x01, 0x02, 0x03}
	rec1 := encodeRecord(t, MainNetMagic, h1, blob1)

	h2 := sampleHeader(2)
	blob2 := []byte{0xaa, 0xbb}
	rec2 := encodeRecord(t, MainNetMagic, h2, blob2)

	path := writeBlkFile(t, dir, "blk00000.dat", [][]byte{rec1, rec2})

	dec, err := OpenFile(path, MainNetMagic)
	require.NoError(t, err)
	defer dec.Close()

	b1, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, int64(0), b1.Offset)
	require.Equal(t, uint32(0), b1.BlkIndex)
	require.Equal(t, blob1, b1.TxBlob)

	b2, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, int64(len(rec1)), b2.Offset)
	require.Equal(t, blob2, b2.TxBlob)

	_, err = dec.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestFileDecoderCorruptFrame(t *testing.T) {
	dir := t.TempDir()

	h1 := sampleHeader(1)
	rec1 := encodeRecord(t, MainNetMagic, h1, nil)

	path := writeBlkFile(t, dir, "blk00001.dat", [][]byte{rec1, {0x00, 0x00, 0x00, 0x00}})

	dec, err := OpenFile(path, MainNetMagic)
	require.NoError(t, err)
	defer dec.Close()

	_, err = dec.Next()
	require.NoError(t, err)

	_, err = dec.Next()
	var corrupt *CorruptFrameError
	require.ErrorAs(t, err, &corrupt)
	require.Equal(t, int64(len(rec1)), corrupt.Offset)
}

func TestFileDecoderTruncated(t *testing.T) {
	dir := t.TempDir()

	h1 := sampleHeader(1)
	rec1 := encodeRecord(t, MainNetMagic, h1, []byte{1, 2, 3, 4, 5})
	truncated := rec1[:len(rec1)-3]

	path := writeBlkFile(t, dir, "blk00002.dat", [][]byte{truncated})

	dec, err := OpenFile(path, MainNetMagic)
	require.NoError(t, err)
	defer dec.Close()

	_, err = dec.Next()
	var trunc *TruncatedError
	require.ErrorAs(t, err, &trunc)
}

func TestOpenFileMissingReturnsIOError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blk00099.dat")

	_, err := OpenFile(path, MainNetMagic)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBlkFileIndexParsing(t *testing.T) {
	idx, err := BlkFileIndex("/data/blocks/blk00042.dat")
	require.NoError(t, err)
	require.Equal(t, uint32(42), idx)

	_, err = BlkFileIndex("/data/blocks/notablkfile.dat")
	var invalid *InvalidFilenameError
	require.ErrorAs(t, err, &invalid)
}
