// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "fmt"

// CorruptFrameError indicates the 4-byte magic read at the start of a
// record did not match the expected network magic.  The decoder never
// attempts to resync past a corrupt frame.
type CorruptFrameError struct {
	Path   string
	Offset int64
	Got    [4]byte
}

func (e *CorruptFrameError) Error() string {
	return fmt.Sprintf("%s: corrupt frame at offset %d: magic %x", e.Path, e.Offset, e.Got)
}

// TruncatedError indicates a framed record's header or tx payload was cut
// short: fewer bytes were available than the record declared.
type TruncatedError struct {
	Path   string
	Offset int64
	Want   int
	Got    int
	Err    error
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%s: truncated record at offset %d: wanted %d bytes, got %d",
		e.Path, e.Offset, e.Want, e.Got)
}

func (e *TruncatedError) Unwrap() error { return e.Err }

// InvalidFilenameError indicates a blk<digits>.dat filename's digit suffix
// could not be parsed into a file index.
type InvalidFilenameError struct {
	Path string
	Err  error
}

func (e *InvalidFilenameError) Error() string {
	return fmt.Sprintf("%s: invalid blk file name: %v", e.Path, e.Err)
}

func (e *InvalidFilenameError) Unwrap() error { return e.Err }

// IOError wraps an OS-level failure opening or reading a blk file (or the
// directory containing them), so callers can still errors.Is against the
// underlying os error (os.ErrNotExist, os.ErrPermission, ...).
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
