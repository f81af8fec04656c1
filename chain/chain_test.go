// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flokiorg/blkreader/chainhash"
	"github.com/flokiorg/blkreader/wire"
)

// mkBlock builds a LazyBlock extending prev, distinguished from siblings
// by nonce so its id is unique and deterministic across test runs.
func mkBlock(prev chainhash.Hash, nonce uint32) wire.LazyBlock {
	h := wire.BlockHeader{
		Version:   1,
		PrevBlock: prev,
		Timestamp: time.Unix(1231006505, 0).UTC(),
		Bits:      0x1d00ffff,
		Nonce:     nonce,
	}
	return wire.LazyBlock{Header: h}
}

// S1: a strictly linear chain attaches every block and reports a
// monotonically increasing depth.
func TestLinearChainDepth(t *testing.T) {
	c := New(chainhash.ZeroHash)

	prev := chainhash.ZeroHash
	for i := uint32(1); i <= 5; i++ {
		b := mkBlock(prev, i)
		c.Insert(b)
		require.EqualValues(t, i, c.LongestChainDepth())
		prev = b.ID()
	}
	require.Zero(t, c.OrphanCount())
}

// S3: a block arriving before its parent is queued as an orphan and
// attaches automatically once the parent arrives, restoring the correct
// depth with no trace of the intermediate orphan state.
func TestLateParentResolvesOrphan(t *testing.T) {
	c := New(chainhash.ZeroHash)

	genesis := mkBlock(chainhash.ZeroHash, 1)
	c.Insert(genesis)

	child := mkBlock(genesis.ID(), 2)
	grandchild := mkBlock(child.ID(), 3)

	// grandchild arrives before its parent: orphaned.
	c.Insert(grandchild)
	require.Equal(t, 1, c.OrphanCount())
	require.EqualValues(t, 1, c.LongestChainDepth())

	// now the missing parent arrives, resolving the orphan.
	c.Insert(child)
	require.Zero(t, c.OrphanCount())
	require.EqualValues(t, 3, c.LongestChainDepth())
}

// S3 variant: a chain of several orphans arriving in reverse order
// cascades into a single fully-attached branch once the root parent
// shows up.
func TestCascadingOrphanResolution(t *testing.T) {
	c := New(chainhash.ZeroHash)

	genesis := mkBlock(chainhash.ZeroHash, 1)
	b1 := mkBlock(genesis.ID(), 2)
	b2 := mkBlock(b1.ID(), 3)
	b3 := mkBlock(b2.ID(), 4)

	c.Insert(b3)
	c.Insert(b2)
	c.Insert(b1)
	require.Equal(t, 3, c.OrphanCount())
	require.Zero(t, c.LongestChainDepth())

	c.Insert(genesis)
	require.Zero(t, c.OrphanCount())
	require.EqualValues(t, 4, c.LongestChainDepth())
}

// S2: a fork is absorbed without attaching to either branch incorrectly,
// and PopHead permanently discards the losing branch once the winning
// branch is deep enough to re-root onto.
func TestForkLoserIsPruned(t *testing.T) {
	c := New(chainhash.ZeroHash)

	genesis := mkBlock(chainhash.ZeroHash, 1)
	c.Insert(genesis)

	fork := mkBlock(genesis.ID(), 2)
	c.Insert(fork)

	winner := mkBlock(fork.ID(), 10)
	loser := mkBlock(fork.ID(), 20)
	c.Insert(winner)
	c.Insert(loser)
	require.EqualValues(t, 3, c.LongestChainDepth())

	// extend the winning branch one block deeper than the loser.
	winner2 := mkBlock(winner.ID(), 11)
	c.Insert(winner2)
	require.EqualValues(t, 4, c.LongestChainDepth())

	popped, ok := c.PopHead()
	require.True(t, ok)
	require.Equal(t, genesis.ID(), popped.ID())

	popped, ok = c.PopHead()
	require.True(t, ok)
	require.Equal(t, fork.ID(), popped.ID())

	// fork's deepest child is winner (winner2 makes its subtree deeper
	// than loser's), so loser's whole subtree is now gone: it can never
	// be popped, and re-submitting it does not resurrect it.
	popped, ok = c.PopHead()
	require.True(t, ok)
	require.Equal(t, winner.ID(), popped.ID())

	c.Insert(loser)
	require.Equal(t, 1, c.OrphanCount(), "loser's parent was pruned, so it re-orphans instead of re-attaching")
}

// PopHead on an empty chain reports ok=false rather than panicking.
func TestPopHeadEmpty(t *testing.T) {
	c := New(chainhash.ZeroHash)
	_, ok := c.PopHead()
	require.False(t, ok)
}

// A linear chain drained under the confirmation-depth policy emits every
// block in parent-before-child order and leaves exactly
// ConfirmationDepth-1 blocks unemitted when input stops exactly at
// ConfirmationDepth.
func TestDrainUnderConfirmationPolicy(t *testing.T) {
	c := New(chainhash.ZeroHash)

	var ids []chainhash.Hash
	prev := chainhash.ZeroHash
	for i := uint32(1); i <= ConfirmationDepth; i++ {
		b := mkBlock(prev, i)
		c.Insert(b)
		ids = append(ids, b.ID())
		prev = b.ID()
	}

	var emitted []chainhash.Hash
	for c.LongestChainDepth() >= ConfirmationDepth {
		b, ok := c.PopHead()
		require.True(t, ok)
		emitted = append(emitted, b.ID())
	}

	require.Len(t, emitted, 1)
	require.Equal(t, ids[0], emitted[0])
	require.EqualValues(t, ConfirmationDepth-1, c.LongestChainDepth())
}

// No block is ever emitted twice: once popped, a block's id is gone from
// the forest and PopHead never produces it again.
func TestNoReemission(t *testing.T) {
	c := New(chainhash.ZeroHash)

	prev := chainhash.ZeroHash
	for i := uint32(1); i <= 3; i++ {
		b := mkBlock(prev, i)
		c.Insert(b)
		prev = b.ID()
	}

	seen := make(map[chainhash.Hash]bool)
	for {
		b, ok := c.PopHead()
		if !ok {
			break
		}
		require.False(t, seen[b.ID()], "block emitted twice")
		seen[b.ID()] = true
	}
	require.Len(t, seen, 3)
}
