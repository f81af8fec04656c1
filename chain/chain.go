// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain implements the assembler: a mutable forest of
// partially-linked blocks that accepts blocks out of parent-order,
// absorbs short forks, prunes losing branches once a dominant branch is
// deep enough, and emits blocks in canonical chain order while bounding
// memory.
//
// The algorithm is ported from a reference-counted, interior-mutable
// tree (Rc<RefCell<Node>> with parent/child pointers) to an arena of
// slots addressed by a stable NodeIndex, per the "safe re-architecture"
// alternative: pruning a branch returns its slots to a free list instead
// of tearing down a cycle of shared pointers, and every traversal is a
// plain slice index instead of a pointer chase.
package chain

import (
	"github.com/flokiorg/blkreader/chainhash"
	blog "github.com/flokiorg/blkreader/log"
	"github.com/flokiorg/blkreader/wire"
)

// ConfirmationDepth is the minimum length of the main branch rooted at a
// block before the driver considers it safe to emit: the well-known
// "10 confirmations" rule, giving a 9-block lookahead for fork
// resolution. It is intentionally a fixed constant, not a tunable option,
// to preserve the source's behavior.
const ConfirmationDepth = 10

// log is this package's diagnostics sink, defaulting to a no-op.
var log blog.Logger = blog.Disabled

// UseLogger sets the logger the chain package uses for diagnostics.
func UseLogger(logger blog.Logger) {
	log = logger
}

// NodeIndex addresses a slot in a Chain's arena. The zero value is never
// a valid allocated index (see invalidIndex); callers never construct a
// NodeIndex directly.
type NodeIndex int32

const invalidIndex NodeIndex = -1

// node is one arena slot: the block it holds, a back-reference to its
// parent slot (or invalidIndex for the root), and its children in
// first-inserted order. First-inserted order is what makes "ties broken
// by first-inserted child" fall out of a simple linear scan.
type node struct {
	block    wire.LazyBlock
	parent   NodeIndex
	children []NodeIndex
}

// Chain is the forest of known blocks rooted at head, the next candidate
// to emit.
type Chain struct {
	arena []node
	free  []NodeIndex

	head NodeIndex

	// nodes maps a block id to its arena slot. It contains exactly the
	// ids reachable from head through child edges.
	nodes map[chainhash.Hash]NodeIndex

	// orphans maps a MISSING parent's id to the single block waiting on
	// it. A second arrival naming the same missing parent silently
	// replaces the first - this is the source's documented behavior
	// (keying by parent id gives O(1) lookup when that parent finally
	// attaches, at the cost of losing the earlier, still-orphaned
	// sibling). Not changed without explicit intent.
	orphans map[chainhash.Hash]wire.LazyBlock

	genesisParent chainhash.Hash
}

// New returns an empty Chain. genesisParent is the sentinel prev-id that
// identifies the genesis block (normally chainhash.ZeroHash).
func New(genesisParent chainhash.Hash) *Chain {
	return &Chain{
		head:          invalidIndex,
		nodes:         make(map[chainhash.Hash]NodeIndex),
		orphans:       make(map[chainhash.Hash]wire.LazyBlock),
		genesisParent: genesisParent,
	}
}

// OrphanCount returns the number of blocks currently queued awaiting an
// unseen parent.
func (c *Chain) OrphanCount() int {
	return len(c.orphans)
}

// Insert adds block to the forest. It always succeeds: block is either
// attached to a known parent, becomes (or remains) the genesis, or is
// queued in orphans awaiting its parent.
func (c *Chain) Insert(block wire.LazyBlock) {
	id := block.ID()
	prev := block.PrevID()

	if c.head == invalidIndex && prev == c.genesisParent {
		idx := c.alloc(block)
		c.head = idx
		c.nodes[id] = idx
		log.Debugf("chain: genesis %s", id)
		c.resolveOrphan(id)
		return
	}

	if parentIdx, ok := c.nodes[prev]; ok {
		idx := c.alloc(block)
		c.arena[idx].parent = parentIdx
		c.arena[parentIdx].children = append(c.arena[parentIdx].children, idx)
		c.nodes[id] = idx
		log.Tracef("chain: attached %s (prev %s)", id, prev)
		c.resolveOrphan(id)
		return
	}

	log.Tracef("chain: orphan %s (missing parent %s)", id, prev)
	c.orphans[prev] = block
}

// resolveOrphan checks whether any orphan was waiting on the block just
// attached (id), and if so removes and re-inserts it. Insert recurses
// here, so resolving one orphan can cascade into resolving the next.
func (c *Chain) resolveOrphan(id chainhash.Hash) {
	orphan, ok := c.orphans[id]
	if !ok {
		return
	}
	delete(c.orphans, id)
	c.Insert(orphan)
}

// LongestChainDepth returns the depth of the deepest path from head,
// inclusive (a childless head has depth 1), or 0 if the forest is empty.
// It is computed on demand by walking children rather than cached - not
// essential for correctness at the scale a single node's block files
// reach.
func (c *Chain) LongestChainDepth() uint32 {
	if c.head == invalidIndex {
		return 0
	}
	return c.depth(c.head)
}

func (c *Chain) depth(idx NodeIndex) uint32 {
	children := c.arena[idx].children
	if len(children) == 0 {
		return 1
	}
	var max uint32
	for _, ch := range children {
		if d := c.depth(ch); d > max {
			max = d
		}
	}
	return max + 1
}

// deepestChild returns the child of idx whose subtree is deepest, ties
// broken by first-inserted child (the first scanned wins on a tie,
// because only a strictly greater depth replaces it).
func (c *Chain) deepestChild(idx NodeIndex) (NodeIndex, bool) {
	children := c.arena[idx].children
	if len(children) == 0 {
		return invalidIndex, false
	}

	best := children[0]
	bestDepth := c.depth(best)
	for _, ch := range children[1:] {
		if d := c.depth(ch); d > bestDepth {
			bestDepth = d
			best = ch
		}
	}
	return best, true
}

// PopHead removes and returns the head block, re-rooting the forest on
// the deepest surviving child and permanently pruning every sibling
// subtree of that child. ok is false iff the forest is empty.
func (c *Chain) PopHead() (wire.LazyBlock, bool) {
	if c.head == invalidIndex {
		return wire.LazyBlock{}, false
	}

	headIdx := c.head
	block := c.arena[headIdx].block
	id := block.ID()

	best, hasChild := c.deepestChild(headIdx)
	if !hasChild {
		delete(c.nodes, id)
		c.release(headIdx)
		c.head = invalidIndex
		return block, true
	}

	for _, ch := range c.arena[headIdx].children {
		if ch == best {
			continue
		}
		c.pruneSubtree(ch)
	}

	c.arena[best].parent = invalidIndex
	delete(c.nodes, id)
	c.release(headIdx)
	c.head = best

	return block, true
}

// pruneSubtree permanently discards idx and every node beneath it: their
// ids are removed from nodes and their slots returned to the free list.
// A block discarded this way is never re-emitted, even if a longer
// subchain later extends from it, because nothing can attach to a slot
// that no longer exists in nodes.
func (c *Chain) pruneSubtree(idx NodeIndex) {
	for _, ch := range c.arena[idx].children {
		c.pruneSubtree(ch)
	}
	id := c.arena[idx].block.ID()
	log.Tracef("chain: pruning %s", id)
	delete(c.nodes, id)
	c.release(idx)
}

// alloc returns a slot holding block, reusing a released slot when one is
// available.
func (c *Chain) alloc(block wire.LazyBlock) NodeIndex {
	if n := len(c.free); n > 0 {
		idx := c.free[n-1]
		c.free = c.free[:n-1]
		c.arena[idx] = node{block: block, parent: invalidIndex}
		return idx
	}

	idx := NodeIndex(len(c.arena))
	c.arena = append(c.arena, node{block: block, parent: invalidIndex})
	return idx
}

// release clears idx's slot (letting the block's owned bytes be
// collected) and returns it to the free list.
func (c *Chain) release(idx NodeIndex) {
	c.arena[idx] = node{parent: invalidIndex}
	c.free = append(c.free, idx)
}
