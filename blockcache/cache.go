// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockcache memoizes wire.LazyBlock.Decode results. Decode is
// deliberately a pure, cache-free function on LazyBlock itself; any
// consumer that walks the same block more than once in a single run
// (a stats pass followed by an export pass, say) opts into memoization
// by routing through a Cache instead.
package blockcache

import (
	"time"

	"github.com/decred/dcrd/lru"

	"github.com/flokiorg/blkreader/chainhash"
	"github.com/flokiorg/blkreader/metrics"
	"github.com/flokiorg/blkreader/wire"
)

// Cache is a fixed-capacity LRU of decoded blocks, keyed by block id.
type Cache struct {
	entries *lru.Map[chainhash.Hash, *wire.Block]
	metrics *metrics.Recorder
}

// New returns a Cache holding at most capacity decoded blocks. recorder
// may be nil.
func New(capacity uint, recorder *metrics.Recorder) *Cache {
	return &Cache{
		entries: lru.NewMap[chainhash.Hash, *wire.Block](capacity),
		metrics: recorder,
	}
}

// Get returns the decoded form of block, decoding and inserting into the
// cache on miss.
func (c *Cache) Get(block *wire.LazyBlock) (*wire.Block, error) {
	id := block.ID()
	if decoded, ok := c.entries.Get(id); ok {
		return decoded, nil
	}

	start := time.Now()
	decoded, err := block.Decode()
	c.metrics.ObserveDecodeDuration(time.Since(start))
	if err != nil {
		return nil, err
	}

	c.entries.Put(id, decoded)
	return decoded, nil
}

// Peek returns the cached entry for id, if present, without decoding.
func (c *Cache) Peek(id chainhash.Hash) (*wire.Block, bool) {
	return c.entries.Get(id)
}

// Contains reports whether id is cached, without decoding.
func (c *Cache) Contains(id chainhash.Hash) bool {
	return c.entries.Contains(id)
}

// Len returns the number of currently cached entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}
