// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used (LRU) cache
keyed by 64-bit content hashes.

Keys are built with [Key], which hashes its parts with xxhash. When created with
compression enabled via [New], string values may be stored zstd-compressed and are
transparently decompressed by [Cache.Get].
*/
package lrucache

import (
	"container/list"
	"errors"
	"hash"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"
	"github.com/klauspost/compress/zstd"
)

var ErrInvalidSize = errors.New("must provide a positive size")

var hasherPool = sync.Pool{
	New: func() any { return xxhash.New() },
}

// Key hashes parts into a cache key. Parts are separated so that
// ("ab", "c") and ("a", "bc") produce different keys.
func Key(parts ...string) uint64 {
	h, _ := hasherPool.Get().(hash.Hash64)
	defer hasherPool.Put(h)

	h.Reset()

	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}

	return h.Sum64()
}

// Stats counts cache lookups.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a fixed-capacity, least-recently-used cache that is safe for concurrent use.
// Instances must be constructed with [New]; the zero value is not ready for use.
type Cache struct {
	size  int
	order *list.List
	items map[uint64]*list.Element
	mu    sync.Mutex

	enc *zstd.Encoder
	dec *zstd.Decoder

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry struct {
	key        uint64
	value      any
	compressed bool
}

// New creates a cache holding at most size entries.
//
// If compress is true, string values are stored zstd-compressed whenever that
// is smaller than the original.
func New(size int, compress bool) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:  size,
		order: list.New(),
		items: make(map[uint64]*list.Element),
	}

	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.enc = enc
		c.dec = dec
	}

	return c, nil
}

// Add stores value under key, making it the most recently used entry.
// It reports whether an older entry was evicted.
func (c *Cache) Add(key uint64, value any) bool {
	stored, compressed := c.pack(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)

		ent, _ := el.Value.(*entry)
		ent.value, ent.compressed = stored, compressed

		return false
	}

	c.items[key] = c.order.PushFront(&entry{key: key, value: stored, compressed: compressed})

	if c.order.Len() <= c.size {
		return false
	}

	if oldest := c.order.Back(); oldest != nil {
		c.removeElement(oldest)
		c.evictions.Add(1)
	}

	return true
}

// Get returns the value for key and marks it as most recently used.
func (c *Cache) Get(key uint64) (any, bool) {
	c.mu.Lock()

	el, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)

		return nil, false
	}

	c.order.MoveToFront(el)

	ent, _ := el.Value.(*entry)
	stored, compressed := ent.value, ent.compressed

	c.mu.Unlock()

	v, ok := c.unpack(stored, compressed)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)

	return v, true
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}

	c.removeElement(el)

	return true
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	clear(c.items)
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Stats returns lookup counters since creation.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *Cache) removeElement(el *list.Element) {
	c.order.Remove(el)

	if ent, ok := el.Value.(*entry); ok {
		delete(c.items, ent.key)
	}
}

// pack compresses string values when enabled and worthwhile. It runs without
// the lock; zstd.Encoder supports concurrent EncodeAll calls.
func (c *Cache) pack(value any) (any, bool) {
	s, ok := value.(string)
	if !ok || c.enc == nil || s == "" {
		return value, false
	}

	packed := c.enc.EncodeAll([]byte(s), nil)
	if len(packed) >= len(s) {
		return value, false
	}

	return packed, true
}

// unpack reverses pack. A corrupt entry is reported as a miss.
func (c *Cache) unpack(stored any, compressed bool) (any, bool) {
	if !compressed {
		return stored, true
	}

	b, ok := stored.([]byte)
	if !ok || c.dec == nil {
		return nil, false
	}

	decoded, err := c.dec.DecodeAll(b, nil)
	if err != nil {
		return nil, false
	}

	return string(decoded), true
}
