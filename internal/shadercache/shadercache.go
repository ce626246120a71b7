// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

// Package shadercache memoizes linked program binaries (§4.D), content
// addressed by an FNV-1a hash of the vertex+fragment source pair, with
// an in-memory LRU and an optional on-disk store bound to the GPU that
// produced it.
package shadercache

import (
	"container/list"
	"hash/fnv"
	"sync"
)

// Backend abstracts the link/retrieve/destroy GL calls a Cache needs.
type Backend interface {
	// LinkFromBinary creates a program from a stored binary and reports
	// whether it verified (linked successfully).
	LinkFromBinary(format uint32, binary []byte) (program uint32, ok bool)
	// RetrieveBinary fetches the binary form of an already-linked program.
	RetrieveBinary(program uint32) (format uint32, binary []byte, ok bool)
	DeleteProgram(program uint32)
}

// Key is the FNV-1a combined hash identifying a vertex+fragment source
// pair (§3 "Shader cache entry").
type Key uint64

// HashSources computes the combined key: `vh XOR (fh*31)`.
func HashSources(vert, frag string) Key {
	vh := fnv1a64(vert)
	fh := fnv1a64(frag)
	return Key(vh ^ (fh * 31))
}

func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

type entry struct {
	key          Key
	format       uint32
	binary       []byte
	lastUsed     int64 // monotonic-ish logical timestamp, see Cache.clock
	hits         uint64
	dirty        bool
	listElem     *list.Element
}

func (e *entry) size() int { return len(e.binary) }

// Stats mirrors the counters the query interface exposes.
type Stats struct {
	Hits, Misses uint64
	Entries      int
	Bytes        int64
}

// Cache is the shader binary store (§4.D). Its entry table takes its
// own mutex per §5 so a background loader may interact with it without
// issuing GL calls itself.
type Cache struct {
	mu       sync.Mutex
	backend  Backend
	byKey    map[Key]*entry
	lru      *list.List // front = most-recently-used
	maxBytes int64
	maxCount int
	bytes    int64
	stats    Stats
	clock    int64

	vendorHash, driverHash uint32

	warn func(string)
}

// New creates an empty cache bound to the given device identity hashes
// (§3 "Vendor hash + driver-version hash"), used both for disk-file
// rejection and as part of the cache's own bookkeeping.
func New(backend Backend, maxBytes int64, maxCount int, vendorHash, driverHash uint32, warn func(string)) *Cache {
	if warn == nil {
		warn = func(string) {}
	}
	return &Cache{
		backend:    backend,
		byKey:      make(map[Key]*entry),
		lru:        list.New(),
		maxBytes:   maxBytes,
		maxCount:   maxCount,
		vendorHash: vendorHash,
		driverHash: driverHash,
		warn:       warn,
	}
}

// Get looks up a cached program for the given source pair (§4.D "Lookup
// contract"). On hit it materializes a fresh program from the stored
// binary and verifies it links; a verification failure evicts the entry
// and reports a miss, degrading gracefully to source compilation.
func (c *Cache) Get(vert, frag string) (program uint32, hit bool) {
	key := HashSources(vert, frag)

	c.mu.Lock()
	e, found := c.byKey[key]
	c.mu.Unlock()
	if !found {
		c.mu.Lock()
		c.stats.Misses++
		c.mu.Unlock()
		return 0, false
	}

	program, ok := c.backend.LinkFromBinary(e.format, e.binary)
	if !ok {
		c.mu.Lock()
		c.evictLocked(e)
		c.stats.Misses++
		c.mu.Unlock()
		return 0, false
	}

	c.mu.Lock()
	c.clock++
	e.lastUsed = c.clock
	e.hits++
	c.lru.MoveToFront(e.listElem)
	c.stats.Hits++
	c.mu.Unlock()
	return program, true
}

// Lookup returns the raw cached binary for a source pair without
// materializing a program, for a caller that already holds a live
// program handle (from the host's own glCreateProgram) and needs to
// apply the binary onto that handle directly rather than receive a
// freshly created one. EvictStale removes the entry if the caller's own
// verification of the applied binary then fails.
func (c *Cache) Lookup(vert, frag string) (format uint32, binary []byte, hit bool) {
	key := HashSources(vert, frag)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.byKey[key]
	if !found {
		c.stats.Misses++
		return 0, nil, false
	}
	c.clock++
	e.lastUsed = c.clock
	e.hits++
	c.lru.MoveToFront(e.listElem)
	c.stats.Hits++
	return e.format, e.binary, true
}

// EvictStale drops the entry for a source pair whose cached binary
// failed to relink on the live driver (§4.D "Lookup contract": a
// verification failure evicts the entry and degrades to recompilation).
func (c *Cache) EvictStale(vert, frag string) {
	key := HashSources(vert, frag)
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, found := c.byKey[key]; found {
		c.evictLocked(e)
		c.stats.Misses++
	}
}

// Store captures program's binary form and inserts it under the source
// pair's key, evicting least-recently-used entries until the pending
// store fits within the byte/entry caps (§4.D "Eviction"). If the binary
// can't be retrieved the call is a no-op.
func (c *Cache) Store(vert, frag string, program uint32) {
	format, binary, ok := c.backend.RetrieveBinary(program)
	if !ok {
		return
	}
	key := HashSources(vert, frag)

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, exists := c.byKey[key]; exists {
		c.evictLocked(old)
	}

	c.clock++
	e := &entry{key: key, format: format, binary: binary, lastUsed: c.clock, dirty: true}
	c.evictToFitLocked(int64(e.size()))
	e.listElem = c.lru.PushFront(e)
	c.byKey[key] = e
	c.bytes += int64(e.size())
}

// evictToFitLocked drops LRU entries until there is room for an
// additional pending byte count (caller holds c.mu).
func (c *Cache) evictToFitLocked(pending int64) {
	for (c.bytes+pending > c.maxBytes || len(c.byKey) >= c.maxCount) && c.lru.Len() > 0 {
		back := c.lru.Back()
		e := back.Value.(*entry)
		c.evictLocked(e)
	}
}

// evictLocked removes one entry; caller holds c.mu.
func (c *Cache) evictLocked(e *entry) {
	if e.listElem != nil {
		c.lru.Remove(e.listElem)
	}
	delete(c.byKey, e.key)
	c.bytes -= int64(e.size())
}

// Stats returns a snapshot of the cache's live counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.byKey)
	s.Bytes = c.bytes
	return s
}

// Clear evicts every entry and destroys nothing GL-side (the cache only
// ever owned binaries, never program handles — §3 "Lifecycles").
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[Key]*entry)
	c.lru.Init()
	c.bytes = 0
}

// SizeBytes reports the live in-memory footprint.
func (c *Cache) SizeBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// SourcePair is one preload unit (§9's supplemental Preload).
type SourcePair struct {
	Vertex, Fragment string
	Program          uint32
}

// Preload offers a batch of already-linked programs to the cache in one
// call, useful for a host warming the cache for known shader variants
// at load time rather than waiting for first use.
func (c *Cache) Preload(pairs []SourcePair) {
	for _, p := range pairs {
		c.Store(p.Vertex, p.Fragment, p.Program)
	}
}
