// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

// Package bufpool sub-allocates GPU buffer storage (§4.C). Each Pool owns
// one backing GPU buffer and a doubly-linked free-list of blocks;
// allocations are best-fit with 256-byte alignment, coalesced back into
// the free-list on release. A separate [Ring] implements the
// triple-buffered streaming region used for per-frame transient uploads.
//
// When Backend.CreateBuffer returns a persistent mapping (a device with
// GL_EXT_buffer_storage and the persistent+coherent bits), Pool hands
// back stable []byte views into it for the buffer's lifetime instead of
// issuing upload calls. golang.org/x/sys/unix is used only for the
// anonymous mmap staging buffer in mmap_linux.go, on the non-persistent
// upload path.
package bufpool

import (
	"sync"

	"github.com/velocitygl/velocitygl/internal/rt"
)

const allocAlignment = 256

// Backend abstracts the GL calls a Pool needs so this package stays
// testable without a live context; the root package supplies the real
// implementation backed by glapi.Context.
type Backend interface {
	CreateBuffer(target, usage uint32, size int) (id uint32, persistentPtr []byte, ok bool)
	DeleteBuffer(id uint32)
	BufferSubData(id uint32, offset int, data []byte)
	FlushMappedRange(id uint32, offset, size int)
}

type block struct {
	offset, size   int
	free           bool
	prev, next     *block
}

// Allocation is a handle returned by Alloc. Validity is tied to the
// owning Pool's lifetime (§9 "Ownership of GPU handles").
type Allocation struct {
	pool       *Pool
	blk        *block
	alignedLen int
	mapped     []byte // non-nil when the pool is persistently mapped
}

// Offset returns the allocation's byte offset within the backing buffer.
func (a *Allocation) Offset() int { return a.blk.offset }

// Size returns the allocation's size rounded up to the 256-byte
// alignment; the requested (unaligned) size is not recorded.
func (a *Allocation) Size() int { return a.alignedLen }

// Pool sub-allocates one backing GL buffer (§4.C "Pool API").
type Pool struct {
	mu         sync.Mutex
	backend    Backend
	id         uint32
	target     uint32
	usage      uint32
	capacity   int
	head       *block
	persistent bool
	mapped     []byte
	staging    *stagingMmap

	warn func(string)
}

// Create allocates the backing GL buffer and initializes the pool's
// free-list as one block spanning the whole capacity. If persistentHint
// is true the backend is asked for a persistently-mapped buffer; Create
// degrades to the dynamic-draw path if the backend reports it couldn't
// provide one, matching §4.C's "Persistent mapping" fallback.
func Create(backend Backend, target, usage uint32, size int, persistentHint bool, warn func(string)) (*Pool, error) {
	if warn == nil {
		warn = func(string) {}
	}
	id, mapped, ok := backend.CreateBuffer(target, usage, size)
	if !ok {
		return nil, rt.ErrResourceExhausted
	}
	p := &Pool{
		backend:    backend,
		id:         id,
		target:     target,
		usage:      usage,
		capacity:   size,
		persistent: len(mapped) == size && persistentHint,
		mapped:     mapped,
		warn:       warn,
	}
	p.head = &block{offset: 0, size: size, free: true}

	if !p.persistent {
		if staging, err := newStagingMmap(size); err == nil {
			p.staging = staging
		} else {
			warn("bufpool: staging mmap unavailable, uploads go direct: " + err.Error())
		}
	}
	return p, nil
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

// Alloc finds the best-fitting free block (§4.C "Allocator"), splitting
// the tail into a new free block when the chosen block overshoots by
// more than one alignment unit. Returns nil on failure — no eviction.
func (p *Pool) Alloc(size int) *Allocation {
	aligned := alignUp(size, allocAlignment)

	p.mu.Lock()
	defer p.mu.Unlock()

	best := p.bestFit(aligned)
	if best == nil {
		p.warn("bufpool: alloc failed, no fitting block")
		return nil
	}
	best.free = false
	if best.size-aligned > allocAlignment {
		tail := &block{
			offset: best.offset + aligned,
			size:   best.size - aligned,
			free:   true,
			prev:   best,
			next:   best.next,
		}
		if best.next != nil {
			best.next.prev = tail
		}
		best.next = tail
		best.size = aligned
	}

	a := &Allocation{pool: p, blk: best, alignedLen: aligned}
	if p.persistent {
		a.mapped = p.mapped[best.offset : best.offset+aligned]
	}
	return a
}

// bestFit walks the free-list choosing the smallest block that still
// fits size, implementing §4.C's best-fit policy.
func (p *Pool) bestFit(size int) *block {
	var best *block
	for b := p.head; b != nil; b = b.next {
		if !b.free || b.size < size {
			continue
		}
		if best == nil || b.size < best.size {
			best = b
		}
	}
	return best
}

// Free releases an allocation, coalescing with free neighbours on both
// sides (§3 "adjacent free blocks are always coalesced on free").
func (p *Pool) Free(a *Allocation) {
	if a == nil || a.pool != p {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	b := a.blk
	b.free = true

	if b.next != nil && b.next.free {
		n := b.next
		b.size += n.size
		b.next = n.next
		if n.next != nil {
			n.next.prev = b
		}
	}
	if b.prev != nil && b.prev.free {
		pr := b.prev
		pr.size += b.size
		pr.next = b.next
		if b.next != nil {
			b.next.prev = pr
		}
	}
}

// Upload writes data into the allocation at the given offset (§4.C
// "upload"). On a persistently-mapped pool this is a plain copy into the
// mapped region; otherwise it issues a sub-data upload through Backend.
func (p *Pool) Upload(a *Allocation, offset int, data []byte) {
	if p.persistent {
		copy(a.mapped[offset:], data)
		return
	}
	if p.staging != nil {
		dst := p.staging.Bytes()[a.blk.offset+offset : a.blk.offset+offset+len(data)]
		copy(dst, data)
		p.backend.BufferSubData(p.id, a.blk.offset+offset, dst)
		return
	}
	p.backend.BufferSubData(p.id, a.blk.offset+offset, data)
}

// Map returns a host-visible view of the allocation, or nil if the pool
// is not persistently mapped.
func (p *Pool) Map(a *Allocation, offset, size int) []byte {
	if !p.persistent {
		return nil
	}
	return a.mapped[offset : offset+size]
}

// Unmap is a no-op: persistent mappings span the pool's lifetime (§9
// "no aliased writable persistent mappings... stable for the pool's
// lifetime"); non-persistent pools were never mapped.
func (p *Pool) Unmap(*Allocation) {}

// Flush is a no-op on a coherent persistent mapping; on a non-persistent
// pool it forwards the range, offset from the allocation's start, to
// Backend.FlushMappedRange.
func (p *Pool) Flush(a *Allocation, offset, size int) {
	if p.persistent {
		return // coherent: writes are visible without an explicit flush
	}
	p.backend.FlushMappedRange(p.id, a.blk.offset+offset, size)
}

// FreeBytes sums every free block's size, for tests verifying §8's
// round-trip size-conservation invariant.
func (p *Pool) FreeBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	sum := 0
	for b := p.head; b != nil; b = b.next {
		if b.free {
			sum += b.size
		}
	}
	return sum
}

// FreeListLength counts free-list blocks, coalesced or not.
func (p *Pool) FreeListLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for b := p.head; b != nil; b = b.next {
		if b.free {
			n++
		}
	}
	return n
}

// Destroy releases the backing GL buffer. The pool must not be used
// afterward.
func (p *Pool) Destroy() {
	p.backend.DeleteBuffer(p.id)
	if p.staging != nil {
		_ = p.staging.Close()
	}
}
