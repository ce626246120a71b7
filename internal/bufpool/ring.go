// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package bufpool

import (
	"time"

	"github.com/velocitygl/velocitygl/internal/rt"
)

// Fence abstracts a GL sync object so Ring stays testable. The root
// package backs this with glapi.Context's FenceSync/ClientWaitSync.
type Fence interface {
	// Insert places a new fence marking "everything issued so far".
	Insert() any
	// Wait blocks (bounded by timeout) until f has signalled. Returns
	// false on timeout.
	Wait(f any, timeout time.Duration) bool
}

const ringRegions = 3
const ringFenceTimeout = time.Second

// Ring is the triple-buffered streaming region (§3 "Streaming ring",
// §4.C "Streaming ring"). It requires no lock: the spec restricts it to
// the single rendering thread (§4.C "Concurrency").
type Ring struct {
	backend     Backend
	id          uint32
	regionSize  int
	frame       int
	offset      int // offset within the current region
	fences      [ringRegions]any
	hasFence    [ringRegions]bool
	fencer      Fence
	warn        func(string)
}

// NewRing creates a ring buffer of 3*regionSize bytes.
func NewRing(backend Backend, target, usage uint32, regionSize int, fencer Fence, warn func(string)) (*Ring, error) {
	if warn == nil {
		warn = func(string) {}
	}
	id, _, ok := backend.CreateBuffer(target, usage, regionSize*ringRegions)
	if !ok {
		return nil, rt.ErrResourceExhausted
	}
	return &Ring{backend: backend, id: id, regionSize: regionSize, fencer: fencer, warn: warn}, nil
}

// BeginFrame advances the frame counter modulo 3 and waits (bounded) on
// that region's fence before resetting the intra-frame offset (§4.C
// "begin_frame"). A timed-out wait is logged and the region is reused
// anyway (§7 "Fence-timeout").
func (r *Ring) BeginFrame() {
	r.frame = (r.frame + 1) % ringRegions
	r.offset = 0
	if r.hasFence[r.frame] {
		if !r.fencer.Wait(r.fences[r.frame], ringFenceTimeout) {
			r.warn("bufpool: streaming ring fence wait timed out, proceeding")
		}
		r.hasFence[r.frame] = false
	}
}

// StreamAlloc appends data within the current region, aligning up, and
// returns the absolute byte offset into the backing buffer. Overflow
// returns (-1, false) and logs — the caller must not commit that range
// (§4.C "stream_alloc").
func (r *Ring) StreamAlloc(size int, data []byte) (offset int, ok bool) {
	aligned := alignUp(size, allocAlignment)
	if r.offset+aligned > r.regionSize {
		r.warn("bufpool: streaming ring overflow")
		return -1, false
	}
	regionStart := r.frame * r.regionSize
	abs := regionStart + r.offset
	r.backend.BufferSubData(r.id, abs, data[:size])
	r.offset += aligned
	return abs, true
}

// EndFrame inserts a fence for the region just used, so the next
// BeginFrame on this region slot waits for the GPU to finish consuming
// it (§4.C "end_frame").
func (r *Ring) EndFrame() {
	r.fences[r.frame] = r.fencer.Insert()
	r.hasFence[r.frame] = true
}

// RegionSize reports the per-region byte capacity, for tests.
func (r *Ring) RegionSize() int { return r.regionSize }

// Destroy releases the backing GL buffer.
func (r *Ring) Destroy() {
	r.backend.DeleteBuffer(r.id)
}
