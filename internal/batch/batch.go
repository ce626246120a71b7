// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

// Package batch queues draw commands submitted during a frame, sorts
// them by batch key, and coalesces compatible runs into multi-draw
// emissions (§4.E).
package batch

import (
	"hash/fnv"
	"sort"
)

// Kind is the draw-command shape (§3 "Batch command").
type Kind int

const (
	KindArrays Kind = iota
	KindElements
	KindArraysInstanced
	KindElementsInstanced
)

// Key is the tuple whose bitwise equality determines whether two draws
// may coalesce: (program, vertex-array, texture0, texture1, primitive
// mode, state hash).
type Key struct {
	Program       uint32
	VertexArray   uint32
	Texture0      uint32
	Texture1      uint32
	PrimitiveMode uint32
	StateHash     uint64
}

// hash computes the stdlib hash/fnv 64-bit FNV-1a over the key's fields
// for the sort pass (§4.E "sort the queue by 64-bit FNV-1a over the
// batch key").
func (k Key) hash() uint64 {
	h := fnv.New64a()
	var buf [40]byte
	putU32(buf[0:4], k.Program)
	putU32(buf[4:8], k.VertexArray)
	putU32(buf[8:12], k.Texture0)
	putU32(buf[12:16], k.Texture1)
	putU32(buf[16:20], k.PrimitiveMode)
	putU64(buf[20:28], k.StateHash)
	_, _ = h.Write(buf[:28])
	return h.Sum64()
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Command is one queued draw (§3 "Batch command").
type Command struct {
	Kind          Kind
	PrimitiveMode uint32
	First, Count  int32 // arrays form
	IndexType     uint32
	IndexOffset   uintptr // elements form
	InstanceCount int32   // > 0 for instanced kinds
	BatchKey      Key

	sortHash uint64
	seq      int // original submit order, for stable grouping
}

// MultiDrawBackend issues the actual GL calls once state for a batch has
// been applied. Backed by glapi.Context in the root package.
type MultiDrawBackend interface {
	ApplyState(key Key)
	DrawArrays(mode uint32, first, count int32)
	DrawElements(mode uint32, count int32, indexType uint32, offset uintptr)
	MultiDrawArrays(mode uint32, firsts, counts []int32) (supported bool)
	MultiDrawElements(mode uint32, counts []int32, indexType uint32, offsets []uintptr) (supported bool)
}

// Stats mirrors §4.E's four live counters plus the per-kind breakdown
// this implementation supplements for diagnostics.
type Stats struct {
	Submitted      uint64
	Executed       uint64
	Saved          uint64
	BatchesCreated uint64

	ByKind [4]struct {
		Submitted uint64
		Executed  uint64
	}
}

// Batcher is the per-frame draw queue (§4.E).
type Batcher struct {
	backend      MultiDrawBackend
	queue        []Command
	capacity     int
	minBatchSize int
	enabled      bool

	stats Stats
	warn  func(string)
}

// New creates a Batcher whose queue is preallocated to
// maxBatchSize*8 entries (§4.E "Per-frame queue").
func New(backend MultiDrawBackend, maxBatchSize, minBatchSize int, enabled bool, warn func(string)) *Batcher {
	if warn == nil {
		warn = func(string) {}
	}
	if minBatchSize <= 0 {
		minBatchSize = 2
	}
	queueCap := maxBatchSize * 8
	b := &Batcher{
		backend:      backend,
		queue:        make([]Command, 0, queueCap),
		capacity:     queueCap,
		minBatchSize: minBatchSize,
		enabled:      enabled,
		warn:         warn,
	}
	return b
}

// BeginFrame zeroes the queue (§4.E "begin_frame").
func (b *Batcher) BeginFrame() {
	b.queue = b.queue[:0]
}

// Submit appends a command, flushing early if the preallocated capacity
// would overflow (§4.E "submit").
func (b *Batcher) Submit(cmd Command) {
	if len(b.queue) >= b.capacity {
		b.warn("batch: queue capacity reached, flushing early")
		b.Flush()
	}
	cmd.seq = len(b.queue)
	cmd.sortHash = cmd.BatchKey.hash()
	b.queue = append(b.queue, cmd)
	b.stats.Submitted++
	b.stats.ByKind[cmd.Kind].Submitted++
}

// EndFrame flushes the queue then updates counters (§4.E "end_frame").
func (b *Batcher) EndFrame() {
	b.Flush()
}

// Flush sorts the queue by batch-key hash (stable, so equal-key runs
// keep submit order), groups contiguous equal-key/equal-kind runs, and
// emits each run as a single multi-draw call when the run is long
// enough and batching is enabled (§4.E "Batching pass").
func (b *Batcher) Flush() {
	if len(b.queue) == 0 {
		return
	}

	sort.SliceStable(b.queue, func(i, j int) bool {
		return b.queue[i].sortHash < b.queue[j].sortHash
	})

	i := 0
	for i < len(b.queue) {
		j := i + 1
		for j < len(b.queue) && b.queue[j].sortHash == b.queue[i].sortHash &&
			b.queue[j].BatchKey == b.queue[i].BatchKey && b.queue[j].Kind == b.queue[i].Kind {
			j++
		}
		b.emitRun(b.queue[i:j])
		i = j
	}
	b.queue = b.queue[:0]
}

// emitRun applies state once for the run, then either issues one
// multi-draw call or falls back to individual draws per §4.E.
func (b *Batcher) emitRun(run []Command) {
	if len(run) == 0 {
		return
	}
	b.backend.ApplyState(run[0].BatchKey)

	// Instanced commands are never batchable (§4.E "Instanced commands").
	if run[0].Kind == KindArraysInstanced || run[0].Kind == KindElementsInstanced {
		for _, c := range run {
			b.emitOne(c)
			b.stats.Executed++
			b.stats.ByKind[c.Kind].Executed++
		}
		return
	}

	canBatch := b.enabled && len(run) >= b.minBatchSize
	if canBatch && b.emitMultiDraw(run) {
		b.stats.BatchesCreated++
		b.stats.Executed++
		b.stats.Saved += uint64(len(run) - 1)
		for _, c := range run {
			b.stats.ByKind[c.Kind].Executed++
		}
		return
	}

	// Native multi-draw unavailable, or batching disabled/run too short:
	// emit individually. When batching was attempted but the device
	// lacks native multi-draw, savings are reported as 0 (§4.E "honest
	// accounting").
	if canBatch {
		b.stats.BatchesCreated++
	}
	for _, c := range run {
		b.emitOne(c)
		b.stats.Executed++
		b.stats.ByKind[c.Kind].Executed++
	}
}

func (b *Batcher) emitOne(c Command) {
	switch c.Kind {
	case KindArrays, KindArraysInstanced:
		b.backend.DrawArrays(c.PrimitiveMode, c.First, c.Count)
	case KindElements, KindElementsInstanced:
		b.backend.DrawElements(c.PrimitiveMode, c.Count, c.IndexType, c.IndexOffset)
	}
}

// emitMultiDraw attempts a single coalesced call for the run; returns
// false if the device has no native multi-draw entry point, letting the
// caller fall back to individual emission.
func (b *Batcher) emitMultiDraw(run []Command) bool {
	switch run[0].Kind {
	case KindArrays:
		firsts := make([]int32, len(run))
		counts := make([]int32, len(run))
		for i, c := range run {
			firsts[i], counts[i] = c.First, c.Count
		}
		return b.backend.MultiDrawArrays(run[0].PrimitiveMode, firsts, counts)
	case KindElements:
		counts := make([]int32, len(run))
		offsets := make([]uintptr, len(run))
		for i, c := range run {
			counts[i], offsets[i] = c.Count, c.IndexOffset
		}
		return b.backend.MultiDrawElements(run[0].PrimitiveMode, counts, run[0].IndexType, offsets)
	default:
		return false
	}
}

// Stats returns a snapshot of the live draw-call counters.
func (b *Batcher) Stats() Stats { return b.stats }

// ResetStats zeroes the counters without affecting the queue.
func (b *Batcher) ResetStats() { b.stats = Stats{} }
