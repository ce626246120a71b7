// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package batch

import "testing"

type fakeBackend struct {
	applied       []Key
	drawCalls     int
	multiSupported bool
	multiCalls    int
}

func (f *fakeBackend) ApplyState(key Key) { f.applied = append(f.applied, key) }
func (f *fakeBackend) DrawArrays(mode uint32, first, count int32) { f.drawCalls++ }
func (f *fakeBackend) DrawElements(mode uint32, count int32, indexType uint32, offset uintptr) {
	f.drawCalls++
}
func (f *fakeBackend) MultiDrawArrays(mode uint32, firsts, counts []int32) bool {
	if !f.multiSupported {
		return false
	}
	f.multiCalls++
	return true
}
func (f *fakeBackend) MultiDrawElements(mode uint32, counts []int32, indexType uint32, offsets []uintptr) bool {
	if !f.multiSupported {
		return false
	}
	f.multiCalls++
	return true
}

func TestEightDrawBatchCoalesceWithMultiDraw(t *testing.T) {
	be := &fakeBackend{multiSupported: true}
	b := New(be, 64, 2, true, nil)
	b.BeginFrame()

	key := Key{Program: 1, VertexArray: 2, PrimitiveMode: 0x0004}
	for i := 0; i < 8; i++ {
		b.Submit(Command{Kind: KindArrays, PrimitiveMode: 0x0004, First: 0, Count: 6, BatchKey: key})
	}
	b.EndFrame()

	s := b.Stats()
	if s.Submitted != 8 {
		t.Fatalf("submitted = %d, want 8", s.Submitted)
	}
	if s.BatchesCreated != 1 {
		t.Fatalf("batches created = %d, want 1", s.BatchesCreated)
	}
	if s.Executed+s.Saved != 8 {
		t.Fatalf("executed+saved = %d, want 8", s.Executed+s.Saved)
	}
	if s.Saved != 7 {
		t.Fatalf("saved = %d, want 7 (device supports multi-draw)", s.Saved)
	}
	if be.multiCalls != 1 {
		t.Fatalf("expected exactly one multi-draw call, got %d", be.multiCalls)
	}
}

func TestEightDrawBatchCoalesceWithoutMultiDraw(t *testing.T) {
	be := &fakeBackend{multiSupported: false}
	b := New(be, 64, 2, true, nil)
	b.BeginFrame()

	key := Key{Program: 1, VertexArray: 2, PrimitiveMode: 0x0004}
	for i := 0; i < 8; i++ {
		b.Submit(Command{Kind: KindArrays, PrimitiveMode: 0x0004, First: 0, Count: 6, BatchKey: key})
	}
	b.EndFrame()

	s := b.Stats()
	if s.Executed+s.Saved != 8 {
		t.Fatalf("executed+saved = %d, want 8", s.Executed+s.Saved)
	}
	if s.Saved != 0 {
		t.Fatalf("saved = %d, want 0 (honest accounting, no native multi-draw)", s.Saved)
	}
	if be.drawCalls != 8 {
		t.Fatalf("draw calls = %d, want 8 individual emissions", be.drawCalls)
	}
}

func TestInstancedCommandsAlwaysIndividual(t *testing.T) {
	be := &fakeBackend{multiSupported: true}
	b := New(be, 64, 2, true, nil)
	b.BeginFrame()

	key := Key{Program: 1, VertexArray: 2, PrimitiveMode: 0x0004}
	for i := 0; i < 4; i++ {
		b.Submit(Command{Kind: KindArraysInstanced, PrimitiveMode: 0x0004, Count: 6, InstanceCount: 10, BatchKey: key})
	}
	b.EndFrame()

	s := b.Stats()
	if s.Executed != 4 {
		t.Fatalf("executed = %d, want 4 (one per instanced draw)", s.Executed)
	}
	if be.multiCalls != 0 {
		t.Fatalf("expected no multi-draw calls for instanced commands")
	}
}

func TestStableOrderWithinEqualKeys(t *testing.T) {
	be := &fakeBackend{multiSupported: false}
	b := New(be, 64, 2, true, nil)
	b.BeginFrame()

	key := Key{Program: 1}
	for i := 0; i < 3; i++ {
		b.Submit(Command{Kind: KindArrays, First: int32(i), Count: 1, BatchKey: key})
	}
	if len(b.queue) != 3 {
		t.Fatalf("expected 3 queued commands before flush")
	}
	for i, c := range b.queue {
		if c.seq != i {
			t.Fatalf("submit order not preserved: queue[%d].seq = %d", i, c.seq)
		}
	}
}

// TestFlushDoesNotCoalesceOnHashCollisionAlone guards against grouping by
// sortHash equality alone: two distinct keys forced to share a sortHash
// (impossible via real FNV-1a collisions in a test, so set up by hand)
// must still emit separate ApplyState calls — bitwise key equality is
// the batchability rule (spec §3), the hash only orders the sort pass.
func TestFlushDoesNotCoalesceOnHashCollisionAlone(t *testing.T) {
	be := &fakeBackend{multiSupported: true}
	b := New(be, 64, 2, true, nil)
	b.BeginFrame()

	keyA := Key{Program: 1}
	keyB := Key{Program: 2}

	b.queue = append(b.queue,
		Command{Kind: KindArrays, Count: 1, BatchKey: keyA, sortHash: 0xC0111DE, seq: 0},
		Command{Kind: KindArrays, Count: 1, BatchKey: keyB, sortHash: 0xC0111DE, seq: 1},
	)
	b.Flush()

	if len(be.applied) != 2 {
		t.Fatalf("expected 2 separate ApplyState calls for colliding-hash-but-different keys, got %d: %+v", len(be.applied), be.applied)
	}
	if be.applied[0] != keyA || be.applied[1] != keyB {
		t.Fatalf("expected ApplyState(keyA) then ApplyState(keyB), got %+v", be.applied)
	}
}
