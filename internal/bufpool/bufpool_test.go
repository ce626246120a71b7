// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package bufpool

import "testing"

type fakeBackend struct {
	nextID  uint32
	deleted []uint32
	writes  map[uint32][]byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{writes: make(map[uint32][]byte)}
}

func (f *fakeBackend) CreateBuffer(target, usage uint32, size int) (uint32, []byte, bool) {
	f.nextID++
	f.writes[f.nextID] = make([]byte, size)
	return f.nextID, nil, true
}

func (f *fakeBackend) DeleteBuffer(id uint32) { f.deleted = append(f.deleted, id) }

func (f *fakeBackend) BufferSubData(id uint32, offset int, data []byte) {
	copy(f.writes[id][offset:], data)
}

func (f *fakeBackend) FlushMappedRange(id uint32, offset, size int) {}

func TestPoolFragmentationRoundTrip(t *testing.T) {
	be := newFakeBackend()
	pool, err := Create(be, 0x8892, 0x88E8, 1<<20, false, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer pool.Destroy()

	a := pool.Alloc(256 << 10)
	b := pool.Alloc(256 << 10)
	c := pool.Alloc(256 << 10)
	if a == nil || b == nil || c == nil {
		t.Fatalf("expected all three allocs to succeed")
	}

	pool.Free(b)
	d := pool.Alloc(200 << 10)
	if d == nil {
		t.Fatalf("expected D to fit in B's hole")
	}

	pool.Free(a)
	pool.Free(c)
	pool.Free(d)

	if got := pool.FreeBytes(); got != 1<<20 {
		t.Fatalf("free bytes = %d, want %d", got, 1<<20)
	}
	if got := pool.FreeListLength(); got != 1 {
		t.Fatalf("free list length = %d, want 1", got)
	}
}

func TestAllocFailureReturnsNilNoEviction(t *testing.T) {
	be := newFakeBackend()
	pool, _ := Create(be, 0x8892, 0x88E8, 1024, false, nil)
	defer pool.Destroy()

	a := pool.Alloc(2048)
	if a != nil {
		t.Fatalf("expected alloc failure for oversized request")
	}
	if pool.FreeBytes() != 1024 {
		t.Fatalf("free bytes changed after failed alloc")
	}
}

func TestUploadWritesThroughStaging(t *testing.T) {
	be := newFakeBackend()
	pool, _ := Create(be, 0x8892, 0x88E8, 4096, false, nil)
	defer pool.Destroy()

	a := pool.Alloc(256)
	payload := []byte{1, 2, 3, 4}
	pool.Upload(a, 0, payload)

	got := be.writes[pool.id][a.Offset() : a.Offset()+len(payload)]
	for i, b := range payload {
		if got[i] != b {
			t.Fatalf("byte %d = %d, want %d", i, got[i], b)
		}
	}
}
