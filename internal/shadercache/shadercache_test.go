// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package shadercache

import "testing"

type fakeBackend struct {
	nextProgram uint32
	binaries    map[uint32][]byte
	formats     map[uint32]uint32
	failLink    bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{binaries: make(map[uint32][]byte), formats: make(map[uint32]uint32)}
}

func (f *fakeBackend) LinkFromBinary(format uint32, binary []byte) (uint32, bool) {
	if f.failLink {
		return 0, false
	}
	f.nextProgram++
	f.binaries[f.nextProgram] = binary
	f.formats[f.nextProgram] = format
	return f.nextProgram, true
}

func (f *fakeBackend) RetrieveBinary(program uint32) (uint32, []byte, bool) {
	b, ok := f.binaries[program]
	return f.formats[program], b, ok
}

func (f *fakeBackend) DeleteProgram(program uint32) { delete(f.binaries, program) }

func TestShaderCacheHitCycle(t *testing.T) {
	be := newFakeBackend()
	c := New(be, 1<<20, 100, 0xAAAA, 0xBBBB, nil)

	vert, frag := "V0", "F0"
	be.nextProgram = 1
	be.binaries[1] = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	be.formats[1] = 42

	c.Store(vert, frag, 1)

	prog, hit := c.Get(vert, frag)
	if !hit || prog == 0 {
		t.Fatalf("expected cache hit after store")
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 0 {
		t.Fatalf("hits=%d misses=%d, want 1/0", s.Hits, s.Misses)
	}

	dir := t.TempDir()
	c.Flush(dir)

	c2 := New(be, 1<<20, 100, 0xAAAA, 0xBBBB, nil)
	if err := c2.Load(dir); err != nil {
		t.Fatalf("Load same vendor: %v", err)
	}
	if _, hit := c2.Get(vert, frag); !hit {
		t.Fatalf("expected hit after disk reload with matching vendor hash")
	}

	c3 := New(be, 1<<20, 100, 0xFFFF, 0xBBBB, nil)
	if err := c3.Load(dir); err == nil {
		t.Fatalf("expected vendor hash mismatch to report an error")
	}
	if _, hit := c3.Get(vert, frag); hit {
		t.Fatalf("expected miss after vendor change")
	}
}

func TestStoreEvictsToFitByteCap(t *testing.T) {
	be := newFakeBackend()
	c := New(be, 10, 100, 0, 0, nil)

	be.nextProgram = 1
	be.binaries[1] = make([]byte, 6)
	c.Store("v1", "f1", 1)

	be.nextProgram = 2
	be.binaries[2] = make([]byte, 6)
	c.Store("v2", "f2", 2)

	if _, hit := c.Get("v1", "f1"); hit {
		t.Fatalf("expected first entry evicted to respect byte cap")
	}
	if _, hit := c.Get("v2", "f2"); !hit {
		t.Fatalf("expected second entry to still be cached")
	}
}

func TestLookupReturnsRawBinaryWithoutMaterializingProgram(t *testing.T) {
	be := newFakeBackend()
	c := New(be, 1<<20, 100, 0, 0, nil)

	be.nextProgram = 7
	be.binaries[7] = []byte{9, 9, 9}
	be.formats[7] = 5
	c.Store("v", "f", 7)

	format, binary, hit := c.Lookup("v", "f")
	if !hit || format != 5 || len(binary) != 3 {
		t.Fatalf("Lookup = (%d, %v, %v), want (5, 3 bytes, true)", format, binary, hit)
	}
	if s := c.Stats(); s.Hits != 1 {
		t.Fatalf("Lookup should count as a hit, got %d", s.Hits)
	}

	if _, _, hit := c.Lookup("missing", "missing"); hit {
		t.Fatalf("Lookup should miss for an unknown source pair")
	}
}

func TestEvictStaleRemovesEntry(t *testing.T) {
	be := newFakeBackend()
	c := New(be, 1<<20, 100, 0, 0, nil)

	be.nextProgram = 1
	be.binaries[1] = []byte{1}
	c.Store("v", "f", 1)

	c.EvictStale("v", "f")

	if _, _, hit := c.Lookup("v", "f"); hit {
		t.Fatalf("expected entry gone after EvictStale")
	}
	if s := c.Stats(); s.Entries != 0 {
		t.Fatalf("expected 0 entries after EvictStale, got %d", s.Entries)
	}
}

func TestGetVerificationFailureEvictsAndMisses(t *testing.T) {
	be := newFakeBackend()
	c := New(be, 1<<20, 100, 0, 0, nil)

	be.nextProgram = 1
	be.binaries[1] = []byte{1, 2, 3}
	c.Store("v", "f", 1)

	be.failLink = true
	if _, hit := c.Get("v", "f"); hit {
		t.Fatalf("expected miss when verification fails")
	}
	be.failLink = false
	if _, hit := c.Get("v", "f"); hit {
		t.Fatalf("expected entry to stay evicted after failed verification")
	}
}
