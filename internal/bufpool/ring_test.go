// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package bufpool

import (
	"testing"
	"time"
)

type fakeFence struct{ signalled bool }

func (f *fakeFence) Insert() any { return &fakeFence{signalled: true} }
func (f *fakeFence) Wait(v any, _ time.Duration) bool {
	fv, ok := v.(*fakeFence)
	return ok && fv.signalled
}

func TestStreamingRingOverflow(t *testing.T) {
	be := newFakeBackend()
	var warned []string
	ring, err := NewRing(be, 0x8892, 0x88E8, 64<<10, &fakeFence{}, func(s string) { warned = append(warned, s) })
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer ring.Destroy()

	ring.BeginFrame()
	data := make([]byte, 70<<10)
	_, ok := ring.StreamAlloc(len(data), data)
	if ok {
		t.Fatalf("expected overflow to fail")
	}
	if len(warned) == 0 {
		t.Fatalf("expected overflow warning")
	}
}

func TestStreamingRingRegionsDoNotOverlap(t *testing.T) {
	be := newFakeBackend()
	ring, _ := NewRing(be, 0x8892, 0x88E8, 1024, &fakeFence{}, nil)
	defer ring.Destroy()

	seen := map[int]bool{}
	for frame := 0; frame < 6; frame++ {
		ring.BeginFrame()
		off, ok := ring.StreamAlloc(256, make([]byte, 256))
		if !ok {
			t.Fatalf("frame %d: unexpected overflow", frame)
		}
		region := off / ring.RegionSize()
		seen[region] = true
	}
	if len(seen) != ringRegions {
		t.Fatalf("expected all %d regions exercised, saw %d", ringRegions, len(seen))
	}
}
