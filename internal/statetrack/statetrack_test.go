// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package statetrack

import "testing"

func TestRedundantStateFilter(t *testing.T) {
	tr := New(nil)
	for i := 0; i < 1000; i++ {
		tr.Enable(capBlend, true)
	}
	c := tr.Counters()
	if c.Changed != 1 {
		t.Fatalf("changed = %d, want 1", c.Changed)
	}
	if c.Avoided != 999 {
		t.Fatalf("avoided = %d, want 999", c.Avoided)
	}
}

func TestResetThenChangeObserved(t *testing.T) {
	tr := New(nil)
	tr.BlendFuncSeparate(1, 2, 3, 4)
	tr.InvalidateAll()
	if !tr.BlendFuncSeparate(1, 2, 3, 4) {
		t.Fatalf("expected forward after invalidate even with identical args")
	}
	if tr.BlendFuncSeparate(1, 2, 3, 4) {
		t.Fatalf("expected avoid on second identical call after revalidation")
	}
}

func TestPushPopRestoresState(t *testing.T) {
	tr := New(nil)
	tr.DepthFunc(0x0201)
	tr.PushState()
	tr.DepthFunc(0x0203)
	if tr.m.depth.fn != 0x0203 {
		t.Fatalf("depth func not mutated before pop")
	}
	snap, ok := tr.PopState()
	if !ok {
		t.Fatalf("pop_state reported underflow unexpectedly")
	}
	if snap.m.depth.fn != 0x0201 {
		t.Fatalf("restored depth func = %#x, want %#x", snap.m.depth.fn, 0x0201)
	}
	if tr.m.depth.fn != 0x0201 {
		t.Fatalf("tracker mirror not restored: got %#x", tr.m.depth.fn)
	}
}

func TestStackOverflowIsWarnedNotFatal(t *testing.T) {
	var warned int
	tr := New(func(string) { warned++ })
	for i := 0; i < defaultStackDepth+2; i++ {
		tr.PushState()
	}
	if tr.StackDepth() != defaultStackDepth {
		t.Fatalf("stack depth = %d, want %d", tr.StackDepth(), defaultStackDepth)
	}
	if warned == 0 {
		t.Fatalf("expected overflow warning")
	}
}

func TestStackUnderflowIsWarnedNotFatal(t *testing.T) {
	var warned int
	tr := New(func(string) { warned++ })
	_, ok := tr.PopState()
	if ok {
		t.Fatalf("expected underflow to report !ok")
	}
	if warned != 1 {
		t.Fatalf("warned = %d, want 1", warned)
	}
}

func TestStateHashChangesWithBlendState(t *testing.T) {
	tr := New(nil)
	before := tr.StateHash()
	tr.Enable(capBlend, true)
	after := tr.StateHash()
	if before == after {
		t.Fatalf("state hash did not change after enabling blend")
	}
	tr.Enable(capBlend, false)
	if tr.StateHash() != before {
		t.Fatalf("state hash did not return to baseline after disabling blend")
	}
}

func TestStateHashStableAcrossUnrelatedBindings(t *testing.T) {
	tr := New(nil)
	h1 := tr.StateHash()
	tr.UseProgram(7)
	tr.BindVertexArray(3)
	if tr.StateHash() != h1 {
		t.Fatalf("state hash must not depend on program/VAO bindings (already part of the batch key separately)")
	}
}

func TestBatchKeyInputsTrackBindings(t *testing.T) {
	tr := New(nil)
	tr.UseProgram(7)
	tr.BindVertexArray(3)
	tr.ActiveTexture(0)
	tr.BindTexture(targetTexture2D, 42)
	if tr.CurrentProgram() != 7 || tr.CurrentVAO() != 3 || tr.BoundTexture0() != 42 {
		t.Fatalf("batch-key inputs not tracked correctly: program=%d vao=%d tex0=%d",
			tr.CurrentProgram(), tr.CurrentVAO(), tr.BoundTexture0())
	}
}
