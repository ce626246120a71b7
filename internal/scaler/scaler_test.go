// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package scaler

import "testing"

type fakeBackend struct {
	nextHandle uint32
	destroyed  int
}

func (f *fakeBackend) CreateTarget(w, h int32) (uint32, uint32, uint32, bool) {
	f.nextHandle++
	return f.nextHandle, f.nextHandle + 1000, f.nextHandle + 2000, true
}
func (f *fakeBackend) DestroyTarget(fbo, colorTex, depthTex uint32) { f.destroyed++ }
func (f *fakeBackend) BindFramebuffer(fbo uint32)                  {}
func (f *fakeBackend) Viewport(x, y, w, h int32)                   {}
func (f *fakeBackend) DisableDepthTest()                           {}
func (f *fakeBackend) EnableDepthTest()                            {}
func (f *fakeBackend) DisableBlend()                               {}
func (f *fakeBackend) UpscaleDraw(colorTex uint32, sharpen bool, amount float32) {}

func TestRenderDimsEvenAndPositive(t *testing.T) {
	be := &fakeBackend{}
	s := New(be, Options{NativeW: 1920, NativeH: 1080, MinScale: 0.3, MaxScale: 1.0, StartScale: 0.77, Enabled: true}, nil)
	rw, rh, err := s.BeginFrame()
	if err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if rw <= 0 || rh <= 0 {
		t.Fatalf("render dims not positive: %dx%d", rw, rh)
	}
	if rw%2 != 0 || rh%2 != 0 {
		t.Fatalf("render dims not even: %dx%d", rw, rh)
	}
}

func TestResolutionScalerFeedbackDecreasesUnderLoad(t *testing.T) {
	be := &fakeBackend{}
	s := New(be, Options{
		NativeW: 1920, NativeH: 1080,
		MinScale: 0.5, MaxScale: 1.0, StartScale: 1.0,
		TargetFPS: 60, AdjustSpeed: 1.0, Enabled: true,
	}, nil)
	s.BeginFrame()

	prev := s.CurrentScale()
	decreased := false
	for i := 0; i < 600; i++ {
		s.RecordFrameTime(25.0) // well above 16.67ms target
		cur := s.CurrentScale()
		if cur < prev {
			decreased = true
		}
		if cur > prev {
			t.Fatalf("scale increased under sustained overload: %f -> %f", prev, cur)
		}
		prev = cur
	}
	if !decreased {
		t.Fatalf("expected scale to decrease under sustained overload")
	}
	if s.CurrentScale() < 0.5 {
		t.Fatalf("scale went below min_scale: %f", s.CurrentScale())
	}
	if s.ScaleChanges() == 0 {
		t.Fatalf("expected a non-zero scale_changes count")
	}
}

func TestTargetRecreatedOnScaleChange(t *testing.T) {
	be := &fakeBackend{}
	s := New(be, Options{NativeW: 800, NativeH: 600, MinScale: 0.3, MaxScale: 1.0, StartScale: 1.0, Enabled: true}, nil)
	s.BeginFrame()
	s.SetScale(0.5)
	s.BeginFrame()
	if be.destroyed == 0 {
		t.Fatalf("expected old target destroyed on scale change")
	}
}

func TestDisabledScalerReportsNativeDims(t *testing.T) {
	be := &fakeBackend{}
	s := New(be, Options{NativeW: 640, NativeH: 480, MinScale: 0.5, MaxScale: 1.0, Enabled: false}, nil)
	rw, rh, err := s.BeginFrame()
	if err != nil || rw != 640 || rh != 480 {
		t.Fatalf("expected native dims 640x480, got %dx%d err=%v", rw, rh, err)
	}
}
