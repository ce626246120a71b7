// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

// Package scaler implements the dynamic resolution scaler (§4.F): an
// off-screen render target sized from an adaptive frame-time feedback
// loop, composited onto the default framebuffer through a bilinear or
// CAS-lite upscale pass.
//
// Uses github.com/chewxy/math32 for the feedback loop's per-frame math
// so the hot path (one call per frame) never promotes to float64.
package scaler

import (
	"github.com/chewxy/math32"

	"github.com/velocitygl/velocitygl/internal/rt"
)

// Backend abstracts the GL calls the scaler needs to (re)create its
// off-screen target and run the upscale pass.
type Backend interface {
	CreateTarget(w, h int32) (fbo, colorTex, depthTex uint32, complete bool)
	DestroyTarget(fbo, colorTex, depthTex uint32)
	BindFramebuffer(fbo uint32)
	Viewport(x, y, w, h int32)
	DisableDepthTest()
	EnableDepthTest()
	DisableBlend()
	UpscaleDraw(colorTex uint32, sharpen bool, sharpenAmount float32)
}

const frameWindow = 60

// Scaler owns exactly one framebuffer and two textures (§4.F
// "Contracts"); it never leaks these across Shutdown.
type Scaler struct {
	backend Backend

	nativeW, nativeH int32
	scale            float32
	minScale, maxScale float32
	adjustSpeed      float32
	targetFrameMs    float32
	sharpen          bool
	sharpenAmount    float32

	enabled bool

	renderW, renderH int32
	fbo, colorTex, depthTex uint32
	hasTarget bool

	samples  [frameWindow]float32
	sampleN  int
	sampleAt int

	scaleChanges uint64

	warn func(string)
}

// Options configures a new Scaler.
type Options struct {
	NativeW, NativeH     int32
	MinScale, MaxScale   float32
	StartScale           float32
	TargetFPS            int
	AdjustSpeed          float32
	Sharpen              bool
	SharpenAmount        float32
	Enabled              bool
}

// New creates a Scaler. The off-screen target is allocated lazily by the
// first BeginFrame call.
func New(backend Backend, opts Options, warn func(string)) *Scaler {
	if warn == nil {
		warn = func(string) {}
	}
	adjustSpeed := opts.AdjustSpeed
	if adjustSpeed <= 0 {
		adjustSpeed = 1.0
	}
	targetFPS := opts.TargetFPS
	if targetFPS <= 0 {
		targetFPS = 60
	}
	start := opts.StartScale
	if start <= 0 {
		start = opts.MaxScale
	}
	return &Scaler{
		backend:       backend,
		nativeW:       opts.NativeW,
		nativeH:       opts.NativeH,
		scale:         start,
		minScale:      opts.MinScale,
		maxScale:      opts.MaxScale,
		adjustSpeed:   adjustSpeed,
		targetFrameMs: 1000.0 / float32(targetFPS),
		sharpen:       opts.Sharpen,
		sharpenAmount: opts.SharpenAmount,
		enabled:       opts.Enabled,
		warn:          warn,
	}
}

// roundEven rounds to the nearest even integer, per §3's render-target
// sizing rule.
func roundEven(v float32) int32 {
	r := math32.Round(v)
	i := int32(r)
	if i%2 != 0 {
		if r > v {
			i--
		} else {
			i++
		}
	}
	return i
}

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// computeDims derives render_w/render_h from the native size and scale,
// clamped to [64, 2*native] (§3 "Render target").
func computeDims(native int32, scale float32) int32 {
	v := roundEven(float32(native) * scale)
	return clampI32(v, 64, 2*native)
}

// ensureTarget (re)creates the off-screen target if dimensions changed
// or it doesn't exist yet, asserting completeness (§3 "Render target"
// invariant, §4.F "On scale change").
func (s *Scaler) ensureTarget() error {
	w := computeDims(s.nativeW, s.scale)
	h := computeDims(s.nativeH, s.scale)
	if s.hasTarget && w == s.renderW && h == s.renderH {
		return nil
	}
	if s.hasTarget {
		s.backend.DestroyTarget(s.fbo, s.colorTex, s.depthTex)
	}
	fbo, color, depth, complete := s.backend.CreateTarget(w, h)
	if !complete {
		s.hasTarget = false
		return rt.ErrFramebufferIncomplete
	}
	s.fbo, s.colorTex, s.depthTex = fbo, color, depth
	s.renderW, s.renderH = w, h
	s.hasTarget = true
	return nil
}

// BeginFrame binds the off-screen target and sets the viewport to the
// render dimensions; when disabled it reports native dimensions and does
// not rebind (§4.F "Frame lifecycle").
func (s *Scaler) BeginFrame() (rw, rh int32, err error) {
	if !s.enabled {
		return s.nativeW, s.nativeH, nil
	}
	if err := s.ensureTarget(); err != nil {
		return s.nativeW, s.nativeH, err
	}
	s.backend.BindFramebuffer(s.fbo)
	s.backend.Viewport(0, 0, s.renderW, s.renderH)
	return s.renderW, s.renderH, nil
}

// EndFrame composites the off-screen target onto the default
// framebuffer via the upscale pass (§4.F "Frame lifecycle").
func (s *Scaler) EndFrame() {
	if !s.enabled || !s.hasTarget {
		return
	}
	s.backend.BindFramebuffer(0)
	s.backend.Viewport(0, 0, s.nativeW, s.nativeH)
	s.backend.DisableDepthTest()
	s.backend.DisableBlend()
	s.backend.UpscaleDraw(s.colorTex, s.sharpen, s.sharpenAmount)
	s.backend.EnableDepthTest()
}

// RecordFrameTime appends a sample to the 60-frame circular window
// (§4.F "Adaptive loop") and, once the window holds a full cycle of
// samples, applies the feedback adjustment.
func (s *Scaler) RecordFrameTime(ms float32) {
	s.samples[s.sampleAt] = ms
	s.sampleAt = (s.sampleAt + 1) % frameWindow
	if s.sampleN < frameWindow {
		s.sampleN++
	}
	s.adjust()
}

func (s *Scaler) average() float32 {
	if s.sampleN == 0 {
		return 0
	}
	var sum float32
	for i := 0; i < s.sampleN; i++ {
		sum += s.samples[i]
	}
	return sum / float32(s.sampleN)
}

// adjust implements §4.F's adaptive loop: Δ = (avg-target)/target; if
// |Δ|>0.1, propose s' = clamp(s - Δ*adjustSpeed, min, max); commit only
// if the change exceeds 0.01.
func (s *Scaler) adjust() {
	if !s.enabled || s.sampleN < frameWindow {
		return
	}
	avg := s.average()
	delta := (avg - s.targetFrameMs) / s.targetFrameMs
	if math32.Abs(delta) <= 0.1 {
		return
	}
	proposed := s.scale - delta*s.adjustSpeed
	if proposed < s.minScale {
		proposed = s.minScale
	}
	if proposed > s.maxScale {
		proposed = s.maxScale
	}
	if math32.Abs(proposed-s.scale) > 0.01 {
		s.scale = proposed
		s.scaleChanges++
	}
}

// CurrentScale returns the live resolution scale.
func (s *Scaler) CurrentScale() float32 { return s.scale }

// SetScale overrides the scale directly (host-facing SetResolutionScale).
func (s *Scaler) SetScale(v float32) {
	if v < s.minScale {
		v = s.minScale
	}
	if v > s.maxScale {
		v = s.maxScale
	}
	s.scale = v
}

// SetEnabled toggles dynamic resolution at runtime.
func (s *Scaler) SetEnabled(enabled bool) { s.enabled = enabled }

// ScaleChanges reports the live scale-change counter.
func (s *Scaler) ScaleChanges() uint64 { return s.scaleChanges }

// RenderDims reports the current off-screen target dimensions.
func (s *Scaler) RenderDims() (w, h int32) { return s.renderW, s.renderH }

// Shutdown releases the off-screen target if one was created.
func (s *Scaler) Shutdown() {
	if s.hasTarget {
		s.backend.DestroyTarget(s.fbo, s.colorTex, s.depthTex)
		s.hasTarget = false
	}
}
