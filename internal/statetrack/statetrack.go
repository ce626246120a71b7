// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

// Package statetrack mirrors the GLES pipeline state the library exposes
// desktop-GL semantics for, and filters calls whose argument already
// matches the device's current value (§4.B). It owns no GL handles of
// its own; it only decides, for each intercepted entry point, whether to
// forward the call.
//
// A Tracker is owned by the single rendering thread that made its
// context current — it takes no lock, per §5's threading model.
package statetrack

// Counters are the live avoided/changed statistics §4.B requires.
type Counters struct {
	Avoided uint64
	Changed uint64
}

type blendState struct {
	enabled                             bool
	srcRGB, dstRGB, srcAlpha, dstAlpha  uint32
	eqRGB, eqAlpha                      uint32
	constR, constG, constB, constA      float32
}

type depthState struct {
	testEnabled  bool
	writeEnabled bool
	fn           uint32
	near, far    float32
}

type stencilFace struct {
	fn, ref, mask    uint32
	writeMask        uint32
	sfail, dpfail, dppass uint32
}

type rasterState struct {
	cullEnabled  bool
	cullMode     uint32
	frontFace    uint32
	scissorOn    bool
	scissorX, scissorY, scissorW, scissorH int32
	viewX, viewY, viewW, viewH             int32
	lineWidth    float32
}

type textureUnit struct {
	tex2D, tex3D, texCube, tex2DArray, sampler uint32
}

// mirror holds every tracked value from §3's "Pipeline state mirror".
//
// Each group below (blend, depth, a stencil face, raster, active-texture
// unit, a texture-unit slot, a buffer-target binding, program, VAO)
// tracks its own validity: InvalidateAll marks every group invalid, and
// each group independently becomes trustworthy again the moment its own
// setter is next called — matching §3's "for every trackable value, the
// mirror equals the device's view between two consecutive calls" on a
// per-value basis rather than an all-or-nothing one.
type mirror struct {
	blend      blendState
	blendValid bool

	depth      depthState
	depthValid bool

	stencilFront, stencilBack           stencilFace
	stencilFrontValid, stencilBackValid bool
	stencilEnabled                      bool
	stencilEnabledValid                 bool

	raster      rasterState
	rasterValid bool

	activeTexUnit      uint32
	activeTexUnitValid bool
	units              []textureUnit
	unitsValid         []bool // per-unit validity for the bound-texture slots

	bufferBindings      map[uint32]uint32 // target -> buffer id
	bufferBindingsValid map[uint32]bool

	currentProgram      uint32
	currentProgramValid bool
	currentVAO          uint32
	currentVAOValid     bool
}

// Tracker is the per-context redundant-call filter (§4.B).
type Tracker struct {
	m        mirror
	counters Counters
	stack    []mirror
	maxDepth int

	warn func(string)
}

const defaultStackDepth = 16
const defaultTextureUnits = 32

// New creates a Tracker reset to GL defaults and immediately invalidated,
// matching §3's pipeline-mirror lifecycle ("created at context
// make-current, reset to defaults then invalidated").
func New(warn func(string)) *Tracker {
	if warn == nil {
		warn = func(string) {}
	}
	t := &Tracker{maxDepth: defaultStackDepth, warn: warn}
	t.resetDefaults()
	t.InvalidateAll()
	return t
}

func (t *Tracker) resetDefaults() {
	t.m = mirror{
		depth: depthState{fn: 0x0201 /*GL_LESS*/, writeEnabled: true, near: 0, far: 1},
		raster: rasterState{
			frontFace: 0x0901, /*GL_CCW*/
			lineWidth: 1,
		},
		units:               make([]textureUnit, defaultTextureUnits),
		unitsValid:          make([]bool, defaultTextureUnits),
		bufferBindings:      make(map[uint32]uint32),
		bufferBindingsValid: make(map[uint32]bool),
	}
}

// InvalidateAll clears every validity flag of the mirror (§4.B
// "Invalidation policy"), so a setter forwards its call unconditionally
// until it has reobserved the device state of its group.
func (t *Tracker) InvalidateAll() {
	t.m.blendValid = false
	t.m.depthValid = false
	t.m.stencilFrontValid = false
	t.m.stencilBackValid = false
	t.m.stencilEnabledValid = false
	t.m.rasterValid = false
	t.m.activeTexUnitValid = false
	for i := range t.m.unitsValid {
		t.m.unitsValid[i] = false
	}
	for k := range t.m.bufferBindingsValid {
		t.m.bufferBindingsValid[k] = false
	}
	t.m.currentProgramValid = false
	t.m.currentVAOValid = false
}

// Counters returns a snapshot of the avoided/changed statistics.
func (t *Tracker) Counters() Counters { return t.counters }

func (t *Tracker) forward() {
	t.counters.Changed++
}

func (t *Tracker) avoid() {
	t.counters.Avoided++
}

// setBool tracks a boolean capability slot against its own validity flag.
// cur and valid are pointers into the relevant mirror fields; the caller
// supplies them so this single helper covers blend/depth-test/cull/etc.
func (t *Tracker) setBool(cur *bool, valid *bool, enabled bool) (forward bool) {
	if *valid && *cur == enabled {
		t.avoid()
		return false
	}
	*cur = enabled
	*valid = true
	t.forward()
	return true
}

// Enable applies glEnable(cap) semantics for the capabilities the
// tracker models; caps it does not model always forward (and the
// caller must Invalidate afterward per §9's "foreign GL call" rule).
func (t *Tracker) Enable(cap uint32, enable bool) bool {
	switch cap {
	case capBlend:
		return t.setBool(&t.m.blend.enabled, &t.m.blendValid, enable)
	case capDepthTest:
		return t.setBool(&t.m.depth.testEnabled, &t.m.depthValid, enable)
	case capCullFace:
		return t.setBool(&t.m.raster.cullEnabled, &t.m.rasterValid, enable)
	case capScissorTest:
		return t.setBool(&t.m.raster.scissorOn, &t.m.rasterValid, enable)
	case capStencilTest:
		return t.setBool(&t.m.stencilEnabled, &t.m.stencilEnabledValid, enable)
	default:
		t.forward()
		return true
	}
}

// Capability constants the tracker recognizes; mirrors glapi's values
// without importing glapi (statetrack stays GL-entry-point agnostic so
// it's unit-testable without a live context).
const (
	capBlend       = 0x0BE2
	capCullFace    = 0x0B44
	capDepthTest   = 0x0B71
	capScissorTest = 0x0C11
	capStencilTest = 0x0B90
)

// BlendFuncSeparate tracks glBlendFuncSeparate's four-tuple as a single
// vector comparison per §4.B ("Vector / enum-group entry points compare
// the full tuple").
func (t *Tracker) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32) bool {
	b := &t.m.blend
	if t.m.blendValid && b.srcRGB == srcRGB && b.dstRGB == dstRGB && b.srcAlpha == srcAlpha && b.dstAlpha == dstAlpha {
		t.avoid()
		return false
	}
	b.srcRGB, b.dstRGB, b.srcAlpha, b.dstAlpha = srcRGB, dstRGB, srcAlpha, dstAlpha
	t.m.blendValid = true
	t.forward()
	return true
}

// BlendEquationSeparate tracks glBlendEquationSeparate.
func (t *Tracker) BlendEquationSeparate(rgb, alpha uint32) bool {
	b := &t.m.blend
	if t.m.blendValid && b.eqRGB == rgb && b.eqAlpha == alpha {
		t.avoid()
		return false
	}
	b.eqRGB, b.eqAlpha = rgb, alpha
	t.m.blendValid = true
	t.forward()
	return true
}

// BlendColor tracks glBlendColor's four-component constant.
func (t *Tracker) BlendColor(r, g, b, a float32) bool {
	bl := &t.m.blend
	if t.m.blendValid && bl.constR == r && bl.constG == g && bl.constB == b && bl.constA == a {
		t.avoid()
		return false
	}
	bl.constR, bl.constG, bl.constB, bl.constA = r, g, b, a
	t.m.blendValid = true
	t.forward()
	return true
}

// DepthFunc tracks glDepthFunc.
func (t *Tracker) DepthFunc(fn uint32) bool {
	if t.m.depthValid && t.m.depth.fn == fn {
		t.avoid()
		return false
	}
	t.m.depth.fn = fn
	t.m.depthValid = true
	t.forward()
	return true
}

// DepthMask tracks glDepthMask.
func (t *Tracker) DepthMask(write bool) bool {
	return t.setBool(&t.m.depth.writeEnabled, &t.m.depthValid, write)
}

// DepthRangef tracks glDepthRangef.
func (t *Tracker) DepthRangef(near, far float32) bool {
	if t.m.depthValid && t.m.depth.near == near && t.m.depth.far == far {
		t.avoid()
		return false
	}
	t.m.depth.near, t.m.depth.far = near, far
	t.m.depthValid = true
	t.forward()
	return true
}

// StencilFuncSeparate tracks glStencilFuncSeparate for one face.
func (t *Tracker) StencilFuncSeparate(back bool, fn, ref, mask uint32) bool {
	f, valid := t.stencilFace(back)
	if *valid && f.fn == fn && f.ref == ref && f.mask == mask {
		t.avoid()
		return false
	}
	f.fn, f.ref, f.mask = fn, ref, mask
	*valid = true
	t.forward()
	return true
}

// StencilOpSeparate tracks glStencilOpSeparate for one face.
func (t *Tracker) StencilOpSeparate(back bool, sfail, dpfail, dppass uint32) bool {
	f, valid := t.stencilFace(back)
	if *valid && f.sfail == sfail && f.dpfail == dpfail && f.dppass == dppass {
		t.avoid()
		return false
	}
	f.sfail, f.dpfail, f.dppass = sfail, dpfail, dppass
	*valid = true
	t.forward()
	return true
}

// StencilMaskSeparate tracks glStencilMaskSeparate for one face.
func (t *Tracker) StencilMaskSeparate(back bool, mask uint32) bool {
	f, valid := t.stencilFace(back)
	if *valid && f.writeMask == mask {
		t.avoid()
		return false
	}
	f.writeMask = mask
	*valid = true
	t.forward()
	return true
}

func (t *Tracker) stencilFace(back bool) (*stencilFace, *bool) {
	if back {
		return &t.m.stencilBack, &t.m.stencilBackValid
	}
	return &t.m.stencilFront, &t.m.stencilFrontValid
}

// CullFace tracks glCullFace.
func (t *Tracker) CullFace(mode uint32) bool {
	if t.m.rasterValid && t.m.raster.cullMode == mode {
		t.avoid()
		return false
	}
	t.m.raster.cullMode = mode
	t.m.rasterValid = true
	t.forward()
	return true
}

// FrontFace tracks glFrontFace.
func (t *Tracker) FrontFace(mode uint32) bool {
	if t.m.rasterValid && t.m.raster.frontFace == mode {
		t.avoid()
		return false
	}
	t.m.raster.frontFace = mode
	t.m.rasterValid = true
	t.forward()
	return true
}

// Scissor tracks glScissor's rectangle.
func (t *Tracker) Scissor(x, y, w, h int32) bool {
	r := &t.m.raster
	if t.m.rasterValid && r.scissorX == x && r.scissorY == y && r.scissorW == w && r.scissorH == h {
		t.avoid()
		return false
	}
	r.scissorX, r.scissorY, r.scissorW, r.scissorH = x, y, w, h
	t.m.rasterValid = true
	t.forward()
	return true
}

// Viewport tracks glViewport's rectangle.
func (t *Tracker) Viewport(x, y, w, h int32) bool {
	r := &t.m.raster
	if t.m.rasterValid && r.viewX == x && r.viewY == y && r.viewW == w && r.viewH == h {
		t.avoid()
		return false
	}
	r.viewX, r.viewY, r.viewW, r.viewH = x, y, w, h
	t.m.rasterValid = true
	t.forward()
	return true
}

// LineWidth tracks glLineWidth.
func (t *Tracker) LineWidth(width float32) bool {
	if t.m.rasterValid && t.m.raster.lineWidth == width {
		t.avoid()
		return false
	}
	t.m.raster.lineWidth = width
	t.m.rasterValid = true
	t.forward()
	return true
}

// ActiveTexture tracks glActiveTexture's unit index.
func (t *Tracker) ActiveTexture(unit uint32) bool {
	if t.m.activeTexUnitValid && t.m.activeTexUnit == unit {
		t.avoid()
		return false
	}
	t.m.activeTexUnit = unit
	t.m.activeTexUnitValid = true
	t.forward()
	return true
}

// BindTexture tracks glBindTexture against the currently active unit.
// target selects which slot (2D, 3D, cube, 2D-array) within the unit.
func (t *Tracker) BindTexture(target, id uint32) bool {
	unit := int(t.m.activeTexUnit)
	if unit < 0 || unit >= len(t.m.units) {
		t.forward()
		return true
	}
	slot := t.textureSlot(unit, target)
	if slot == nil {
		t.forward()
		return true
	}
	if t.m.unitsValid[unit] && *slot == id {
		t.avoid()
		return false
	}
	*slot = id
	t.m.unitsValid[unit] = true
	t.forward()
	return true
}

const (
	targetTexture2D      = 0x0DE1
	targetTexture3D      = 0x806F
	targetTextureCubeMap = 0x8513
	targetTexture2DArray = 0x8C1A
)

func (t *Tracker) textureSlot(unit int, target uint32) *uint32 {
	u := &t.m.units[unit]
	switch target {
	case targetTexture2D:
		return &u.tex2D
	case targetTexture3D:
		return &u.tex3D
	case targetTextureCubeMap:
		return &u.texCube
	case targetTexture2DArray:
		return &u.tex2DArray
	default:
		return nil
	}
}

// BindBuffer tracks glBindBuffer per target.
func (t *Tracker) BindBuffer(target, id uint32) bool {
	if t.m.bufferBindingsValid[target] {
		if cur := t.m.bufferBindings[target]; cur == id {
			t.avoid()
			return false
		}
	}
	t.m.bufferBindings[target] = id
	t.m.bufferBindingsValid[target] = true
	t.forward()
	return true
}

// UseProgram tracks glUseProgram.
func (t *Tracker) UseProgram(program uint32) bool {
	if t.m.currentProgramValid && t.m.currentProgram == program {
		t.avoid()
		return false
	}
	t.m.currentProgram = program
	t.m.currentProgramValid = true
	t.forward()
	return true
}

// BindVertexArray tracks glBindVertexArray.
func (t *Tracker) BindVertexArray(vao uint32) bool {
	if t.m.currentVAOValid && t.m.currentVAO == vao {
		t.avoid()
		return false
	}
	t.m.currentVAO = vao
	t.m.currentVAOValid = true
	t.forward()
	return true
}

// CurrentProgram returns the last program bound via UseProgram, used by
// the draw batcher to build its batch key without re-querying the device.
func (t *Tracker) CurrentProgram() uint32 { return t.m.currentProgram }

// CurrentVAO returns the last VAO bound via BindVertexArray.
func (t *Tracker) CurrentVAO() uint32 { return t.m.currentVAO }

// BoundTexture0 returns the 2D texture bound to unit 0, used by the
// batch key (§3 "Batch key = (program, vertex-array, texture0, texture1, ...)").
func (t *Tracker) BoundTexture0() uint32 {
	if len(t.m.units) == 0 {
		return 0
	}
	return t.m.units[0].tex2D
}

// BoundTexture1 returns the 2D texture bound to unit 1.
func (t *Tracker) BoundTexture1() uint32 {
	if len(t.m.units) < 2 {
		return 0
	}
	return t.m.units[1].tex2D
}

// StateHash folds the rasterizer/blend/depth state the batch key's
// program/VAO/texture fields don't already cover into the 64-bit "state
// hash" component of §3's batch key, so two draws that differ only in,
// say, blend mode never coalesce into one multi-draw emission.
func (t *Tracker) StateHash() uint64 {
	h := uint64(14695981039346656037) // FNV-1a offset basis
	mix := func(v uint32) {
		h ^= uint64(v)
		h *= 1099511628211
	}
	mixBool := func(b bool) {
		if b {
			mix(1)
		} else {
			mix(0)
		}
	}
	mixBool(t.m.blend.enabled)
	mix(t.m.blend.srcRGB)
	mix(t.m.blend.dstRGB)
	mix(t.m.blend.srcAlpha)
	mix(t.m.blend.dstAlpha)
	mix(t.m.blend.eqRGB)
	mix(t.m.blend.eqAlpha)
	mixBool(t.m.depth.testEnabled)
	mixBool(t.m.depth.writeEnabled)
	mix(t.m.depth.fn)
	mixBool(t.m.stencilEnabled)
	mixBool(t.m.raster.cullEnabled)
	mix(t.m.raster.cullMode)
	mix(t.m.raster.frontFace)
	mixBool(t.m.raster.scissorOn)
	return h
}

// PushState copies the mirror onto a bounded-depth stack (§4.B "State
// stack", depth 16). Overflow is recorded as a warning and is a no-op.
func (t *Tracker) PushState() {
	if len(t.stack) >= t.maxDepth {
		t.warn("statetrack: push_state overflow, discarding")
		return
	}
	snapshot := t.m
	snapshot.bufferBindings = make(map[uint32]uint32, len(t.m.bufferBindings))
	for k, v := range t.m.bufferBindings {
		snapshot.bufferBindings[k] = v
	}
	snapshot.bufferBindingsValid = make(map[uint32]bool, len(t.m.bufferBindingsValid))
	for k, v := range t.m.bufferBindingsValid {
		snapshot.bufferBindingsValid[k] = v
	}
	snapshot.units = append([]textureUnit(nil), t.m.units...)
	snapshot.unitsValid = append([]bool(nil), t.m.unitsValid...)
	t.stack = append(t.stack, snapshot)
}

// PopState replaces the mirror with the most recently pushed one,
// validity flags included, and returns it as an opaque Snapshot. It
// issues no GL calls, so device state changed after the push is not
// reverted here. Underflow is recorded as a warning and is a no-op.
func (t *Tracker) PopState() (Snapshot, bool) {
	if len(t.stack) == 0 {
		t.warn("statetrack: pop_state underflow, discarding")
		return Snapshot{}, false
	}
	saved := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	t.m = saved
	return Snapshot{m: saved}, true
}

// Snapshot is an opaque comparison handle returned by PopState.
type Snapshot struct{ m mirror }

// StackDepth reports the current push_state nesting depth, for tests.
func (t *Tracker) StackDepth() int { return len(t.stack) }

// DrainError reports the first pending device error returned by a
// glGetError-style poll. The tracker itself never originates errors for
// redundant sets (§4.B "Failure semantics") — this just relays what the
// device reported, for the caller to log and fold into stats.
func (t *Tracker) DrainError(deviceErr uint32) (code uint32, ok bool) {
	const noError = 0
	if deviceErr == noError {
		return 0, false
	}
	return deviceErr, true
}
