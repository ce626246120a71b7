// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

// Package velocitygl translates a desktop-style OpenGL 4.x entry-point
// surface onto a device's real OpenGL ES 3.x driver (see SPEC_FULL.md).
// It wires together the seven leaf subsystems — internal/identity,
// internal/statetrack, internal/bufpool, internal/shadercache,
// internal/batch, internal/scaler, internal/dispatch — behind the
// nullary C-style surface a host game-launcher expects (§6, §9
// "Explicit context object, not module globals": this file is that
// object; the package-level functions below guard a single "current"
// slot so the public API can stay nullary).
package velocitygl

import (
	"strings"
	"sync"
	"unsafe"

	"github.com/velocitygl/velocitygl/internal/batch"
	"github.com/velocitygl/velocitygl/internal/bufpool"
	"github.com/velocitygl/velocitygl/internal/dispatch"
	"github.com/velocitygl/velocitygl/internal/eglplat"
	"github.com/velocitygl/velocitygl/internal/glapi"
	"github.com/velocitygl/velocitygl/internal/identity"
	"github.com/velocitygl/velocitygl/internal/rt"
	"github.com/velocitygl/velocitygl/internal/scaler"
	"github.com/velocitygl/velocitygl/internal/shadercache"
	"github.com/velocitygl/velocitygl/internal/statetrack"
)

const (
	ringRegionBytes     = 1 << 20 // 1 MiB per streaming-ring region
	shaderCacheMaxCount = 512
)

// Context is the explicit, first-class context object §9 asks for in
// place of the teacher's module-global HAL singleton. One exists per
// made-current rendering thread (§5 "Threading").
type Context struct {
	mu sync.Mutex

	config   Config
	identity identity.Identity

	egl *eglplat.Context
	gl  *glapi.Context

	tracker *statetrack.Tracker

	vertexPool  *bufpool.Pool
	indexPool   *bufpool.Pool
	uniformPool *bufpool.Pool
	ring        *bufpool.Ring

	shaderCache *shadercache.Cache
	batcher     *batch.Batcher

	scalerBackend *glScalerBackend
	resScaler     *scaler.Scaler

	dispatch *dispatch.Table

	nativeW, nativeH int32
	created          bool

	// cStrings retains the backing buffer for every glGetString pname
	// the dispatch table has handed a pointer out for — these strings
	// are invariant for the life of the context, so caching by pname
	// both avoids re-masquerading on every call and keeps the buffer
	// reachable (a bare unsafe.Pointer derived from a local slice would
	// otherwise be eligible for collection the moment the Go caller that
	// allocated it returns).
	cStrings map[uint32][]byte

	// shaderTypes and shaderSources back the glShaderSource/glLinkProgram
	// interceptors' view of a shader object: the type it was created
	// with (glCreateShader) and the (substituted) source text last
	// handed to it (glShaderSource), keyed by the shader name the host
	// holds. programShaders holds the shader names attached to each
	// program (glAttachShader), used to pair up the vertex+fragment
	// source at link time (§2 "shader-link calls consult the binary
	// cache", §4.D).
	shaderTypes    map[uint32]uint32
	shaderSources  map[uint32]string
	programShaders map[uint32][]uint32
}

func warnLogger() func(string) {
	return func(msg string) { rt.Logger().Warn(msg) }
}

// newContext builds every subsystem against a live glapi.Context once
// the EGL context has been made current and the device identity is
// known (§3 "Device identity... created at context make-current").
func newContext(cfg Config, egl *eglplat.Context, gl *glapi.Context) (*Context, error) {
	vendor := gl.GetString(glapi.VENDOR)
	renderer := gl.GetString(glapi.RENDERER)
	version := gl.GetString(glapi.VERSION)
	extensions := strings.Fields(gl.GetString(glapi.EXTENSIONS))

	id := identity.Detect(vendor, renderer, version, extensions)
	if cfg.QualityPreset != identity.PresetCustom {
		tunables := id.RecommendedConfig()
		tunables.ShaderCacheMaxBytes = cfg.ShaderCacheMaxBytes
		if cfg.ShaderCacheMaxBytes == 0 {
			tunables.ShaderCacheMaxBytes = id.RecommendedConfig().ShaderCacheMaxBytes
		}
		cfg.TunableConfig = tunables
	}

	warn := warnLogger()
	c := &Context{config: cfg, identity: id, egl: egl, gl: gl}
	c.tracker = statetrack.New(warn)

	poolBytes := cfg.BufferPoolMB << 20
	if poolBytes <= 0 {
		poolBytes = 16 << 20
	}
	third := poolBytes / 3
	var err error
	c.vertexPool, err = bufpool.Create(&glBufferBackend{ctx: gl, target: glapi.ARRAY_BUFFER, persistentHint: cfg.PersistentMapping}, glapi.ARRAY_BUFFER, glapi.DYNAMIC_DRAW, third, cfg.PersistentMapping, warn)
	if err != nil {
		warn("velocitygl: vertex pool creation failed, falling back to direct buffers: " + err.Error())
	}
	c.indexPool, err = bufpool.Create(&glBufferBackend{ctx: gl, target: glapi.ELEMENT_ARRAY_BUFFER, persistentHint: cfg.PersistentMapping}, glapi.ELEMENT_ARRAY_BUFFER, glapi.DYNAMIC_DRAW, third, cfg.PersistentMapping, warn)
	if err != nil {
		warn("velocitygl: index pool creation failed, falling back to direct buffers: " + err.Error())
	}
	c.uniformPool, err = bufpool.Create(&glBufferBackend{ctx: gl, target: glapi.UNIFORM_BUFFER, persistentHint: cfg.PersistentMapping}, glapi.UNIFORM_BUFFER, glapi.DYNAMIC_DRAW, third, cfg.PersistentMapping, warn)
	if err != nil {
		warn("velocitygl: uniform pool creation failed, falling back to direct buffers: " + err.Error())
	}

	c.ring, err = bufpool.NewRing(&glBufferBackend{ctx: gl, target: glapi.ARRAY_BUFFER}, glapi.ARRAY_BUFFER, glapi.STREAM_DRAW, ringRegionBytes, &glFence{ctx: gl}, warn)
	if err != nil {
		warn("velocitygl: streaming ring creation failed: " + err.Error())
	}

	c.shaderCache = shadercache.New(&glShaderBackend{ctx: gl}, int64(cfg.ShaderCacheMaxBytes), shaderCacheMaxCount, id.VendorHash, id.DriverHash, warn)
	if cfg.ShaderCacheMode != identity.ShaderCacheDisabled && cfg.ShaderCachePath != "" {
		if err := c.shaderCache.Load(cfg.ShaderCachePath); err != nil {
			warn("velocitygl: shader cache load: " + err.Error())
		}
	}

	c.batcher = batch.New(&glBatchBackend{ctx: gl, tracker: c.tracker}, cfg.MaxBatchSize, 2, cfg.DrawBatchingEnabled, warn)

	scalerBackend, err := newGLScalerBackend(gl)
	if err != nil {
		return nil, err
	}
	c.scalerBackend = scalerBackend

	c.dispatch = buildDispatchTable(c)

	return c, nil
}

// ensureScaler lazily (re)creates the resolution scaler once the host
// has reported the real native surface size via SetNativeSize — CreateContext
// has no surface-dimension query of its own (§1 "EGL-like window/context
// platform layer is consumed, not specified").
func (c *Context) ensureScaler() {
	if c.resScaler != nil || c.nativeW <= 0 || c.nativeH <= 0 {
		return
	}
	c.resScaler = scaler.New(c.scalerBackend, scaler.Options{
		NativeW: c.nativeW, NativeH: c.nativeH,
		MinScale: c.config.MinScale, MaxScale: c.config.MaxScale, StartScale: c.config.MaxScale,
		TargetFPS: c.config.TargetFPS, AdjustSpeed: 1.0,
		Sharpen: c.config.QualityPreset >= identity.PresetHigh,
		SharpenAmount: 0.5,
		Enabled: c.config.DynamicResolution,
	}, warnLogger())
}

// SetNativeSize reports the host window's current pixel dimensions,
// analogous to an Android SurfaceHolder.Callback#surfaceChanged.
func (c *Context) SetNativeSize(w, h int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w == c.nativeW && h == c.nativeH {
		return
	}
	c.nativeW, c.nativeH = w, h
	if c.resScaler != nil {
		c.resScaler.Shutdown()
		c.resScaler = nil
	}
	c.ensureScaler()
}

// MakeCurrent makes the underlying EGL context current on the calling
// thread and invalidates the pipeline mirror (§4.B "Invalidation policy
// ... mandatory after context make-current").
func (c *Context) MakeCurrent() error {
	if err := c.egl.MakeCurrent(); err != nil {
		return err
	}
	c.tracker.InvalidateAll()
	return nil
}

// SwapBuffers presents the frame.
func (c *Context) SwapBuffers() { c.egl.SwapBuffers() }

// BeginFrame arms the streaming ring, draw-batch queue, and resolution
// scaler for a new frame (§2 "Frame lifecycle").
func (c *Context) BeginFrame() (renderW, renderH int32, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureScaler()
	if c.ring != nil {
		c.ring.BeginFrame()
	}
	c.batcher.BeginFrame()
	if c.resScaler == nil {
		return c.nativeW, c.nativeH, nil
	}
	return c.resScaler.BeginFrame()
}

// EndFrame flushes the batcher, composites the scaler's off-screen
// target and inserts the streaming-ring fence. It does not present: the
// frame reaches the screen on the host's following SwapBuffers call (§2, §5
// "Ordering: the scaler's upscale pass executes strictly after all
// scene draws... and strictly before buffer swap").
func (c *Context) EndFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batcher.EndFrame()
	if c.resScaler != nil {
		c.resScaler.EndFrame()
		// The scaler issued GL state changes and draws directly,
		// bypassing the tracker (§9 "any internal subsystem that issues
		// GL directly must call invalidate before returning").
		c.tracker.InvalidateAll()
	}
	if c.ring != nil {
		c.ring.EndFrame()
	}
}

// RecordFrameTime feeds the host's measured frame duration into the
// resolution scaler's adaptive loop (§4.F "Adaptive loop").
func (c *Context) RecordFrameTime(ms float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resScaler != nil {
		c.resScaler.RecordFrameTime(ms)
	}
}

// Destroy releases every subsystem and the underlying EGL context.
func (c *Context) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resScaler != nil {
		c.resScaler.Shutdown()
	}
	if c.ring != nil {
		c.ring.Destroy()
	}
	if c.vertexPool != nil {
		c.vertexPool.Destroy()
	}
	if c.indexPool != nil {
		c.indexPool.Destroy()
	}
	if c.uniformPool != nil {
		c.uniformPool.Destroy()
	}
	if c.egl != nil {
		c.egl.Destroy()
	}
}

// stats snapshots every subsystem's counters plus the live resolution
// scale (§6 "get_stats").
func (c *Context) stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	scale := c.config.MaxScale
	var changes uint64
	if c.resScaler != nil {
		scale = c.resScaler.CurrentScale()
		changes = c.resScaler.ScaleChanges()
	}
	return collectStats(c.tracker, c.batcher, c.shaderCache, scale, changes)
}

func (c *Context) resetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batcher.ResetStats()
}

func (c *Context) caps() Caps {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.identity
	return Caps{
		Vendor:        id.Vendor.String(),
		Generation:    id.Generation,
		Model:         id.Model,
		Tier:          id.Tier,
		MaxAnisotropy: id.MaxAnisotropy,
		HasCompute:    id.Features.Has(identity.FeatureCompute),
		HasGeometry:   id.Features.Has(identity.FeatureGeometry),
		HasASTC:       id.Features.Has(identity.FeatureASTC),
		Dump:          id.DumpCaps(),
	}
}

// trimMemory applies the trim levels TrimMemory documents.
func (c *Context) trimMemory(level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Level 0 leaves the buffer pools as they are; Free already merges
	// released blocks, and nothing here shrinks a pool.
	if level >= 1 {
		c.config.TexturePoolMB /= 2
	}
	if level >= 2 {
		c.shaderCache.Clear()
	}
	if level >= 3 {
		c.shaderCache.Clear()
	}
}

// maskedGetString backs the glGetString interceptor's version-masquerade
// behaviour (§6 "Version masquerade"): VERSION and RENDERER are rewritten
// to advertise a desktop-GL-shaped identity; every other pname passes
// through to the real driver string unmodified.
func (c *Context) maskedGetString(name uint32) uintptr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if buf, ok := c.cStrings[name]; ok {
		return uintptr(unsafe.Pointer(&buf[0]))
	}
	var s string
	switch name {
	case glapi.VERSION:
		s = versionString(parseESVersion(c.gl.GetString(glapi.VERSION)))
	case glapi.RENDERER:
		s = rendererString(c.gl.GetString(glapi.RENDERER))
	default:
		s = c.gl.GetString(name)
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	if c.cStrings == nil {
		c.cStrings = make(map[uint32][]byte)
	}
	c.cStrings[name] = buf
	return uintptr(unsafe.Pointer(&buf[0]))
}

// maskedGetIntegerv backs the glGetIntegerv interceptor for
// MAJOR_VERSION/MINOR_VERSION, masquerading the same pair maskedGetString
// reports for VERSION; every other pname is forwarded to the device.
func (c *Context) maskedGetIntegerv(pname uint32, out uintptr) {
	dst := (*int32)(unsafe.Pointer(out))
	switch pname {
	case glapi.MAJOR_VERSION:
		major, _ := masqueradeVersion(parseESVersion(c.gl.GetString(glapi.VERSION)))
		*dst = int32(major)
	case glapi.MINOR_VERSION:
		_, minor := masqueradeVersion(parseESVersion(c.gl.GetString(glapi.VERSION)))
		*dst = int32(minor)
	default:
		c.gl.GetIntegerv(pname, dst)
	}
}

// shaderPreloadPair carries an already-linked program alongside the
// sources it was compiled from, bridging PreloadShaders' public
// []ShaderSource input to shadercache.Cache's SourcePair shape.
type shaderPreloadPair struct {
	vert, frag string
	program    uint32
}

func (c *Context) preloadShaders(pairs []shaderPreloadPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	converted := make([]shadercache.SourcePair, len(pairs))
	for i, p := range pairs {
		converted[i] = shadercache.SourcePair{Vertex: p.vert, Fragment: p.frag, Program: p.program}
	}
	c.shaderCache.Preload(converted)
}

func (c *Context) memoryUsage() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total uint64
	for _, p := range []*bufpool.Pool{c.vertexPool, c.indexPool, c.uniformPool} {
		if p != nil {
			total += uint64(c.config.BufferPoolMB) << 20 / 3
		}
	}
	total += uint64(c.shaderCache.SizeBytes())
	return total
}
