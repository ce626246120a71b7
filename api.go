// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import (
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/velocitygl/velocitygl/internal/dispatch"
	"github.com/velocitygl/velocitygl/internal/eglplat"
	"github.com/velocitygl/velocitygl/internal/glapi"
	"github.com/velocitygl/velocitygl/internal/rt"
)

// initMu guards initialized and current: the "single current context
// slot" §9's "Explicit context object, not module globals" note asks
// for so the public surface can stay nullary while everything it
// touches is still a first-class *Context underneath.
var (
	initMu      sync.Mutex
	initialized bool
	current     *Context
	globalCfg   Config
)

// Init validates and stores cfg, leaving the library ready for
// CreateContext (§6 "Init surface"). Idempotent: calling it again while
// already initialized just replaces the stored config that the next
// CreateContext uses; unlike UpdateConfig, it leaves an existing
// context's config unchanged.
func Init(cfg Config) bool {
	initMu.Lock()
	defer initMu.Unlock()
	if !cfg.validate() {
		rt.Logger().Error("velocitygl: init rejected invalid config")
		return false
	}
	globalCfg = cfg
	initialized = true
	return true
}

// InitDefault initializes with DefaultConfig (§6).
func InitDefault() bool {
	return Init(DefaultConfig())
}

// Shutdown tears down the current context (if any) and returns the
// library to its clean not-initialized state. Safe to call more than
// once and after a partial failure (§7 "Shutdown is idempotent").
func Shutdown() {
	initMu.Lock()
	defer initMu.Unlock()
	if current != nil {
		current.Destroy()
		current = nil
	}
	initialized = false
	globalCfg = Config{}
}

// UpdateConfig replaces the stored configuration and, if a context
// already exists, that context's copy of it. Fields read at the point of
// use (such as ShaderCachePath in FlushShaderCache) apply from then on.
// Subsystems already built keep the settings they were built with: the
// batcher keeps its batching settings, the resolution scaler keeps its
// bounds and target FPS until SetNativeSize recreates it for a new size,
// and the shader cache is not reloaded. Nothing here issues a GL call.
func UpdateConfig(cfg Config) bool {
	initMu.Lock()
	defer initMu.Unlock()
	if !initialized {
		rt.Logger().Error("velocitygl: update_config before init")
		return false
	}
	if !cfg.validate() {
		rt.Logger().Error("velocitygl: update_config rejected invalid config")
		return false
	}
	globalCfg = cfg
	if current != nil {
		current.mu.Lock()
		current.config = cfg
		current.mu.Unlock()
	}
	return true
}

// GetConfig returns the live configuration (§6).
func GetConfig() Config {
	initMu.Lock()
	defer initMu.Unlock()
	return globalCfg
}

// CreateContext acquires an EGL/GLES context against nativeWindow
// (zero for a headless pbuffer surface) and wires every subsystem
// behind it, replacing any previously current context (§5 "no
// multi-context sharing"). A failure here destroys whatever EGL
// resources it allocated before returning (§7 "user-visible behaviour").
func CreateContext(nativeWindow, nativeDisplay uintptr) bool {
	initMu.Lock()
	defer initMu.Unlock()
	if !initialized {
		rt.Logger().Error("velocitygl: create_context before init")
		return false
	}
	if current != nil {
		current.Destroy()
		current = nil
	}

	opts := eglplat.DefaultOptions()
	opts.NativeWindow = nativeWindow
	opts.NativeDisplay = nativeDisplay
	egl, err := eglplat.NewContext(opts)
	if err != nil {
		rt.Logger().Error("velocitygl: create_context: egl init failed", "error", err)
		return false
	}

	gl := &glapi.Context{}
	if err := gl.LoadFunctions(eglplat.GetProcAddr); err != nil {
		rt.Logger().Error("velocitygl: create_context: load functions failed", "error", err)
		egl.Destroy()
		return false
	}

	ctx, err := newContext(globalCfg, egl, gl)
	if err != nil {
		rt.Logger().Error("velocitygl: create_context: subsystem init failed", "error", err)
		egl.Destroy()
		return false
	}
	ctx.created = true
	current = ctx
	return true
}

// DestroyContext releases the current context, if any (§6).
func DestroyContext() {
	initMu.Lock()
	defer initMu.Unlock()
	if current != nil {
		current.Destroy()
		current = nil
	}
}

// withCurrent runs fn against the current context, logging and
// returning the not-initialized/no-current-context neutral behaviour
// §7 mandates when there isn't one.
func withCurrent(fn func(*Context)) bool {
	initMu.Lock()
	ctx := current
	initMu.Unlock()
	if ctx == nil {
		rt.Logger().Error(rt.ErrNoCurrentContext.Error())
		return false
	}
	fn(ctx)
	return true
}

// MakeCurrent makes the current context current on the calling OS
// thread (§6). The host is responsible for having locked the thread
// (runtime.LockOSThread) before calling into any GL-issuing entry point.
func MakeCurrent() bool {
	ok := false
	withCurrent(func(c *Context) { ok = c.MakeCurrent() == nil })
	return ok
}

// SwapBuffers presents the current context's frame (§6).
func SwapBuffers() { withCurrent(func(c *Context) { c.SwapBuffers() }) }

// BeginFrame arms the frame's subsystems and returns the render target
// dimensions for this frame (§6).
func BeginFrame() (renderW, renderH int32) {
	withCurrent(func(c *Context) {
		renderW, renderH, _ = c.BeginFrame()
	})
	return
}

// EndFrame flushes, composites, and fences the frame (§6).
func EndFrame() { withCurrent(func(c *Context) { c.EndFrame() }) }

// RecordFrameTime feeds the scaler's adaptive loop (supplement to §6,
// needed for §4.F's feedback loop to have an input at all).
func RecordFrameTime(ms float32) { withCurrent(func(c *Context) { c.RecordFrameTime(ms) }) }

// resolverSelfPtr is the reverse-FFI trampoline handed back when a host
// asks for the resolver itself by one of its §6 aliases
// (glXGetProcAddress, glXGetProcAddressARB, OSMesaGetProcAddress): a
// callable of the resolver's own (const char*) -> void* shape that
// forwards to GetProcAddress, so the host can use whichever alias its
// loader expects to keep resolving further entry points through us.
var (
	resolverSelfOnce sync.Once
	resolverSelfPtr  unsafe.Pointer
)

func isResolverAlias(name string) bool {
	for _, alias := range dispatch.ResolverAliases() {
		if name == alias {
			return true
		}
	}
	return false
}

// GetProcAddress is the C-callable entry-point resolver (§6). Canonical
// desktop-GL names resolve through the current context's dispatch
// table, falling through to the platform's native lookup on miss;
// glXGetProcAddress, glXGetProcAddressARB, and OSMesaGetProcAddress all
// resolve to a self-referential trampoline (§9 open question, resolved:
// "forwarding is free").
func GetProcAddress(name string) unsafe.Pointer {
	if isResolverAlias(name) {
		resolverSelfOnce.Do(func() {
			resolverSelfPtr = ptrFromUintptr(ffi.NewCallback(func(cName uintptr) uintptr {
				return uintptr(GetProcAddress(cStringToGo(cName)))
			}))
		})
		return resolverSelfPtr
	}
	var ptr unsafe.Pointer
	withCurrent(func(c *Context) { ptr = c.dispatch.Resolve(name) })
	if ptr == nil {
		ptr = eglplat.GetProcAddr(name)
	}
	return ptr
}

// cStringToGo reads a NUL-terminated C string handed back by a reverse-FFI
// callback argument.
func cStringToGo(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var buf []byte
	for i := 0; ; i++ {
		b := *(*byte)(unsafe.Pointer(ptr + uintptr(i))) //nolint:gosec
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}

// GetStats returns the live counters for the current context, or a
// zero Stats if none exists (§6, §7 "neutral value").
func GetStats() Stats {
	var s Stats
	withCurrent(func(c *Context) { s = c.stats() })
	return s
}

// ResetStats zeroes the batcher's counters (§6).
func ResetStats() { withCurrent(func(c *Context) { c.resetStats() }) }

// GetGPUCaps reports the detected device identity (§6).
func GetGPUCaps() Caps {
	var caps Caps
	withCurrent(func(c *Context) { caps = c.caps() })
	return caps
}

// GetResolutionScale returns the scaler's live scale factor (also while
// dynamic resolution is disabled), or 1.0 if there is no current context
// or no scaler has been created yet (§6).
func GetResolutionScale() float32 {
	scale := float32(1.0)
	withCurrent(func(c *Context) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.resScaler != nil {
			scale = c.resScaler.CurrentScale()
		}
	})
	return scale
}

// SetResolutionScale sets the scaler's scale, clamped to
// [MinScale, MaxScale] (§6). It does not stop the adaptive loop: while
// dynamic resolution is enabled, later frames keep adjusting the scale
// from this value. Before a scaler exists it does nothing.
func SetResolutionScale(scale float32) {
	withCurrent(func(c *Context) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.resScaler != nil {
			c.resScaler.SetScale(scale)
		}
	})
}

// SetDynamicResolution toggles the adaptive feedback loop (§6).
func SetDynamicResolution(enabled bool) {
	withCurrent(func(c *Context) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.config.DynamicResolution = enabled
		if c.resScaler != nil {
			c.resScaler.SetEnabled(enabled)
		}
	})
}

// TrimMemory applies escalating trim levels: level 0 changes nothing
// (the buffer pools are not shrunk), level >=1 halves
// Config.TexturePoolMB, and level >=2 clears the shader cache's
// in-memory entries. Level >=3 does nothing beyond that; there is no
// texture cache to clear and no further memory trim.
func TrimMemory(level int) { withCurrent(func(c *Context) { c.trimMemory(level) }) }

// GetMemoryUsage reports the live approximate GPU-memory footprint
// across pools and the shader cache (§6).
func GetMemoryUsage() uint64 {
	var n uint64
	withCurrent(func(c *Context) { n = c.memoryUsage() })
	return n
}

// ShaderSource is one (vertex, fragment) GLSL ES pair to warm the cache
// with via PreloadShaders.
type ShaderSource struct{ Vertex, Fragment string }

// PreloadShaders compiles, links, and offers each source pair to the
// shader binary cache up front (§6 "preload_shaders()", §9 supplement
// "internal/shadercache exposes a Preload backing the public op").
// Sources that fail to compile/link are skipped and logged, never fatal.
func PreloadShaders(sources []ShaderSource) {
	withCurrent(func(c *Context) {
		pairs := make([]shaderPreloadPair, 0, len(sources))
		for _, s := range sources {
			program, err := compileProgram(c.gl, s.Vertex, s.Fragment)
			if err != nil {
				rt.Logger().Warn("velocitygl: preload_shaders: " + err.Error())
				continue
			}
			pairs = append(pairs, shaderPreloadPair{vert: s.Vertex, frag: s.Fragment, program: program})
		}
		c.preloadShaders(pairs)
	})
}

// ClearShaderCache empties the cache's in-memory entries (§6).
func ClearShaderCache() { withCurrent(func(c *Context) { c.shaderCache.Clear() }) }

// GetShaderCacheSize reports the cache's live in-memory byte footprint
// (§6).
func GetShaderCacheSize() int64 {
	var n int64
	withCurrent(func(c *Context) { n = c.shaderCache.SizeBytes() })
	return n
}

// FlushShaderCache writes the cache to disk immediately, at the
// configured ShaderCachePath (§6, §4.D "Persistence").
func FlushShaderCache() {
	withCurrent(func(c *Context) {
		if c.config.ShaderCachePath != "" {
			c.shaderCache.Flush(c.config.ShaderCachePath)
		}
	})
}
