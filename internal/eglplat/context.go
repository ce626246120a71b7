// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

//go:build linux

package eglplat

import (
	"fmt"
	"unsafe"
)

// Context wraps the single EGL rendering context the runtime drives. Only
// one exists per host context (§5: no multi-context sharing).
type Context struct {
	display     EGLDisplay
	config      EGLConfig
	context     EGLContext
	surface     EGLSurface
	hasWindow   bool
	windowKind  WindowKind
}

// Options configures EGL context creation. The runtime always requests
// OpenGL ES, since that is the only API VelocityGL ever drives.
type Options struct {
	// ESMajor/ESMinor select the context version request (3.0-3.2).
	ESMajor, ESMinor int
	// NativeWindow is the host's EGLNativeWindowType (e.g. an Android
	// ANativeWindow*). Zero means render to an off-screen pbuffer only
	// (surfaceless / headless use).
	NativeWindow uintptr
	// NativeDisplay is the host's EGLNativeDisplayType; zero means "let
	// the platform layer detect one" (X11/Wayland/Android default).
	NativeDisplay uintptr
}

// DefaultOptions requests an ES 3.0 context with no window surface.
func DefaultOptions() Options {
	return Options{ESMajor: 3, ESMinor: 0}
}

// NewContext creates and makes-current a new EGL/GLES context.
func NewContext(opts Options) (*Context, error) {
	display, windowKind, err := resolveDisplay(opts)
	if err != nil {
		return nil, fmt.Errorf("eglplat: resolve display: %w", err)
	}

	var major, minor EGLInt
	if Initialize(display, &major, &minor) == False {
		return nil, fmt.Errorf("eglplat: eglInitialize failed: error 0x%x", GetError())
	}

	if BindAPI(OpenGLESAPI) == False {
		Terminate(display)
		return nil, fmt.Errorf("eglplat: eglBindAPI(ES) failed: error 0x%x", GetError())
	}

	config, err := chooseConfig(display, opts)
	if err != nil {
		Terminate(display)
		return nil, err
	}

	eglContext := createESContext(display, config, opts)
	if eglContext == NoContext {
		Terminate(display)
		return nil, fmt.Errorf("eglplat: eglCreateContext failed: error 0x%x", GetError())
	}

	var surface EGLSurface
	hasWindow := opts.NativeWindow != 0
	if hasWindow {
		attribs := []EGLInt{None}
		surface = CreateWindowSurface(display, config, EGLNativeWindowType(opts.NativeWindow), &attribs[0])
	} else {
		surface = createPbufferSurface(display, config)
	}
	if surface == NoSurface {
		DestroyContext(display, eglContext)
		Terminate(display)
		return nil, fmt.Errorf("eglplat: surface creation failed: error 0x%x", GetError())
	}

	ctx := &Context{
		display:    display,
		config:     config,
		context:    eglContext,
		surface:    surface,
		hasWindow:  hasWindow,
		windowKind: windowKind,
	}
	if err := ctx.MakeCurrent(); err != nil {
		ctx.Destroy()
		return nil, err
	}
	return ctx, nil
}

func resolveDisplay(opts Options) (EGLDisplay, WindowKind, error) {
	if opts.NativeDisplay != 0 {
		d := GetDisplay(EGLNativeDisplayType(opts.NativeDisplay))
		if d == NoDisplay {
			return NoDisplay, WindowKindUnknown, fmt.Errorf("eglGetDisplay failed for host-supplied display")
		}
		return d, WindowKindUnknown, nil
	}
	return GetEGLDisplay()
}

func chooseConfig(display EGLDisplay, opts Options) (EGLConfig, error) {
	renderableType := OpenGLES2Bit
	switch {
	case opts.ESMajor >= 3:
		renderableType = OpenGLES3Bit
	}
	surfaceType := PbufferBit
	if opts.NativeWindow != 0 {
		surfaceType |= WindowBit
	}
	attribs := []EGLInt{
		SurfaceType, surfaceType,
		RenderableType, renderableType,
		RedSize, 8,
		GreenSize, 8,
		BlueSize, 8,
		AlphaSize, 8,
		DepthSize, 24,
		StencilSize, 8,
		None,
	}
	var config EGLConfig
	var numConfigs EGLInt
	if ChooseConfig(display, &attribs[0], &config, 1, &numConfigs) == False {
		return 0, fmt.Errorf("eglplat: eglChooseConfig failed: error 0x%x", GetError())
	}
	if numConfigs == 0 {
		return 0, fmt.Errorf("eglplat: no suitable EGL config for ES %d.%d", opts.ESMajor, opts.ESMinor)
	}
	return config, nil
}

func createESContext(display EGLDisplay, config EGLConfig, opts Options) EGLContext {
	major, minor := opts.ESMajor, opts.ESMinor
	if major == 0 {
		major = 3
	}
	attribs := []EGLInt{
		ContextMajorVersion, EGLInt(major),
		ContextMinorVersion, EGLInt(minor),
		None,
	}
	return CreateContext(display, config, NoContext, &attribs[0])
}

func createPbufferSurface(display EGLDisplay, config EGLConfig) EGLSurface {
	attribs := []EGLInt{Width, 16, Height, 16, None}
	return CreatePbufferSurface(display, config, &attribs[0])
}

// MakeCurrent makes this context current for the calling (rendering) thread.
func (c *Context) MakeCurrent() error {
	if MakeCurrent(c.display, c.surface, c.surface, c.context) == False {
		return fmt.Errorf("eglplat: eglMakeCurrent failed: error 0x%x", GetError())
	}
	return nil
}

// SwapBuffers presents the window surface. A no-op on a pbuffer-only
// (surfaceless) context, matching the spec's swap_buffers contract.
func (c *Context) SwapBuffers() {
	if c.hasWindow {
		SwapBuffers(c.display, c.surface)
	}
}

// Destroy releases the context, surface, and display.
func (c *Context) Destroy() {
	if c.context != NoContext {
		_ = MakeCurrent(c.display, NoSurface, NoSurface, NoContext)
		DestroyContext(c.display, c.context)
		c.context = NoContext
	}
	if c.surface != NoSurface {
		DestroySurface(c.display, c.surface)
		c.surface = NoSurface
	}
	if c.display != NoDisplay {
		Terminate(c.display)
		c.display = NoDisplay
	}
}

func (c *Context) WindowKind() WindowKind { return c.windowKind }

// GetProcAddr returns the address of a GL/GLES function, for both core
// and extension entry points, as an unsafe.Pointer for glapi's goffi calls.
func GetProcAddr(name string) unsafe.Pointer {
	//nolint:govet // converting a function address to unsafe.Pointer is required for FFI dispatch
	return unsafe.Pointer(GetProcAddress(name))
}
