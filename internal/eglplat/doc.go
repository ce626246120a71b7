// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

//go:build linux

// Package eglplat is the out-of-scope "host-platform shim" §1 describes:
// window-system surface acquisition for the one EGL/GLES context the
// runtime drives. It resolves a display (Android's default display, or
// X11/Wayland when running the translation layer on desktop Linux for
// development) and wraps eglCreateContext/eglMakeCurrent/eglSwapBuffers.
//
// The root package calls it directly (DefaultOptions, NewContext,
// GetProcAddr) and holds the returned *Context; no other package uses
// the EGL types defined here.
//
// Uses github.com/go-webgpu/goffi for pure-Go FFI into libEGL.so without
// cgo, matching how internal/glapi loads libGLESv3.so.
package eglplat
