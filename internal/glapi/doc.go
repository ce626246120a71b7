// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

// Package glapi loads the device's real OpenGL ES 3.x entry points at
// runtime and exposes them as plain Go methods on Context.
//
// It knows nothing about desktop-GL semantics, batching, or caching —
// those live in statetrack, batch, and shadercache respectively. glapi
// is the bottom of the stack: one goffi call per GLES entry point.
//
//	ctx := &glapi.Context{}
//	if err := ctx.LoadFunctions(eglplat.GetProcAddr); err != nil {
//	    return err
//	}
//	ctx.ClearColor(0.2, 0.3, 0.3, 1.0)
//	ctx.Clear(glapi.COLOR_BUFFER_BIT)
package glapi
