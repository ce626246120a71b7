// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

//go:build linux

package glapi

import (
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// Reusable CallInterface signatures, keyed by the shape of arguments they
// describe rather than by the one entry point that first needed them —
// most GLES entry points collapse into a handful of (ret, args...) shapes.
var (
	cifVoid        types.CallInterface // void fn(void)
	cifUInt32      types.CallInterface // uint32 fn(void)
	cifUInt321     types.CallInterface // uint32 fn(uint32)
	cifVoid1       types.CallInterface // void fn(uint32)
	cifVoid1F      types.CallInterface // void fn(float)
	cifVoid2       types.CallInterface // void fn(uint32, void*)
	cifVoid2UU     types.CallInterface // void fn(uint32, uint32)
	cifVoid2FF     types.CallInterface // void fn(float, float)
	cifVoid3       types.CallInterface // void fn(uint32, uint32, uint32)
	cifVoid4       types.CallInterface // void fn(uint32, uint32, uint32, uint32)
	cifVoid4Float  types.CallInterface // void fn(float, float, float, float)
	cifVoid4Shader types.CallInterface // void fn(uint32, int32, void*, void*)
	cifVoid3Shader types.CallInterface // void fn(uint32, uint32, void*)
	cifVoid4Log    types.CallInterface // void fn(uint32, uint32, void*, void*)
	cifVoid4Buffer types.CallInterface // void fn(uint32, uintptr, void*, uint32)
	cifVoid6Attrib types.CallInterface // void fn(uint32, int32, uint32, uint8, int32, uintptr)
	cifVoid5FBO    types.CallInterface // void fn(uint32, uint32, uint32, uint32, int32)
	cifVoid9TexImg types.CallInterface // void fn(uint32, int32, int32, int32, int32, int32, uint32, uint32, void*)
	cifVoid4Draw   types.CallInterface // void fn(uint32, int32, int32, int32)
	cifVoid5Elem   types.CallInterface // void fn(uint32, int32, uint32, void*, int32)
	cifPtr1        types.CallInterface // void* fn(uint32)
	cifPtr2UU      types.CallInterface // void* fn(uint32, uint32)
	cifPtr3MapRng  types.CallInterface // void* fn(uint32, uintptr, uintptr, uint32)
	cifUInt3Wait   types.CallInterface // uint32 fn(void*, uint32, uint64)
	cifVoid1Ptr    types.CallInterface // void fn(void*)
	cifVoid5Bin    types.CallInterface // void fn(uint32, int32, void*, void*, void*) - GetProgramBinary
	cifVoid4Bin    types.CallInterface // void fn(uint32, uint32, void*, int32) - ProgramBinary
	cifVoid4MultiA types.CallInterface // void fn(uint32, void*, void*, int32) - MultiDrawArrays
	cifVoid5MultiE types.CallInterface // void fn(uint32, void*, uint32, void*, int32) - MultiDrawElements
	cifS32UP       types.CallInterface // int32 fn(uint32, void*) - GetUniformLocation/GetAttribLocation
	cifVoid1S2F    types.CallInterface // void fn(int32, float, float) - Uniform2f
	cifInitialized bool
)

//nolint:maintidx // table of FFI signature preparations, one block per shape
func initCallInterfaces() error {
	if cifInitialized {
		return nil
	}
	type prep struct {
		dst  *types.CallInterface
		ret  *types.TypeDescriptor
		args []*types.TypeDescriptor
	}
	u, s, f, p, v, u8, u64 := types.UInt32TypeDescriptor, types.SInt32TypeDescriptor,
		types.FloatTypeDescriptor, types.PointerTypeDescriptor, types.VoidTypeDescriptor,
		types.UInt8TypeDescriptor, types.UInt64TypeDescriptor
	preps := []prep{
		{&cifVoid, v, nil},
		{&cifUInt32, u, nil},
		{&cifUInt321, u, []*types.TypeDescriptor{u}},
		{&cifVoid1, v, []*types.TypeDescriptor{u}},
		{&cifVoid1F, v, []*types.TypeDescriptor{f}},
		{&cifVoid2, v, []*types.TypeDescriptor{u, p}},
		{&cifVoid2UU, v, []*types.TypeDescriptor{u, u}},
		{&cifVoid2FF, v, []*types.TypeDescriptor{f, f}},
		{&cifVoid3, v, []*types.TypeDescriptor{u, u, u}},
		{&cifVoid4, v, []*types.TypeDescriptor{u, u, u, u}},
		{&cifVoid4Float, v, []*types.TypeDescriptor{f, f, f, f}},
		{&cifVoid4Shader, v, []*types.TypeDescriptor{u, s, p, p}},
		{&cifVoid3Shader, v, []*types.TypeDescriptor{u, u, p}},
		{&cifVoid4Log, v, []*types.TypeDescriptor{u, u, p, p}},
		{&cifVoid4Buffer, v, []*types.TypeDescriptor{u, p, p, u}},
		{&cifVoid6Attrib, v, []*types.TypeDescriptor{u, s, u, u8, s, p}},
		{&cifVoid5FBO, v, []*types.TypeDescriptor{u, u, u, u, s}},
		{&cifVoid9TexImg, v, []*types.TypeDescriptor{u, s, s, s, s, s, u, u, p}},
		{&cifVoid4Draw, v, []*types.TypeDescriptor{u, s, s, s}},
		{&cifVoid5Elem, v, []*types.TypeDescriptor{u, s, u, p, s}},
		{&cifPtr1, p, []*types.TypeDescriptor{u}},
		{&cifPtr2UU, p, []*types.TypeDescriptor{u, u}},
		{&cifPtr3MapRng, p, []*types.TypeDescriptor{u, p, p, u}},
		{&cifUInt3Wait, u, []*types.TypeDescriptor{p, u, u64}},
		{&cifVoid1Ptr, v, []*types.TypeDescriptor{p}},
		{&cifVoid5Bin, v, []*types.TypeDescriptor{u, s, p, p, p}},
		{&cifVoid4Bin, v, []*types.TypeDescriptor{u, u, p, s}},
		{&cifVoid4MultiA, v, []*types.TypeDescriptor{u, p, p, s}},
		{&cifVoid5MultiE, v, []*types.TypeDescriptor{u, p, u, p, s}},
		{&cifS32UP, s, []*types.TypeDescriptor{u, p}},
		{&cifVoid1S2F, v, []*types.TypeDescriptor{s, f, f}},
	}
	for _, pr := range preps {
		if err := ffi.PrepareCallInterface(pr.dst, types.DefaultCall, pr.ret, pr.args); err != nil {
			return err
		}
	}
	cifInitialized = true
	return nil
}

// Context holds the OpenGL ES function pointers resolved once at context
// creation via eglGetProcAddress, and the thin call wrappers the rest of
// the module drives through. It owns no pipeline state of its
// own — that is statetrack's job.
type Context struct {
	glGetError     unsafe.Pointer
	glGetString    unsafe.Pointer
	glGetIntegerv  unsafe.Pointer
	glEnable       unsafe.Pointer
	glDisable      unsafe.Pointer
	glClear        unsafe.Pointer
	glClearColor   unsafe.Pointer
	glViewport     unsafe.Pointer
	glScissor      unsafe.Pointer
	glLineWidth    unsafe.Pointer
	glCullFace     unsafe.Pointer
	glFrontFace    unsafe.Pointer
	glDepthFunc    unsafe.Pointer
	glDepthMask    unsafe.Pointer
	glDepthRangef  unsafe.Pointer
	glBlendFuncSep unsafe.Pointer
	glBlendEqnSep  unsafe.Pointer
	glBlendColor   unsafe.Pointer
	glStencilFuncS unsafe.Pointer
	glStencilOpS   unsafe.Pointer
	glStencilMaskS unsafe.Pointer
	glFlush        unsafe.Pointer
	glFinish       unsafe.Pointer

	glGenBuffers      unsafe.Pointer
	glDeleteBuffers   unsafe.Pointer
	glBindBuffer      unsafe.Pointer
	glBufferData      unsafe.Pointer
	glBufferSubData   unsafe.Pointer
	glBufferStorage   unsafe.Pointer
	glMapBufferRange  unsafe.Pointer
	glUnmapBuffer     unsafe.Pointer
	glFlushMappedRng  unsafe.Pointer
	glBindBufferBase  unsafe.Pointer
	glBindBufferRange unsafe.Pointer

	glGenVertexArrays    unsafe.Pointer
	glDeleteVertexArrays unsafe.Pointer
	glBindVertexArray    unsafe.Pointer

	glEnableVertexAttribArray  unsafe.Pointer
	glDisableVertexAttribArray unsafe.Pointer
	glVertexAttribPointer      unsafe.Pointer
	glVertexAttribDivisor      unsafe.Pointer

	glGenTextures      unsafe.Pointer
	glDeleteTextures   unsafe.Pointer
	glBindTexture      unsafe.Pointer
	glActiveTexture    unsafe.Pointer
	glTexImage2D       unsafe.Pointer
	glTexParameteri    unsafe.Pointer
	glTexParameterf    unsafe.Pointer
	glGenerateMipmap   unsafe.Pointer
	glGenFramebuffers  unsafe.Pointer
	glBindFramebuffer  unsafe.Pointer
	glFramebufferTex2D unsafe.Pointer
	glCheckFramebufferStatus unsafe.Pointer
	glDeleteFramebuffers     unsafe.Pointer

	glDrawArrays            unsafe.Pointer
	glDrawElements          unsafe.Pointer
	glDrawArraysInstanced   unsafe.Pointer
	glDrawElementsInstanced unsafe.Pointer
	glMultiDrawArrays       unsafe.Pointer
	glMultiDrawElements     unsafe.Pointer

	glCreateShader      unsafe.Pointer
	glDeleteShader      unsafe.Pointer
	glShaderSource      unsafe.Pointer
	glCompileShader     unsafe.Pointer
	glGetShaderiv       unsafe.Pointer
	glGetShaderInfoLog  unsafe.Pointer
	glCreateProgram     unsafe.Pointer
	glDeleteProgram     unsafe.Pointer
	glAttachShader      unsafe.Pointer
	glLinkProgram       unsafe.Pointer
	glUseProgram        unsafe.Pointer
	glGetProgramiv      unsafe.Pointer
	glGetProgramInfoLog unsafe.Pointer
	glGetProgramBinary  unsafe.Pointer
	glProgramBinary     unsafe.Pointer
	glGetUniformLoc     unsafe.Pointer
	glGetAttribLoc      unsafe.Pointer
	glUniform1i         unsafe.Pointer
	glUniform1f         unsafe.Pointer
	glUniform2f         unsafe.Pointer
	glUniformMatrix4fv  unsafe.Pointer

	glFenceSync      unsafe.Pointer
	glClientWaitSync unsafe.Pointer
	glDeleteSync     unsafe.Pointer
}

// LoadFunctions resolves every entry point above through getProcAddr
// (normally eglplat.GetProcAddr). Missing optional extensions (buffer
// storage, multi-draw, fences) are left nil; callers must check before use.
func (c *Context) LoadFunctions(getProcAddr func(string) unsafe.Pointer) error {
	if err := initCallInterfaces(); err != nil {
		return err
	}
	type slot struct {
		name string
		dst  *unsafe.Pointer
		req  bool
	}
	slots := []slot{
		{"glGetError", &c.glGetError, true},
		{"glGetString", &c.glGetString, true},
		{"glGetIntegerv", &c.glGetIntegerv, true},
		{"glEnable", &c.glEnable, true},
		{"glDisable", &c.glDisable, true},
		{"glClear", &c.glClear, true},
		{"glClearColor", &c.glClearColor, true},
		{"glViewport", &c.glViewport, true},
		{"glScissor", &c.glScissor, true},
		{"glLineWidth", &c.glLineWidth, true},
		{"glCullFace", &c.glCullFace, true},
		{"glFrontFace", &c.glFrontFace, true},
		{"glDepthFunc", &c.glDepthFunc, true},
		{"glDepthMask", &c.glDepthMask, true},
		{"glDepthRangef", &c.glDepthRangef, true},
		{"glBlendFuncSeparate", &c.glBlendFuncSep, true},
		{"glBlendEquationSeparate", &c.glBlendEqnSep, true},
		{"glBlendColor", &c.glBlendColor, true},
		{"glStencilFuncSeparate", &c.glStencilFuncS, true},
		{"glStencilOpSeparate", &c.glStencilOpS, true},
		{"glStencilMaskSeparate", &c.glStencilMaskS, true},
		{"glFlush", &c.glFlush, true},
		{"glFinish", &c.glFinish, true},
		{"glGenBuffers", &c.glGenBuffers, true},
		{"glDeleteBuffers", &c.glDeleteBuffers, true},
		{"glBindBuffer", &c.glBindBuffer, true},
		{"glBufferData", &c.glBufferData, true},
		{"glBufferSubData", &c.glBufferSubData, true},
		{"glBufferStorageEXT", &c.glBufferStorage, false},
		{"glMapBufferRange", &c.glMapBufferRange, true},
		{"glUnmapBuffer", &c.glUnmapBuffer, true},
		{"glFlushMappedBufferRange", &c.glFlushMappedRng, true},
		{"glBindBufferBase", &c.glBindBufferBase, true},
		{"glBindBufferRange", &c.glBindBufferRange, true},
		{"glGenVertexArrays", &c.glGenVertexArrays, true},
		{"glDeleteVertexArrays", &c.glDeleteVertexArrays, true},
		{"glBindVertexArray", &c.glBindVertexArray, true},
		{"glEnableVertexAttribArray", &c.glEnableVertexAttribArray, true},
		{"glDisableVertexAttribArray", &c.glDisableVertexAttribArray, true},
		{"glVertexAttribPointer", &c.glVertexAttribPointer, true},
		{"glVertexAttribDivisor", &c.glVertexAttribDivisor, true},
		{"glGenTextures", &c.glGenTextures, true},
		{"glDeleteTextures", &c.glDeleteTextures, true},
		{"glBindTexture", &c.glBindTexture, true},
		{"glActiveTexture", &c.glActiveTexture, true},
		{"glTexImage2D", &c.glTexImage2D, true},
		{"glTexParameteri", &c.glTexParameteri, true},
		{"glTexParameterf", &c.glTexParameterf, true},
		{"glGenerateMipmap", &c.glGenerateMipmap, true},
		{"glGenFramebuffers", &c.glGenFramebuffers, true},
		{"glBindFramebuffer", &c.glBindFramebuffer, true},
		{"glFramebufferTexture2D", &c.glFramebufferTex2D, true},
		{"glCheckFramebufferStatus", &c.glCheckFramebufferStatus, true},
		{"glDeleteFramebuffers", &c.glDeleteFramebuffers, true},
		{"glDrawArrays", &c.glDrawArrays, true},
		{"glDrawElements", &c.glDrawElements, true},
		{"glDrawArraysInstanced", &c.glDrawArraysInstanced, true},
		{"glDrawElementsInstanced", &c.glDrawElementsInstanced, true},
		{"glMultiDrawArraysEXT", &c.glMultiDrawArrays, false},
		{"glMultiDrawElementsEXT", &c.glMultiDrawElements, false},
		{"glCreateShader", &c.glCreateShader, true},
		{"glDeleteShader", &c.glDeleteShader, true},
		{"glShaderSource", &c.glShaderSource, true},
		{"glCompileShader", &c.glCompileShader, true},
		{"glGetShaderiv", &c.glGetShaderiv, true},
		{"glGetShaderInfoLog", &c.glGetShaderInfoLog, true},
		{"glCreateProgram", &c.glCreateProgram, true},
		{"glDeleteProgram", &c.glDeleteProgram, true},
		{"glAttachShader", &c.glAttachShader, true},
		{"glLinkProgram", &c.glLinkProgram, true},
		{"glUseProgram", &c.glUseProgram, true},
		{"glGetProgramiv", &c.glGetProgramiv, true},
		{"glGetProgramInfoLog", &c.glGetProgramInfoLog, true},
		{"glGetProgramBinary", &c.glGetProgramBinary, false},
		{"glProgramBinary", &c.glProgramBinary, false},
		{"glGetUniformLocation", &c.glGetUniformLoc, true},
		{"glGetAttribLocation", &c.glGetAttribLoc, true},
		{"glUniform1i", &c.glUniform1i, true},
		{"glUniform1f", &c.glUniform1f, true},
		{"glUniform2f", &c.glUniform2f, true},
		{"glUniformMatrix4fv", &c.glUniformMatrix4fv, true},
		{"glFenceSync", &c.glFenceSync, false},
		{"glClientWaitSync", &c.glClientWaitSync, false},
		{"glDeleteSync", &c.glDeleteSync, false},
	}
	for _, s := range slots {
		ptr := getProcAddr(s.name)
		*s.dst = ptr
		if s.req && ptr == nil {
			return &MissingEntryPointError{Name: s.name}
		}
	}
	return nil
}

// MissingEntryPointError reports a required GLES entry point the driver
// did not expose; the device cannot back the translated desktop surface.
type MissingEntryPointError struct{ Name string }

func (e *MissingEntryPointError) Error() string {
	return "glapi: required entry point not found: " + e.Name
}

// HasBufferStorage reports whether persistent buffer mapping is available.
func (c *Context) HasBufferStorage() bool { return c.glBufferStorage != nil }

// HasMultiDraw reports whether the native multi-draw extension loaded.
func (c *Context) HasMultiDraw() bool { return c.glMultiDrawArrays != nil }

// HasProgramBinary reports whether program binary retrieval/reload loaded.
func (c *Context) HasProgramBinary() bool { return c.glGetProgramBinary != nil && c.glProgramBinary != nil }

// HasSync reports whether fence sync objects are available.
func (c *Context) HasSync() bool { return c.glFenceSync != nil }

func call0(cif *types.CallInterface, fn unsafe.Pointer) {
	_ = ffi.CallFunction(cif, fn, nil, nil)
}

func callRetU32(cif *types.CallInterface, fn unsafe.Pointer, args []unsafe.Pointer) uint32 {
	var r uint32
	_ = ffi.CallFunction(cif, fn, unsafe.Pointer(&r), args)
	return r
}

func callRetS32(cif *types.CallInterface, fn unsafe.Pointer, args []unsafe.Pointer) int32 {
	var r int32
	_ = ffi.CallFunction(cif, fn, unsafe.Pointer(&r), args)
	return r
}

func callRetPtr(cif *types.CallInterface, fn unsafe.Pointer, args []unsafe.Pointer) uintptr {
	var r uintptr
	_ = ffi.CallFunction(cif, fn, unsafe.Pointer(&r), args)
	return r
}

// --- fixed-function / pipeline state ---

func (c *Context) GetError() uint32 {
	return callRetU32(&cifUInt32, c.glGetError, nil)
}

func (c *Context) GetString(name uint32) string {
	args := []unsafe.Pointer{unsafe.Pointer(&name)}
	ptr := callRetPtr(&cifPtr1, c.glGetString, args)
	if ptr == 0 {
		return ""
	}
	return goString(ptr)
}

func (c *Context) GetIntegerv(pname uint32, out *int32) {
	args := []unsafe.Pointer{unsafe.Pointer(&pname), unsafe.Pointer(out)}
	_ = ffi.CallFunction(&cifVoid2, c.glGetIntegerv, nil, args)
}

func (c *Context) Enable(cap uint32) { call1(&cifVoid1, c.glEnable, cap) }
func (c *Context) Disable(cap uint32) { call1(&cifVoid1, c.glDisable, cap) }
func (c *Context) Clear(mask uint32) { call1(&cifVoid1, c.glClear, mask) }

func (c *Context) ClearColor(r, g, b, a float32) {
	args := []unsafe.Pointer{unsafe.Pointer(&r), unsafe.Pointer(&g), unsafe.Pointer(&b), unsafe.Pointer(&a)}
	_ = ffi.CallFunction(&cifVoid4Float, c.glClearColor, nil, args)
}

func (c *Context) Viewport(x, y, w, h int32) { call4(&cifVoid4, c.glViewport, u32(x), u32(y), u32(w), u32(h)) }
func (c *Context) Scissor(x, y, w, h int32)  { call4(&cifVoid4, c.glScissor, u32(x), u32(y), u32(w), u32(h)) }
func (c *Context) LineWidth(width float32) {
	args := []unsafe.Pointer{unsafe.Pointer(&width)}
	_ = ffi.CallFunction(&cifVoid1F, c.glLineWidth, nil, args)
}
func (c *Context) CullFace(mode uint32)  { call1(&cifVoid1, c.glCullFace, mode) }
func (c *Context) FrontFace(mode uint32) { call1(&cifVoid1, c.glFrontFace, mode) }
func (c *Context) DepthFunc(fn uint32)   { call1(&cifVoid1, c.glDepthFunc, fn) }
func (c *Context) DepthMask(flag bool)   { call1(&cifVoid1, c.glDepthMask, boolU32(flag)) }
func (c *Context) DepthRangef(n, f float32) {
	args := []unsafe.Pointer{unsafe.Pointer(&n), unsafe.Pointer(&f)}
	_ = ffi.CallFunction(&cifVoid2FF, c.glDepthRangef, nil, args)
}
func (c *Context) BlendFuncSeparate(srcRGB, dstRGB, srcA, dstA uint32) {
	call4(&cifVoid4, c.glBlendFuncSep, srcRGB, dstRGB, srcA, dstA)
}
func (c *Context) BlendEquationSeparate(modeRGB, modeA uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&modeRGB), unsafe.Pointer(&modeA)}
	_ = ffi.CallFunction(&cifVoid2UU, c.glBlendEqnSep, nil, args)
}
func (c *Context) BlendColor(r, g, b, a float32) {
	args := []unsafe.Pointer{unsafe.Pointer(&r), unsafe.Pointer(&g), unsafe.Pointer(&b), unsafe.Pointer(&a)}
	_ = ffi.CallFunction(&cifVoid4Float, c.glBlendColor, nil, args)
}
func (c *Context) StencilFuncSeparate(face, fn uint32, ref int32, mask uint32) {
	call4(&cifVoid4, c.glStencilFuncS, face, fn, u32(ref), mask)
}
func (c *Context) StencilOpSeparate(face, sfail, dpfail, dppass uint32) {
	call4(&cifVoid4, c.glStencilOpS, face, sfail, dpfail, dppass)
}
func (c *Context) StencilMaskSeparate(face, mask uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&face), unsafe.Pointer(&mask)}
	_ = ffi.CallFunction(&cifVoid2UU, c.glStencilMaskS, nil, args)
}
func (c *Context) Flush()  { call0(&cifVoid, c.glFlush) }
func (c *Context) Finish() { call0(&cifVoid, c.glFinish) }

// --- buffers ---

func (c *Context) GenBuffers(n int) []uint32 { return genNames(c.glGenBuffers, n) }
func (c *Context) DeleteBuffers(ids []uint32) { deleteNames(c.glDeleteBuffers, ids) }
func (c *Context) BindBuffer(target, id uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&target), unsafe.Pointer(&id)}
	_ = ffi.CallFunction(&cifVoid2UU, c.glBindBuffer, nil, args)
}
func (c *Context) BufferData(target uint32, size uintptr, data unsafe.Pointer, usage uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&target), unsafe.Pointer(&size), data, unsafe.Pointer(&usage)}
	_ = ffi.CallFunction(&cifVoid4Buffer, c.glBufferData, nil, args)
}
func (c *Context) BufferSubData(target uint32, offset, size uintptr, data unsafe.Pointer) {
	args := []unsafe.Pointer{unsafe.Pointer(&target), unsafe.Pointer(&offset), unsafe.Pointer(&size), data}
	_ = ffi.CallFunction(&cifVoid4Buffer, c.glBufferSubData, nil, args)
}
func (c *Context) BufferStorage(target uint32, size uintptr, data unsafe.Pointer, flags uint32) {
	if c.glBufferStorage == nil {
		return
	}
	args := []unsafe.Pointer{unsafe.Pointer(&target), unsafe.Pointer(&size), data, unsafe.Pointer(&flags)}
	_ = ffi.CallFunction(&cifVoid4Buffer, c.glBufferStorage, nil, args)
}
func (c *Context) MapBufferRange(target uint32, offset, length uintptr, access uint32) unsafe.Pointer {
	args := []unsafe.Pointer{unsafe.Pointer(&target), unsafe.Pointer(&offset), unsafe.Pointer(&length), unsafe.Pointer(&access)}
	ptr := callRetPtr(&cifPtr3MapRng, c.glMapBufferRange, args)
	return unsafe.Pointer(ptr) //nolint:govet
}
func (c *Context) UnmapBuffer(target uint32) bool {
	return callRetU32(&cifUInt321, c.glUnmapBuffer, []unsafe.Pointer{unsafe.Pointer(&target)}) != 0
}
func (c *Context) FlushMappedBufferRange(target uint32, offset, length uintptr) {
	args := []unsafe.Pointer{unsafe.Pointer(&target), unsafe.Pointer(&offset), unsafe.Pointer(&length)}
	_ = ffi.CallFunction(&cifVoid3, c.glFlushMappedRng, nil, args)
}

// --- vertex arrays & attributes ---

func (c *Context) GenVertexArrays(n int) []uint32    { return genNames(c.glGenVertexArrays, n) }
func (c *Context) DeleteVertexArrays(ids []uint32)   { deleteNames(c.glDeleteVertexArrays, ids) }
func (c *Context) BindVertexArray(id uint32)         { call1(&cifVoid1, c.glBindVertexArray, id) }
func (c *Context) EnableVertexAttribArray(index uint32)  { call1(&cifVoid1, c.glEnableVertexAttribArray, index) }
func (c *Context) DisableVertexAttribArray(index uint32) { call1(&cifVoid1, c.glDisableVertexAttribArray, index) }
func (c *Context) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset uintptr) {
	norm := uint8(0)
	if normalized {
		norm = 1
	}
	args := []unsafe.Pointer{
		unsafe.Pointer(&index), unsafe.Pointer(&size), unsafe.Pointer(&typ),
		unsafe.Pointer(&norm), unsafe.Pointer(&stride), unsafe.Pointer(&offset),
	}
	_ = ffi.CallFunction(&cifVoid6Attrib, c.glVertexAttribPointer, nil, args)
}
func (c *Context) VertexAttribDivisor(index, divisor uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&index), unsafe.Pointer(&divisor)}
	_ = ffi.CallFunction(&cifVoid2UU, c.glVertexAttribDivisor, nil, args)
}

// --- textures & framebuffers ---

func (c *Context) GenTextures(n int) []uint32  { return genNames(c.glGenTextures, n) }
func (c *Context) DeleteTextures(ids []uint32) { deleteNames(c.glDeleteTextures, ids) }
func (c *Context) BindTexture(target, id uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&target), unsafe.Pointer(&id)}
	_ = ffi.CallFunction(&cifVoid2UU, c.glBindTexture, nil, args)
}
func (c *Context) ActiveTexture(unit uint32) { call1(&cifVoid1, c.glActiveTexture, unit) }
func (c *Context) TexImage2D(target uint32, level, internalFormat int32, w, h, border int32, format, typ uint32, data unsafe.Pointer) {
	args := []unsafe.Pointer{
		unsafe.Pointer(&target), unsafe.Pointer(&level), unsafe.Pointer(&internalFormat),
		unsafe.Pointer(&w), unsafe.Pointer(&h), unsafe.Pointer(&border),
		unsafe.Pointer(&format), unsafe.Pointer(&typ), data,
	}
	_ = ffi.CallFunction(&cifVoid9TexImg, c.glTexImage2D, nil, args)
}
func (c *Context) TexParameteri(target, pname uint32, param int32) {
	call3(&cifVoid3, c.glTexParameteri, target, pname, u32(param))
}
func (c *Context) GenFramebuffers(n int) []uint32  { return genNames(c.glGenFramebuffers, n) }
func (c *Context) DeleteFramebuffers(ids []uint32) { deleteNames(c.glDeleteFramebuffers, ids) }
func (c *Context) BindFramebuffer(target, id uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&target), unsafe.Pointer(&id)}
	_ = ffi.CallFunction(&cifVoid2UU, c.glBindFramebuffer, nil, args)
}
func (c *Context) FramebufferTexture2D(target, attachment, texTarget, texture uint32, level int32) {
	args := []unsafe.Pointer{
		unsafe.Pointer(&target), unsafe.Pointer(&attachment), unsafe.Pointer(&texTarget),
		unsafe.Pointer(&texture), unsafe.Pointer(&level),
	}
	_ = ffi.CallFunction(&cifVoid5FBO, c.glFramebufferTex2D, nil, args)
}
func (c *Context) CheckFramebufferStatus(target uint32) uint32 {
	return callRetU32(&cifUInt321, c.glCheckFramebufferStatus, []unsafe.Pointer{unsafe.Pointer(&target)})
}

// --- draws ---

func (c *Context) DrawArrays(mode uint32, first, count int32) {
	call3(&cifVoid3, c.glDrawArrays, mode, u32(first), u32(count))
}
func (c *Context) DrawElements(mode uint32, count int32, typ uint32, offset uintptr) {
	args := []unsafe.Pointer{unsafe.Pointer(&mode), unsafe.Pointer(&count), unsafe.Pointer(&typ), unsafe.Pointer(&offset)}
	_ = ffi.CallFunction(&cifVoid4Buffer, c.glDrawElements, nil, args)
}
func (c *Context) DrawArraysInstanced(mode uint32, first, count, instanceCount int32) {
	args := []unsafe.Pointer{unsafe.Pointer(&mode), unsafe.Pointer(&first), unsafe.Pointer(&count), unsafe.Pointer(&instanceCount)}
	_ = ffi.CallFunction(&cifVoid4Draw, c.glDrawArraysInstanced, nil, args)
}
func (c *Context) DrawElementsInstanced(mode uint32, count int32, typ uint32, offset uintptr, instanceCount int32) {
	args := []unsafe.Pointer{
		unsafe.Pointer(&mode), unsafe.Pointer(&count), unsafe.Pointer(&typ),
		unsafe.Pointer(&offset), unsafe.Pointer(&instanceCount),
	}
	_ = ffi.CallFunction(&cifVoid5Elem, c.glDrawElementsInstanced, nil, args)
}

// MultiDrawArrays issues a single multi-draw call covering len(firsts)
// sub-draws, or reports false if the device never loaded
// glMultiDrawArraysEXT (§4.E "native multi-draw").
func (c *Context) MultiDrawArrays(mode uint32, firsts, counts []int32) bool {
	if c.glMultiDrawArrays == nil || len(firsts) == 0 || len(firsts) != len(counts) {
		return false
	}
	drawcount := int32(len(firsts))
	args := []unsafe.Pointer{
		unsafe.Pointer(&mode), unsafe.Pointer(&firsts[0]), unsafe.Pointer(&counts[0]), unsafe.Pointer(&drawcount),
	}
	_ = ffi.CallFunction(&cifVoid4MultiA, c.glMultiDrawArrays, nil, args)
	return true
}

// MultiDrawElements issues a single multi-draw call over len(counts)
// sub-draws, reporting false if glMultiDrawElementsEXT never loaded.
func (c *Context) MultiDrawElements(mode uint32, counts []int32, typ uint32, offsets []uintptr) bool {
	if c.glMultiDrawElements == nil || len(counts) == 0 || len(counts) != len(offsets) {
		return false
	}
	indices := make([]unsafe.Pointer, len(offsets))
	for i, o := range offsets {
		indices[i] = unsafe.Pointer(o) //nolint:govet // GLES index "pointers" are really byte offsets
	}
	drawcount := int32(len(counts))
	args := []unsafe.Pointer{
		unsafe.Pointer(&mode), unsafe.Pointer(&counts[0]), unsafe.Pointer(&typ), unsafe.Pointer(&indices[0]), unsafe.Pointer(&drawcount),
	}
	_ = ffi.CallFunction(&cifVoid5MultiE, c.glMultiDrawElements, nil, args)
	return true
}

// --- shaders & programs ---

func (c *Context) CreateShader(typ uint32) uint32 {
	return callRetU32(&cifUInt321, c.glCreateShader, []unsafe.Pointer{unsafe.Pointer(&typ)})
}
func (c *Context) DeleteShader(shader uint32) { call1(&cifVoid1, c.glDeleteShader, shader) }
func (c *Context) ShaderSource(shader uint32, source string) {
	csource, free := cString(source)
	defer free()
	length := int32(len(source))
	args := []unsafe.Pointer{unsafe.Pointer(&shader), unsafe.Pointer(&length), csource, nil}
	_ = ffi.CallFunction(&cifVoid4Shader, c.glShaderSource, nil, args)
}
func (c *Context) CompileShader(shader uint32) { call1(&cifVoid1, c.glCompileShader, shader) }
func (c *Context) GetShaderiv(shader, pname uint32, out *int32) {
	args := []unsafe.Pointer{unsafe.Pointer(&shader), unsafe.Pointer(&pname), unsafe.Pointer(out)}
	_ = ffi.CallFunction(&cifVoid3Shader, c.glGetShaderiv, nil, args)
}
func (c *Context) GetShaderInfoLog(shader uint32) string {
	var length int32
	c.GetShaderiv(shader, INFO_LOG_LENGTH, &length)
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length)
	args := []unsafe.Pointer{unsafe.Pointer(&shader), unsafe.Pointer(&length), nil, unsafe.Pointer(&buf[0])}
	_ = ffi.CallFunction(&cifVoid4Log, c.glGetShaderInfoLog, nil, args)
	return string(buf)
}
func (c *Context) CreateProgram() uint32 { return callRetU32(&cifUInt32, c.glCreateProgram, nil) }
func (c *Context) DeleteProgram(program uint32) { call1(&cifVoid1, c.glDeleteProgram, program) }
func (c *Context) AttachShader(program, shader uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&program), unsafe.Pointer(&shader)}
	_ = ffi.CallFunction(&cifVoid2UU, c.glAttachShader, nil, args)
}
func (c *Context) LinkProgram(program uint32) { call1(&cifVoid1, c.glLinkProgram, program) }
func (c *Context) UseProgram(program uint32)  { call1(&cifVoid1, c.glUseProgram, program) }
func (c *Context) GetProgramiv(program, pname uint32, out *int32) {
	args := []unsafe.Pointer{unsafe.Pointer(&program), unsafe.Pointer(&pname), unsafe.Pointer(out)}
	_ = ffi.CallFunction(&cifVoid3Shader, c.glGetProgramiv, nil, args)
}
func (c *Context) GetProgramInfoLog(program uint32) string {
	var length int32
	c.GetProgramiv(program, INFO_LOG_LENGTH, &length)
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length)
	args := []unsafe.Pointer{unsafe.Pointer(&program), unsafe.Pointer(&length), nil, unsafe.Pointer(&buf[0])}
	_ = ffi.CallFunction(&cifVoid4Log, c.glGetProgramInfoLog, nil, args)
	return string(buf)
}

// GetProgramBinary retrieves the driver's linked binary for caching.
func (c *Context) GetProgramBinary(program uint32, bufSize int32) (format uint32, data []byte, ok bool) {
	if c.glGetProgramBinary == nil {
		return 0, nil, false
	}
	buf := make([]byte, bufSize)
	var length int32
	args := []unsafe.Pointer{
		unsafe.Pointer(&program), unsafe.Pointer(&bufSize), unsafe.Pointer(&length),
		unsafe.Pointer(&format), unsafe.Pointer(&buf[0]),
	}
	_ = ffi.CallFunction(&cifVoid5Bin, c.glGetProgramBinary, nil, args)
	if length <= 0 {
		return 0, nil, false
	}
	return format, buf[:length], true
}

// ProgramBinary reloads a previously retrieved binary into a fresh program.
func (c *Context) ProgramBinary(program, format uint32, data []byte) bool {
	if c.glProgramBinary == nil || len(data) == 0 {
		return false
	}
	length := int32(len(data))
	args := []unsafe.Pointer{unsafe.Pointer(&program), unsafe.Pointer(&format), unsafe.Pointer(&data[0]), unsafe.Pointer(&length)}
	_ = ffi.CallFunction(&cifVoid4Bin, c.glProgramBinary, nil, args)
	var status int32
	c.GetProgramiv(program, LINK_STATUS, &status)
	return status != FALSE
}

// GetUniformLocation resolves a uniform's location for the currently
// linked program. Returns -1 if the name is inactive or unknown.
func (c *Context) GetUniformLocation(program uint32, name string) int32 {
	cname, free := cString(name)
	defer free()
	args := []unsafe.Pointer{unsafe.Pointer(&program), cname}
	return callRetS32(&cifS32UP, c.glGetUniformLoc, args)
}

// GetAttribLocation resolves a vertex attribute's location.
func (c *Context) GetAttribLocation(program uint32, name string) int32 {
	cname, free := cString(name)
	defer free()
	args := []unsafe.Pointer{unsafe.Pointer(&program), cname}
	return callRetS32(&cifS32UP, c.glGetAttribLoc, args)
}

// Uniform1i sets an integer/sampler uniform.
func (c *Context) Uniform1i(location int32, v int32) {
	args := []unsafe.Pointer{unsafe.Pointer(&location), unsafe.Pointer(&v)}
	_ = ffi.CallFunction(&cifVoid2UU, c.glUniform1i, nil, args)
}

// Uniform1f sets a float uniform.
func (c *Context) Uniform1f(location int32, v float32) {
	args := []unsafe.Pointer{unsafe.Pointer(&location), unsafe.Pointer(&v)}
	_ = ffi.CallFunction(&cifVoid2FF, c.glUniform1f, nil, args)
}

// Uniform2f sets a vec2 uniform, used by the scaler's CAS pass for its
// texel-size uniform.
func (c *Context) Uniform2f(location int32, x, y float32) {
	args := []unsafe.Pointer{unsafe.Pointer(&location), unsafe.Pointer(&x), unsafe.Pointer(&y)}
	_ = ffi.CallFunction(&cifVoid1S2F, c.glUniform2f, nil, args)
}

// --- sync ---

func (c *Context) FenceSync() uintptr {
	if c.glFenceSync == nil {
		return 0
	}
	condition, flags := uint32(SYNC_GPU_COMMANDS_COMPLETE), uint32(0)
	args := []unsafe.Pointer{unsafe.Pointer(&condition), unsafe.Pointer(&flags)}
	return callRetPtr(&cifPtr2UU, c.glFenceSync, args)
}

// ClientWaitSync blocks up to timeoutNanos for sync to signal, returning
// true if it signalled before the timeout elapsed.
func (c *Context) ClientWaitSync(sync uintptr, timeoutNanos uint64) bool {
	if c.glClientWaitSync == nil || sync == 0 {
		return true
	}
	flags := uint32(SYNC_FLUSH_COMMANDS_BIT)
	args := []unsafe.Pointer{unsafe.Pointer(&sync), unsafe.Pointer(&flags), unsafe.Pointer(&timeoutNanos)}
	res := callRetU32(&cifUInt3Wait, c.glClientWaitSync, args)
	return res == ALREADY_SIGNALED || res == CONDITION_SATISFIED
}

func (c *Context) DeleteSync(sync uintptr) {
	if c.glDeleteSync == nil || sync == 0 {
		return
	}
	args := []unsafe.Pointer{unsafe.Pointer(&sync)}
	_ = ffi.CallFunction(&cifVoid1Ptr, c.glDeleteSync, nil, args)
}

// --- helpers ---

func call1(cif *types.CallInterface, fn unsafe.Pointer, a uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&a)}
	_ = ffi.CallFunction(cif, fn, nil, args)
}
func call3(cif *types.CallInterface, fn unsafe.Pointer, a, b, d uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&a), unsafe.Pointer(&b), unsafe.Pointer(&d)}
	_ = ffi.CallFunction(cif, fn, nil, args)
}
func call4(cif *types.CallInterface, fn unsafe.Pointer, a, b, d, e uint32) {
	args := []unsafe.Pointer{unsafe.Pointer(&a), unsafe.Pointer(&b), unsafe.Pointer(&d), unsafe.Pointer(&e)}
	_ = ffi.CallFunction(cif, fn, nil, args)
}
func u32(v int32) uint32 { return uint32(v) }
func boolU32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func genNames(fn unsafe.Pointer, n int) []uint32 {
	out := make([]uint32, n)
	if n == 0 {
		return out
	}
	count := uint32(n)
	args := []unsafe.Pointer{unsafe.Pointer(&count), unsafe.Pointer(&out[0])}
	_ = ffi.CallFunction(&cifVoid2, fn, nil, args)
	return out
}

func deleteNames(fn unsafe.Pointer, ids []uint32) {
	if len(ids) == 0 {
		return
	}
	count := uint32(len(ids))
	args := []unsafe.Pointer{unsafe.Pointer(&count), unsafe.Pointer(&ids[0])}
	_ = ffi.CallFunction(&cifVoid2, fn, nil, args)
}

func cString(s string) (unsafe.Pointer, func()) {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return unsafe.Pointer(&buf[0]), func() {}
}

func goString(ptr uintptr) string {
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
