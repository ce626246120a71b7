// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import (
	"time"
	"unsafe"

	"github.com/velocitygl/velocitygl/internal/batch"
	"github.com/velocitygl/velocitygl/internal/glapi"
	"github.com/velocitygl/velocitygl/internal/scaler"
	"github.com/velocitygl/velocitygl/internal/statetrack"
)

// maxProgramBinaryBytes caps the buffer RetrieveBinary asks the driver
// to fill; program binaries for the library's target shader complexity
// comfortably fit inside this.
const maxProgramBinaryBytes = 1 << 20

// glBufferBackend adapts glapi.Context to bufpool.Backend for one
// buffer target (ARRAY_BUFFER, ELEMENT_ARRAY_BUFFER, ...).
type glBufferBackend struct {
	ctx            *glapi.Context
	target         uint32
	persistentHint bool
}

func (b *glBufferBackend) CreateBuffer(target, usage uint32, size int) (id uint32, persistentPtr []byte, ok bool) {
	ids := b.ctx.GenBuffers(1)
	if len(ids) == 0 || ids[0] == 0 {
		return 0, nil, false
	}
	id = ids[0]
	b.ctx.BindBuffer(target, id)

	if b.persistentHint && b.ctx.HasBufferStorage() {
		flags := uint32(glapi.MAP_WRITE_BIT | glapi.MAP_PERSISTENT_BIT | glapi.MAP_COHERENT_BIT)
		b.ctx.BufferStorage(target, uintptr(size), nil, flags)
		ptr := b.ctx.MapBufferRange(target, 0, uintptr(size), flags)
		if ptr != nil {
			return id, unsafe.Slice((*byte)(ptr), size), true
		}
		// Fall through to the dynamic-draw path (§4.C "Persistent mapping"
		// fallback) — storage was requested but the map failed.
	}
	b.ctx.BufferData(target, uintptr(size), nil, usage)
	return id, nil, true
}

func (b *glBufferBackend) DeleteBuffer(id uint32) { b.ctx.DeleteBuffers([]uint32{id}) }

func (b *glBufferBackend) BufferSubData(id uint32, offset int, data []byte) {
	b.ctx.BindBuffer(b.target, id)
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	b.ctx.BufferSubData(b.target, uintptr(offset), uintptr(len(data)), ptr)
}

func (b *glBufferBackend) FlushMappedRange(id uint32, offset, size int) {
	b.ctx.BindBuffer(b.target, id)
	b.ctx.FlushMappedBufferRange(b.target, uintptr(offset), uintptr(size))
}

// glFence adapts glapi.Context's sync objects to bufpool.Fence.
type glFence struct{ ctx *glapi.Context }

func (f *glFence) Insert() any { return f.ctx.FenceSync() }

func (f *glFence) Wait(fence any, timeout time.Duration) bool {
	sync, _ := fence.(uintptr)
	if sync == 0 {
		return true
	}
	signalled := f.ctx.ClientWaitSync(sync, uint64(timeout.Nanoseconds()))
	f.ctx.DeleteSync(sync)
	return signalled
}

// glShaderBackend adapts glapi.Context to shadercache.Backend.
type glShaderBackend struct{ ctx *glapi.Context }

func (s *glShaderBackend) LinkFromBinary(format uint32, binary []byte) (program uint32, ok bool) {
	if !s.ctx.HasProgramBinary() || len(binary) == 0 {
		return 0, false
	}
	program = s.ctx.CreateProgram()
	if !s.ctx.ProgramBinary(program, format, binary) {
		s.ctx.DeleteProgram(program)
		return 0, false
	}
	return program, true
}

func (s *glShaderBackend) RetrieveBinary(program uint32) (format uint32, binary []byte, ok bool) {
	return s.ctx.GetProgramBinary(program, maxProgramBinaryBytes)
}

func (s *glShaderBackend) DeleteProgram(program uint32) { s.ctx.DeleteProgram(program) }

// glBatchBackend adapts glapi.Context to batch.MultiDrawBackend, routing
// state application through the shared Tracker so batch-triggered binds
// still participate in the redundant-call filter (§4.E "state is applied
// once: program, vertex array, texture unit 0").
type glBatchBackend struct {
	ctx     *glapi.Context
	tracker *statetrack.Tracker
}

func (b *glBatchBackend) ApplyState(key batch.Key) {
	if b.tracker.UseProgram(key.Program) {
		b.ctx.UseProgram(key.Program)
	}
	if b.tracker.BindVertexArray(key.VertexArray) {
		b.ctx.BindVertexArray(key.VertexArray)
	}
	if b.tracker.ActiveTexture(0) {
		b.ctx.ActiveTexture(0x84C0 /*GL_TEXTURE0*/)
	}
	if b.tracker.BindTexture(glapi.TEXTURE_2D, key.Texture0) {
		b.ctx.BindTexture(glapi.TEXTURE_2D, key.Texture0)
	}
}

func (b *glBatchBackend) DrawArrays(mode uint32, first, count int32) {
	b.ctx.DrawArrays(mode, first, count)
}

func (b *glBatchBackend) DrawElements(mode uint32, count int32, indexType uint32, offset uintptr) {
	b.ctx.DrawElements(mode, count, indexType, offset)
}

func (b *glBatchBackend) MultiDrawArrays(mode uint32, firsts, counts []int32) bool {
	return b.ctx.MultiDrawArrays(mode, firsts, counts)
}

func (b *glBatchBackend) MultiDrawElements(mode uint32, counts []int32, indexType uint32, offsets []uintptr) bool {
	return b.ctx.MultiDrawElements(mode, counts, indexType, offsets)
}

// glScalerBackend adapts glapi.Context to scaler.Backend, compiling the
// two upscale programs and the shared fullscreen-quad VAO/VBO once.
type glScalerBackend struct {
	ctx *glapi.Context

	vao, vbo       uint32
	bilinearProg   uint32
	casProg        uint32
	uColorBilinear int32
	uColorCAS      int32
	uTexelSize     int32
	uSharpen       int32

	renderW, renderH int32
}

func newGLScalerBackend(ctx *glapi.Context) (*glScalerBackend, error) {
	srcs := scaler.Sources()
	b := &glScalerBackend{ctx: ctx}

	var err error
	if b.bilinearProg, err = compileProgram(ctx, srcs.Vertex, srcs.Bilinear); err != nil {
		return nil, err
	}
	if b.casProg, err = compileProgram(ctx, srcs.Vertex, srcs.CAS); err != nil {
		return nil, err
	}
	b.uColorBilinear = ctx.GetUniformLocation(b.bilinearProg, "uColor")
	b.uColorCAS = ctx.GetUniformLocation(b.casProg, "uColor")
	b.uTexelSize = ctx.GetUniformLocation(b.casProg, "uTexelSize")
	b.uSharpen = ctx.GetUniformLocation(b.casProg, "uSharpen")

	vaos := ctx.GenVertexArrays(1)
	b.vao = vaos[0]
	vbos := ctx.GenBuffers(1)
	b.vbo = vbos[0]
	ctx.BindVertexArray(b.vao)
	ctx.BindBuffer(glapi.ARRAY_BUFFER, b.vbo)
	quad := scaler.QuadVertices
	ctx.BufferData(glapi.ARRAY_BUFFER, uintptr(len(quad)*4), unsafe.Pointer(&quad[0]), glapi.STATIC_DRAW)
	ctx.EnableVertexAttribArray(0)
	ctx.VertexAttribPointer(0, 2, glapi.FLOAT, false, 0, 0)

	return b, nil
}

func (b *glScalerBackend) CreateTarget(w, h int32) (fbo, colorTex, depthTex uint32, complete bool) {
	texs := b.ctx.GenTextures(2)
	colorTex, depthTex = texs[0], texs[1]

	b.ctx.BindTexture(glapi.TEXTURE_2D, colorTex)
	b.ctx.TexImage2D(glapi.TEXTURE_2D, 0, glapi.RGBA8, w, h, 0, glapi.RGBA, glapi.UNSIGNED_BYTE, nil)
	b.ctx.TexParameteri(glapi.TEXTURE_2D, glapi.TEXTURE_MIN_FILTER, glapi.LINEAR)
	b.ctx.TexParameteri(glapi.TEXTURE_2D, glapi.TEXTURE_MAG_FILTER, glapi.LINEAR)
	b.ctx.TexParameteri(glapi.TEXTURE_2D, glapi.TEXTURE_WRAP_S, glapi.CLAMP_TO_EDGE)
	b.ctx.TexParameteri(glapi.TEXTURE_2D, glapi.TEXTURE_WRAP_T, glapi.CLAMP_TO_EDGE)

	b.ctx.BindTexture(glapi.TEXTURE_2D, depthTex)
	b.ctx.TexImage2D(glapi.TEXTURE_2D, 0, glapi.DEPTH24_STENCIL8, w, h, 0, glapi.DEPTH_STENCIL, glapi.UNSIGNED_INT, nil)

	fbos := b.ctx.GenFramebuffers(1)
	fbo = fbos[0]
	b.ctx.BindFramebuffer(glapi.FRAMEBUFFER, fbo)
	b.ctx.FramebufferTexture2D(glapi.FRAMEBUFFER, glapi.COLOR_ATTACHMENT0, glapi.TEXTURE_2D, colorTex, 0)
	b.ctx.FramebufferTexture2D(glapi.FRAMEBUFFER, glapi.DEPTH_STENCIL_ATTACHMENT, glapi.TEXTURE_2D, depthTex, 0)

	status := b.ctx.CheckFramebufferStatus(glapi.FRAMEBUFFER)
	b.renderW, b.renderH = w, h
	return fbo, colorTex, depthTex, status == glapi.FRAMEBUFFER_COMPLETE
}

func (b *glScalerBackend) DestroyTarget(fbo, colorTex, depthTex uint32) {
	b.ctx.DeleteFramebuffers([]uint32{fbo})
	b.ctx.DeleteTextures([]uint32{colorTex, depthTex})
}

func (b *glScalerBackend) BindFramebuffer(fbo uint32) { b.ctx.BindFramebuffer(glapi.FRAMEBUFFER, fbo) }
func (b *glScalerBackend) Viewport(x, y, w, h int32)  { b.ctx.Viewport(x, y, w, h) }
func (b *glScalerBackend) DisableDepthTest()           { b.ctx.Disable(glapi.DEPTH_TEST) }
func (b *glScalerBackend) EnableDepthTest()            { b.ctx.Enable(glapi.DEPTH_TEST) }
func (b *glScalerBackend) DisableBlend()               { b.ctx.Disable(glapi.BLEND) }

func (b *glScalerBackend) UpscaleDraw(colorTex uint32, sharpen bool, amount float32) {
	program := b.bilinearProg
	uColor := b.uColorBilinear
	if sharpen {
		program = b.casProg
		uColor = b.uColorCAS
	}
	b.ctx.UseProgram(program)
	b.ctx.ActiveTexture(0x84C0 /*GL_TEXTURE0*/)
	b.ctx.BindTexture(glapi.TEXTURE_2D, colorTex)
	b.ctx.Uniform1i(uColor, 0)
	if sharpen {
		b.ctx.Uniform1f(b.uSharpen, amount)
		if b.renderW > 0 && b.renderH > 0 {
			b.ctx.Uniform2f(b.uTexelSize, 1.0/float32(b.renderW), 1.0/float32(b.renderH))
		}
	}
	b.ctx.BindVertexArray(b.vao)
	b.ctx.DrawArrays(glapi.TRIANGLES, 0, 6)
}

func compileProgram(ctx *glapi.Context, vertSrc, fragSrc string) (uint32, error) {
	vs := ctx.CreateShader(glapi.VERTEX_SHADER)
	ctx.ShaderSource(vs, vertSrc)
	ctx.CompileShader(vs)

	fs := ctx.CreateShader(glapi.FRAGMENT_SHADER)
	ctx.ShaderSource(fs, fragSrc)
	ctx.CompileShader(fs)

	program := ctx.CreateProgram()
	ctx.AttachShader(program, vs)
	ctx.AttachShader(program, fs)
	ctx.LinkProgram(program)
	ctx.DeleteShader(vs)
	ctx.DeleteShader(fs)

	var status int32
	ctx.GetProgramiv(program, glapi.LINK_STATUS, &status)
	if status == glapi.FALSE {
		return 0, &linkError{log: ctx.GetProgramInfoLog(program)}
	}
	return program, nil
}

type linkError struct{ log string }

func (e *linkError) Error() string { return "velocitygl: program link failed: " + e.log }
