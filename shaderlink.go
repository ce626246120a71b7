// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import (
	"strings"
	"unsafe"

	"github.com/velocitygl/velocitygl/internal/glapi"
)

// recordShaderType remembers the stage a shader name was created with
// (glCreateShader), so a later glShaderSource/glLinkProgram can tell
// vertex from fragment source without re-querying the driver.
func (c *Context) recordShaderType(shader, typ uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shaderTypes == nil {
		c.shaderTypes = make(map[uint32]uint32)
	}
	c.shaderTypes[shader] = typ
}

// recordShaderSource substitutes the host's desktop-GLSL source for the
// ES compiler (§1 Non-goals) and stashes the result so glLinkProgram can
// recover the (vertex, fragment) pair for the shader cache's key.
func (c *Context) recordShaderSource(shader uint32, source string) string {
	c.mu.Lock()
	typ := c.shaderTypes[shader]
	c.mu.Unlock()

	substituted := substituteGLSL(source, typ)

	c.mu.Lock()
	if c.shaderSources == nil {
		c.shaderSources = make(map[uint32]string)
	}
	c.shaderSources[shader] = substituted
	c.mu.Unlock()
	return substituted
}

// recordAttachShader remembers that shader is attached to program, for
// shaderPairFor to walk at link time.
func (c *Context) recordAttachShader(program, shader uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programShaders == nil {
		c.programShaders = make(map[uint32][]uint32)
	}
	c.programShaders[program] = append(c.programShaders[program], shader)
}

func (c *Context) forgetShader(shader uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.shaderTypes, shader)
	delete(c.shaderSources, shader)
}

func (c *Context) forgetProgram(program uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.programShaders, program)
}

// shaderPairFor returns the substituted vertex/fragment source attached
// to program, if both stages are attached and their source text was
// captured via glShaderSource.
func (c *Context) shaderPairFor(program uint32) (vert, frag string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var haveVert, haveFrag bool
	for _, shader := range c.programShaders[program] {
		src, known := c.shaderSources[shader]
		if !known {
			continue
		}
		switch c.shaderTypes[shader] {
		case glapi.VERTEX_SHADER:
			vert, haveVert = src, true
		case glapi.FRAGMENT_SHADER:
			frag, haveFrag = src, true
		}
	}
	return vert, frag, haveVert && haveFrag
}

// linkProgram backs the glLinkProgram interceptor: it consults the
// shader binary cache before asking the driver to link from source
// (spec.md §2 "shader-link calls consult the binary cache", SPEC_FULL.md
// §4.D "Lookup contract"). A host program whose shaders' sources aren't
// both known (e.g. attached via a call this library doesn't intercept)
// just links normally and never touches the cache.
func (c *Context) linkProgram(program uint32) {
	vert, frag, ok := c.shaderPairFor(program)
	if !ok {
		c.gl.LinkProgram(program)
		return
	}

	if format, binary, hit := c.shaderCache.Lookup(vert, frag); hit {
		if c.gl.ProgramBinary(program, format, binary) && linkSucceeded(c.gl, program) {
			return
		}
		// The cached binary didn't verify on this driver (e.g. a driver
		// update invalidated it) — degrade to a real link from source
		// and let the fresh binary replace the stale entry below.
		c.shaderCache.EvictStale(vert, frag)
	}

	c.gl.LinkProgram(program)
	if linkSucceeded(c.gl, program) {
		c.shaderCache.Store(vert, frag, program)
	}
}

func linkSucceeded(gl *glapi.Context, program uint32) bool {
	var status int32
	gl.GetProgramiv(program, glapi.LINK_STATUS, &status)
	return status != glapi.FALSE
}

// readShaderSource reassembles glShaderSource's `count` C strings into a
// single Go string. lengths is optional (the ABI allows a null pointer,
// meaning every string is NUL-terminated); when present, a negative
// entry still means "NUL-terminated" per the GL spec.
func readShaderSource(count int32, strs, lengths uintptr) string {
	if strs == 0 || count <= 0 {
		return ""
	}
	ptrs := unsafe.Slice((*uintptr)(ptrFromUintptr(strs)), int(count))
	var lens []int32
	if lengths != 0 {
		lens = unsafe.Slice((*int32)(ptrFromUintptr(lengths)), int(count))
	}

	var b strings.Builder
	for i, p := range ptrs {
		if p == 0 {
			continue
		}
		if lens != nil && lens[i] >= 0 {
			b.Write(unsafe.Slice((*byte)(ptrFromUintptr(p)), int(lens[i])))
		} else {
			b.WriteString(cStringToGo(p))
		}
	}
	return b.String()
}
