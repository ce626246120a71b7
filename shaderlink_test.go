// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import (
	"testing"
	"unsafe"

	"github.com/velocitygl/velocitygl/internal/glapi"
)

func TestShaderPairForRequiresBothStages(t *testing.T) {
	c := &Context{}
	c.recordShaderType(1, glapi.VERTEX_SHADER)
	c.recordShaderSource(1, "#version 330\nvoid main(){}")
	c.recordAttachShader(10, 1)

	if _, _, ok := c.shaderPairFor(10); ok {
		t.Fatalf("expected no pair with only a vertex shader attached")
	}

	c.recordShaderType(2, glapi.FRAGMENT_SHADER)
	c.recordShaderSource(2, "#version 330\nvoid main(){}")
	c.recordAttachShader(10, 2)

	vert, frag, ok := c.shaderPairFor(10)
	if !ok || vert == "" || frag == "" {
		t.Fatalf("expected a complete pair once both stages are attached, got ok=%v vert=%q frag=%q", ok, vert, frag)
	}
}

func TestForgetShaderClearsShaderPairFor(t *testing.T) {
	c := &Context{}
	c.recordShaderType(1, glapi.VERTEX_SHADER)
	c.recordShaderSource(1, "x")
	c.recordShaderType(2, glapi.FRAGMENT_SHADER)
	c.recordShaderSource(2, "y")
	c.recordAttachShader(10, 1)
	c.recordAttachShader(10, 2)

	c.forgetShader(1)

	if _, _, ok := c.shaderPairFor(10); ok {
		t.Fatalf("expected pair to break once a shader is forgotten")
	}
}

func TestForgetProgramClearsAttachments(t *testing.T) {
	c := &Context{}
	c.recordShaderType(1, glapi.VERTEX_SHADER)
	c.recordShaderSource(1, "x")
	c.recordShaderType(2, glapi.FRAGMENT_SHADER)
	c.recordShaderSource(2, "y")
	c.recordAttachShader(10, 1)
	c.recordAttachShader(10, 2)

	c.forgetProgram(10)

	if _, _, ok := c.shaderPairFor(10); ok {
		t.Fatalf("expected no pair for a forgotten program")
	}
}

func TestReadShaderSourceConcatenatesNulTerminatedStrings(t *testing.T) {
	s0 := append([]byte("#version 330\n"), 0)
	s1 := append([]byte("void main(){}"), 0)
	ptrs := []uintptr{
		uintptr(unsafe.Pointer(&s0[0])),
		uintptr(unsafe.Pointer(&s1[0])),
	}
	got := readShaderSource(2, uintptr(unsafe.Pointer(&ptrs[0])), 0)
	want := "#version 330\nvoid main(){}"
	if got != want {
		t.Fatalf("readShaderSource = %q, want %q", got, want)
	}
}

func TestReadShaderSourceHandlesExplicitLengths(t *testing.T) {
	buf := []byte("abcdefXXXX")
	ptrs := []uintptr{uintptr(unsafe.Pointer(&buf[0]))}
	lens := []int32{6}
	got := readShaderSource(1, uintptr(unsafe.Pointer(&ptrs[0])), uintptr(unsafe.Pointer(&lens[0])))
	if got != "abcdef" {
		t.Fatalf("readShaderSource with explicit length = %q, want %q", got, "abcdef")
	}
}

func TestReadShaderSourceEmptyOnNilPointer(t *testing.T) {
	if got := readShaderSource(0, 0, 0); got != "" {
		t.Fatalf("expected empty string for zero count, got %q", got)
	}
}
