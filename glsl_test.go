// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import (
	"strings"
	"testing"

	"github.com/velocitygl/velocitygl/internal/glapi"
)

func TestSubstituteGLSLRewritesVersionLine(t *testing.T) {
	out := substituteGLSL("#version 330 core\nvoid main() {}", glapi.VERTEX_SHADER)
	if !strings.HasPrefix(out, "#version 300 es\n") {
		t.Fatalf("expected rewritten version line, got %q", out)
	}
}

func TestSubstituteGLSLInsertsVersionWhenAbsent(t *testing.T) {
	out := substituteGLSL("void main() {}", glapi.FRAGMENT_SHADER)
	if !strings.HasPrefix(out, "#version 300 es\n") {
		t.Fatalf("expected version line to be inserted, got %q", out)
	}
}

func TestSubstituteGLSLRewritesVertexQualifiers(t *testing.T) {
	out := substituteGLSL("#version 120\nattribute vec3 pos;\nvarying vec2 uv;\nvoid main(){}", glapi.VERTEX_SHADER)
	if strings.Contains(out, "attribute") || strings.Contains(out, "varying") {
		t.Fatalf("expected legacy qualifiers rewritten, got %q", out)
	}
	if !strings.Contains(out, "in vec3 pos;") || !strings.Contains(out, "out vec2 uv;") {
		t.Fatalf("expected in/out qualifiers, got %q", out)
	}
}

func TestSubstituteGLSLRewritesFragmentSamplingAndPrecision(t *testing.T) {
	out := substituteGLSL("#version 120\nvarying vec2 uv;\nvoid main(){ gl_FragColor = texture2D(tex, uv); }", glapi.FRAGMENT_SHADER)
	if strings.Contains(out, "texture2D") {
		t.Fatalf("expected texture2D rewritten to texture(), got %q", out)
	}
	if !strings.Contains(out, "precision mediump float;") {
		t.Fatalf("expected a default precision to be injected, got %q", out)
	}
	if !strings.Contains(out, "in vec2 uv;") {
		t.Fatalf("expected fragment varying rewritten to in, got %q", out)
	}
}

func TestSubstituteGLSLLeavesExistingPrecisionAlone(t *testing.T) {
	src := "#version 300 es\nprecision highp float;\nvoid main(){}"
	out := substituteGLSL(src, glapi.FRAGMENT_SHADER)
	if strings.Count(out, "precision ") != 1 {
		t.Fatalf("expected existing precision qualifier to be left alone, got %q", out)
	}
}
