// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import (
	"regexp"
	"strings"

	"github.com/velocitygl/velocitygl/internal/glapi"
)

// versionDirectivePattern matches a host's leading desktop-GLSL
// #version line, with or without a core/compatibility profile keyword.
var versionDirectivePattern = regexp.MustCompile(`(?m)^\s*#version\s+\d+(\s+\w+)?\s*$`)

var (
	attributeQualifierPattern = regexp.MustCompile(`\battribute\b`)
	varyingQualifierPattern   = regexp.MustCompile(`\bvarying\b`)
	texture2DPattern          = regexp.MustCompile(`\btexture(2D|2DProj|Cube)\b`)
)

// legacySamplerReplacement maps a texture2DPattern match to its ES 3
// built-in: texture2DProj keeps its projective divide as textureProj.
func legacySamplerReplacement(name string) string {
	if name == "texture2DProj" {
		return "textureProj"
	}
	return "texture"
}

// substituteGLSL rewrites a desktop-GLSL source for the ES 3.00
// compiler this library actually drives (§1 Non-goals: "does not
// perform GLSL source rewriting beyond prefix/precision/symbol
// substitution"):
//
//   - prefix: the #version line is replaced with "#version 300 es",
//     the only directive an ES 3.0 compiler accepts.
//   - symbol: the pre-ES3 attribute/varying storage qualifiers and
//     the legacy texture2D/texture2DProj/textureCube sampling
//     functions are rewritten to their ES 3 equivalents (in/out,
//     overloaded texture(), textureProj()) in both stages.
//   - precision: a default float precision is injected into fragment
//     shaders that don't declare one, since ES requires it and
//     desktop GLSL never does.
//
// Anything else — uniform blocks, layout qualifiers, control flow — is
// passed through unmodified; a shader relying on desktop-only GLSL
// features beyond this substitution is out of scope.
func substituteGLSL(source string, stage uint32) string {
	out := source
	if versionDirectivePattern.MatchString(out) {
		out = versionDirectivePattern.ReplaceAllString(out, "#version 300 es")
	} else {
		out = "#version 300 es\n" + out
	}

	out = texture2DPattern.ReplaceAllStringFunc(out, legacySamplerReplacement)

	switch stage {
	case glapi.VERTEX_SHADER:
		out = attributeQualifierPattern.ReplaceAllString(out, "in")
		out = varyingQualifierPattern.ReplaceAllString(out, "out")
	case glapi.FRAGMENT_SHADER:
		out = varyingQualifierPattern.ReplaceAllString(out, "in")
		if !strings.Contains(out, "precision ") {
			out = insertAfterFirstLine(out, "precision mediump float;")
		}
	}
	return out
}

func insertAfterFirstLine(source, line string) string {
	idx := strings.IndexByte(source, '\n')
	if idx < 0 {
		return source + "\n" + line + "\n"
	}
	return source[:idx+1] + line + "\n" + source[idx+1:]
}
