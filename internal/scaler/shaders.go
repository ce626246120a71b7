// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package scaler

// Fullscreen-quad vertex shader shared by both upscale programs (§4.F
// "The fullscreen-quad VAO/VBO is created once and shared by both
// programs"). Two triangles covering clip space, UVs derived from
// position.
const quadVertexSource = `#version 300 es
layout(location = 0) in vec2 aPos;
out vec2 vUV;
void main() {
    vUV = aPos * 0.5 + 0.5;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
`

// bilinearFragmentSource is the plain single-fetch upscale pass.
const bilinearFragmentSource = `#version 300 es
precision mediump float;
in vec2 vUV;
out vec4 fragColor;
uniform sampler2D uColor;
void main() {
    fragColor = texture(uColor, vUV);
}
`

// casFragmentSource is a luma-based 3x3 contrast-adaptive sharpening
// pass (§4.F "CAS-lite"). uSharpen is the sharpening amount in [0,1].
const casFragmentSource = `#version 300 es
precision mediump float;
in vec2 vUV;
out vec4 fragColor;
uniform sampler2D uColor;
uniform vec2 uTexelSize;
uniform float uSharpen;

float luma(vec3 c) { return dot(c, vec3(0.299, 0.587, 0.114)); }

void main() {
    vec3 center = texture(uColor, vUV).rgb;
    vec3 left   = texture(uColor, vUV - vec2(uTexelSize.x, 0.0)).rgb;
    vec3 right  = texture(uColor, vUV + vec2(uTexelSize.x, 0.0)).rgb;
    vec3 up     = texture(uColor, vUV - vec2(0.0, uTexelSize.y)).rgb;
    vec3 down   = texture(uColor, vUV + vec2(0.0, uTexelSize.y)).rgb;

    float lC = luma(center);
    float lMin = min(lC, min(min(luma(left), luma(right)), min(luma(up), luma(down))));
    float lMax = max(lC, max(max(luma(left), luma(right)), max(luma(up), luma(down))));
    float contrast = lMax - lMin;
    float sharpenWeight = uSharpen * clamp(1.0 - contrast * 4.0, 0.0, 1.0);

    vec3 blur = (left + right + up + down) * 0.25;
    vec3 sharpened = center + (center - blur) * sharpenWeight;
    fragColor = vec4(clamp(sharpened, 0.0, 1.0), 1.0);
}
`

// QuadVertices are the two-triangle fullscreen quad's positions, in
// clip space, for the backend's VAO/VBO setup.
var QuadVertices = [12]float32{
	-1, -1, 1, -1, -1, 1,
	-1, 1, 1, -1, 1, 1,
}

// ShaderSources exposes the three GLSL sources a Backend compiles once
// at init.
type ShaderSources struct {
	Vertex, Bilinear, CAS string
}

// Sources returns the shader source triple the scaler's backend must
// compile at construction time.
func Sources() ShaderSources {
	return ShaderSources{Vertex: quadVertexSource, Bilinear: bilinearFragmentSource, CAS: casFragmentSource}
}
