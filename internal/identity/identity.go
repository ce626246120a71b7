// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

// Package identity classifies the GPU a context is running on (vendor,
// generation, model, performance tier, feature bitset) and projects that
// classification into recommended tunables for the other subsystems.
//
// All decisions here are pure functions of the identity record fixed at
// construction; nothing in this package issues a GL call after [Detect]
// returns.
package identity

import (
	"regexp"
	"strconv"
	"strings"
)

// Vendor enumerates the GPU vendors the database recognizes.
type Vendor int

const (
	VendorUnknown Vendor = iota
	VendorAdreno
	VendorMali
	VendorPowerVR
	VendorXclipse
	VendorNvidia
	VendorIntel
)

func (v Vendor) String() string {
	switch v {
	case VendorAdreno:
		return "adreno"
	case VendorMali:
		return "mali"
	case VendorPowerVR:
		return "powervr"
	case VendorXclipse:
		return "xclipse"
	case VendorNvidia:
		return "nvidia"
	case VendorIntel:
		return "intel"
	default:
		return "unknown"
	}
}

// Features is a bitset of device capabilities affecting which code paths
// the other subsystems take.
type Features uint32

const (
	FeatureCompute Features = 1 << iota
	FeatureGeometry
	FeatureTessellation
	FeatureAnisotropic
	FeatureProgramBinary
	FeatureASTC
	FeatureFramebufferFetch
	FeaturePersistentMapping
)

func (f Features) Has(bit Features) bool { return f&bit != 0 }

// Identity is the immutable record fixed at context creation (§3 "Device
// identity"). It never changes for the lifetime of the context that
// produced it.
type Identity struct {
	Vendor           Vendor
	Generation       int
	Model            int
	Tier             int // 1-5, 1 lowest
	Features         Features
	MaxAnisotropy    float32
	VendorHash       uint32
	DriverHash       uint32
	rendererString   string
	versionString    string
}

// CacheKey combines the vendor hash and driver-version hash into the
// 64-bit key the shader binary cache uses to bind entries to this GPU.
func (id Identity) CacheKey() uint64 {
	return uint64(id.VendorHash)<<32 | uint64(id.DriverHash)
}

var modelDigits = regexp.MustCompile(`[0-9]+`)

// Detect classifies a device from the strings and extension list an
// OpenGL ES context reports at make-current. vendor/renderer/version are
// the raw GL_VENDOR/GL_RENDERER/GL_VERSION strings; extensions holds the
// individual extension names (the caller splits the space-separated
// GL_EXTENSIONS string).
func Detect(vendor, renderer, version string, extensions []string) Identity {
	combined := strings.ToLower(vendor + " " + renderer)
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[e] = true
	}

	v := classifyVendor(combined)
	model := extractModel(renderer)
	gen := classifyGeneration(v, model, extSet)
	tier := classifyTier(v, model)

	id := Identity{
		Vendor:         v,
		Generation:     gen,
		Model:          model,
		Tier:           tier,
		Features:       detectFeatures(extSet),
		VendorHash:     fnv32(vendor),
		DriverHash:     fnv32(version),
		rendererString: renderer,
		versionString:  version,
	}
	if id.Features.Has(FeatureAnisotropic) {
		id.MaxAnisotropy = 16 // conservative default; caller may refine via GetFloatv
	}
	return id
}

// classifyVendor applies the documented first-match-wins substring order
// (§4.A): qualcomm/adreno, arm/mali, imagination/powervr, samsung/xclipse,
// nvidia, intel, else unknown.
func classifyVendor(combined string) Vendor {
	switch {
	case strings.Contains(combined, "qualcomm") || strings.Contains(combined, "adreno"):
		return VendorAdreno
	case strings.Contains(combined, "arm") || strings.Contains(combined, "mali"):
		return VendorMali
	case strings.Contains(combined, "imagination") || strings.Contains(combined, "powervr"):
		return VendorPowerVR
	case strings.Contains(combined, "samsung") || strings.Contains(combined, "xclipse"):
		return VendorXclipse
	case strings.Contains(combined, "nvidia"):
		return VendorNvidia
	case strings.Contains(combined, "intel"):
		return VendorIntel
	default:
		return VendorUnknown
	}
}

// extractModel pulls the first decimal-digit run out of the renderer
// string, e.g. "Adreno (TM) 740" -> 740.
func extractModel(renderer string) int {
	m := modelDigits.FindString(renderer)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// classifyGeneration maps (vendor, model, extensions) to a per-vendor
// generation number. Unknown vendors and unmapped models fall back to 0.
func classifyGeneration(v Vendor, model int, ext map[string]bool) int {
	switch v {
	case VendorAdreno:
		switch {
		case model >= 730:
			return 4
		case model >= 640:
			return 3
		case model >= 530:
			return 2
		default:
			return 1
		}
	case VendorMali:
		switch {
		case model >= 710:
			return 4
		case model >= 600:
			return 3
		default:
			return 1
		}
	case VendorPowerVR:
		if ext["GL_IMG_multisampled_render_to_texture"] {
			return 2
		}
		return 1
	default:
		return 0
	}
}

// classifyTier is the (vendor, model) -> performance-tier lookup table
// (§4.A), driving the default config §4.A projects.
func classifyTier(v Vendor, model int) int {
	switch v {
	case VendorAdreno:
		switch {
		case model >= 730:
			return 5
		case model >= 640:
			return 4
		case model >= 530:
			return 3
		case model >= 400:
			return 2
		default:
			return 1
		}
	case VendorMali:
		switch {
		case model >= 710:
			return 4
		case model >= 600:
			return 3
		case model >= 400:
			return 2
		default:
			return 1
		}
	case VendorXclipse, VendorNvidia:
		return 4
	case VendorPowerVR:
		return 2
	case VendorIntel:
		return 2
	default:
		return 2
	}
}

func detectFeatures(ext map[string]bool) Features {
	var f Features
	if ext["GL_EXT_texture_filter_anisotropic"] || ext["GL_ARB_texture_filter_anisotropic"] {
		f |= FeatureAnisotropic
	}
	if ext["GL_ARB_get_program_binary"] || ext["GL_OES_get_program_binary"] {
		f |= FeatureProgramBinary
	}
	if ext["GL_KHR_texture_compression_astc_ldr"] {
		f |= FeatureASTC
	}
	if ext["GL_EXT_shader_framebuffer_fetch"] || ext["GL_ARM_shader_framebuffer_fetch"] {
		f |= FeatureFramebufferFetch
	}
	if ext["GL_EXT_buffer_storage"] {
		f |= FeaturePersistentMapping
	}
	if ext["GL_ANDROID_extension_pack_es31a"] {
		f |= FeatureCompute | FeatureGeometry | FeatureTessellation
	}
	return f
}

func fnv32(s string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

// DumpCaps renders the identity as a single human-readable line of
// space-separated key=value fields,
// useful for bug reports attached by a host application.
func (id Identity) DumpCaps() string {
	var b strings.Builder
	b.WriteString("vendor=" + id.Vendor.String())
	b.WriteString(" generation=" + strconv.Itoa(id.Generation))
	b.WriteString(" model=" + strconv.Itoa(id.Model))
	b.WriteString(" tier=" + strconv.Itoa(id.Tier))
	b.WriteString(" renderer=\"" + id.rendererString + "\"")
	b.WriteString(" version=\"" + id.versionString + "\"")
	b.WriteString(" features=[")
	featureNames := []struct {
		bit  Features
		name string
	}{
		{FeatureCompute, "compute"},
		{FeatureGeometry, "geometry"},
		{FeatureTessellation, "tessellation"},
		{FeatureAnisotropic, "anisotropic"},
		{FeatureProgramBinary, "program-binary"},
		{FeatureASTC, "astc"},
		{FeatureFramebufferFetch, "framebuffer-fetch"},
		{FeaturePersistentMapping, "persistent-mapping"},
	}
	first := true
	for _, fn := range featureNames {
		if id.Features.Has(fn.bit) {
			if !first {
				b.WriteString(",")
			}
			b.WriteString(fn.name)
			first = false
		}
	}
	b.WriteString("]")
	return b.String()
}
