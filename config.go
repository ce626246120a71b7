// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import "github.com/velocitygl/velocitygl/internal/identity"

// Config is the host-facing configuration surface (§6 "Init surface").
// It embeds identity.TunableConfig — the fields a performance tier can
// project a default for — and widens it with settings the identity
// database has no opinion on. Exchanged with the host as JSON; reading
// it from a file is the out-of-scope config-reader's job (§1 Non-goals).
type Config struct {
	identity.TunableConfig

	BackendSelector  string `json:"backend_selector"`
	ShaderCachePath  string `json:"shader_cache_path"`
	DebugOutput      bool   `json:"debug_output"`
	ProfilingEnabled bool   `json:"profiling_enabled"`

	// ForceCompatibilityMode is parsed and stored but never read by any
	// subsystem (§9 open question: "no wiring in the inspected source;
	// behaviour is undefined — treat as reserved").
	ForceCompatibilityMode bool `json:"force_compatibility_mode"`
}

// DefaultConfig returns a conservative, device-agnostic default (tier 2)
// suitable for InitDefault before any GPU identity is known. CreateContext
// refines QualityPreset-derived fields against the detected device's
// identity.RecommendedConfig once a context exists, unless the host
// already set QualityPreset to PresetCustom (§4.A "recommended_config
// projection").
func DefaultConfig() Config {
	return Config{
		TunableConfig: identity.Identity{Tier: 2}.RecommendedConfig(),
	}
}

// validate rejects nonsensical values without consulting a live device.
// No device-dependent check is made, here or in CreateContext (nothing
// is compared against GL_MAX_TEXTURE_SIZE, for example).
func (c Config) validate() bool {
	if c.MinScale <= 0 || c.MaxScale <= 0 || c.MinScale > c.MaxScale {
		return false
	}
	if c.TargetFPS <= 0 {
		return false
	}
	if c.MaxBatchSize <= 0 || c.TexturePoolMB < 0 || c.BufferPoolMB < 0 {
		return false
	}
	return true
}
