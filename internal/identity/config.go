// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package identity

// QualityPreset is the closed enum §6 assigns to Config.QualityPreset.
type QualityPreset int

const (
	PresetUltraLow QualityPreset = iota
	PresetLow
	PresetMedium
	PresetHigh
	PresetUltra
	PresetCustom
)

// ShaderCacheMode is the closed enum §6 assigns to Config.ShaderCacheMode.
type ShaderCacheMode int

const (
	ShaderCacheDisabled ShaderCacheMode = iota
	ShaderCacheMemoryOnly
	ShaderCacheDisk
	ShaderCacheAggressive
)

// TunableConfig holds the subset of the public Config (defined at module
// root) that the identity database can derive a default for from a
// performance tier alone. The root package embeds this into its Config
// and widens it with fields identity can't predict (cache path, debug
// flags, backend selector).
type TunableConfig struct {
	QualityPreset          QualityPreset
	ShaderCacheMode        ShaderCacheMode
	ShaderCacheMaxBytes    uint64
	DynamicResolution      bool
	MinScale               float32
	MaxScale               float32
	TargetFPS              int
	DrawBatchingEnabled    bool
	InstancingEnabled      bool
	MaxBatchSize           int
	TexturePoolMB          int
	MaxTextureSize         int
	BufferPoolMB           int
	PersistentMapping      bool
	GPUSpecificTweaks      bool
}

// RecommendedConfig projects this identity's performance tier into a
// tunable default set (§4.A). Every subsystem that honors a Config field
// treats this as a starting point the host may override via
// UpdateConfig.
func (id Identity) RecommendedConfig() TunableConfig {
	cfg := TunableConfig{
		ShaderCacheMode:     ShaderCacheDisk,
		ShaderCacheMaxBytes: 64 << 20,
		DynamicResolution:   true,
		DrawBatchingEnabled: true,
		PersistentMapping:   id.Features.Has(FeaturePersistentMapping),
		GPUSpecificTweaks:   true,
	}

	switch id.Tier {
	case 5:
		cfg.QualityPreset = PresetUltra
		cfg.MinScale, cfg.MaxScale = 0.75, 1.0
		cfg.TargetFPS = 60
		cfg.InstancingEnabled = true
		cfg.MaxBatchSize = 512
		cfg.TexturePoolMB = 512
		cfg.MaxTextureSize = 4096
		cfg.BufferPoolMB = 128
	case 4:
		cfg.QualityPreset = PresetHigh
		cfg.MinScale, cfg.MaxScale = 0.6, 1.0
		cfg.TargetFPS = 60
		cfg.InstancingEnabled = true
		cfg.MaxBatchSize = 384
		cfg.TexturePoolMB = 384
		cfg.MaxTextureSize = 4096
		cfg.BufferPoolMB = 96
	case 3:
		cfg.QualityPreset = PresetMedium
		cfg.MinScale, cfg.MaxScale = 0.5, 0.9
		cfg.TargetFPS = 45
		cfg.InstancingEnabled = true
		cfg.MaxBatchSize = 256
		cfg.TexturePoolMB = 256
		cfg.MaxTextureSize = 2048
		cfg.BufferPoolMB = 64
	case 2:
		cfg.QualityPreset = PresetLow
		cfg.MinScale, cfg.MaxScale = 0.4, 0.8
		cfg.TargetFPS = 30
		cfg.InstancingEnabled = false
		cfg.MaxBatchSize = 128
		cfg.TexturePoolMB = 128
		cfg.MaxTextureSize = 2048
		cfg.BufferPoolMB = 32
	default:
		cfg.QualityPreset = PresetUltraLow
		cfg.MinScale, cfg.MaxScale = 0.3, 0.6
		cfg.TargetFPS = 30
		cfg.InstancingEnabled = false
		cfg.MaxBatchSize = 64
		cfg.TexturePoolMB = 64
		cfg.MaxTextureSize = 1024
		cfg.BufferPoolMB = 16
	}
	return cfg
}
