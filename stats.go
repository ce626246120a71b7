// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import (
	"github.com/velocitygl/velocitygl/internal/batch"
	"github.com/velocitygl/velocitygl/internal/shadercache"
	"github.com/velocitygl/velocitygl/internal/statetrack"
)

// Stats aggregates every subsystem's live counters behind get_stats()
// (§6 "Queries", §4.B/§4.D/§4.E's respective "Statistics" sections).
type Stats struct {
	StateChangesAvoided uint64 `json:"state_changes_avoided"`
	StateChangesApplied uint64 `json:"state_changes_applied"`

	DrawCallsSubmitted uint64 `json:"draw_calls_submitted"`
	DrawCallsExecuted  uint64 `json:"draw_calls_executed"`
	DrawCallsSaved     uint64 `json:"draw_calls_saved"`
	BatchesCreated     uint64 `json:"batches_created"`

	ShaderCacheHits    uint64 `json:"shader_cache_hits"`
	ShaderCacheMisses  uint64 `json:"shader_cache_misses"`
	ShaderCacheEntries int    `json:"shader_cache_entries"`
	ShaderCacheBytes   int64  `json:"shader_cache_bytes"`

	ResolutionScale float32 `json:"resolution_scale"`
	ScaleChanges    uint64  `json:"scale_changes"`

	// BatchKindBreakdown is a supplement beyond §4.E's four required
	// counters (SPEC_FULL.md "Supplemented from the domain").
	BatchKindBreakdown [4]struct {
		Submitted uint64 `json:"submitted"`
		Executed  uint64 `json:"executed"`
	} `json:"batch_kind_breakdown"`
}

func collectStats(st *statetrack.Tracker, bt *batch.Batcher, sc *shadercache.Cache, scale float32, scaleChanges uint64) Stats {
	sc_ := st.Counters()
	bs := bt.Stats()
	cs := sc.Stats()
	s := Stats{
		StateChangesAvoided: sc_.Avoided,
		StateChangesApplied: sc_.Changed,
		DrawCallsSubmitted:  bs.Submitted,
		DrawCallsExecuted:   bs.Executed,
		DrawCallsSaved:      bs.Saved,
		BatchesCreated:      bs.BatchesCreated,
		ShaderCacheHits:     cs.Hits,
		ShaderCacheMisses:   cs.Misses,
		ShaderCacheEntries:  cs.Entries,
		ShaderCacheBytes:    cs.Bytes,
		ResolutionScale:     scale,
		ScaleChanges:        scaleChanges,
	}
	for i, k := range bs.ByKind {
		s.BatchKindBreakdown[i].Submitted = k.Submitted
		s.BatchKindBreakdown[i].Executed = k.Executed
	}
	return s
}

// Caps reports the detected device's identity for get_gpu_caps() (§6).
type Caps struct {
	Vendor        string  `json:"vendor"`
	Generation    int     `json:"generation"`
	Model         int     `json:"model"`
	Tier          int     `json:"tier"`
	MaxAnisotropy float32 `json:"max_anisotropy"`
	HasCompute    bool    `json:"has_compute"`
	HasGeometry   bool    `json:"has_geometry"`
	HasASTC       bool    `json:"has_astc"`
	Dump          string  `json:"dump"`
}
