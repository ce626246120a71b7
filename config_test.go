// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.validate() {
		t.Fatalf("DefaultConfig() must validate")
	}
}

func TestValidateRejectsInvertedScaleBand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinScale, cfg.MaxScale = 0.9, 0.5
	if cfg.validate() {
		t.Fatalf("expected validate to reject MinScale > MaxScale")
	}
}

func TestValidateRejectsZeroTargetFPS(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetFPS = 0
	if cfg.validate() {
		t.Fatalf("expected validate to reject zero TargetFPS")
	}
}

func TestValidateRejectsNegativePoolSizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferPoolMB = -1
	if cfg.validate() {
		t.Fatalf("expected validate to reject negative BufferPoolMB")
	}
}

func TestForceCompatibilityModeRoundTripsInert(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ForceCompatibilityMode = true
	if !cfg.validate() {
		t.Fatalf("ForceCompatibilityMode must not affect validation (§9: reserved, unwired)")
	}
}
