// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import "testing"

func TestMasqueradeVersionRule(t *testing.T) {
	cases := []struct {
		in         esVersion
		wantMajor  int
		wantMinor  int
	}{
		{esVersion{3, 2}, 4, 6},
		{esVersion{3, 1}, 4, 3},
		{esVersion{3, 0}, 3, 3},
		{esVersion{2, 0}, 3, 3},
	}
	for _, c := range cases {
		major, minor := masqueradeVersion(c.in)
		if major != c.wantMajor || minor != c.wantMinor {
			t.Fatalf("masqueradeVersion(%+v) = %d.%d, want %d.%d", c.in, major, minor, c.wantMajor, c.wantMinor)
		}
	}
}

func TestParseESVersionFromRawString(t *testing.T) {
	v := parseESVersion("OpenGL ES 3.2 v1.r38p1-01eac0.efcf9b8e7a0b9e8e9c9e")
	if v.major != 3 || v.minor != 2 {
		t.Fatalf("parsed %+v, want {3 2}", v)
	}
}

func TestParseESVersionFallsBackOnUnrecognizedString(t *testing.T) {
	v := parseESVersion("garbage string with no version")
	if v.major != 3 || v.minor != 0 {
		t.Fatalf("parsed %+v, want fallback {3 0}", v)
	}
}

func TestVersionStringEmbedsMasqueradedNumbers(t *testing.T) {
	got := versionString(esVersion{3, 2})
	if got != "4.6 VelocityGL" {
		t.Fatalf("versionString = %q, want %q", got, "4.6 VelocityGL")
	}
}

func TestRendererStringWrapsDeviceRenderer(t *testing.T) {
	got := rendererString("  Adreno (TM) 730  ")
	if got != "VelocityGL (Adreno (TM) 730)" {
		t.Fatalf("rendererString = %q", got)
	}
}
