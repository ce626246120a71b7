// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import (
	"regexp"
	"strconv"
	"strings"
)

// esVersion holds the OpenGL ES major/minor pair parsed from the
// device's raw GL_VERSION string (e.g. "OpenGL ES 3.2 ...").
type esVersion struct{ major, minor int }

var esVersionPattern = regexp.MustCompile(`OpenGL ES (\d)\.(\d+)`)

func parseESVersion(raw string) esVersion {
	m := esVersionPattern.FindStringSubmatch(raw)
	if m == nil {
		return esVersion{major: 3, minor: 0}
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return esVersion{major: major, minor: minor}
}

// masqueradeVersion implements the version-masquerade rule SPEC_FULL.md
// resolves §9's "reports versions inconsistently" open question with:
// ES 3.2 -> "4.6", ES 3.1 -> "4.3", else "3.3". Decision recorded in
// DESIGN.md rather than left to report 4.5 in one place and 4.6 in
// another, the way the source this was distilled from did.
func masqueradeVersion(v esVersion) (major, minor int) {
	switch {
	case v.major > 3 || (v.major == 3 && v.minor >= 2):
		return 4, 6
	case v.major == 3 && v.minor == 1:
		return 4, 3
	default:
		return 3, 3
	}
}

// versionString renders get_string(VERSION)'s masqueraded form (§6
// "Version masquerade").
func versionString(v esVersion) string {
	major, minor := masqueradeVersion(v)
	return strconv.Itoa(major) + "." + strconv.Itoa(minor) + " VelocityGL"
}

// rendererString renders get_string(RENDERER)'s masqueraded form,
// wrapping the device's real renderer string.
func rendererString(deviceRenderer string) string {
	return "VelocityGL (" + strings.TrimSpace(deviceRenderer) + ")"
}
