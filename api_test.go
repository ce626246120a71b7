// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package velocitygl

import (
	"testing"
	"unsafe"
)

func TestIsResolverAlias(t *testing.T) {
	for _, name := range []string{"glXGetProcAddress", "glXGetProcAddressARB", "OSMesaGetProcAddress"} {
		if !isResolverAlias(name) {
			t.Fatalf("%q should be recognized as a resolver alias", name)
		}
	}
	if isResolverAlias("glDrawArrays") {
		t.Fatalf("glDrawArrays must not be treated as a resolver alias")
	}
}

func TestCStringToGoRoundTrip(t *testing.T) {
	buf := append([]byte("glDrawArrays"), 0)
	s := cStringToGo(uintptr(unsafe.Pointer(&buf[0])))
	if s != "glDrawArrays" {
		t.Fatalf("cStringToGo = %q, want %q", s, "glDrawArrays")
	}
}

func TestCStringToGoHandlesNil(t *testing.T) {
	if got := cStringToGo(0); got != "" {
		t.Fatalf("cStringToGo(0) = %q, want empty string", got)
	}
}
