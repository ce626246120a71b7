// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package dispatch

import (
	"testing"
	"unsafe"
)

func TestResolveHitsRegisteredEntry(t *testing.T) {
	var x int
	fn := unsafe.Pointer(&x)
	tbl := New(nil)
	tbl.Register("glDrawArrays", fn)

	if got := tbl.Resolve("glDrawArrays"); got != fn {
		t.Fatalf("resolved pointer mismatch")
	}
}

func TestResolveFallsThroughToPlatform(t *testing.T) {
	var seen string
	var y int
	platformPtr := unsafe.Pointer(&y)
	tbl := New(func(name string) unsafe.Pointer {
		seen = name
		return platformPtr
	})

	got := tbl.Resolve("glSomeVendorExtension")
	if got != platformPtr {
		t.Fatalf("expected platform fallback pointer")
	}
	if seen != "glSomeVendorExtension" {
		t.Fatalf("platform resolver received wrong name: %q", seen)
	}
}

func TestResolverAliasesListed(t *testing.T) {
	aliases := ResolverAliases()
	want := map[string]bool{"glXGetProcAddress": true, "glXGetProcAddressARB": true, "OSMesaGetProcAddress": true}
	if len(aliases) != len(want) {
		t.Fatalf("alias count = %d, want %d", len(aliases), len(want))
	}
	for _, a := range aliases {
		if !want[a] {
			t.Fatalf("unexpected alias %q", a)
		}
	}
}
