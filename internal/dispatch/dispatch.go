// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

// Package dispatch is the name→function-pointer resolver the host looks
// up once at init and then calls by address (§4.G, §6 "Entry-point
// lookup"). Wrapped entry points apply the state-tracker gate before
// forwarding, directly or through the batcher; unintercepted names fall
// through to the platform's native proc-address lookup so extensions
// still resolve.
package dispatch

import "unsafe"

// PlatformResolver is the fallback proc-address lookup for names this
// table does not intercept. Backed by eglplat.GetProcAddr.
type PlatformResolver func(name string) unsafe.Pointer

// Table is the entry-point map populated once at init.
type Table struct {
	entries  map[string]unsafe.Pointer
	platform PlatformResolver
}

// New creates an empty table backed by the given platform fallback.
func New(platform PlatformResolver) *Table {
	return &Table{entries: make(map[string]unsafe.Pointer), platform: platform}
}

// Register installs the wrapped entry point for name. Called once per
// intercepted GL function at init.
func (t *Table) Register(name string, fn unsafe.Pointer) {
	t.entries[name] = fn
}

// Resolve implements get_proc_address(name) -> pointer (§6): a direct
// map lookup, falling through to the platform's native proc-address
// lookup on miss so unintercepted extension entry points still resolve.
func (t *Table) Resolve(name string) unsafe.Pointer {
	if fn, found := t.entries[name]; found {
		return fn
	}
	if t.platform != nil {
		return t.platform(name)
	}
	return nil
}

// ResolverAliases are names that must resolve to the table's own
// Resolve function rather than through a lookup within it: the
// platform's legacy desktop alias, its SGI-style ARB alias (§6 "Two
// aliases forward to the same resolver"), and a third OSMesa-style
// alias (§9's open question — "a third ecosystem expects to load the
// library", contract otherwise undocumented, so this is resolved
// identically and best-effort). The root package's GetProcAddress
// checks this list before consulting Resolve.
func ResolverAliases() []string {
	return []string{"glXGetProcAddress", "glXGetProcAddressARB", "OSMesaGetProcAddress"}
}
