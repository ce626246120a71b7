// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

//go:build linux || darwin

package shadercache

import "golang.org/x/sys/unix"

// lockFile takes an exclusive advisory lock on f's underlying fd so that
// two processes sharing a cache directory (e.g. a dev loop racing a
// previous run) don't interleave Load and Flush on the same file.
// Best-effort: unix.Flock only excludes other unix.Flock callers, not an
// unrelated reader opening the path directly.
func lockFile(f lockable) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockFile(f lockable) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
