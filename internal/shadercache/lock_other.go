// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

//go:build !linux && !darwin

package shadercache

// lockFile is a no-op on platforms without an advisory-locking syscall
// wired up here (e.g. Windows); disk persistence stays best-effort.
func lockFile(f lockable) error { return nil }

func unlockFile(f lockable) error { return nil }
