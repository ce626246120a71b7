// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package rt

import "errors"

// Sentinel errors shared by every VelocityGL subsystem (§7).
var (
	// ErrNotInitialized names an operation attempted before Init or
	// InitDefault has completed successfully. The public functions report
	// that case by logging and returning their neutral value; nothing in
	// the module returns this error value.
	ErrNotInitialized = errors.New("velocitygl: not initialized")

	// ErrNoCurrentContext names a draw or state call that arrives with no
	// context current. The root package logs this error's text and the
	// call returns its neutral value; it is not returned to the caller.
	ErrNoCurrentContext = errors.New("velocitygl: no current context")

	// ErrResourceExhausted indicates the buffer pool, streaming ring, or
	// shader cache could not satisfy a request within its configured
	// budget. The caller should trim memory and retry rather than abort.
	ErrResourceExhausted = errors.New("velocitygl: resource exhausted")

	// ErrFenceTimeout indicates a streaming-ring region fence did not
	// signal within its bounded wait. The streaming ring logs a warning
	// and reclaims the region anyway; nothing in the module returns this
	// error value.
	ErrFenceTimeout = errors.New("velocitygl: fence wait timed out")

	// ErrCacheCorrupt indicates the on-disk shader binary cache could not
	// be used: it failed to open or lock, its header, vendor or driver did
	// not match, or a read came up short (there is no checksum). None of
	// the file's entries are loaded, and the next Flush overwrites it.
	ErrCacheCorrupt = errors.New("velocitygl: shader cache corrupt")

	// ErrFramebufferIncomplete indicates the dynamic-resolution scaler's
	// off-screen target failed glCheckFramebufferStatus after
	// (re)allocation.
	ErrFramebufferIncomplete = errors.New("velocitygl: framebuffer incomplete")
)
