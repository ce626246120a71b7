// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

//go:build linux

package bufpool

import "golang.org/x/sys/unix"

// stagingMmap backs the non-persistent upload path: when a pool's
// device lacks GL_EXT_buffer_storage, Upload still needs a host-side
// staging buffer to hand BufferSubData a contiguous slice for large
// uploads assembled across multiple calls. An anonymous mmap avoids an
// extra GC-visible allocation for pools sized in the tens of megabytes.
type stagingMmap struct {
	data []byte
}

// newStagingMmap reserves size bytes of anonymous, read-write memory.
func newStagingMmap(size int) (*stagingMmap, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}
	return &stagingMmap{data: data}, nil
}

func (s *stagingMmap) Bytes() []byte { return s.data }

func (s *stagingMmap) Close() error {
	if s.data == nil {
		return nil
	}
	err := unix.Munmap(s.data)
	s.data = nil
	return err
}
