// Copyright 2025 The VelocityGL Authors
// SPDX-License-Identifier: MIT

package shadercache

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/velocitygl/velocitygl/internal/rt"
)

const (
	diskMagic   uint32 = 0x56454C53 // 'VELS'
	diskVersion uint32 = 1
	diskFile           = "shader_cache.bin"
)

// lockable is the subset of *os.File that lockFile/unlockFile need; Load
// and Flush each hold the lock for the duration of their own read or
// write so a concurrent Flush from another process can't interleave
// with this one's.
type lockable interface {
	Fd() uintptr
}

// diskHeader is §6's "Shader cache on disk" header, little-endian.
type diskHeader struct {
	Magic             uint32
	Version           uint32
	VendorHash        uint32
	DriverVersionHash uint32
	Timestamp         uint64
	EntryCount        uint32
	Reserved          uint32
}

// diskRecord is one fixed-size entry record following the header.
type diskRecord struct {
	SourceHash         uint64
	BinaryFormat       uint32
	BinarySize         uint32
	DataOffset         uint32
	IsProgram          uint8
	ShaderTypesBitmask uint8
	Padding            uint16
}

// Load opens dir/shader_cache.bin and populates the cache if the header
// matches this device (§4.D "Persistence"). A header/vendor mismatch or
// any read error logs a warning, leaves the file's entries unloaded and
// returns [rt.ErrCacheCorrupt] so the caller can log it; Load never blocks
// startup on a missing or unusable file.
func (c *Cache) Load(dir string) error {
	path := filepath.Join(dir, diskFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return rt.ErrCacheCorrupt
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		c.warn("shadercache: lock failed: " + err.Error())
		return rt.ErrCacheCorrupt
	}
	defer unlockFile(f)

	r := bufio.NewReader(f)
	var hdr diskHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		c.warn("shadercache: truncated header, discarding disk cache")
		return rt.ErrCacheCorrupt
	}
	if hdr.Magic != diskMagic || hdr.Version != diskVersion {
		c.warn("shadercache: magic/version mismatch, discarding disk cache")
		return rt.ErrCacheCorrupt
	}
	if hdr.VendorHash != c.vendorHash || hdr.DriverVersionHash != c.driverHash {
		c.warn("shadercache: vendor/driver hash mismatch, discarding disk cache")
		return rt.ErrCacheCorrupt
	}

	records := make([]diskRecord, hdr.EntryCount)
	for i := range records {
		if err := binary.Read(r, binary.LittleEndian, &records[i]); err != nil {
			c.warn("shadercache: truncated entry records, discarding disk cache")
			return rt.ErrCacheCorrupt
		}
	}

	blobs := make([][]byte, len(records))
	for i, rec := range records {
		blob := make([]byte, rec.BinarySize)
		if _, err := io.ReadFull(r, blob); err != nil {
			c.warn("shadercache: truncated blob data, discarding disk cache")
			return rt.ErrCacheCorrupt
		}
		blobs[i] = blob
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, rec := range records {
		c.clock++
		e := &entry{
			key:      Key(rec.SourceHash),
			format:   rec.BinaryFormat,
			binary:   blobs[i],
			lastUsed: c.clock,
		}
		e.listElem = c.lru.PushFront(e)
		c.byKey[e.key] = e
		c.bytes += int64(e.size())
	}
	return nil
}

// Flush writes the header, then every fixed-size entry record, then the
// blobs in the same order (§4.D "Persistence"). Write failures are
// logged, never raised — disk persistence is always best-effort.
func (c *Cache) Flush(dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.warn("shadercache: mkdir failed: " + err.Error())
		return
	}
	path := filepath.Join(dir, diskFile)
	f, err := os.Create(path)
	if err != nil {
		c.warn("shadercache: create failed: " + err.Error())
		return
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		c.warn("shadercache: lock failed: " + err.Error())
		return
	}
	defer unlockFile(f)

	c.mu.Lock()
	entries := make([]*entry, 0, len(c.byKey))
	for _, e := range c.byKey {
		entries = append(entries, e)
	}
	vendorHash, driverHash := c.vendorHash, c.driverHash
	c.mu.Unlock()

	hdr := diskHeader{
		Magic:             diskMagic,
		Version:           diskVersion,
		VendorHash:        vendorHash,
		DriverVersionHash: driverHash,
		Timestamp:         uint64(time.Now().Unix()),
		EntryCount:        uint32(len(entries)),
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		c.warn("shadercache: header write failed: " + err.Error())
		return
	}

	offset := uint32(0)
	records := make([]diskRecord, len(entries))
	for i, e := range entries {
		records[i] = diskRecord{
			SourceHash:   uint64(e.key),
			BinaryFormat: e.format,
			BinarySize:   uint32(e.size()),
			DataOffset:   offset,
			IsProgram:    1,
		}
		offset += uint32(e.size())
	}
	for i := range records {
		if err := binary.Write(w, binary.LittleEndian, &records[i]); err != nil {
			c.warn("shadercache: record write failed: " + err.Error())
			return
		}
	}
	for _, e := range entries {
		if _, err := w.Write(e.binary); err != nil {
			c.warn("shadercache: blob write failed: " + err.Error())
			return
		}
	}
	if err := w.Flush(); err != nil {
		c.warn("shadercache: flush failed: " + err.Error())
	}
}
