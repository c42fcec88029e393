// File: shm/region.go
// Package shm implements the shared buffer-pool region: a single contiguous
// allocation of N*S bytes split into a receive half (lower) and a send half
// (upper), each holding N/2 fixed-size buffer slots.
//
// Grounded on the teacher's core/buffer/bufferpool*.go platform-split
// allocator, rewritten around the spec's fixed single-region model instead
// of NUMA size-class slabs.
// License: Apache-2.0

package shm

import "fmt"

// Region owns the backing memory for one transport's buffer pool.
type Region struct {
	mem      []byte
	bufNum   int // N, total buffer count across both halves
	bufSize  int // S, per-buffer size in bytes
	simBase  uint64
	closer   func() error
}

// NewRegion allocates a region of bufNum buffers of bufSize bytes each.
// bufNum must be even and bufSize must be large enough to hold the 16-byte
// datagram header plus at least one payload byte.
func NewRegion(bufNum, bufSize int, simBase uint64) (*Region, error) {
	if bufNum <= 0 || bufNum%2 != 0 {
		return nil, fmt.Errorf("shm: buffer count %d must be positive and even", bufNum)
	}
	if bufSize < 17 {
		return nil, fmt.Errorf("shm: buffer size %d must be at least 17 bytes", bufSize)
	}
	mem, closer, err := allocRegion(bufNum * bufSize)
	if err != nil {
		return nil, fmt.Errorf("shm: allocate region: %w", err)
	}
	return &Region{
		mem:     mem,
		bufNum:  bufNum,
		bufSize: bufSize,
		simBase: simBase,
		closer:  closer,
	}, nil
}

// BufNum returns N, the total buffer count (both halves).
func (r *Region) BufNum() int { return r.bufNum }

// BufSize returns S, the per-buffer size in bytes.
func (r *Region) BufSize() int { return r.bufSize }

// HalfCount returns N/2, the number of buffers in each half.
func (r *Region) HalfCount() int { return r.bufNum / 2 }

// RecvBuffer returns the i'th buffer in the lower (receive) half,
// i in [0, HalfCount()).
func (r *Region) RecvBuffer(i int) []byte {
	return r.slot(i)
}

// SendBuffer returns the i'th buffer in the upper (send) half,
// i in [0, HalfCount()).
func (r *Region) SendBuffer(i int) []byte {
	return r.slot(r.HalfCount() + i)
}

func (r *Region) slot(globalIndex int) []byte {
	off := globalIndex * r.bufSize
	return r.mem[off : off+r.bufSize]
}

// DeviceAddr translates a buffer's offset in the region into the address
// form the queue descriptors expect, by adding the configured simulated
// base. globalIndex is relative to the whole region (both halves), the
// same indexing slot uses.
func (r *Region) DeviceAddr(globalIndex int) uint64 {
	return r.simBase + uint64(globalIndex*r.bufSize)
}

// RecvBufferAddr returns the device-view address of the i'th receive
// buffer, the form carried on the doorbell at enqueue/dequeue points
// instead of the local slot index.
func (r *Region) RecvBufferAddr(i int) uint64 {
	return r.DeviceAddr(i)
}

// SendBufferAddr returns the device-view address of the i'th send
// buffer, the send-half counterpart of RecvBufferAddr.
func (r *Region) SendBufferAddr(i int) uint64 {
	return r.DeviceAddr(r.HalfCount() + i)
}

// Close releases the backing memory.
func (r *Region) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
