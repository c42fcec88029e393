//go:build windows
// +build windows

// File: shm/region_windows.go
// Windows allocation path for the buffer-pool region via VirtualAlloc,
// mirroring the teacher's pool/bufferpool_windows.go NUMA allocator shape
// (minus the NUMA node argument, not applicable to a single shared region).
// License: Apache-2.0

package shm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

func allocRegion(size int) ([]byte, func() error, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, fmt.Errorf("VirtualAlloc: %w", err)
	}
	mem := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	closer := func() error {
		return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
	}
	return mem, closer, nil
}
