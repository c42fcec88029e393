// File: wire/datagram.go
// Author: momentics-style packed codec, adapted for the rpmsg datagram header.
// License: Apache-2.0
//
// Datagram is the fixed 16-byte, little-endian, packed header that precedes
// every payload exchanged over a queue. Decoding enforces the same explicit
// length checks the teacher's frame codec uses for WebSocket frames.

package wire

import (
	"encoding/binary"
	"fmt"
)

// Datagram is the decoded form of one wire message: header fields plus the
// payload slice (which aliases the caller-provided buffer — no copy).
type Datagram struct {
	Len     uint16
	Flags   uint16
	Src     uint32
	Dst     uint32
	// Reserved must be zero; kept for round-trip fidelity, not otherwise used.
	Reserved uint32
	Payload  []byte
}

// EncodedLen returns the total wire length (header + payload) of d.
func (d *Datagram) EncodedLen() int {
	return HeaderLen + int(d.Len)
}

// Encode writes a header addressed from src to dstAddr, followed by payload,
// into dst, which must be at least HeaderLen+len(payload) bytes. Returns the
// number of bytes written.
func Encode(dst []byte, src, dstAddr uint32, payload []byte) (int, error) {
	total := HeaderLen + len(payload)
	if len(dst) < total {
		return 0, fmt.Errorf("wire: destination buffer too small: have %d, need %d", len(dst), total)
	}
	if len(payload) > 0xFFFF {
		return 0, fmt.Errorf("wire: payload length %d exceeds u16 range", len(payload))
	}
	binary.LittleEndian.PutUint16(dst[0:2], uint16(len(payload)))
	binary.LittleEndian.PutUint16(dst[2:4], 0) // flags reserved, zero on send
	binary.LittleEndian.PutUint32(dst[4:8], src)
	binary.LittleEndian.PutUint32(dst[8:12], dstAddr)
	binary.LittleEndian.PutUint32(dst[12:16], 0) // reserved must be zero
	copy(dst[HeaderLen:total], payload)
	return total, nil
}

// Decode parses a wire-format datagram out of raw. The returned Datagram's
// Payload aliases raw — callers that need to retain it past a buffer
// repost must copy.
func Decode(raw []byte) (*Datagram, error) {
	if len(raw) < HeaderLen {
		return nil, fmt.Errorf("wire: datagram too short: %d bytes, need at least %d", len(raw), HeaderLen)
	}
	length := binary.LittleEndian.Uint16(raw[0:2])
	flags := binary.LittleEndian.Uint16(raw[2:4])
	src := binary.LittleEndian.Uint32(raw[4:8])
	dst := binary.LittleEndian.Uint32(raw[8:12])
	reserved := binary.LittleEndian.Uint32(raw[12:16])

	end := HeaderLen + int(length)
	if len(raw) < end {
		return nil, fmt.Errorf("wire: payload truncated: header claims %d bytes, have %d", length, len(raw)-HeaderLen)
	}

	return &Datagram{
		Len:      length,
		Flags:    flags,
		Src:      src,
		Dst:      dst,
		Reserved: reserved,
		Payload:  raw[HeaderLen:end],
	}, nil
}
