// File: wire/nameservice.go
// License: Apache-2.0
//
// NSMessage is the packed { name[32], addr u32, flags u32 } announcement
// the remote side's name service sends to create or destroy channels.

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// NSMessage is the decoded form of a name-service wire message.
type NSMessage struct {
	Name  string
	Addr  uint32
	Flags uint32
}

// IsDestroy reports whether this message is a DESTROY announcement.
func (m NSMessage) IsDestroy() bool {
	return m.Flags&NSFlagDestroy != 0
}

// IsUp reports whether this message is a bring-up announcement (§4.7)
// rather than a CREATE/DESTROY for a named channel.
func (m NSMessage) IsUp() bool {
	return m.Flags&NSFlagUp != 0
}

// DecodeNSMessage parses a name-service message, truncating and
// NUL-terminating an over-length or mis-terminated name field at 31 bytes
// since the remote is not trusted to terminate it. Any length mismatch is
// reported as an error — callers must log and drop, never stall.
func DecodeNSMessage(raw []byte) (NSMessage, error) {
	if len(raw) != NameServiceMsgLen {
		return NSMessage{}, fmt.Errorf("wire: name-service message length mismatch: got %d, want %d", len(raw), NameServiceMsgLen)
	}
	nameField := raw[0:NameServiceNameLen]
	addr := binary.LittleEndian.Uint32(raw[NameServiceNameLen : NameServiceNameLen+4])
	flags := binary.LittleEndian.Uint32(raw[NameServiceNameLen+4 : NameServiceNameLen+8])

	name := sanitizeName(nameField)
	return NSMessage{Name: name, Addr: addr, Flags: flags}, nil
}

// EncodeNSMessage serializes a name-service message for transmission.
func EncodeNSMessage(name string, addr, flags uint32) ([]byte, error) {
	if len(name) > NameServiceNameLen-1 {
		return nil, fmt.Errorf("wire: channel name %q exceeds %d bytes", name, NameServiceNameLen-1)
	}
	buf := make([]byte, NameServiceMsgLen)
	copy(buf[0:NameServiceNameLen], name)
	binary.LittleEndian.PutUint32(buf[NameServiceNameLen:NameServiceNameLen+4], addr)
	binary.LittleEndian.PutUint32(buf[NameServiceNameLen+4:NameServiceNameLen+8], flags)
	return buf, nil
}

// sanitizeName truncates at the first NUL or at 31 bytes, whichever comes
// first, guaranteeing a NUL-terminable result regardless of what the
// remote actually sent.
func sanitizeName(field []byte) string {
	max := NameServiceNameLen - 1
	if max > len(field) {
		max = len(field)
	}
	trimmed := field[:max]
	if idx := bytes.IndexByte(trimmed, 0); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return string(trimmed)
}
