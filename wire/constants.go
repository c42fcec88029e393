// File: wire/constants.go
// Package wire implements the wire-exact datagram header and name-service
// message formats shared between the host driver and the remote processor.
// License: Apache-2.0

package wire

// AddrAny is the sentinel "any address" — never valid on the wire in a
// sent message's src or dst field.
const AddrAny uint32 = 0xFFFFFFFF

// ReservedAddrLimit is the exclusive upper bound of the reserved address
// range; addresses below it are reserved for well-known services and are
// never handed out by the dynamic allocator.
const ReservedAddrLimit uint32 = 1024

// NameServiceAddr is the well-known endpoint address the remote side's
// name service announces and revokes channels against.
const NameServiceAddr uint32 = 53

// HeaderLen is the fixed byte length of a datagram header.
const HeaderLen = 16

// NameServiceNameLen is the fixed width of the NUL-padded name field in a
// name-service wire message.
const NameServiceNameLen = 32

// NameServiceMsgLen is the total byte length of a name-service message:
// 32-byte name + u32 addr + u32 flags.
const NameServiceMsgLen = NameServiceNameLen + 4 + 4

// NSFlagDestroy marks a name-service message as a DESTROY announcement;
// its absence means CREATE.
const NSFlagDestroy uint32 = 1 << 0

// NSFlagUp marks a name-service message as the one-time bring-up
// announcement a freshly attached transport sends so the remote side
// knows to (re-)announce its own channels (§4.7). Name and Addr are
// unused on an UP message.
const NSFlagUp uint32 = 1 << 1
