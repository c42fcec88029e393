// File: endpoint/table.go
// Package endpoint implements the per-transport address table that
// demultiplexes incoming datagrams: a sparse map from 32-bit local address
// to an endpoint record, with a reserved low range for well-known services
// and a dynamic allocator above it.
//
// Grounded on internal/session/store.go's map+mutex CRUD pattern, simplified
// from the teacher's sharded-by-hash design to the single-mutex design the
// transport's concurrency model requires (one short-held lock per
// transport, held only around insert/lookup/remove).
// License: Apache-2.0

package endpoint

import (
	"sync"

	"github.com/go-rpmsg/rpmsg/pool"
	"github.com/go-rpmsg/rpmsg/rpmsgerr"
	"github.com/go-rpmsg/rpmsg/wire"
)

// Callback is invoked on the receive dispatch context for every datagram
// addressed to this endpoint. owner is the endpoint's channel (or nil for
// ancillary endpoints opened without one); priv is the opaque token
// supplied at creation; srcAddr is the sending peer's address.
type Callback func(owner any, payload []byte, priv any, srcAddr uint32)

// Endpoint is one bound local address.
type Endpoint struct {
	Addr  uint32
	Cb    Callback
	Priv  any
	Owner any // typically the owning *channel.Channel

	destroyed bool
}

// Table is the address table for one transport. All mutations are
// serialized by a single mutex; callbacks are always invoked outside it.
type Table struct {
	mu       sync.Mutex
	entries  map[uint32]*Endpoint
	eptPool  *pool.SyncPool[*Endpoint]
}

// NewTable constructs an empty endpoint table.
func NewTable() *Table {
	return &Table{
		entries: make(map[uint32]*Endpoint),
		eptPool: pool.NewSyncPool(func() *Endpoint { return &Endpoint{} }),
	}
}

// Create inserts a new endpoint. If addr is wire.AddrAny, the lowest free
// address >= wire.ReservedAddrLimit is allocated. Otherwise addr is used
// exactly — including a reserved-range address, since an explicit request
// there is always honored if free — and CodeAddressInUse is returned if
// it is already taken.
func (t *Table) Create(addr uint32, cb Callback, priv any, owner any) (*Endpoint, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if addr == wire.AddrAny {
		assigned, ok := t.lowestFreeLocked(wire.ReservedAddrLimit)
		if !ok {
			return nil, rpmsgerr.ErrOutOfMemory.With("reason", "address space exhausted")
		}
		addr = assigned
	} else if _, taken := t.entries[addr]; taken {
		return nil, rpmsgerr.ErrAddressInUse.With("addr", addr)
	}

	ept := t.eptPool.Get()
	ept.Addr = addr
	ept.Cb = cb
	ept.Priv = priv
	ept.Owner = owner
	ept.destroyed = false
	t.entries[addr] = ept
	return ept, nil
}

// lowestFreeLocked finds the lowest unused address >= floor. Callers must
// hold t.mu.
func (t *Table) lowestFreeLocked(floor uint32) (uint32, bool) {
	for addr := floor; addr < wire.AddrAny; addr++ {
		if _, taken := t.entries[addr]; !taken {
			return addr, true
		}
	}
	return 0, false
}

// Destroy removes ept from the table. Idempotent: destroying an
// already-destroyed endpoint is a no-op.
func (t *Table) Destroy(ept *Endpoint) {
	t.mu.Lock()
	if ept.destroyed {
		t.mu.Unlock()
		return
	}
	delete(t.entries, ept.Addr)
	ept.destroyed = true
	t.mu.Unlock()

	t.eptPool.Put(ept)
}

// Lookup returns the endpoint bound to addr, if any.
func (t *Table) Lookup(addr uint32) (*Endpoint, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ept, ok := t.entries[addr]
	return ept, ok
}

// Len returns the number of live endpoints, for metrics/debug dumps.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Range calls fn for every live endpoint's address. fn must not mutate the
// table.
func (t *Table) Range(fn func(addr uint32)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for addr := range t.entries {
		fn(addr)
	}
}
