// File: channel/registry.go
// Registry matches live channels against registered client drivers by exact
// name equality, driving probe/remove the way server/server.go drives its
// middleware chain over accepted connections — replaced here with
// driver probe/remove dispatch instead of HTTP middleware.
// License: Apache-2.0

package channel

import (
	"sync"

	"github.com/go-rpmsg/rpmsg/endpoint"
	"github.com/go-rpmsg/rpmsg/rpmsgerr"
)

// Driver is the client-facing capability record: { id_table (Name), probe,
// remove, callback }. Match is by exact string equality against the
// channel name.
type Driver struct {
	Name     string
	Probe    func(ch *Channel) error
	Remove   func(ch *Channel)
	Callback endpoint.Callback
}

// Registry owns the live channel set and the registered driver list for one
// transport.
type Registry struct {
	mu       sync.Mutex
	table    *endpoint.Table
	drivers  []*Driver
	channels map[uint64]*Channel
	bound    map[uint64]*Driver // channel index -> driver currently probed onto it
	nextIdx  uint64
}

// NewRegistry constructs an empty registry bound to table, the transport's
// shared endpoint table.
func NewRegistry(table *endpoint.Table) *Registry {
	return &Registry{
		table:    table,
		channels: make(map[uint64]*Channel),
		bound:    make(map[uint64]*Driver),
	}
}

// RegisterDriver adds d to the registry and probes it against every
// currently unbound live channel whose name matches.
func (r *Registry) RegisterDriver(d *Driver) error {
	r.mu.Lock()
	r.drivers = append(r.drivers, d)
	var toProbe []*Channel
	for _, ch := range r.channels {
		if _, already := r.bound[ch.Index]; already {
			continue
		}
		if ch.Name == d.Name {
			toProbe = append(toProbe, ch)
		}
	}
	r.mu.Unlock()

	for _, ch := range toProbe {
		if err := r.bindDriver(d, ch); err != nil {
			return err
		}
	}
	return nil
}

// UnregisterDriver removes d and tears down every channel currently bound
// to it: the endpoint is destroyed, then d.Remove runs, per the detach
// ordering in the channel layer design.
func (r *Registry) UnregisterDriver(d *Driver) {
	r.mu.Lock()
	for i, existing := range r.drivers {
		if existing == d {
			r.drivers = append(r.drivers[:i], r.drivers[i+1:]...)
			break
		}
	}
	var bound []*Channel
	for idx, bd := range r.bound {
		if bd == d {
			bound = append(bound, r.channels[idx])
			delete(r.bound, idx)
		}
	}
	r.mu.Unlock()

	for _, ch := range bound {
		ch.destroy()
		d.Remove(ch)
	}
}

// CreateChannel allocates a channel record bound to (src, dst), assigns it
// a unique index, attaches it to the registry, and matches it against
// registered drivers by name. On a match the driver's endpoint is created
// (allocating src if wire.AddrAny) and Probe runs; the effective src is
// written back into the channel.
func (r *Registry) CreateChannel(name string, src, dst uint32) (*Channel, error) {
	r.mu.Lock()
	idx := r.nextIdx
	r.nextIdx++
	ch := newChannel(r.table, name, dst, idx)
	ch.Src = src
	r.channels[idx] = ch

	var match *Driver
	for _, d := range r.drivers {
		if d.Name == name {
			match = d
			break
		}
	}
	r.mu.Unlock()

	if match != nil {
		if err := r.bindDriver(match, ch); err != nil {
			return nil, err
		}
	}
	return ch, nil
}

// bindDriver creates ch's primary endpoint with d's callback, invokes
// d.Probe, and records the binding.
func (r *Registry) bindDriver(d *Driver, ch *Channel) error {
	ept, err := r.table.Create(ch.Src, d.Callback, nil, ch)
	if err != nil {
		return err
	}
	ch.bindEndpoint(ept)

	if err := d.Probe(ch); err != nil {
		r.table.Destroy(ept)
		ch.Ept = nil
		return err
	}

	r.mu.Lock()
	r.bound[ch.Index] = d
	r.mu.Unlock()
	return nil
}

// DestroyChannel tears down ch symmetrically: if a driver is bound, its
// endpoint is destroyed and Remove runs; the channel is then removed from
// the registry.
func (r *Registry) DestroyChannel(ch *Channel) {
	r.mu.Lock()
	d, bound := r.bound[ch.Index]
	delete(r.bound, ch.Index)
	delete(r.channels, ch.Index)
	r.mu.Unlock()

	ch.destroy()
	if bound {
		d.Remove(ch)
	}
}

// FindByNameAddr returns the live channel matching (name, addr) by dst
// address, as used by the name service's DESTROY handling.
func (r *Registry) FindByNameAddr(name string, addr uint32) (*Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.channels {
		if ch.Name == name && ch.Dst == addr {
			return ch, true
		}
	}
	return nil, false
}

// Channels returns a snapshot slice of all live channels, for teardown and
// debug dumps.
func (r *Registry) Channels() []*Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	return out
}

// ErrChannelNotFound is the not-found error for channels. No function in
// this package returns it; FindByNameAddr reports a miss through its bool
// result.
var ErrChannelNotFound = rpmsgerr.ErrNotFound.With("kind", "channel")
