// File: channel/channel.go
// Package channel implements named logical connections bound to (src, dst)
// address pairs, each owning one primary endpoint, plus the registry that
// matches channels to client drivers by name.
//
// Grounded on server/types.go's Config field-comment density and naming
// style, and internal/session/session.go's sync.Once-guarded lifecycle
// fields (reused here for Channel's single-destroy guarantee).
// License: Apache-2.0

package channel

import (
	"sync"

	"github.com/go-rpmsg/rpmsg/endpoint"
	"github.com/go-rpmsg/rpmsg/wire"
)

// Channel is a named, client-visible connection. A channel typically owns
// exactly one endpoint (Ept); the endpoint API remains directly reachable
// through the owning transport so clients may open ancillary endpoints for
// sub-protocols.
type Channel struct {
	Name  string
	Src   uint32
	Dst   uint32
	Index uint64

	Ept *endpoint.Endpoint

	table       *endpoint.Table
	destroyOnce sync.Once
}

// newChannel constructs a channel bound to the given table with Dst set and
// Src set to wire.AddrAny; bindEndpoint records the effective Src once an
// endpoint is assigned.
func newChannel(table *endpoint.Table, name string, dst uint32, index uint64) *Channel {
	return &Channel{
		Name:  name,
		Dst:   dst,
		Src:   wire.AddrAny,
		Index: index,
		table: table,
	}
}

// bindEndpoint attaches ept to the channel and records the effective src.
func (c *Channel) bindEndpoint(ept *endpoint.Endpoint) {
	c.Ept = ept
	c.Src = ept.Addr
}

// destroy tears down the channel's primary endpoint exactly once.
func (c *Channel) destroy() {
	c.destroyOnce.Do(func() {
		if c.Ept != nil {
			c.table.Destroy(c.Ept)
			c.Ept = nil
		}
	})
}
