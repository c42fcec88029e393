// File: nameservice/nameservice.go
// Package nameservice implements the well-known name-service endpoint
// (address wire.NameServiceAddr) that announces and withdraws local
// channels to the remote processor, and reacts to the remote's own
// CREATE/DESTROY announcements by creating or tearing down local channels.
//
// Grounded on the channel registry's Create/Destroy lifecycle and
// wire/nameservice.go's packed CREATE/DESTROY message; the endpoint
// callback shape follows endpoint/table.go's Callback contract the same
// way every other channel driver callback does.
// License: Apache-2.0
package nameservice

import (
	"github.com/go-rpmsg/rpmsg/channel"
	"github.com/go-rpmsg/rpmsg/control"
	"github.com/go-rpmsg/rpmsg/endpoint"
	"github.com/go-rpmsg/rpmsg/wire"
)

// SendFunc transmits a raw payload from src to dst over the owning
// transport's send path. The name service is given one by the transport
// at Attach time so this package never depends on transport directly.
type SendFunc func(src, dst uint32, payload []byte) error

// Service is the local name-service endpoint for one transport.
type Service struct {
	registry *channel.Registry
	table    *endpoint.Table
	send     SendFunc
	ept      *endpoint.Endpoint
	log      control.Logger
}

// Attach creates the name-service endpoint on table and binds it to
// registry, returning a Service ready to Announce/Withdraw local channels
// and to react to remote announcements. A nil logger falls back to
// control.NopLogger.
func Attach(table *endpoint.Table, registry *channel.Registry, send SendFunc, logger control.Logger) (*Service, error) {
	if logger == nil {
		logger = control.NopLogger{}
	}
	s := &Service{registry: registry, table: table, send: send, log: logger}
	ept, err := table.Create(wire.NameServiceAddr, s.onMessage, nil, s)
	if err != nil {
		return nil, err
	}
	s.ept = ept

	if err := s.sendUp(); err != nil {
		s.log.Warnf("nameservice: bring-up announcement failed: %v", err)
	}
	return s, nil
}

// onMessage is the name-service endpoint's callback, invoked from the
// receive dispatch context for every datagram addressed to
// wire.NameServiceAddr.
func (s *Service) onMessage(owner any, payload []byte, priv any, srcAddr uint32) {
	msg, err := wire.DecodeNSMessage(payload)
	if err != nil {
		s.log.Warnf("nameservice: malformed message from addr %d: %v", srcAddr, err)
		return
	}

	if msg.IsUp() {
		s.reannounceAll()
		return
	}

	if msg.IsDestroy() {
		if ch, ok := s.registry.FindByNameAddr(msg.Name, msg.Addr); ok {
			s.registry.DestroyChannel(ch)
		}
		return
	}

	// The remote announced a service at msg.Addr; open a local channel
	// bound to it, allocating our side of the address pair dynamically.
	if _, err := s.registry.CreateChannel(msg.Name, wire.AddrAny, msg.Addr); err != nil {
		s.log.Warnf("nameservice: create channel %q for remote addr %d: %v", msg.Name, msg.Addr, err)
	}
}

// Announce tells the remote about a local channel it can now reach: name
// is the channel's registered name, addr is the local endpoint address the
// remote should use as its destination.
func (s *Service) Announce(name string, addr uint32) error {
	payload, err := wire.EncodeNSMessage(name, addr, 0)
	if err != nil {
		return err
	}
	return s.send(wire.NameServiceAddr, wire.NameServiceAddr, payload)
}

// Withdraw tells the remote that a local channel is going away.
func (s *Service) Withdraw(name string, addr uint32) error {
	payload, err := wire.EncodeNSMessage(name, addr, wire.NSFlagDestroy)
	if err != nil {
		return err
	}
	return s.send(wire.NameServiceAddr, wire.NameServiceAddr, payload)
}

// Detach destroys the name-service endpoint itself, used during transport
// teardown.
func (s *Service) Detach() {
	s.table.Destroy(s.ept)
}

// sendUp emits the one-time bring-up announcement (§4.7): a wire-level
// signal, distinct from CREATE/DESTROY, telling the remote name service
// this side is attached. A remote that receives it re-announces its own
// channels in response, the same way this side does on receipt (see
// onMessage's IsUp branch), so a late-attaching peer still learns about
// channels opened before it came up.
func (s *Service) sendUp() error {
	payload, err := wire.EncodeNSMessage("", 0, wire.NSFlagUp)
	if err != nil {
		return err
	}
	return s.send(wire.NameServiceAddr, wire.NameServiceAddr, payload)
}

// reannounceAll re-sends Announce for every locally open channel, used
// when the remote's own bring-up UP message arrives after this side
// already has channels open.
func (s *Service) reannounceAll() {
	for _, ch := range s.registry.Channels() {
		if err := s.Announce(ch.Name, ch.Src); err != nil {
			s.log.Warnf("nameservice: re-announce %q after remote bring-up: %v", ch.Name, err)
		}
	}
}
