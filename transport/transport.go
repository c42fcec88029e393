// File: transport/transport.go
// Package transport wires together the shared-memory region, the queue
// pair, the endpoint table, the channel registry, and the name-service
// endpoint into one attach/detach lifecycle, exposing the send path and
// driver registration clients use.
//
// Grounded on server/server.go's component-assembly style (Attach mirrors
// its constructor-then-Serve shape) and the teacher's control package for
// metrics/debug/config wiring. The single receive-dispatch context and
// single send-queue lock follow the concurrency model the rest of this
// module was built around.
// License: Apache-2.0
package transport

import (
	"context"
	"sync"

	"github.com/go-rpmsg/rpmsg/api"
	"github.com/go-rpmsg/rpmsg/channel"
	"github.com/go-rpmsg/rpmsg/control"
	"github.com/go-rpmsg/rpmsg/dispatch"
	"github.com/go-rpmsg/rpmsg/endpoint"
	"github.com/go-rpmsg/rpmsg/nameservice"
	"github.com/go-rpmsg/rpmsg/platform"
	"github.com/go-rpmsg/rpmsg/queue"
	"github.com/go-rpmsg/rpmsg/rpmsgerr"
	"github.com/go-rpmsg/rpmsg/shm"
	"github.com/go-rpmsg/rpmsg/wire"
)

var (
	_ api.Control          = (*Transport)(nil)
	_ api.GracefulShutdown = (*Transport)(nil)
)

// Transport is one attached point-to-point link to a remote processor.
type Transport struct {
	region *shm.Region
	rx     *queue.Queue
	tx     *queue.Queue
	table  *endpoint.Table
	reg    *channel.Registry
	ns     *nameservice.Service
	loop   *dispatch.Loop

	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
	cfg     *platform.Store
	log     control.Logger

	sendMu   sync.Mutex
	freeSend []uint32
	kick     func(sendIdx uint32, deviceAddr uint64)
	sends    uint64

	cancel     context.CancelFunc
	wg         sync.WaitGroup
	detachOnce sync.Once
	detachErr  error
}

// Attach allocates the shared region described by cfg, posts every receive
// buffer onto the avail ring, starts the receive-dispatch loop, and brings
// up the name-service endpoint (which sends the §4.7 UP announcement
// before Attach returns). kickSend is invoked whenever a send buffer is
// posted to the tx avail ring — the platform-specific mailbox doorbell,
// out of scope for this package, is expected to live behind it. kickSend
// receives both the posted buffer's local index, so a loopback or test
// harness can reflect it straight back into the rx side without a real
// remote, and its device-view address (shm.Region.SendBufferAddr), the
// simulated-base-translated form a real doorbell would carry. kickSend may
// be nil, notably for a self-referential loopback doorbell that needs the
// very *Transport Attach is still constructing and so cannot be built
// before Attach returns: the UP announcement is then posted but never
// kicked, and a doorbell installed later via SetSendKick fires only for
// sends made after it. kickRecv is
// the matching outbound doorbell for the rx queue: it receives the
// device-view address (shm.Region.RecvBufferAddr) of the triggering
// buffer, fired at bring-up once the initial N/2 receive buffers are
// posted and again every time a drained buffer is reposted, per
// §4.6/§4.8/§9; it may be nil if the platform has no separate rx doorbell.
// logger receives receive-side anomaly reports; a nil logger defaults to a
// control.NewStdLogger.
func Attach(store *platform.Store, kickSend func(sendIdx uint32, deviceAddr uint64), kickRecv func(deviceAddr uint64), logger control.Logger) (*Transport, error) {
	cfg, err := store.Get()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = control.NewStdLogger()
	}

	region, err := shm.NewRegion(cfg.BufNum, cfg.BufSz, cfg.SimBase)
	if err != nil {
		return nil, err
	}

	metrics := control.NewMetricsRegistry()
	debug := control.NewDebugProbes()
	registerPlatformProbes(debug)
	store.RegisterProbes(debug)

	t := &Transport{
		region:  region,
		table:   endpoint.NewTable(),
		metrics: metrics,
		debug:   debug,
		cfg:     store,
		kick:    kickSend,
		log:     logger,
	}
	t.reg = channel.NewRegistry(t.table)

	half := region.HalfCount()
	t.rx = queue.New("recv", half, kickRecv)
	t.tx = queue.New("send", half, nil)

	for i := 0; i < half; i++ {
		t.rx.Post(uint32(i))
		t.freeSend = append(t.freeSend, uint32(i))
	}
	t.rx.Kick(region.RecvBufferAddr(half - 1))

	debug.RegisterProbe("transport.endpoints", func() any { return t.table.Len() })
	debug.RegisterProbe("transport.channels", func() any { return len(t.reg.Channels()) })

	t.loop = dispatch.New(t.rx, t.region, t.table, t.metrics, t.log)

	ns, err := nameservice.Attach(t.table, t.reg, t.sendRaw, t.log)
	if err != nil {
		t.region.Close()
		return nil, err
	}
	t.ns = ns

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.loop.Run(ctx)
	}()

	for _, spec := range cfg.HCChannels {
		if _, err := t.CreateChannel(spec.Name, spec.Src, spec.Dst); err != nil {
			t.Detach()
			return nil, err
		}
	}

	return t, nil
}

// PinDispatch requests the receive-dispatch goroutine pin itself to cpuID.
// Must be called before the first datagram arrives to take effect
// reliably, since the pin is applied once at loop startup.
func (t *Transport) PinDispatch(cpuID int) {
	t.loop.PinToCPU(cpuID)
}

// RegisterDriver registers d with the channel registry, probing it
// against any already-open channels whose name matches.
func (t *Transport) RegisterDriver(d *channel.Driver) error {
	return t.reg.RegisterDriver(d)
}

// UnregisterDriver removes d, tearing down every channel currently bound
// to it.
func (t *Transport) UnregisterDriver(d *channel.Driver) {
	t.reg.UnregisterDriver(d)
}

// CreateChannel opens a local channel and announces it to the remote via
// the name service.
func (t *Transport) CreateChannel(name string, src, dst uint32) (*channel.Channel, error) {
	ch, err := t.reg.CreateChannel(name, src, dst)
	if err != nil {
		return nil, err
	}
	if err := t.ns.Announce(name, ch.Src); err != nil {
		t.reg.DestroyChannel(ch)
		return nil, err
	}
	return ch, nil
}

// DestroyChannel withdraws ch's announcement and tears it down.
func (t *Transport) DestroyChannel(ch *channel.Channel) {
	t.ns.Withdraw(ch.Name, ch.Src)
	t.reg.DestroyChannel(ch)
}

// Inbound is called by the platform's doorbell ISR/callback when the
// remote has filled receive buffer rxIdx and signaled completion.
func (t *Transport) Inbound(rxIdx uint32) {
	if !t.rx.NotifyUsed(rxIdx) {
		t.log.Warnf("transport: spurious doorbell for rx slot %d, used ring full or already posted", rxIdx)
		t.metrics.Set("transport.rx_overrun", true)
		return
	}
	t.loop.Notify()
}

// Send encodes payload from src to dst into a free send buffer, posts it,
// and fires the doorbell. Returns rpmsgerr.ErrNoBuffer if no send buffer
// is free and rpmsgerr.ErrTooLarge if payload does not fit. This is the
// client-facing send_off_channel(channel, src, dst, payload) operation of
// §6 — the channel argument carries no information send_off_channel needs
// beyond the two addresses, so it is omitted here.
func (t *Transport) Send(src, dst uint32, payload []byte) error {
	if src == wire.AddrAny || dst == wire.AddrAny {
		return rpmsgerr.ErrInvalidAddress
	}
	return t.sendRaw(src, dst, payload)
}

// SendOnChannel implements the client-facing send(channel, payload)
// operation of §6: transmits from ch.Src to ch.Dst.
func (t *Transport) SendOnChannel(ch *channel.Channel, payload []byte) error {
	return t.Send(ch.Src, ch.Dst, payload)
}

// SendTo implements the client-facing send_to(channel, payload, dst)
// operation of §6: transmits from ch.Src, overriding the destination.
func (t *Transport) SendTo(ch *channel.Channel, payload []byte, dst uint32) error {
	return t.Send(ch.Src, dst, payload)
}

// CreateEndpoint implements the client-facing create_endpoint(channel, cb,
// priv, addr) operation of §6: opens an ancillary endpoint for a
// sub-protocol, distinct from ch's primary endpoint. owner may be nil for
// an endpoint not associated with any channel.
func (t *Transport) CreateEndpoint(owner *channel.Channel, cb endpoint.Callback, priv any, addr uint32) (*endpoint.Endpoint, error) {
	return t.table.Create(addr, cb, priv, owner)
}

// DestroyEndpoint implements the client-facing destroy_endpoint(endpoint)
// operation of §6.
func (t *Transport) DestroyEndpoint(ept *endpoint.Endpoint) {
	t.table.Destroy(ept)
}

// sendRaw is Send without the ANY-address validation, used internally by
// the name service whose own traffic always targets a concrete address.
func (t *Transport) sendRaw(src, dst uint32, payload []byte) error {
	t.sendMu.Lock()

	t.reclaimSendBuffersLocked()

	if len(t.freeSend) == 0 {
		t.sendMu.Unlock()
		return rpmsgerr.ErrNoBuffer
	}
	idx := t.freeSend[len(t.freeSend)-1]

	buf := t.region.SendBuffer(int(idx))
	if _, err := wire.Encode(buf, src, dst, payload); err != nil {
		t.sendMu.Unlock()
		return rpmsgerr.ErrTooLarge.With("cause", err.Error())
	}
	t.freeSend = t.freeSend[:len(t.freeSend)-1]

	posted := t.tx.Post(idx)
	if posted {
		t.sends++
		t.metrics.Set("sends", t.sends)
	}
	t.sendMu.Unlock()

	if !posted {
		return rpmsgerr.ErrQueueFault
	}
	if t.kick != nil {
		t.kick(idx, t.region.SendBufferAddr(int(idx)))
	}
	return nil
}

// reclaimSendBuffersLocked drains every tx descriptor the remote has
// returned on the used ring back onto the free list. Callers must hold
// t.sendMu.
func (t *Transport) reclaimSendBuffersLocked() {
	for {
		idx, ok := t.tx.TakeUsed()
		if !ok {
			return
		}
		t.freeSend = append(t.freeSend, idx)
	}
}

// SetSendKick installs or replaces the send-side doorbell after Attach has
// already returned. Needed by any caller whose doorbell is self-
// referential — e.g. ReflectSendBuffer below, which reflects into the same
// Transport the doorbell is being wired onto — since such a closure cannot
// be fully constructed before the Transport it closes over exists, and
// Attach's own bring-up (the §4.7 UP announcement) may fire the doorbell
// before Attach returns. A nil kickSend given to Attach leaves the early
// bring-up traffic posted but un-kicked; SetSendKick does not kick buffers
// posted before it was called.
func (t *Transport) SetSendKick(kickSend func(sendIdx uint32, deviceAddr uint64)) {
	t.sendMu.Lock()
	t.kick = kickSend
	t.sendMu.Unlock()
}

// ReflectSendBuffer copies a just-posted send buffer into the matching
// receive slot and delivers it back through Inbound, standing in for a
// real remote processor. Intended for loopback demos and tests that have
// no second processor to talk to.
func (t *Transport) ReflectSendBuffer(idx uint32) {
	sendBuf := t.region.SendBuffer(int(idx))
	recvBuf := t.region.RecvBuffer(int(idx))
	copy(recvBuf, sendBuf)
	t.ReclaimSendBuffer(idx)
	t.Inbound(idx)
}

// ReclaimSendBuffer is called by the platform's doorbell callback when the
// remote returns send buffer idx on the used ring (out-of-band from a
// Send call, e.g. the remote reclaiming buffers asynchronously).
func (t *Transport) ReclaimSendBuffer(idx uint32) {
	if !t.tx.NotifyUsed(idx) {
		t.log.Warnf("transport: unexpected send-queue completion for tx slot %d", idx)
		t.metrics.Set("transport.tx_overrun", true)
	}
}

// Metrics returns the transport's metrics registry.
func (t *Transport) Metrics() *control.MetricsRegistry { return t.metrics }

// Debug returns the transport's debug probe registry.
func (t *Transport) Debug() *control.DebugProbes { return t.debug }

// Detach stops the dispatch loop, destroys every live channel (and with it
// every driver-bound endpoint, via Registry.DestroyChannel), then releases
// the shared region. Channels must not outlive their transport. Idempotent:
// a second call returns the first call's result without repeating the
// teardown (notably, without double-closing the shared region).
func (t *Transport) Detach() error {
	t.detachOnce.Do(func() {
		if t.cancel != nil {
			t.cancel()
		}
		t.wg.Wait()

		for _, ch := range t.reg.Channels() {
			t.DestroyChannel(ch)
		}
		t.ns.Detach()

		t.detachErr = t.region.Close()
	})
	return t.detachErr
}

// Shutdown implements api.GracefulShutdown in terms of Detach.
func (t *Transport) Shutdown() error {
	return t.Detach()
}

// GetConfig implements api.Control over the transport's platform.Store.
func (t *Transport) GetConfig() map[string]any {
	return t.cfg.Snapshot()
}

// SetConfig implements api.Control, merging overrides into the transport's
// platform.Store and firing any registered reload hooks.
func (t *Transport) SetConfig(cfg map[string]any) error {
	t.cfg.Merge(cfg)
	return nil
}

// Stats implements api.Control over the transport's metrics registry.
func (t *Transport) Stats() map[string]any {
	return t.metrics.GetSnapshot()
}

// OnReload implements api.Control, forwarding to the platform.Store.
func (t *Transport) OnReload(fn func()) {
	t.cfg.OnReload(fn)
}

// RegisterDebugProbe implements api.Control over the transport's debug
// probe registry.
func (t *Transport) RegisterDebugProbe(name string, fn func() any) {
	t.debug.RegisterProbe(name, fn)
}
