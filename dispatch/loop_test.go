package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/go-rpmsg/rpmsg/endpoint"
	"github.com/go-rpmsg/rpmsg/queue"
	"github.com/go-rpmsg/rpmsg/shm"
	"github.com/go-rpmsg/rpmsg/wire"
)

func TestLoopDispatchesToEndpointAndReturnsBuffer(t *testing.T) {
	region, err := shm.NewRegion(4, 64, 0)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer region.Close()

	rx := queue.New("recv", 4, nil)
	table := endpoint.NewTable()

	received := make(chan []byte, 1)
	_, err = table.Create(60, func(owner any, payload []byte, priv any, src uint32) {
		got := make([]byte, len(payload))
		copy(got, payload)
		received <- got
	}, nil, nil)
	if err != nil {
		t.Fatalf("Create endpoint: %v", err)
	}

	buf := region.RecvBuffer(0)
	if _, err := wire.Encode(buf, 1024, 60, []byte("ping")); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	rx.NotifyUsed(0)

	loop := New(rx, region, table, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	select {
	case payload := <-received:
		if string(payload) != "ping" {
			t.Fatalf("payload = %q, want %q", payload, "ping")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatch")
	}

	deadline := time.After(time.Second)
	for {
		if rx.Pending() == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for buffer repost")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestLoopDropsDatagramForUnboundDestination(t *testing.T) {
	region, err := shm.NewRegion(4, 64, 0)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer region.Close()

	rx := queue.New("recv", 4, nil)
	table := endpoint.NewTable()

	buf := region.RecvBuffer(0)
	if _, err := wire.Encode(buf, 1024, 999, []byte("x")); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	rx.NotifyUsed(0)

	loop := New(rx, region, table, nil, nil)
	loop.drain()

	if loop.dropped != 1 {
		t.Fatalf("dropped = %d, want 1", loop.dropped)
	}
	if rx.Pending() != 1 {
		t.Fatal("expected buffer reposted even when undeliverable")
	}
}

func TestNotifyWakesLoopImmediately(t *testing.T) {
	region, err := shm.NewRegion(4, 64, 0)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer region.Close()

	rx := queue.New("recv", 4, nil)
	table := endpoint.NewTable()
	received := make(chan struct{}, 1)
	table.Create(60, func(owner any, payload []byte, priv any, src uint32) {
		received <- struct{}{}
	}, nil, nil)

	loop := New(rx, region, table, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	buf := region.RecvBuffer(0)
	wire.Encode(buf, 1024, 60, []byte("a"))
	rx.NotifyUsed(0)
	loop.Notify()

	select {
	case <-received:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected Notify to trigger a prompt dispatch")
	}
}
