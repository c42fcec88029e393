package nameservice

import (
	"testing"

	"github.com/go-rpmsg/rpmsg/channel"
	"github.com/go-rpmsg/rpmsg/endpoint"
	"github.com/go-rpmsg/rpmsg/wire"
)

func TestAnnounceSendsCreateMessage(t *testing.T) {
	table := endpoint.NewTable()
	reg := channel.NewRegistry(table)

	var gotSrc, gotDst uint32
	var gotPayload []byte
	svc, err := Attach(table, reg, func(src, dst uint32, payload []byte) error {
		gotSrc, gotDst = src, dst
		gotPayload = payload
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if err := svc.Announce("echo", 1024); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	if gotSrc != wire.NameServiceAddr || gotDst != wire.NameServiceAddr {
		t.Fatalf("src/dst = %d/%d, want both %d", gotSrc, gotDst, wire.NameServiceAddr)
	}
	msg, err := wire.DecodeNSMessage(gotPayload)
	if err != nil {
		t.Fatalf("DecodeNSMessage: %v", err)
	}
	if msg.Name != "echo" || msg.Addr != 1024 || msg.IsDestroy() {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestWithdrawSetsDestroyFlag(t *testing.T) {
	table := endpoint.NewTable()
	reg := channel.NewRegistry(table)

	var gotPayload []byte
	svc, _ := Attach(table, reg, func(src, dst uint32, payload []byte) error {
		gotPayload = payload
		return nil
	}, nil)

	if err := svc.Withdraw("echo", 1024); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	msg, err := wire.DecodeNSMessage(gotPayload)
	if err != nil {
		t.Fatalf("DecodeNSMessage: %v", err)
	}
	if !msg.IsDestroy() {
		t.Fatal("expected destroy flag set")
	}
}

func TestRemoteCreateAnnouncementOpensLocalChannel(t *testing.T) {
	table := endpoint.NewTable()
	reg := channel.NewRegistry(table)
	svc, _ := Attach(table, reg, func(src, dst uint32, payload []byte) error { return nil }, nil)

	payload, err := wire.EncodeNSMessage("echo", 2048, 0)
	if err != nil {
		t.Fatalf("EncodeNSMessage: %v", err)
	}
	svc.onMessage(nil, payload, nil, wire.NameServiceAddr)

	if _, ok := reg.FindByNameAddr("echo", 2048); !ok {
		t.Fatal("expected local channel opened after remote CREATE")
	}
}

func TestRemoteDestroyAnnouncementClosesLocalChannel(t *testing.T) {
	table := endpoint.NewTable()
	reg := channel.NewRegistry(table)
	svc, _ := Attach(table, reg, func(src, dst uint32, payload []byte) error { return nil }, nil)

	create, _ := wire.EncodeNSMessage("echo", 2048, 0)
	svc.onMessage(nil, create, nil, wire.NameServiceAddr)
	if _, ok := reg.FindByNameAddr("echo", 2048); !ok {
		t.Fatal("precondition: channel should exist after CREATE")
	}

	destroy, _ := wire.EncodeNSMessage("echo", 2048, wire.NSFlagDestroy)
	svc.onMessage(nil, destroy, nil, wire.NameServiceAddr)
	if _, ok := reg.FindByNameAddr("echo", 2048); ok {
		t.Fatal("expected channel removed after remote DESTROY")
	}
}

func TestMalformedMessageIsDropped(t *testing.T) {
	table := endpoint.NewTable()
	reg := channel.NewRegistry(table)
	svc, _ := Attach(table, reg, func(src, dst uint32, payload []byte) error { return nil }, nil)

	// Must not panic on garbage input of the wrong length.
	svc.onMessage(nil, []byte{1, 2, 3}, nil, wire.NameServiceAddr)

	if len(reg.Channels()) != 0 {
		t.Fatal("expected no channel created from malformed message")
	}
}
