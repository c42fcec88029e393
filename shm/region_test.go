package shm

import "testing"

func TestNewRegionSplitsHalves(t *testing.T) {
	r, err := NewRegion(4, 512, 0)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer r.Close()

	if r.HalfCount() != 2 {
		t.Fatalf("HalfCount = %d, want 2", r.HalfCount())
	}
	recv0 := r.RecvBuffer(0)
	recv1 := r.RecvBuffer(1)
	send0 := r.SendBuffer(0)
	send1 := r.SendBuffer(1)

	if len(recv0) != 512 || len(send0) != 512 {
		t.Fatalf("unexpected buffer length: recv=%d send=%d", len(recv0), len(send0))
	}

	// Writing into one slot must not alias another.
	recv0[0] = 0xAA
	if recv1[0] == 0xAA || send0[0] == 0xAA || send1[0] == 0xAA {
		t.Fatal("buffer slots alias each other")
	}
}

func TestNewRegionRejectsOddBufNum(t *testing.T) {
	if _, err := NewRegion(3, 512, 0); err == nil {
		t.Fatal("expected error for odd buffer count")
	}
}

func TestNewRegionRejectsUndersizedBuf(t *testing.T) {
	if _, err := NewRegion(4, 10, 0); err == nil {
		t.Fatal("expected error for undersized buffer")
	}
}

func TestDeviceAddrTranslation(t *testing.T) {
	r, err := NewRegion(2, 512, 0x1000)
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	defer r.Close()

	if got := r.DeviceAddr(0); got != 0x1000 {
		t.Fatalf("DeviceAddr(0) = %#x, want %#x", got, 0x1000)
	}
	if got := r.DeviceAddr(1); got != 0x1000+512 {
		t.Fatalf("DeviceAddr(1) = %#x, want %#x", got, 0x1000+512)
	}
}
