package wire

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		src     uint32
		dst     uint32
		payload []byte
	}{
		{"empty", 1024, 60, nil},
		{"small", 1024, 60, []byte("ping")},
		{"full-512-byte-buffer", 5, 6, bytes.Repeat([]byte{0xAB}, 496)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := make([]byte, HeaderLen+len(c.payload))
			n, err := Encode(buf, c.src, c.dst, c.payload)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if n != len(buf) {
				t.Fatalf("Encode wrote %d bytes, want %d", n, len(buf))
			}
			dg, err := Decode(buf)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if dg.Src != c.src || dg.Dst != c.dst {
				t.Fatalf("addr mismatch: got src=%d dst=%d", dg.Src, dg.Dst)
			}
			if dg.Flags != 0 || dg.Reserved != 0 {
				t.Fatalf("flags/reserved not zero: %+v", dg)
			}
			if int(dg.Len) != len(c.payload) || !bytes.Equal(dg.Payload, c.payload) {
				t.Fatalf("payload mismatch: got %v, want %v", dg.Payload, c.payload)
			}
		})
	}
}

func TestDecodeTooShort(t *testing.T) {
	if _, err := Decode(make([]byte, HeaderLen-1)); err == nil {
		t.Fatal("expected error for undersized header")
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	buf := make([]byte, HeaderLen+4)
	if _, err := Encode(buf, 1, 2, []byte("abcd")); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(buf[:HeaderLen+2]); err == nil {
		t.Fatal("expected truncated-payload error")
	}
}

func TestEncodeDestinationTooSmall(t *testing.T) {
	buf := make([]byte, HeaderLen)
	if _, err := Encode(buf, 1, 2, []byte("abcd")); err == nil {
		t.Fatal("expected destination-too-small error")
	}
}
