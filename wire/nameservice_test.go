package wire

import "testing"

func TestNSMessageRoundTrip(t *testing.T) {
	raw, err := EncodeNSMessage("foo", 42, 0)
	if err != nil {
		t.Fatalf("EncodeNSMessage: %v", err)
	}
	msg, err := DecodeNSMessage(raw)
	if err != nil {
		t.Fatalf("DecodeNSMessage: %v", err)
	}
	if msg.Name != "foo" || msg.Addr != 42 || msg.IsDestroy() {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestNSMessageDestroyFlag(t *testing.T) {
	raw, _ := EncodeNSMessage("foo", 42, NSFlagDestroy)
	msg, err := DecodeNSMessage(raw)
	if err != nil {
		t.Fatalf("DecodeNSMessage: %v", err)
	}
	if !msg.IsDestroy() {
		t.Fatalf("expected DESTROY flag set")
	}
}

func TestNSMessageLengthMismatch(t *testing.T) {
	if _, err := DecodeNSMessage(make([]byte, NameServiceMsgLen-1)); err == nil {
		t.Fatal("expected length-mismatch error")
	}
}

func TestNSMessageUntrustedTermination(t *testing.T) {
	raw := make([]byte, NameServiceMsgLen)
	for i := 0; i < NameServiceNameLen; i++ {
		raw[i] = 'a' // no NUL anywhere in the name field, and over-length
	}
	msg, err := DecodeNSMessage(raw)
	if err != nil {
		t.Fatalf("DecodeNSMessage: %v", err)
	}
	if len(msg.Name) != NameServiceNameLen-1 {
		t.Fatalf("expected truncation to %d bytes, got %d", NameServiceNameLen-1, len(msg.Name))
	}
}

func TestEncodeNSMessageNameTooLong(t *testing.T) {
	long := make([]byte, NameServiceNameLen)
	for i := range long {
		long[i] = 'x'
	}
	if _, err := EncodeNSMessage(string(long), 1, 0); err == nil {
		t.Fatal("expected name-too-long error")
	}
}
