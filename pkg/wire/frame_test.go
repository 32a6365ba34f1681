package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	f := &Frame{Type: FrameEvent, Flags: FlagFinal, Payload: []byte("payload")}
	got, err := DecodeFrame(f.Encode())
	if err != nil {
		t.Fatalf("DecodeFrame() = %v", err)
	}
	if got.Type != FrameEvent || !got.Flags.Has(FlagFinal) || string(got.Payload) != "payload" {
		t.Errorf("decoded frame = %+v", got)
	}
}

func TestFrameDecodeCopiesPayload(t *testing.T) {
	raw := NewFrame(FrameOps, []byte("abc")).Encode()
	f, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("DecodeFrame() = %v", err)
	}
	raw[FrameHeaderSize] = 'z'
	if string(f.Payload) != "abc" {
		t.Errorf("payload aliases input buffer: %q", f.Payload)
	}
}

func TestFrameDecodeTruncated(t *testing.T) {
	raw := NewFrame(FrameHello, []byte("hello")).Encode()
	for cut := 0; cut < len(raw); cut++ {
		if _, err := DecodeFrame(raw[:cut]); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("DecodeFrame(%d bytes) = %v, want ErrUnexpectedEOF", cut, err)
		}
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	frames := []*Frame{
		NewFrame(FrameHello, EncodeHello(&Hello{Version: ProtocolVersion, Session: "s1"})),
		NewFrame(FrameControl, EncodeControl(ControlPing)),
		{Type: FrameOps, Flags: FlagFinal, Payload: []byte{1, 2, 3}},
		NewFrame(FrameAck, nil),
	}
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame(%v) = %v", f.Type, err)
		}
	}
	for _, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame() = %v", err)
		}
		if got.Type != want.Type || got.Flags != want.Flags || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("ReadFrame() = %+v, want %+v", got, want)
		}
	}
	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Errorf("ReadFrame() on drained stream = %v, want EOF", err)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	f := NewFrame(FrameOps, make([]byte, MaxPayloadSize+1))
	if err := WriteFrame(io.Discard, f); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("WriteFrame() = %v, want ErrFrameTooLarge", err)
	}
}
