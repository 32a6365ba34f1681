package wire

import (
	"errors"
	"io"
)

const (
	// FrameHeaderSize is type + flags + big-endian length.
	FrameHeaderSize = 4

	// MaxPayloadSize bounds one frame's payload (the length field is 16
	// bits). Larger op batches are split across frames.
	MaxPayloadSize = 65535
)

// FrameType identifies a frame.
type FrameType uint8

const (
	FrameHello   FrameType = 0x00 // connection setup
	FrameEvent   FrameType = 0x01 // client to server events
	FrameOps     FrameType = 0x02 // server to client surface ops
	FrameControl FrameType = 0x03 // ping, pong, shutdown
	FrameAck     FrameType = 0x04 // client ack of an ops batch
	FrameError   FrameType = 0x05 // fatal protocol error
)

func (ft FrameType) String() string {
	switch ft {
	case FrameHello:
		return "Hello"
	case FrameEvent:
		return "Event"
	case FrameOps:
		return "Ops"
	case FrameControl:
		return "Control"
	case FrameAck:
		return "Ack"
	case FrameError:
		return "Error"
	}
	return "Unknown"
}

// FrameFlags carry per-frame processing hints.
type FrameFlags uint8

const (
	FlagFinal FrameFlags = 0x01 // last frame of a split batch
)

// Has reports whether flag is set.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

var ErrFrameTooLarge = errors.New("wire: frame payload too large")

// Frame is a type-tagged payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame returns a frame with no flags set.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode serializes the frame, header included.
func (f *Frame) Encode() []byte {
	n := len(f.Payload)
	buf := make([]byte, FrameHeaderSize+n)
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf
}

// DecodeFrame parses one frame from data. The payload is copied out, so
// data may be reused by the caller.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	n := int(data[2])<<8 | int(data[3])
	if len(data) < FrameHeaderSize+n {
		return nil, io.ErrUnexpectedEOF
	}
	payload := make([]byte, n)
	copy(payload, data[FrameHeaderSize:FrameHeaderSize+n])
	return &Frame{
		Type:    FrameType(data[0]),
		Flags:   FrameFlags(data[1]),
		Payload: payload,
	}, nil
}

// ReadFrame reads one complete frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := int(header[2])<<8 | int(header[3])
	if n > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	return &Frame{
		Type:    FrameType(header[0]),
		Flags:   FrameFlags(header[1]),
		Payload: payload,
	}, nil
}

// WriteFrame writes f to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
