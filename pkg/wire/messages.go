package wire

import "fmt"

// ProtocolVersion is bumped on any incompatible wire change.
const ProtocolVersion = 1

// Hello opens a connection. Resume is the last ops sequence the client
// applied, zero for a fresh session.
type Hello struct {
	Version uint16
	Session string
	Resume  uint64
}

func EncodeHello(h *Hello) []byte {
	e := NewEncoder()
	e.Uvarint(uint64(h.Version))
	e.String(h.Session)
	e.Uvarint(h.Resume)
	return e.Bytes()
}

func DecodeHello(data []byte) (*Hello, error) {
	d := NewDecoder(data)
	v, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	h := &Hello{Version: uint16(v)}
	if h.Session, err = d.String(); err != nil {
		return nil, err
	}
	if h.Resume, err = d.Uvarint(); err != nil {
		return nil, err
	}
	return h, nil
}

// Event is a user interaction routed to a component instance's handler.
// Args are pre-stringified by the client; handlers parse what they need.
type Event struct {
	Seq       uint64
	Component uint64
	Name      string
	Args      []string
}

func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	e.Uvarint(ev.Seq)
	e.Uvarint(ev.Component)
	e.String(ev.Name)
	e.Uvarint(uint64(len(ev.Args)))
	for _, a := range ev.Args {
		e.String(a)
	}
	return e.Bytes()
}

func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	ev := &Event{}
	var err error
	if ev.Seq, err = d.Uvarint(); err != nil {
		return nil, err
	}
	if ev.Component, err = d.Uvarint(); err != nil {
		return nil, err
	}
	if ev.Name, err = d.String(); err != nil {
		return nil, err
	}
	count, err := d.Count()
	if err != nil {
		return nil, err
	}
	ev.Args = make([]string, count)
	for i := range ev.Args {
		if ev.Args[i], err = d.String(); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

// ControlCode distinguishes control frames.
type ControlCode uint8

const (
	ControlPing     ControlCode = 0x01
	ControlPong     ControlCode = 0x02
	ControlShutdown ControlCode = 0x03
)

func EncodeControl(code ControlCode) []byte {
	return []byte{byte(code)}
}

func DecodeControl(data []byte) (ControlCode, error) {
	d := NewDecoder(data)
	b, err := d.Byte()
	return ControlCode(b), err
}

// Ack confirms the client applied ops through Seq.
type Ack struct {
	Seq uint64
}

func EncodeAck(a *Ack) []byte {
	e := NewEncoder()
	e.Uvarint(a.Seq)
	return e.Bytes()
}

func DecodeAck(data []byte) (*Ack, error) {
	d := NewDecoder(data)
	seq, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	return &Ack{Seq: seq}, nil
}

// ErrorFrame reports a fatal condition before the connection closes.
type ErrorFrame struct {
	Code    uint16
	Message string
}

func (e *ErrorFrame) Error() string {
	return fmt.Sprintf("wire: remote error %d: %s", e.Code, e.Message)
}

func EncodeError(ef *ErrorFrame) []byte {
	e := NewEncoder()
	e.Uvarint(uint64(ef.Code))
	e.String(ef.Message)
	return e.Bytes()
}

func DecodeError(data []byte) (*ErrorFrame, error) {
	d := NewDecoder(data)
	code, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	msg, err := d.String()
	if err != nil {
		return nil, err
	}
	return &ErrorFrame{Code: uint16(code), Message: msg}, nil
}
