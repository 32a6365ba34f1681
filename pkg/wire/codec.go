package wire

import "errors"

// Decode errors.
var (
	ErrShort         = errors.New("wire: buffer too short")
	ErrOverflow      = errors.New("wire: varint overflow")
	ErrStringTooLong = errors.New("wire: string exceeds limit")
)

// MaxStringLen caps decoded string and byte-slice lengths. Anything
// larger is treated as a malformed or hostile payload.
const MaxStringLen = 1 << 20

// Encoder builds a payload in memory. The zero value is not usable; call
// NewEncoder.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder with a small initial buffer.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 128)}
}

// Reset clears the encoder for reuse, keeping the buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded payload. The slice aliases the encoder's
// buffer and is invalidated by further writes.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the current payload size.
func (e *Encoder) Len() int {
	return len(e.buf)
}

func (e *Encoder) Byte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *Encoder) Uvarint(v uint64) {
	var tmp [MaxVarintLen]byte
	n := PutUvarint(tmp[:], v)
	e.buf = append(e.buf, tmp[:n]...)
}

func (e *Encoder) Svarint(v int64) {
	var tmp [MaxVarintLen]byte
	n := PutSvarint(tmp[:], v)
	e.buf = append(e.buf, tmp[:n]...)
}

// String writes a length-prefixed UTF-8 string.
func (e *Encoder) String(s string) {
	e.Uvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) Bool(b bool) {
	if b {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// Decoder reads a payload produced by Encoder. Every read checks bounds;
// a malformed payload yields an error, never a panic.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps buf without copying it.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the unread byte count.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF reports whether the payload is fully consumed.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

func (d *Decoder) Byte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrShort
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) Uvarint() (uint64, error) {
	v, n := Uvarint(d.buf[d.pos:])
	if n < 0 {
		if n == -2 {
			return 0, ErrOverflow
		}
		return 0, ErrShort
	}
	d.pos += n
	return v, nil
}

func (d *Decoder) Svarint() (int64, error) {
	v, n := Svarint(d.buf[d.pos:])
	if n < 0 {
		if n == -2 {
			return 0, ErrOverflow
		}
		return 0, ErrShort
	}
	d.pos += n
	return v, nil
}

func (d *Decoder) String() (string, error) {
	n, err := d.Uvarint()
	if err != nil {
		return "", err
	}
	if n > MaxStringLen {
		return "", ErrStringTooLong
	}
	if d.Remaining() < int(n) {
		return "", ErrShort
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

func (d *Decoder) Bool() (bool, error) {
	b, err := d.Byte()
	return b != 0, err
}

// Count reads a collection count and bounds it against the remaining
// payload, so a hostile count cannot trigger a huge allocation.
func (d *Decoder) Count() (int, error) {
	n, err := d.Uvarint()
	if err != nil {
		return 0, err
	}
	if int(n) > d.Remaining() {
		return 0, ErrShort
	}
	return int(n), nil
}
