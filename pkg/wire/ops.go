package wire

import "fmt"

// OpCode is a surface operation on the remote side. Nodes and regions
// share one server-assigned ID space; region 0 is the document root.
type OpCode uint8

const (
	OpInsertText    OpCode = 0x01 // new text node in a region
	OpInsertElement OpCode = 0x02 // new element in a region
	OpOpenRegion    OpCode = 0x03 // new nested region (boundary)
	OpRemove        OpCode = 0x04 // remove a region and its contents
	OpMove          OpCode = 0x05 // move an item within its region
	OpSetText       OpCode = 0x06 // replace a text node's content
)

func (c OpCode) String() string {
	switch c {
	case OpInsertText:
		return "InsertText"
	case OpInsertElement:
		return "InsertElement"
	case OpOpenRegion:
		return "OpenRegion"
	case OpRemove:
		return "Remove"
	case OpMove:
		return "Move"
	case OpSetText:
		return "SetText"
	}
	return "Unknown"
}

// Op is one surface operation. Field use varies by code:
//
//	InsertText    Target=new node, Region=parent, Before=anchor, Text
//	InsertElement Target=new node, Region=parent, Before=anchor, Tag, Attrs
//	OpenRegion    Target=new region, Region=parent, Before=anchor
//	Remove        Target=region or node
//	Move          Target=item, Before=anchor
//	SetText       Target=text node, Text
//
// Before 0 means "append at end of region".
type Op struct {
	Code   OpCode
	Target uint64
	Region uint64
	Before uint64
	Tag    string
	Text   string
	Attrs  []Attr
}

// Attr is an ordered attribute pair. Order is preserved on the wire so
// batches encode deterministically.
type Attr struct {
	Key   string
	Value string
}

// OpBatch is one flush worth of ops, sequenced for acks.
type OpBatch struct {
	Seq uint64
	Ops []Op
}

// EncodeOps serializes a batch.
func EncodeOps(b *OpBatch) []byte {
	e := NewEncoder()
	e.Uvarint(b.Seq)
	e.Uvarint(uint64(len(b.Ops)))
	for i := range b.Ops {
		encodeOp(e, &b.Ops[i])
	}
	return e.Bytes()
}

func encodeOp(e *Encoder, op *Op) {
	e.Byte(byte(op.Code))
	e.Uvarint(op.Target)
	switch op.Code {
	case OpInsertText:
		e.Uvarint(op.Region)
		e.Uvarint(op.Before)
		e.String(op.Text)
	case OpInsertElement:
		e.Uvarint(op.Region)
		e.Uvarint(op.Before)
		e.String(op.Tag)
		e.Uvarint(uint64(len(op.Attrs)))
		for _, a := range op.Attrs {
			e.String(a.Key)
			e.String(a.Value)
		}
	case OpOpenRegion:
		e.Uvarint(op.Region)
		e.Uvarint(op.Before)
	case OpRemove:
	case OpMove:
		e.Uvarint(op.Before)
	case OpSetText:
		e.String(op.Text)
	}
}

// DecodeOps parses a batch payload.
func DecodeOps(data []byte) (*OpBatch, error) {
	d := NewDecoder(data)
	seq, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.Count()
	if err != nil {
		return nil, err
	}
	batch := &OpBatch{Seq: seq, Ops: make([]Op, count)}
	for i := 0; i < count; i++ {
		if err := decodeOp(d, &batch.Ops[i]); err != nil {
			return nil, fmt.Errorf("wire: op %d: %w", i, err)
		}
	}
	return batch, nil
}

func decodeOp(d *Decoder, op *Op) error {
	code, err := d.Byte()
	if err != nil {
		return err
	}
	op.Code = OpCode(code)
	if op.Target, err = d.Uvarint(); err != nil {
		return err
	}
	switch op.Code {
	case OpInsertText:
		if op.Region, err = d.Uvarint(); err != nil {
			return err
		}
		if op.Before, err = d.Uvarint(); err != nil {
			return err
		}
		op.Text, err = d.String()
		return err
	case OpInsertElement:
		if op.Region, err = d.Uvarint(); err != nil {
			return err
		}
		if op.Before, err = d.Uvarint(); err != nil {
			return err
		}
		if op.Tag, err = d.String(); err != nil {
			return err
		}
		count, err := d.Count()
		if err != nil {
			return err
		}
		op.Attrs = make([]Attr, count)
		for i := range op.Attrs {
			if op.Attrs[i].Key, err = d.String(); err != nil {
				return err
			}
			if op.Attrs[i].Value, err = d.String(); err != nil {
				return err
			}
		}
		return nil
	case OpOpenRegion:
		if op.Region, err = d.Uvarint(); err != nil {
			return err
		}
		op.Before, err = d.Uvarint()
		return err
	case OpRemove:
		return nil
	case OpMove:
		op.Before, err = d.Uvarint()
		return err
	case OpSetText:
		op.Text, err = d.String()
		return err
	}
	return fmt.Errorf("wire: unknown op code 0x%02x", code)
}
