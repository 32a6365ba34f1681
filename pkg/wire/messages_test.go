package wire

import (
	"reflect"
	"testing"
)

func TestHelloRoundTrip(t *testing.T) {
	want := &Hello{Version: ProtocolVersion, Session: "a1b2c3", Resume: 17}
	got, err := DecodeHello(EncodeHello(want))
	if err != nil {
		t.Fatalf("DecodeHello() = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestEventRoundTrip(t *testing.T) {
	want := &Event{Seq: 9, Component: 42, Name: "toggle-todo", Args: []string{"t1", "true"}}
	got, err := DecodeEvent(EncodeEvent(want))
	if err != nil {
		t.Fatalf("DecodeEvent() = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestEventNoArgs(t *testing.T) {
	got, err := DecodeEvent(EncodeEvent(&Event{Component: 1, Name: "increment"}))
	if err != nil {
		t.Fatalf("DecodeEvent() = %v", err)
	}
	if len(got.Args) != 0 {
		t.Errorf("Args = %v, want empty", got.Args)
	}
}

func TestEventTruncated(t *testing.T) {
	raw := EncodeEvent(&Event{Component: 7, Name: "click", Args: []string{"x"}})
	for cut := 0; cut < len(raw); cut++ {
		if _, err := DecodeEvent(raw[:cut]); err == nil {
			t.Errorf("DecodeEvent(%d of %d bytes) = nil error", cut, len(raw))
		}
	}
}

func TestControlRoundTrip(t *testing.T) {
	for _, code := range []ControlCode{ControlPing, ControlPong, ControlShutdown} {
		got, err := DecodeControl(EncodeControl(code))
		if err != nil || got != code {
			t.Errorf("DecodeControl(%d) = %d, %v", code, got, err)
		}
	}
}

func TestAckRoundTrip(t *testing.T) {
	got, err := DecodeAck(EncodeAck(&Ack{Seq: 1 << 33}))
	if err != nil || got.Seq != 1<<33 {
		t.Errorf("DecodeAck() = %+v, %v", got, err)
	}
}

func TestErrorFrameRoundTrip(t *testing.T) {
	want := &ErrorFrame{Code: 2, Message: "update storm"}
	got, err := DecodeError(EncodeError(want))
	if err != nil {
		t.Fatalf("DecodeError() = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
	if got.Error() == "" {
		t.Error("Error() is empty")
	}
}

func TestOpBatchRoundTrip(t *testing.T) {
	want := &OpBatch{
		Seq: 5,
		Ops: []Op{
			{Code: OpOpenRegion, Target: 2, Region: 0},
			{Code: OpInsertElement, Target: 3, Region: 2, Tag: "div",
				Attrs: []Attr{{Key: "class", Value: "row"}, {Key: "id", Value: "t1"}}},
			{Code: OpInsertText, Target: 4, Region: 3, Before: 0, Text: "hello"},
			{Code: OpMove, Target: 4, Before: 3},
			{Code: OpSetText, Target: 4, Text: "goodbye"},
			{Code: OpRemove, Target: 2},
		},
	}
	got, err := DecodeOps(EncodeOps(want))
	if err != nil {
		t.Fatalf("DecodeOps() = %v", err)
	}
	if got.Seq != want.Seq {
		t.Errorf("Seq = %d, want %d", got.Seq, want.Seq)
	}
	if len(got.Ops) != len(want.Ops) {
		t.Fatalf("decoded %d ops, want %d", len(got.Ops), len(want.Ops))
	}
	for i := range want.Ops {
		if !reflect.DeepEqual(got.Ops[i], want.Ops[i]) {
			t.Errorf("op %d = %+v, want %+v", i, got.Ops[i], want.Ops[i])
		}
	}
}

func TestOpBatchAttrOrderPreserved(t *testing.T) {
	want := []Attr{{Key: "z", Value: "1"}, {Key: "a", Value: "2"}}
	batch := &OpBatch{Ops: []Op{{Code: OpInsertElement, Target: 1, Region: 0, Tag: "b", Attrs: want}}}
	got, err := DecodeOps(EncodeOps(batch))
	if err != nil {
		t.Fatalf("DecodeOps() = %v", err)
	}
	if !reflect.DeepEqual(got.Ops[0].Attrs, want) {
		t.Errorf("attrs = %v, want %v", got.Ops[0].Attrs, want)
	}
}

func TestDecodeOpsUnknownCode(t *testing.T) {
	e := NewEncoder()
	e.Uvarint(1) // seq
	e.Uvarint(1) // count
	e.Byte(0x7F) // bogus op code
	e.Uvarint(9) // target
	if _, err := DecodeOps(e.Bytes()); err == nil {
		t.Error("DecodeOps() accepted unknown op code")
	}
}
