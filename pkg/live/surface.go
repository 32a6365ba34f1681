package live

import (
	"sort"

	"github.com/weft-ui/weft/pkg/fragment"
	"github.com/weft-ui/weft/pkg/wire"
)

// RemoteSurface renders onto a client over the wire protocol. It assigns
// IDs from a single node/region space and buffers the resulting ops; the
// session drains the buffer into an ops frame after each settle.
//
// An element's ID doubles as the region ID of its interior, so inserting
// into an element's children needs no extra round of bookkeeping on
// either side.
type RemoteSurface struct {
	nextID uint64
	seq    uint64
	ops    []wire.Op
	root   remoteRegion
}

type remoteNode struct {
	id uint64
}

type remoteRegion struct {
	id uint64
}

var _ fragment.Surface = (*RemoteSurface)(nil)

// NewRemoteSurface returns a surface whose root region has ID zero.
func NewRemoteSurface() *RemoteSurface {
	return &RemoteSurface{nextID: 1}
}

func (s *RemoteSurface) allocID() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

// Insert implements fragment.Surface.
func (s *RemoteSurface) Insert(b fragment.Boundary, spec fragment.NodeSpec, before fragment.Anchor) fragment.Node {
	id := s.allocID()
	op := wire.Op{
		Target: id,
		Region: idOf(b),
		Before: idOf(before),
	}
	if spec.Kind == fragment.SpecText {
		op.Code = wire.OpInsertText
		op.Text = spec.Text
	} else {
		op.Code = wire.OpInsertElement
		op.Tag = spec.Tag
		op.Attrs = sortedAttrs(spec.Attrs)
	}
	s.ops = append(s.ops, op)
	return &remoteNode{id: id}
}

// Child implements fragment.Surface.
func (s *RemoteSurface) Child(b fragment.Boundary, before fragment.Anchor) fragment.Boundary {
	id := s.allocID()
	s.ops = append(s.ops, wire.Op{
		Code:   wire.OpOpenRegion,
		Target: id,
		Region: idOf(b),
		Before: idOf(before),
	})
	return &remoteRegion{id: id}
}

// Interior implements fragment.Surface.
func (s *RemoteSurface) Interior(n fragment.Node) fragment.Boundary {
	return &remoteRegion{id: n.(*remoteNode).id}
}

// Remove implements fragment.Surface.
func (s *RemoteSurface) Remove(b fragment.Boundary) {
	s.ops = append(s.ops, wire.Op{
		Code:   wire.OpRemove,
		Target: idOf(b),
	})
}

// MoveBefore implements fragment.Surface.
func (s *RemoteSurface) MoveBefore(b fragment.Boundary, item, anchor fragment.Anchor) {
	s.ops = append(s.ops, wire.Op{
		Code:   wire.OpMove,
		Target: idOf(item),
		Before: idOf(anchor),
	})
}

// SetText implements fragment.Surface.
func (s *RemoteSurface) SetText(n fragment.Node, value string) {
	s.ops = append(s.ops, wire.Op{
		Code:   wire.OpSetText,
		Target: n.(*remoteNode).id,
		Text:   value,
	})
}

// Root implements fragment.Surface.
func (s *RemoteSurface) Root() fragment.Boundary {
	return &s.root
}

// Pending reports whether ops are buffered.
func (s *RemoteSurface) Pending() bool {
	return len(s.ops) > 0
}

// TakeBatch drains buffered ops into a sequenced batch, or returns nil
// if nothing is buffered.
func (s *RemoteSurface) TakeBatch() *wire.OpBatch {
	if len(s.ops) == 0 {
		return nil
	}
	s.seq++
	batch := &wire.OpBatch{Seq: s.seq, Ops: s.ops}
	s.ops = nil
	return batch
}

// Seq returns the sequence of the last taken batch.
func (s *RemoteSurface) Seq() uint64 {
	return s.seq
}

func idOf(v any) uint64 {
	switch h := v.(type) {
	case *remoteNode:
		return h.id
	case *remoteRegion:
		return h.id
	}
	return 0
}

func sortedAttrs(attrs map[string]string) []wire.Attr {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]wire.Attr, len(keys))
	for i, k := range keys {
		out[i] = wire.Attr{Key: k, Value: attrs[k]}
	}
	return out
}
