package fragment

import "strings"

// OpKind classifies a surface mutation, for test assertions and telemetry.
type OpKind uint8

const (
	OpInsert OpKind = iota
	OpRemove
	OpMove
	OpSetText
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpMove:
		return "Move"
	case OpSetText:
		return "SetText"
	default:
		return "Unknown"
	}
}

// Op records one surface mutation.
type Op struct {
	Kind  OpKind
	Value string
}

// MemSurface is the in-memory reference Surface. It keeps rendered output as
// a tree of regions and nodes and logs every mutation, which makes minimality
// properties (one move for a rotation, zero ops on an idle flush) directly
// assertable.
type MemSurface struct {
	root *Region
	ops  []Op
}

// Region is a contiguous run of nodes and nested regions.
type Region struct {
	parent *Region
	items  []any // *memNode or *Region
}

type memNode struct {
	kind     SpecKind
	tag      string
	attrs    map[string]string
	text     string
	interior *Region
}

// NewMemSurface creates an empty surface.
func NewMemSurface() *MemSurface {
	return &MemSurface{root: &Region{}}
}

// Root implements Surface.
func (s *MemSurface) Root() Boundary {
	return s.root
}

// Insert implements Surface.
func (s *MemSurface) Insert(b Boundary, spec NodeSpec, before Anchor) Node {
	r := b.(*Region)
	n := &memNode{kind: spec.Kind, tag: spec.Tag, attrs: spec.Attrs, text: spec.Text}
	if spec.Kind == SpecElement {
		n.interior = &Region{}
	}
	r.insert(n, before)
	s.ops = append(s.ops, Op{Kind: OpInsert, Value: spec.Tag + spec.Text})
	return n
}

// Child implements Surface.
func (s *MemSurface) Child(b Boundary, before Anchor) Boundary {
	r := b.(*Region)
	child := &Region{parent: r}
	r.insert(child, before)
	return child
}

// Interior implements Surface.
func (s *MemSurface) Interior(n Node) Boundary {
	return n.(*memNode).interior
}

// Remove implements Surface.
func (s *MemSurface) Remove(b Boundary) {
	r := b.(*Region)
	if r.parent != nil {
		r.parent.delete(r)
	}
	r.items = nil
	s.ops = append(s.ops, Op{Kind: OpRemove})
}

// MoveBefore implements Surface.
func (s *MemSurface) MoveBefore(b Boundary, item Anchor, anchor Anchor) {
	r := b.(*Region)
	r.delete(item)
	r.insert(item, anchor)
	s.ops = append(s.ops, Op{Kind: OpMove})
}

// SetText implements Surface.
func (s *MemSurface) SetText(n Node, value string) {
	mn := n.(*memNode)
	mn.text = value
	s.ops = append(s.ops, Op{Kind: OpSetText, Value: value})
}

// Ops returns the mutation log since the last reset.
func (s *MemSurface) Ops() []Op {
	return s.ops
}

// OpCount returns the number of mutations of the given kind since reset.
func (s *MemSurface) OpCount(kind OpKind) int {
	count := 0
	for _, op := range s.ops {
		if op.Kind == kind {
			count++
		}
	}
	return count
}

// ResetOps clears the mutation log.
func (s *MemSurface) ResetOps() {
	s.ops = nil
}

// Text returns the flattened text content of the whole surface.
func (s *MemSurface) Text() string {
	var sb strings.Builder
	flattenText(s.root, &sb)
	return sb.String()
}

// HTML returns a minimal markup rendering, for readable test failures.
func (s *MemSurface) HTML() string {
	var sb strings.Builder
	flattenHTML(s.root, &sb)
	return sb.String()
}

func (r *Region) insert(item any, before Anchor) {
	if before == nil {
		r.items = append(r.items, item)
		return
	}
	for i, existing := range r.items {
		if existing == before {
			r.items = append(r.items[:i], append([]any{item}, r.items[i:]...)...)
			return
		}
	}
	r.items = append(r.items, item)
}

func (r *Region) delete(item any) {
	for i, existing := range r.items {
		if existing == item {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return
		}
	}
}

func flattenText(r *Region, sb *strings.Builder) {
	for _, item := range r.items {
		switch v := item.(type) {
		case *memNode:
			if v.kind == SpecText {
				sb.WriteString(v.text)
			} else if v.interior != nil {
				flattenText(v.interior, sb)
			}
		case *Region:
			flattenText(v, sb)
		}
	}
}

func flattenHTML(r *Region, sb *strings.Builder) {
	for _, item := range r.items {
		switch v := item.(type) {
		case *memNode:
			if v.kind == SpecText {
				sb.WriteString(v.text)
				continue
			}
			sb.WriteString("<" + v.tag)
			for k, a := range v.attrs {
				sb.WriteString(" " + k + "=\"" + a + "\"")
			}
			sb.WriteString(">")
			if v.interior != nil {
				flattenHTML(v.interior, sb)
			}
			sb.WriteString("</" + v.tag + ">")
		case *Region:
			flattenHTML(v, sb)
		}
	}
}
