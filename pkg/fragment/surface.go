package fragment

// Node is an opaque handle to a host node, created and owned by the Surface.
type Node any

// Boundary is an opaque handle to a contiguous region of the surface. A
// fragment's boundary always delimits exactly the nodes it produced;
// patching a fragment never touches nodes outside its boundary.
type Boundary any

// Anchor is a position reference inside a boundary: a Node, a nested
// Boundary, or nil for the end of the region.
type Anchor any

// SpecKind classifies a node to be created.
type SpecKind uint8

const (
	SpecText    SpecKind = iota // text node
	SpecElement                 // element node
)

// NodeSpec describes a node for Insert.
type NodeSpec struct {
	Kind  SpecKind
	Tag   string
	Attrs map[string]string
	Text  string
}

// Surface is the renderable-surface adapter: the only operations the
// reconciler performs against the host UI layer. Insert, Remove, MoveBefore
// and SetText mutate content; Child and Interior are boundary bookkeeping so
// nested fragments get their own delimited regions.
//
// Implementations: MemSurface (in-memory reference, used by tests) and the
// live wire surface in package live. A terminal or native-widget host would
// implement the same contract.
type Surface interface {
	// Insert creates the described node inside b, before the given anchor
	// (nil appends at the region end), and returns its handle.
	Insert(b Boundary, spec NodeSpec, before Anchor) Node

	// Child opens a nested boundary inside b, before the given anchor.
	Child(b Boundary, before Anchor) Boundary

	// Interior opens the boundary spanning an element node's children.
	Interior(n Node) Boundary

	// Remove deletes the boundary and every node it delimits.
	Remove(b Boundary)

	// MoveBefore moves an item of b (a Node or nested Boundary) before
	// anchor within the same region.
	MoveBefore(b Boundary, item Anchor, anchor Anchor)

	// SetText replaces a text node's content.
	SetText(n Node, value string)

	// Root returns the surface's top-level boundary.
	Root() Boundary
}
