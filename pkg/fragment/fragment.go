package fragment

// Fragment is a unit of rendered output with a stable identity. Fragments
// form a tree mirroring template nesting; each dynamic fragment holds a
// scheduler registration and the dependency edges recorded during its last
// evaluation (the edges themselves live in the tracker, keyed by ID).
//
// A fragment holds only a non-owning back-reference (Component, an instance
// ID) to the component that owns it; ownership runs the other way.
type Fragment struct {
	ID        uint64
	Kind      FragKind
	Key       string
	Depth     int
	Component uint64

	out *Output

	// boundary is the region this fragment's content occupies. Branch arms,
	// list items and component roots own a dedicated nested boundary so the
	// whole subtree can be removed or moved as one item; other fragments
	// share their parent's region.
	boundary     Boundary
	ownsBoundary bool

	// Text state.
	node     Node
	lastText string

	// Element state.
	children []*Fragment

	// Branch state.
	lastArm string
	arm     *Fragment

	// List state.
	items []*listItem

	// Component state: the mounted child instance, owned by the host.
	childID uint64
}

type listItem struct {
	key  string
	frag *Fragment
}

// Boundary returns the region delimiting this fragment's output.
func (f *Fragment) Boundary() Boundary {
	return f.boundary
}

// Registered reports whether this fragment holds a scheduler registration.
// Dynamic text, branches and lists do; static text, plain elements and
// component mounts do not.
func (f *Fragment) Registered() bool {
	switch f.Kind {
	case FragText:
		return f.out != nil && f.out.Text != nil
	case FragBranch, FragList:
		return true
	}
	return false
}

// Walk visits the fragment and every descendant owned by the same component,
// stopping at nested component mounts (those belong to their own instance).
func (f *Fragment) Walk(fn func(*Fragment)) {
	fn(f)
	switch f.Kind {
	case FragElement:
		for _, child := range f.children {
			child.Walk(fn)
		}
	case FragBranch:
		if f.arm != nil {
			f.arm.Walk(fn)
		}
	case FragList:
		for _, item := range f.items {
			item.frag.Walk(fn)
		}
	}
}
