package reactive

// Kind classifies a wrapped value.
type Kind uint8

const (
	KindScalar Kind = iota // leaf value
	KindMap                // structured map
	KindSeq                // ordered sequence
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindMap:
		return "Map"
	case KindSeq:
		return "Seq"
	default:
		return "Unknown"
	}
}

// Change classifies a write notification. The reconciler needs to distinguish
// "the value at index 2 changed" from "an element was inserted at index 2".
type Change uint8

const (
	ChangeValue     Change = iota // value replaced in place
	ChangeStructure               // sequence shape changed (insert/remove/reorder)
)

// String returns the string representation of the Change.
func (c Change) String() string {
	switch c {
	case ChangeValue:
		return "Value"
	case ChangeStructure:
		return "Structure"
	default:
		return "Unknown"
	}
}

// Store wraps one component's structured state for observation. All access
// goes through Node's Read/Write API; mutating the underlying containers
// through an unwrapped alias bypasses tracking and is a caller contract
// violation with undefined behavior.
type Store struct {
	id        uint64
	engine    *Engine
	root      *Node
	destroyed bool
}

// NewStore wraps initial as the root of a fresh store. A nil map is treated
// as empty.
func (e *Engine) NewStore(initial map[string]any) *Store {
	if initial == nil {
		initial = make(map[string]any)
	}
	s := &Store{id: NextID(), engine: e}
	s.root = &Node{store: s, path: Path{}, kind: KindMap, raw: initial}
	return s
}

// Root returns the root node.
func (s *Store) Root() *Node {
	return s.root
}

// Destroy marks the store dead. Later writes are ignored and logged as
// stale; the wrapper tree is released with its owning component.
func (s *Store) Destroy() {
	s.destroyed = true
	s.root = &Node{store: s, path: Path{}, kind: KindMap, raw: map[string]any{}}
}

// Destroyed reports whether Destroy has been called.
func (s *Store) Destroyed() bool {
	return s.destroyed
}

// Node is a value wrapped for observation: it knows its path from the store
// root and forwards reads to the dependency tracker and writes to the
// scheduler. Structured children are wrapped lazily on first read, so a
// large initial tree costs nothing until it is actually traversed.
type Node struct {
	store    *Store
	path     Path
	kind     Kind
	raw      any
	children map[string]*Node

	// equal, when set, suppresses notifications for writes through this node
	// whose new value compares equal. Off by default: an equal write still
	// notifies, per the engine's correctness contract.
	equal func(old, new any) bool
}

// Path returns the node's path from the store root.
func (n *Node) Path() Path {
	return n.path
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// WithEquals enables equality suppression for writes through this node.
func (n *Node) WithEquals(fn func(old, new any) bool) *Node {
	n.equal = fn
	return n
}

// Read returns the child value under key, recording the child path with the
// currently collecting fragment. Structured children come back wrapped.
func (n *Node) Read(key string) any {
	n.store.engine.tracker.Observe(n.path.Child(key))
	return n.child(key)
}

// ReadIndex is Read for sequence positions.
func (n *Node) ReadIndex(i int) any {
	return n.Read(IndexSegment(i))
}

// Peek returns the child value without recording a dependency.
func (n *Node) Peek(key string) any {
	return n.child(key)
}

// PeekIndex is Peek for sequence positions.
func (n *Node) PeekIndex(i int) any {
	return n.Peek(IndexSegment(i))
}

// Len returns the sequence length (or map size), recording a dependency on
// the node itself so structural changes re-evaluate the reader.
func (n *Node) Len() int {
	n.store.engine.tracker.Observe(n.path)
	switch v := n.raw.(type) {
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	default:
		return 0
	}
}

// Observe records a dependency on the node itself without reading anything.
// List fragments use it to subscribe to sequence shape.
func (n *Node) Observe() {
	n.store.engine.tracker.Observe(n.path)
}

// Raw returns the underlying value without wrapping or tracking.
func (n *Node) Raw() any {
	return n.raw
}

// Write replaces the child value under key and notifies the scheduler with
// the exact child path. Writing a value equal to the previous one still
// notifies unless WithEquals is set on this node.
func (n *Node) Write(key string, value any) {
	if n.store.destroyed {
		n.store.engine.logger.Warn("stale write ignored",
			"path", n.path.Child(key).String(), "err", ErrStaleWrite)
		return
	}
	old := n.child(key)
	if n.equal != nil && n.equal(old, value) {
		return
	}
	switch raw := n.raw.(type) {
	case map[string]any:
		raw[key] = value
	case []any:
		if i, ok := seqIndex(key, len(raw)); ok {
			raw[i] = value
		} else {
			return
		}
	default:
		return
	}
	// A replaced subtree gets a fresh wrapper on next read.
	delete(n.children, key)
	n.store.engine.notify(n.path.Child(key), ChangeValue)
}

// WriteIndex is Write for sequence positions.
func (n *Node) WriteIndex(i int, value any) {
	n.Write(IndexSegment(i), value)
}

// Append adds a value at the end of a sequence node.
func (n *Node) Append(value any) {
	raw, ok := n.raw.([]any)
	if !ok {
		return
	}
	n.structural(append(raw, value))
}

// InsertAt inserts a value at position i of a sequence node.
func (n *Node) InsertAt(i int, value any) {
	raw, ok := n.raw.([]any)
	if !ok || i < 0 || i > len(raw) {
		return
	}
	next := make([]any, 0, len(raw)+1)
	next = append(next, raw[:i]...)
	next = append(next, value)
	next = append(next, raw[i:]...)
	n.structural(next)
}

// RemoveAt removes position i of a sequence node.
func (n *Node) RemoveAt(i int) {
	raw, ok := n.raw.([]any)
	if !ok || i < 0 || i >= len(raw) {
		return
	}
	next := append(append(make([]any, 0, len(raw)-1), raw[:i]...), raw[i+1:]...)
	n.structural(next)
}

// Move relocates the element at from to position to, shifting neighbors.
func (n *Node) Move(from, to int) {
	raw, ok := n.raw.([]any)
	if !ok || from < 0 || from >= len(raw) || to < 0 || to >= len(raw) || from == to {
		return
	}
	next := make([]any, 0, len(raw))
	next = append(next, raw[:from]...)
	next = append(next, raw[from+1:]...)
	moved := raw[from]
	next = append(next[:to], append([]any{moved}, next[to:]...)...)
	n.structural(next)
}

// structural installs the reshaped sequence, drops the now index-stale child
// wrappers, and raises a structural-change notification at the node's path.
func (n *Node) structural(next []any) {
	if n.store.destroyed {
		n.store.engine.logger.Warn("stale write ignored",
			"path", n.path.String(), "err", ErrStaleWrite)
		return
	}
	n.raw = next
	n.children = nil
	n.reattach()
	n.store.engine.notify(n.path, ChangeStructure)
}

// reattach re-points the parent container's slot at the reshaped slice.
// The root map holds sub-slices by value reference, so the parent's entry
// must be updated when a sequence header changes.
func (n *Node) reattach() {
	if len(n.path) == 0 {
		return
	}
	parentPath := n.path[:len(n.path)-1]
	key := n.path[len(n.path)-1]
	parent := n.store.root
	for _, seg := range parentPath {
		child := parent.child(seg)
		node, ok := child.(*Node)
		if !ok {
			return
		}
		parent = node
	}
	switch raw := parent.raw.(type) {
	case map[string]any:
		raw[key] = n.raw
	case []any:
		if i, ok := seqIndex(key, len(raw)); ok {
			raw[i] = n.raw
		}
	}
}

// child returns the wrapped child for structured values, or the scalar
// itself, creating wrappers lazily.
func (n *Node) child(key string) any {
	var value any
	switch raw := n.raw.(type) {
	case map[string]any:
		value = raw[key]
	case []any:
		i, ok := seqIndex(key, len(raw))
		if !ok {
			return nil
		}
		value = raw[i]
	default:
		return nil
	}

	kind := kindOf(value)
	if kind == KindScalar {
		return value
	}
	if cached, ok := n.children[key]; ok && cached.raw != nil {
		return cached
	}
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	wrapped := &Node{store: n.store, path: n.path.Child(key), kind: kind, raw: value}
	n.children[key] = wrapped
	return wrapped
}

func kindOf(value any) Kind {
	switch value.(type) {
	case map[string]any:
		return KindMap
	case []any:
		return KindSeq
	default:
		return KindScalar
	}
}

func seqIndex(key string, length int) (int, bool) {
	if len(key) < 2 || key[0] != '$' {
		return 0, false
	}
	i := 0
	for _, c := range key[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		i = i*10 + int(c-'0')
	}
	if i >= length {
		return 0, false
	}
	return i, true
}
