package reactive

// Tracker records, per fragment, which store paths were read during the
// fragment's last evaluation, and resolves written paths to the fragments
// that must re-evaluate.
//
// Collection is explicit: the evaluation driver brackets every evaluation
// with BeginCollect/EndCollect. Store reads in between land on the fragment
// at the top of the collection stack. There is no hidden goroutine-local
// state; the Tracker travels inside the Engine handed to evaluation.
type Tracker struct {
	trie *subscriberTrie

	// edges holds the current edge set per fragment, replaced wholesale on
	// every EndCollect so stale subscriptions cannot linger.
	edges map[uint64][]Path

	// collecting is the stack of in-progress collections. Nested fragments
	// evaluate inside their parent's evaluation, hence a stack.
	collecting []collectFrame
}

type collectFrame struct {
	fragment uint64
	observed []Path
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		trie:  newSubscriberTrie(),
		edges: make(map[uint64][]Path),
	}
}

// BeginCollect makes fragment the active collection target. Reads performed
// until the matching EndCollect are recorded as the fragment's dependencies.
func (t *Tracker) BeginCollect(fragment uint64) {
	t.collecting = append(t.collecting, collectFrame{fragment: fragment})
}

// EndCollect finishes the innermost collection: the freshly observed edge
// set replaces the fragment's previous one, and edges no longer present are
// removed from the index.
func (t *Tracker) EndCollect() {
	if len(t.collecting) == 0 {
		return
	}
	frame := t.collecting[len(t.collecting)-1]
	t.collecting = t.collecting[:len(t.collecting)-1]

	prev := t.edges[frame.fragment]
	next := frame.observed

	for _, p := range prev {
		if !containsPath(next, p) {
			t.trie.remove(p, frame.fragment)
		}
	}
	for _, p := range next {
		if !containsPath(prev, p) {
			t.trie.add(p, frame.fragment)
		}
	}
	if len(next) == 0 {
		delete(t.edges, frame.fragment)
	} else {
		t.edges[frame.fragment] = next
	}
}

// Observe records a read of path against the active collection target.
// A no-op when no collection is in progress (untracked read).
func (t *Tracker) Observe(path Path) {
	if len(t.collecting) == 0 {
		return
	}
	frame := &t.collecting[len(t.collecting)-1]
	if containsPath(frame.observed, path) {
		return
	}
	frame.observed = append(frame.observed, path)
}

// Collecting reports whether a collection is in progress.
func (t *Tracker) Collecting() bool {
	return len(t.collecting) > 0
}

// Resolve returns the fragments subscribed to path or any prefix of path.
func (t *Tracker) Resolve(path Path) map[uint64]struct{} {
	return t.trie.resolve(path)
}

// Edges returns the fragment's current edge set. Exposed for tests and
// diagnostics.
func (t *Tracker) Edges(fragment uint64) []Path {
	return t.edges[fragment]
}

// DropFragment releases every edge held by fragment. Called when the
// fragment's owning component is destroyed.
func (t *Tracker) DropFragment(fragment uint64) {
	for _, p := range t.edges[fragment] {
		t.trie.remove(p, fragment)
	}
	delete(t.edges, fragment)
}

func containsPath(paths []Path, p Path) bool {
	for _, q := range paths {
		if q.Equal(p) {
			return true
		}
	}
	return false
}
