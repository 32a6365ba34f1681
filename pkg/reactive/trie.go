package reactive

// subscriberTrie maps path segments to subscriber sets. Resolution walks the
// written path from the root and unions the subscriber set at every level, so
// a write to "user.address.street" wakes subscribers of "user",
// "user.address" and "user.address.street" in O(depth), without scanning
// unrelated subscribers or deeper unread children.
type subscriberTrie struct {
	root *trieNode
}

type trieNode struct {
	children map[string]*trieNode
	subs     map[uint64]struct{}
}

func newSubscriberTrie() *subscriberTrie {
	return &subscriberTrie{root: &trieNode{}}
}

// add registers fragment as a subscriber of path.
func (t *subscriberTrie) add(path Path, fragment uint64) {
	n := t.root
	for _, seg := range path {
		if n.children == nil {
			n.children = make(map[string]*trieNode)
		}
		child, ok := n.children[seg]
		if !ok {
			child = &trieNode{}
			n.children[seg] = child
		}
		n = child
	}
	if n.subs == nil {
		n.subs = make(map[uint64]struct{})
	}
	n.subs[fragment] = struct{}{}
}

// remove unregisters fragment from path, pruning nodes left empty.
func (t *subscriberTrie) remove(path Path, fragment uint64) {
	t.removeFrom(t.root, path, fragment)
}

func (t *subscriberTrie) removeFrom(n *trieNode, path Path, fragment uint64) bool {
	if len(path) == 0 {
		delete(n.subs, fragment)
	} else {
		child, ok := n.children[path[0]]
		if !ok {
			return len(n.subs) == 0 && len(n.children) == 0
		}
		if t.removeFrom(child, path[1:], fragment) {
			delete(n.children, path[0])
		}
	}
	return len(n.subs) == 0 && len(n.children) == 0
}

// resolve returns the subscribers of path and of every prefix of path.
func (t *subscriberTrie) resolve(path Path) map[uint64]struct{} {
	out := make(map[uint64]struct{})
	n := t.root
	for id := range n.subs {
		out[id] = struct{}{}
	}
	for _, seg := range path {
		child, ok := n.children[seg]
		if !ok {
			return out
		}
		n = child
		for id := range n.subs {
			out[id] = struct{}{}
		}
	}
	return out
}
