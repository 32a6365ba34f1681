package reactive

import (
	"strconv"
	"strings"
)

// Path identifies a location within a reactive store as an ordered sequence
// of keys and indices from the root. Paths are immutable: Child returns a
// fresh slice so wrapped nodes can hold their path without aliasing.
type Path []string

// IndexSegment converts a sequence index into a path segment. The "$"
// prefix keeps index segments disjoint from map keys, so a map key "3"
// and sequence position 3 never collide in the subscription trie.
func IndexSegment(i int) string {
	return "$" + strconv.Itoa(i)
}

// Child returns the path extended with one segment.
func (p Path) Child(segment string) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, segment)
}

// HasPrefix reports whether prefix is a (possibly equal) prefix of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, seg := range prefix {
		if p[i] != seg {
			return false
		}
	}
	return true
}

// Equal reports whether two paths are identical.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i, seg := range p {
		if other[i] != seg {
			return false
		}
	}
	return true
}

// String returns the dotted form, e.g. "user.address.street".
func (p Path) String() string {
	return strings.Join(p, ".")
}
