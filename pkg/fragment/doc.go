// Package fragment materializes render output as a tree of fragments and
// keeps the renderable surface in sync with it.
//
// A Fragment is a unit of rendered output with a stable identity, a boundary
// on the surface delimiting exactly the nodes it produced, and (for dynamic
// fragments) a registration with the update scheduler. Fragment kinds form a
// closed sum (Text, Element, Branch, List, Component), so the reconciler can
// switch exhaustively.
//
// The Reconciler applies minimal surface operations: text fragments update
// only when their content changed, branch fragments swap subtrees only when
// the selector changed, and keyed lists are reordered with a minimal-move
// edit script (longest-increasing-subsequence based), preserving component
// identity across reorders. Unkeyed lists match positionally and are
// explicitly non-identity-preserving.
//
// The only coupling to the host UI layer is the Surface interface; any host
// (in-memory tree, browser DOM over a wire, terminal UI) implements it.
package fragment
