// Package component drives component instances through their lifecycle and
// hosts the whole update pipeline: it owns the reactive engine, the
// reconciler, and the context bus wiring for a tree of instances.
//
// Each instance moves through a fixed phase machine:
//
//	Created → InputBound → Mounted → Attached ⇄ Updating
//	Attached → Detached → Destroyed
//
// with hooks firing at each transition: onCreate, onInput (with a
// changed-keys memo), onMount (exactly once), onAttach/onDetach (each
// transition), onRender (every evaluation), onUpdate (non-initial
// evaluations), onDestroy (once). Failures during evaluation are isolated to
// the owning instance: the instance enters an error phase, its fallback hook
// runs if registered, and ancestors keep flushing.
//
// The runtime is single-threaded and cooperative. Work from other goroutines
// (async completions, external writes) enters through Dispatch and runs at
// the next Settle.
package component
