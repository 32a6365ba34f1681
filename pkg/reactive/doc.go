// Package reactive provides the fine-grained update engine at the heart of
// Weft: a path-addressed reactive store, a dependency tracker, and a
// batching update scheduler.
//
// Instead of diffing a whole tree on every change, Weft records which store
// paths each fragment read during its last evaluation and, on a write,
// re-evaluates only the fragments whose recorded paths intersect the written
// path.
//
// # Core Types
//
// Engine wires a Tracker and a Scheduler together and owns stores:
//
//	eng := reactive.NewEngine()
//	store := eng.NewStore(map[string]any{"count": 0})
//
// Node is a wrapped value. Reads during a tracked evaluation subscribe the
// collecting fragment; writes notify the scheduler with the exact path:
//
//	v := store.Root().Read("count") // records the path "count"
//	store.Root().Write("count", 5)  // invalidates subscribers of "count"
//
// # Scheduling
//
// Writes coalesce into an UpdateBatch; the host drives Flush once per tick.
// Writes performed during a flush are deferred to a follow-up batch, never
// processed recursively. Consecutive re-flushes within one tick are capped;
// breaching the cap surfaces ErrSchedulerOverflow.
//
// # Threading
//
// The engine is single-threaded by design: all reads, writes, tracking and
// flushing happen on one logical loop. Cross-goroutine work must be
// marshalled onto that loop by the host (see package live).
package reactive
