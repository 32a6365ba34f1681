package component

import (
	"github.com/weft-ui/weft/pkg/reactive"
)

// AsyncState is the lifecycle of one asynchronous operation.
type AsyncState int

const (
	AsyncIdle AsyncState = iota
	AsyncPending
	AsyncResolved
	AsyncRejected
)

func (s AsyncState) String() string {
	switch s {
	case AsyncIdle:
		return "idle"
	case AsyncPending:
		return "pending"
	case AsyncResolved:
		return "resolved"
	case AsyncRejected:
		return "rejected"
	}
	return "unknown"
}

// Await runs a fetcher off the runtime loop and lands the result back on
// it through Dispatch. State, value and error live in a reactive store
// owned by the component that created the Await, so render thunks that
// read them re-evaluate when the operation settles, and a completion
// arriving after the owner's destruction mutates nothing.
//
// Each Start bumps an attempt token; a completion carrying a stale token
// is discarded, so only the latest attempt ever lands. Starting again
// while pending supersedes the in-flight attempt rather than cancelling
// it.
type Await[T any] struct {
	rt    *Runtime
	store *reactive.Store
	fetch func() (T, error)

	// attempt is read and written on the runtime loop only; completions
	// capture their token by value before leaving the loop.
	attempt uint64
}

// NewAwait creates an idle Await owned by inst; its backing store is
// destroyed with the instance. Call Start to kick off the first fetch.
func NewAwait[T any](inst *Instance, fetch func() (T, error)) *Await[T] {
	var zero T
	store := inst.rt.engine.NewStore(map[string]any{
		"state": int(AsyncIdle),
		"value": zero,
		"error": error(nil),
	})
	inst.adoptStore(store)
	return &Await[T]{rt: inst.rt, store: store, fetch: fetch}
}

// State returns the current async state, tracked. A disposed Await
// reads as idle.
func (a *Await[T]) State() AsyncState {
	s, _ := a.store.Root().Read("state").(int)
	return AsyncState(s)
}

// Value returns the last resolved value, tracked. Zero until the first
// resolution.
func (a *Await[T]) Value() T {
	v, _ := a.store.Root().Read("value").(T)
	return v
}

// ValueOr returns the resolved value, or fallback while not resolved.
func (a *Await[T]) ValueOr(fallback T) T {
	if a.State() != AsyncResolved {
		return fallback
	}
	return a.Value()
}

// Err returns the rejection error, tracked. Nil unless rejected.
func (a *Await[T]) Err() error {
	e, _ := a.store.Root().Read("error").(error)
	return e
}

// Start begins a new attempt. Must be called on the runtime loop.
func (a *Await[T]) Start() {
	a.attempt++
	token := a.attempt
	root := a.store.Root()
	root.Write("state", int(AsyncPending))
	root.Write("error", error(nil))

	fetch := a.fetch
	go func() {
		value, err := fetch()
		a.rt.Dispatch(func() {
			a.deliver(token, value, err)
		})
	}()
}

// deliver lands a completion on the runtime loop. Stale tokens are
// dropped without touching the store.
func (a *Await[T]) deliver(token uint64, value T, err error) {
	if token != a.attempt || a.store.Destroyed() {
		return
	}
	root := a.store.Root()
	if err != nil {
		root.Write("error", err)
		root.Write("state", int(AsyncRejected))
		return
	}
	root.Write("value", value)
	root.Write("state", int(AsyncResolved))
}

// Reset returns the Await to idle, superseding any in-flight attempt.
func (a *Await[T]) Reset() {
	a.attempt++
	var zero T
	root := a.store.Root()
	root.Write("state", int(AsyncIdle))
	root.Write("value", zero)
	root.Write("error", error(nil))
}

// Dispose destroys the backing store. In-flight completions become no-ops.
func (a *Await[T]) Dispose() {
	a.attempt++
	a.store.Destroy()
}
