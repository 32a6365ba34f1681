package reactive

import "strconv"

// Derived is a cached computation over store reads. It recomputes lazily on
// the first Get after any of its dependencies changed, and behaves like a
// readable path itself: fragments that Get a derived value re-evaluate when
// it is invalidated.
//
//	doubled := reactive.NewDerived(eng, func() int {
//	    return root.Read("count").(int) * 2
//	})
type Derived[T any] struct {
	engine  *Engine
	id      uint64
	path    Path
	compute func() T
	value   T
	valid   bool
}

// NewDerived creates a derived value. The computation does not run until the
// first Get.
func NewDerived[T any](e *Engine, compute func() T) *Derived[T] {
	d := &Derived[T]{
		engine:  e,
		id:      NextID(),
		compute: compute,
	}
	d.path = Path{"$derived", strconv.FormatUint(d.id, 10)}
	// Depth -1 sorts derived invalidation ahead of fragments in a round, so
	// dependent fragments see a fresh value in the follow-up round.
	e.scheduler.Register(d.id, -1, func(Change) error {
		d.invalidate()
		return nil
	})
	return d
}

// Get returns the derived value, recomputing it if stale, and records a
// dependency for the collecting fragment.
func (d *Derived[T]) Get() T {
	d.engine.tracker.Observe(d.path)
	if !d.valid {
		d.engine.tracker.BeginCollect(d.id)
		d.value = d.compute()
		d.engine.tracker.EndCollect()
		d.valid = true
	}
	return d.value
}

// Peek returns the cached value without recomputing or subscribing.
func (d *Derived[T]) Peek() T {
	return d.value
}

func (d *Derived[T]) invalidate() {
	if !d.valid {
		return
	}
	d.valid = false
	d.engine.notify(d.path, ChangeValue)
}

// Dispose releases the derived value's edges and scheduler entry.
func (d *Derived[T]) Dispose() {
	d.engine.scheduler.Unregister(d.id)
	d.engine.tracker.DropFragment(d.id)
}
