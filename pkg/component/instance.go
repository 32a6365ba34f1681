package component

import (
	"reflect"

	"github.com/weft-ui/weft/pkg/fragment"
	"github.com/weft-ui/weft/pkg/program"
	"github.com/weft-ui/weft/pkg/reactive"
)

// Instance is one mounted component: its reactive state store, bound
// input, event handlers, and the fragment tree it rendered. Instances are
// created by the runtime, never directly.
type Instance struct {
	id     uint64
	name   string
	rt     *Runtime
	parent *Instance
	depth  int

	children []*Instance

	prog    program.Program
	rc      *program.RenderContext
	input   map[string]any
	statics map[string]any
	store   *reactive.Store

	handlers map[string][]func(args ...any)

	phase    Phase
	attached bool
	lastErr  error

	root     *fragment.Fragment
	boundary fragment.Boundary

	busKeys []string
	busSub  uint64

	// ownedStores are side stores (awaits and the like) destroyed with
	// the instance.
	ownedStores []*reactive.Store
}

// ID returns the instance's runtime-unique identifier.
func (i *Instance) ID() uint64 { return i.id }

// Name returns the component name from its spec.
func (i *Instance) Name() string { return i.name }

// Phase returns the current lifecycle phase.
func (i *Instance) Phase() Phase { return i.phase }

// State returns the root node of the instance's reactive store.
func (i *Instance) State() *reactive.Node { return i.store.Root() }

// LastError returns the evaluation error that put the instance in the
// error phase, or nil.
func (i *Instance) LastError() error { return i.lastErr }

// SetInput merges values into the bound input. Keys whose value actually
// changed are reported to the onInput hook; if nothing changed, neither
// the hook nor a re-render fires.
func (i *Instance) SetInput(values map[string]any) {
	if i.phase == PhaseDestroyed {
		return
	}
	changed := i.mergeInput(values)
	if len(changed) == 0 {
		return
	}
	i.hook(HookInput, changed)
	i.rt.engine.Scheduler().Invalidate(i.id, reactive.ChangeValue)
}

func (i *Instance) mergeInput(values map[string]any) []string {
	var changed []string
	for k, v := range values {
		if old, ok := i.input[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		i.input[k] = v
		changed = append(changed, k)
	}
	return changed
}

// On registers an event handler. Multiple handlers per event run in
// registration order.
func (i *Instance) On(event string, fn func(args ...any)) {
	if i.phase == PhaseDestroyed {
		return
	}
	i.handlers[event] = append(i.handlers[event], fn)
}

// Off removes all handlers for event.
func (i *Instance) Off(event string) {
	delete(i.handlers, event)
}

// Emit fires the handlers registered for event. Handler panics are
// isolated and logged; remaining handlers still run.
func (i *Instance) Emit(event string, args ...any) {
	if i.phase == PhaseDestroyed {
		return
	}
	i.hook(event, args...)
}

// Attach marks the instance live on the surface and fires onAttach.
func (i *Instance) Attach() {
	if i.phase == PhaseDestroyed || i.attached {
		return
	}
	i.attach()
}

func (i *Instance) attach() {
	if i.attached || i.phase == PhaseErrored {
		return
	}
	i.attached = true
	i.phase = PhaseAttached
	i.hook(HookAttach)
}

// Detach takes the instance off the live surface without destroying it.
// Its state and fragments survive; onDetach fires once.
func (i *Instance) Detach() {
	if i.phase == PhaseDestroyed || !i.attached {
		return
	}
	i.attached = false
	i.phase = PhaseDetached
	i.hook(HookDetach)
}

// Destroy tears the instance down: detach, unmount its fragment tree
// (destroying child components transitively), release all reactive
// registrations, then fire onDestroy. Idempotent.
func (i *Instance) Destroy() {
	if i.phase == PhaseDestroyed {
		return
	}
	if i.attached {
		i.Detach()
	}
	if i.root != nil {
		i.rt.recon.Unmount(i.root)
		i.root = nil
	}
	// Children not reachable through the fragment tree (errored before
	// mount completed) still get destroyed.
	for len(i.children) > 0 {
		i.children[0].Destroy()
	}
	i.rt.engine.Scheduler().Unregister(i.id)
	if i.busSub != 0 {
		i.rt.bus.Unsubscribe(i.busSub)
		i.busSub = 0
	}
	i.store.Destroy()
	for _, st := range i.ownedStores {
		st.Destroy()
	}
	i.ownedStores = nil
	i.phase = PhaseDestroyed
	i.hook(HookDestroy)
	i.handlers = nil
	i.rt.remove(i)
}

// adoptStore ties a side store's lifetime to the instance. Adopting onto
// an already destroyed instance kills the store immediately.
func (i *Instance) adoptStore(s *reactive.Store) {
	if i.phase == PhaseDestroyed {
		s.Destroy()
		return
	}
	i.ownedStores = append(i.ownedStores, s)
}

// invalidateOwnedFragments re-enqueues every dynamic fragment this
// instance owns. Runs during a flush, so the fragments land in the next
// round rather than the current one.
func (i *Instance) invalidateOwnedFragments() {
	if i.root == nil {
		return
	}
	sched := i.rt.engine.Scheduler()
	i.root.Walk(func(f *fragment.Fragment) {
		if f.Registered() {
			sched.Invalidate(f.ID, reactive.ChangeValue)
		}
	})
}

// hook runs the handlers for name, recovering panics so one bad hook
// cannot take down the runtime loop.
func (i *Instance) hook(name string, args ...any) {
	fns := i.handlers[name]
	for _, fn := range fns {
		i.runHook(name, fn, args)
	}
}

func (i *Instance) runHook(name string, fn func(args ...any), args []any) {
	defer func() {
		if rec := recover(); rec != nil {
			i.rt.logger.Warn("component hook panicked",
				"component", i.name, "id", i.id, "hook", name, "panic", rec)
		}
	}()
	fn(args...)
}
