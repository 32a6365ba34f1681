package fragment

import (
	"fmt"
	"log/slog"

	"github.com/weft-ui/weft/pkg/reactive"
)

// Host is the reconciler's view of the component runtime. Nested component
// mounts, destruction and input updates go through it, as do the lifecycle
// notifications that drive Updating-phase hooks.
type Host interface {
	// MountChild mounts a nested component into the given boundary and
	// returns its instance ID.
	MountChild(spec *ComponentSpec, b Boundary, depth int, parent uint64) (uint64, error)

	// DestroyChild tears down a nested component instance.
	DestroyChild(id uint64)

	// UpdateChildInput applies new input to a retained child instance.
	UpdateChildInput(id uint64, input map[string]any)

	// ComponentUpdated reports that a fragment owned by the instance was
	// re-evaluated during a flush.
	ComponentUpdated(id uint64)

	// EvaluationFailed reports that a fragment evaluation raised an error.
	// The failure is isolated to the owning instance; the fragment keeps its
	// last-good output.
	EvaluationFailed(id uint64, err error)
}

// Reconciler materializes Output trees as fragments and patches the surface
// with the minimal operation set when fragments re-evaluate.
type Reconciler struct {
	engine  *reactive.Engine
	surface Surface
	host    Host
	logger  *slog.Logger
}

// NewReconciler creates a reconciler over the given engine, surface and host.
func NewReconciler(engine *reactive.Engine, surface Surface, host Host) *Reconciler {
	return &Reconciler{
		engine:  engine,
		surface: surface,
		host:    host,
		logger:  slog.Default(),
	}
}

// SetLogger replaces the reconciler's structured logger.
func (r *Reconciler) SetLogger(l *slog.Logger) {
	if l != nil {
		r.logger = l
	}
}

// Mount materializes out into boundary b. The fragment subtree is registered
// with the scheduler; component is the owning instance ID and depth its
// position in the global fragment tree (parents flush before children).
func (r *Reconciler) Mount(out *Output, b Boundary, depth int, component uint64) (*Fragment, error) {
	return r.mount(out, b, nil, depth, component, false)
}

// MountOwned is Mount with a dedicated nested boundary, so the subtree can
// later be removed or moved as a single item. Component roots use it.
func (r *Reconciler) MountOwned(out *Output, parent Boundary, depth int, component uint64) (*Fragment, error) {
	owned := r.surface.Child(parent, nil)
	f, err := r.mount(out, owned, nil, depth, component, true)
	if err != nil {
		r.surface.Remove(owned)
		return nil, err
	}
	return f, nil
}

func (r *Reconciler) mount(out *Output, b Boundary, before Anchor, depth int, component uint64, owns bool) (*Fragment, error) {
	f := &Fragment{
		ID:           reactive.NextID(),
		Kind:         out.Kind,
		Key:          out.Key,
		Depth:        depth,
		Component:    component,
		out:          out,
		boundary:     b,
		ownsBoundary: owns,
	}

	switch out.Kind {
	case FragText:
		if out.Text == nil {
			f.lastText = out.Static
			f.node = r.surface.Insert(b, NodeSpec{Kind: SpecText, Text: out.Static}, before)
			return f, nil
		}
		text, err := r.collectText(f)
		if err != nil {
			return nil, err
		}
		f.lastText = text
		f.node = r.surface.Insert(b, NodeSpec{Kind: SpecText, Text: text}, before)
		r.register(f)

	case FragElement:
		f.node = r.surface.Insert(b, NodeSpec{Kind: SpecElement, Tag: out.Tag, Attrs: out.Attrs}, before)
		interior := r.surface.Interior(f.node)
		for _, child := range out.Children {
			cf, err := r.mount(child, interior, nil, depth+1, component, false)
			if err != nil {
				return nil, err
			}
			f.children = append(f.children, cf)
		}

	case FragBranch:
		// A dedicated boundary keeps arm swaps at the branch's position.
		// Skip the extra nesting when the caller already handed us one.
		branchB := b
		if !owns {
			branchB = r.surface.Child(b, before)
			f.boundary = branchB
			f.ownsBoundary = true
		}
		arm, err := r.collectArm(f)
		if err != nil {
			return nil, err
		}
		f.lastArm = arm
		if armOut, ok := out.Arms[arm]; ok {
			armB := r.surface.Child(branchB, nil)
			af, err := r.mount(armOut, armB, nil, depth+1, component, true)
			if err != nil {
				return nil, err
			}
			f.arm = af
		}
		r.register(f)

	case FragList:
		listB := b
		if !owns {
			listB = r.surface.Child(b, before)
			f.boundary = listB
			f.ownsBoundary = true
		}
		outs, err := r.collectItems(f)
		if err != nil {
			return nil, err
		}
		for _, itemOut := range outs {
			item, err := r.mountItem(itemOut, f, nil)
			if err != nil {
				return nil, err
			}
			f.items = append(f.items, item)
		}
		r.register(f)

	case FragComponent:
		compB := b
		if !owns {
			compB = r.surface.Child(b, before)
			f.boundary = compB
			f.ownsBoundary = true
		}
		childID, err := r.host.MountChild(out.Component, compB, depth+1, component)
		if err != nil {
			return nil, err
		}
		f.childID = childID

	default:
		return nil, fmt.Errorf("weft: unknown fragment kind %d", out.Kind)
	}
	return f, nil
}

func (r *Reconciler) mountItem(out *Output, list *Fragment, before Anchor) (*listItem, error) {
	itemB := r.surface.Child(list.boundary, before)
	frag, err := r.mount(out, itemB, nil, list.Depth+1, list.Component, true)
	if err != nil {
		r.surface.Remove(itemB)
		return nil, err
	}
	return &listItem{key: out.Key, frag: frag}, nil
}

// register binds the fragment's evaluator to the scheduler.
func (r *Reconciler) register(f *Fragment) {
	r.engine.Scheduler().Register(f.ID, f.Depth, func(change reactive.Change) error {
		err := r.patch(f, change)
		if err != nil {
			r.host.EvaluationFailed(f.Component, err)
			r.logger.Warn("fragment evaluation failed",
				"fragment", f.ID, "kind", f.Kind.String(), "err", err)
			return err
		}
		r.host.ComponentUpdated(f.Component)
		return nil
	})
}

// patch re-evaluates a dynamic fragment and applies the minimal surface
// operations. An error leaves the last-good output in place.
func (r *Reconciler) patch(f *Fragment, change reactive.Change) error {
	switch f.Kind {
	case FragText:
		text, err := r.collectText(f)
		if err != nil {
			return err
		}
		if text != f.lastText {
			f.lastText = text
			r.surface.SetText(f.node, text)
		}
		return nil

	case FragBranch:
		arm, err := r.collectArm(f)
		if err != nil {
			return err
		}
		if arm == f.lastArm {
			return nil
		}
		f.lastArm = arm
		if f.arm != nil {
			r.Unmount(f.arm)
			f.arm = nil
		}
		if armOut, ok := f.out.Arms[arm]; ok {
			armB := r.surface.Child(f.boundary, nil)
			af, err := r.mount(armOut, armB, nil, f.Depth+1, f.Component, true)
			if err != nil {
				return err
			}
			f.arm = af
		}
		return nil

	case FragList:
		outs, err := r.collectItems(f)
		if err != nil {
			return err
		}
		if hasKeys(outs) || listHasKeys(f.items) {
			return r.patchKeyed(f, outs)
		}
		return r.patchPositional(f, outs, change)

	default:
		// Static text, elements and component mounts carry no evaluator.
		return nil
	}
}

// patchKeyed computes the minimal edit script for a keyed collection:
// removals for vanished keys, creates for new keys, and
// longest-increasing-subsequence based moves for retained keys, so members
// already in relative order are left untouched. Retained members keep their
// fragment (and component instance) identity.
func (r *Reconciler) patchKeyed(f *Fragment, outs []*Output) error {
	oldIndex := make(map[string]int, len(f.items))
	for i, item := range f.items {
		if item.key != "" {
			oldIndex[item.key] = i
		}
	}

	// Previous position of each new member; -1 marks a create.
	prevPos := make([]int, len(outs))
	retained := make(map[int]bool, len(f.items))
	for j, out := range outs {
		prevPos[j] = -1
		if out.Key == "" {
			continue
		}
		if i, ok := oldIndex[out.Key]; ok {
			prevPos[j] = i
			retained[i] = true
		}
	}

	// Remove members whose key disappeared (or that never had one).
	for i, item := range f.items {
		if !retained[i] {
			r.Unmount(item.frag)
		}
	}

	stable := make(map[int]bool)
	for _, j := range longestIncreasing(prevPos) {
		stable[j] = true
	}

	// Walk back to front so every placement has its following sibling as
	// anchor.
	next := make([]*listItem, len(outs))
	var anchor Anchor
	var firstErr error
	for j := len(outs) - 1; j >= 0; j-- {
		out := outs[j]
		if prevPos[j] < 0 {
			item, err := r.mountItem(out, f, anchor)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			next[j] = item
			anchor = item.frag.boundary
			continue
		}
		item := f.items[prevPos[j]]
		if !compatible(item.frag, out) {
			replacement, err := r.mountItem(out, f, anchor)
			r.Unmount(item.frag)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			next[j] = replacement
			anchor = replacement.frag.boundary
			continue
		}
		next[j] = item
		if !stable[j] {
			r.surface.MoveBefore(f.boundary, item.frag.boundary, anchor)
		}
		if spec := componentSpec(out); spec != nil && item.frag.Kind == FragComponent {
			r.host.UpdateChildInput(item.frag.childID, spec.Input)
		} else {
			r.rebind(item.frag, out)
		}
		anchor = item.frag.boundary
	}

	f.items = compactItems(next)
	return firstErr
}

// rebind swaps a retained member's subtree onto the freshly collected
// output and re-enqueues its dynamic fragments. The member's store paths
// may have shifted with its position, so the old thunks (and the edges
// they recorded) cannot be trusted; the next round re-collects under the
// new output. Nested component mounts keep their own thunks and are
// reached through UpdateChildInput instead.
func (r *Reconciler) rebind(f *Fragment, out *Output) {
	f.out = out
	switch f.Kind {
	case FragElement:
		for i, child := range f.children {
			if i < len(out.Children) {
				r.rebind(child, out.Children[i])
			}
		}
	case FragBranch:
		if f.arm != nil {
			if armOut, ok := out.Arms[f.lastArm]; ok && armOut != nil {
				r.rebind(f.arm, armOut)
			}
		}
	case FragComponent:
		return
	}
	if f.Registered() {
		r.engine.Scheduler().Invalidate(f.ID, reactive.ChangeValue)
	}
}

// patchPositional matches unkeyed members by index. Identity is not
// preserved across insert or remove at a position: a member whose shape no
// longer matches is fully re-rendered.
func (r *Reconciler) patchPositional(f *Fragment, outs []*Output, change reactive.Change) error {
	var firstErr error

	// Drop trailing members first.
	for i := len(outs); i < len(f.items); i++ {
		r.Unmount(f.items[i].frag)
	}
	if len(f.items) > len(outs) {
		f.items = f.items[:len(outs)]
	}

	for i, out := range outs {
		if i < len(f.items) {
			item := f.items[i]
			if compatible(item.frag, out) {
				if spec := componentSpec(out); spec != nil && item.frag.Kind == FragComponent {
					r.host.UpdateChildInput(item.frag.childID, spec.Input)
				} else {
					r.rebind(item.frag, out)
				}
				continue
			}
			// Replace in place: keep position via the old region's anchor.
			anchor := item.frag.boundary
			replacement, err := r.mountItem(out, f, anchor)
			r.Unmount(item.frag)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			f.items[i] = replacement
			continue
		}
		item, err := r.mountItem(out, f, nil)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		f.items = append(f.items, item)
	}
	return firstErr
}

// Unmount removes the fragment's output from the surface and releases the
// whole subtree: scheduler registrations, dependency edges, and any nested
// component instances (triggering their detach/destroy lifecycle).
func (r *Reconciler) Unmount(f *Fragment) {
	r.Release(f)
	if f.ownsBoundary {
		r.surface.Remove(f.boundary)
	}
}

// Release drops the subtree's registrations and nested components without
// touching the surface. Used when the surface region is being removed
// wholesale by an ancestor.
func (r *Reconciler) Release(f *Fragment) {
	if f == nil {
		return
	}
	r.engine.Scheduler().Unregister(f.ID)
	r.engine.Tracker().DropFragment(f.ID)

	switch f.Kind {
	case FragElement:
		for _, child := range f.children {
			r.Release(child)
		}
	case FragBranch:
		r.Release(f.arm)
	case FragList:
		for _, item := range f.items {
			r.Release(item.frag)
		}
	case FragComponent:
		r.host.DestroyChild(f.childID)
	}
}

// collectText evaluates the text thunk under dependency collection.
func (r *Reconciler) collectText(f *Fragment) (text string, err error) {
	r.engine.Tracker().BeginCollect(f.ID)
	defer r.engine.Tracker().EndCollect()
	defer recoverEval(&err)
	return f.out.Text(), nil
}

// collectArm evaluates the branch selector under dependency collection.
func (r *Reconciler) collectArm(f *Fragment) (arm string, err error) {
	r.engine.Tracker().BeginCollect(f.ID)
	defer r.engine.Tracker().EndCollect()
	defer recoverEval(&err)
	return f.out.Select(), nil
}

// collectItems evaluates the list thunk under dependency collection.
func (r *Reconciler) collectItems(f *Fragment) (outs []*Output, err error) {
	r.engine.Tracker().BeginCollect(f.ID)
	defer r.engine.Tracker().EndCollect()
	defer recoverEval(&err)
	return f.out.Items(), nil
}

func recoverEval(err *error) {
	if rec := recover(); rec != nil {
		if e, ok := rec.(error); ok {
			*err = fmt.Errorf("weft: evaluation panic: %w", e)
			return
		}
		*err = fmt.Errorf("weft: evaluation panic: %v", rec)
	}
}

func compatible(f *Fragment, out *Output) bool {
	if f.Kind != out.Kind {
		return false
	}
	switch out.Kind {
	case FragElement:
		return f.out.Tag == out.Tag
	case FragComponent:
		return f.out.Component != nil && out.Component != nil &&
			f.out.Component.Name == out.Component.Name
	case FragText:
		// Static text differing in content is a different member.
		if f.out.Text == nil && out.Text == nil {
			return f.out.Static == out.Static
		}
		return (f.out.Text == nil) == (out.Text == nil)
	default:
		return true
	}
}

func componentSpec(out *Output) *ComponentSpec {
	if out.Kind != FragComponent {
		return nil
	}
	return out.Component
}

func hasKeys(outs []*Output) bool {
	for _, out := range outs {
		if out.Key != "" {
			return true
		}
	}
	return false
}

func listHasKeys(items []*listItem) bool {
	for _, item := range items {
		if item.key != "" {
			return true
		}
	}
	return false
}

func compactItems(items []*listItem) []*listItem {
	out := items[:0]
	for _, item := range items {
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}
