package component

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/weft-ui/weft/pkg/bus"
	"github.com/weft-ui/weft/pkg/fragment"
	"github.com/weft-ui/weft/pkg/program"
	"github.com/weft-ui/weft/pkg/reactive"
)

// Runtime hosts a tree of component instances over one surface. It owns the
// reactive engine and reconciler and implements the reconciler's Host
// interface, so nested component mounts inside render output route back
// here.
type Runtime struct {
	engine  *reactive.Engine
	surface fragment.Surface
	recon   *fragment.Reconciler
	bus     *bus.Bus
	logger  *slog.Logger

	instances map[uint64]*Instance

	// Dispatch queue: the single entry point for work from other
	// goroutines. Drained on the runtime loop by Settle.
	dispatchMu sync.Mutex
	dispatchQ  []func()
	dispatcher func(fn func())

	totalMounts   atomic.Uint64
	totalDestroys atomic.Uint64
	dispatches    atomic.Uint64
}

var _ fragment.Host = (*Runtime)(nil)

// Option configures a Runtime.
type Option func(*options)

type options struct {
	bus        *bus.Bus
	logger     *slog.Logger
	dispatcher func(fn func())
	schedOpts  []reactive.SchedulerOption
}

// WithBus shares an existing context bus across runtimes.
func WithBus(b *bus.Bus) Option {
	return func(o *options) { o.bus = b }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDispatcher routes Dispatch through the host's own loop (the live
// session event loop) instead of the built-in queue.
func WithDispatcher(fn func(fn func())) Option {
	return func(o *options) { o.dispatcher = fn }
}

// WithFlushCap overrides the scheduler's consecutive re-flush cap.
func WithFlushCap(n int) Option {
	return func(o *options) {
		o.schedOpts = append(o.schedOpts, reactive.WithFlushCap(n))
	}
}

// WithObserver attaches scheduler telemetry (see package telemetry).
func WithObserver(obs reactive.Observer) Option {
	return func(o *options) {
		o.schedOpts = append(o.schedOpts, reactive.WithObserver(obs))
	}
}

// New creates a runtime rendering onto surface.
func New(surface fragment.Surface, opts ...Option) *Runtime {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.bus == nil {
		o.bus = bus.New()
	}

	rt := &Runtime{
		surface:    surface,
		bus:        o.bus,
		logger:     o.logger,
		instances:  make(map[uint64]*Instance),
		dispatcher: o.dispatcher,
	}
	rt.engine = reactive.NewEngine(o.schedOpts...)
	rt.engine.SetLogger(o.logger)
	rt.recon = fragment.NewReconciler(rt.engine, surface, rt)
	rt.recon.SetLogger(o.logger)
	return rt
}

// Engine returns the runtime's reactive engine.
func (rt *Runtime) Engine() *reactive.Engine {
	return rt.engine
}

// Bus returns the context bus.
func (rt *Runtime) Bus() *bus.Bus {
	return rt.bus
}

// Mount mounts a root component at the surface root and attaches it.
func (rt *Runtime) Mount(spec *fragment.ComponentSpec) (*Instance, error) {
	inst, err := rt.mountInstance(spec, rt.surface.Root(), 0, nil)
	if err != nil {
		return nil, err
	}
	inst.attach()
	return inst, nil
}

// MountDetached mounts a root component without attaching it to the live
// surface; its output exists but Attach has not fired.
func (rt *Runtime) MountDetached(spec *fragment.ComponentSpec) (*Instance, error) {
	return rt.mountInstance(spec, rt.surface.Root(), 0, nil)
}

// Instance returns a live instance by ID, or nil.
func (rt *Runtime) Instance(id uint64) *Instance {
	return rt.instances[id]
}

// SetContext updates a context bus entry. Must be called on the runtime
// loop; components that declared the key get their root fragment
// invalidated through the scheduler.
func (rt *Runtime) SetContext(key string, value any) {
	rt.bus.Set(key, value)
}

// Dispatch marshals fn onto the runtime loop. Safe to call from any
// goroutine; this is the only cross-goroutine entry point.
func (rt *Runtime) Dispatch(fn func()) {
	rt.dispatches.Add(1)
	if rt.dispatcher != nil {
		rt.dispatcher(fn)
		return
	}
	rt.dispatchMu.Lock()
	rt.dispatchQ = append(rt.dispatchQ, fn)
	rt.dispatchMu.Unlock()
}

// Settle drains dispatched work and flushes pending updates. This is the
// tick boundary for embedded use; hosted runtimes settle after each event.
func (rt *Runtime) Settle() error {
	for {
		rt.dispatchMu.Lock()
		queue := rt.dispatchQ
		rt.dispatchQ = nil
		rt.dispatchMu.Unlock()
		if len(queue) == 0 {
			break
		}
		for _, fn := range queue {
			fn()
		}
	}
	return rt.engine.Settle()
}

// Stats is a point-in-time runtime snapshot.
type Stats struct {
	LiveComponents int
	TotalMounts    uint64
	TotalDestroys  uint64
	Dispatches     uint64
}

// Stats returns runtime counters.
func (rt *Runtime) Stats() Stats {
	return Stats{
		LiveComponents: len(rt.instances),
		TotalMounts:    rt.totalMounts.Load(),
		TotalDestroys:  rt.totalDestroys.Load(),
		Dispatches:     rt.dispatches.Load(),
	}
}

// mountInstance allocates an instance, runs it through Created → InputBound
// → Mounted, and registers its root-invalidation entry with the scheduler.
// An evaluation failure leaves the instance in the error phase with no
// output; the failure never propagates to the caller's tree.
func (rt *Runtime) mountInstance(spec *fragment.ComponentSpec, b fragment.Boundary, depth int, parent *Instance) (*Instance, error) {
	prog, ok := spec.Program.(program.Program)
	if !ok {
		return nil, fmt.Errorf("%w: component %q", ErrNotAProgram, spec.Name)
	}

	inst := &Instance{
		id:       reactive.NextID(),
		name:     spec.Name,
		rt:       rt,
		parent:   parent,
		depth:    depth,
		prog:     prog,
		input:    make(map[string]any, len(spec.Input)),
		statics:  spec.Static,
		handlers: make(map[string][]func(args ...any), len(spec.Handlers)),
	}
	for name, fn := range spec.Handlers {
		inst.handlers[name] = []func(args ...any){fn}
	}
	inst.store = rt.engine.NewStore(cloneMap(spec.State))

	rt.instances[inst.id] = inst
	rt.totalMounts.Add(1)
	if parent != nil {
		parent.children = append(parent.children, inst)
	}

	inst.phase = PhaseCreated
	inst.hook(HookCreate)

	changed := inst.mergeInput(spec.Input)
	inst.phase = PhaseInputBound
	inst.hook(HookInput, changed)

	inst.rc = &program.RenderContext{
		Engine: rt.engine,
		Bindings: program.Bindings{
			Input:   inst.input,
			State:   inst.store.Root(),
			Static:  inst.statics,
			Context: contextReader{rt: rt},
		},
		Emit: inst.Emit,
	}

	out, err := evaluateProgram(prog, inst.rc)
	if err == nil {
		inst.root, err = rt.recon.MountOwned(out, b, depth, inst.id)
	}
	if err != nil {
		rt.failInstance(inst, err)
		return inst, nil
	}
	inst.boundary = inst.root.Boundary()

	// Root-invalidation entry: context or input changes re-enqueue every
	// dynamic fragment this instance owns.
	rt.engine.Scheduler().Register(inst.id, depth, func(reactive.Change) error {
		inst.invalidateOwnedFragments()
		return nil
	})

	if len(spec.ContextKeys) > 0 {
		keys := append([]string(nil), spec.ContextKeys...)
		inst.busKeys = keys
		inst.busSub = rt.bus.Subscribe(keys, func(string, any) {
			rt.engine.Scheduler().Invalidate(inst.id, reactive.ChangeValue)
		})
	}

	inst.phase = PhaseMounted
	inst.hook(HookRender)
	inst.hook(HookMount)
	return inst, nil
}

func (rt *Runtime) failInstance(inst *Instance, err error) {
	inst.lastErr = &EvaluationError{Component: inst.id, Name: inst.name, Err: err}
	inst.phase = PhaseErrored
	rt.logger.Warn("component evaluation failed", "component", inst.name, "id", inst.id, "err", err)
	inst.hook(HookError, inst.lastErr)
}

// MountChild implements fragment.Host.
func (rt *Runtime) MountChild(spec *fragment.ComponentSpec, b fragment.Boundary, depth int, parent uint64) (uint64, error) {
	inst, err := rt.mountInstance(spec, b, depth, rt.instances[parent])
	if err != nil {
		return 0, err
	}
	inst.attach()
	return inst.id, nil
}

// DestroyChild implements fragment.Host.
func (rt *Runtime) DestroyChild(id uint64) {
	if inst, ok := rt.instances[id]; ok {
		inst.Destroy()
	}
}

// UpdateChildInput implements fragment.Host.
func (rt *Runtime) UpdateChildInput(id uint64, input map[string]any) {
	if inst, ok := rt.instances[id]; ok {
		inst.SetInput(input)
	}
}

// ComponentUpdated implements fragment.Host: a fragment owned by the
// instance was re-evaluated during a flush.
func (rt *Runtime) ComponentUpdated(id uint64) {
	inst, ok := rt.instances[id]
	if !ok || inst.phase == PhaseDestroyed {
		return
	}
	if inst.phase == PhaseErrored {
		// Successful evaluation clears the error marker.
		inst.lastErr = nil
		inst.phase = PhaseAttached
	}
	prev := inst.phase
	if prev == PhaseAttached {
		inst.phase = PhaseUpdating
	}
	inst.hook(HookRender)
	inst.hook(HookUpdate)
	if inst.phase == PhaseUpdating {
		inst.phase = prev
	}
}

// EvaluationFailed implements fragment.Host.
func (rt *Runtime) EvaluationFailed(id uint64, err error) {
	inst, ok := rt.instances[id]
	if !ok || inst.phase == PhaseDestroyed {
		return
	}
	rt.failInstance(inst, err)
}

func (rt *Runtime) remove(inst *Instance) {
	delete(rt.instances, inst.id)
	rt.totalDestroys.Add(1)
	if inst.parent != nil {
		siblings := inst.parent.children
		for i, c := range siblings {
			if c == inst {
				inst.parent.children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
}

// contextReader is the bindings' read view of the bus.
type contextReader struct {
	rt *Runtime
}

// Get implements program.ContextReader.
func (c contextReader) Get(key string) any {
	return c.rt.bus.Get(key)
}

func evaluateProgram(prog program.Program, rc *program.RenderContext) (out *fragment.Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("weft: render program panic: %v", rec)
		}
	}()
	return prog.Evaluate(rc), nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
