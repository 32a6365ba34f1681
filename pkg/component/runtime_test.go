package component

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/weft-ui/weft/pkg/fragment"
	"github.com/weft-ui/weft/pkg/program"
	"github.com/weft-ui/weft/pkg/reactive"
)

// hookRecorder builds a handler table whose lifecycle hooks append their
// names to a shared log.
func hookRecorder(log *[]string, names ...string) map[string]func(args ...any) {
	handlers := make(map[string]func(args ...any), len(names))
	for _, name := range names {
		name := name
		handlers[name] = func(args ...any) { *log = append(*log, name) }
	}
	return handlers
}

func TestMountHookOrder(t *testing.T) {
	rt := New(fragment.NewMemSurface())
	var log []string

	spec := &fragment.ComponentSpec{
		Name: "probe",
		Program: program.Func(func(rc *program.RenderContext) *fragment.Output {
			return fragment.Text("ok")
		}),
		Handlers: hookRecorder(&log,
			HookCreate, HookInput, HookRender, HookMount, HookAttach),
	}
	inst, err := rt.Mount(spec)
	if err != nil {
		t.Fatalf("Mount() = %v", err)
	}
	want := []string{HookCreate, HookInput, HookRender, HookMount, HookAttach}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("hook order = %v, want %v", log, want)
	}
	if inst.Phase() != PhaseAttached {
		t.Errorf("Phase() = %v, want Attached", inst.Phase())
	}
}

func TestCounterUpdate(t *testing.T) {
	surface := fragment.NewMemSurface()
	rt := New(surface)
	var log []string

	var state *reactive.Node
	spec := &fragment.ComponentSpec{
		Name:  "counter",
		State: map[string]any{"count": 0},
		Program: program.Func(func(rc *program.RenderContext) *fragment.Output {
			state = rc.Bindings.State
			return fragment.El("div", nil, fragment.Dynamic(func() string {
				return fmt.Sprint(state.Read("count"))
			}))
		}),
		Handlers: map[string]func(args ...any){
			"increment": func(args ...any) {
				state.Write("count", state.Peek("count").(int)+1)
			},
		},
	}
	inst, err := rt.Mount(spec)
	if err != nil {
		t.Fatalf("Mount() = %v", err)
	}
	if got := surface.Text(); got != "0" {
		t.Fatalf("initial Text() = %q", got)
	}

	inst.On(HookUpdate, func(args ...any) { log = append(log, HookUpdate) })
	inst.Emit("increment")
	if err := rt.Settle(); err != nil {
		t.Fatalf("Settle() = %v", err)
	}

	if got := surface.Text(); got != "1" {
		t.Errorf("Text() = %q, want 1", got)
	}
	if inst.Phase() != PhaseAttached {
		t.Errorf("Phase() after flush = %v, want Attached", inst.Phase())
	}
	if len(log) == 0 {
		t.Error("onUpdate never fired")
	}
}

func TestSetInputChangedKeys(t *testing.T) {
	surface := fragment.NewMemSurface()
	rt := New(surface)
	var reported [][]string

	var rcRef *program.RenderContext
	spec := &fragment.ComponentSpec{
		Name:  "greeter",
		Input: map[string]any{"label": "hello"},
		Program: program.Func(func(rc *program.RenderContext) *fragment.Output {
			rcRef = rc
			return fragment.Dynamic(func() string {
				s, _ := rcRef.Bindings.Input["label"].(string)
				return s
			})
		}),
		Handlers: map[string]func(args ...any){
			HookInput: func(args ...any) {
				changed, _ := args[0].([]string)
				reported = append(reported, changed)
			},
		},
	}
	inst, err := rt.Mount(spec)
	if err != nil {
		t.Fatalf("Mount() = %v", err)
	}
	if got := surface.Text(); got != "hello" {
		t.Fatalf("initial Text() = %q", got)
	}
	if len(reported) != 1 || !reflect.DeepEqual(reported[0], []string{"label"}) {
		t.Fatalf("mount-time onInput reported %v", reported)
	}

	// Same value: no hook, no re-render.
	inst.SetInput(map[string]any{"label": "hello"})
	rt.Settle()
	if len(reported) != 1 {
		t.Errorf("unchanged SetInput fired onInput: %v", reported)
	}

	inst.SetInput(map[string]any{"label": "goodbye"})
	rt.Settle()
	if len(reported) != 2 || !reflect.DeepEqual(reported[1], []string{"label"}) {
		t.Errorf("changed SetInput reported %v", reported)
	}
	if got := surface.Text(); got != "goodbye" {
		t.Errorf("Text() = %q, want goodbye", got)
	}
}

func TestContextBusInvalidation(t *testing.T) {
	surface := fragment.NewMemSurface()
	rt := New(surface)
	rt.SetContext("theme", "light")

	var rcRef *program.RenderContext
	spec := &fragment.ComponentSpec{
		Name:        "themed",
		ContextKeys: []string{"theme"},
		Program: program.Func(func(rc *program.RenderContext) *fragment.Output {
			rcRef = rc
			return fragment.Dynamic(func() string {
				s, _ := rcRef.Bindings.Context.Get("theme").(string)
				return s
			})
		}),
	}
	if _, err := rt.Mount(spec); err != nil {
		t.Fatalf("Mount() = %v", err)
	}
	if got := surface.Text(); got != "light" {
		t.Fatalf("initial Text() = %q", got)
	}

	rt.SetContext("theme", "dark")
	if err := rt.Settle(); err != nil {
		t.Fatalf("Settle() = %v", err)
	}
	if got := surface.Text(); got != "dark" {
		t.Errorf("Text() = %q, want dark", got)
	}

	// Keys the component never declared do not wake it.
	surface.ResetOps()
	rt.SetContext("locale", "fr")
	rt.Settle()
	if got := len(surface.Ops()); got != 0 {
		t.Errorf("undeclared context key produced %d ops", got)
	}
}

func TestEvaluationErrorIsolation(t *testing.T) {
	surface := fragment.NewMemSurface()
	rt := New(surface)

	var state *reactive.Node
	spec := &fragment.ComponentSpec{
		Name:  "fragile",
		State: map[string]any{"bad": false},
		Program: program.Func(func(rc *program.RenderContext) *fragment.Output {
			state = rc.Bindings.State
			return fragment.Dynamic(func() string {
				if state.Read("bad").(bool) {
					panic("render failure")
				}
				return "ok"
			})
		}),
	}
	inst, err := rt.Mount(spec)
	if err != nil {
		t.Fatalf("Mount() = %v", err)
	}

	state.Write("bad", true)
	rt.Settle()

	if inst.Phase() != PhaseErrored {
		t.Errorf("Phase() = %v, want Errored", inst.Phase())
	}
	var evalErr *EvaluationError
	if !errors.As(inst.LastError(), &evalErr) {
		t.Fatalf("LastError() = %v, want *EvaluationError", inst.LastError())
	}
	if evalErr.Name != "fragile" {
		t.Errorf("EvaluationError.Name = %q", evalErr.Name)
	}
	// Last-good output stays up.
	if got := surface.Text(); got != "ok" {
		t.Errorf("Text() during error = %q, want ok", got)
	}

	// A successful evaluation clears the marker.
	state.Write("bad", false)
	rt.Settle()
	if inst.Phase() != PhaseAttached {
		t.Errorf("Phase() after recovery = %v, want Attached", inst.Phase())
	}
	if inst.LastError() != nil {
		t.Errorf("LastError() after recovery = %v", inst.LastError())
	}
}

func TestMountFailureLeavesInstanceErrored(t *testing.T) {
	rt := New(fragment.NewMemSurface())
	var sawError bool

	spec := &fragment.ComponentSpec{
		Name: "broken",
		Program: program.Func(func(rc *program.RenderContext) *fragment.Output {
			panic("cannot render")
		}),
		Handlers: map[string]func(args ...any){
			HookError: func(args ...any) { sawError = true },
		},
	}
	inst, err := rt.Mount(spec)
	if err != nil {
		t.Fatalf("Mount() = %v, failure must not propagate", err)
	}
	if inst.Phase() != PhaseErrored {
		t.Errorf("Phase() = %v, want Errored", inst.Phase())
	}
	if inst.LastError() == nil {
		t.Error("LastError() = nil")
	}
	if !sawError {
		t.Error("onError never fired")
	}
}

func TestNotAProgram(t *testing.T) {
	rt := New(fragment.NewMemSurface())
	_, err := rt.Mount(&fragment.ComponentSpec{Name: "bogus", Program: "nope"})
	if !errors.Is(err, ErrNotAProgram) {
		t.Errorf("Mount() = %v, want ErrNotAProgram", err)
	}
}

func TestDestroyCascades(t *testing.T) {
	surface := fragment.NewMemSurface()
	rt := New(surface)
	var log []string

	child := &fragment.ComponentSpec{
		Name: "child",
		Program: program.Func(func(rc *program.RenderContext) *fragment.Output {
			return fragment.Text("in")
		}),
		Handlers: hookRecorder(&log, HookDestroy),
	}
	parent := &fragment.ComponentSpec{
		Name: "parent",
		Program: program.Func(func(rc *program.RenderContext) *fragment.Output {
			return fragment.El("div", nil, fragment.Mount(child))
		}),
	}
	inst, err := rt.Mount(parent)
	if err != nil {
		t.Fatalf("Mount() = %v", err)
	}
	if got := rt.Stats().LiveComponents; got != 2 {
		t.Fatalf("LiveComponents = %d, want 2", got)
	}
	if got := surface.Text(); got != "in" {
		t.Fatalf("Text() = %q", got)
	}

	inst.Destroy()

	stats := rt.Stats()
	if stats.LiveComponents != 0 {
		t.Errorf("LiveComponents = %d, want 0", stats.LiveComponents)
	}
	if stats.TotalDestroys != 2 {
		t.Errorf("TotalDestroys = %d, want 2", stats.TotalDestroys)
	}
	if len(log) != 1 {
		t.Errorf("child onDestroy fired %d times, want 1", len(log))
	}
	if got := surface.Text(); got != "" {
		t.Errorf("Text() after destroy = %q, want empty", got)
	}
	if inst.Phase() != PhaseDestroyed {
		t.Errorf("Phase() = %v, want Destroyed", inst.Phase())
	}

	// Terminal phase: every entry point is a no-op now.
	inst.Emit("anything")
	inst.SetInput(map[string]any{"x": 1})
	inst.Destroy()
	if got := rt.Stats().TotalDestroys; got != 2 {
		t.Errorf("double Destroy counted: TotalDestroys = %d", got)
	}
}

func TestDetachReattach(t *testing.T) {
	rt := New(fragment.NewMemSurface())
	var log []string

	spec := &fragment.ComponentSpec{
		Name: "toggle",
		Program: program.Func(func(rc *program.RenderContext) *fragment.Output {
			return fragment.Text("x")
		}),
		Handlers: hookRecorder(&log, HookAttach, HookDetach),
	}
	inst, err := rt.Mount(spec)
	if err != nil {
		t.Fatalf("Mount() = %v", err)
	}

	inst.Detach()
	if inst.Phase() != PhaseDetached {
		t.Errorf("Phase() = %v, want Detached", inst.Phase())
	}
	inst.Attach()
	if inst.Phase() != PhaseAttached {
		t.Errorf("Phase() = %v, want Attached", inst.Phase())
	}

	want := []string{HookAttach, HookDetach, HookAttach}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("hook log = %v, want %v", log, want)
	}
}

func TestKeyedChildReuse(t *testing.T) {
	surface := fragment.NewMemSurface()
	rt := New(surface)

	row := program.Func(func(rc *program.RenderContext) *fragment.Output {
		return fragment.Dynamic(func() string {
			s, _ := rc.Bindings.Input["id"].(string)
			return s
		})
	})

	var state *reactive.Node
	spec := &fragment.ComponentSpec{
		Name:  "table",
		State: map[string]any{"ids": []any{"u1", "u2", "u3"}},
		Program: program.Func(func(rc *program.RenderContext) *fragment.Output {
			state = rc.Bindings.State
			return fragment.List(func() []*fragment.Output {
				ids := state.Read("ids").(*reactive.Node)
				outs := make([]*fragment.Output, 0, ids.Len())
				for i := 0; i < ids.Len(); i++ {
					id := ids.ReadIndex(i).(string)
					outs = append(outs, fragment.Keyed(id, fragment.Mount(&fragment.ComponentSpec{
						Name:    "row",
						Program: row,
						Input:   map[string]any{"id": id},
					})))
				}
				return outs
			})
		}),
	}
	if _, err := rt.Mount(spec); err != nil {
		t.Fatalf("Mount() = %v", err)
	}
	if got := rt.Stats().TotalMounts; got != 4 {
		t.Fatalf("TotalMounts = %d, want 4", got)
	}
	if got := surface.Text(); got != "u1u2u3" {
		t.Fatalf("Text() = %q", got)
	}

	state.Peek("ids").(*reactive.Node).Move(2, 0)
	rt.Settle()

	if got := surface.Text(); got != "u3u1u2" {
		t.Errorf("Text() after reorder = %q, want u3u1u2", got)
	}
	if got := rt.Stats().TotalMounts; got != 4 {
		t.Errorf("reorder remounted rows: TotalMounts = %d", got)
	}
	if got := rt.Stats().TotalDestroys; got != 0 {
		t.Errorf("reorder destroyed rows: TotalDestroys = %d", got)
	}

	state.Peek("ids").(*reactive.Node).RemoveAt(1)
	rt.Settle()
	if got := rt.Stats().LiveComponents; got != 3 {
		t.Errorf("LiveComponents = %d, want 3 (table + 2 rows)", got)
	}
}
