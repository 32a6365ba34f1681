// Package program defines the boundary between the update engine and the
// template front-end. A compiled render program is opaque to the engine: it
// is evaluated once per component mount and returns an Output tree whose
// dynamic parts are thunks the engine re-runs under dependency collection.
//
// Applications without a template compiler build programs directly:
//
//	counter := program.Func(func(rc *program.RenderContext) *fragment.Output {
//	    state := rc.Bindings.State
//	    return fragment.El("div", nil,
//	        fragment.Dynamic(func() string {
//	            return fmt.Sprint(state.Read("count"))
//	        }),
//	    )
//	})
package program

import (
	"github.com/weft-ui/weft/pkg/fragment"
	"github.com/weft-ui/weft/pkg/reactive"
)

// ContextReader is read access to the context bus, scoped to the keys the
// owning component declared.
type ContextReader interface {
	Get(key string) any
}

// Bindings is what a render program evaluates against: the component's
// current input, reactive state, non-reactive statics, and context view.
type Bindings struct {
	Input   map[string]any
	State   *reactive.Node
	Static  map[string]any
	Context ContextReader
}

// RenderContext is the explicitly scoped evaluation handle. It replaces any
// ambient "current component" global: the engine threads it through every
// evaluation, and thunks close over it.
type RenderContext struct {
	Engine   *reactive.Engine
	Bindings Bindings

	// Emit raises a named event on the owning component.
	Emit func(event string, args ...any)
}

// Program is a compiled render program.
type Program interface {
	Evaluate(rc *RenderContext) *fragment.Output
}

// Func adapts a plain function to a Program.
type Func func(rc *RenderContext) *fragment.Output

// Evaluate implements Program.
func (f Func) Evaluate(rc *RenderContext) *fragment.Output {
	return f(rc)
}
