package main

import (
	"fmt"
	"strconv"

	"github.com/weft-ui/weft/pkg/fragment"
	"github.com/weft-ui/weft/pkg/program"
	"github.com/weft-ui/weft/pkg/reactive"
)

// demoRoot builds the demo application spec: a counter plus a keyed todo
// list. Called once per session, so the closures below are per-session.
func demoRoot() *fragment.ComponentSpec {
	// Bound by the program on its first evaluation, which always runs
	// before any handler can fire.
	var state *reactive.Node
	nextTodoID := 3

	spec := &fragment.ComponentSpec{
		Name: "app",
		State: map[string]any{
			"count": 0,
			"todos": []any{
				map[string]any{"id": "t1", "title": "try the counter", "done": false},
				map[string]any{"id": "t2", "title": "reorder the list", "done": false},
			},
		},
	}

	spec.Program = program.Func(func(rc *program.RenderContext) *fragment.Output {
		state = rc.Bindings.State
		return fragment.El("div", map[string]string{"class": "app"},
			fragment.El("h1", nil, fragment.Text("weft demo")),
			counterView(rc),
			todoView(rc),
		)
	})

	spec.Handlers = map[string]func(args ...any){
		"increment": func(args ...any) {
			state.Write("count", state.Peek("count").(int)+1)
		},
		"decrement": func(args ...any) {
			state.Write("count", state.Peek("count").(int)-1)
		},
		"add-todo": func(args ...any) {
			if len(args) == 0 {
				return
			}
			title, _ := args[0].(string)
			if title == "" {
				return
			}
			todos := state.Peek("todos").(*reactive.Node)
			todos.Append(map[string]any{
				"id":    "t" + strconv.Itoa(nextTodoID),
				"title": title,
				"done":  false,
			})
			nextTodoID++
		},
		"toggle-todo": func(args ...any) {
			if i, ok := findTodo(state, args); ok {
				todos := state.Peek("todos").(*reactive.Node)
				item := todos.PeekIndex(i).(*reactive.Node)
				item.Write("done", !item.Peek("done").(bool))
			}
		},
		"remove-todo": func(args ...any) {
			if i, ok := findTodo(state, args); ok {
				state.Peek("todos").(*reactive.Node).RemoveAt(i)
			}
		},
		"move-todo-top": func(args ...any) {
			if i, ok := findTodo(state, args); ok && i > 0 {
				state.Peek("todos").(*reactive.Node).Move(i, 0)
			}
		},
	}
	return spec
}

func findTodo(state *reactive.Node, args []any) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, _ := args[0].(string)
	todos := state.Peek("todos").(*reactive.Node)
	for i := 0; i < len(todos.Raw().([]any)); i++ {
		item := todos.PeekIndex(i).(*reactive.Node)
		if item.Peek("id") == id {
			return i, true
		}
	}
	return 0, false
}

func counterView(rc *program.RenderContext) *fragment.Output {
	state := rc.Bindings.State
	return fragment.El("section", map[string]string{"class": "counter"},
		fragment.El("span", nil, fragment.Dynamic(func() string {
			return fmt.Sprintf("count: %d", state.Read("count").(int))
		})),
		fragment.Branch(func() string {
			if state.Read("count").(int) >= 10 {
				return "high"
			}
			return "normal"
		}, map[string]*fragment.Output{
			"high":   fragment.El("em", nil, fragment.Text("that's a lot of clicks")),
			"normal": fragment.Text(""),
		}),
	)
}

func todoView(rc *program.RenderContext) *fragment.Output {
	state := rc.Bindings.State
	return fragment.El("ul", map[string]string{"class": "todos"},
		fragment.List(func() []*fragment.Output {
			todos := state.Read("todos").(*reactive.Node)
			n := todos.Len()
			items := make([]*fragment.Output, 0, n)
			for i := 0; i < n; i++ {
				item := todos.ReadIndex(i).(*reactive.Node)
				key := item.Peek("id").(string)
				items = append(items, fragment.Keyed(key, todoItem(item)))
			}
			return items
		}),
	)
}

func todoItem(item *reactive.Node) *fragment.Output {
	return fragment.El("li", nil,
		fragment.Branch(func() string {
			if item.Read("done").(bool) {
				return "done"
			}
			return "open"
		}, map[string]*fragment.Output{
			"done": fragment.Text("[x] "),
			"open": fragment.Text("[ ] "),
		}),
		fragment.Dynamic(func() string {
			return item.Read("title").(string)
		}),
	)
}
