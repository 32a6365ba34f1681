package fragment

// FragKind is the fragment type discriminator.
type FragKind uint8

const (
	FragText      FragKind = iota // text content
	FragElement                   // host element with attributes and children
	FragBranch                    // structural conditional
	FragList                      // ordered (optionally keyed) collection
	FragComponent                 // nested component mount point
)

// String returns the string representation of the FragKind.
func (k FragKind) String() string {
	switch k {
	case FragText:
		return "Text"
	case FragElement:
		return "Element"
	case FragBranch:
		return "Branch"
	case FragList:
		return "List"
	case FragComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// Output describes one fragment of render output. A compiled render program
// produces an Output tree once per mount; the dynamic parts are thunks that
// the engine re-runs under dependency collection, so each fragment declares
// the store paths it reads simply by reading them.
type Output struct {
	Kind FragKind

	// Key identifies list members for keyed reconciliation. Items without a
	// key are matched positionally, which does not preserve identity across
	// insert/remove at that position.
	Key string

	// Static is fixed text content. Text, when set, supersedes it and is
	// re-evaluated whenever one of its recorded dependencies changes.
	Static string
	Text   func() string

	// Element fields.
	Tag      string
	Attrs    map[string]string
	Children []*Output

	// Branch fields: Select picks the active arm by name. An absent arm
	// renders nothing.
	Select func() string
	Arms   map[string]*Output

	// List field: Items re-runs on structural changes and returns the
	// ordered member outputs.
	Items func() []*Output

	// Component field.
	Component *ComponentSpec
}

// ComponentSpec declares a nested component mount. Program is opaque to this
// package; the component runtime asserts it to its program type. Handlers
// carries named callbacks, lifecycle hooks included.
type ComponentSpec struct {
	Name        string
	Program     any
	Input       map[string]any
	State       map[string]any
	Static      map[string]any
	Handlers    map[string]func(args ...any)
	ContextKeys []string
}

// Text returns a static text output.
func Text(s string) *Output {
	return &Output{Kind: FragText, Static: s}
}

// Dynamic returns a text output bound to a thunk.
func Dynamic(fn func() string) *Output {
	return &Output{Kind: FragText, Text: fn}
}

// El returns an element output.
func El(tag string, attrs map[string]string, children ...*Output) *Output {
	return &Output{Kind: FragElement, Tag: tag, Attrs: attrs, Children: children}
}

// Branch returns a structural-branch output.
func Branch(selector func() string, arms map[string]*Output) *Output {
	return &Output{Kind: FragBranch, Select: selector, Arms: arms}
}

// List returns an ordered-collection output.
func List(items func() []*Output) *Output {
	return &Output{Kind: FragList, Items: items}
}

// Keyed tags an output with a reconciliation key.
func Keyed(key string, out *Output) *Output {
	out.Key = key
	return out
}

// Mount returns a nested component output.
func Mount(spec *ComponentSpec) *Output {
	return &Output{Kind: FragComponent, Component: spec}
}
