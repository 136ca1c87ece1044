package view

import "github.com/robfig/liveview/data"

// MacroKind distinguishes the kinds of attribute passed to a component.
type MacroKind int

const (
	// MacroLiteral is a value fixed when the component is rendered.
	MacroLiteral MacroKind = iota
	// MacroPath refers to a path in the model, so that the component can
	// bind to it.
	MacroPath
	// MacroComputed is markup rendered on demand, such as the content of a
	// component.
	MacroComputed
)

// MacroValue is an attribute passed to a component.
type MacroValue struct {
	Kind    MacroKind
	Literal data.Value
	Path    string
	Render  func(m Model) string
}

// MacroCtx holds the attributes passed to a component, in the order given.
// Names not found are looked up in the attributes of the enclosing
// component.
type MacroCtx struct {
	parent *MacroCtx
	keys   []string
	values map[string]MacroValue
}

func newMacroCtx(parent *MacroCtx) *MacroCtx {
	return &MacroCtx{parent: parent, values: make(map[string]MacroValue)}
}

func (m *MacroCtx) set(key string, v MacroValue) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the named attribute.
func (m *MacroCtx) Get(key string) (MacroValue, bool) {
	for ; m != nil; m = m.parent {
		if v, ok := m.values[key]; ok {
			return v, true
		}
	}
	return MacroValue{}, false
}

// Keys returns the names of the attributes given to this component, excluding
// those inherited from enclosing components.
func (m *MacroCtx) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}
