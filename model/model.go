// Package model is a hierarchical data store that views render against.
//
// Values are addressed by dotted paths.  Rendered views bind listeners to
// interned path ids; when a path is changed, every listener bound to it, to a
// path below it, or to a wildcard path ("items*") covering it is reported to
// OnChange.  A Model is not safe for concurrent use.
package model

import (
	"sort"
	"strings"

	"github.com/robfig/liveview/data"
)

// Listener is bound to a path and notified when it changes.  Listeners with
// equal keys bound to the same path replace each other.
type Listener interface {
	ListenerKey() string
}

// Handler receives the arguments of an emitted event.
type Handler func(args ...interface{})

// Model holds the data and the bookkeeping for bindings made while rendering.
type Model struct {
	// OnChange is called for every listener affected by a change.  The
	// trigger path is the path that was changed.
	OnChange func(l Listener, triggerPath string)

	root       data.Map
	refs       map[string]string
	paths      *PathMap
	events     *Events
	blockPaths map[string]int
	handlers   map[string][]Handler
}

// New returns a model holding the given data.  A nil map starts empty.
func New(root data.Map) *Model {
	if root == nil {
		root = data.Map{}
	}
	return &Model{
		root:       root,
		refs:       make(map[string]string),
		paths:      NewPathMap(),
		events:     NewEvents(),
		blockPaths: make(map[string]int),
		handlers:   make(map[string][]Handler),
	}
}

// Get returns the value at path, following references.
func (m *Model) Get(path string) data.Value {
	return data.Get(m.root, m.deref(path))
}

// Set converts value with data.New and stores it at path, following
// references, then reports the change.
func (m *Model) Set(path string, value interface{}) error {
	var target = m.deref(path)
	if err := data.Set(m.root, target, data.New(value)); err != nil {
		return err
	}
	m.changed(target)
	return nil
}

// Del removes the value at path and reports the change.  References made
// at or below path are dropped.
func (m *Model) Del(path string) {
	for from := range m.refs {
		if isWithin(from, path) && path != "" {
			delete(m.refs, from)
		}
	}
	var target = m.deref(path)
	data.Del(m.root, target)
	m.changed(target)
}

// Ref makes from an alias of to: reads and writes below from go to the
// corresponding path below to.
func (m *Model) Ref(from, to string) {
	m.refs[from] = to
}

// deref rewrites a path through the longest matching reference, repeatedly.
func (m *Model) deref(path string) string {
	for hops := 0; hops < 16; hops++ {
		var best string
		for from := range m.refs {
			if (path == from || strings.HasPrefix(path, from+".")) && len(from) > len(best) {
				best = from
			}
		}
		if best == "" {
			return path
		}
		path = m.refs[best] + path[len(best):]
	}
	return path
}

// aliases returns the referencing paths that address target.
func (m *Model) aliases(target string) []string {
	var out []string
	for from, to := range m.refs {
		switch {
		case target == to || strings.HasPrefix(target, to+"."):
			out = append(out, from+target[len(to):])
		case strings.HasPrefix(to, target+"."):
			out = append(out, from)
		}
	}
	sort.Strings(out)
	return out
}

// PathID interns the path.
func (m *Model) PathID(path string) int {
	return m.paths.ID(path)
}

// Bind adds the listener to the path with the given id.
func (m *Model) Bind(pathID int, l Listener) {
	m.events.Bind(pathID, l)
}

// Listeners returns the listeners bound to path.
func (m *Model) Listeners(path string) []Listener {
	var id, ok = m.paths.Lookup(path)
	if !ok {
		return nil
	}
	return m.events.Listeners(id)
}

// ListenerCount returns the number of listeners bound to all paths.
func (m *Model) ListenerCount() int {
	return m.events.Count()
}

// BlockPaths maps the ids of rendered blocks to the path ids they render.
func (m *Model) BlockPaths() map[string]int {
	return m.blockPaths
}

// On registers a handler for the named event.
func (m *Model) On(name string, h Handler) {
	m.handlers[name] = append(m.handlers[name], h)
}

// Emit calls the handlers registered for the named event.
func (m *Model) Emit(name string, args ...interface{}) {
	for _, h := range m.handlers[name] {
		h(args...)
	}
}

// Reset forgets all bindings, in preparation for a full render.
func (m *Model) Reset() {
	m.paths.Clear()
	m.events.Clear()
	m.blockPaths = make(map[string]int)
}

func (m *Model) changed(target string) {
	if m.OnChange == nil {
		return
	}
	var triggers = append([]string{target}, m.aliases(target)...)
	for _, id := range m.paths.IDs() {
		var path = m.paths.Path(id)
		for _, trigger := range triggers {
			if !affects(trigger, path) {
				continue
			}
			for _, l := range m.events.Listeners(id) {
				m.OnChange(l, trigger)
			}
			break
		}
	}
}

// affects reports whether changing trigger affects listeners bound to path.
func affects(trigger, path string) bool {
	if strings.HasSuffix(path, "*") {
		var base = strings.TrimSuffix(path, "*")
		return isWithin(trigger, base) || isWithin(base, trigger)
	}
	return isWithin(path, trigger)
}

// isWithin reports whether path is equal to or below parent.
func isWithin(path, parent string) bool {
	return path == parent || parent == "" || strings.HasPrefix(path, parent+".")
}
