package model

// PathMap interns paths as small integer ids, starting at 1.
type PathMap struct {
	ids   map[string]int
	paths []string
}

// NewPathMap returns an empty PathMap.
func NewPathMap() *PathMap {
	var m = &PathMap{}
	m.Clear()
	return m
}

// ID returns the id of the path, assigning one if it has none.
func (m *PathMap) ID(path string) int {
	if id, ok := m.ids[path]; ok {
		return id
	}
	m.paths = append(m.paths, path)
	var id = len(m.paths)
	m.ids[path] = id
	return id
}

// Lookup returns the id of the path, if it has one.
func (m *PathMap) Lookup(path string) (int, bool) {
	var id, ok = m.ids[path]
	return id, ok
}

// Path returns the path with the given id, or "" if there is none.
func (m *PathMap) Path(id int) string {
	if id < 1 || id > len(m.paths) {
		return ""
	}
	return m.paths[id-1]
}

// IDs returns every assigned id in ascending order.
func (m *PathMap) IDs() []int {
	var ids = make([]int, len(m.paths))
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

// Clear forgets every path.
func (m *PathMap) Clear() {
	m.ids = make(map[string]int)
	m.paths = nil
}

// Events holds the listeners bound to each path id.
type Events struct {
	byID map[int][]Listener
}

// NewEvents returns an empty Events.
func NewEvents() *Events {
	return &Events{make(map[int][]Listener)}
}

// Bind adds the listener under the id.  A listener with the same key already
// bound under the id is replaced, so that re-rendering a view does not
// accumulate listeners.
func (e *Events) Bind(id int, l Listener) {
	var key = l.ListenerKey()
	var list = e.byID[id]
	for i, existing := range list {
		if existing.ListenerKey() == key {
			list[i] = l
			return
		}
	}
	e.byID[id] = append(list, l)
}

// Listeners returns the listeners bound under the id, in binding order.
func (e *Events) Listeners(id int) []Listener {
	return e.byID[id]
}

// Count returns the number of listeners bound under all ids.
func (e *Events) Count() int {
	var n = 0
	for _, list := range e.byID {
		n += len(list)
	}
	return n
}

// Clear removes every listener.
func (e *Events) Clear() {
	e.byID = make(map[int][]Listener)
}
