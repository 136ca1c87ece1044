package view

import (
	"strings"

	"github.com/robfig/liveview/data"
)

// Context is one frame of the scope chain a view renders in.  Frames are never
// modified once created: entering a block creates a child frame, and lookups
// that are not copied into the child walk the parent chain.
type Context struct {
	parent *Context

	this    data.Value
	hasThis bool
	vars    data.Map // variables visible by name in this frame

	paths   []string       // data paths of the enclosing blocks, innermost first
	indices []int          // indices of the enclosing list items, innermost first
	depth   int            // number of named blocks entered
	aliases map[string]int // alias names introduced by this frame, to their depth

	macro    *MacroCtx
	elements map[string]string // component elements captured with x-as

	strRoot *Context // root frame of a string mode render
	strID   string   // id of the element a string mode render is for
}

// newContext returns a root frame, with vars visible by name.
func newContext(vars data.Map) *Context {
	if vars == nil {
		vars = data.Map{}
	}
	return &Context{this: vars, hasThis: true, vars: vars}
}

// child returns a copy of c whose parent is c.
func (c *Context) child() *Context {
	var out = *c
	out.parent = c
	out.aliases = nil
	out.vars = nil
	out.hasThis = false
	out.this = nil
	return &out
}

// Path returns the data path of the innermost block, or "".
func (c *Context) Path() string {
	if len(c.paths) == 0 {
		return ""
	}
	return c.paths[0]
}

// Indices returns the list indices of the enclosing each blocks, innermost
// first.
func (c *Context) Indices() []int {
	return c.indices
}

// Depth returns the number of named blocks entered.
func (c *Context) Depth() int {
	return c.depth
}

// Macro returns the attributes passed to the enclosing component, or nil.
func (c *Context) Macro() *MacroCtx {
	return c.macro
}

// Alias returns the depth at which the alias was introduced.
func (c *Context) Alias(name string) (int, bool) {
	for f := c; f != nil; f = f.parent {
		if depth, ok := f.aliases[name]; ok {
			return depth, true
		}
	}
	return 0, false
}

// thisAt returns the value bound by the innermost frame at the given depth.
func (c *Context) thisAt(depth int) (data.Value, bool) {
	for f := c; f != nil; f = f.parent {
		if f.depth < depth {
			return nil, false
		}
		if f.hasThis && f.depth == depth {
			return f.this, true
		}
	}
	return nil, false
}

// Lookup finds a name among the values bound by the enclosing frames, rather
// than in the model.  It handles values that have no model path, such as the
// variables given to View.Get or items of a list computed by a function.
func (c *Context) Lookup(name string) (data.Value, bool) {
	name = normalizeThis(name)
	switch {
	case name == "":
		return nil, false

	case name[0] == '.':
		var dots = countDots(name)
		var v, ok = c.thisAt(c.depth - (dots - 1))
		if !ok {
			return nil, false
		}
		return data.Get(v, name[dots:]), true

	case name[0] == ':':
		var alias, rest = splitFirst(name)
		var depth, ok = c.Alias(alias)
		if !ok {
			return nil, false
		}
		v, ok := c.thisAt(depth + 1)
		if !ok {
			return nil, false
		}
		return data.Get(v, strings.TrimPrefix(rest, ".")), true
	}

	var first, rest = splitFirst(name)
	for f := c; f != nil; f = f.parent {
		if f.vars == nil {
			continue
		}
		if v, ok := f.vars[first]; ok {
			return data.Get(v, strings.TrimPrefix(rest, ".")), true
		}
	}
	return nil, false
}

// extendPath enters a block rendering value found at path.  Named blocks
// increase the depth, so that aliases refer to the path of the block that
// introduced them.  A given index is pushed as the innermost list index.
// List items are addressed with the symbolic index "$#" in their path.
func extendPath(ctx *Context, value data.Value, path string, named bool, alias string, index int, hasIndex, isArray bool) *Context {
	var c = ctx.child()
	c.this = value
	c.hasThis = true
	if m, ok := value.(data.Map); ok {
		c.vars = m
	}
	if alias != "" {
		c.aliases = map[string]int{alias: ctx.depth}
	}
	if named {
		c.paths = append([]string{path}, ctx.paths...)
		c.depth++
	}
	if hasIndex {
		c.indices = append([]int{index}, ctx.indices...)
		isArray = true
	}
	if isArray && named && path != "" {
		c.paths[0] = path + ".$#"
	}
	return c
}

// withItem returns the frame for a single item of a list being iterated.
func (c *Context) withItem(item data.Value, index int) *Context {
	var out = c.child()
	out.this = item
	out.hasThis = true
	if m, ok := item.(data.Map); ok {
		out.vars = m
	}
	out.indices = append([]int{index}, c.indices...)
	return out
}

// withIndices returns a frame with the list indices replaced.
func (c *Context) withIndices(indices []int) *Context {
	var out = c.child()
	out.this, out.hasThis = c.this, c.hasThis
	out.vars = c.vars
	out.indices = indices
	return out
}

func normalizeThis(name string) string {
	if name == "this" {
		return "."
	}
	if strings.HasPrefix(name, "this.") {
		return name[4:]
	}
	return name
}

func countDots(name string) int {
	var n = 0
	for n < len(name) && name[n] == '.' {
		n++
	}
	return n
}

// splitFirst splits a path into its first segment and the remainder, which
// keeps its leading dot.
func splitFirst(name string) (string, string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i:]
	}
	return name, ""
}
