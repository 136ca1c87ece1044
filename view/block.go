package view

import (
	"strings"

	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/parse"
)

// blockInput carries the arguments of a block render.  When a listener
// re-renders a block, value replaces the value the block would look up.
type blockInput struct {
	trigger   string // path whose change caused the render
	triggerID string // marker or element id being re-rendered
	value     data.Value
	index     int
	hasIndex  bool
	listener  bool
}

// blockFunc renders a block, reporting whether it produced its content.  An
// alternative of a chain that does not match lets the next one render.
type blockFunc func(ctx *Context, m Model, in blockInput) (string, bool)

// binding registers the listeners of a dynamic site after its section has
// rendered.
type binding func(ctx *Context, st *bindState)

// bindState is shared by the bindings of one render of a section.
type bindState struct {
	model Model
	ids   []string
}

// section is a compiled template or block body.
type section struct {
	frags    []fragment
	slots    int
	bindings []binding
	onRender func(ctx *Context, triggerID string) *Context
}

// render runs the section's fragments, then registers its bindings in the
// context the fragments rendered in.
func (s *section) render(ctx *Context, m Model, trigger, triggerID string) string {
	ctx = realign(ctx, trigger)
	if s.onRender != nil {
		ctx = s.onRender(ctx, triggerID)
	}
	var ids = make([]string, s.slots)
	var buf strings.Builder
	for _, f := range s.frags {
		if f.fn != nil {
			buf.WriteString(f.fn(ctx, m, ids))
		} else {
			buf.WriteString(f.text)
		}
	}
	var st = &bindState{model: m, ids: ids}
	for _, b := range s.bindings {
		b(ctx, st)
	}
	return buf.String()
}

// stringRoot marks the outermost context of a string mode render, which the
// listeners of the template are bound with.
func stringRoot(ctx *Context, triggerID string) *Context {
	if ctx.strRoot != nil {
		return ctx
	}
	var out = ctx.child()
	out.this, out.hasThis, out.vars = ctx.this, ctx.hasThis, ctx.vars
	out.strRoot = out
	out.strID = triggerID
	return out
}

// extendCtx enters a block named name.
func extendCtx(ctx *Context, value data.Value, name, alias string, macro bool, index int, hasIndex, isArray bool) *Context {
	var path = resolvePath(ctx, name, macro, true)
	return extendPath(ctx, value, path, name != "", alias, index, hasIndex, isArray)
}

// isTrue is the condition of if and unless: a list must not be empty.
func isTrue(v data.Value) bool {
	if list, ok := v.(data.List); ok {
		return len(list) > 0
	}
	return v != nil && v.Truthy()
}

// blockFn returns the render function for one alternative of a block.
func (v *View) blockFn(p *parse.Placeholder, e *expr, sec *section) blockFunc {
	var value = func(ctx *Context, m Model, in blockInput) data.Value {
		if in.listener {
			return in.value
		}
		if e == nil {
			return data.Bool(true)
		}
		return v.dataValue(ctx, m, e)
	}
	var enter = func(ctx *Context, m Model, in blockInput, val data.Value) string {
		var rc = extendCtx(ctx, val, p.Name, p.Alias, p.Macro, in.index, in.hasIndex, false)
		return sec.render(rc, m, in.trigger, in.triggerID)
	}

	switch p.Type {
	case parse.If, parse.ElseIf:
		return func(ctx *Context, m Model, in blockInput) (string, bool) {
			var val = value(ctx, m, in)
			if !isTrue(val) {
				return "", false
			}
			return enter(ctx, m, in, val), true
		}

	case parse.Unless:
		return func(ctx *Context, m Model, in blockInput) (string, bool) {
			var val = value(ctx, m, in)
			if isTrue(val) {
				return "", false
			}
			return enter(ctx, m, in, val), true
		}

	case parse.Each:
		return func(ctx *Context, m Model, in blockInput) (string, bool) {
			var val = value(ctx, m, in)
			var list, isList = val.(data.List)
			if in.listener && !isList {
				return enter(ctx, m, in, val), true
			}
			if len(list) == 0 {
				return "", false
			}
			var offset = 0
			if in.hasIndex {
				offset = in.index
			}
			var lctx = extendCtx(ctx, nil, p.Name, p.Alias, p.Macro, 0, false, true)
			var buf strings.Builder
			for i, item := range list {
				buf.WriteString(sec.render(lctx.withItem(item, offset+i), m, in.trigger, in.triggerID))
			}
			return buf.String(), true
		}
	}

	// with, else
	return func(ctx *Context, m Model, in blockInput) (string, bool) {
		return enter(ctx, m, in, value(ctx, m, in)), true
	}
}

// chain returns the render function of an if, unless or each block together
// with its else alternatives.  The first alternative that matches renders.
// A value given by a listener applies to the first alternative, which owns
// the binding.
func chain(fns []blockFunc) blockFunc {
	if len(fns) == 1 {
		return fns[0]
	}
	return func(ctx *Context, m Model, in blockInput) (string, bool) {
		for i, fn := range fns {
			var alt = in
			if i > 0 {
				alt.listener, alt.value = false, nil
			}
			if out, ok := fn(ctx, m, alt); ok {
				return out, true
			}
		}
		return "", false
	}
}
