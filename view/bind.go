package view

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/htmlutil"
	"github.com/robfig/liveview/parse"
)

// Listener is bound to a model path for each dynamic site of a rendered view.
// When the path changes, the document layer asks the listener for the
// replacement fragment or value, and applies it to the element or marker
// identified by ID using Method.
type Listener struct {
	ID       string // element id, marker id, or "$_doc" for the document
	Method   string // markup.MethodHTML, MethodAttr or MethodProp
	Property string // attribute or property updated, for MethodAttr and MethodProp
	Escape   bool   // whether Render escapes a plain value
	Path     string // model path of the site when it was bound

	view    *View
	expr    *expr
	ctx     *Context
	partial blockFunc
}

// ListenerKey identifies listeners that update the same thing in the same way.
func (l *Listener) ListenerKey() string {
	return l.ID + "|" + l.Method + "|" + l.Property
}

// IsBlock reports whether the listener re-renders a block or partial, rather
// than formatting a value.
func (l *Listener) IsBlock() bool {
	return l.partial != nil
}

// Value evaluates the site against the model.  The list indices of the
// listener's context are first aligned with the path that changed.
func (l *Listener) Value(m Model, triggerPath string) (val data.Value, err error) {
	defer renderRecover(&err)
	return l.view.dataValue(realign(l.ctx, triggerPath), m, l.expr), nil
}

// Render returns the replacement for the site.  Blocks re-render with value
// in place of the value they would look up; plain values are formatted.
func (l *Listener) Render(m Model, triggerPath string, value data.Value) (string, error) {
	return l.render(m, triggerPath, value, 0, false)
}

// RenderIndex is Render for an item inserted in a list at index.  For an each
// block, value holds the inserted items, the first of which is at index.
func (l *Listener) RenderIndex(m Model, triggerPath string, value data.Value, index int) (string, error) {
	return l.render(m, triggerPath, value, index, true)
}

func (l *Listener) render(m Model, triggerPath string, value data.Value, index int, hasIndex bool) (out string, err error) {
	defer renderRecover(&err)
	if l.partial == nil {
		var text = textValue(value)
		if l.Escape {
			text = htmlutil.EscapeHTML(text)
		}
		return text, nil
	}
	out, _ = l.partial(l.ctx, m, blockInput{
		trigger:   triggerPath,
		triggerID: l.ID,
		value:     value,
		index:     index,
		hasIndex:  hasIndex,
		listener:  true,
	})
	return out, nil
}

// Set writes a value entered in the document back to the model.  A function
// call is inverted with the function's setter, which returns new values for
// its path arguments.
func (l *Listener) Set(m Model, value data.Value) (err error) {
	defer renderRecover(&err)
	var ex = l.expr
	if ex.call == nil {
		var path = resolvePath(l.ctx, ex.name, ex.macro, false)
		if path == "" {
			return fmt.Errorf("view: %q does not refer to a model path", ex.name)
		}
		return m.Set(path, value)
	}

	var set = l.view.setFn(ex.call.Name)
	if set == nil {
		return fmt.Errorf("view: function %q has no setter", ex.call.Name)
	}
	var out = set(value, l.view.callArgs(l.ctx, m, ex.call, ex.macro)...)
	for i, val := range out {
		if i >= len(ex.call.Args) {
			break
		}
		var arg = ex.call.Args[i]
		if val == nil || arg.Path == "" {
			continue
		}
		var path = resolvePath(l.ctx, arg.Path, ex.macro, false)
		if path == "" {
			continue
		}
		if err := m.Set(path, val); err != nil {
			return err
		}
	}
	return nil
}

// textValue formats a value for output.
func textValue(v data.Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// renderRecover converts a panic raised while rendering into an error.
func renderRecover(errp *error) {
	if e := recover(); e != nil {
		switch e := e.(type) {
		case runtime.Error:
			*errp = fmt.Errorf("view: %v\n%s", e, debug.Stack())
		case error:
			*errp = e
		default:
			*errp = fmt.Errorf("view: %v", e)
		}
	}
}

// bindParams describes the listeners registered for a site.
type bindParams struct {
	id       func(ctx *Context, st *bindState) string
	method   string
	property string
	escape   bool
	partial  blockFunc
	isBlock  bool // record the block's path id under its marker id
}

// bindEvents adds the bindings of a site to the queue.  A function call is
// bound to every path among its arguments, including the paths below them.
// A path is bound to itself and to each of its ancestors, so that replacing
// an enclosing object updates the site.
func (c *compiler) bindEvents(q *queue, e *expr, p bindParams) {
	var v = c.view
	if e.call != nil {
		var args = parse.PathArgs(e.call)
		if len(args) == 0 {
			return
		}
		q.bindings = append(q.bindings, func(ctx *Context, st *bindState) {
			var l = v.newListener(ctx, st, e, &p, 0, "")
			for _, arg := range args {
				var path = resolvePath(ctx, arg, e.macro, false)
				if path == "" {
					continue
				}
				st.model.Bind(st.model.PathID(path+"*"), l)
			}
		})
		return
	}

	var prefix = e.name[:countDots(e.name)]
	var segs = strings.Split(e.name[len(prefix):], ".")
	for i := len(segs); i > 0; i-- {
		var bindName = prefix + strings.Join(segs[:i], ".")
		q.bindings = append(q.bindings, func(ctx *Context, st *bindState) {
			var path = resolvePath(ctx, e.name, e.macro, false)
			if path == "" {
				return
			}
			var pathID = st.model.PathID(path)
			var l = v.newListener(ctx, st, e, &p, pathID, path)
			if bindName != e.name {
				if path = resolvePath(ctx, bindName, e.macro, false); path == "" {
					return
				}
				pathID = st.model.PathID(path)
			}
			st.model.Bind(pathID, l)
		})
	}
}

func (v *View) newListener(ctx *Context, st *bindState, e *expr, p *bindParams, pathID int, path string) *Listener {
	var id = p.id(ctx, st)
	if p.isBlock && pathID != 0 {
		st.model.BlockPaths()[id] = pathID
	}
	if ctx.strRoot != nil {
		ctx = ctx.strRoot
	}
	return &Listener{
		ID:       id,
		Method:   p.method,
		Property: p.property,
		Escape:   p.escape,
		Path:     path,
		view:     v,
		expr:     e,
		ctx:      ctx,
		partial:  p.partial,
	}
}

// slotID returns the id rendered into the given slot.
func slotID(slot int) func(ctx *Context, st *bindState) string {
	return func(ctx *Context, st *bindState) string {
		return st.ids[slot]
	}
}

// stringID returns the id of the element a string mode section renders for.
func stringID(ctx *Context, st *bindState) string {
	return ctx.strID
}

// fixedID returns a constant id.
func fixedID(id string) func(ctx *Context, st *bindState) string {
	return func(*Context, *bindState) string {
		return id
	}
}
