package view

import (
	"fmt"
	"strings"

	"github.com/robfig/liveview/data"
)

// Library is a set of components provided under a namespace.  Its views are
// made on View like those of an application; Scripts gives stateful
// components the code run when an instance is rendered.
type Library struct {
	View    *View
	Scripts map[string]*Script
}

// Script is the behavior of a stateful component.  Init runs while the
// instance renders, before its template.  Create runs after the rendered
// markup has been committed to the document, once the elements named with
// x-as exist.
type Script struct {
	Init   func(m Model, s *Scope)
	Create func(m Model, s *Scope, dom DOM, elements map[string]string)
}

// Scope is the model data of a component instance, kept below Path.
type Scope struct {
	Path string

	model  Model
	prefix string
}

func (s *Scope) join(rel string) string {
	if rel == "" {
		return s.Path
	}
	return s.Path + "." + rel
}

// Get returns the value at a path relative to the scope.
func (s *Scope) Get(rel string) data.Value {
	return s.model.Get(s.join(rel))
}

// Set stores a value at a path relative to the scope.
func (s *Scope) Set(rel string, value interface{}) error {
	return s.model.Set(s.join(rel), value)
}

// Del removes the value at a path relative to the scope.
func (s *Scope) Del(rel string) {
	s.model.Del(s.join(rel))
}

// Trigger emits the event "<component>:<name>" on the model.  Handlers
// receive the scope, args, and a function that cancels the event.  It
// reports whether the event went ahead.
func (s *Scope) Trigger(name string, args ...interface{}) bool {
	var cancelled = false
	var cancel = func() { cancelled = true }
	var all = make([]interface{}, 0, len(args)+2)
	all = append(all, s)
	all = append(all, args...)
	all = append(all, cancel)
	s.model.Emit(s.prefix+name, all...)
	return !cancelled
}

// DOM is the document layer that applies listener updates to the rendered
// markup.  Elements are registered with it as they render, so that their
// events reach the model.
type DOM interface {
	Bind(b DOMBinding)
	Clear()
}

// DOMBinding registers an element event.  Handler names the function that
// receives the event, or Property and Path describe the value that it writes
// back to the model.
type DOMBinding struct {
	Event    string
	ID       string
	Handler  string
	Property string
	Path     string
}

type nopDOM struct{}

func (nopDOM) Bind(DOMBinding) {}
func (nopDOM) Clear()          {}

// component is a compiled use of a component, from its tag or a partial
// placeholder.
type component struct {
	partial string // "ns:name" as written
	ns      string
	name    string
	target  *View             // view the component is made on
	attrs   []macroAttr       // attributes, in source order
	bound   map[string]string // bound attributes, to their names in the caller
	content *section          // inner content of a non-void component
}

// macroAttr is an attribute of a component use.  It is a literal unless expr
// is set.
type macroAttr struct {
	key     string
	literal data.Value
	expr    *expr
}

// componentFn returns the fragment that renders a component.  The view is
// found on every render, so that views made later are picked up.  Library
// components render below a scope of their own, which they refer to with
// alias.
func (v *View) componentFn(comp *component, alias, callerNS string) fragFunc {
	var lib = v.top().libraries[comp.ns]
	return func(ctx *Context, m Model, ids []string) string {
		var ns = callerNS
		if lib != nil {
			ns = ""
		}
		var sec, err = comp.target.find(comp.name, ns, comp.bound)
		if err != nil {
			panic(err)
		}

		var mc = v.bindMacro(ctx, m, comp)
		if alias == "" {
			var cc = ctx.child()
			cc.this, cc.hasThis, cc.vars = ctx.this, ctx.hasThis, ctx.vars
			cc.macro = mc
			return sec.render(cc, m, "", "")
		}

		var scope = "_$component." + v.uniqueID()
		var s = v.createComponent(m, comp, lib, scope, mc)
		var cc = extendPath(ctx, m.Get(scope), scope, true, alias, 0, false, false)
		cc.macro = mc
		cc.elements = make(map[string]string)
		cc.strRoot, cc.strID = nil, ""
		var out = sec.render(cc, m, "", "")
		if lib != nil {
			if script := lib.Scripts[comp.name]; script != nil && script.Create != nil && !v.top().IsServer {
				var top = v.top()
				var elements = cc.elements
				top.tasks.Add(func() {
					script.Create(m, s, top.document(), elements)
				})
			}
		}
		return out
	}
}

// bindMacro evaluates the attributes of a component use.  An attribute that
// names a model path is passed by path when it is bound or the path holds a
// value, so that the component can bind to it; otherwise its value is passed.
func (v *View) bindMacro(ctx *Context, m Model, comp *component) *MacroCtx {
	var mc = newMacroCtx(ctx.macro)
	for _, a := range comp.attrs {
		if a.expr == nil {
			mc.set(a.key, MacroValue{Kind: MacroLiteral, Literal: a.literal})
			continue
		}
		if a.expr.call == nil {
			var path = resolvePath(ctx, a.expr.name, a.expr.macro, false)
			if path != "" {
				if _, bound := comp.bound[a.key]; bound || !isUndefined(m.Get(path)) {
					mc.set(a.key, MacroValue{Kind: MacroPath, Path: path})
					continue
				}
			}
		}
		mc.set(a.key, MacroValue{Kind: MacroLiteral, Literal: v.dataValue(ctx, m, a.expr)})
	}
	if comp.content != nil {
		var content = comp.content
		mc.set("content", MacroValue{Kind: MacroComputed, Render: func(m Model) string {
			return content.render(ctx, m, "", "")
		}})
	}
	return mc
}

// createComponent initializes the scope of a component instance from its
// attributes: bound paths are referenced, other values copied.  A value that
// cannot be stored fails the render.
func (v *View) createComponent(m Model, comp *component, lib *Library, scope string, mc *MacroCtx) *Scope {
	var s = &Scope{Path: scope, model: m}
	var name = comp.ns + ":" + comp.name
	for _, key := range mc.Keys() {
		var mv, _ = mc.Get(key)
		var path = scope + "." + key
		var err error
		switch mv.Kind {
		case MacroPath:
			if _, bound := comp.bound[key]; bound {
				m.Ref(path, mv.Path)
			} else {
				err = m.Set(path, m.Get(mv.Path))
			}
		case MacroLiteral:
			if !isUndefined(mv.Literal) {
				err = m.Set(path, mv.Literal)
			}
			if key == "name" && mv.Literal != nil {
				if n := mv.Literal.String(); n != "" {
					name = n
				}
			}
		}
		if err != nil {
			panic(fmt.Errorf("component %s:%s: %w", comp.ns, comp.name, err))
		}
	}
	s.prefix = name + ":"

	if lib != nil {
		if script := lib.Scripts[comp.name]; script != nil && script.Init != nil {
			script.Init(m, s)
		}
	}
	return s
}

// splitPartial splits "ns:name" into its namespace and lower-cased name.
func splitPartial(partial string) (ns, name string) {
	var i = strings.IndexByte(partial, ':')
	if i < 0 {
		return "", strings.ToLower(partial)
	}
	return partial[:i], strings.ToLower(partial[i+1:])
}
