package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/parse"
)

// expr is a placeholder name, compiled once.
type expr struct {
	name  string
	call  *parse.Call
	macro bool
}

func newExpr(name string, macro bool) (*expr, error) {
	var e = &expr{name: name, macro: macro}
	if parse.IsCall(name) {
		var call, err = parse.ParseCall(name)
		if err != nil {
			return nil, err
		}
		e.call = call
	}
	return e, nil
}

// resolvePath returns the model path that a name refers to in ctx, or "" if
// it does not refer to one.
//
//	name        refers to the model path "name"
//	.name       refers to name below the innermost block's path
//	..name      refers to name below the path of the block enclosing that one
//	:alias.name refers to name below the path of the block that introduced :alias
//	this        is the same as "."
//
// Symbolic list indices ("$#") are replaced with the current indices unless
// noReplace is set.  In macro mode the first segment names a component
// attribute, which must refer to a model path.
func resolvePath(ctx *Context, name string, macro, noReplace bool) string {
	if name == "" || parse.IsCall(name) {
		return ""
	}
	name = normalizeThis(name)

	if macro {
		var first, rest = splitFirst(name)
		var mv, ok = ctx.macro.Get(first)
		if !ok || mv.Kind != MacroPath {
			return ""
		}
		return mv.Path + rest
	}

	var path string
	switch name[0] {
	case ':':
		var alias, rest = splitFirst(name)
		var depth, ok = ctx.Alias(alias)
		if !ok {
			return ""
		}
		var i = ctx.depth - depth
		if i < 1 || i > len(ctx.paths) || ctx.paths[i-1] == "" {
			return ""
		}
		path = ctx.paths[i-1] + rest

	case '.':
		var dots = countDots(name)
		if dots > len(ctx.paths) || ctx.paths[dots-1] == "" {
			return ""
		}
		path = ctx.paths[dots-1]
		if rest := name[dots:]; rest != "" {
			path += "." + rest
		}

	default:
		path = name
	}

	if !noReplace {
		path = replaceIndices(path, ctx.indices)
	}
	return path
}

// replaceIndices substitutes the symbolic indices in path, outermost first.
func replaceIndices(path string, indices []int) string {
	if !strings.Contains(path, "$#") {
		return path
	}
	var segs = strings.Split(path, ".")
	var k = 0
	for i, seg := range segs {
		if seg != "$#" {
			continue
		}
		if k < len(indices) {
			segs[i] = strconv.Itoa(indices[len(indices)-1-k])
		}
		k++
	}
	return strings.Join(segs, ".")
}

// realign returns a context whose list indices match the concrete indices in
// the path that triggered a re-render.  The symbolic indices of the innermost
// path are compared with the trigger segment by segment, stopping at the
// first mismatch.
func realign(ctx *Context, triggerPath string) *Context {
	var path = ctx.Path()
	if triggerPath == "" || path == "" || !strings.Contains(path, "$#") {
		return ctx
	}

	var (
		segs     = strings.Split(path, ".")
		trigger  = strings.Split(strings.TrimSuffix(triggerPath, "*"), ".")
		indices  = append([]int(nil), ctx.indices...)
		idx      = len(indices)
		modified = false
	)
	for i, seg := range segs {
		if i >= len(trigger) {
			break
		}
		if seg == "$#" {
			if n, err := strconv.Atoi(trigger[i]); err == nil {
				idx--
				if idx >= 0 {
					indices[idx] = n
					modified = true
				}
				continue
			}
		}
		if seg != trigger[i] {
			break
		}
	}
	if !modified {
		return ctx
	}
	return ctx.withIndices(indices)
}

// dataValue evaluates a placeholder name in ctx.
func (v *View) dataValue(ctx *Context, m Model, e *expr) data.Value {
	if e.call != nil {
		return v.callFn(ctx, m, e.call, e.macro)
	}
	return v.pathValue(ctx, m, e.name, e.macro)
}

func (v *View) pathValue(ctx *Context, m Model, name string, macro bool) data.Value {
	if macro {
		var first, rest = splitFirst(normalizeThis(name))
		var mv, ok = ctx.macro.Get(first)
		if !ok {
			return data.Undefined{}
		}
		switch mv.Kind {
		case MacroPath:
			return m.Get(mv.Path + rest)
		case MacroComputed:
			return data.String(mv.Render(m))
		}
		return data.Get(mv.Literal, strings.TrimPrefix(rest, "."))
	}

	if path := resolvePath(ctx, name, false, false); path != "" {
		if val := m.Get(path); !isUndefined(val) {
			return val
		}
	}
	if val, ok := ctx.Lookup(name); ok && val != nil {
		return val
	}
	return data.Undefined{}
}

// callFn evaluates a view function call.  Calling a function that is not
// defined is an error.
func (v *View) callFn(ctx *Context, m Model, call *parse.Call, macro bool) data.Value {
	var fn = v.getFn(call.Name)
	if fn == nil {
		panic(fmt.Errorf("view: function %q is not defined", call.Name))
	}
	var out = fn(v.callArgs(ctx, m, call, macro)...)
	if out == nil {
		return data.Undefined{}
	}
	return out
}

func (v *View) callArgs(ctx *Context, m Model, call *parse.Call, macro bool) []data.Value {
	var args = make([]data.Value, len(call.Args))
	for i, arg := range call.Args {
		switch {
		case arg.Call != nil:
			args[i] = v.callFn(ctx, m, arg.Call, macro)
		case arg.Literal != nil:
			args[i] = arg.Literal
		default:
			args[i] = v.pathValue(ctx, m, arg.Path, macro)
		}
	}
	return args
}

func isUndefined(v data.Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(data.Undefined)
	return ok
}
