package view

import (
	"strings"

	"github.com/robfig/liveview/htmlutil"
)

// fragFunc renders a dynamic fragment of a section.  ids holds the element
// ids generated by the current render of the section.
type fragFunc func(ctx *Context, m Model, ids []string) string

// fragment is static text or a dynamic fragment.
type fragment struct {
	text string
	fn   fragFunc
}

type itemKind int

const (
	itemText itemKind = iota
	itemStart
	itemEnd
	itemMarker
)

// item is an entry of the stack built while parsing a section: literal or
// dynamic text, an element start or end, or a comment marker delimiting a
// bound fragment.
type item struct {
	kind itemKind
	text string   // text, tag name or marker prefix
	fn   fragFunc // dynamic text
	el   *element // itemStart
	slot int      // itemMarker
}

// element is a start tag whose attributes may be rendered dynamically.
type element struct {
	tag   string
	keys  []string
	attrs map[string]*attrValue
	slot  int // index of the element's id among the section's ids, or -1
}

func newElement(tag string) *element {
	return &element{tag: tag, attrs: make(map[string]*attrValue), slot: -1}
}

func (el *element) set(key string, a *attrValue) {
	if _, ok := el.attrs[key]; !ok {
		el.keys = append(el.keys, key)
	}
	el.attrs[key] = a
}

func (el *element) del(key string) {
	if _, ok := el.attrs[key]; !ok {
		return
	}
	delete(el.attrs, key)
	for i, k := range el.keys {
		if k == key {
			el.keys = append(el.keys[:i:i], el.keys[i+1:]...)
			break
		}
	}
}

// attrValue is the value of an attribute.
type attrValue struct {
	static   string
	noValue  bool
	generate bool                                             // a generated id
	text     func(ctx *Context, m Model, ids []string) string // rendered value, before escaping
	boolean  func(ctx *Context, m Model) bool                 // rendered as the bare name when true
}

// fragments accumulates the output of reduce, joining adjacent static text.
type fragments struct {
	out []fragment
	buf strings.Builder
}

func (f *fragments) text(s string) {
	f.buf.WriteString(s)
}

func (f *fragments) fn(fn fragFunc) {
	f.flush()
	f.out = append(f.out, fragment{fn: fn})
}

func (f *fragments) flush() {
	if f.buf.Len() > 0 {
		f.out = append(f.out, fragment{text: f.buf.String()})
		f.buf.Reset()
	}
}

// reduce turns a parsed stack into the fragments of a section.  The id of an
// element is rendered before its other attributes, so that the fragments
// rendering them can refer to it.
func (v *View) reduce(items []item) []fragment {
	var f fragments
	for _, it := range items {
		switch it.kind {
		case itemText:
			if it.fn != nil {
				f.fn(it.fn)
			} else {
				f.text(it.text)
			}

		case itemStart:
			var el = it.el
			f.text("<" + el.tag)
			if a, ok := el.attrs["id"]; ok {
				v.reduceAttr(&f, el, "id", a)
			}
			for _, key := range el.keys {
				if key != "id" {
					v.reduceAttr(&f, el, key, el.attrs[key])
				}
			}
			f.text(">")

		case itemEnd:
			f.text("</" + it.text + ">")

		case itemMarker:
			var slot = it.slot
			f.text("<!--" + it.text)
			if it.text == "" {
				f.fn(func(ctx *Context, m Model, ids []string) string {
					ids[slot] = v.uniqueID()
					return ids[slot]
				})
			} else {
				f.fn(func(ctx *Context, m Model, ids []string) string {
					return ids[slot]
				})
			}
			f.text("-->")
		}
	}
	f.flush()
	return f.out
}

func (v *View) reduceAttr(f *fragments, el *element, key string, a *attrValue) {
	var slot = -1
	if key == "id" {
		slot = el.slot
	}
	switch {
	case a.boolean != nil:
		var fn = a.boolean
		var out = " " + key
		f.fn(func(ctx *Context, m Model, ids []string) string {
			if fn(ctx, m) {
				return out
			}
			return ""
		})

	case a.generate:
		f.text(" " + key + "=")
		f.fn(func(ctx *Context, m Model, ids []string) string {
			var id = v.uniqueID()
			ids[slot] = id
			return htmlutil.EscapeAttribute(id)
		})

	case a.text != nil:
		var fn = a.text
		f.text(" " + key + "=")
		f.fn(func(ctx *Context, m Model, ids []string) string {
			var s = fn(ctx, m, ids)
			if slot >= 0 {
				ids[slot] = s
			}
			return htmlutil.EscapeAttribute(s)
		})

	case a.noValue && slot < 0:
		f.text(" " + key)

	case slot >= 0:
		var id = a.static
		f.text(" " + key + "=" + htmlutil.EscapeAttribute(id))
		f.fn(func(ctx *Context, m Model, ids []string) string {
			ids[slot] = id
			return ""
		})

	default:
		f.text(" " + key + "=" + htmlutil.EscapeAttribute(a.static))
	}
}
