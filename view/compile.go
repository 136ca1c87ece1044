package view

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/errortypes"
	"github.com/robfig/liveview/htmlutil"
	"github.com/robfig/liveview/markup"
	"github.com/robfig/liveview/parse"
)

// queue collects the items and bindings of the template or block being parsed.
type queue struct {
	items    []item
	bindings []binding
	slots    int

	block *parse.Placeholder // placeholder that opened the block
	comp  *component         // component whose content is being parsed
	chain []*queue           // closed alternatives of the block that follows
	pos   int                // offset of the opening placeholder or tag
	src   string             // opening placeholder or tag
}

func (q *queue) newSlot() int {
	q.slots++
	return q.slots - 1
}

// compiler turns a template into a section.  Markup is tokenized into
// elements and text; text is scanned for placeholders, which open and close
// blocks or render values.  In string mode, used for attribute values that
// mix text and placeholders and for the document title, the template is
// text only.
type compiler struct {
	view       *View
	name       string // view being compiled
	ns         string // namespace for partials, from the view name
	tpl        string
	isString   bool
	boundMacro map[string]string // component attributes bound to model paths
	str        bindParams        // how string mode listeners update the document
	strSec     *section          // the compiled string mode section
	outer      *compiler         // compiler of the element a string template is for

	queues []*queue
	minify bool
	pos    int    // offset of the next token
	at     int    // offset of the fragment being compiled, for errors
	src    string // the fragment being compiled, for errors
}

// compile compiles a template.  Errors identify the position of the offending
// fragment in the template.
func (v *View) compile(name, tpl string, isString bool, str bindParams, boundMacro map[string]string) (sec *section, err error) {
	var c = &compiler{
		view:       v,
		name:       name,
		ns:         namespace(name),
		tpl:        tpl,
		isString:   isString,
		boundMacro: boundMacro,
		str:        str,
	}
	defer c.recover(&err)
	return c.run(), nil
}

// namespace returns the namespace of a view name, ignoring the suffixes of
// its string mode and specialized variants.
func namespace(name string) string {
	if i := strings.Index(name, "$b:"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return ""
}

func (c *compiler) run() *section {
	c.queues = []*queue{{}}
	c.minify = true
	if c.isString {
		c.parseText(c.tpl, false, "", 0)
	} else {
		var err = htmlutil.Parse(c.tpl, htmlutil.Handler{
			Start:   c.start,
			Text:    c.text,
			End:     c.end,
			Comment: c.comment,
			Other:   c.other,
		})
		if err != nil {
			c.errorf("%v", err)
		}
	}
	if len(c.queues) > 1 {
		var q = c.top()
		c.at, c.src = q.pos, q.src
		c.errorf("Unclosed template block")
	}
	var sec = c.section(c.queues[0])
	if c.isString {
		sec.onRender = stringRoot
		c.strSec = sec
	}
	return sec
}

// compileString compiles an attribute value that mixes text and placeholders.
func (c *compiler) compileString(tpl string, str bindParams) *section {
	var sub = &compiler{
		view:       c.view,
		name:       c.name,
		ns:         c.ns,
		tpl:        tpl,
		isString:   true,
		boundMacro: c.boundMacro,
		str:        str,
		outer:      c,
	}
	return sub.run()
}

// renderString is the partial of string mode listeners: the whole string is
// rendered again.
func (c *compiler) renderString(ctx *Context, m Model, in blockInput) (string, bool) {
	return c.strSec.render(ctx, m, in.trigger, in.triggerID), true
}

func (c *compiler) section(q *queue) *section {
	return &section{
		frags:    c.view.reduce(q.items),
		slots:    q.slots,
		bindings: q.bindings,
	}
}

func (c *compiler) top() *queue {
	return c.queues[len(c.queues)-1]
}

func (c *compiler) push(q *queue) {
	c.queues = append(c.queues, q)
}

func (c *compiler) pop() *queue {
	var q = c.top()
	c.queues = c.queues[:len(c.queues)-1]
	return q
}

func (c *compiler) pushText(text string) {
	if text != "" {
		var q = c.top()
		q.items = append(q.items, item{kind: itemText, text: text})
	}
}

func (c *compiler) expr(name string, macro bool) *expr {
	if name == "" {
		return nil
	}
	var e, err = newExpr(name, macro)
	if err != nil {
		c.errorf("%v", err)
	}
	return e
}

// Tokenizer callbacks

func (c *compiler) start(tag, name string, attrs []htmlutil.Attr) {
	c.at, c.src = c.pos, tag
	c.pos += len(tag)

	c.minify = true
	var kept = make([]htmlutil.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "x-no-minify" {
			c.minify = false
			continue
		}
		kept = append(kept, a)
	}

	if c.isComponent(name) {
		c.startComponent(name, kept)
		return
	}

	var q = c.top()
	var el = newElement(name)
	for _, a := range kept {
		el.set(a.Key, &attrValue{static: a.Val, noValue: a.NoValue})
	}
	for _, a := range kept {
		c.parseAttr(q, el, a)
	}
	q.items = append(q.items, item{kind: itemStart, el: el})
}

func (c *compiler) text(text string, rawText bool, remainder string) {
	var base = len(c.tpl) - len(remainder) - len(text)
	c.pos = base + len(text)
	if c.minify && !rawText {
		var trimmed = htmlutil.TrimLeading(text)
		base += len(text) - len(trimmed)
		text = trimmed
	}
	c.parseText(text, rawText, remainder, base)
}

func (c *compiler) end(tag, name string) {
	c.at, c.src = c.pos, tag
	c.pos += len(tag)
	if c.isComponent(name) {
		c.endComponent(name)
		return
	}
	var q = c.top()
	q.items = append(q.items, item{kind: itemEnd, text: name})
}

func (c *compiler) comment(tag string) {
	c.pos += len(tag)
	if htmlutil.IsConditionalComment(tag) {
		c.pushText(tag)
	}
}

func (c *compiler) other(tag string) {
	c.pos += len(tag)
	c.pushText(tag)
}

// parseText compiles the placeholders in text one at a time.  remainder is
// the template source following text, and base its offset in the template.
func (c *compiler) parseText(text string, rawText bool, remainder string, base int) {
	var p *parse.Placeholder
	if !rawText {
		p = parse.Extract(text)
	}
	if p == nil {
		if c.isString {
			text = htmlutil.UnescapeEntities(text)
		}
		c.pushText(text)
		return
	}

	var pre = p.Pre
	if c.isString {
		pre = htmlutil.UnescapeEntities(pre)
	}
	c.pushText(pre)

	var rest = remainder
	if p.Post != "" {
		rest = p.Post
	}
	c.at, c.src = base+p.Offset, p.Source
	c.match(p, rest)

	if p.Post != "" {
		c.parseText(p.Post, false, remainder, base+p.Offset+len(p.Source))
	}
}

// match checks the block structure of a placeholder and compiles it.
func (c *compiler) match(p *parse.Placeholder, remainder string) {
	var q = c.top()
	var open string
	if q.block != nil {
		open = q.block.Type
	}

	var start, end bool
	switch p.Type {
	case parse.If, parse.Unless, parse.Each, parse.With:
		switch p.Hash {
		case "#":
			start = true
		case "/":
			end = true
		default:
			c.errorf("%s blocks must begin with a #", p.Type)
		}

	case parse.Else, parse.ElseIf:
		if p.Hash != "" {
			c.errorf("%s blocks may not start with %s", p.Type, p.Hash)
		}
		if open != parse.If && open != parse.ElseIf && open != parse.Unless && open != parse.Each {
			c.errorf("%s may only follow `if`, `else if`, `unless`, or `each`", p.Type)
		}
		start, end = true, true

	default:
		switch p.Hash {
		case "/":
			end = true
		case "#":
			c.errorf("# must be followed by `if`, `unless`, `each`, or `with`")
		}
	}

	if end {
		if q.block == nil {
			c.errorf("Unmatched template end tag")
		}
		if !start && p.Type != "" && p.Type != c.chainType(q) {
			c.errorf("Unmatched template end tag")
		}
	}
	c.onBlock(start, end, p, remainder)
}

// chainType returns the type of the block that opened a chain of
// alternatives.
func (c *compiler) chainType(q *queue) string {
	if parent := c.queues[len(c.queues)-2]; len(parent.chain) > 0 {
		return parent.chain[0].block.Type
	}
	return q.block.Type
}

// onBlock opens a block, closes one, or does both for an else alternative.
// The alternatives of a block are collected in the enclosing queue until the
// block ends.
func (c *compiler) onBlock(start, end bool, p *parse.Placeholder, remainder string) {
	if end {
		var closed = c.pop()
		var parent = c.top()
		parent.chain = append(parent.chain, closed)
	}
	if start {
		c.push(&queue{block: p, pos: c.at, src: c.src})
		return
	}
	if end {
		var parent = c.top()
		var alts = parent.chain
		parent.chain = nil
		var fns = make([]blockFunc, len(alts))
		for i, alt := range alts {
			fns[i] = c.view.blockFn(alt.block, c.expr(alt.block.Name, alt.block.Macro), c.section(alt))
		}
		c.pushVar(alts[0].block, chain(fns), remainder)
		return
	}
	c.pushVar(p, nil, remainder)
}

// isBound reports whether a placeholder is updated when the model changes.
// Component attributes are bound when the caller bound them.
func (c *compiler) isBound(p *parse.Placeholder, e *expr) bool {
	if e == nil {
		return false
	}
	if !p.Macro {
		return p.Bound
	}
	if e.call != nil {
		for _, arg := range parse.PathArgs(e.call) {
			if c.macroBound(arg) {
				return true
			}
		}
		return false
	}
	return c.macroBound(e.name)
}

// anyBound reports whether any placeholder in text is bound.
func (c *compiler) anyBound(text string) bool {
	for p := parse.Extract(text); p != nil; p = parse.Extract(p.Post) {
		if p.Name != "" && c.isBound(p, c.expr(p.Name, p.Macro)) {
			return true
		}
	}
	return false
}

func (c *compiler) macroBound(name string) bool {
	var first, _ = splitFirst(normalizeThis(name))
	var _, ok = c.boundMacro[first]
	return ok
}

// wrapRemainder reports whether a bound placeholder directly inside an
// element must be wrapped in markers: it can use the element itself only if
// it is the last thing in it.
func wrapRemainder(tag, remainder string) bool {
	if remainder == "" {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(remainder), "</"+tag)
}

// pushVar adds the output of a placeholder or block to the current queue.
// Bound output gets an id to be found by, either that of its parent element
// or that of a pair of comment markers around it.
func (c *compiler) pushVar(p *parse.Placeholder, fn blockFunc, remainder string) {
	if fn == nil && p.Partial != "" {
		fn = c.partialBlock(p)
	}
	if c.isString {
		c.pushVarString(p, fn)
		return
	}

	var q = c.top()
	var e = c.expr(p.Name, p.Macro)
	if !c.isBound(p, e) {
		c.pushValue(q, p, e, fn)
		return
	}

	var el *element
	if n := len(q.items); n > 0 && q.items[n-1].kind == itemStart {
		el = q.items[n-1].el
	}
	var wrap = p.Pre != "" || el == nil || htmlutil.IsVoid(el.tag) || wrapRemainder(el.tag, remainder)

	var slot int
	if wrap {
		slot = q.newSlot()
		q.items = append(q.items, item{kind: itemMarker, slot: slot})
	} else {
		slot = c.addID(q, el)
		if rule, ok := markup.BoundParent(el.tag); ok {
			c.bindEvents(q, e, bindParams{id: slotID(slot), method: rule.Method, property: rule.Property})
			c.bindInput(q, e, rule.Input, rule.Property, slot)
			c.pushValue(q, p, e, fn)
			return
		}
	}

	c.bindEvents(q, e, bindParams{
		id:      slotID(slot),
		method:  markup.MethodHTML,
		escape:  fn == nil && p.Escaped,
		partial: fn,
		isBlock: true,
	})
	c.pushValue(q, p, e, fn)
	if wrap {
		q.items = append(q.items, item{kind: itemMarker, text: "$", slot: slot})
	}
}

// pushVarString is pushVar in string mode.  Bound placeholders re-render the
// whole string.
func (c *compiler) pushVarString(p *parse.Placeholder, fn blockFunc) {
	var q = c.top()
	var e = c.expr(p.Name, p.Macro)
	if c.isBound(p, e) {
		var params = c.str
		params.partial = c.renderString
		c.bindEvents(q, e, params)
	}
	c.pushValue(q, p, e, fn)
}

func (c *compiler) pushValue(q *queue, p *parse.Placeholder, e *expr, fn blockFunc) {
	if fn != nil {
		q.items = append(q.items, item{kind: itemText, fn: func(ctx *Context, m Model, ids []string) string {
			var out, _ = fn(ctx, m, blockInput{})
			return out
		}})
		return
	}
	if e == nil {
		return
	}

	var v = c.view
	var escape, unescape = p.Escaped, false
	if c.isString {
		escape, unescape = false, !p.Escaped
	}
	q.items = append(q.items, item{kind: itemText, fn: func(ctx *Context, m Model, ids []string) string {
		var text = textValue(v.dataValue(ctx, m, e))
		switch {
		case escape:
			return htmlutil.EscapeHTML(text)
		case unescape:
			return htmlutil.UnescapeEntities(text)
		}
		return text
	}})
}

// addID makes sure an element has an id, generating one at render time if
// the template does not give one.  It returns the slot the id is rendered
// into.
func (c *compiler) addID(q *queue, el *element) int {
	if el.slot < 0 {
		el.slot = q.newSlot()
	}
	if _, ok := el.attrs["id"]; !ok {
		el.set("id", &attrValue{generate: true})
	}
	return el.slot
}

// parseAttr compiles an attribute of an ordinary element.
func (c *compiler) parseAttr(q *queue, el *element, a htmlutil.Attr) {
	var rule, _ = markup.Attr(a.Key, el.tag)
	if rule.AddID {
		c.addID(q, el)
	}
	if rule.DOMEvents {
		c.bindDOMEvents(q, el.slot, markup.ParseEvents(a.Val))
	}
	if rule.As {
		c.bindAs(q, el.slot, a.Val)
	}
	if rule.Del {
		el.del(a.Key)
		return
	}

	var p = parse.Extract(a.Val)
	if p == nil {
		return
	}

	if p.Pre != "" || p.Post != "" || p.Hash != "" || p.Type != "" {
		var sec = c.compileString(a.Val, bindParams{id: stringID, method: markup.MethodAttr, property: a.Key})
		if !c.anyBound(a.Val) {
			el.set(a.Key, &attrValue{text: func(ctx *Context, m Model, ids []string) string {
				return sec.render(ctx, m, "", "")
			}})
			return
		}
		var slot = c.addID(q, el)
		el.set(a.Key, &attrValue{text: func(ctx *Context, m Model, ids []string) string {
			return sec.render(ctx, m, "", ids[slot])
		}})
		return
	}

	var e = c.expr(p.Name, p.Macro)
	if e == nil {
		return
	}
	if c.isBound(p, e) {
		var bound, _ = markup.Bound(a.Key, el.tag)
		var slot = c.addID(q, el)
		var method, property = bound.Method, bound.Property
		if method == "" {
			method = markup.MethodAttr
		}
		if property == "" {
			property = a.Key
		}
		c.bindEvents(q, e, bindParams{id: slotID(slot), method: method, property: property})
		c.bindInput(q, e, bound.Input, property, slot)
	}

	var v = c.view
	if rule.Bool {
		el.set(a.Key, &attrValue{boolean: func(ctx *Context, m Model) bool {
			return v.dataValue(ctx, m, e).Truthy()
		}})
		return
	}
	el.set(a.Key, &attrValue{text: func(ctx *Context, m Model, ids []string) string {
		return textValue(v.dataValue(ctx, m, e))
	}})
}

// bindInput registers the element with the document layer, so that input
// events write the property back to the model.
func (c *compiler) bindInput(q *queue, e *expr, event, property string, slot int) {
	if event == "" {
		return
	}
	var v = c.view
	q.bindings = append(q.bindings, func(ctx *Context, st *bindState) {
		v.document().Bind(DOMBinding{
			Event:    event,
			ID:       st.ids[slot],
			Property: property,
			Path:     resolvePath(ctx, e.name, e.macro, false),
		})
	})
}

// bindDOMEvents registers the handlers named by x-bind.
func (c *compiler) bindDOMEvents(q *queue, slot int, events []markup.Event) {
	var v = c.view
	q.bindings = append(q.bindings, func(ctx *Context, st *bindState) {
		for _, ev := range events {
			v.document().Bind(DOMBinding{Event: ev.Name, ID: st.ids[slot], Handler: ev.Handler})
		}
	})
}

// bindAs records the id of an element named by x-as for its component.
func (c *compiler) bindAs(q *queue, slot int, name string) {
	q.bindings = append(q.bindings, func(ctx *Context, st *bindState) {
		if ctx.elements != nil {
			ctx.elements[name] = st.ids[slot]
		}
	})
}

// Components

// isComponent reports whether a tag names a view of this application or of
// a library.
func (c *compiler) isComponent(tag string) bool {
	var ns, _ = splitPartial(tag)
	return ns != "" && (ns == c.view.selfNS || c.view.top().libraries[ns] != nil)
}

func (c *compiler) newComponent(partial string) *component {
	var comp = &component{partial: partial, target: c.view, bound: make(map[string]string)}
	comp.ns, comp.name = splitPartial(partial)
	if lib := c.view.top().libraries[comp.ns]; lib != nil {
		comp.target = lib.View
	}
	return comp
}

func (c *compiler) addMacroAttr(comp *component, key, value string, noValue bool) {
	if key == "content" {
		c.errorf(`components may not have an attribute named "content"`)
	}
	var ma = macroAttr{key: key}
	switch p := parse.Extract(value); {
	case p != nil:
		if p.Pre != "" || p.Post != "" || p.Hash != "" || p.Type != "" || p.Partial != "" {
			c.errorf("unimplemented: blocks in component attributes")
		}
		ma.expr = c.expr(p.Name, p.Macro)
		if c.isBound(p, ma.expr) {
			comp.bound[key] = p.Name
		}
	case noValue:
		ma.literal = data.Bool(true)
	default:
		ma.literal = attrLiteral(value)
	}
	comp.attrs = append(comp.attrs, ma)
}

// attrLiteral decodes a component attribute given as plain text.
func attrLiteral(s string) data.Value {
	switch s {
	case "true":
		return data.Bool(true)
	case "false":
		return data.Bool(false)
	case "null":
		return data.Null{}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return data.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return data.Float(f)
	}
	return data.String(s)
}

func (c *compiler) startComponent(tag string, attrs []htmlutil.Attr) {
	var comp = c.newComponent(tag)
	for _, a := range attrs {
		c.addMacroAttr(comp, a.Key, a.Val, a.NoValue)
	}
	if comp.target.isNonvoid(comp.name, c.ns) {
		c.push(&queue{comp: comp, pos: c.at, src: c.src})
		return
	}
	c.pushComponent(comp)
}

func (c *compiler) endComponent(tag string) {
	var q = c.top()
	if q.comp != nil && q.comp.partial == tag {
		c.pop()
		q.comp.content = c.section(q)
		c.pushComponent(q.comp)
		return
	}
	var comp = c.newComponent(tag)
	if !comp.target.isNonvoid(comp.name, c.ns) {
		return
	}
	c.errorf("Unmatched template end tag")
}

func (c *compiler) pushComponent(comp *component) {
	var q = c.top()
	q.items = append(q.items, item{kind: itemText, fn: c.view.componentFn(comp, c.alias(comp), c.ns)})
}

// partialBlock compiles the partial named by a placeholder.
func (c *compiler) partialBlock(p *parse.Placeholder) blockFunc {
	if !c.isComponent(p.Partial) {
		c.errorf("unknown partial namespace in %q", p.Partial)
	}
	var comp = c.newComponent(p.Partial)
	for _, a := range p.Attrs {
		c.addMacroAttr(comp, a.Key, a.Value, false)
	}
	var fn = c.view.componentFn(comp, c.alias(comp), c.ns)
	return func(ctx *Context, m Model, in blockInput) (string, bool) {
		return fn(ctx, m, nil), true
	}
}

// alias returns the alias library components are rendered with.
func (c *compiler) alias(comp *component) string {
	if c.view.top().libraries[comp.ns] == nil {
		return ""
	}
	return ":self"
}

// Errors

// errorf reports a structural error at the fragment being compiled.
func (c *compiler) errorf(format string, args ...interface{}) {
	c.fail(fmt.Sprintf(format, args...) + "\n\n" + c.src)
}

func (c *compiler) fail(msg string) {
	if c.outer != nil {
		c.outer.fail(msg)
	}
	panic(errortypes.At(c.name, c.tpl, c.at, "%s", msg))
}

// recover is the handler that turns panics into returns from the top level
// of compile.
func (c *compiler) recover(errp *error) {
	if e := recover(); e != nil {
		if _, ok := e.(runtime.Error); ok {
			panic(e)
		}
		*errp = e.(error)
	}
}
