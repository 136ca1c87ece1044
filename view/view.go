// Package view compiles templates into render functions that produce markup
// from a model and bind listeners to the model paths they read, so that a
// document layer can update the rendered markup when the model changes.
//
// Templates are HTML with placeholders:
//
//	{{name}}               renders the value at the model path "name" once
//	{name}                 renders it and updates it when it changes
//	{{{name}}}             renders an attribute passed to the enclosing component
//	{#if cond}..{/if}      blocks: if, else if, else, unless, each, with
//	{{> ns:name a=b}}      includes a view
//	<ns:name a="{b}">      includes a view as a component
//
// Views are made on a View under names like "ns:name", compiled when first
// used, and rendered with Get or Render.
package view

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/htmlutil"
	"github.com/robfig/liveview/markup"
	"github.com/robfig/liveview/model"
)

// Logger reports panics raised by tasks run after a render.
var Logger = log.New(os.Stderr, "[view] ", 0)

// ErrViewNotFound is returned when a view is rendered or included but has not
// been made.
var ErrViewNotFound = errors.New("view not found")

// Model is the data that views render and bind to.  *model.Model implements
// it.
type Model interface {
	Get(path string) data.Value
	Set(path string, value interface{}) error
	Del(path string)
	Ref(from, to string)
	PathID(path string) int
	Bind(pathID int, l model.Listener)
	BlockPaths() map[string]int
	Emit(name string, args ...interface{})
	Reset()
}

// Options are the options of a made view.
type Options struct {
	// NonVoid marks a component that takes content between its start and end
	// tags.
	NonVoid bool
}

// Instance is a view to make from a template source, shared by the views
// made from the same source.
type Instance struct {
	Source string // name of the template
	Options
}

// View is a registry of named views.
type View struct {
	// IsServer marks a view rendering on the server, which does not run the
	// Create scripts of components.
	IsServer bool

	views     map[string]*entry // by lower-case name, and specialized variants
	sources   map[string]*entry // by source id
	nonvoid   map[string]bool
	libraries map[string]*Library
	selfNS    string
	host      *View // view that a library view belongs to

	getFns map[string]GetFunc
	setFns map[string]SetFunc

	ids   int
	dom   DOM
	tasks *TaskQueue
}

// entry is a made view, compiled on first use.
type entry struct {
	name       string
	template   string
	isString   bool
	boundMacro map[string]string

	compiled bool
	sec      *section
	err      error
}

// New returns a View with the default views made.  Each library's views are
// attached to it, and include one another under the library's namespace.
func New(libraries map[string]*Library) *View {
	var v = newView(libraries)
	for ns, lib := range libraries {
		if lib.View == nil {
			lib.View = New(nil)
		}
		lib.View.host = v
		lib.View.selfNS = ns
	}
	v.Clear()
	return v
}

func newView(libraries map[string]*Library) *View {
	return &View{
		selfNS:    "app",
		libraries: libraries,
		getFns:    make(map[string]GetFunc),
		setFns:    make(map[string]SetFunc),
		dom:       nopDOM{},
		tasks:     &TaskQueue{},
	}
}

// Sibling returns an empty View using the libraries of v, to make views on
// and then Replace those of v with.  The libraries stay attached to v.
func (v *View) Sibling() *View {
	var sib = newView(v.libraries)
	sib.selfNS = v.selfNS
	sib.Clear()
	return sib
}

// Replace gives v the views and functions of other.  v keeps its id counter,
// document layer and task queue, which views compiled on other use from then
// on.  other must not be used afterwards.
func (v *View) Replace(other *View) {
	v.views, v.sources, v.nonvoid = other.views, other.sources, other.nonvoid
	v.getFns, v.setFns = other.getFns, other.setFns
	other.host = v
}

var defaultViews = []struct{ name, template string }{
	{"doctype", "<!DOCTYPE html>"},
	{"root", ""},
	{"charset", "<meta charset=utf-8>"},
	{"title$s", ""},
	{"head", ""},
	{"header", ""},
	{"body", ""},
	{"footer", ""},
	{"scripts", ""},
	{"tail", ""},
}

// Clear forgets every made view, restoring the defaults.
func (v *View) Clear() {
	v.views = make(map[string]*entry)
	v.sources = make(map[string]*entry)
	v.nonvoid = make(map[string]bool)
	v.ids = 0
	for _, d := range defaultViews {
		v.make(d.name, d.template, Options{}, "", nil)
	}
}

var titleRx = regexp.MustCompile(`(?:^|:)title(\$s)?$`)

// Make makes a view from a template.  Views made with the same non-empty
// sourceID share the render function compiled for the first of them.  A view
// named "title" also gets a "title$s" view that renders the title as text,
// for the document's title.
func (v *View) Make(name, template string, opts Options, sourceID string) {
	v.make(name, template, opts, sourceID, nil)
}

func (v *View) make(name, template string, opts Options, sourceID string, boundMacro map[string]string) {
	name = strings.ToLower(name)
	if opts.NonVoid {
		v.nonvoid[name] = true
	}

	var isString = false
	if m := titleRx.FindStringSubmatch(name); m != nil {
		isString = m[1] != ""
		if !isString {
			var sid = sourceID
			if sid != "" {
				sid += "$s"
			}
			v.make(name+"$s", template, opts, sid, boundMacro)
		}
	}

	if sourceID != "" {
		if e, ok := v.sources[sourceID]; ok {
			v.views[name] = e
			return
		}
	}
	var e = &entry{name: name, template: template, isString: isString, boundMacro: boundMacro}
	v.views[name] = e
	if sourceID != "" {
		v.sources[sourceID] = e
	}
}

// MakeAll clears the view and makes a view for every instance, from the
// named templates.  Instances are made in name order.
func (v *View) MakeAll(templates map[string]string, instances map[string]Instance) error {
	v.Clear()
	var names = make([]string, 0, len(instances))
	for name := range instances {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var inst = instances[name]
		var tpl, ok = templates[inst.Source]
		if !ok {
			return fmt.Errorf("view %q: template %q not found", name, inst.Source)
		}
		v.Make(name, tpl, inst.Options, inst.Source)
	}
	return nil
}

// CompileAll compiles every made view, returning the first error found.
func (v *View) CompileAll() error {
	var names = make([]string, 0, len(v.views))
	for name := range v.views {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := v.compileEntry(v.views[name]); err != nil {
			return err
		}
	}
	return nil
}

// Fn registers a view function.  set may be nil if the function cannot be
// bound to an input.
func (v *View) Fn(name string, get GetFunc, set SetFunc) {
	v.getFns[name] = get
	if set != nil {
		v.setFns[name] = set
	}
}

func (v *View) getFn(name string) GetFunc {
	for ; v != nil; v = v.host {
		if fn, ok := v.getFns[name]; ok {
			return fn
		}
	}
	return DefaultGetFuncs[name]
}

func (v *View) setFn(name string) SetFunc {
	for ; v != nil; v = v.host {
		if fn, ok := v.setFns[name]; ok {
			return fn
		}
	}
	return DefaultSetFuncs[name]
}

// findKey returns the key of the view that name refers to from namespace ns:
// names in ns and each enclosing namespace are tried, innermost first, then
// name itself.
func (v *View) findKey(name, ns string) (string, bool) {
	name, ns = strings.ToLower(name), strings.ToLower(ns)
	if ns != "" {
		var segs = strings.Split(ns, ":")
		for i := len(segs); i > 0; i-- {
			var key = strings.Join(segs[:i], ":") + ":" + name
			if _, ok := v.views[key]; ok {
				return key, true
			}
		}
	}
	if _, ok := v.views[name]; ok {
		return name, true
	}
	return "", false
}

// find returns the compiled view that name refers to from ns.  When
// component attributes are bound, a variant of the view compiled for those
// bindings is returned.
func (v *View) find(name, ns string, boundMacro map[string]string) (*section, error) {
	var key, ok = v.findKey(name, ns)
	if !ok {
		return nil, fmt.Errorf("%w: %q in namespace %q", ErrViewNotFound, name, ns)
	}
	var e = v.views[key]
	if len(boundMacro) > 0 {
		var variant = key + "$b:" + keyHash(boundMacro)
		var ve, ok = v.views[variant]
		if !ok {
			ve = &entry{name: variant, template: e.template, isString: e.isString, boundMacro: boundMacro}
			v.views[variant] = ve
		}
		e = ve
	}
	return v.compileEntry(e)
}

func (v *View) compileEntry(e *entry) (*section, error) {
	if !e.compiled {
		var str bindParams
		if e.isString {
			str = bindParams{id: fixedID("$_doc"), method: markup.MethodProp, property: "title"}
		}
		e.sec, e.err = v.compile(e.name, e.template, e.isString, str, e.boundMacro)
		e.compiled = true
	}
	return e.sec, e.err
}

// keyHash identifies a set of bound attributes by their sorted names.
func keyHash(bound map[string]string) string {
	var keys = make([]string, 0, len(bound))
	for k := range bound {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func (v *View) isNonvoid(name, ns string) bool {
	var key, ok = v.findKey(name, ns)
	return ok && v.nonvoid[key]
}

// Template is a compiled view.
type Template struct {
	view *View
	sec  *section
}

// Find returns the view that name refers to from namespace ns, compiling it
// if needed.
func (v *View) Find(name, ns string) (*Template, error) {
	var sec, err = v.find(name, ns, nil)
	if err != nil {
		return nil, err
	}
	return &Template{v, sec}, nil
}

// Execute renders the template against the model, with vars visible by name,
// and writes the result to wr.
func (t *Template) Execute(wr io.Writer, m Model, vars data.Map) error {
	var out, err = t.view.render(t.sec, m, vars)
	if err != nil {
		return err
	}
	_, err = io.WriteString(wr, out)
	return err
}

// Get renders the view that name refers to from namespace ns.  Unlike Render
// it keeps the id counter and the model's bindings, so that views rendered
// into a document already on screen get fresh ids.  Calling Get repeatedly
// with the same model therefore accumulates listeners.
func (v *View) Get(m Model, name, ns string, vars data.Map) (string, error) {
	var sec, err = v.find(name, ns, nil)
	if err != nil {
		return "", err
	}
	return v.render(sec, m, vars)
}

func (v *View) render(sec *section, m Model, vars data.Map) (out string, err error) {
	defer renderRecover(&err)
	return sec.render(newContext(vars), m, "", ""), nil
}

// Page is a rendered document.
type Page struct {
	Doctype string
	Root    string
	Charset string
	Title   string // text, not markup
	Head    string
	Body    string // header, body and footer
	Scripts string
	Tail    string
}

// String returns the markup of the whole document.
func (p *Page) String() string {
	return p.Doctype + p.Root + p.Charset +
		"<title>" + htmlutil.EscapeHTML(p.Title) + "</title>" +
		p.Head + p.Body + p.Scripts + p.Tail
}

// Render renders the document from the views in namespace ns, starting from
// a clean slate: ids are reset, the model's bindings and component data are
// dropped, and the document layer is cleared.
func (v *View) Render(m Model, ns string, vars data.Map) (*Page, error) {
	v.top().ids = 0
	m.Reset()
	m.Del("_$component")
	v.document().Clear()

	var page = &Page{}
	var parts = []struct {
		name string
		out  *string
	}{
		{"title$s", &page.Title},
		{"root", &page.Root},
		{"header", nil},
		{"body", nil},
		{"footer", nil},
		{"doctype", &page.Doctype},
		{"charset", &page.Charset},
		{"head", &page.Head},
		{"scripts", &page.Scripts},
		{"tail", &page.Tail},
	}
	for _, part := range parts {
		var out, err = v.Get(m, part.name, ns, vars)
		if err != nil {
			return nil, err
		}
		if part.out == nil {
			page.Body += out
		} else {
			*part.out = out
		}
	}
	return page, nil
}

// SetDOM sets the document layer that elements are registered with.
func (v *View) SetDOM(dom DOM) {
	v.top().dom = dom
}

func (v *View) document() DOM {
	return v.top().dom
}

// Tasks returns the queue of tasks to run once rendered markup has been
// committed to the document.
func (v *View) Tasks() *TaskQueue {
	return v.top().tasks
}

// uniqueID returns an id for a generated element or marker.  Ids are unique
// within a render of the document.
func (v *View) uniqueID() string {
	var top = v.top()
	var id = "$" + strconv.FormatInt(int64(top.ids), 36)
	top.ids++
	return id
}

func (v *View) top() *View {
	for v.host != nil {
		v = v.host
	}
	return v
}
