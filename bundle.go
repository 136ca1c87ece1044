package liveview

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/robfig/liveview/i18n"
	"github.com/robfig/liveview/jsfn"
	"github.com/robfig/liveview/view"
)

// Logger receives recompilation notices and errors from bundles that watch
// their files.
var Logger = log.New(os.Stderr, "[liveview] ", 0)

type funcs struct {
	get view.GetFunc
	set view.SetFunc
}

type script struct{ name, content, diskPath string }

// Bundle is a collection of view templates, view functions, component
// libraries and message catalogs.  It acts as input for the view compiler.
type Bundle struct {
	files                 []viewFile
	scripts               []script
	fns                   map[string]funcs
	libraries             map[string]*view.Library
	msgs                  i18n.Provider
	locale                string
	err                   error
	watcher               *fsnotify.Watcher
	recompilationCallback func(*view.View)
	recompilationLock     sync.Locker
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{
		fns:       make(map[string]funcs),
		libraries: make(map[string]*view.Library),
	}
}

// WatchFiles tells the bundle to watch any template and function files added
// to it, re-compile as necessary, and propagate the updates to the compiled
// view.  It should be called once, before adding any files.
func (b *Bundle) WatchFiles(watch bool) *Bundle {
	if watch && b.err == nil && b.watcher == nil {
		b.watcher, b.err = fsnotify.NewWatcher()
	}
	return b
}

// AddTemplateDir adds all *.html files found within the given directory
// (including sub-directories) to the bundle.  The views of each file are
// namespaced by its path below root: the sections of "root/app/home.html"
// are made as "app:home:<section>", those of "root/app/index.html" as
// "app:<section>".
func (b *Bundle) AddTemplateDir(root string) *Bundle {
	var err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".html") {
			return nil
		}
		b.addFile(path, namespaceOf(root, path))
		return nil
	})
	if err != nil {
		b.err = err
	}
	return b
}

// AddTemplateFile adds the given template file to this bundle, namespaced by
// its base name.  If WatchFiles is on, it will be subsequently watched for
// updates.
func (b *Bundle) AddTemplateFile(filename string) *Bundle {
	return b.addFile(filename, namespaceOf(filepath.Dir(filename), filename))
}

func (b *Bundle) addFile(filename, ns string) *Bundle {
	content, err := ioutil.ReadFile(filename)
	if err != nil {
		b.err = err
	}
	if b.err == nil && b.watcher != nil {
		b.err = b.watcher.Add(filename)
	}
	b.files = append(b.files, viewFile{filepath.ToSlash(filename), ns, string(content), filename})
	return b
}

// AddTemplateString adds the given template file text to the bundle, with its
// views in namespace ns.  The name is used to resolve imports and in error
// messages - it does not need to be a real filename.
func (b *Bundle) AddTemplateString(filename, ns, content string) *Bundle {
	b.files = append(b.files, viewFile{filepath.ToSlash(filename), ns, content, ""})
	return b
}

// AddFunc adds a view function.  set inverts the function for inputs bound
// to it, and may be nil.
func (b *Bundle) AddFunc(name string, get view.GetFunc, set view.SetFunc) *Bundle {
	if _, ok := b.fns[name]; ok {
		b.err = fmt.Errorf("view function %q already defined", name)
		return b
	}
	b.fns[name] = funcs{get, set}
	return b
}

// AddFuncsFile adds the view functions registered by a JavaScript file.  See
// package jsfn.
func (b *Bundle) AddFuncsFile(filename string) *Bundle {
	content, err := ioutil.ReadFile(filename)
	if err != nil {
		b.err = err
	}
	if b.err == nil && b.watcher != nil {
		b.err = b.watcher.Add(filename)
	}
	b.scripts = append(b.scripts, script{filename, string(content), filename})
	return b
}

// AddFuncsString adds the view functions registered by a JavaScript source.
func (b *Bundle) AddFuncsString(filename, src string) *Bundle {
	b.scripts = append(b.scripts, script{filename, src, ""})
	return b
}

// AddLibrary adds a library of components, used in templates as <ns:name>.
func (b *Bundle) AddLibrary(ns string, lib *view.Library) *Bundle {
	if _, ok := b.libraries[ns]; ok {
		b.err = fmt.Errorf("library %q already added", ns)
		return b
	}
	b.libraries[ns] = lib
	return b
}

// AddMessagesDir loads the PO message catalogs in dirname and provides the
// messages for locale to views as the function t.  See package i18n.
func (b *Bundle) AddMessagesDir(dirname, locale string) *Bundle {
	var msgs, err = i18n.Dir(dirname)
	if err != nil {
		b.err = err
		return b
	}
	return b.AddMessages(msgs, locale)
}

// AddMessages provides the messages for locale to views as the function t.
func (b *Bundle) AddMessages(msgs i18n.Provider, locale string) *Bundle {
	b.msgs, b.locale = msgs, locale
	return b
}

// SetRecompilationCallback assigns the bundle a function to call after
// recompilation.  This is called after updating the in-use view, and not when
// the changed files fail to compile.
func (b *Bundle) SetRecompilationCallback(c func(*view.View)) *Bundle {
	b.recompilationCallback = c
	return b
}

// SetRecompilationLock gives the bundle a lock to hold while it swaps
// recompiled views into the in-use view.  Callers rendering from several
// goroutines hold the same lock while rendering.
func (b *Bundle) SetRecompilationLock(l sync.Locker) *Bundle {
	b.recompilationLock = l
	return b
}

// Compile parses all of the template files in this bundle, compiles every
// view they declare, and returns the View to render them with.
func (b *Bundle) Compile() (*view.View, error) {
	if b.err != nil {
		return nil, b.err
	}
	var v = view.New(b.libraries)
	if err := b.compileInto(v); err != nil {
		return nil, err
	}
	if b.watcher != nil {
		go b.recompiler(v)
	}
	return v, nil
}

// compileInto makes the bundle's views and functions on v, replacing any
// made before.
func (b *Bundle) compileInto(v *view.View) error {
	var templates, instances, err = b.instances()
	if err != nil {
		return err
	}
	if err = v.MakeAll(templates, instances); err != nil {
		return err
	}

	for name, fn := range b.fns {
		v.Fn(name, fn.get, fn.set)
	}
	for _, s := range b.scripts {
		var fns, err = jsfn.Load(s.name, s.content)
		if err != nil {
			return err
		}
		for name, fn := range fns {
			v.Fn(name, fn, nil)
		}
	}
	if b.msgs != nil {
		v.Fn("t", i18n.Func(b.msgs, b.locale), nil)
	}
	return v.CompileAll()
}

// instances parses the template files, returning the template of every
// section by source id and the views to make from them.
func (b *Bundle) instances() (map[string]string, map[string]view.Instance, error) {
	var (
		byName    = make(map[string]viewFile)
		parsed    = make(map[string][]fileSection)
		templates = make(map[string]string)
		instances = make(map[string]view.Instance)
	)
	for _, f := range b.files {
		byName[f.name] = f
	}

	var sections func(f viewFile) ([]fileSection, error)
	sections = func(f viewFile) ([]fileSection, error) {
		if s, ok := parsed[f.name]; ok {
			return s, nil
		}
		var s, err = parseFile(f)
		if err != nil {
			return nil, err
		}
		parsed[f.name] = s
		for _, sec := range s {
			if sec.name != "import" {
				templates[sectionSource(f, sec.name)] = sec.body
			}
		}
		return s, nil
	}

	var add func(f viewFile, ns string, seen []string) error
	add = func(f viewFile, ns string, seen []string) error {
		for _, name := range seen {
			if name == f.name {
				return fmt.Errorf("%s: import cycle: %s", f.name, strings.Join(append(seen, f.name), " -> "))
			}
		}
		var secs, err = sections(f)
		if err != nil {
			return err
		}
		for _, sec := range secs {
			if sec.name != "import" {
				instances[joinNS(ns, sec.name)] = view.Instance{
					Source:  sectionSource(f, sec.name),
					Options: view.Options{NonVoid: sec.options["nonvoid"] == "true"},
				}
				continue
			}
			var src = sec.options["src"]
			if src == "" {
				return fmt.Errorf("%s: import requires a src", f.name)
			}
			var target, ok = b.importFile(byName, f.name, src)
			if !ok {
				return fmt.Errorf("%s: import %q not found", f.name, src)
			}
			byName[target.name] = target
			if err = add(target, joinNS(ns, sec.options["ns"]), append(seen, f.name)); err != nil {
				return err
			}
		}
		return nil
	}

	var files = append([]viewFile(nil), b.files...)
	sort.SliceStable(files, func(i, j int) bool { return files[i].name < files[j].name })
	for _, f := range files {
		if err := add(f, f.ns, nil); err != nil {
			return nil, nil, err
		}
	}
	return templates, instances, nil
}

// importFile finds the file imported with src from the file named from,
// among the bundle's files or else on disk.
func (b *Bundle) importFile(byName map[string]viewFile, from, src string) (viewFile, bool) {
	var candidates = resolveImport(from, src)
	for _, name := range candidates {
		if f, ok := byName[name]; ok {
			return f, true
		}
	}
	for _, name := range candidates {
		var content, err = ioutil.ReadFile(filepath.FromSlash(name))
		if err != nil {
			continue
		}
		if b.watcher != nil {
			if err := b.watcher.Add(filepath.FromSlash(name)); err != nil {
				Logger.Println(err)
			}
		}
		return viewFile{name, namespaceOf(path.Dir(name), name), string(content), filepath.FromSlash(name)}, true
	}
	return viewFile{}, false
}

// reload returns a copy of the bundle with its files read again from disk.
func (b *Bundle) reload() *Bundle {
	var nb = &Bundle{
		fns:       b.fns,
		libraries: b.libraries,
		msgs:      b.msgs,
		locale:    b.locale,
		watcher:   b.watcher,
	}
	for _, f := range b.files {
		if f.diskPath != "" {
			content, err := ioutil.ReadFile(f.diskPath)
			if err != nil && nb.err == nil {
				nb.err = err
			}
			f.content = string(content)
		}
		nb.files = append(nb.files, f)
	}
	for _, s := range b.scripts {
		if s.diskPath != "" {
			content, err := ioutil.ReadFile(s.diskPath)
			if err != nil && nb.err == nil {
				nb.err = err
			}
			s.content = string(content)
		}
		nb.scripts = append(nb.scripts, s)
	}
	return nb
}

// settle is how long the watcher waits for a burst of file events to end
// before recompiling.
const settle = 50 * time.Millisecond

// recompile compiles the files as they are on disk into a sibling of v and
// swaps the result into v.  v is left as it was if compilation fails.
func (b *Bundle) recompile(v *view.View) error {
	var nb = b.reload()
	if nb.err != nil {
		return nb.err
	}
	var nv = v.Sibling()
	if err := nb.compileInto(nv); err != nil {
		return err
	}
	if l := b.recompilationLock; l != nil {
		l.Lock()
		defer l.Unlock()
	}
	v.Replace(nv)
	return nil
}

// recompiler recompiles v whenever a watched file changes.
func (b *Bundle) recompiler(v *view.View) {
	var timer = time.NewTimer(settle)
	timer.Stop()
	var changed []string
	for {
		select {
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			// Renaming or removing a file drops its watch.  Editors that save
			// by renaming put a new file in its place shortly after.
			if ev.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				time.Sleep(10 * time.Millisecond)
				if err := b.watcher.Add(ev.Name); err != nil {
					Logger.Println(err)
				}
			}
			changed = append(changed, ev.Name)
			timer.Reset(settle)

		case <-timer.C:
			if err := b.recompile(v); err != nil {
				Logger.Println(err)
				changed = changed[:0]
				continue
			}
			if b.recompilationCallback != nil {
				b.recompilationCallback(v)
			}
			Logger.Printf("recompiled after changes to %s", strings.Join(dedupe(changed), ", "))
			changed = changed[:0]

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			Logger.Println(err)
		}
	}
}

func dedupe(names []string) []string {
	var seen = make(map[string]bool)
	var out []string
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
