package liveview

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andreyvit/diff"
	"github.com/google/go-cmp/cmp"

	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/errortypes"
	"github.com/robfig/liveview/model"
	"github.com/robfig/liveview/view"
)

func TestBundle(t *testing.T) {
	var v, err = NewBundle().
		AddTemplateDir("testdata/views").
		AddFuncsFile("testdata/views/fns.js").
		AddMessagesDir("testdata/msgs", "fr").
		Compile()
	if err != nil {
		t.Fatal(err)
	}

	var m = model.New(data.New(map[string]interface{}{
		"user":  map[string]interface{}{"name": "Rob"},
		"items": []map[string]interface{}{{"name": "a"}, {"name": "b"}},
	}).(data.Map))
	page, err := v.Render(m, "app", nil)
	if err != nil {
		t.Fatal(err)
	}

	if page.Title != "Items of Rob" {
		t.Errorf("unexpected title %q", page.Title)
	}
	var expected = `<h1>Bonjour, <!--$0-->Rob<!--$$0--></h1><ul id=$1><li>A!</li><li>B!</li></ul>`
	if page.Body != expected {
		t.Errorf("unexpected body:\n%v", diff.LineDiff(expected, page.Body))
	}
	if !strings.HasPrefix(page.String(), "<!DOCTYPE html><meta charset=utf-8><title>Items of Rob</title>") {
		t.Errorf("unexpected document %q", page.String())
	}
	if len(m.Listeners("user.name")) != 2 {
		t.Errorf("expected the title and the heading to be bound to user.name, got %d listeners",
			len(m.Listeners("user.name")))
	}

	for _, name := range []string{"shared:footer", "footer"} {
		var out, err = v.Get(m, name, "app:shared", data.Map{"year": data.Int(2024)})
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if out != "<p>&copy; 2024</p>" {
			t.Errorf("%s: unexpected output %q", name, out)
		}
	}
}

func TestBundleStrings(t *testing.T) {
	var v, err = NewBundle().
		AddTemplateString("page.html", "app", "<Body:>\n  <app:box>{{greet(name)}}</app:box>\n\n<box: nonvoid>\n  <div>{{{content}}}</div>\n").
		AddFuncsString("fns.js", `view.fn("greet", function(s) { return "hi " + s; });`).
		AddFunc("twice", func(args ...data.Value) data.Value {
			return data.String(strings.Repeat(args[0].String(), 2))
		}, nil).
		Compile()
	if err != nil {
		t.Fatal(err)
	}
	var out string
	out, err = v.Get(model.New(data.Map{"name": data.String("Ann")}), "body", "app", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<div>hi Ann</div>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestBundleErrors(t *testing.T) {
	var tests = []struct {
		name   string
		bundle *Bundle
		errstr string
	}{
		{"missing file", NewBundle().AddTemplateFile("testdata/nope.html"), "nope.html"},
		{"content outside section", NewBundle().AddTemplateString("a.html", "a", "hello\n<Body:>\nx"),
			"content outside of a view section"},
		{"structural error", NewBundle().AddTemplateString("a.html", "a", "<Body:>\n{#if x}"),
			"Unclosed template block"},
		{"import not found", NewBundle().AddTemplateString("a.html", "a", `<import: src="./b">`),
			`import "./b" not found`},
		{"import cycle", NewBundle().
			AddTemplateString("a.html", "a", `<import: src="b">`).
			AddTemplateString("b.html", "b", `<import: src="a">`), "import cycle"},
		{"script error", NewBundle().AddFuncsString("fns.js", "view.fn("), "fns.js"},
		{"duplicate func", NewBundle().AddFunc("f", nil, nil).AddFunc("f", nil, nil), `"f" already defined`},
		{"duplicate library", NewBundle().AddLibrary("ui", &view.Library{}).AddLibrary("ui", &view.Library{}),
			`"ui" already added`},
	}
	for _, test := range tests {
		var _, err = test.bundle.Compile()
		if err == nil {
			t.Errorf("%s: expected an error", test.name)
			continue
		}
		if !strings.Contains(err.Error(), test.errstr) {
			t.Errorf("%s: expected %q in %q", test.name, test.errstr, err)
		}
	}
}

func TestSectionErrorPosition(t *testing.T) {
	var _, err = NewBundle().AddTemplateString("a.html", "a", "\n\nstray <Body:>").Compile()
	var pos = errortypes.ToErrFilePos(err)
	if pos == nil {
		t.Fatalf("expected a positioned error, got %v", err)
	}
	if pos.File() != "a.html" || pos.Line() != 3 || pos.Col() != 1 {
		t.Errorf("unexpected position %s:%d:%d", pos.File(), pos.Line(), pos.Col())
	}
}

func TestLibrary(t *testing.T) {
	var lib = &view.Library{View: view.New(nil)}
	lib.View.Make("badge", "<span>{{{label}}}</span>", view.Options{}, "")
	var v, err = NewBundle().
		AddLibrary("ui", lib).
		AddTemplateString("index.html", "app", `<Body:>
<ui:badge label="new">`).
		Compile()
	if err != nil {
		t.Fatal(err)
	}
	out, err := v.Get(model.New(nil), "body", "app", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<span>new</span>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestParseFile(t *testing.T) {
	var f = viewFile{name: "x.html", content: `
<Title:>
  Hello

<list: nonvoid>
  <ul>{{{content}}}</ul>

  <import: src="../shared" ns='s'>
<app:inline>
`}
	var sections, err = parseFile(f)
	if err != nil {
		t.Fatal(err)
	}
	var expected = []fileSection{
		{"Title", map[string]string{}, "Hello"},
		{"list", map[string]string{"nonvoid": "true"}, "<ul>{{{content}}}</ul>"},
		{"import", map[string]string{"src": "../shared", "ns": "s"}, "<app:inline>"},
	}
	if diff := cmp.Diff(expected, sections, cmp.AllowUnexported(fileSection{})); diff != "" {
		t.Errorf("sections differ (-want +got):\n%s", diff)
	}
}

func TestNamespaceOf(t *testing.T) {
	var tests = []struct {
		root, filename, expected string
	}{
		{"views", "views/app/index.html", "app"},
		{"views", "views/app/home.html", "app:home"},
		{"views", "views/app/admin/users.html", "app:admin:users"},
		{"views", "views/index.html", ""},
		{"views", "views/shared.html", "shared"},
	}
	for _, test := range tests {
		if actual := namespaceOf(test.root, test.filename); actual != test.expected {
			t.Errorf("%s: expected %q, got %q", test.filename, test.expected, actual)
		}
	}
}

func TestViewNotFound(t *testing.T) {
	var v, err = NewBundle().AddTemplateString("a.html", "a", "<Body:>\nx").Compile()
	if err != nil {
		t.Fatal(err)
	}
	if _, err = v.Get(model.New(nil), "missing", "a", nil); !errors.Is(err, view.ErrViewNotFound) {
		t.Errorf("expected ErrViewNotFound, got %v", err)
	}
}

func TestWatchFiles(t *testing.T) {
	var file = filepath.Join(t.TempDir(), "page.html")
	writeFile(t, file, "<Body:>\n<p>one</p>")

	var recompiled = make(chan struct{}, 1)
	var v, err = NewBundle().
		WatchFiles(true).
		AddTemplateFile(file).
		SetRecompilationCallback(func(*view.View) {
			select {
			case recompiled <- struct{}{}:
			default:
			}
		}).
		Compile()
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, file, "<Body:>\n<p>two</p>")
	select {
	case <-recompiled:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for recompilation")
	}
	out, err := v.Get(model.New(nil), "body", "page", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>two</p>" {
		t.Errorf("expected the updated view, got %q", out)
	}
}

func TestWatchFilesKeepsViewsOnError(t *testing.T) {
	var logged = make(logLines, 10)
	Logger.SetOutput(logged)
	t.Cleanup(func() { Logger.SetOutput(os.Stderr) })

	var file = filepath.Join(t.TempDir(), "page.html")
	writeFile(t, file, "<Body:>\n<p>one</p>")

	var mu sync.Mutex
	var recompiled = make(chan struct{}, 1)
	var v, err = NewBundle().
		WatchFiles(true).
		AddTemplateFile(file).
		SetRecompilationLock(&mu).
		SetRecompilationCallback(func(*view.View) {
			select {
			case recompiled <- struct{}{}:
			default:
			}
		}).
		Compile()
	if err != nil {
		t.Fatal(err)
	}
	var get = func() string {
		mu.Lock()
		defer mu.Unlock()
		var out, err = v.Get(model.New(nil), "body", "page", nil)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	writeFile(t, file, "<Body:>\n<p>{{/if}}</p>")
	for line := ""; !strings.Contains(line, "Unmatched template end tag"); {
		select {
		case line = <-logged:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for the compile error")
		}
	}
	if out := get(); out != "<p>one</p>" {
		t.Errorf("expected the previous view after a failed compile, got %q", out)
	}

	writeFile(t, file, "<Body:>\n<p>two</p>")
	select {
	case <-recompiled:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for recompilation")
	}
	if out := get(); out != "<p>two</p>" {
		t.Errorf("expected the updated view, got %q", out)
	}
}

type logLines chan string

func (l logLines) Write(p []byte) (int, error) {
	select {
	case l <- string(p):
	default:
	}
	return len(p), nil
}

func TestDedupe(t *testing.T) {
	var actual = dedupe([]string{"a.html", "b.js", "a.html"})
	if diff := cmp.Diff([]string{"a.html", "b.js"}, actual); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func writeFile(t *testing.T, name, content string) {
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
