package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robfig/liveview"
	"github.com/robfig/liveview/data"
)

const page = "<Title:>\n  Hi {{name}}\n\n<Body:>\n  <p>{{name}} is {{user.age}}</p>\n"

func TestQueryValue(t *testing.T) {
	var tests = []struct {
		input    string
		expected data.Value
	}{
		{"Ann", data.String("Ann")},
		{"5", data.Int(5)},
		{"1.5", data.Float(1.5)},
		{"true", data.Bool(true)},
		{"1 2", data.String("1 2")},
		{`{"name":"Ann"}`, data.Map{"name": data.String("Ann")}},
	}
	for _, test := range tests {
		if diff := cmp.Diff(test.expected, queryValue(test.input)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", test.input, diff)
		}
	}
}

func TestFileHandler(t *testing.T) {
	var filename = filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(filename, []byte(page), 0644); err != nil {
		t.Fatal(err)
	}
	var body = get(t, fileHandler(filename), "/?name=Ann&user="+url.QueryEscape(`{"age":30}`))
	for _, want := range []string{"<title>Hi Ann</title>", "<p>Ann is 30</p>"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in %q", want, body)
		}
	}
}

func TestDirHandler(t *testing.T) {
	var v, err = liveview.NewBundle().AddTemplateString("app/home.html", "app:home", page).Compile()
	if err != nil {
		t.Fatal(err)
	}
	var body = get(t, dirHandler{v, new(sync.Mutex)}, "/app/home?name=Bo")
	if !strings.Contains(body, "<title>Hi Bo</title>") {
		t.Errorf("unexpected page %q", body)
	}
}

func TestDirHandlerConcurrent(t *testing.T) {
	var v, err = liveview.NewBundle().AddTemplateString("app/home.html", "app:home", page).Compile()
	if err != nil {
		t.Fatal(err)
	}
	var h = dirHandler{v, new(sync.Mutex)}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var name = fmt.Sprint("user", i)
			var rec = httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest("GET", "/app/home?name="+name, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("%s: status %d: %s", name, rec.Code, rec.Body.String())
				return
			}
			var body = rec.Body.String()
			for _, want := range []string{"<title>Hi " + name + "</title>", "<p>" + name + " is "} {
				if !strings.Contains(body, want) {
					t.Errorf("expected %q in %q", want, body)
				}
			}
		}(i)
	}
	wg.Wait()
}

func get(t *testing.T, h http.Handler, target string) string {
	var rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("%s: status %d: %s", target, rec.Code, rec.Body.String())
	}
	return rec.Body.String()
}
