/*
Command viewweb is a development server for view files.

Serve a single file, compiled again on every request:

	viewweb page.html

Or serve a directory of views, recompiled whenever a file changes:

	viewweb -dir views -fns views/fns.js -msgs msgs -locale fr

In directory mode the URL path selects the namespace whose page is rendered,
so /app/home renders the sections of views/app/home.html.

Query parameters become the model data.  A parameter holding valid JSON is
decoded, so ?user={"name":"Ann"} makes user.name available to the page.
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/robfig/liveview"
	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/model"
	"github.com/robfig/liveview/view"
)

var (
	port   = flag.Int("port", 9812, "port on which to listen")
	dir    = flag.String("dir", "", "directory of views to serve")
	fns    = flag.String("fns", "", "script file defining view functions")
	msgs   = flag.String("msgs", "", "directory of PO message catalogs")
	locale = flag.String("locale", "en", "locale to translate messages into")
)

const fileNS = "viewweb"

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: viewweb [flags] file.html | viewweb [flags] -dir views")
		flag.PrintDefaults()
	}
	flag.Parse()

	var handler http.Handler
	switch {
	case *dir != "" && flag.NArg() == 0:
		var mu sync.Mutex
		var v, err = bundle(true).AddTemplateDir(*dir).SetRecompilationLock(&mu).Compile()
		if err != nil {
			log.Fatal(err)
		}
		handler = dirHandler{v, &mu}
	case *dir == "" && flag.NArg() == 1:
		handler = fileHandler(flag.Arg(0))
	default:
		flag.Usage()
		os.Exit(2)
	}

	log.Printf("listening on :%d", *port)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", *port), handler))
}

func bundle(watch bool) *liveview.Bundle {
	var b = liveview.NewBundle().WatchFiles(watch)
	if *fns != "" {
		b.AddFuncsFile(*fns)
	}
	if *msgs != "" {
		b.AddMessagesDir(*msgs, *locale)
	}
	return b
}

type fileHandler string

func (f fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var content, err = os.ReadFile(string(f))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	v, err := bundle(false).AddTemplateString(string(f), fileNS, string(content)).Compile()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	serve(w, r, v, fileNS)
}

// dirHandler serves the views of a directory.  A View renders one page at a
// time, so requests take turns holding mu, which the recompiler holds too.
type dirHandler struct {
	v  *view.View
	mu *sync.Mutex
}

func (h dirHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var ns = strings.Replace(strings.Trim(r.URL.Path, "/"), "/", ":", -1)
	h.mu.Lock()
	defer h.mu.Unlock()
	serve(w, r, h.v, ns)
}

func serve(w http.ResponseWriter, r *http.Request, v *view.View, ns string) {
	var root = make(data.Map)
	for k, vals := range r.URL.Query() {
		root[k] = queryValue(vals[0])
	}
	var page, err = v.Render(model.New(root), ns, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page.String())
}

func queryValue(s string) data.Value {
	var dec = json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil || dec.More() {
		return data.String(s)
	}
	return data.New(v)
}
