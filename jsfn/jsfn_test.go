package jsfn

import (
	"strings"
	"testing"

	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/model"
	"github.com/robfig/liveview/view"
)

const script = `
view.fn("upper", function(s) { return s.toUpperCase(); });
view.fn("fullName", function(user) { return user.first + " " + user.last; });
view.fn("count", function(list) { return list.length; });
view.fn("nothing", function() {});
view.fn("fail", function() { throw new Error("boom"); });
`

func TestLoad(t *testing.T) {
	var fns, err = Load("fns.js", script)
	if err != nil {
		t.Fatal(err)
	}
	if len(fns) != 5 {
		t.Errorf("expected 5 functions, got %d", len(fns))
	}

	var tests = []struct {
		fn       string
		args     []data.Value
		expected data.Value
	}{
		{"upper", []data.Value{data.String("rob")}, data.String("ROB")},
		{"fullName", []data.Value{data.Map{"first": data.String("Rob"), "last": data.String("Figueiredo")}},
			data.String("Rob Figueiredo")},
		{"count", []data.Value{data.List{data.Int(1), data.Int(2)}}, data.Int(2)},
		{"nothing", nil, data.Undefined{}},
	}
	for _, test := range tests {
		var actual = fns[test.fn](test.args...)
		if !actual.Equals(test.expected) {
			t.Errorf("%s: expected %v, got %v", test.fn, test.expected, actual)
		}
	}
}

func TestCallError(t *testing.T) {
	var fns, err = Load("fns.js", script)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		var e = recover()
		if e == nil {
			t.Fatal("expected a panic")
		}
		if !strings.Contains(e.(error).Error(), "boom") {
			t.Errorf("unexpected error %v", e)
		}
	}()
	fns["fail"]()
}

func TestLoadErrors(t *testing.T) {
	var tests = []string{
		`view.fn("x", function( {`,
		`undefinedFunction();`,
		`view.fn("x", 5);`,
	}
	for _, src := range tests {
		if _, err := Load("bad.js", src); err == nil {
			t.Errorf("%s: expected an error", src)
		}
	}
}

func TestRender(t *testing.T) {
	var fns, err = Load("fns.js", script)
	if err != nil {
		t.Fatal(err)
	}
	var v = view.New(nil)
	for name, fn := range fns {
		v.Fn(name, fn, nil)
	}
	v.Make("home", "<p>{{upper(user.first)}}</p><p>{{fail()}}</p>", view.Options{}, "")
	v.Make("name", "<b>{{fullName(user)}}</b>", view.Options{}, "")
	var m = model.New(data.Map{"user": data.Map{"first": data.String("Rob"), "last": data.String("F")}})

	var out string
	if out, err = v.Get(m, "name", "", nil); err != nil {
		t.Fatal(err)
	}
	if out != "<b>Rob F</b>" {
		t.Errorf("unexpected output %q", out)
	}
	if _, err = v.Get(m, "home", "", nil); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected the script error, got %v", err)
	}
}
