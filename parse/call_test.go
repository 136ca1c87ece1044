package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/robfig/liveview/data"
)

func TestParseCall(t *testing.T) {
	var tests = []struct {
		input    string
		expected *Call
	}{
		{"now()", &Call{Name: "now"}},
		{"not(done)", &Call{Name: "not", Args: []Arg{{Path: "done"}}}},
		{"equal(:item.role, 'admin')", &Call{Name: "equal", Args: []Arg{
			{Path: ":item.role"},
			{Literal: data.String("admin")},
		}}},
		{`fmt(-1, 2.5, true, null, "x")`, &Call{Name: "fmt", Args: []Arg{
			{Literal: data.Int(-1)},
			{Literal: data.Float(2.5)},
			{Literal: data.Bool(true)},
			{Literal: data.Null{}},
			{Literal: data.String("x")},
		}}},
		{"not(equal(a, ..b))", &Call{Name: "not", Args: []Arg{
			{Call: &Call{Name: "equal", Args: []Arg{{Path: "a"}, {Path: "..b"}}}},
		}}},
	}

	for _, test := range tests {
		actual, err := ParseCall(test.input)
		if err != nil {
			t.Errorf("%v: %v", test.input, err)
			continue
		}
		if diff := cmp.Diff(test.expected, actual); diff != "" {
			t.Errorf("%v (-expected +actual):\n%s", test.input, diff)
		}
	}
}

func TestParseCallErrors(t *testing.T) {
	for _, input := range []string{"", "fn", "fn(", "fn(a,)", "fn(a b)", "fn(a))", "fn('x)", "(a)"} {
		if _, err := ParseCall(input); err == nil {
			t.Errorf("%q: expected an error", input)
		}
	}
}

func TestPathArgs(t *testing.T) {
	call, err := ParseCall("join(a, 'sep', f(b.c, 1), .d)")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b.c", ".d"}, PathArgs(call)); diff != "" {
		t.Errorf("(-expected +actual):\n%s", diff)
	}
}

func TestCallString(t *testing.T) {
	call, err := ParseCall("f( a,'it\\'s',  g(1) ,null)")
	if err != nil {
		t.Fatal(err)
	}
	if actual, expected := call.String(), `f(a, 'it\'s', g(1), null)`; actual != expected {
		t.Errorf("got %v, expected %v", actual, expected)
	}
}
