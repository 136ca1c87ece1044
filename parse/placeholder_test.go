package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type extractTest struct {
	name     string
	input    string
	expected *Placeholder
}

var extractTests = []extractTest{
	{"no placeholder", "just text", nil},
	{"unbound", "Hello {{name}}!", &Placeholder{
		Pre: "Hello ", Post: "!", Offset: 6, Source: "{{name}}",
		Name: "name", Escaped: true,
	}},
	{"bound", "<b>{user.name}</b>", &Placeholder{
		Pre: "<b>", Post: "</b>", Offset: 3, Source: "{user.name}",
		Name: "user.name", Escaped: true, Bound: true,
	}},
	{"macro", "{{{title}}}", &Placeholder{
		Source: "{{{title}}}", Name: "title", Escaped: true, Macro: true,
	}},
	{"macro content", "{{{content}}}", &Placeholder{
		Source: "{{{content}}}", Name: "content", Macro: true,
	}},
	{"unescaped", "{{unescaped html}}", &Placeholder{
		Source: "{{unescaped html}}", Name: "html",
	}},
	{"open each with alias", "{#each items as :item}x", &Placeholder{
		Post: "x", Source: "{#each items as :item}",
		Hash: "#", Type: Each, Name: "items", Alias: ":item", Escaped: true, Bound: true,
	}},
	{"else if", "{{else if .done}}", &Placeholder{
		Source: "{{else if .done}}", Type: ElseIf, Name: ".done", Escaped: true,
	}},
	{"else", "{{ else }}", &Placeholder{
		Source: "{{ else }}", Type: Else, Escaped: true,
	}},
	{"close", "{{/each}}", &Placeholder{
		Source: "{{/each}}", Hash: "/", Type: Each, Escaped: true,
	}},
	{"bare close", "{{/}}", &Placeholder{
		Source: "{{/}}", Hash: "/", Escaped: true,
	}},
	{"call", "{equal(role, 'a b')}", &Placeholder{
		Source: "{equal(role, 'a b')}", Name: "equal(role, 'a b')", Escaped: true, Bound: true,
	}},
	{"partial", `{{> ui:button label="Save it" size=3}}`, &Placeholder{
		Source: `{{> ui:button label="Save it" size=3}}`, Partial: "ui:button",
		Attrs: []Attr{{"label", "Save it"}, {"size", "3"}}, Escaped: true,
	}},
	{"skips invalid", "a {not a path} b {{ok}}", &Placeholder{
		Pre: "a {not a path} b ", Offset: 17, Source: "{{ok}}", Name: "ok", Escaped: true,
	}},
	{"skips json", `{"a": 1} {x}`, &Placeholder{
		Pre: `{"a": 1} `, Offset: 9, Source: "{x}", Name: "x", Escaped: true, Bound: true,
	}},
	{"unterminated", "{{name", nil},
	{"empty", "{{}}", nil},
	{"bad alias", "{{#with a as b}}", nil},
	{"bad call", "{{fn(a,}}", nil},
}

func TestExtract(t *testing.T) {
	for _, test := range extractTests {
		var actual = Extract(test.input)
		if diff := cmp.Diff(test.expected, actual); diff != "" {
			t.Errorf("%s: %q (-expected +actual):\n%s", test.name, test.input, diff)
		}
	}
}

func TestExtractRemainder(t *testing.T) {
	var text = "{a} and {b} and {c}"
	var names []string
	for p := Extract(text); p != nil; p = Extract(p.Post) {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, names); diff != "" {
		t.Errorf("(-expected +actual):\n%s", diff)
	}
}
