package data

import (
	"reflect"
	"testing"
)

func TestGet(t *testing.T) {
	var root = Map{
		"user":  Map{"name": String("Ann"), "tags": List{String("a"), String("b")}},
		"items": List{Map{"text": String("first")}, Map{"text": String("second")}},
	}
	tests := []struct {
		path     string
		expected Value
	}{
		{"", root},
		{"user.name", String("Ann")},
		{"user.tags.1", String("b")},
		{"user.tags.length", Int(2)},
		{"user.tags.x", Undefined{}},
		{"items.1.text", String("second")},
		{"items.2.text", Undefined{}},
		{"user.name.first", Undefined{}},
		{"missing.deeply", Undefined{}},
	}

	for _, test := range tests {
		if actual := Get(root, test.path); !reflect.DeepEqual(test.expected, actual) {
			t.Errorf("Get(%q) => %#v, expected %#v", test.path, actual, test.expected)
		}
	}
}

func TestSet(t *testing.T) {
	var root = Map{"items": List{String("a")}}
	var steps = []struct {
		path  string
		value Value
	}{
		{"user.name", String("Ann")},
		{"items.0", String("z")},
		{"items.1", String("b")},
		{"items.1", String("c")},
	}
	for _, step := range steps {
		if err := Set(root, step.path, step.value); err != nil {
			t.Fatalf("Set(%q): %v", step.path, err)
		}
	}

	var expected = Map{
		"user":  Map{"name": String("Ann")},
		"items": List{String("z"), String("c")},
	}
	if !reflect.DeepEqual(expected, root) {
		t.Errorf("got %#v, expected %#v", root, expected)
	}
}

func TestSetErrors(t *testing.T) {
	var root = Map{"items": List{}, "name": String("x")}
	for _, path := range []string{"", "items.5", "items.x", "name.first"} {
		if err := Set(root, path, Int(1)); err == nil {
			t.Errorf("Set(%q): expected an error", path)
		}
	}
}

func TestDel(t *testing.T) {
	var root = Map{
		"a":     Map{"b": Int(1), "c": Int(2)},
		"items": List{Int(1), Int(2), Int(3)},
	}
	Del(root, "a.b")
	Del(root, "items.1")
	Del(root, "nothing.here")

	var expected = Map{
		"a":     Map{"c": Int(2)},
		"items": List{Int(1), Int(3)},
	}
	if !reflect.DeepEqual(expected, root) {
		t.Errorf("got %#v, expected %#v", root, expected)
	}
}
