package data

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var created = time.Date(2014, time.January, 1, 12, 0, 0, 0, time.UTC)

type Audit struct {
	CreatedAt time.Time
	Author    *string
}

type todo struct {
	Audit
	ID       int      `json:"id"`
	Text     string   `json:"text"`
	Done     bool     `json:"done,omitempty"`
	Tags     []string `json:"tags"`
	Secret   string   `json:"-"`
	Priority float64
	internal int
}

type color struct{ r, g, b uint8 }

func (c color) MarshalValue() Value {
	return String(strings.ToUpper(string([]byte{hex(c.r >> 4), hex(c.r), hex(c.g >> 4), hex(c.g), hex(c.b >> 4), hex(c.b)})))
}

func hex(n uint8) byte { return "0123456789abcdef"[n&0xf] }

func TestNew(t *testing.T) {
	var author = "rob"
	var tests = []struct {
		name     string
		input    interface{}
		expected Value
	}{
		{"nil", nil, Null{}},
		{"nil pointer", (*todo)(nil), Null{}},
		{"nil slice", []string(nil), Null{}},
		{"nil map", map[string]int(nil), Null{}},
		{"uint", uint16(7), Int(7)},
		{"float32", float32(0.5), Float(0.5)},
		{"json integer", json.Number("12"), Int(12)},
		{"json float", json.Number("1.25"), Float(1.25)},
		{"values pass through", List{Null{}}, List{Null{}}},
		{"slice of values", []Value{Int(1), String("a")}, List{Int(1), String("a")}},
		{"array", [2]bool{true, false}, List{Bool(true), Bool(false)}},
		{"int keys", map[int]string{3: "c"}, Map{"3": String("c")}},
		{"marshaler", color{255, 128, 0}, String("FF8000")},
		{"marshaler pointer", &color{0, 0, 1}, String("000001")},
		{"time", created, String("2014-01-01T12:00:00Z")},
		{"struct", todo{
			Audit:    Audit{CreatedAt: created, Author: &author},
			ID:       3,
			Text:     "write tests",
			Tags:     []string{"go"},
			Secret:   "x",
			Priority: 1.5,
			internal: 9,
		}, Map{
			"createdAt": String("2014-01-01T12:00:00Z"),
			"author":    String("rob"),
			"id":        Int(3),
			"text":      String("write tests"),
			"tags":      List{String("go")},
			"priority":  Float(1.5),
		}},
		{"omitempty kept when set", struct {
			Done bool `json:"done,omitempty"`
		}{true}, Map{"done": Bool(true)}},
		{"decoded json", decode(t, `{"user":{"name":"Ann","age":30},"items":[{"n":1.5},null]}`), Map{
			"user":  Map{"name": String("Ann"), "age": Int(30)},
			"items": List{Map{"n": Float(1.5)}, Null{}},
		}},
	}

	for _, test := range tests {
		if diff := cmp.Diff(test.expected, New(test.input)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", test.name, diff)
		}
	}
}

func TestNewUnsupported(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic converting a func")
		}
	}()
	New(func() {})
}

func TestStructOptions(t *testing.T) {
	var input = struct {
		UserName string `view:"user"`
		Joined   time.Time
		Notes    []string `json:"notes"`
	}{"ann", created, nil}

	var tests = []struct {
		name     string
		opts     StructOptions
		expected Map
	}{
		{"default", DefaultStructOptions, Map{
			"userName": String("ann"),
			"joined":   String("2014-01-01T12:00:00Z"),
			"notes":    Null{},
		}},
		{"view tags", StructOptions{TagName: "view", TimeFormat: time.Kitchen}, Map{
			"user":   String("ann"),
			"Joined": String("12:00PM"),
			"Notes":  Null{},
		}},
	}

	for _, test := range tests {
		if diff := cmp.Diff(test.expected, test.opts.Data(input)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", test.name, diff)
		}
		if diff := cmp.Diff(test.expected, NewWith(test.opts, &input)); diff != "" {
			t.Errorf("%s via NewWith (-want +got):\n%s", test.name, diff)
		}
	}
}

func decode(t *testing.T, s string) interface{} {
	var dec = json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func BenchmarkNew(b *testing.B) {
	var input = []todo{
		{ID: 1, Text: "a", Tags: []string{"x", "y"}, Priority: 2},
		{ID: 2, Text: "b", Done: true, Audit: Audit{CreatedAt: created}},
	}
	for i := 0; i < b.N; i++ {
		if list := New(input).(List); len(list) != 2 {
			b.Fatal("unexpected output")
		}
	}
}
