package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/model"
	"github.com/robfig/liveview/view"
)

func TestBundle(t *testing.T) {
	var msgs, err = Dir("testdata")
	if err != nil {
		t.Fatal(err)
	}

	var tests = []struct {
		locale, msgid, expected string
		found                   bool
	}{
		{"fr", "Hello", "Bonjour", true},
		{"fr", "Untranslated", "Untranslated", false},
		{"fr", "Archive", "Archive", false},
		{"fr", "Missing", "Missing", false},
		{"fr_CA", "Hello", "Bonjour", true},
		{"pt_BR", "Hello", "Oi", true},
		{"pt_PT", "Hello", "Olá", true},
		{"pt", "Hello", "Olá", true},
	}
	for _, test := range tests {
		var b = msgs.Bundle(test.locale)
		if b == nil {
			t.Errorf("%s: no bundle", test.locale)
			continue
		}
		var actual, found = b.Message(test.msgid)
		if actual != test.expected || found != test.found {
			t.Errorf("%s %q: expected %q (%v), got %q (%v)",
				test.locale, test.msgid, test.expected, test.found, actual, found)
		}
	}
}

func TestBundleNotFound(t *testing.T) {
	var msgs, err = Dir("testdata")
	if err != nil {
		t.Fatal(err)
	}
	for _, locale := range []string{"de", "xx", "not a locale"} {
		if b := msgs.Bundle(locale); b != nil {
			t.Errorf("%s: expected no bundle, got %v", locale, b.Locale())
		}
	}
}

func TestPlural(t *testing.T) {
	var msgs, err = Dir("testdata")
	if err != nil {
		t.Fatal(err)
	}
	var fr = msgs.Bundle("fr")
	var tests = []struct {
		b        *Bundle
		n        int
		expected string
	}{
		{fr, 1, "{n} article"},
		{fr, 3, "{n} articles"},
		{nil, 1, "{n} item"},
		{nil, 3, "{n} items"},
	}
	for _, test := range tests {
		var actual, _ = test.b.Plural("{n} item", "{n} items", test.n)
		if actual != test.expected {
			t.Errorf("%d: expected %q, got %q", test.n, test.expected, actual)
		}
	}
}

func TestLoadFallback(t *testing.T) {
	var fsys = fstest.MapFS{"es.po": &fstest.MapFile{Data: []byte(`msgid ""
msgstr ""
"Plural-Forms: nplurals=2; plural=(n != 1);\n"

msgid "Hello"
msgstr "Hola"
`)}}
	var msgs, err = Load(fsys, "es_MX", "de")
	if err != nil {
		t.Fatal(err)
	}
	var b = msgs.Bundle("es_MX")
	if b == nil || b.Locale() != "es_MX" {
		t.Fatalf("expected the es catalog under es_MX, got %v", b)
	}
	if msg, _ := b.Message("Hello"); msg != "Hola" {
		t.Errorf("expected Hola, got %q", msg)
	}
	if msgs.Bundle("de") != nil {
		t.Error("expected no de bundle")
	}
}

func TestDirMissing(t *testing.T) {
	if _, err := Dir("testdata/missing"); err == nil {
		t.Error("expected an error reading a missing directory")
	}
}

func TestFunc(t *testing.T) {
	var msgs, err = Dir("testdata")
	if err != nil {
		t.Fatal(err)
	}
	var tests = []struct {
		fn       view.GetFunc
		args     []data.Value
		expected data.Value
	}{
		{Func(msgs, "fr"), []data.Value{data.String("Hello")}, data.String("Bonjour")},
		{Func(msgs, "fr"), []data.Value{data.String("{n} item"), data.Int(2), data.String("{n} items")},
			data.String("2 articles")},
		{Func(msgs, "de"), []data.Value{data.String("{n} item"), data.Int(2), data.String("{n} items")},
			data.String("2 items")},
		{Func(nil, "fr"), []data.Value{data.String("Hello")}, data.String("Hello")},
		{Func(msgs, "fr"), nil, data.Undefined{}},
	}
	for _, test := range tests {
		if actual := test.fn(test.args...); !actual.Equals(test.expected) {
			t.Errorf("%v: expected %v, got %v", test.args, test.expected, actual)
		}
	}
}

func TestRender(t *testing.T) {
	var msgs, err = Dir("testdata")
	if err != nil {
		t.Fatal(err)
	}
	var v = view.New(nil)
	v.Fn("t", Func(msgs, "pt_BR"), nil)
	v.Make("home", "<h1>{{t('Hello')}}, {{name}}</h1>", view.Options{}, "")
	var out string
	out, err = v.Get(model.New(data.Map{"name": data.String("Rob")}), "home", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<h1>Oi, Rob</h1>" {
		t.Errorf("unexpected output %q", out)
	}
}
