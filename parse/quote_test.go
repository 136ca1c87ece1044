package parse

import "testing"

func TestQuote(t *testing.T) {
	var tests = []struct{ input, quoted string }{
		{"", `''`},
		{"Rob", `'Rob'`},
		{"line\nbreak", `'line\nbreak'`},
		{`it's a \ path`, `'it\'s a \\ path'`},
		{`"double"`, `'"double"'`},
		{"∢", "'∢'"},
	}
	for _, test := range tests {
		var quoted = Quote(test.input)
		if quoted != test.quoted {
			t.Errorf("Quote(%q) = %s, expected %s", test.input, quoted, test.quoted)
		}
		if back, err := Unquote(quoted); err != nil || back != test.input {
			t.Errorf("Unquote(%s) = %q, %v", quoted, back, err)
		}
	}
}

func TestUnquote(t *testing.T) {
	var tests = []struct{ input, output string }{
		{`""`, ""},
		{`"a b"`, "a b"},
		{`"it's"`, "it's"},
		{`'say "hi"'`, `say "hi"`},
		{`"say \"hi\""`, `say "hi"`},
		{`'tab\there'`, "tab\there"},
		{`'\x41é'`, "Aé"},
		{`'nul\0'`, "nul\x00"},
	}
	for _, test := range tests {
		var actual, err = Unquote(test.input)
		if err != nil {
			t.Errorf("%s: %v", test.input, err)
			continue
		}
		if actual != test.output {
			t.Errorf("%s => %q, expected %q", test.input, actual, test.output)
		}
	}
}

func TestUnquoteErrors(t *testing.T) {
	for _, input := range []string{`'`, `a`, `'a"`, `'a'b'`, `'\q'`, `'\u12'`, `'\xZZ'`, `'\'`} {
		if _, err := Unquote(input); err == nil {
			t.Errorf("%s: expected an error", input)
		}
	}
}
