package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/liveview/data"
)

// Call is a view function invocation, such as equal(user.role, 'admin').
type Call struct {
	Name string
	Args []Arg
}

// Arg is a single argument to a Call.  Exactly one of Path, Literal and Call
// is set.
type Arg struct {
	Path    string
	Literal data.Value
	Call    *Call
}

func (c *Call) String() string {
	var args = make([]string, len(c.Args))
	for i, arg := range c.Args {
		switch {
		case arg.Call != nil:
			args[i] = arg.Call.String()
		case arg.Literal != nil:
			if s, ok := arg.Literal.(data.String); ok {
				args[i] = Quote(string(s))
			} else if data.IsNil(arg.Literal) {
				args[i] = "null"
			} else {
				args[i] = arg.Literal.String()
			}
		default:
			args[i] = arg.Path
		}
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// IsCall reports whether a placeholder name is a function call rather than a
// path.
func IsCall(name string) bool {
	return strings.IndexByte(name, '(') >= 0
}

// ParseCall parses a function call expression.
func ParseCall(s string) (call *Call, err error) {
	var p = callParser{input: s}
	defer p.recover(&err)
	call = p.call(p.word())
	p.skipSpace()
	if p.pos != len(p.input) {
		p.errorf("unexpected %q after call", p.input[p.pos:])
	}
	return call, nil
}

// PathArgs returns the paths passed to the call, including those passed to
// nested calls.
func PathArgs(call *Call) []string {
	var paths []string
	for _, arg := range call.Args {
		switch {
		case arg.Call != nil:
			paths = append(paths, PathArgs(arg.Call)...)
		case arg.Literal == nil:
			paths = append(paths, arg.Path)
		}
	}
	return paths
}

// Literal decodes the keywords true, false and null, and numbers.  Other text
// is not a literal.
func Literal(s string) (data.Value, bool) {
	switch s {
	case "true":
		return data.Bool(true), true
	case "false":
		return data.Bool(false), true
	case "null":
		return data.Null{}, true
	case "undefined":
		return data.Undefined{}, true
	case "":
		return nil, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return data.Int(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return data.Float(f), true
	}
	return nil, false
}

type callParser struct {
	input string
	pos   int
}

func (p *callParser) errorf(format string, args ...interface{}) {
	panic(fmt.Errorf(format, args...))
}

func (p *callParser) recover(errp *error) {
	if e := recover(); e != nil {
		if err, ok := e.(error); ok {
			*errp = fmt.Errorf("parse %q: %v", p.input, err)
			return
		}
		panic(e)
	}
}

func (p *callParser) skipSpace() {
	for p.pos < len(p.input) && isSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *callParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *callParser) expect(c byte) {
	if p.peek() != c {
		p.errorf("expected %q at offset %d", c, p.pos)
	}
	p.pos++
}

// word scans an identifier, path or number.
func (p *callParser) word() string {
	p.skipSpace()
	var start = p.pos
	for p.pos < len(p.input) && isWordChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *callParser) call(name string) *Call {
	if name == "" || !isPath(name) {
		p.errorf("invalid function name %q", name)
	}
	p.expect('(')
	var call = &Call{Name: name}
	if p.peek() == ')' {
		p.pos++
		return call
	}
	for {
		call.Args = append(call.Args, p.arg())
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return call
		default:
			p.errorf("expected ',' or ')' at offset %d", p.pos)
		}
	}
}

func (p *callParser) arg() Arg {
	switch c := p.peek(); c {
	case '\'', '"':
		var end = quoteEnd(p.input, p.pos)
		if end < 0 {
			p.errorf("unterminated string at offset %d", p.pos)
		}
		var s, err = Unquote(p.input[p.pos:end])
		if err != nil {
			p.errorf("%v", err)
		}
		p.pos = end
		return Arg{Literal: data.String(s)}
	}

	var word = p.word()
	if word == "" {
		p.errorf("expected an argument at offset %d", p.pos)
	}
	if p.peek() == '(' {
		return Arg{Call: p.call(word)}
	}
	if lit, ok := Literal(word); ok {
		return Arg{Literal: lit}
	}
	if !isPath(word) {
		p.errorf("invalid path %q", word)
	}
	return Arg{Path: word}
}

// quoteEnd returns the offset just past the string literal starting at i, or
// -1 if it is not terminated.
func quoteEnd(s string, i int) int {
	var quote = s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isWordChar(c byte) bool {
	return c == '_' || c == '$' || c == '.' || c == ':' || c == '-' || c == '+' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
