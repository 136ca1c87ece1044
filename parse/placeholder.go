// Package parse recognizes the placeholders embedded in view templates.
//
// Three delimiters are recognized:
//
//	{{name}}    an unbound interpolation or block, rendered once
//	{name}      a bound interpolation or block, re-rendered when the data changes
//	{{{name}}}  a reference to an attribute passed to the enclosing component
//
// Within the delimiters, a placeholder has the form
//
//	[#|/] [if|unless|each|with|else|else if|unescaped] [name|fn(args)] [as :alias] [> ns:partial attr=value ...]
package parse

import (
	"regexp"
	"strings"
)

// Placeholder is a single placeholder found in template text, along with the
// text surrounding it.
type Placeholder struct {
	Pre    string // text before the placeholder
	Post   string // text after the placeholder
	Offset int    // byte offset of the opening delimiter
	Source string // the placeholder, including its delimiters

	Hash    string // "#" opens a block, "/" closes one
	Type    string // block type, or "" for an interpolation
	Name    string // path or function call
	Alias   string // ":alias" bound by a block
	Partial string // "ns:name" of an included view
	Attrs   []Attr // attributes passed to the included view

	Escaped bool // whether output is HTML escaped
	Bound   bool // whether the site is updated when the data changes
	Macro   bool // whether Name refers to a component attribute
}

// Attr is an attribute given to a partial, in source order.
type Attr struct {
	Key, Value string
}

// Block types.
const (
	If       = "if"
	ElseIf   = "else if"
	Else     = "else"
	Unless   = "unless"
	Each     = "each"
	With     = "with"
	Partial  = "partial"
	noEscape = "unescaped"
)

var (
	pathRx  = regexp.MustCompile(`^(?:\.*|:)?[\w$]*(?:\.[\w$]+)*$`)
	aliasRx = regexp.MustCompile(`^:[\w$]+$`)
	attrRx  = regexp.MustCompile(`^([\w$:-]+)=(.*)$`)
)

func isPath(s string) bool {
	return pathRx.MatchString(s)
}

// Extract finds the first placeholder in text.  Text that resembles a
// placeholder without following its grammar is skipped over.  It returns nil
// if text holds no placeholder.
func Extract(text string) *Placeholder {
	for start := 0; start < len(text); {
		var i = strings.IndexByte(text[start:], '{')
		if i < 0 {
			return nil
		}
		i += start
		var n = 1
		for i+n < len(text) && text[i+n] == '{' {
			n++
		}
		if n > 3 {
			i += n - 3
			n = 3
		}
		if p := extractAt(text, i, n); p != nil {
			return p
		}
		start = i + n
	}
	return nil
}

func extractAt(text string, i, n int) *Placeholder {
	var closing = strings.Repeat("}", n)
	var end = closeIndex(text, i+n, closing)
	if end < 0 {
		return nil
	}
	var p = &Placeholder{
		Pre:     text[:i],
		Post:    text[end+n:],
		Offset:  i,
		Source:  text[i : end+n],
		Escaped: true,
		Bound:   n == 1,
		Macro:   n == 3,
	}
	if !p.parse(strings.TrimSpace(text[i+n : end])) {
		return nil
	}
	return p
}

// closeIndex returns the offset of the closing delimiter, ignoring any that
// appear within quoted strings.
func closeIndex(text string, from int, closing string) int {
	for j := from; j < len(text); j++ {
		switch text[j] {
		case '\'', '"':
			var e = quoteEnd(text, j)
			if e < 0 {
				return -1
			}
			j = e - 1
		case '{':
			return -1
		case '}':
			if strings.HasPrefix(text[j:], closing) {
				return j
			}
			return -1
		}
	}
	return -1
}

func (p *Placeholder) parse(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '#' || s[0] == '/' {
		p.Hash = s[:1]
		s = strings.TrimSpace(s[1:])
	}

	var word, rest = splitWord(s)
	switch word {
	case If, Unless, Each, With:
		p.Type = word
		s = rest
	case Else:
		p.Type = Else
		s = rest
		if next, rest := splitWord(rest); next == If {
			p.Type = ElseIf
			s = rest
		}
	case noEscape:
		p.Escaped = false
		s = rest
	}

	// Anything following the block type of a closing tag is ignored.
	if p.Hash == "/" {
		return true
	}

	var partial string
	if i := topLevelIndex(s, '>'); i >= 0 {
		partial = strings.TrimSpace(s[i+1:])
		s = strings.TrimSpace(s[:i])
		if !p.parsePartial(partial) {
			return false
		}
	}

	var words = splitTopLevel(s)
	if len(words) >= 2 && words[len(words)-2] == "as" {
		p.Alias = words[len(words)-1]
		if !aliasRx.MatchString(p.Alias) {
			return false
		}
		words = words[:len(words)-2]
	}
	if len(words) > 1 {
		return false
	}
	if len(words) == 1 {
		p.Name = words[0]
	}

	if IsCall(p.Name) {
		if _, err := ParseCall(p.Name); err != nil {
			return false
		}
	} else if !isPath(p.Name) {
		return false
	}

	if p.Macro && p.Name == "content" {
		p.Escaped = false
	}
	return p.Hash != "" || p.Type != "" || p.Name != "" || p.Partial != ""
}

func (p *Placeholder) parsePartial(s string) bool {
	var words = splitTopLevel(s)
	if len(words) == 0 || strings.IndexByte(words[0], ':') < 0 {
		return false
	}
	p.Partial = words[0]
	for _, word := range words[1:] {
		var m = attrRx.FindStringSubmatch(word)
		if m == nil {
			return false
		}
		var value = m[2]
		if len(value) > 0 && (value[0] == '"' || value[0] == '\'') {
			var err error
			if value, err = Unquote(value); err != nil {
				return false
			}
		}
		p.Attrs = append(p.Attrs, Attr{m[1], value})
	}
	return true
}

func splitWord(s string) (word, rest string) {
	var i = strings.IndexAny(s, " \t\n\r")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// topLevelIndex returns the index of c outside of quotes and parentheses.
func topLevelIndex(s string, c byte) int {
	var depth = 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '"':
			var e = quoteEnd(s, i)
			if e < 0 {
				return -1
			}
			i = e - 1
		case '(':
			depth++
		case ')':
			depth--
		default:
			if s[i] == c && depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s at whitespace outside of quotes and parentheses.
func splitTopLevel(s string) []string {
	var words []string
	for s = strings.TrimSpace(s); s != ""; {
		var end = len(s)
		var depth = 0
	scan:
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '\'', '"':
				var e = quoteEnd(s, i)
				if e < 0 {
					break scan
				}
				i = e - 1
			case '(':
				depth++
			case ')':
				depth--
			case ' ', '\t', '\n', '\r':
				if depth == 0 {
					end = i
					break scan
				}
			}
		}
		words = append(words, s[:end])
		s = strings.TrimSpace(s[end:])
	}
	return words
}
