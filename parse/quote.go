package parse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Quote writes s as a single-quoted script string literal that Unquote
// reads back unchanged.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Unquote returns the value of a script string literal in single or double
// quotes.  It understands the escapes \n \r \t \b \f \v \0, \xNN and \uNNNN,
// and a backslash before any quote or backslash.
func Unquote(lit string) (string, error) {
	if len(lit) < 2 {
		return "", errors.New("too short a string")
	}
	var quote = lit[0]
	if (quote != '\'' && quote != '"') || lit[len(lit)-1] != quote {
		return "", errors.New("string not surrounded by quotes")
	}

	var s = lit[1 : len(lit)-1]
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		var c = s[i]
		if c == quote {
			return "", errors.New("unescaped quote in string")
		}
		if c != '\\' {
			var r, size = utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size
			continue
		}

		if i+1 >= len(s) {
			return "", errors.New("unterminated escape sequence")
		}
		var esc = s[i+1]
		i += 2
		switch esc {
		case '\\', '\'', '"':
			b.WriteByte(esc)
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case 'x', 'u':
			var width = 2
			if esc == 'u' {
				width = 4
			}
			if i+width > len(s) {
				return "", fmt.Errorf("short escape sequence \\%c, expect %d hex digits", esc, width)
			}
			var n, err = strconv.ParseUint(s[i:i+width], 16, 32)
			if err != nil {
				return "", fmt.Errorf("bad escape sequence \\%c%s", esc, s[i:i+width])
			}
			b.WriteRune(rune(n))
			i += width
		default:
			return "", fmt.Errorf("unrecognized escape code: \\%c", esc)
		}
	}
	return b.String(), nil
}
