// Package htmlutil tokenizes view templates and provides the HTML escaping
// primitives used when rendering them.
//
// Parse reports the template as a stream of start tag, text, end tag, comment
// and other (doctype) events.  Unlike a full HTML parser it does not build or
// repair a tree: events are reported exactly as they appear in the source, so
// that markup split across views (for example an element opened in one view
// and closed in another) passes through untouched.
package htmlutil

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Attr is an attribute of a start tag, in source order.  NoValue is set for
// attributes written without a value, such as <input disabled>.
type Attr struct {
	Key     string
	Val     string
	NoValue bool
}

// Handler receives the events of a parse.  Nil callbacks are skipped.
type Handler struct {
	// Start receives the source of the tag, its lower-cased name and its
	// attributes.
	Start func(tag, name string, attrs []Attr)

	// Text receives raw text (entities are not decoded), whether it is the
	// content of a script or style element, and the source that follows it.
	Text func(text string, rawText bool, remainder string)

	// End receives the source of the tag and its lower-cased name.  The end
	// implied by a self-closing tag such as <p/> has no source.
	End func(tag, name string)

	// Comment receives the complete comment, including its delimiters.
	Comment func(tag string)

	// Other receives doctype declarations.
	Other func(tag string)
}

// Parse tokenizes src, reporting its events to h.
func Parse(src string, h Handler) error {
	var (
		z       = html.NewTokenizer(strings.NewReader(src))
		offset  = 0
		rawText = false
	)
	for {
		var tt = z.Next()
		var raw = string(z.Raw())
		offset += len(raw)
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return err
			}
			return nil

		case html.TextToken:
			if h.Text != nil {
				h.Text(raw, rawText, src[offset:])
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			var name, attrs = tagAttrs(z, raw)
			rawText = tt == html.StartTagToken && (name == "script" || name == "style")
			if h.Start != nil {
				h.Start(raw, name, attrs)
			}
			if tt == html.SelfClosingTagToken && !IsVoid(name) && h.End != nil {
				h.End("", name)
			}

		case html.EndTagToken:
			rawText = false
			var name, _ = z.TagName()
			if h.End != nil {
				h.End(raw, string(name))
			}

		case html.CommentToken:
			if h.Comment != nil {
				h.Comment(raw)
			}

		case html.DoctypeToken:
			if h.Other != nil {
				h.Other(raw)
			}
		}
	}
}

func tagAttrs(z *html.Tokenizer, raw string) (string, []Attr) {
	var name, hasAttr = z.TagName()
	var lowerRaw = strings.ToLower(raw)
	var attrs []Attr
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		var attr = Attr{Key: string(key), Val: string(val)}
		if attr.Val == "" && !hasValue(lowerRaw, attr.Key) {
			attr.NoValue = true
		}
		attrs = append(attrs, attr)
	}
	return string(name), attrs
}

// hasValue reports whether the attribute is followed by an equals sign in the
// lower-cased source of its tag.
func hasValue(tag, key string) bool {
	for i := 0; i < len(tag); {
		var j = strings.Index(tag[i:], key)
		if j < 0 {
			return false
		}
		var start = i + j
		i = start + len(key)
		if start == 0 || !isSpace(tag[start-1]) {
			continue
		}
		if strings.HasPrefix(strings.TrimLeft(tag[i:], " \t\n\r\f"), "=") {
			return true
		}
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

var voidElements = map[string]bool{
	"area":    true,
	"base":    true,
	"br":      true,
	"col":     true,
	"command": true,
	"embed":   true,
	"hr":      true,
	"img":     true,
	"input":   true,
	"keygen":  true,
	"link":    true,
	"meta":    true,
	"param":   true,
	"source":  true,
	"track":   true,
	"wbr":     true,
}

// IsVoid reports whether the element never has an end tag.
func IsVoid(name string) bool {
	return voidElements[strings.ToLower(name)]
}

var conditionalCommentRx = regexp.MustCompile(`^<!--\[[^\]]+\]>|<!\[endif\]-->$`)

// IsConditionalComment reports whether the comment is an Internet Explorer
// conditional comment, which must be kept in the output.
func IsConditionalComment(tag string) bool {
	return conditionalCommentRx.MatchString(tag)
}

// TrimLeading removes leading whitespace that contains a line break, which is
// the indentation of template source rather than content.
func TrimLeading(text string) string {
	var trimmed = strings.TrimLeft(text, " \t\n\r\f")
	if strings.ContainsAny(text[:len(text)-len(trimmed)], "\n\r") {
		return trimmed
	}
	return text
}

// EscapeHTML escapes text for inclusion in element content.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// UnescapeEntities decodes character references such as &amp; and &#34;.
func UnescapeEntities(s string) string {
	return html.UnescapeString(s)
}

var needsQuoteRx = regexp.MustCompile("[\\s\"'=<>`]")

// EscapeAttribute formats an attribute value for use after an equals sign,
// quoting it only when required.
func EscapeAttribute(s string) string {
	if s == "" {
		return `""`
	}
	s = strings.Replace(s, "&", "&amp;", -1)
	if needsQuoteRx.MatchString(s) {
		return `"` + strings.Replace(s, `"`, "&quot;", -1) + `"`
	}
	return s
}
