// Package i18n translates the text of views with gettext PO message catalogs.
//
// Catalogs are loaded per locale, and a locale without its own catalog uses
// the catalog of a more general locale: "pt_BR" falls back to "pt".  Views
// reach the messages through the view function returned by Func:
//
//	<h1>{{t('Welcome')}}</h1>
//	<p>{t('{n} item', count, '{n} items')}</p>
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/robfig/gettext/po"

	"github.com/robfig/liveview/data"
	"github.com/robfig/liveview/view"
)

// Provider looks up the messages of a locale.
type Provider interface {
	// Bundle returns the messages for locale, written language_Territory, or
	// nil if there are none.
	Bundle(locale string) *Bundle
}

// Catalogs holds loaded message bundles by locale.
type Catalogs map[string]*Bundle

// Load reads the catalog "<locale>.po" from the root of fsys for each of the
// given locales.  A locale without a file of its own is given the catalog of
// the most specific locale that can stand in for it, and is skipped if there
// is none.
func Load(fsys fs.FS, locales ...string) (Catalogs, error) {
	var cats = make(Catalogs)
	for _, locale := range locales {
		var file, found, err = readCatalog(fsys, locale)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", locale, err)
		}
		if !found {
			continue
		}
		b, err := newBundle(locale, file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", locale, err)
		}
		cats[locale] = b
	}
	return cats, nil
}

func readCatalog(fsys fs.FS, locale string) (po.File, bool, error) {
	for _, candidate := range append([]string{locale}, fallbacks(locale)...) {
		var f, err = fsys.Open(candidate + ".po")
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return po.File{}, false, err
		}
		file, err := po.Parse(f)
		f.Close()
		return file, err == nil, err
	}
	return po.File{}, false, nil
}

// Dir loads every catalog in a directory of files named by locale:
//
//	msgs/fr.po
//	msgs/pt.po
//	msgs/pt_BR.po
func Dir(dirname string) (Catalogs, error) {
	var fsys = os.DirFS(dirname)
	var entries, err = fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var locales []string
	for _, e := range entries {
		if ext := path.Ext(e.Name()); !e.IsDir() && ext == ".po" {
			locales = append(locales, strings.TrimSuffix(e.Name(), ext))
		}
	}
	return Load(fsys, locales...)
}

// Bundle returns the bundle of locale, or of the most specific locale that can
// stand in for it.
func (c Catalogs) Bundle(locale string) *Bundle {
	if b, ok := c[locale]; ok {
		return b
	}
	for _, fb := range fallbacks(locale) {
		if b, ok := c[fb]; ok {
			return b
		}
	}
	return nil
}

// Bundle holds the translated messages of one locale.
type Bundle struct {
	locale string
	strs   map[string][]string // msgstr forms, keyed by context and msgid
	plural po.PluralSelector
}

func newBundle(locale string, file po.File) (*Bundle, error) {
	var b = &Bundle{locale, make(map[string][]string), file.Pluralize}
	if b.plural == nil {
		b.plural = po.PluralSelectorForLanguage(locale)
	}
	if b.plural == nil {
		return nil, errors.New("no plural rule: the catalog header needs Plural-Forms")
	}
	for _, msg := range file.Messages {
		if msg.Id != "" {
			b.strs[key(msg.Ctxt, msg.Id)] = msg.Str
		}
	}
	return b, nil
}

func key(ctxt, msgid string) string {
	if ctxt == "" {
		return msgid
	}
	return ctxt + "\x04" + msgid
}

// Locale is the locale the bundle was loaded for.
func (b *Bundle) Locale() string { return b.locale }

// PluralCase is the index of the plural form to use for n.
func (b *Bundle) PluralCase(n int) int { return b.plural(n) }

// Message returns the translation of msgid, or msgid itself if it has not
// been translated.
func (b *Bundle) Message(msgid string) (string, bool) {
	if b != nil {
		if strs := b.strs[msgid]; len(strs) > 0 && strs[0] != "" {
			return strs[0], true
		}
	}
	return msgid, false
}

// Plural returns the form of a message to use for n.  The source text is
// msgid when n is 1 and msgidPlural otherwise.
func (b *Bundle) Plural(msgid, msgidPlural string, n int) (string, bool) {
	if b != nil {
		var strs = b.strs[msgid]
		if i := b.plural(n); i >= 0 && i < len(strs) && strs[i] != "" {
			return strs[i], true
		}
	}
	if n == 1 || msgidPlural == "" {
		return msgid, false
	}
	return msgidPlural, false
}

// Func returns the view function t, which translates messages for locale:
//
//	t(msgid)                 the translation of msgid
//	t(msgid, n, msgidPlural) the form of the message to use for n, with
//	                         "{n}" replaced by n
//
// Messages without a translation render their source text.  p may be nil.
func Func(p Provider, locale string) view.GetFunc {
	var b *Bundle
	if p != nil {
		b = p.Bundle(locale)
	}
	return func(args ...data.Value) data.Value {
		if len(args) == 0 {
			return data.Undefined{}
		}
		var msgid = args[0].String()
		if len(args) == 1 {
			var msg, _ = b.Message(msgid)
			return data.String(msg)
		}

		var n = count(args[1])
		var plural string
		if len(args) > 2 {
			plural = args[2].String()
		}
		var msg, _ = b.Plural(msgid, plural, n)
		return data.String(strings.Replace(msg, "{n}", strconv.Itoa(n), -1))
	}
}

// count reads the number a plural message is chosen by.  Strings are parsed
// and anything else counts as 0.
func count(v data.Value) int {
	if data.IsNil(v) {
		return 0
	}
	if n, ok := v.(data.Int); ok {
		return int(n)
	}
	if f, ok := v.(data.Float); ok {
		return int(f)
	}
	var n, _ = strconv.Atoi(strings.TrimSpace(v.String()))
	return n
}
