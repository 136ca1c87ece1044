package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// fallbacks returns the locales whose catalogs can stand in for locale,
// itself first, ordered by increasing generality: language_Script_REGION,
// then language_Script, then language.  Locales are written with
// underscores, as catalog files are named.
func fallbacks(locale string) []string {
	var tag, err = language.Parse(locale)
	if err != nil {
		return nil
	}
	var lang, script, region = tag.Raw()
	var tags []language.Tag
	// Raw reports ZZ for an unspecified region and Zzzz for an unspecified script.
	if region.String() != "ZZ" {
		if t, err := language.Compose(lang, script, region); err == nil {
			tags = append(tags, t)
		}
	}
	if script.String() != "Zzzz" {
		if t, err := language.Compose(lang, script); err == nil {
			tags = append(tags, t)
		}
	}
	if t, err := language.Compose(lang); err == nil {
		tags = append(tags, t)
	}

	var out []string
	for _, t := range tags {
		var s = strings.Replace(t.String(), "-", "_", -1)
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	return out
}
