package i18n

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFallbacks(t *testing.T) {
	var tests = []struct {
		locale   string
		expected []string
	}{
		{"en", []string{"en"}},
		{"pt_BR", []string{"pt_BR", "pt"}},
		{"pt-BR", []string{"pt_BR", "pt"}},
		{"sr_Latn_RS", []string{"sr_Latn_RS", "sr_Latn", "sr"}},
		{"not a locale", nil},
	}
	for _, test := range tests {
		if diff := cmp.Diff(test.expected, fallbacks(test.locale)); diff != "" {
			t.Errorf("%s (-want +got):\n%s", test.locale, diff)
		}
	}
}
