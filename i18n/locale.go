// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"codeberg.org/railsi18n/railsi18n/core/localefile"
)

// canonicalLocales trims sigils and whitespace and drops duplicates,
// keeping the first occurrence.
func canonicalLocales(locales []string) []string {
	seen := make(map[string]bool, len(locales))
	out := make([]string, 0, len(locales))

	for _, l := range locales {
		l = localefile.StripSigil(strings.TrimSpace(l))
		if l == "" || seen[l] {
			continue
		}

		seen[l] = true
		out = append(out, l)
	}

	return out
}

// ParseLocale parses a locale key as written in locale files, accepting
// both "pt-BR" and "pt_BR".
func ParseLocale(locale string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(locale, "_", "-"))
}

// DisplayName returns a human-readable name for locale, such as
// "Japanese (日本語)". Unknown tags are returned unchanged.
func DisplayName(locale string) string {
	tag, err := ParseLocale(locale)
	if err != nil {
		return locale
	}

	english := display.English.Tags().Name(tag)
	if english == "" {
		return locale
	}

	self := display.Self.Name(tag)
	if self == "" || self == english {
		return english
	}

	return english + " (" + self + ")"
}

// strippedTagString removes variants to form a stable key using base, script and region only.
func strippedTagString(tag language.Tag) string {
	b, s, r := tag.Raw()
	stripped, _ := language.Compose(b, s, r)

	return stripped.String()
}

// SameLanguage reports whether two locale keys name the same language,
// ignoring variants and separator style.
func SameLanguage(a, b string) bool {
	ta, errA := ParseLocale(a)
	tb, errB := ParseLocale(b)

	if errA != nil || errB != nil {
		return a == b
	}

	return strippedTagString(ta) == strippedTagString(tb)
}

// MatchLocale picks the loaded locale that best serves want, for example
// "pt" for "pt-BR". Exact locale keys always match themselves, then keys
// that differ only in separator style or variants.
func (s *Store) MatchLocale(want string) (string, bool) {
	available := s.AvailableLocales()
	if len(available) == 0 {
		return "", false
	}

	want = localefile.StripSigil(strings.TrimSpace(want))
	for _, l := range available {
		if l == want {
			return l, true
		}
	}

	for _, l := range available {
		if SameLanguage(l, want) {
			return l, true
		}
	}

	wantTag, err := ParseLocale(want)
	if err != nil {
		return "", false
	}

	tags := make([]language.Tag, 0, len(available))
	keys := make([]string, 0, len(available))

	for _, l := range available {
		t, err := ParseLocale(l)
		if err != nil {
			continue
		}

		tags = append(tags, t)
		keys = append(keys, l)
	}

	if len(tags) == 0 {
		return "", false
	}

	_, idx, conf := language.NewMatcher(tags).Match(wantTag)
	if conf == language.No {
		return "", false
	}

	return keys[idx], true
}
