package domain

import "strings"

// Locale is one of the supported conversation languages.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleArabic  Locale = "ar"
)

var supportedLocales = []Locale{LocaleEnglish, LocaleArabic}

// SupportedLocales returns the closed set of locales in display order.
func SupportedLocales() []Locale {
	out := make([]Locale, len(supportedLocales))
	copy(out, supportedLocales)
	return out
}

// ParseLocale normalizes a language tag and reports whether it is supported.
func ParseLocale(tag string) (Locale, bool) {
	norm := Locale(strings.ToLower(strings.TrimSpace(tag)))
	return norm, norm.Valid()
}

// Valid reports whether the locale belongs to the supported set.
func (l Locale) Valid() bool {
	for _, supported := range supportedLocales {
		if l == supported {
			return true
		}
	}
	return false
}

func (l Locale) String() string {
	return string(l)
}
