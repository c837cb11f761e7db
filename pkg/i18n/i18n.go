// Package i18n provides lightweight dashboard string localization.
// Supported languages: en (English), hi (Hindi), as (Assamese).
// No external dependencies — translations are compiled into the binary.
package i18n

import (
	"fmt"
	"strings"
)

// Fallback language used when a key or language is not found.
const DefaultLang = "en"

// SupportedLanguages lists the language codes the dashboard ships with.
var SupportedLanguages = []string{"en", "hi", "as"}

// languageNames maps language code to its self-described display name.
var languageNames = map[string]string{
	"en": "English",
	"hi": "हिन्दी",
	"as": "অসমীয়া",
}

// rtlLanguages are codes rendered right-to-left.
var rtlLanguages = map[string]bool{
	"ar": true,
	"ur": true,
	"he": true,
	"fa": true,
}

// IsSupported reports whether lang is one of the supported codes.
func IsSupported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// Normalize strips a region suffix from a BCP 47 tag ("en-US" → "en")
// and lowercases the result. It does not validate support.
func Normalize(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

// Name returns the display name for a language code, or the code itself
// when unknown.
func Name(lang string) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return lang
}

// Direction returns "rtl" for right-to-left languages and "ltr" otherwise.
func Direction(lang string) string {
	if rtlLanguages[Normalize(lang)] {
		return "rtl"
	}
	return "ltr"
}

// Translate returns a localized string for key in lang.
// Extra args are passed to fmt.Sprintf if the translation contains format verbs.
// Falls back to English if lang is unsupported or key is missing.
func Translate(key, lang string, args ...interface{}) string {
	if lang == "" {
		lang = DefaultLang
	}

	langMap, ok := translations[key]
	if !ok {
		// Key entirely unknown — return the key itself so nothing is silently swallowed.
		return key
	}

	tmpl, ok := langMap[lang]
	if !ok {
		// Language not found — fall back to English.
		tmpl, ok = langMap[DefaultLang]
		if !ok {
			return key
		}
	}

	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
