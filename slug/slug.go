// Package slug derives URL slugs from human-typed titles with locale-aware
// rules.
//
// Locales written in a Latin script are transliterated down to ASCII
// (decompose, drop combining marks, lowercase, hyphenate). Locales written in
// any other script keep their letters: the text is case-folded for that
// locale, canonically composed, stripped of quote characters, and hyphenated
// on everything that is not a Unicode letter or number. Both pipelines are
// pure and deterministic; uniqueness is the caller's concern.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Mode selects the slug pipeline applied to a title.
type Mode string

const (
	// ModeTransliterate produces pure-ASCII slugs for Latin-script locales.
	ModeTransliterate Mode = "transliterate"
	// ModeNormalize keeps native letters for non-Latin-script locales.
	ModeNormalize Mode = "normalize"
)

var multiHyphen = regexp.MustCompile(`-{2,}`)

// quoteRunes are removed outright rather than hyphenated so contractions and
// quoted phrases read naturally in the slug.
var quoteRunes = map[rune]struct{}{
	'\'':   {},
	'"':    {},
	'`':    {},
	'´': {},
	'‘': {},
	'’': {},
	'‚': {},
	'“': {},
	'”': {},
	'„': {},
	'«': {},
	'»': {},
	'ʼ': {},
}

// ModeForLocale inspects the locale's likely script to choose a pipeline.
// Unknown or unparseable locales default to transliteration, which always
// yields an ASCII-safe slug.
func ModeForLocale(locale string) Mode {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return ModeTransliterate
	}
	script, conf := tag.Script()
	if conf == language.No {
		return ModeTransliterate
	}
	switch script.String() {
	case "Latn", "Zzzz", "Zyyy":
		return ModeTransliterate
	}
	return ModeNormalize
}

// Generate derives the slug for text under the given locale.
func Generate(text, locale string) string {
	return GenerateWithMode(text, locale, ModeForLocale(locale))
}

// GenerateWithMode derives a slug with an explicit pipeline, bypassing script
// detection. Useful when the caller already knows the locale's mode.
func GenerateWithMode(text, locale string, mode Mode) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if mode == ModeNormalize {
		return normalizeSlug(text, locale)
	}
	return transliterateSlug(text)
}

// IsCanonical reports whether value is already a valid slug for the locale,
// i.e. re-slugging it is a no-op.
func IsCanonical(value, locale string) bool {
	return value != "" && Generate(value, locale) == value
}

func transliterateSlug(text string) string {
	decomposer := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(decomposer, text)
	if err != nil {
		stripped = text
	}
	stripped = strings.ToLower(stripped)

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return tidyHyphens(b.String())
}

func normalizeSlug(text, locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.Und
	}
	lowered := cases.Lower(tag).String(text)
	composed := norm.NFC.String(lowered)

	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		if _, quoted := quoteRunes[r]; quoted {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('-')
	}
	return tidyHyphens(b.String())
}

func tidyHyphens(value string) string {
	value = multiHyphen.ReplaceAllString(value, "-")
	return strings.Trim(value, "-")
}
