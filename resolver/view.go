package resolver

import (
	"strings"

	"github.com/goliatone/go-canonical/document"
)

// ResolvedView is the locale-resolved projection of a document: the fields a
// caller renders for one requested locale, with fallback already applied.
type ResolvedView struct {
	Locale         string
	Title          string
	Slug           string
	Excerpt        *string
	Body           string
	SEOTitle       *string
	SEODescription *string

	// IsFallback is true when the base locale's content is served because
	// the requested locale has no complete translation.
	IsFallback bool
}

// Resolve projects a document into the requested locale. Fallback is
// whole-record: either the translation is complete and every field comes
// from it, or every field comes from the base locale. Mixed views would pair
// a translated title with an untranslated body, so a partial translation
// falls back entirely.
func Resolve(doc *document.Document, translations map[string]*document.Translation, locale string) ResolvedView {
	locale = strings.ToLower(strings.TrimSpace(locale))

	if locale != doc.BaseLocale {
		if translation, ok := translations[locale]; ok && translation.Complete() {
			return ResolvedView{
				Locale:         locale,
				Title:          translation.Title,
				Slug:           CanonicalSlug(doc, translations, locale),
				Excerpt:        translation.Excerpt,
				Body:           translation.Body,
				SEOTitle:       translation.SEOTitle,
				SEODescription: translation.SEODescription,
				IsFallback:     false,
			}
		}
	}

	return ResolvedView{
		Locale:     locale,
		Title:      doc.Title,
		Slug:       CanonicalSlug(doc, translations, locale),
		Excerpt:    doc.Excerpt,
		Body:       doc.Body,
		IsFallback: locale != doc.BaseLocale,
	}
}

// CanonicalSlug returns the one slug a locale should be served under. A
// translation's slug wins even when the translation is otherwise incomplete:
// the slug names the URL namespace independently of content completeness.
func CanonicalSlug(doc *document.Document, translations map[string]*document.Translation, locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale != doc.BaseLocale {
		if translation, ok := translations[locale]; ok && strings.TrimSpace(translation.Slug) != "" {
			return translation.Slug
		}
	}
	return doc.Slug
}
