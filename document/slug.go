package document

import "github.com/goliatone/go-slug"

// NormalizeSlug applies the default ASCII slug normalization rules. Latin
// manual slug input passes through here; non-Latin slugs are checked by the
// locale-aware generator instead.
func NormalizeSlug(value string) (string, error) {
	return slug.Normalize(value)
}

// IsValidSlug reports whether the slug matches the default ASCII rules.
func IsValidSlug(value string) bool {
	return slug.IsValid(value)
}
