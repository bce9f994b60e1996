package document

import (
	"errors"
	"fmt"
)

var (
	ErrKindInvalid            = errors.New("document: unsupported kind")
	ErrLocaleRequired         = errors.New("document: locale is required")
	ErrTitleRequired          = errors.New("document: title is required")
	ErrAuthorRequired         = errors.New("document: author id is required")
	ErrDuplicateLocale        = errors.New("document: duplicate locale provided")
	ErrDocumentIDRequired     = errors.New("document: document id required")
	ErrSlugInvalid            = errors.New("document: slug contains invalid characters")
	ErrSlugExists             = errors.New("document: slug already exists")
	ErrTranslationIsBase      = errors.New("document: translation locale matches the base locale")
	ErrTranslationNotFound    = errors.New("document: translation not found")
	ErrMetadataInvalid        = errors.New("document: metadata failed schema validation")
	ErrSlugDisambiguationFull = errors.New("document: could not disambiguate slug")
)

// NotFoundError represents missing records from repository lookups.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether err marks a record absence rather than a
// storage failure. Callers rely on this to keep "doesn't exist" separate
// from "couldn't check".
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// SlugExistsError carries the namespace in which a slug collision happened.
type SlugExistsError struct {
	Kind   Kind
	Locale string
	Slug   string
}

func (e *SlugExistsError) Error() string {
	return fmt.Sprintf("%s: kind=%s locale=%s slug=%q", ErrSlugExists.Error(), e.Kind, e.Locale, e.Slug)
}

func (e *SlugExistsError) Unwrap() error {
	return ErrSlugExists
}

// MetadataValidationError surfaces JSON Schema issues for SEO metadata.
type MetadataValidationError struct {
	Issues []string
	Cause  error
}

func (e *MetadataValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrMetadataInvalid.Error()
	}
	return fmt.Sprintf("%s: %v", ErrMetadataInvalid.Error(), e.Issues)
}

func (e *MetadataValidationError) Unwrap() error {
	return ErrMetadataInvalid
}
