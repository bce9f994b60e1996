package document

import (
	"context"

	"github.com/google/uuid"
)

// Store is the read contract consumed by the resolver and feed layers. All
// methods signal absence with a *NotFoundError; any other error is a storage
// failure the caller must treat as fatal for the current request.
type Store interface {
	// LoadDocument fetches a document by id.
	LoadDocument(ctx context.Context, id uuid.UUID) (*Document, error)

	// LoadTranslations returns the document's translations keyed by locale.
	// A document with no translations yields an empty map, not an error.
	LoadTranslations(ctx context.Context, id uuid.UUID) (map[string]*Translation, error)

	// FindByBaseSlug matches against base-locale slugs. The lookup is
	// deliberately locale-agnostic: a base slug identifies its document
	// under any requested locale and canonicalization decides what happens
	// next.
	FindByBaseSlug(ctx context.Context, kind Kind, slug string) (*Document, error)

	// FindByTranslationSlug matches translation slugs scoped to one locale.
	// A slug belonging to locale A must not resolve when requested under
	// locale B.
	FindByTranslationSlug(ctx context.Context, kind Kind, locale, slug string) (*Document, *Translation, error)

	// FindAlias matches retired slugs. Locale-scoped aliases are tried
	// first, then base-slug aliases, which match any locale. Live slugs
	// always shadow aliases; callers consult this only after the lookups
	// above miss.
	FindAlias(ctx context.Context, kind Kind, locale, slug string) (*Document, error)
}

// Repository extends Store with the write operations used by the document
// service and the markdown importer.
type Repository interface {
	Store

	CreateDocument(ctx context.Context, record *Document) (*Document, error)
	UpdateDocument(ctx context.Context, record *Document) (*Document, error)
	// DeleteDocument removes the document and cascades to its translations.
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	UpsertTranslation(ctx context.Context, record *Translation) (*Translation, error)
	DeleteTranslation(ctx context.Context, documentID uuid.UUID, locale string) error

	// RecordAlias remembers a retired slug so old links keep redirecting.
	// An empty locale marks a base-slug alias that matches any locale.
	RecordAlias(ctx context.Context, record *SlugAlias) error
	// PruneAliases drops aliases for a slug that is live again in the
	// given namespace, preventing redirect loops.
	PruneAliases(ctx context.Context, kind Kind, locale, slug string) error
}
