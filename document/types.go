package document

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Kind identifies the content family a document belongs to. Slug uniqueness
// is scoped per kind, so an article and a legal page may share a slug.
type Kind string

const (
	KindArticle    Kind = "article"
	KindLegal      Kind = "legal"
	KindSpecialist Kind = "specialist"
	KindCategory   Kind = "category"
)

var kindPaths = map[Kind]string{
	KindArticle:    "articles",
	KindLegal:      "legal",
	KindSpecialist: "specialists",
	KindCategory:   "categories",
}

// Valid reports whether the kind is one of the supported content families.
func (k Kind) Valid() bool {
	_, ok := kindPaths[k]
	return ok
}

// Path returns the URL path segment used for the kind in public routes.
func (k Kind) Path() string {
	return kindPaths[k]
}

// KindFromPath maps a URL path segment back to its kind.
func KindFromPath(segment string) (Kind, bool) {
	segment = strings.ToLower(strings.TrimSpace(segment))
	for kind, path := range kindPaths {
		if path == segment {
			return kind, true
		}
	}
	return "", false
}

// Document is the canonical record for a content entity. The title, slug,
// excerpt and body columns hold the base-locale content; every other locale
// lives in a Translation row.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID          uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Kind        Kind           `bun:"kind,notnull" json:"kind"`
	BaseLocale  string         `bun:"base_locale,notnull" json:"base_locale"`
	Title       string         `bun:"title,notnull" json:"title"`
	Slug        string         `bun:"slug,notnull" json:"slug"`
	Excerpt     *string        `bun:"excerpt" json:"excerpt,omitempty"`
	Body        string         `bun:"body,notnull,default:''" json:"body"`
	CategoryID  *uuid.UUID     `bun:"category_id,type:uuid,nullzero" json:"category_id,omitempty"`
	AuthorID    uuid.UUID      `bun:"author_id,notnull,type:uuid" json:"author_id"`
	Metadata    map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	PublishedAt *time.Time     `bun:"published_at,nullzero" json:"published_at,omitempty"`
	DeletedAt   *time.Time     `bun:"deleted_at,nullzero" json:"deleted_at,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Translations []*Translation `bun:"rel:has-many,join:id=document_id" json:"translations,omitempty"`
}

// Translation stores the localized variant of a document for one non-base
// locale. At most one row exists per (document, locale); the document owns
// its translations and deleting it cascades to them.
type Translation struct {
	bun.BaseModel `bun:"table:document_translations,alias:dt"`

	ID             uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	DocumentID     uuid.UUID      `bun:"document_id,notnull,type:uuid" json:"document_id"`
	Locale         string         `bun:"locale,notnull" json:"locale"`
	Title          string         `bun:"title,notnull,default:''" json:"title"`
	Slug           string         `bun:"slug,notnull,default:''" json:"slug"`
	Excerpt        *string        `bun:"excerpt" json:"excerpt,omitempty"`
	Body           string         `bun:"body,notnull,default:''" json:"body"`
	SEOTitle       *string        `bun:"seo_title" json:"seo_title,omitempty"`
	SEODescription *string        `bun:"seo_description" json:"seo_description,omitempty"`
	Metadata       map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// SlugAlias is a retired slug kept around so published links survive slug
// edits. Locale is empty for base-slug aliases, which match any requested
// locale; translation aliases carry the locale the slug belonged to.
type SlugAlias struct {
	bun.BaseModel `bun:"table:slug_aliases,alias:sa"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	DocumentID uuid.UUID `bun:"document_id,notnull,type:uuid" json:"document_id"`
	Kind       Kind      `bun:"kind,notnull" json:"kind"`
	Locale     string    `bun:"locale,notnull,default:''" json:"locale"`
	Slug       string    `bun:"slug,notnull" json:"slug"`
	CreatedAt  time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Complete reports whether the translation carries enough content to be
// served on its own. Incomplete rows fall back wholesale to the base locale;
// only their slug keeps participating in canonicalization.
func (t *Translation) Complete() bool {
	if t == nil {
		return false
	}
	return strings.TrimSpace(t.Title) != "" && strings.TrimSpace(t.Body) != ""
}
