package document

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewDocumentRepository(db *bun.DB) repository.Repository[*Document] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Document]{
		NewRecord: func() *Document { return &Document{} },
		GetID: func(d *Document) uuid.UUID {
			return d.ID
		},
		SetID: func(d *Document, id uuid.UUID) {
			d.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(d *Document) string {
			return d.Slug
		},
	})
}

func NewAliasRepository(db *bun.DB) repository.Repository[*SlugAlias] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*SlugAlias]{
		NewRecord: func() *SlugAlias { return &SlugAlias{} },
		GetID: func(a *SlugAlias) uuid.UUID {
			return a.ID
		},
		SetID: func(a *SlugAlias, id uuid.UUID) {
			a.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(a *SlugAlias) string {
			if a == nil {
				return ""
			}
			return a.ID.String()
		},
	})
}

func NewTranslationRepository(db *bun.DB) repository.Repository[*Translation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Translation]{
		NewRecord: func() *Translation { return &Translation{} },
		GetID: func(t *Translation) uuid.UUID {
			return t.ID
		},
		SetID: func(t *Translation, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(t *Translation) string {
			if t == nil {
				return ""
			}
			return t.ID.String()
		},
	})
}
