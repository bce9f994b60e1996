package document

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunStore implements Repository on top of Bun-backed repositories.
type BunStore struct {
	db           *bun.DB
	documents    repository.Repository[*Document]
	translations repository.Repository[*Translation]
	aliases      repository.Repository[*SlugAlias]
}

// NewBunStore constructs a store without read caching.
func NewBunStore(db *bun.DB) *BunStore {
	return NewBunStoreWithCache(db, nil, nil)
}

// NewBunStoreWithCache constructs a store whose reads go through the supplied
// cache service when one is provided.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunStore {
	return &BunStore{
		db:           db,
		documents:    wrapWithCache(NewDocumentRepository(db), cacheService, keySerializer),
		translations: wrapWithCache(NewTranslationRepository(db), cacheService, keySerializer),
		aliases:      NewAliasRepository(db),
	}
}

func (s *BunStore) LoadDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	record, err := s.documents.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "document", id.String())
	}
	return record, nil
}

func (s *BunStore) LoadTranslations(ctx context.Context, id uuid.UUID) (map[string]*Translation, error) {
	records, _, err := s.translations.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.document_id = ?", id)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("document repository error: %w", err)
	}

	byLocale := make(map[string]*Translation, len(records))
	for _, record := range records {
		byLocale[strings.ToLower(record.Locale)] = record
	}
	return byLocale, nil
}

func (s *BunStore) FindByBaseSlug(ctx context.Context, kind Kind, slug string) (*Document, error) {
	records, _, err := s.documents.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.kind = ?", kind).
				Where("?TableAlias.slug = ?", slug).
				Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("document repository error: %w", err)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "document", Key: slug}
	}
	return records[0], nil
}

func (s *BunStore) FindByTranslationSlug(ctx context.Context, kind Kind, locale, slug string) (*Document, *Translation, error) {
	records, _, err := s.translations.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Join("JOIN documents AS d ON d.id = ?TableAlias.document_id").
				Where("d.kind = ?", kind).
				Where("d.deleted_at IS NULL").
				Where("?TableAlias.locale = ?", strings.ToLower(locale)).
				Where("?TableAlias.slug = ?", slug)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("document repository error: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, &NotFoundError{Resource: "translation", Key: slug}
	}

	translation := records[0]
	record, err := s.LoadDocument(ctx, translation.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	return record, translation, nil
}

func (s *BunStore) FindAlias(ctx context.Context, kind Kind, locale, slug string) (*Document, error) {
	records, _, err := s.aliases.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.kind = ?", kind).
				Where("?TableAlias.slug = ?", slug).
				Where("?TableAlias.locale IN (?, '')", strings.ToLower(locale)).
				OrderExpr("?TableAlias.locale DESC").
				OrderExpr("?TableAlias.created_at DESC")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("document repository error: %w", err)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "slug alias", Key: slug}
	}
	return s.LoadDocument(ctx, records[0].DocumentID)
}

func (s *BunStore) RecordAlias(ctx context.Context, record *SlugAlias) error {
	record.Locale = strings.ToLower(record.Locale)
	if _, err := s.aliases.Create(ctx, record); err != nil {
		return fmt.Errorf("document repository error: %w", err)
	}
	return nil
}

func (s *BunStore) PruneAliases(ctx context.Context, kind Kind, locale, slug string) error {
	if _, err := s.db.NewDelete().
		Model((*SlugAlias)(nil)).
		Where("kind = ?", kind).
		Where("slug = ?", slug).
		Where("locale = ?", strings.ToLower(locale)).
		Exec(ctx); err != nil {
		return fmt.Errorf("document repository error: %w", err)
	}
	return nil
}

func (s *BunStore) CreateDocument(ctx context.Context, record *Document) (*Document, error) {
	created, err := s.documents.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("document repository error: %w", err)
	}
	for _, translation := range record.Translations {
		if translation == nil {
			continue
		}
		translation.DocumentID = created.ID
		if _, err := s.translations.Create(ctx, translation); err != nil {
			return nil, fmt.Errorf("document repository error: %w", err)
		}
	}
	return created, nil
}

func (s *BunStore) UpdateDocument(ctx context.Context, record *Document) (*Document, error) {
	updated, err := s.documents.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"kind",
			"base_locale",
			"title",
			"slug",
			"excerpt",
			"body",
			"category_id",
			"author_id",
			"metadata",
			"published_at",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "document", record.ID.String())
	}
	return updated, nil
}

// DeleteDocument removes the document and its translations. The schema also
// enforces the cascade with a foreign key; deleting translations here keeps
// behavior consistent on engines with foreign keys disabled.
func (s *BunStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.NewDelete().
		Model((*Translation)(nil)).
		Where("document_id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("document repository error: %w", err)
	}
	if _, err := s.db.NewDelete().
		Model((*SlugAlias)(nil)).
		Where("document_id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("document repository error: %w", err)
	}
	if err := s.documents.Delete(ctx, &Document{ID: id}); err != nil {
		return mapRepositoryError(err, "document", id.String())
	}
	return nil
}

func (s *BunStore) UpsertTranslation(ctx context.Context, record *Translation) (*Translation, error) {
	record.Locale = strings.ToLower(record.Locale)

	existing, _, err := s.translations.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.document_id = ?", record.DocumentID).
				Where("?TableAlias.locale = ?", record.Locale)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("document repository error: %w", err)
	}

	if len(existing) == 0 {
		created, err := s.translations.Create(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("document repository error: %w", err)
		}
		return created, nil
	}

	record.ID = existing[0].ID
	record.CreatedAt = existing[0].CreatedAt
	updated, err := s.translations.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns(
			"title",
			"slug",
			"excerpt",
			"body",
			"seo_title",
			"seo_description",
			"metadata",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "translation", record.ID.String())
	}
	return updated, nil
}

func (s *BunStore) DeleteTranslation(ctx context.Context, documentID uuid.UUID, locale string) error {
	result, err := s.db.NewDelete().
		Model((*Translation)(nil)).
		Where("document_id = ?", documentID).
		Where("locale = ?", strings.ToLower(locale)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("document repository error: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return &NotFoundError{Resource: "translation", Key: locale}
	}
	return nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
