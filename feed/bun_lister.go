package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-canonical/document"
)

// BunLister composes the feed query against a relational backend. Only
// published, non-deleted rows participate in a feed.
type BunLister struct {
	documents repository.Repository[*document.Document]
}

// NewBunLister constructs a lister over the documents table.
func NewBunLister(db *bun.DB) *BunLister {
	return &BunLister{documents: document.NewDocumentRepository(db)}
}

func (l *BunLister) List(ctx context.Context, kind document.Kind, filters Filters, after *Keyset, limit int) ([]*document.Document, error) {
	records, _, err := l.documents.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.
				Where("?TableAlias.kind = ?", kind).
				Where("?TableAlias.deleted_at IS NULL").
				Where("?TableAlias.published_at IS NOT NULL")

			if filters.CategoryID != nil {
				q = q.Where("?TableAlias.category_id = ?", *filters.CategoryID)
			}
			if filters.AuthorID != nil {
				q = q.Where("?TableAlias.author_id = ?", *filters.AuthorID)
			}
			if search := strings.TrimSpace(filters.Search); search != "" {
				pattern := "%" + strings.ToLower(search) + "%"
				q = q.Where(
					"(lower(?TableAlias.title) LIKE ? OR lower(coalesce(?TableAlias.excerpt, '')) LIKE ? OR lower(?TableAlias.body) LIKE ?)",
					pattern, pattern, pattern,
				)
			}
			if filters.PublishedFrom != nil {
				q = q.Where("?TableAlias.published_at >= ?", *filters.PublishedFrom)
			}
			if filters.PublishedTo != nil {
				q = q.Where("?TableAlias.published_at <= ?", *filters.PublishedTo)
			}
			if after != nil {
				q = q.Where(
					"(?TableAlias.published_at < ? OR (?TableAlias.published_at = ? AND ?TableAlias.id < ?))",
					after.PublishedAt, after.PublishedAt, after.ID,
				)
			}

			return q.
				OrderExpr("?TableAlias.published_at DESC").
				OrderExpr("?TableAlias.id DESC")
		}),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("feed query error: %w", err)
	}
	return records, nil
}
