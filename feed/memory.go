package feed

import (
	"bytes"
	"context"
	"sort"
	"strings"

	"github.com/goliatone/go-canonical/document"
)

// MemoryLister lists over an in-memory store, mirroring the relational
// lister's ordering and filter semantics.
type MemoryLister struct {
	store *document.MemoryStore
}

// NewMemoryLister constructs a lister over the given store.
func NewMemoryLister(store *document.MemoryStore) *MemoryLister {
	return &MemoryLister{store: store}
}

func (l *MemoryLister) List(_ context.Context, kind document.Kind, filters Filters, after *Keyset, limit int) ([]*document.Document, error) {
	matched := []*document.Document{}
	for _, row := range l.store.Documents() {
		if !matches(row, kind, filters) {
			continue
		}
		if after != nil && !strictlyAfter(row, after) {
			continue
		}
		matched = append(matched, row)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.PublishedAt.Equal(*b.PublishedAt) {
			return a.PublishedAt.After(*b.PublishedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) > 0
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func matches(row *document.Document, kind document.Kind, filters Filters) bool {
	if row.Kind != kind || row.DeletedAt != nil || row.PublishedAt == nil {
		return false
	}
	if filters.CategoryID != nil && (row.CategoryID == nil || *row.CategoryID != *filters.CategoryID) {
		return false
	}
	if filters.AuthorID != nil && row.AuthorID != *filters.AuthorID {
		return false
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		needle := strings.ToLower(search)
		excerpt := ""
		if row.Excerpt != nil {
			excerpt = *row.Excerpt
		}
		haystack := strings.ToLower(row.Title + "\n" + excerpt + "\n" + row.Body)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if filters.PublishedFrom != nil && row.PublishedAt.Before(*filters.PublishedFrom) {
		return false
	}
	if filters.PublishedTo != nil && row.PublishedAt.After(*filters.PublishedTo) {
		return false
	}
	return true
}

// strictlyAfter reports whether the row sorts after the keyset anchor in the
// (published_at DESC, id DESC) order.
func strictlyAfter(row *document.Document, after *Keyset) bool {
	if row.PublishedAt.Before(after.PublishedAt) {
		return true
	}
	if row.PublishedAt.Equal(after.PublishedAt) {
		return bytes.Compare(row.ID[:], after.ID[:]) < 0
	}
	return false
}
