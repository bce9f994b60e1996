package feed_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-canonical/document"
	"github.com/goliatone/go-canonical/feed"
)

func newFeedService(store *document.MemoryStore) *feed.Service {
	return feed.NewService(store, feed.NewMemoryLister(store))
}

func seedArticles(store *document.MemoryStore, count int) []*document.Document {
	author := uuid.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	docs := make([]*document.Document, 0, count)
	for i := 0; i < count; i++ {
		published := base.Add(time.Duration(i) * time.Hour)
		doc := &document.Document{
			ID:          uuid.New(),
			Kind:        document.KindArticle,
			BaseLocale:  "en",
			Title:       fmt.Sprintf("Article %d", i),
			Slug:        fmt.Sprintf("article-%d", i),
			Body:        "body",
			AuthorID:    author,
			PublishedAt: &published,
		}
		store.Put(doc)
		docs = append(docs, doc)
	}
	return docs
}

func TestListPagesThroughAllDocuments(t *testing.T) {
	store := document.NewMemoryStore()
	seedArticles(store, 45)
	svc := newFeedService(store)
	ctx := context.Background()

	req := feed.Request{Kind: document.KindArticle, Locale: "en", PageSize: 20}

	page1, err := svc.List(ctx, req)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1.Items) != 20 || !page1.HasMore || page1.NextCursor == "" {
		t.Fatalf("unexpected page 1: items=%d hasMore=%v", len(page1.Items), page1.HasMore)
	}

	req.Cursor = page1.NextCursor
	page2, err := svc.List(ctx, req)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2.Items) != 20 || !page2.HasMore {
		t.Fatalf("unexpected page 2: items=%d hasMore=%v", len(page2.Items), page2.HasMore)
	}

	req.Cursor = page2.NextCursor
	page3, err := svc.List(ctx, req)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3.Items) != 5 || page3.HasMore || page3.NextCursor != "" {
		t.Fatalf("unexpected page 3: items=%d hasMore=%v", len(page3.Items), page3.HasMore)
	}

	seen := map[uuid.UUID]int{}
	var previous *feed.Item
	for _, page := range [][]feed.Item{page1.Items, page2.Items, page3.Items} {
		for i := range page {
			item := page[i]
			seen[item.ID]++
			if previous != nil {
				if item.PublishedAt.After(*previous.PublishedAt) {
					t.Fatalf("sort order violated: %v after %v", item.PublishedAt, previous.PublishedAt)
				}
			}
			previous = &item
		}
	}
	if len(seen) != 45 {
		t.Fatalf("expected 45 distinct documents, saw %d", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("document %s visited %d times", id, count)
		}
	}
}

func TestListExactlyFullFinalPageReportsNoMore(t *testing.T) {
	store := document.NewMemoryStore()
	seedArticles(store, 4)
	svc := newFeedService(store)
	ctx := context.Background()

	req := feed.Request{Kind: document.KindArticle, Locale: "en", PageSize: 2}

	page1, err := svc.List(ctx, req)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1.Items) != 2 || !page1.HasMore {
		t.Fatalf("unexpected page 1: items=%d hasMore=%v", len(page1.Items), page1.HasMore)
	}

	req.Cursor = page1.NextCursor
	page2, err := svc.List(ctx, req)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2.Items) != 2 {
		t.Fatalf("expected full final page, got %d items", len(page2.Items))
	}
	if page2.HasMore || page2.NextCursor != "" {
		t.Fatalf("full final page must not advertise more: hasMore=%v cursor=%q", page2.HasMore, page2.NextCursor)
	}
}

func TestListCursorRejectedUnderDifferentFilters(t *testing.T) {
	store := document.NewMemoryStore()
	docs := seedArticles(store, 5)
	svc := newFeedService(store)
	ctx := context.Background()

	page, err := svc.List(ctx, feed.Request{Kind: document.KindArticle, Locale: "en", PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	_, err = svc.List(ctx, feed.Request{
		Kind:     document.KindArticle,
		Locale:   "en",
		PageSize: 2,
		Cursor:   page.NextCursor,
		Filters:  feed.Filters{AuthorID: &docs[0].AuthorID},
	})
	if !errors.Is(err, feed.ErrCursorInvalid) {
		t.Fatalf("expected ErrCursorInvalid for changed filters, got %v", err)
	}
}

func TestListMalformedCursor(t *testing.T) {
	store := document.NewMemoryStore()
	seedArticles(store, 3)
	svc := newFeedService(store)

	_, err := svc.List(context.Background(), feed.Request{
		Kind:   document.KindArticle,
		Locale: "en",
		Cursor: "not a cursor",
	})
	if !errors.Is(err, feed.ErrCursorInvalid) {
		t.Fatalf("expected ErrCursorInvalid, got %v", err)
	}
}

func TestListCursorForDeletedDocument(t *testing.T) {
	store := document.NewMemoryStore()
	seedArticles(store, 5)
	svc := newFeedService(store)
	ctx := context.Background()

	page, err := svc.List(ctx, feed.Request{Kind: document.KindArticle, Locale: "en", PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lastID := page.Items[len(page.Items)-1].ID
	if err := store.DeleteDocument(ctx, lastID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = svc.List(ctx, feed.Request{
		Kind:     document.KindArticle,
		Locale:   "en",
		PageSize: 2,
		Cursor:   page.NextCursor,
	})
	if !errors.Is(err, feed.ErrCursorInvalid) {
		t.Fatalf("expected ErrCursorInvalid for missing anchor, got %v", err)
	}
}

func TestListFiltersCompose(t *testing.T) {
	store := document.NewMemoryStore()
	author := uuid.New()
	category := uuid.New()
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	matching := &document.Document{
		ID:          uuid.New(),
		Kind:        document.KindArticle,
		BaseLocale:  "en",
		Title:       "Quarterly Report",
		Slug:        "quarterly-report",
		Body:        "numbers went up",
		AuthorID:    author,
		CategoryID:  &category,
		PublishedAt: &published,
	}
	store.Put(matching)

	otherAuthor := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	store.Put(&document.Document{
		ID:          uuid.New(),
		Kind:        document.KindArticle,
		BaseLocale:  "en",
		Title:       "Quarterly Report Copy",
		Slug:        "quarterly-report-copy",
		Body:        "numbers went up",
		AuthorID:    uuid.New(),
		CategoryID:  &category,
		PublishedAt: &otherAuthor,
	})

	svc := newFeedService(store)
	page, err := svc.List(context.Background(), feed.Request{
		Kind:   document.KindArticle,
		Locale: "en",
		Filters: feed.Filters{
			AuthorID:   &author,
			CategoryID: &category,
			Search:     "quarterly",
		},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != matching.ID {
		t.Fatalf("expected only the matching document, got %d items", len(page.Items))
	}
}

func TestListDateRangeIsInclusive(t *testing.T) {
	store := document.NewMemoryStore()
	author := uuid.New()
	edge := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	inside := edge.Add(12 * time.Hour)
	outside := edge.Add(48 * time.Hour)

	for i, published := range []time.Time{edge, inside, outside} {
		p := published
		store.Put(&document.Document{
			ID:          uuid.New(),
			Kind:        document.KindArticle,
			BaseLocale:  "en",
			Title:       fmt.Sprintf("Dated %d", i),
			Slug:        fmt.Sprintf("dated-%d", i),
			Body:        "body",
			AuthorID:    author,
			PublishedAt: &p,
		})
	}

	to := edge.Add(24 * time.Hour)
	svc := newFeedService(store)
	page, err := svc.List(context.Background(), feed.Request{
		Kind:    document.KindArticle,
		Locale:  "en",
		Filters: feed.Filters{PublishedFrom: &edge, PublishedTo: &to},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items in range, got %d", len(page.Items))
	}
}

func TestListExcludesUnpublishedDocuments(t *testing.T) {
	store := document.NewMemoryStore()
	seedArticles(store, 2)
	store.Put(&document.Document{
		ID:         uuid.New(),
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "Draft",
		Slug:       "draft",
		Body:       "body",
		AuthorID:   uuid.New(),
	})

	svc := newFeedService(store)
	page, err := svc.List(context.Background(), feed.Request{Kind: document.KindArticle, Locale: "en"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("drafts must not appear in the feed, got %d items", len(page.Items))
	}
}

func TestListResolvesRowsAgainstListingLocale(t *testing.T) {
	store := document.NewMemoryStore()
	published := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	translated := &document.Document{
		ID:          uuid.New(),
		Kind:        document.KindArticle,
		BaseLocale:  "en",
		Title:       "News Item",
		Slug:        "news-item",
		Body:        "english",
		AuthorID:    uuid.New(),
		PublishedAt: &published,
		Translations: []*document.Translation{
			{ID: uuid.New(), Locale: "ru", Title: "Новость", Slug: "novost", Body: "русский"},
		},
	}
	store.Put(translated)

	later := published.Add(time.Hour)
	store.Put(&document.Document{
		ID:          uuid.New(),
		Kind:        document.KindArticle,
		BaseLocale:  "en",
		Title:       "Untranslated",
		Slug:        "untranslated",
		Body:        "english only",
		AuthorID:    uuid.New(),
		PublishedAt: &later,
	})

	svc := newFeedService(store)
	page, err := svc.List(context.Background(), feed.Request{Kind: document.KindArticle, Locale: "ru"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}

	if page.Items[0].Title != "Untranslated" || !page.Items[0].IsFallback {
		t.Fatalf("untranslated row must fall back, got %+v", page.Items[0])
	}
	if page.Items[1].Title != "Новость" || page.Items[1].IsFallback {
		t.Fatalf("translated row must use ru content, got %+v", page.Items[1])
	}
}

func TestListPageSizeClamped(t *testing.T) {
	store := document.NewMemoryStore()
	seedArticles(store, 3)
	svc := newFeedService(store)

	page, err := svc.List(context.Background(), feed.Request{
		Kind:     document.KindArticle,
		Locale:   "en",
		PageSize: feed.MaxPageSize + 50,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 3 || page.HasMore {
		t.Fatalf("unexpected page: %d items hasMore=%v", len(page.Items), page.HasMore)
	}
}
