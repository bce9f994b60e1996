package document_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-canonical/document"
)

var fixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *document.MemoryStore) document.Service {
	return document.NewService(store,
		document.WithClock(func() time.Time { return fixedTime }),
	)
}

func TestCreateDerivesSlugFromTitle(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "Terms of Service",
		Body:       "body",
		AuthorID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Slug != "terms-of-service" {
		t.Fatalf("expected derived slug, got %q", created.Slug)
	}
	if !created.CreatedAt.Equal(fixedTime) {
		t.Fatalf("expected clock timestamp, got %v", created.CreatedAt)
	}
}

func TestCreateNormalizesManualSlug(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "Pricing",
		Slug:       "Our Pricing Page",
		Body:       "body",
		AuthorID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Slug != "our-pricing-page" {
		t.Fatalf("expected normalized manual slug, got %q", created.Slug)
	}
}

func TestCreateAcceptsAlreadyValidManualSlug(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "Pricing",
		Slug:       "pricing-2026",
		Body:       "body",
		AuthorID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Slug != "pricing-2026" {
		t.Fatalf("expected manual slug verbatim, got %q", created.Slug)
	}
}

func TestCreateRejectsInvalidKind(t *testing.T) {
	svc := newTestService(document.NewMemoryStore())

	_, err := svc.Create(context.Background(), document.CreateDocumentRequest{
		Kind:       document.Kind("podcast"),
		BaseLocale: "en",
		Title:      "Episode 1",
		AuthorID:   uuid.New(),
	})
	if !errors.Is(err, document.ErrKindInvalid) {
		t.Fatalf("expected ErrKindInvalid, got %v", err)
	}
}

func TestCreateRejectsSlugCollision(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	first := document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "Release Notes",
		Body:       "body",
		AuthorID:   uuid.New(),
	}
	if _, err := svc.Create(ctx, first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(ctx, first)
	if !errors.Is(err, document.ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}

	var collision *document.SlugExistsError
	if !errors.As(err, &collision) {
		t.Fatalf("expected SlugExistsError, got %T", err)
	}
	if collision.Slug != "release-notes" || collision.Kind != document.KindArticle {
		t.Fatalf("unexpected collision detail: %+v", collision)
	}
}

func TestCreateDisambiguatesWhenRequested(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	req := document.CreateDocumentRequest{
		Kind:             document.KindArticle,
		BaseLocale:       "en",
		Title:            "Release Notes",
		Body:             "body",
		AuthorID:         uuid.New(),
		AutoDisambiguate: true,
	}
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.Slug != "release-notes-2" {
		t.Fatalf("expected suffixed slug, got %q", second.Slug)
	}
	third, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("third create: %v", err)
	}
	if third.Slug != "release-notes-3" {
		t.Fatalf("expected next suffix, got %q", third.Slug)
	}
}

func TestCreateSameSlugDifferentKinds(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	for _, kind := range []document.Kind{document.KindArticle, document.KindLegal} {
		if _, err := svc.Create(ctx, document.CreateDocumentRequest{
			Kind:       kind,
			BaseLocale: "en",
			Title:      "Privacy",
			Body:       "body",
			AuthorID:   uuid.New(),
		}); err != nil {
			t.Fatalf("create kind %s: %v", kind, err)
		}
	}
}

func TestCreateWithTranslations(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "News Item",
		Body:       "body",
		AuthorID:   uuid.New(),
		Translations: []document.TranslationInput{
			{Locale: "RU", Title: "Новость", Body: "текст"},
			{Locale: "ka", Title: "სიახლე"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	translations, err := store.LoadTranslations(ctx, created.ID)
	if err != nil {
		t.Fatalf("load translations: %v", err)
	}
	if len(translations) != 2 {
		t.Fatalf("expected 2 translations, got %d", len(translations))
	}
	ru, ok := translations["ru"]
	if !ok {
		t.Fatalf("expected locale key lowercased, got %v", translations)
	}
	if ru.Slug != "новость" {
		t.Fatalf("expected normalized cyrillic slug, got %q", ru.Slug)
	}
	if translations["ru"].Complete() == false {
		t.Fatalf("expected ru translation to be complete")
	}
	if translations["ka"].Complete() {
		t.Fatalf("expected ka translation without body to be incomplete")
	}
}

func TestCreateRejectsBaseLocaleTranslation(t *testing.T) {
	svc := newTestService(document.NewMemoryStore())

	_, err := svc.Create(context.Background(), document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "News Item",
		AuthorID:   uuid.New(),
		Translations: []document.TranslationInput{
			{Locale: "en", Title: "Duplicate"},
		},
	})
	if !errors.Is(err, document.ErrTranslationIsBase) {
		t.Fatalf("expected ErrTranslationIsBase, got %v", err)
	}
}

func TestCreateRejectsDuplicateTranslationLocales(t *testing.T) {
	svc := newTestService(document.NewMemoryStore())

	_, err := svc.Create(context.Background(), document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "News Item",
		AuthorID:   uuid.New(),
		Translations: []document.TranslationInput{
			{Locale: "ru", Title: "Один"},
			{Locale: "RU", Title: "Два"},
		},
	})
	if !errors.Is(err, document.ErrDuplicateLocale) {
		t.Fatalf("expected ErrDuplicateLocale, got %v", err)
	}
}

func TestCreateRejectsNonCanonicalCyrillicSlug(t *testing.T) {
	svc := newTestService(document.NewMemoryStore())

	_, err := svc.Create(context.Background(), document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "News Item",
		AuthorID:   uuid.New(),
		Translations: []document.TranslationInput{
			{Locale: "ru", Title: "Новость", Slug: "Новая «Статья»"},
		},
	})
	if !errors.Is(err, document.ErrSlugInvalid) {
		t.Fatalf("expected ErrSlugInvalid, got %v", err)
	}
}

func TestCreateValidatesSEOMetadata(t *testing.T) {
	svc := newTestService(document.NewMemoryStore())

	_, err := svc.Create(context.Background(), document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "News Item",
		AuthorID:   uuid.New(),
		Translations: []document.TranslationInput{
			{
				Locale: "ru",
				Title:  "Новость",
				Metadata: map[string]any{
					"og_image":   123,
					"unexpected": "field",
				},
			},
		},
	})
	if !errors.Is(err, document.ErrMetadataInvalid) {
		t.Fatalf("expected ErrMetadataInvalid, got %v", err)
	}

	var detail *document.MetadataValidationError
	if !errors.As(err, &detail) {
		t.Fatalf("expected MetadataValidationError, got %T", err)
	}
	if len(detail.Issues) == 0 {
		t.Fatalf("expected validation issues to be reported")
	}
}

func TestUpdateRegeneratesCollisionOnSlugChange(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "First",
		Body:       "body",
		AuthorID:   uuid.New(),
	}); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(ctx, document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "Second",
		Body:       "body",
		AuthorID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	slug := "first"
	_, err = svc.Update(ctx, document.UpdateDocumentRequest{ID: second.ID, Slug: &slug})
	if !errors.Is(err, document.ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists on update collision, got %v", err)
	}
}

func TestUpdateKeepingOwnSlugIsNotACollision(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "Stable Slug",
		Body:       "body",
		AuthorID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Stable Slug Updated"
	slug := created.Slug
	updated, err := svc.Update(ctx, document.UpdateDocumentRequest{
		ID:    created.ID,
		Title: &title,
		Slug:  &slug,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Slug != "stable-slug" {
		t.Fatalf("expected slug unchanged, got %q", updated.Slug)
	}
	if updated.Title != title {
		t.Fatalf("expected title updated, got %q", updated.Title)
	}
}

func TestUpsertTranslationReplacesExistingLocale(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "News Item",
		Body:       "body",
		AuthorID:   uuid.New(),
		Translations: []document.TranslationInput{
			{Locale: "ru", Title: "Новость", Body: "один"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpsertTranslation(ctx, document.UpsertTranslationRequest{
		DocumentID: created.ID,
		Input:      document.TranslationInput{Locale: "ru", Title: "Новость", Body: "два"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if updated.Body != "два" {
		t.Fatalf("expected replaced body, got %q", updated.Body)
	}

	translations, err := store.LoadTranslations(ctx, created.ID)
	if err != nil {
		t.Fatalf("load translations: %v", err)
	}
	if len(translations) != 1 {
		t.Fatalf("expected single ru row, got %d", len(translations))
	}
}

// unreadableTranslationsStore simulates a storage failure on translation
// reads while writes keep working.
type unreadableTranslationsStore struct {
	*document.MemoryStore
	failReads bool
}

func (s *unreadableTranslationsStore) LoadTranslations(ctx context.Context, id uuid.UUID) (map[string]*document.Translation, error) {
	if s.failReads {
		return nil, errors.New("translations table unavailable")
	}
	return s.MemoryStore.LoadTranslations(ctx, id)
}

func TestUpsertTranslationAbortsWhenSlugReadFails(t *testing.T) {
	broken := &unreadableTranslationsStore{MemoryStore: document.NewMemoryStore()}
	svc := document.NewService(broken,
		document.WithClock(func() time.Time { return fixedTime }),
	)
	ctx := context.Background()

	created, err := svc.Create(ctx, document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "News Item",
		Body:       "body",
		AuthorID:   uuid.New(),
		Translations: []document.TranslationInput{
			{Locale: "ru", Title: "Старая ссылка", Slug: "staraya-ssylka", Body: "текст"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rename := document.UpsertTranslationRequest{
		DocumentID: created.ID,
		Input:      document.TranslationInput{Locale: "ru", Title: "Новая ссылка", Slug: "novaya-ssylka", Body: "текст"},
	}

	broken.failReads = true
	if _, err := svc.UpsertTranslation(ctx, rename); err == nil {
		t.Fatal("expected storage failure to propagate")
	}

	// The failed upsert must not have written anything: the old slug is
	// still live, the new one is not.
	if _, _, err := broken.MemoryStore.FindByTranslationSlug(ctx, document.KindArticle, "ru", "staraya-ssylka"); err != nil {
		t.Fatalf("expected original slug to survive failed upsert: %v", err)
	}
	if _, _, err := broken.MemoryStore.FindByTranslationSlug(ctx, document.KindArticle, "ru", "novaya-ssylka"); err == nil {
		t.Fatal("expected new slug to be absent after failed upsert")
	}

	// Once reads recover the rename goes through and retires the old slug.
	broken.failReads = false
	if _, err := svc.UpsertTranslation(ctx, rename); err != nil {
		t.Fatalf("upsert after recovery: %v", err)
	}
	found, err := broken.MemoryStore.FindAlias(ctx, document.KindArticle, "ru", "staraya-ssylka")
	if err != nil {
		t.Fatalf("expected retired slug alias: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("alias resolved to %s, want %s", found.ID, created.ID)
	}
}

func TestDeleteTranslationMissingLocale(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "News Item",
		AuthorID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.DeleteTranslation(ctx, document.DeleteTranslationRequest{
		DocumentID: created.ID,
		Locale:     "ka",
	})
	if !errors.Is(err, document.ErrTranslationNotFound) {
		t.Fatalf("expected ErrTranslationNotFound, got %v", err)
	}
}

func TestDeleteDocumentRemovesTranslations(t *testing.T) {
	store := document.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, document.CreateDocumentRequest{
		Kind:       document.KindArticle,
		BaseLocale: "en",
		Title:      "News Item",
		AuthorID:   uuid.New(),
		Translations: []document.TranslationInput{
			{Locale: "ru", Title: "Новость", Body: "текст"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, document.DeleteDocumentRequest{ID: created.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.LoadDocument(ctx, created.ID); !document.IsNotFound(err) {
		t.Fatalf("expected document gone, got %v", err)
	}
	translations, err := store.LoadTranslations(ctx, created.ID)
	if err != nil {
		t.Fatalf("load translations: %v", err)
	}
	if len(translations) != 0 {
		t.Fatalf("expected translations removed, got %d", len(translations))
	}
}
