package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-canonical/internal/logging"
	"github.com/goliatone/go-canonical/pkg/interfaces"
	slugpkg "github.com/goliatone/go-canonical/slug"
)

// maxSlugSuffix bounds the numeric disambiguation loop so a pathological
// namespace cannot spin forever.
const maxSlugSuffix = 50

// Service exposes the write-side document use cases. Reads used by request
// resolution live on Store; this service owns mutation, slug derivation and
// collision policy.
type Service interface {
	Create(ctx context.Context, req CreateDocumentRequest) (*Document, error)
	Get(ctx context.Context, id uuid.UUID) (*Document, error)
	Update(ctx context.Context, req UpdateDocumentRequest) (*Document, error)
	Delete(ctx context.Context, req DeleteDocumentRequest) error
	UpsertTranslation(ctx context.Context, req UpsertTranslationRequest) (*Translation, error)
	DeleteTranslation(ctx context.Context, req DeleteTranslationRequest) error
}

// CreateDocumentRequest captures the information required to create a
// document in its base locale, optionally with translations.
type CreateDocumentRequest struct {
	Kind        Kind
	BaseLocale  string
	Title       string
	Slug        string
	Excerpt     *string
	Body        string
	CategoryID  *uuid.UUID
	AuthorID    uuid.UUID
	Metadata    map[string]any
	PublishedAt *time.Time

	// AutoDisambiguate appends a numeric suffix instead of rejecting a
	// colliding slug.
	AutoDisambiguate bool

	Translations []TranslationInput
}

// Validate checks required fields before any storage work happens.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BaseLocale, validation.Required.Error(ErrLocaleRequired.Error())),
		validation.Field(&r.Title, validation.Required.Error(ErrTitleRequired.Error())),
		validation.Field(&r.AuthorID, validation.Required.Error(ErrAuthorRequired.Error())),
	)
}

// TranslationInput represents localized fields supplied during create or
// upsert. Partial rows are accepted; completeness only matters at resolution
// time.
type TranslationInput struct {
	Locale         string
	Title          string
	Slug           string
	Excerpt        *string
	Body           string
	SEOTitle       *string
	SEODescription *string
	Metadata       map[string]any
}

// UpdateDocumentRequest captures mutable base-locale fields. Nil pointers
// leave the stored value untouched.
type UpdateDocumentRequest struct {
	ID          uuid.UUID
	Title       *string
	Slug        *string
	Excerpt     *string
	Body        *string
	CategoryID  *uuid.UUID
	Metadata    map[string]any
	PublishedAt *time.Time

	AutoDisambiguate bool
}

// DeleteDocumentRequest removes a document and, through ownership, all of
// its translations.
type DeleteDocumentRequest struct {
	ID uuid.UUID
}

// UpsertTranslationRequest creates or replaces the translation for one
// locale of a document.
type UpsertTranslationRequest struct {
	DocumentID uuid.UUID
	Input      TranslationInput

	AutoDisambiguate bool
}

// DeleteTranslationRequest drops one locale from a document without touching
// the document itself.
type DeleteTranslationRequest struct {
	DocumentID uuid.UUID
	Locale     string
}

// seoMetadataSchema validates the optional SEO payload editors can attach to
// a translation.
var seoMetadataSchema = jsonschema.MustCompileString("seo_metadata.json", `{
	"type": "object",
	"properties": {
		"og_image":      {"type": "string"},
		"og_title":      {"type": "string"},
		"canonical_url": {"type": "string"},
		"robots":        {"type": "string"},
		"keywords": {
			"type": "array",
			"items": {"type": "string"}
		}
	},
	"additionalProperties": false
}`)

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// IDGenerator produces identifiers for new records.
type IDGenerator func() uuid.UUID

// WithIDGenerator overrides the identifier source, useful for deterministic
// fixtures.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger attaches a logger for mutation events.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.log = logger
		}
	}
}

type service struct {
	repo Repository
	now  func() time.Time
	id   IDGenerator
	log  interfaces.Logger
}

// NewService constructs a document service with the required dependencies.
func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{
		repo: repo,
		now:  time.Now,
		id:   uuid.New,
		log:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	if !req.Kind.Valid() {
		return nil, ErrKindInvalid
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	baseLocale := strings.ToLower(strings.TrimSpace(req.BaseLocale))

	slugValue, err := s.slugFor(req.Slug, req.Title, baseLocale)
	if err != nil {
		return nil, err
	}
	slugValue, err = s.freeBaseSlug(ctx, req.Kind, baseLocale, slugValue, uuid.Nil, req.AutoDisambiguate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &Document{
		ID:          s.id(),
		Kind:        req.Kind,
		BaseLocale:  baseLocale,
		Title:       strings.TrimSpace(req.Title),
		Slug:        slugValue,
		Excerpt:     req.Excerpt,
		Body:        req.Body,
		CategoryID:  req.CategoryID,
		AuthorID:    req.AuthorID,
		Metadata:    req.Metadata,
		PublishedAt: req.PublishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	seen := map[string]struct{}{}
	for _, input := range req.Translations {
		translation, err := s.buildTranslation(ctx, record, input, req.AutoDisambiguate)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[translation.Locale]; dup {
			return nil, ErrDuplicateLocale
		}
		seen[translation.Locale] = struct{}{}
		record.Translations = append(record.Translations, translation)
	}

	created, err := s.repo.CreateDocument(ctx, record)
	if err != nil {
		return nil, err
	}

	s.log.Info("document created", "id", created.ID.String(), "kind", string(created.Kind), "slug", created.Slug)
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	if id == uuid.Nil {
		return nil, ErrDocumentIDRequired
	}
	return s.repo.LoadDocument(ctx, id)
}

func (s *service) Update(ctx context.Context, req UpdateDocumentRequest) (*Document, error) {
	if req.ID == uuid.Nil {
		return nil, ErrDocumentIDRequired
	}

	record, err := s.repo.LoadDocument(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		record.Title = title
	}
	previousSlug := record.Slug
	if req.Slug != nil {
		slugValue, err := s.slugFor(*req.Slug, record.Title, record.BaseLocale)
		if err != nil {
			return nil, err
		}
		if slugValue != record.Slug {
			slugValue, err = s.freeBaseSlug(ctx, record.Kind, record.BaseLocale, slugValue, record.ID, req.AutoDisambiguate)
			if err != nil {
				return nil, err
			}
			record.Slug = slugValue
		}
	}
	if req.Excerpt != nil {
		record.Excerpt = req.Excerpt
	}
	if req.Body != nil {
		record.Body = *req.Body
	}
	if req.CategoryID != nil {
		record.CategoryID = req.CategoryID
	}
	if req.Metadata != nil {
		record.Metadata = req.Metadata
	}
	if req.PublishedAt != nil {
		record.PublishedAt = req.PublishedAt
	}
	record.UpdatedAt = s.now()

	updated, err := s.repo.UpdateDocument(ctx, record)
	if err != nil {
		return nil, err
	}

	if updated.Slug != previousSlug {
		if err := s.retireSlug(ctx, updated.Kind, "", previousSlug, updated.Slug, updated.ID); err != nil {
			return nil, err
		}
	}

	s.log.Info("document updated", "id", updated.ID.String(), "slug", updated.Slug)
	return updated, nil
}

// retireSlug records the outgoing slug as an alias and clears any stale
// aliases that would shadow the incoming one.
func (s *service) retireSlug(ctx context.Context, kind Kind, locale, oldSlug, newSlug string, documentID uuid.UUID) error {
	if oldSlug != "" {
		if err := s.repo.RecordAlias(ctx, &SlugAlias{
			ID:         s.id(),
			DocumentID: documentID,
			Kind:       kind,
			Locale:     locale,
			Slug:       oldSlug,
			CreatedAt:  s.now(),
		}); err != nil {
			return err
		}
	}
	return s.repo.PruneAliases(ctx, kind, locale, newSlug)
}

func (s *service) Delete(ctx context.Context, req DeleteDocumentRequest) error {
	if req.ID == uuid.Nil {
		return ErrDocumentIDRequired
	}
	if err := s.repo.DeleteDocument(ctx, req.ID); err != nil {
		return err
	}
	s.log.Info("document deleted", "id", req.ID.String())
	return nil
}

func (s *service) UpsertTranslation(ctx context.Context, req UpsertTranslationRequest) (*Translation, error) {
	if req.DocumentID == uuid.Nil {
		return nil, ErrDocumentIDRequired
	}

	record, err := s.repo.LoadDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	translation, err := s.buildTranslation(ctx, record, req.Input, req.AutoDisambiguate)
	if err != nil {
		return nil, err
	}

	// The outgoing slug must be captured before the write or the alias row
	// can never be recorded, so a failed read aborts the upsert.
	existing, err := s.repo.LoadTranslations(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	previousSlug := ""
	if current, ok := existing[translation.Locale]; ok {
		previousSlug = current.Slug
	}

	stored, err := s.repo.UpsertTranslation(ctx, translation)
	if err != nil {
		return nil, err
	}

	if previousSlug != "" && previousSlug != stored.Slug {
		if err := s.retireSlug(ctx, record.Kind, stored.Locale, previousSlug, stored.Slug, record.ID); err != nil {
			return nil, err
		}
	}

	s.log.Info("translation upserted", "document_id", record.ID.String(), "locale", stored.Locale, "slug", stored.Slug)
	return stored, nil
}

func (s *service) DeleteTranslation(ctx context.Context, req DeleteTranslationRequest) error {
	if req.DocumentID == uuid.Nil {
		return ErrDocumentIDRequired
	}
	locale := strings.ToLower(strings.TrimSpace(req.Locale))
	if locale == "" {
		return ErrLocaleRequired
	}
	if err := s.repo.DeleteTranslation(ctx, req.DocumentID, locale); err != nil {
		if IsNotFound(err) {
			return ErrTranslationNotFound
		}
		return err
	}
	s.log.Info("translation deleted", "document_id", req.DocumentID.String(), "locale", locale)
	return nil
}

// buildTranslation validates and normalizes one translation input against
// its owning document.
func (s *service) buildTranslation(ctx context.Context, record *Document, input TranslationInput, autoDisambiguate bool) (*Translation, error) {
	locale := strings.ToLower(strings.TrimSpace(input.Locale))
	if locale == "" {
		return nil, ErrLocaleRequired
	}
	if locale == record.BaseLocale {
		return nil, ErrTranslationIsBase
	}

	if err := validateSEOMetadata(input.Metadata); err != nil {
		return nil, err
	}

	slugValue := ""
	if strings.TrimSpace(input.Slug) != "" || strings.TrimSpace(input.Title) != "" {
		derived, err := s.slugFor(input.Slug, input.Title, locale)
		if err != nil {
			return nil, err
		}
		derived, err = s.freeTranslationSlug(ctx, record.Kind, locale, derived, record.ID, autoDisambiguate)
		if err != nil {
			return nil, err
		}
		slugValue = derived
	}

	now := s.now()
	return &Translation{
		ID:             s.id(),
		DocumentID:     record.ID,
		Locale:         locale,
		Title:          strings.TrimSpace(input.Title),
		Slug:           slugValue,
		Excerpt:        input.Excerpt,
		Body:           input.Body,
		SEOTitle:       input.SEOTitle,
		SEODescription: input.SEODescription,
		Metadata:       input.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// slugFor resolves the slug to store: manual input is normalized or checked
// per the locale's pipeline, empty input derives from the title.
func (s *service) slugFor(raw, title, locale string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		derived := slugpkg.Generate(title, locale)
		if derived == "" {
			return "", ErrSlugInvalid
		}
		return derived, nil
	}

	if slugpkg.ModeForLocale(locale) == slugpkg.ModeTransliterate {
		if IsValidSlug(raw) {
			return raw, nil
		}
		normalized, err := NormalizeSlug(raw)
		if err != nil || normalized == "" {
			return "", ErrSlugInvalid
		}
		return normalized, nil
	}

	if !slugpkg.IsCanonical(raw, locale) {
		return "", ErrSlugInvalid
	}
	return raw, nil
}

// freeBaseSlug enforces base-slug uniqueness per kind, optionally suffixing.
func (s *service) freeBaseSlug(ctx context.Context, kind Kind, locale, candidate string, selfID uuid.UUID, autoDisambiguate bool) (string, error) {
	taken := func(ctx context.Context, value string) (bool, error) {
		existing, err := s.repo.FindByBaseSlug(ctx, kind, value)
		if err != nil {
			if IsNotFound(err) {
				return false, nil
			}
			return false, err
		}
		return existing.ID != selfID, nil
	}
	return s.freeSlug(ctx, kind, locale, candidate, autoDisambiguate, taken)
}

// freeTranslationSlug enforces translation-slug uniqueness per (kind, locale).
func (s *service) freeTranslationSlug(ctx context.Context, kind Kind, locale, candidate string, selfDocumentID uuid.UUID, autoDisambiguate bool) (string, error) {
	taken := func(ctx context.Context, value string) (bool, error) {
		existing, _, err := s.repo.FindByTranslationSlug(ctx, kind, locale, value)
		if err != nil {
			if IsNotFound(err) {
				return false, nil
			}
			return false, err
		}
		return existing.ID != selfDocumentID, nil
	}
	return s.freeSlug(ctx, kind, locale, candidate, autoDisambiguate, taken)
}

func (s *service) freeSlug(ctx context.Context, kind Kind, locale, candidate string, autoDisambiguate bool, taken func(context.Context, string) (bool, error)) (string, error) {
	inUse, err := taken(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !inUse {
		return candidate, nil
	}
	if !autoDisambiguate {
		return "", &SlugExistsError{Kind: kind, Locale: locale, Slug: candidate}
	}

	for i := 2; i <= maxSlugSuffix; i++ {
		suffixed := fmt.Sprintf("%s-%d", candidate, i)
		inUse, err := taken(ctx, suffixed)
		if err != nil {
			return "", err
		}
		if !inUse {
			return suffixed, nil
		}
	}
	return "", ErrSlugDisambiguationFull
}

func validateSEOMetadata(metadata map[string]any) error {
	if len(metadata) == 0 {
		return nil
	}
	if err := seoMetadataSchema.Validate(map[string]any(metadata)); err != nil {
		issues := []string{}
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			for _, cause := range ve.BasicOutput().Errors {
				if cause.Error != "" {
					issues = append(issues, fmt.Sprintf("%s: %s", cause.InstanceLocation, cause.Error))
				}
			}
		}
		return &MetadataValidationError{Issues: issues, Cause: err}
	}
	return nil
}
