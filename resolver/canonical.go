package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-canonical/document"
	"github.com/goliatone/go-canonical/internal/logging"
	"github.com/goliatone/go-canonical/pkg/interfaces"
)

// Outcome classifies what a resolution request produced.
type Outcome string

const (
	// OutcomeFound means the requested slug is canonical for the locale and
	// the view should be rendered.
	OutcomeFound Outcome = "found"
	// OutcomeRedirect means the document exists but is served under a
	// different slug for the requested locale.
	OutcomeRedirect Outcome = "redirect"
	// OutcomeNotFound means no document answers to the slug in this
	// (kind, locale) namespace.
	OutcomeNotFound Outcome = "not_found"
)

// Resolution is the answer to a (kind, locale, slug) request.
type Resolution struct {
	Outcome       Outcome
	Document      *document.Document
	View          ResolvedView
	CanonicalSlug string

	// Location is the redirect target, only set for OutcomeRedirect.
	Location string
	// Permanent marks the redirect as intentional slug retirement rather
	// than a temporary move.
	Permanent bool
}

// LocationBuilder turns a canonical (locale, kind, slug) triple into the URL
// a redirect should point at.
type LocationBuilder interface {
	Location(locale string, kind document.Kind, slug string) (string, error)
}

// PathLocations builds relative locations of the form
// /{locale}/{kind-path}/{slug}, percent-encoding the slug segment.
type PathLocations struct{}

func (PathLocations) Location(locale string, kind document.Kind, slug string) (string, error) {
	return "/" + locale + "/" + kind.Path() + "/" + url.PathEscape(slug), nil
}

const (
	publicGroup   = "public"
	documentRoute = "document"
)

// URLKitLocations builds absolute locations through a urlkit route group, so
// deployments can anchor redirects to a public base URL.
type URLKitLocations struct {
	group *urlkit.Group
}

// NewURLKitLocations configures a route manager with the public document
// route rooted at baseURL.
func NewURLKitLocations(baseURL string) *URLKitLocations {
	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    publicGroup,
				BaseURL: baseURL,
				Paths: map[string]string{
					documentRoute: "/:locale/:kind/:slug",
				},
			},
		},
	})
	return &URLKitLocations{group: manager.Group(publicGroup)}
}

func (u *URLKitLocations) Location(locale string, kind document.Kind, slug string) (string, error) {
	return u.group.Builder(documentRoute).
		WithParam("locale", locale).
		WithParam("kind", kind.Path()).
		WithParam("slug", slug).
		Build()
}

// ServiceOption configures the canonical resolver.
type ServiceOption func(*Service)

// WithLocations overrides how redirect locations are built.
func WithLocations(builder LocationBuilder) ServiceOption {
	return func(s *Service) {
		if builder != nil {
			s.locations = builder
		}
	}
}

// WithLogger attaches a logger for resolution outcomes.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.log = logger
		}
	}
}

// Service resolves incoming (kind, locale, slug) requests against the store
// and decides between rendering, redirecting and 404. It holds no mutable
// state and is safe for concurrent use.
type Service struct {
	store     document.Store
	locations LocationBuilder
	log       interfaces.Logger
}

// NewService constructs a resolver over the given store.
func NewService(store document.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		locations: PathLocations{},
		log:       logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveRequest answers a public request. The raw slug may be
// percent-encoded; it is decoded exactly once before any lookup, and a slug
// that fails to decode is treated as absent rather than as an error. Only
// storage failures return a non-nil error.
func (s *Service) ResolveRequest(ctx context.Context, kind document.Kind, locale, rawSlug string) (Resolution, error) {
	notFound := Resolution{Outcome: OutcomeNotFound}

	if !kind.Valid() {
		return notFound, nil
	}
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		return notFound, nil
	}

	slug, err := url.PathUnescape(rawSlug)
	if err != nil {
		s.log.Debug("slug failed percent-decoding", "kind", string(kind), "locale", locale, "raw", rawSlug)
		return notFound, nil
	}

	doc, err := s.lookup(ctx, kind, locale, slug)
	if err != nil {
		if document.IsNotFound(err) {
			return notFound, nil
		}
		return Resolution{}, err
	}

	translations, err := s.store.LoadTranslations(ctx, doc.ID)
	if err != nil {
		return Resolution{}, err
	}

	view := Resolve(doc, translations, locale)
	canonical := CanonicalSlug(doc, translations, locale)

	if slug != canonical {
		location, err := s.locations.Location(locale, kind, canonical)
		if err != nil {
			return Resolution{}, err
		}
		s.log.Debug("redirecting to canonical slug",
			"kind", string(kind), "locale", locale, "requested", slug, "canonical", canonical)
		return Resolution{
			Outcome:       OutcomeRedirect,
			Document:      doc,
			View:          view,
			CanonicalSlug: canonical,
			Location:      location,
			Permanent:     true,
		}, nil
	}

	return Resolution{
		Outcome:       OutcomeFound,
		Document:      doc,
		View:          view,
		CanonicalSlug: canonical,
	}, nil
}

// lookup tries the live base slugs, then the locale's translation slugs,
// then retired slugs kept as aliases. Live slugs shadow aliases so a reused
// slug never redirects away from its current document.
func (s *Service) lookup(ctx context.Context, kind document.Kind, locale, slug string) (*document.Document, error) {
	doc, err := s.store.FindByBaseSlug(ctx, kind, slug)
	if err == nil {
		return doc, nil
	}
	if !document.IsNotFound(err) {
		return nil, err
	}

	doc, _, err = s.store.FindByTranslationSlug(ctx, kind, locale, slug)
	if err == nil {
		return doc, nil
	}
	if !document.IsNotFound(err) {
		return nil, err
	}

	return s.store.FindAlias(ctx, kind, locale, slug)
}
