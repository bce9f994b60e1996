package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-canonical/document"
	"github.com/goliatone/go-canonical/feed"
	"github.com/goliatone/go-canonical/internal/logging"
	"github.com/goliatone/go-canonical/pkg/interfaces"
	"github.com/goliatone/go-canonical/resolver"
)

type viewPayload struct {
	Locale         string  `json:"locale"`
	Title          string  `json:"title"`
	Slug           string  `json:"slug"`
	Excerpt        *string `json:"excerpt,omitempty"`
	Body           string  `json:"body"`
	SEOTitle       *string `json:"seo_title,omitempty"`
	SEODescription *string `json:"seo_description,omitempty"`
	IsFallback     bool    `json:"is_fallback"`
}

type resolvePayload struct {
	Kind          string      `json:"kind"`
	CanonicalSlug string      `json:"canonical_slug"`
	View          viewPayload `json:"view"`
}

type feedItemPayload struct {
	ID          uuid.UUID   `json:"id"`
	Kind        string      `json:"kind"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
	View        viewPayload `json:"view"`
}

type feedPayload struct {
	Items      []feedItemPayload `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
	HasMore    bool              `json:"has_more"`
}

// PublicAPIOption configures the public API.
type PublicAPIOption func(*PublicAPI)

// WithLogger attaches a logger for request-level diagnostics.
func WithLogger(logger interfaces.Logger) PublicAPIOption {
	return func(api *PublicAPI) {
		if logger != nil {
			api.log = logger
		}
	}
}

// PublicAPI serves the public content routes: canonical document resolution
// and the paged feed. Storage failures surface as opaque 500s; everything
// else maps to 200, 301 or 404 per the resolution outcome.
type PublicAPI struct {
	resolver *resolver.Service
	feed     *feed.Service
	log      interfaces.Logger
}

// NewPublicAPI constructs the public boundary over the resolver and feed
// services.
func NewPublicAPI(resolverService *resolver.Service, feedService *feed.Service, opts ...PublicAPIOption) *PublicAPI {
	api := &PublicAPI{
		resolver: resolverService,
		feed:     feedService,
		log:      logging.NoOp(),
	}
	for _, opt := range opts {
		opt(api)
	}
	return api
}

// Register mounts the public routes under base.
func (api *PublicAPI) Register(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	mux.HandleFunc("GET "+joinPath(base, "{locale}/{kind}"), api.handleFeed)
	mux.HandleFunc("GET "+joinPath(base, "{locale}/{kind}/{slug}"), api.handleResolve)
}

// Handler returns a standalone handler with the routes mounted at the root.
func (api *PublicAPI) Handler() http.Handler {
	mux := http.NewServeMux()
	api.Register(mux, "")
	return mux
}

func (api *PublicAPI) handleResolve(w http.ResponseWriter, r *http.Request) {
	locale := r.PathValue("locale")
	kindPath := r.PathValue("kind")
	slug := r.PathValue("slug")

	kind, ok := document.KindFromPath(kindPath)
	if !ok {
		writeNotFound(w)
		return
	}

	res, err := api.resolver.ResolveRequest(r.Context(), kind, locale, slug)
	if err != nil {
		api.log.Error("resolution failed", "error", err, "kind", kindPath, "locale", locale)
		writeStorageError(w)
		return
	}

	switch res.Outcome {
	case resolver.OutcomeRedirect:
		w.Header().Set("Location", res.Location)
		status := http.StatusFound
		if res.Permanent {
			status = http.StatusMovedPermanently
		}
		writeJSON(w, status, nil)
	case resolver.OutcomeFound:
		canonicalPath := "/" + res.View.Locale + "/" + kind.Path() + "/" + url.PathEscape(res.CanonicalSlug)
		w.Header().Set("Link", "<"+canonicalPath+`>; rel="canonical"`)
		writeJSON(w, http.StatusOK, resolvePayload{
			Kind:          string(kind),
			CanonicalSlug: res.CanonicalSlug,
			View:          toViewPayload(res.View),
		})
	default:
		writeNotFound(w)
	}
}

func (api *PublicAPI) handleFeed(w http.ResponseWriter, r *http.Request) {
	locale := r.PathValue("locale")
	kindPath := r.PathValue("kind")

	kind, ok := document.KindFromPath(kindPath)
	if !ok {
		writeNotFound(w)
		return
	}

	req := feed.Request{
		Kind:   kind,
		Locale: locale,
		Cursor: r.URL.Query().Get("cursor"),
	}

	query := r.URL.Query()
	if raw := query.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "page_size must be a positive integer"})
			return
		}
		req.PageSize = size
	}
	if raw := query.Get("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "category must be a uuid"})
			return
		}
		req.Filters.CategoryID = &id
	}
	if raw := query.Get("author"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "author must be a uuid"})
			return
		}
		req.Filters.AuthorID = &id
	}
	req.Filters.Search = query.Get("q")
	if raw := query.Get("from"); raw != "" {
		from, err := parseTimeParam(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "from must be an RFC 3339 timestamp or date"})
			return
		}
		req.Filters.PublishedFrom = &from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := parseTimeParam(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "to must be an RFC 3339 timestamp or date"})
			return
		}
		req.Filters.PublishedTo = &to
	}

	page, err := api.feed.List(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrCursorInvalid):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "cursor is not valid for this listing"})
		case errors.Is(err, document.ErrKindInvalid):
			writeNotFound(w)
		default:
			api.log.Error("feed listing failed", "error", err, "kind", kindPath, "locale", locale)
			writeStorageError(w)
		}
		return
	}

	payload := feedPayload{
		Items:      make([]feedItemPayload, 0, len(page.Items)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	for _, item := range page.Items {
		payload.Items = append(payload.Items, feedItemPayload{
			ID:          item.ID,
			Kind:        string(item.Kind),
			PublishedAt: item.PublishedAt,
			View:        toViewPayload(item.ResolvedView),
		})
	}
	writeJSON(w, http.StatusOK, payload)
}

func toViewPayload(view resolver.ResolvedView) viewPayload {
	return viewPayload{
		Locale:         view.Locale,
		Title:          view.Title,
		Slug:           view.Slug,
		Excerpt:        view.Excerpt,
		Body:           view.Body,
		SEOTitle:       view.SEOTitle,
		SEODescription: view.SEODescription,
		IsFallback:     view.IsFallback,
	}
}

func parseTimeParam(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}
