package feed

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-canonical/document"
	"github.com/goliatone/go-canonical/internal/logging"
	"github.com/goliatone/go-canonical/pkg/interfaces"
	"github.com/goliatone/go-canonical/resolver"
)

const (
	// DefaultPageSize applies when a request does not set a page size.
	DefaultPageSize = 20
	// MaxPageSize caps caller-supplied page sizes.
	MaxPageSize = 100
)

// Filters narrow a feed listing. All set filters apply conjunctively.
type Filters struct {
	CategoryID *uuid.UUID
	AuthorID   *uuid.UUID
	// Search matches title, excerpt and body case-insensitively against the
	// base-locale fields.
	Search        string
	PublishedFrom *time.Time
	PublishedTo   *time.Time
}

// Keyset anchors a page: listing resumes strictly after this position in the
// (published_at DESC, id DESC) total order.
type Keyset struct {
	PublishedAt time.Time
	ID          uuid.UUID
}

// Lister fetches the filtered, ordered document rows a page is built from.
// Implementations return at most limit rows, published documents only.
type Lister interface {
	List(ctx context.Context, kind document.Kind, filters Filters, after *Keyset, limit int) ([]*document.Document, error)
}

// Item is one feed entry: the locale-resolved view plus the identity fields
// a caller needs to link or paginate.
type Item struct {
	ID          uuid.UUID
	Kind        document.Kind
	PublishedAt *time.Time

	resolver.ResolvedView
}

// Page is one slice of a feed listing. HasMore comes from peeking one row
// past the requested page size, so an exactly-full final page reports false
// instead of handing out a cursor to an empty page.
type Page struct {
	Items      []Item
	NextCursor string
	HasMore    bool
}

// Request describes one feed page fetch.
type Request struct {
	Kind     document.Kind
	Locale   string
	Filters  Filters
	PageSize int
	Cursor   string
}

// ServiceOption configures the feed service.
type ServiceOption func(*Service)

// WithLogger attaches a logger for listing diagnostics.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.log = logger
		}
	}
}

// Service assembles feed pages: cursor handling, keyset pagination and
// per-row locale resolution. It is read-only and safe for concurrent use.
type Service struct {
	store  document.Store
	lister Lister
	log    interfaces.Logger
}

// NewService constructs a feed service over the given store and lister.
func NewService(store document.Store, lister Lister, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		lister: lister,
		log:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of the feed. Every row is resolved against the
// listing's locale, so a mixed-language feed stays locale-consistent even
// when single rows fall back to their base locale.
func (s *Service) List(ctx context.Context, req Request) (Page, error) {
	if !req.Kind.Valid() {
		return Page{}, document.ErrKindInvalid
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	signature := filterSignature(req.Kind, req.Filters)

	var after *Keyset
	if req.Cursor != "" {
		token, err := decodeCursor(req.Cursor)
		if err != nil {
			return Page{}, err
		}
		if token.Signature != signature {
			return Page{}, ErrCursorInvalid
		}
		anchor, err := s.store.LoadDocument(ctx, token.LastID)
		if err != nil {
			if document.IsNotFound(err) {
				return Page{}, ErrCursorInvalid
			}
			return Page{}, err
		}
		if anchor.PublishedAt == nil {
			return Page{}, ErrCursorInvalid
		}
		after = &Keyset{PublishedAt: *anchor.PublishedAt, ID: anchor.ID}
	}

	rows, err := s.lister.List(ctx, req.Kind, req.Filters, after, pageSize+1)
	if err != nil {
		return Page{}, err
	}

	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}

	page := Page{
		Items:   make([]Item, 0, len(rows)),
		HasMore: hasMore,
	}
	for _, row := range rows {
		translations, err := s.store.LoadTranslations(ctx, row.ID)
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, Item{
			ID:           row.ID,
			Kind:         row.Kind,
			PublishedAt:  row.PublishedAt,
			ResolvedView: resolver.Resolve(row, translations, req.Locale),
		})
	}

	if hasMore && len(page.Items) > 0 {
		page.NextCursor = encodeCursor(page.Items[len(page.Items)-1].ID, signature)
	}

	s.log.Debug("feed page assembled",
		"kind", string(req.Kind), "locale", req.Locale, "items", len(page.Items), "has_more", page.HasMore)
	return page, nil
}
