package feed

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-canonical/document"
	"github.com/goliatone/go-canonical/internal/identity"
)

// ErrCursorInvalid marks a cursor that cannot be honored: malformed, minted
// under different filters, or pointing at a document that no longer exists.
// Callers recover by restarting from the first page.
var ErrCursorInvalid = errors.New("feed: cursor is not valid for this listing")

// cursorToken is the decoded shape of the opaque cursor. It binds the
// last-seen document to the filter signature the page was produced under, so
// a cursor cannot be replayed against a different filter set.
type cursorToken struct {
	LastID    uuid.UUID `json:"last_id"`
	Signature string    `json:"sig"`
}

func encodeCursor(lastID uuid.UUID, signature string) string {
	raw, _ := json.Marshal(cursorToken{LastID: lastID, Signature: signature})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(value string) (cursorToken, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return cursorToken{}, ErrCursorInvalid
	}
	var token cursorToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return cursorToken{}, ErrCursorInvalid
	}
	if token.LastID == uuid.Nil || token.Signature == "" {
		return cursorToken{}, ErrCursorInvalid
	}
	return token, nil
}

// filterSignature derives a stable fingerprint for one (kind, filters)
// combination. Two listings share a signature exactly when a cursor from one
// is replayable against the other.
func filterSignature(kind document.Kind, filters Filters) string {
	parts := []string{string(kind)}

	if filters.CategoryID != nil {
		parts = append(parts, "category:"+filters.CategoryID.String())
	}
	if filters.AuthorID != nil {
		parts = append(parts, "author:"+filters.AuthorID.String())
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		parts = append(parts, "q:"+strings.ToLower(search))
	}
	if filters.PublishedFrom != nil {
		parts = append(parts, "from:"+filters.PublishedFrom.UTC().Format(time.RFC3339))
	}
	if filters.PublishedTo != nil {
		parts = append(parts, "to:"+filters.PublishedTo.UTC().Format(time.RFC3339))
	}

	return identity.Signature(parts...)
}
