// Package editor carries the interactive editing state that pairs a title
// input with its slug input.
package editor

import (
	"strings"

	"github.com/goliatone/go-canonical/slug"
)

// SlugBinding mirrors a slug field off a title field until the editor takes
// manual control of the slug, after which title changes never touch it again.
//
// The binding is scoped to a single editing session. It must not be shared
// between sessions or goroutines; two editors working on the same document
// each hold their own binding.
type SlugBinding struct {
	locale string
	value  string
	locked bool
}

// NewSlugBinding seeds the binding from the form's initial field values.
//
// The binding starts in the automatic state only when the stored slug is
// empty or is exactly what the generator would produce for the stored title.
// Anything else is a custom slug an editor chose earlier, and reopening the
// form must not clobber it.
func NewSlugBinding(locale, initialTitle, initialSlug string) *SlugBinding {
	b := &SlugBinding{
		locale: strings.TrimSpace(locale),
		value:  initialSlug,
	}

	derived := slug.Generate(initialTitle, b.locale)
	if initialSlug != "" && initialSlug != derived {
		b.locked = true
		return b
	}
	if b.value == "" {
		b.value = derived
	}
	return b
}

// OnTitleChange regenerates the slug while the binding is automatic. Once
// locked, title edits are ignored.
func (b *SlugBinding) OnTitleChange(title string) {
	if b.locked {
		return
	}
	b.value = slug.Generate(title, b.locale)
}

// OnSlugChange records a direct edit of the slug field and locks the binding
// for the rest of the session.
func (b *SlugBinding) OnSlugChange(value string) {
	b.value = value
	b.locked = true
}

// Regenerate re-derives the slug from the given title exactly once without
// changing the lock state. Backs the explicit "regenerate" action in the
// editing UI.
func (b *SlugBinding) Regenerate(title string) {
	b.value = slug.Generate(title, b.locale)
}

// CurrentSlug returns the slug field's current value.
func (b *SlugBinding) CurrentSlug() string {
	return b.value
}

// Locked reports whether the editor has taken manual control of the slug.
func (b *SlugBinding) Locked() bool {
	return b.locked
}
