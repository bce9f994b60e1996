package document

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Repository implementation for scaffolding and
// tests.
type MemoryStore struct {
	mu           sync.RWMutex
	documents    map[uuid.UUID]*Document
	translations map[uuid.UUID]map[string]*Translation
	aliases      []*SlugAlias
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents:    make(map[uuid.UUID]*Document),
		translations: make(map[uuid.UUID]map[string]*Translation),
	}
}

// Put inserts or replaces a document, including any attached translations.
func (m *MemoryStore) Put(record *Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneDocument(record)
	attached := copied.Translations
	copied.Translations = nil
	m.documents[copied.ID] = copied
	for _, translation := range attached {
		m.putTranslationLocked(translation)
	}
}

// PutTranslation inserts or replaces a single translation row.
func (m *MemoryStore) PutTranslation(record *Translation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putTranslationLocked(cloneTranslation(record))
}

func (m *MemoryStore) putTranslationLocked(record *Translation) {
	if record == nil {
		return
	}
	record.Locale = strings.ToLower(record.Locale)
	byLocale, ok := m.translations[record.DocumentID]
	if !ok {
		byLocale = make(map[string]*Translation)
		m.translations[record.DocumentID] = byLocale
	}
	byLocale[record.Locale] = record
}

// Documents returns a snapshot of every stored document. The feed's memory
// lister filters and sorts over this snapshot.
func (m *MemoryStore) Documents() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Document, 0, len(m.documents))
	for _, record := range m.documents {
		out = append(out, cloneDocument(record))
	}
	return out
}

func (m *MemoryStore) LoadDocument(_ context.Context, id uuid.UUID) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.documents[id]
	if !ok {
		return nil, &NotFoundError{Resource: "document", Key: id.String()}
	}
	return cloneDocument(record), nil
}

func (m *MemoryStore) LoadTranslations(_ context.Context, id uuid.UUID) (map[string]*Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*Translation, len(m.translations[id]))
	for locale, record := range m.translations[id] {
		out[locale] = cloneTranslation(record)
	}
	return out, nil
}

func (m *MemoryStore) FindByBaseSlug(_ context.Context, kind Kind, slug string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.documents {
		if record.Kind == kind && record.Slug == slug && record.DeletedAt == nil {
			return cloneDocument(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "document", Key: slug}
}

func (m *MemoryStore) FindByTranslationSlug(_ context.Context, kind Kind, locale, slug string) (*Document, *Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	locale = strings.ToLower(locale)
	for documentID, byLocale := range m.translations {
		translation, ok := byLocale[locale]
		if !ok || translation.Slug != slug {
			continue
		}
		record, found := m.documents[documentID]
		if !found || record.Kind != kind || record.DeletedAt != nil {
			continue
		}
		return cloneDocument(record), cloneTranslation(translation), nil
	}
	return nil, nil, &NotFoundError{Resource: "translation", Key: slug}
}

func (m *MemoryStore) FindAlias(_ context.Context, kind Kind, locale, slug string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	locale = strings.ToLower(locale)
	var match *SlugAlias
	for _, alias := range m.aliases {
		if alias.Kind != kind || alias.Slug != slug {
			continue
		}
		if alias.Locale == locale {
			match = alias
			break
		}
		if alias.Locale == "" && match == nil {
			match = alias
		}
	}
	if match == nil {
		return nil, &NotFoundError{Resource: "slug alias", Key: slug}
	}
	record, ok := m.documents[match.DocumentID]
	if !ok || record.DeletedAt != nil {
		return nil, &NotFoundError{Resource: "slug alias", Key: slug}
	}
	return cloneDocument(record), nil
}

func (m *MemoryStore) RecordAlias(_ context.Context, record *SlugAlias) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *record
	copied.Locale = strings.ToLower(copied.Locale)
	m.aliases = append(m.aliases, &copied)
	return nil
}

func (m *MemoryStore) PruneAliases(_ context.Context, kind Kind, locale, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	locale = strings.ToLower(locale)
	kept := m.aliases[:0]
	for _, alias := range m.aliases {
		if alias.Kind == kind && alias.Slug == slug && alias.Locale == locale {
			continue
		}
		kept = append(kept, alias)
	}
	m.aliases = kept
	return nil
}

func (m *MemoryStore) CreateDocument(_ context.Context, record *Document) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneDocument(record)
	attached := copied.Translations
	copied.Translations = nil
	m.documents[copied.ID] = copied
	for _, translation := range attached {
		translation.DocumentID = copied.ID
		m.putTranslationLocked(translation)
	}
	return cloneDocument(record), nil
}

func (m *MemoryStore) UpdateDocument(_ context.Context, record *Document) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "document", Key: record.ID.String()}
	}
	copied := cloneDocument(record)
	copied.Translations = nil
	m.documents[copied.ID] = copied
	return cloneDocument(record), nil
}

func (m *MemoryStore) DeleteDocument(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[id]; !ok {
		return &NotFoundError{Resource: "document", Key: id.String()}
	}
	delete(m.documents, id)
	delete(m.translations, id)
	kept := m.aliases[:0]
	for _, alias := range m.aliases {
		if alias.DocumentID == id {
			continue
		}
		kept = append(kept, alias)
	}
	m.aliases = kept
	return nil
}

func (m *MemoryStore) UpsertTranslation(_ context.Context, record *Translation) (*Translation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[record.DocumentID]; !ok {
		return nil, &NotFoundError{Resource: "document", Key: record.DocumentID.String()}
	}
	copied := cloneTranslation(record)
	if existing, ok := m.translations[record.DocumentID][strings.ToLower(record.Locale)]; ok {
		copied.ID = existing.ID
		copied.CreatedAt = existing.CreatedAt
	}
	m.putTranslationLocked(copied)
	return cloneTranslation(copied), nil
}

func (m *MemoryStore) DeleteTranslation(_ context.Context, documentID uuid.UUID, locale string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	locale = strings.ToLower(locale)
	byLocale, ok := m.translations[documentID]
	if !ok {
		return &NotFoundError{Resource: "translation", Key: locale}
	}
	if _, ok := byLocale[locale]; !ok {
		return &NotFoundError{Resource: "translation", Key: locale}
	}
	delete(byLocale, locale)
	return nil
}

func cloneDocument(src *Document) *Document {
	if src == nil {
		return nil
	}

	copied := *src
	copied.Metadata = cloneMap(src.Metadata)
	if len(src.Translations) > 0 {
		copied.Translations = make([]*Translation, 0, len(src.Translations))
		for _, translation := range src.Translations {
			if translation == nil {
				continue
			}
			copied.Translations = append(copied.Translations, cloneTranslation(translation))
		}
	}
	return &copied
}

func cloneTranslation(src *Translation) *Translation {
	if src == nil {
		return nil
	}
	copied := *src
	copied.Metadata = cloneMap(src.Metadata)
	return &copied
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	copied := make(map[string]any, len(src))
	for key, value := range src {
		copied[key] = value
	}
	return copied
}
