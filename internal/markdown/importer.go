package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-canonical/document"
	"github.com/goliatone/go-canonical/internal/logging"
	"github.com/goliatone/go-canonical/pkg/interfaces"
)

var (
	ErrServiceRequired = errors.New("markdown importer: document service is required")
	ErrKindMissing     = errors.New("markdown importer: frontmatter kind is required on the base file")
	ErrAuthorMissing   = errors.New("markdown importer: author must come from frontmatter or options")
	ErrBaseFileMissing = errors.New("markdown importer: no base-locale file in group")
)

// Options tune one import run.
type Options struct {
	// AuthorID applies to files whose front matter has no author.
	AuthorID uuid.UUID
	// DefaultLocale applies to files with no locale in front matter or
	// filename.
	DefaultLocale string
	// DryRun parses and validates without persisting anything.
	DryRun bool
	// AutoDisambiguate suffixes colliding slugs instead of failing the file
	// group.
	AutoDisambiguate bool
}

// Result summarizes an import run. Errors are per file group; one bad group
// does not abort the rest of the run.
type Result struct {
	Created []uuid.UUID
	Skipped []string
	Errors  []error
}

// ImporterConfig carries the importer's dependencies.
type ImporterConfig struct {
	Documents document.Service
	Store     document.Store
	Logger    interfaces.Logger
}

// Importer turns a directory of markdown files into documents and
// translations. Files group by filename stem: article.md is the base locale,
// article.ru.md the ru translation.
type Importer struct {
	documents document.Service
	store     document.Store
	renderer  *Renderer
	log       interfaces.Logger
}

// NewImporter builds an Importer from the supplied configuration.
func NewImporter(cfg ImporterConfig) *Importer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Importer{
		documents: cfg.Documents,
		store:     cfg.Store,
		renderer:  NewRenderer(),
		log:       logger,
	}
}

// ImportDirectory walks dir inside fsys and imports every markdown file
// group it finds.
func (i *Importer) ImportDirectory(ctx context.Context, fsys fs.FS, dir string, opts Options) (*Result, error) {
	if i.documents == nil {
		return nil, ErrServiceRequired
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = "en"
	}

	files, err := i.loadDirectory(fsys, dir)
	if err != nil {
		return nil, err
	}

	groups := map[string][]*SourceFile{}
	for _, file := range files {
		key := path.Dir(file.Path) + "/" + file.Stem
		groups[key] = append(groups[key], file)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := &Result{}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		created, skipped, err := i.importGroup(ctx, groups[key], opts)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if skipped != "" {
			result.Skipped = append(result.Skipped, skipped)
			continue
		}
		if created != uuid.Nil {
			result.Created = append(result.Created, created)
		}
	}

	i.log.Info("markdown import finished",
		"created", len(result.Created), "skipped", len(result.Skipped), "errors", len(result.Errors), "dry_run", opts.DryRun)
	return result, nil
}

func (i *Importer) loadDirectory(fsys fs.FS, dir string) ([]*SourceFile, error) {
	root := path.Clean(dir)
	if root == "" {
		root = "."
	}

	var files []*SourceFile
	err := fs.WalkDir(fsys, root, func(filePath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			return nil
		}
		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return fmt.Errorf("markdown importer read %s: %w", filePath, err)
		}
		file, err := ParseFile(filePath, data)
		if err != nil {
			return err
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// importGroup builds one document from a file group. The file without a
// locale suffix is the base; the rest become translations.
func (i *Importer) importGroup(ctx context.Context, group []*SourceFile, opts Options) (uuid.UUID, string, error) {
	var base *SourceFile
	translations := []*SourceFile{}
	for _, file := range group {
		if file.Locale == "" || file.Locale == strings.ToLower(opts.DefaultLocale) {
			if base == nil {
				base = file
				continue
			}
		}
		translations = append(translations, file)
	}
	if base == nil {
		return uuid.Nil, "", ErrBaseFileMissing
	}
	if base.Matter.Draft {
		return uuid.Nil, base.Path, nil
	}

	kind := document.Kind(strings.ToLower(strings.TrimSpace(base.Matter.Kind)))
	if kind == "" {
		return uuid.Nil, "", ErrKindMissing
	}

	author := opts.AuthorID
	if raw := strings.TrimSpace(base.Matter.Author); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, "", fmt.Errorf("markdown importer: bad author %q: %w", raw, err)
		}
		author = parsed
	}
	if author == uuid.Nil {
		return uuid.Nil, "", ErrAuthorMissing
	}

	baseLocale := base.Locale
	if baseLocale == "" {
		baseLocale = strings.ToLower(opts.DefaultLocale)
	}

	if i.store != nil && base.Matter.Slug != "" {
		if _, err := i.store.FindByBaseSlug(ctx, kind, base.Matter.Slug); err == nil {
			return uuid.Nil, base.Path, nil
		} else if !document.IsNotFound(err) {
			return uuid.Nil, "", err
		}
	}

	body, err := i.renderer.Render(base.Body)
	if err != nil {
		return uuid.Nil, "", err
	}

	req := document.CreateDocumentRequest{
		Kind:             kind,
		BaseLocale:       baseLocale,
		Title:            base.Matter.Title,
		Slug:             base.Matter.Slug,
		Body:             body,
		AuthorID:         author,
		Metadata:         base.Matter.Metadata,
		PublishedAt:      base.Matter.Published,
		AutoDisambiguate: opts.AutoDisambiguate,
	}
	if excerpt := strings.TrimSpace(base.Matter.Excerpt); excerpt != "" {
		req.Excerpt = &excerpt
	}

	for _, file := range translations {
		if file.Matter.Draft {
			continue
		}
		html, err := i.renderer.Render(file.Body)
		if err != nil {
			return uuid.Nil, "", err
		}
		input := document.TranslationInput{
			Locale: file.Locale,
			Title:  file.Matter.Title,
			Slug:   file.Matter.Slug,
			Body:   html,
		}
		if excerpt := strings.TrimSpace(file.Matter.Excerpt); excerpt != "" {
			input.Excerpt = &excerpt
		}
		if seoTitle := strings.TrimSpace(file.Matter.SEOTitle); seoTitle != "" {
			input.SEOTitle = &seoTitle
		}
		if seoDescription := strings.TrimSpace(file.Matter.SEODescription); seoDescription != "" {
			input.SEODescription = &seoDescription
		}
		req.Translations = append(req.Translations, input)
	}

	if opts.DryRun {
		return uuid.Nil, "", nil
	}

	created, err := i.documents.Create(ctx, req)
	if err != nil {
		return uuid.Nil, "", err
	}
	return created.ID, "", nil
}
