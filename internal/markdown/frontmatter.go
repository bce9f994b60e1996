package markdown

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/language"
)

// FrontMatter is the metadata block at the top of an importable markdown
// file. Unknown keys collect into Metadata and travel with the translation.
type FrontMatter struct {
	Title          string         `yaml:"title"`
	Slug           string         `yaml:"slug"`
	Kind           string         `yaml:"kind"`
	Locale         string         `yaml:"locale"`
	Excerpt        string         `yaml:"excerpt"`
	Author         string         `yaml:"author"`
	Published      *time.Time     `yaml:"published"`
	Draft          bool           `yaml:"draft"`
	SEOTitle       string         `yaml:"seo_title"`
	SEODescription string         `yaml:"seo_description"`
	Metadata       map[string]any `yaml:",inline"`
}

// SourceFile is one parsed markdown file: front matter plus the raw body
// with the delimiters stripped.
type SourceFile struct {
	Path   string
	Stem   string
	Locale string
	Matter FrontMatter
	Body   []byte
}

// ParseFile extracts front matter and body from raw file contents. The
// locale comes from the front matter when set, otherwise from the filename
// suffix (article.ru.md), otherwise it is left empty for the caller's
// default.
func ParseFile(filePath string, source []byte) (*SourceFile, error) {
	var matter FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &matter)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter %s: %w", filePath, err)
	}

	stem, fileLocale := splitLocaleSuffix(path.Base(filePath))
	locale := strings.ToLower(strings.TrimSpace(matter.Locale))
	if locale == "" {
		locale = fileLocale
	}

	return &SourceFile{
		Path:   filePath,
		Stem:   stem,
		Locale: locale,
		Matter: matter,
		Body:   body,
	}, nil
}

// splitLocaleSuffix splits "article.ru.md" into ("article", "ru"). A name
// without a recognizable locale segment keeps its full stem.
func splitLocaleSuffix(name string) (string, string) {
	stem := strings.TrimSuffix(name, path.Ext(name))
	idx := strings.LastIndex(stem, ".")
	if idx <= 0 {
		return stem, ""
	}

	candidate := stem[idx+1:]
	if len(candidate) < 2 || len(candidate) > 8 {
		return stem, ""
	}
	if _, err := language.Parse(candidate); err != nil {
		return stem, ""
	}
	return stem[:idx], strings.ToLower(candidate)
}
