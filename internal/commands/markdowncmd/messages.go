package markdowncmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const importDirectoryMessageType = "canonical.markdown.import_directory"

// ImportDirectoryCommand triggers a filesystem walk for markdown documents
// under Directory and imports each file group as a document with
// translations.
type ImportDirectoryCommand struct {
	// Directory selects the filesystem path to load markdown files from.
	Directory string `json:"directory"`
	// AuthorID is recorded on documents whose front matter has no author.
	AuthorID uuid.UUID `json:"author_id,omitempty"`
	// DefaultLocale applies to files that declare no locale.
	DefaultLocale string `json:"default_locale,omitempty"`
	// DryRun parses and validates without persisting changes.
	DryRun bool `json:"dry_run,omitempty"`
	// AutoDisambiguate suffixes colliding slugs instead of failing.
	AutoDisambiguate bool `json:"auto_disambiguate,omitempty"`
}

// Type implements command.Message.
func (ImportDirectoryCommand) Type() string { return importDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd ImportDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("canonical.markdown.import_directory.directory_required", "directory is required")
			}
			return nil
		})),
	)
}
