package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/uuid"

	canonical "github.com/goliatone/go-canonical"
	"github.com/goliatone/go-canonical/internal/commands/markdowncmd"
)

func main() {
	var (
		dir              = flag.String("dir", "content", "Path to the markdown content root")
		driver           = flag.String("driver", "sqlite", "Storage driver (sqlite or postgres)")
		dsn              = flag.String("dsn", "file:canonical.db", "Storage connection string")
		author           = flag.String("author", "", "Author id recorded on documents without one in frontmatter")
		defaultLocale    = flag.String("default-locale", "en", "Locale assumed for files that declare none")
		logLevel         = flag.String("log-level", "info", "Log level")
		dryRun           = flag.Bool("dry-run", false, "Parse and validate without persisting")
		migrate          = flag.Bool("migrate", true, "Apply schema migrations before importing")
		autoDisambiguate = flag.Bool("auto-disambiguate", false, "Suffix colliding slugs instead of failing")
	)

	flag.Parse()

	cfg := canonical.DefaultConfig()
	cfg.Storage.Driver = *driver
	cfg.Storage.DSN = *dsn
	cfg.Logging.Level = *logLevel
	cfg.DefaultLocale = *defaultLocale

	module, err := canonical.New(cfg)
	if err != nil {
		log.Fatalf("bootstrap module: %v", err)
	}
	defer module.Close()

	ctx := context.Background()
	if *migrate {
		if err := module.Migrate(ctx); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
	}

	cmd := markdowncmd.ImportDirectoryCommand{
		Directory:        *dir,
		DefaultLocale:    *defaultLocale,
		DryRun:           *dryRun,
		AutoDisambiguate: *autoDisambiguate,
	}
	if *author != "" {
		authorID, err := uuid.Parse(*author)
		if err != nil {
			log.Fatalf("bad --author: %v", err)
		}
		cmd.AuthorID = authorID
	}

	handler := markdowncmd.NewImportDirectoryHandler(module.Importer(), module.Logger("canonical.importer"))
	if err := handler.Execute(ctx, cmd); err != nil {
		log.Fatalf("import: %v", err)
	}
}
