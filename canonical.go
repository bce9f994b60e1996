// Package canonical wires the locale-aware content identity subsystem: slug
// generation, translation fallback, canonical request resolution, slug
// history redirects and the cursor-paged public feed.
package canonical

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-canonical/document"
	"github.com/goliatone/go-canonical/feed"
	canonicalhttp "github.com/goliatone/go-canonical/internal/http"
	"github.com/goliatone/go-canonical/internal/logging"
	"github.com/goliatone/go-canonical/internal/logging/gologger"
	"github.com/goliatone/go-canonical/internal/markdown"
	"github.com/goliatone/go-canonical/pkg/interfaces"
	"github.com/goliatone/go-canonical/resolver"
)

// DocumentService exports the write-side document contract for consumers of
// the canonical package.
type DocumentService = document.Service

// Module is the top level runtime façade: it owns the database handle and
// exposes the configured services.
type Module struct {
	cfg      Config
	db       *bun.DB
	logs     interfaces.LoggerProvider
	store    *document.BunStore
	docs     document.Service
	resolver *resolver.Service
	feed     *feed.Service
	api      *canonicalhttp.PublicAPI
	importer *markdown.Importer
}

// New constructs the module from configuration, opening the configured
// database and wiring every service.
func New(cfg Config) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := gologger.NewProvider(gologger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg.Storage)
	if err != nil {
		return nil, err
	}

	store := document.NewBunStore(db)
	docs := document.NewService(store,
		document.WithLogger(logging.DocumentLogger(provider)),
	)

	resolverOpts := []resolver.ServiceOption{
		resolver.WithLogger(logging.ResolverLogger(provider)),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		resolverOpts = append(resolverOpts, resolver.WithLocations(resolver.NewURLKitLocations(base)))
	}
	resolverService := resolver.NewService(store, resolverOpts...)

	feedService := feed.NewService(store, feed.NewBunLister(db),
		feed.WithLogger(logging.FeedLogger(provider)),
	)

	api := canonicalhttp.NewPublicAPI(resolverService, feedService,
		canonicalhttp.WithLogger(logging.HTTPLogger(provider)),
	)

	importer := markdown.NewImporter(markdown.ImporterConfig{
		Documents: docs,
		Store:     store,
		Logger:    logging.ImporterLogger(provider),
	})

	return &Module{
		cfg:      cfg,
		db:       db,
		logs:     provider,
		store:    store,
		docs:     docs,
		resolver: resolverService,
		feed:     feedService,
		api:      api,
		importer: importer,
	}, nil
}

// DB exposes the underlying bun handle for advanced integrations.
func (m *Module) DB() *bun.DB {
	return m.db
}

// Documents returns the write-side document service.
func (m *Module) Documents() DocumentService {
	return m.docs
}

// Store returns the read contract used by the resolver and feed.
func (m *Module) Store() document.Store {
	return m.store
}

// Resolver returns the canonical request resolver.
func (m *Module) Resolver() *resolver.Service {
	return m.resolver
}

// Feed returns the cursor-paged feed service.
func (m *Module) Feed() *feed.Service {
	return m.feed
}

// Importer returns the markdown directory importer.
func (m *Module) Importer() *markdown.Importer {
	return m.importer
}

// Logger returns a module-scoped logger from the configured provider.
func (m *Module) Logger(name string) interfaces.Logger {
	return logging.ModuleLogger(m.logs, name)
}

// Handler returns the public HTTP handler with routes mounted at the root.
func (m *Module) Handler() http.Handler {
	return m.api.Handler()
}

// Register mounts the public routes on an existing mux under base.
func (m *Module) Register(mux *http.ServeMux, base string) {
	m.api.Register(mux, base)
}

// Migrate applies the embedded schema migrations in filename order.
func (m *Module) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, m.db, GetMigrationsFS())
}

// Close releases the database handle.
func (m *Module) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

// RunMigrations executes every .sql file in fsys in name order against db.
func RunMigrations(ctx context.Context, db *bun.DB, fsys fs.FS) error {
	var paths []string
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() && strings.HasSuffix(path, ".sql") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("canonical: list migrations: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		payload, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("canonical: read migration %s: %w", path, err)
		}
		if _, err := db.ExecContext(ctx, string(payload)); err != nil {
			return fmt.Errorf("canonical: apply migration %s: %w", path, err)
		}
	}
	return nil
}

func openDatabase(cfg StorageConfig) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "sqlite", "sqlite3":
		sqlDB, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("canonical: open sqlite: %w", err)
		}
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case "postgres", "postgresql":
		sqlDB, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("canonical: open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, ErrStorageDriverUnknown
	}
}
