package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-canonical/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "canonical.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	// Ensure WithContext/WithFields do not panic.
	logger = logger.WithContext(context.Background())
	logger = WithFields(logger, map[string]any{"foo": "bar"})
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	logger := ModuleLogger(provider, resolverModule)

	if len(provider.requested) != 1 || provider.requested[0] != resolverModule {
		t.Fatalf("expected module %s, got %v", resolverModule, provider.requested)
	}

	if len(rec.fields) != 1 {
		t.Fatalf("expected module fields to be applied once, got %d", len(rec.fields))
	}

	if got, ok := rec.fields[0]["module"]; !ok || got != resolverModule {
		t.Fatalf("expected module field %s, got %v", resolverModule, rec.fields[0]["module"])
	}

	logger.Info("with provider")
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if len(provider.requested) != 1 || provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
	if rec.fields[0]["module"] != rootModule {
		t.Fatalf("expected module field %s, got %v", rootModule, rec.fields[0]["module"])
	}
}

func TestNamespaceHelpersRequestReservedModules(t *testing.T) {
	cases := []struct {
		name string
		call func(interfaces.LoggerProvider) interfaces.Logger
		want string
	}{
		{"document", DocumentLogger, documentModule},
		{"resolver", ResolverLogger, resolverModule},
		{"feed", FeedLogger, feedModule},
		{"importer", ImporterLogger, importerModule},
		{"http", HTTPLogger, httpModule},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &stubProvider{logger: &recordingLogger{}}
			_ = tc.call(provider)
			if len(provider.requested) == 0 || provider.requested[0] != tc.want {
				t.Fatalf("expected %s request, got %v", tc.want, provider.requested)
			}
		})
	}
}

func TestWithFieldsClonesInput(t *testing.T) {
	rec := &recordingLogger{}
	fields := map[string]any{"entity": "document"}

	_ = WithFields(rec, fields)

	fields["entity"] = "translation"
	if len(rec.fields) != 1 {
		t.Fatalf("expected one fields call, got %d", len(rec.fields))
	}
	if rec.fields[0]["entity"] != "document" {
		t.Fatalf("expected cloned fields, got %v", rec.fields[0]["entity"])
	}
}
