package canonical

import (
	"errors"
	"strings"
)

var (
	ErrStorageDriverUnknown = errors.New("canonical: unsupported storage driver")
	ErrStorageDSNRequired   = errors.New("canonical: storage DSN is required")
	ErrLoggingLevelInvalid  = errors.New("canonical: unsupported logging level")
	ErrLoggingFormatInvalid = errors.New("canonical: unsupported logging format")
)

// StorageConfig selects the relational backend.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string
	// DSN is the driver-specific connection string.
	DSN string
}

// LoggingConfig tunes the go-logger provider.
type LoggingConfig struct {
	Level     string
	Format    string
	AddSource bool
}

// Config carries everything the module needs at construction time.
type Config struct {
	Storage StorageConfig
	Logging LoggingConfig

	// BaseURL anchors redirect locations. Empty means relative paths.
	BaseURL string
	// DefaultLocale is the locale assumed for content that declares none.
	DefaultLocale string
}

// DefaultConfig returns a configuration suitable for local development: an
// in-memory sqlite database and console logging.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "file::memory:?cache=shared",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		DefaultLocale: "en",
	}
}

// Validate checks the configuration before any resource is opened.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return ErrStorageDriverUnknown
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return ErrLoggingLevelInvalid
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "json", "console", "pretty":
	default:
		return ErrLoggingFormatInvalid
	}
	return nil
}
