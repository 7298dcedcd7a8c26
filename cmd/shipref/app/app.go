// Package app provides the application context and dependency management
// for the shipref CLI. It centralizes configuration, logging, and the
// lifecycle of the catalog source and document store.
package app

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/shipref/cmd/application"
	"github.com/agentstation/shipref/internal/archive"
	"github.com/agentstation/shipref/internal/catalog"
	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/internal/store/files"
	"github.com/agentstation/shipref/internal/store/postgres"
	"github.com/agentstation/shipref/pkg/constants"
	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/logging"
	"github.com/agentstation/shipref/pkg/ships"
)

// App represents the shipref application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Output streams, overridable for tests
	stdout io.Writer
	stderr io.Writer

	// Lazily opened resources
	mu       sync.Mutex
	source   ships.Source
	backend  store.Backend
	archiver application.Archiver
	closers  []func() error
}

// New creates a new App instance with the given version information.
// Configuration is loaded from the default locations; --config reloads it
// once flags are parsed.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger, or the package default before one
// is configured.
func (a *App) Logger() *zerolog.Logger {
	if a.logger == nil {
		return logging.Default()
	}
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.OutputFormat()
}

// PersistRetries returns how often a failed document write is retried.
func (a *App) PersistRetries() int {
	return a.config.PersistRetries
}

// ReportFile returns the configured path for the machine-readable report.
func (a *App) ReportFile() string {
	return a.config.ReportFile
}

// Overrides returns the embedded override table merged with overrides.path.
func (a *App) Overrides() (ships.Overrides, error) {
	return catalog.LoadOverrides(a.config.OverridesPath)
}

// CatalogSource returns the configured catalog source, opening it on first use.
func (a *App) CatalogSource(ctx context.Context) (ships.Source, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.source != nil {
		return a.source, nil
	}

	switch a.config.CatalogSource {
	case catalog.KindFile:
		if a.config.CatalogPath == "" {
			return nil, errors.NewConfigError("catalog", "catalog.path is required for a file catalog", nil)
		}
		a.source = catalog.NewFileSource(a.config.CatalogPath)
	case catalog.KindPostgres:
		if a.config.DatabaseURL == "" {
			return nil, errors.NewConfigError("catalog", "database.url is required for a postgres catalog", nil)
		}
		ctx, cancel := context.WithTimeout(ctx, constants.CatalogLoadTimeout)
		defer cancel()
		src, err := catalog.OpenPostgresSource(ctx, a.config.DatabaseURL, a.config.CatalogTable)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { src.Close(); return nil })
		a.source = src
	default:
		a.source = catalog.NewEmbeddedSource()
	}
	return a.source, nil
}

// Backend returns the configured document store, opening it on first use.
func (a *App) Backend(ctx context.Context) (store.Backend, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.backend != nil {
		return a.backend, nil
	}

	var (
		backend store.Backend
		err     error
	)
	switch a.config.StoreBackend {
	case BackendPostgres:
		if a.config.DatabaseURL == "" {
			return nil, errors.NewConfigError("store", "database.url is required for the postgres store", nil)
		}
		backend, err = postgres.Open(ctx, a.config.DatabaseURL, a.config.StoreTable)
	default:
		backend, err = files.New(a.config.StorePath)
	}
	if err != nil {
		return nil, err
	}

	a.closers = append(a.closers, backend.Close)
	a.backend = backend
	return backend, nil
}

// Archiver returns the report archive configured under archive.*.
func (a *App) Archiver() (application.Archiver, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.archiver != nil {
		return a.archiver, nil
	}
	arch, err := archive.New(a.config.Archive)
	if err != nil {
		return nil, err
	}
	a.archiver = arch
	return arch, nil
}

// Shutdown releases everything the app opened. It is safe to call more
// than once.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var firstErr error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			a.Logger().Error().Err(err).Msg("Failed to close resource during shutdown")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithCatalogSource sets the catalog source (useful for testing).
func WithCatalogSource(source ships.Source) Option {
	return func(a *App) error {
		a.source = source
		return nil
	}
}

// WithBackend sets the document store (useful for testing).
func WithBackend(backend store.Backend) Option {
	return func(a *App) error {
		a.backend = backend
		return nil
	}
}

// WithArchiver sets the report archive (useful for testing).
func WithArchiver(archiver application.Archiver) Option {
	return func(a *App) error {
		a.archiver = archiver
		return nil
	}
}

// WithOutput redirects command output (useful for testing).
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) error {
		a.stdout = stdout
		a.stderr = stderr
		return nil
	}
}

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)
