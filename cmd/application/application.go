// Package application provides the application interface for shipref commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            source, err := app.CatalogSource(cmd.Context())
//	            if err != nil {
//	                return err
//	            }
//	            // ... build an index from source
//	            return nil
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    CatalogSourceFunc: func(context.Context) (ships.Source, error) {
//	        return testSource, nil
//	    },
//	}
//	cmd := resolve.NewCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/pkg/migrate"
	"github.com/agentstation/shipref/pkg/ships"
)

// Archiver stores a finished report and returns where it went.
type Archiver interface {
	Upload(ctx context.Context, r *migrate.Report) (string, error)
}

// Application provides what commands need from the running process.
// The App struct from cmd/shipref/app implements it.
type Application interface {
	// CatalogSource returns the configured canonical ship catalog.
	CatalogSource(ctx context.Context) (ships.Source, error)

	// Overrides returns the merged manual override table.
	Overrides() (ships.Overrides, error)

	// Backend returns the configured document store. It is opened lazily
	// and closed by Shutdown.
	Backend(ctx context.Context) (store.Backend, error)

	// Archiver returns the report archive, or an error if none is configured.
	Archiver() (Archiver, error)

	// PersistRetries returns how often a failed document write is retried.
	PersistRetries() int

	// ReportFile returns the configured path for the machine-readable report.
	ReportFile() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format.
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
