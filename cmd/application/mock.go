package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/ships"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    BackendFunc: func(context.Context) (store.Backend, error) {
//	        return memory.New(), nil
//	    },
//	}
//	cmd := migrate.NewCommand(mock)
type Mock struct {
	CatalogSourceFunc  func(ctx context.Context) (ships.Source, error)
	OverridesFunc      func() (ships.Overrides, error)
	BackendFunc        func(ctx context.Context) (store.Backend, error)
	ArchiverFunc       func() (Archiver, error)
	PersistRetriesFunc func() int
	ReportFileFunc     func() string
	LoggerFunc         func() *zerolog.Logger
	OutputFormatFunc   func() string
	VersionFunc        func() string
	CommitFunc         func() string
	DateFunc           func() string
	BuiltByFunc        func() string
}

// CatalogSource returns a source using the mock function or an error.
func (m *Mock) CatalogSource(ctx context.Context) (ships.Source, error) {
	if m.CatalogSourceFunc != nil {
		return m.CatalogSourceFunc(ctx)
	}
	return nil, errors.NewConfigError("catalog", "no catalog source in mock", errors.ErrNotImplemented)
}

// Overrides returns overrides using the mock function or an empty table.
func (m *Mock) Overrides() (ships.Overrides, error) {
	if m.OverridesFunc != nil {
		return m.OverridesFunc()
	}
	return ships.Overrides{}, nil
}

// Backend returns a backend using the mock function or an error.
func (m *Mock) Backend(ctx context.Context) (store.Backend, error) {
	if m.BackendFunc != nil {
		return m.BackendFunc(ctx)
	}
	return nil, errors.NewConfigError("store", "no backend in mock", errors.ErrNotImplemented)
}

// Archiver returns an archiver using the mock function or an error.
func (m *Mock) Archiver() (Archiver, error) {
	if m.ArchiverFunc != nil {
		return m.ArchiverFunc()
	}
	return nil, errors.NewConfigError("archive", "no archiver in mock", errors.ErrNotImplemented)
}

// PersistRetries returns retries using the mock function or 0.
func (m *Mock) PersistRetries() int {
	if m.PersistRetriesFunc != nil {
		return m.PersistRetriesFunc()
	}
	return 0
}

// ReportFile returns the report path using the mock function or "".
func (m *Mock) ReportFile() string {
	if m.ReportFileFunc != nil {
		return m.ReportFileFunc()
	}
	return ""
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
