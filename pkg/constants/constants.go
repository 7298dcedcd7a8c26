// Package constants provides shared constants used throughout the shipref codebase.
// This includes timeouts, retry limits, file permissions and the canonical
// collection names that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// CatalogLoadTimeout bounds the single catalog query made at run start
	CatalogLoadTimeout = 1 * time.Minute

	// ArchiveUploadTimeout bounds the report upload to object storage
	ArchiveUploadTimeout = 2 * time.Minute

	// ShutdownTimeout is how long main waits for cleanup after a failed command
	ShutdownTimeout = 5 * time.Second

	// RetryBackoff is the initial backoff between persistence attempts
	RetryBackoff = 50 * time.Millisecond

	// MaxRetryBackoff is the maximum backoff between persistence attempts
	MaxRetryBackoff = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants
const (
	// DefaultPersistRetries is how many times a failed document write is retried
	DefaultPersistRetries = 2
)

// Default names and locations
const (
	// ConfigFileName is the config file looked up in $HOME and the working directory
	ConfigFileName = ".shipref"

	// DefaultCatalogTable is the postgres table holding the ship catalog
	DefaultCatalogTable = "ships"

	// DefaultDocumentsTable is the postgres table holding migrated documents
	DefaultDocumentsTable = "documents"

	// DefaultArchivePrefix is the object key prefix for archived reports
	DefaultArchivePrefix = "shipref/reports"
)
