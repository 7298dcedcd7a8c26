package migrate

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/shipref/pkg/constants"
	"github.com/agentstation/shipref/pkg/errors"
)

// Options controls a migration run.
type Options struct {
	DryRun         bool             // Resolve and report without persisting anything
	PersistRetries int              // Retries after a failed patch, per field
	RetryBackoff   time.Duration    // Initial delay between persist retries
	Now            func() time.Time // Clock used to stamp the report
	Logger         *zerolog.Logger  // Logger for the run; nil means the context logger
}

// Defaults returns the default migration options.
func Defaults() *Options {
	return &Options{
		DryRun:         false,
		PersistRetries: constants.DefaultPersistRetries,
		RetryBackoff:   constants.RetryBackoff,
		Now:            time.Now,
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks that the options are usable.
func (o *Options) Validate() error {
	if o.PersistRetries < 0 {
		return &errors.ValidationError{
			Field:   "PersistRetries",
			Value:   o.PersistRetries,
			Message: "persist retries must be non-negative",
		}
	}
	if o.RetryBackoff < 0 {
		return &errors.ValidationError{
			Field:   "RetryBackoff",
			Value:   o.RetryBackoff,
			Message: "retry backoff must be non-negative",
		}
	}
	if o.Now == nil {
		return &errors.ValidationError{
			Field:   "Now",
			Message: "clock is required",
		}
	}
	return nil
}

// Option configures migration Options.
type Option func(*Options)

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithPersistRetries configures how often a failed patch is retried.
func WithPersistRetries(retries int) Option {
	return func(opts *Options) {
		opts.PersistRetries = retries
	}
}

// WithRetryBackoff configures the initial delay between retries.
func WithRetryBackoff(d time.Duration) Option {
	return func(opts *Options) {
		opts.RetryBackoff = d
	}
}

// WithClock configures the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		opts.Now = now
	}
}

// WithLogger configures the run logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}
