package migrate

import (
	"context"
	"slices"

	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/pkg/logging"
	"github.com/agentstation/shipref/pkg/ships"
)

// Orchestrator runs every collection migrator against one catalog index.
type Orchestrator struct {
	source    ships.Source
	overrides ships.Overrides
	migrators []Migrator
	opts      *Options
}

// NewOrchestrator creates an orchestrator. Migrators run in collection
// order (users, missions, planned missions, operations, resources)
// regardless of the order they are passed in; unknown collections run last.
func NewOrchestrator(source ships.Source, overrides ships.Overrides, migrators []Migrator, opts ...Option) *Orchestrator {
	ordered := slices.Clone(migrators)
	slices.SortStableFunc(ordered, func(a, b Migrator) int {
		return collectionRank(a.Name()) - collectionRank(b.Name())
	})
	return &Orchestrator{
		source:    source,
		overrides: overrides,
		migrators: ordered,
		opts:      Defaults().Apply(opts...),
	}
}

func collectionRank(name string) int {
	if i := slices.Index(store.Names(), name); i >= 0 {
		return i
	}
	return len(store.Names())
}

// Migrators returns the migrators in the order they run.
func (o *Orchestrator) Migrators() []Migrator {
	return slices.Clone(o.migrators)
}

// Run builds the index, migrates every collection and returns the report.
// A catalog failure is fatal and returns no report. A collection that
// cannot be read is recorded on the report and the run continues. When ctx
// is cancelled the partial report is returned with the context error.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	if err := o.opts.Validate(); err != nil {
		return nil, err
	}
	if o.opts.Logger != nil {
		ctx = logging.WithLogger(ctx, o.opts.Logger)
	}
	ctx = logging.WithDryRun(ctx, o.opts.DryRun)
	logger := logging.FromContext(ctx)

	report := NewReport(o.opts.DryRun, o.opts.Now())

	idx, err := ships.BuildIndex(ctx, o.source)
	if err != nil {
		logger.Error().Err(err).Msg("Cannot load ship catalog, nothing was migrated")
		return nil, err
	}
	report.CatalogSource = o.source.Name()
	report.CatalogSize = idx.Len()

	report.OverrideDefects = o.overrides.Validate(idx)
	for _, defect := range report.OverrideDefects {
		logger.Warn().
			Str("name", defect.Name).
			Str("target_slug", defect.TargetSlug).
			Msg("Override targets a slug that is not in the catalog")
	}

	resolver := ships.NewResolver(idx, o.overrides)
	for _, m := range o.migrators {
		if err := ctx.Err(); err != nil {
			report.Finalize(o.opts.Now())
			return report, err
		}

		mctx := logging.WithCollection(ctx, m.Name())
		if err := m.Migrate(mctx, resolver, report, o.opts.DryRun); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				report.Finalize(o.opts.Now())
				return report, ctxErr
			}
			report.Collection(m.Name()).Error = err.Error()
			logging.FromContext(mctx).Error().Err(err).Msg("Collection could not be migrated")
		}
	}

	report.Finalize(o.opts.Now())
	logger.Info().
		Int("updated", report.Totals.Updated).
		Int("failed", report.Totals.Failed).
		Int("mappings", len(report.Mappings)).
		Int("unmatched", len(report.Unmatched)).
		Dur("duration", report.Duration()).
		Msg("Migration finished")
	return report, nil
}
