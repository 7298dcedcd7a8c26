// Package migrate rewrites legacy free-text ship references in stored
// documents to canonical catalog ids and records every decision in a Report.
package migrate

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"

	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/pkg/constants"
	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/logging"
	"github.com/agentstation/shipref/pkg/ships"
)

// Migrator migrates the ship references of one collection.
type Migrator interface {
	// Name returns the collection the migrator handles.
	Name() string
	// Migrate processes every document of the collection. It returns an
	// error only when the collection cannot be read or ctx is cancelled;
	// per-document problems are recorded on the report.
	Migrate(ctx context.Context, resolver *ships.Resolver, report *Report, dryRun bool) error
}

// RefField describes where ship references live in a document: a top-level
// list whose object elements carry a free-text name and a canonical id.
type RefField struct {
	List    string
	NameKey string
	IDKey   string
}

// fieldRef is one ship reference found in a document.
type fieldRef struct {
	field RefField
	index int
	item  map[string]any
}

func (r fieldRef) path() string {
	return fmt.Sprintf("%s[%d].%s", r.field.List, r.index, r.field.NameKey)
}

func (r fieldRef) name() string {
	s, _ := r.item[r.field.NameKey].(string)
	return s
}

// malformedName returns the printed name when the name key holds something
// other than a string.
func (r fieldRef) malformedName() (string, bool) {
	v, ok := r.item[r.field.NameKey]
	if !ok || v == nil {
		return "", false
	}
	if _, isString := v.(string); isString {
		return "", false
	}
	return fmt.Sprint(v), true
}

func (r fieldRef) id() string {
	s, _ := r.item[r.field.IDKey].(string)
	return s
}

// collectionMigrator is the shared strategy behind every supported
// collection; collections differ only in where their references live.
type collectionMigrator struct {
	coll   store.Collection
	fields []RefField
	opts   *Options
}

// NewCollectionMigrator returns a migrator for references stored under the
// given fields of coll.
func NewCollectionMigrator(coll store.Collection, fields []RefField, opts ...Option) Migrator {
	return &collectionMigrator{
		coll:   coll,
		fields: fields,
		opts:   Defaults().Apply(opts...),
	}
}

// Name implements Migrator.
func (m *collectionMigrator) Name() string {
	return m.coll.Name()
}

// refs returns the ship references of doc in field order. Elements that
// are not objects, or that carry neither a name nor an id, are not
// references. A name of another type is still a reference.
func (m *collectionMigrator) refs(doc store.Document) []fieldRef {
	var refs []fieldRef
	for _, field := range m.fields {
		list, ok := doc[field.List].([]any)
		if !ok {
			continue
		}
		for i, elem := range list {
			item, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			ref := fieldRef{field: field, index: i, item: item}
			if _, malformed := ref.malformedName(); !malformed && ref.name() == "" && ref.id() == "" {
				continue
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

// Migrate implements Migrator.
func (m *collectionMigrator) Migrate(ctx context.Context, resolver *ships.Resolver, report *Report, dryRun bool) error {
	logger := logging.FromContext(ctx)
	stats := report.Collection(m.Name())

	docs, err := m.coll.List(ctx)
	if err != nil {
		return errors.WrapResource("list", "collection", m.Name(), err)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Total++
		docID := doc.ID()

		refs := m.refs(doc)
		if len(refs) == 0 {
			stats.Skipped++
			continue
		}

		docLogger := logging.FromContext(logging.WithDocument(ctx, docID))
		var modified []string
		touched := make(map[string]bool, len(m.fields))
		for _, ref := range refs {
			if ships.IsCanonicalID(ref.id()) {
				stats.FieldsCanonical++
				continue
			}

			if raw, malformed := ref.malformedName(); malformed {
				report.AddUnmatched(UnmatchedEntry{
					Collection: m.Name(),
					DocumentID: docID,
					FieldPath:  ref.path(),
					Name:       raw,
				})
				docLogger.Warn().
					Str("field_path", ref.path()).
					Str("name", raw).
					Msg("Ship name is not a string")
				continue
			}

			name := ref.name()
			match := resolver.Resolve(name)
			if match == nil {
				report.AddUnmatched(UnmatchedEntry{
					Collection: m.Name(),
					DocumentID: docID,
					FieldPath:  ref.path(),
					Name:       name,
				})
				docLogger.Warn().
					Str("field_path", ref.path()).
					Str("name", name).
					Msg("Ship name did not resolve")
				continue
			}

			ref.item[ref.field.IDKey] = match.ID
			if !touched[ref.field.List] {
				touched[ref.field.List] = true
				modified = append(modified, ref.field.List)
			}
			report.AddMapping(Mapping{
				Collection:   m.Name(),
				DocumentID:   docID,
				FieldPath:    ref.path(),
				OriginalName: name,
				ResolvedName: match.MatchedName,
				CanonicalID:  match.ID,
				Strategy:     match.Strategy,
			})
			docLogger.Debug().
				Str("field_path", ref.path()).
				Str("name", name).
				Str("ship_id", match.ID).
				Str("strategy", match.Strategy.String()).
				Msg("Resolved ship reference")
		}

		if len(modified) == 0 {
			stats.Skipped++
			continue
		}
		if dryRun {
			stats.Updated++
			continue
		}
		if err := m.persist(ctx, doc, modified); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			stats.Failed++
			docLogger.Error().Err(err).Msg("Failed to persist document")
			continue
		}
		stats.Updated++
	}

	logger.Info().
		Int("total", stats.Total).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("Collection migrated")
	return nil
}

// persist writes each modified top-level field of doc, retrying transient
// failures.
func (m *collectionMigrator) persist(ctx context.Context, doc store.Document, fields []string) error {
	id := doc.ID()
	for _, field := range fields {
		value := doc[field]
		err := backoff.Retry(func() error {
			err := m.coll.Patch(ctx, id, field, value)
			if err != nil && !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}, backoff.WithContext(m.newBackOff(), ctx))
		if err != nil {
			return errors.NewPersistError(m.Name(), id, field, err)
		}
	}
	return nil
}

func (m *collectionMigrator) newBackOff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.opts.RetryBackoff
	bo.MaxInterval = constants.MaxRetryBackoff
	bo.MaxElapsedTime = 0
	return backoff.WithMaxRetries(bo, uint64(max(m.opts.PersistRetries, 0)))
}

// isRetryable reports whether a patch failure may succeed on a later attempt.
func isRetryable(err error) bool {
	switch {
	case errors.IsNotFound(err), errors.IsValidationError(err):
		return false
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// NewUsersMigrator migrates users.ships[i].name into ships[i].shipId.
func NewUsersMigrator(coll store.Collection, opts ...Option) Migrator {
	return NewCollectionMigrator(coll, []RefField{
		{List: "ships", NameKey: "name", IDKey: "shipId"},
	}, opts...)
}

// NewMissionsMigrator migrates missions.participants[i].shipName into
// participants[i].shipId.
func NewMissionsMigrator(coll store.Collection, opts ...Option) Migrator {
	return NewCollectionMigrator(coll, []RefField{
		{List: "participants", NameKey: "shipName", IDKey: "shipId"},
	}, opts...)
}

// NewPlannedMissionsMigrator migrates both the required ship list and the
// signed-up participants of a planned mission.
func NewPlannedMissionsMigrator(coll store.Collection, opts ...Option) Migrator {
	return NewCollectionMigrator(coll, []RefField{
		{List: "ships", NameKey: "name", IDKey: "shipId"},
		{List: "participants", NameKey: "shipName", IDKey: "shipId"},
	}, opts...)
}

// disabledMigrator stands in for collections whose ship references are not
// migrated yet. It touches no documents.
type disabledMigrator struct {
	name string
}

// NewOperationsMigrator returns the extension point for operations.
func NewOperationsMigrator() Migrator {
	return &disabledMigrator{name: store.Operations}
}

// NewResourcesMigrator returns the extension point for resources.
func NewResourcesMigrator() Migrator {
	return &disabledMigrator{name: store.Resources}
}

// Name implements Migrator.
func (m *disabledMigrator) Name() string {
	return m.name
}

// Migrate implements Migrator.
func (m *disabledMigrator) Migrate(ctx context.Context, _ *ships.Resolver, report *Report, _ bool) error {
	report.Collection(m.name).Disabled = true
	logging.FromContext(ctx).Warn().Msg("Ship references are not migrated for this collection")
	return nil
}

// DefaultMigrators returns the migrators for every collection of backend in
// migration order.
func DefaultMigrators(backend store.Backend, opts ...Option) []Migrator {
	return []Migrator{
		NewUsersMigrator(backend.Collection(store.Users), opts...),
		NewMissionsMigrator(backend.Collection(store.Missions), opts...),
		NewPlannedMissionsMigrator(backend.Collection(store.PlannedMissions), opts...),
		NewOperationsMigrator(),
		NewResourcesMigrator(),
	}
}
