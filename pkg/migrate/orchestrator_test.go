package migrate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/logging"
	"github.com/agentstation/shipref/pkg/ships"
)

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[min(i, len(times)-1)]
		i++
		return t
	}
}

func runDefault(t *testing.T, backend store.Backend, opts ...Option) *Report {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewNopLogger())}, opts...)
	o := NewOrchestrator(testSource(), testOverrides(), DefaultMigrators(backend, opts...), opts...)
	report, err := o.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func TestRunMigratesEveryCollection(t *testing.T) {
	backend := seededBackend(t)
	report := runDefault(t, backend)

	assert.False(t, report.DryRun)
	assert.Equal(t, "static", report.CatalogSource)
	assert.Equal(t, 5, report.CatalogSize)

	require.Len(t, report.Collections, 5)
	names := make([]string, 0, len(report.Collections))
	for _, c := range report.Collections {
		names = append(names, c.Name)
	}
	assert.Equal(t, store.Names(), names)

	users := report.Collection(store.Users)
	assert.Equal(t, Counters{Total: 4, Updated: 2, Skipped: 2, FieldsCanonical: 1}, users.Counters)
	missions := report.Collection(store.Missions)
	assert.Equal(t, Counters{Total: 2, Updated: 1, Skipped: 1}, missions.Counters)
	planned := report.Collection(store.PlannedMissions)
	assert.Equal(t, Counters{Total: 1, Updated: 1}, planned.Counters)

	for _, name := range []string{store.Operations, store.Resources} {
		c := report.Collection(name)
		assert.True(t, c.Disabled, name)
		assert.Equal(t, Counters{}, c.Counters, name)
	}

	assert.Equal(t, Counters{Total: 7, Updated: 4, Skipped: 3, FieldsCanonical: 1}, report.Totals)

	assert.Equal(t, []Mapping{
		{Collection: store.Users, DocumentID: "u1", FieldPath: "ships[0].name", OriginalName: "Gladius", ResolvedName: "Gladius", CanonicalID: gladiusID, Strategy: ships.StrategyExact},
		{Collection: store.Users, DocumentID: "u1", FieldPath: "ships[1].name", OriginalName: "gladius pirate edition", ResolvedName: "Gladius Pirate Edition", CanonicalID: gladiusPEID, Strategy: ships.StrategyCaseInsensitive},
		{Collection: store.Users, DocumentID: "u2", FieldPath: "ships[0].name", OriginalName: "Idris-K", ResolvedName: "Idris-P", CanonicalID: idrisPID, Strategy: ships.StrategyManualOverride},
		{Collection: store.Missions, DocumentID: "m1", FieldPath: "participants[0].shipName", OriginalName: "Idris", ResolvedName: "Idris-P", CanonicalID: idrisPID, Strategy: ships.StrategyContains},
		{Collection: store.Missions, DocumentID: "m1", FieldPath: "participants[1].shipName", OriginalName: "gladius", ResolvedName: "Gladius", CanonicalID: gladiusID, Strategy: ships.StrategyCaseInsensitive},
		{Collection: store.PlannedMissions, DocumentID: "p1", FieldPath: "ships[0].name", OriginalName: "Arrow", ResolvedName: "Arrow", CanonicalID: arrowID, Strategy: ships.StrategyExact},
	}, report.Mappings)

	assert.Equal(t, []UnmatchedEntry{
		{Collection: store.Users, DocumentID: "u1", FieldPath: "ships[2].name", Name: "Unknown Hauler"},
		{Collection: store.PlannedMissions, DocumentID: "p1", FieldPath: "participants[0].shipName", Name: "Zeppelin"},
	}, report.Unmatched)

	assert.Equal(t, []ships.OverrideDefect{{Name: "Starfarer", TargetSlug: "starfarer"}}, report.OverrideDefects)
	assert.Equal(t, 1, report.ExitCode())
	assert.Equal(t, 4, totalPatches(t, backend))
}

func TestRunWritesIDsAndPreservesEverythingElse(t *testing.T) {
	backend := seededBackend(t)
	runDefault(t, backend)

	u1, ok := memCollection(t, backend, store.Users).Get("u1")
	require.True(t, ok)
	assert.Equal(t, "alice", u1["handle"])
	assert.Equal(t, []any{
		map[string]any{"name": "Gladius", "shipId": gladiusID},
		map[string]any{"name": "gladius pirate edition", "shipId": gladiusPEID},
		map[string]any{"name": "Unknown Hauler", "custom": true},
	}, u1["ships"])

	p1, ok := memCollection(t, backend, store.PlannedMissions).Get("p1")
	require.True(t, ok)
	assert.Equal(t, []any{map[string]any{"name": "Arrow", "shipId": arrowID}}, p1["ships"])
	assert.Equal(t, []any{map[string]any{"userId": "u3", "shipName": "Zeppelin"}}, p1["participants"])

	u3, ok := memCollection(t, backend, store.Users).Get("u3")
	require.True(t, ok)
	assert.Equal(t, store.Document{"id": "u3", "handle": "carol"}, u3)
}

func TestRunIsIdempotent(t *testing.T) {
	backend := seededBackend(t)
	first := runDefault(t, backend)
	patches := totalPatches(t, backend)

	second := runDefault(t, backend)
	assert.Equal(t, 0, second.Totals.Updated)
	assert.Empty(t, second.Mappings)
	assert.Equal(t, first.Unmatched, second.Unmatched)
	assert.Equal(t, 7, second.Totals.Total)
	assert.Equal(t, 7, second.Totals.Skipped)
	assert.Equal(t, 1+len(first.Mappings), second.Totals.FieldsCanonical)
	assert.Equal(t, patches, totalPatches(t, backend), "second run must not write")
}

func TestDryRunMatchesRealRunWithoutWriting(t *testing.T) {
	live := runDefault(t, seededBackend(t))

	dryBackend := seededBackend(t)
	dry := runDefault(t, dryBackend, WithDryRun(true))

	assert.True(t, dry.DryRun)
	assert.Equal(t, live.Mappings, dry.Mappings)
	assert.Equal(t, live.Unmatched, dry.Unmatched)
	assert.Equal(t, live.Totals, dry.Totals)
	assert.Equal(t, 0, totalPatches(t, dryBackend))

	u1, ok := memCollection(t, dryBackend, store.Users).Get("u1")
	require.True(t, ok)
	assert.Equal(t, []any{
		map[string]any{"name": "Gladius"},
		map[string]any{"name": "gladius pirate edition"},
		map[string]any{"name": "Unknown Hauler", "custom": true},
	}, u1["ships"])
}

func TestRunCatalogFailureIsFatal(t *testing.T) {
	tests := []struct {
		name   string
		source staticSource
	}{
		{"load error", staticSource{err: errors.New("connection refused")}},
		{"empty catalog", staticSource{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := seededBackend(t)
			o := NewOrchestrator(tt.source, nil, DefaultMigrators(backend), WithLogger(logging.NewNopLogger()))

			report, err := o.Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, report)
			assert.True(t, errors.IsCatalogUnavailable(err))
			assert.Equal(t, 0, totalPatches(t, backend))
		})
	}
}

func TestRunRecordsUnreadableCollectionAndContinues(t *testing.T) {
	backend := seededBackend(t)
	migrators := DefaultMigrators(backend)
	migrators[0] = NewUsersMigrator(brokenCollection{name: store.Users})

	o := NewOrchestrator(testSource(), testOverrides(), migrators, WithLogger(logging.NewNopLogger()))
	report, err := o.Run(context.Background())
	require.NoError(t, err)

	users := report.Collection(store.Users)
	assert.Contains(t, users.Error, "permission denied")
	assert.Equal(t, Counters{}, users.Counters)
	assert.True(t, report.HasCollectionErrors())

	assert.Equal(t, 1, report.Collection(store.Missions).Updated)
	assert.Equal(t, 1, report.Collection(store.PlannedMissions).Updated)
	assert.Equal(t, 1, report.ExitCode())
}

func TestRunSortsMigratorsIntoCollectionOrder(t *testing.T) {
	backend := seededBackend(t)
	d := DefaultMigrators(backend)
	shuffled := []Migrator{d[4], d[2], d[0], d[3], d[1]}

	o := NewOrchestrator(testSource(), nil, shuffled)
	var names []string
	for _, m := range o.Migrators() {
		names = append(names, m.Name())
	}
	assert.Equal(t, store.Names(), names)
}

func TestRunStampsReportTimes(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Second)

	report := runDefault(t, seededBackend(t), WithClock(fixedClock(start, end)))
	assert.Equal(t, start, report.StartedAt)
	assert.Equal(t, end, report.CompletedAt)
	assert.Equal(t, 3*time.Second, report.Duration())
}

func TestRunHonoursCancellation(t *testing.T) {
	backend := seededBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(testSource(), nil, DefaultMigrators(backend), WithLogger(logging.NewNopLogger()))
	_, err := o.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, totalPatches(t, backend))
}

func TestRunRejectsInvalidOptions(t *testing.T) {
	o := NewOrchestrator(testSource(), nil, nil, WithPersistRetries(-1))
	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestRunLogsDecisions(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	backend := seededBackend(t)

	o := NewOrchestrator(testSource(), testOverrides(), DefaultMigrators(backend), WithLogger(testLogger.Logger))
	_, err := o.Run(context.Background())
	require.NoError(t, err)

	testLogger.AssertContains(t, "Override targets a slug that is not in the catalog")
	testLogger.AssertContains(t, `"name":"Unknown Hauler"`)
	testLogger.AssertContains(t, `"document_id":"u1"`)
	testLogger.AssertContains(t, `"field_path":"ships[2].name"`)
	testLogger.AssertContains(t, "Ship references are not migrated for this collection")
	testLogger.AssertContains(t, `"collection":"operations"`)
	testLogger.AssertContains(t, "Migration finished")
}
