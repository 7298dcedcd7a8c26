package ships

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/logging"
)

type staticSource struct {
	refs []ShipRef
	err  error
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) Ships(context.Context) ([]ShipRef, error) {
	return s.refs, s.err
}

func TestBuildIndex(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	idx, err := BuildIndex(ctx, staticSource{refs: []ShipRef{
		{ID: "a1", Name: "Gladius", Slug: "gladius"},
		{ID: "b2", Name: "Gladius Pirate Edition", Slug: "gladius-pirate-edition"},
	}})
	require.NoError(t, err)

	assert.Equal(t, 2, idx.Len())
	testLogger.AssertContains(t, `"ship_count":2`)

	for _, lookup := range []func() (ShipRef, bool){
		func() (ShipRef, bool) { return idx.ByName("Gladius") },
		func() (ShipRef, bool) { return idx.ByNameLower("gladius") },
		func() (ShipRef, bool) { return idx.BySlug("gladius") },
		func() (ShipRef, bool) { return idx.ByID("a1") },
	} {
		ref, ok := lookup()
		require.True(t, ok)
		assert.Equal(t, "a1", ref.ID)
	}

	_, ok := idx.ByName("gladius")
	assert.False(t, ok, "name lookup is case-sensitive")
}

func TestBuildIndexFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("source error is fatal", func(t *testing.T) {
		_, err := BuildIndex(ctx, staticSource{err: errors.New("connection refused")})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCatalogUnavailable(err))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("empty catalog is fatal", func(t *testing.T) {
		_, err := BuildIndex(ctx, staticSource{})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCatalogUnavailable(err))
	})

	t.Run("partial entry is rejected", func(t *testing.T) {
		_, err := BuildIndex(ctx, staticSource{refs: []ShipRef{{ID: "a1", Name: "Gladius"}}})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCatalogUnavailable(err))
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestIndexDuplicatesLastWriteWins(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	idx, err := BuildIndex(ctx, staticSource{refs: []ShipRef{
		{ID: "old", Name: "Cutlass Black", Slug: "cutlass-black"},
		{ID: "new", Name: "Cutlass Black", Slug: "cutlass-black-2"},
	}})
	require.NoError(t, err)

	ref, ok := idx.ByName("Cutlass Black")
	require.True(t, ok)
	assert.Equal(t, "new", ref.ID)

	ref, ok = idx.BySlug("cutlass-black")
	require.True(t, ok)
	assert.Equal(t, "old", ref.ID)

	dups := idx.Duplicates()
	require.Len(t, dups, 2)
	assert.Equal(t, "name", dups[0].Key)
	assert.Equal(t, "name_lower", dups[1].Key)
	assert.Equal(t, 2, idx.Len())
	testLogger.AssertContains(t, "Duplicate catalog key")
}

func TestEntriesReturnsCopy(t *testing.T) {
	idx, err := NewIndex([]ShipRef{{ID: "a1", Name: "Gladius", Slug: "gladius"}})
	require.NoError(t, err)

	entries := idx.Entries()
	entries[0].Name = "mutated"

	ref, _ := idx.ByID("a1")
	assert.Equal(t, "Gladius", ref.Name)
	assert.Equal(t, "Gladius", idx.Entries()[0].Name)
}

func TestIsCanonicalID(t *testing.T) {
	assert.True(t, IsCanonicalID("3f1c2a9e-8b7d-4c6e-9a5b-1d2e3f4a5b6c"))
	assert.False(t, IsCanonicalID(""))
	assert.False(t, IsCanonicalID("a1"))
	assert.False(t, IsCanonicalID("{3f1c2a9e-8b7d-4c6e-9a5b-1d2e3f4a5b6c}"))
	assert.False(t, IsCanonicalID("3f1c2a9e8b7d4c6e9a5b1d2e3f4a5b6c"))
	assert.False(t, IsCanonicalID("zzzzzzzz-8b7d-4c6e-9a5b-1d2e3f4a5b6c"))
}

func TestNonCanonicalIDsAreReported(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	idx, err := BuildIndex(ctx, staticSource{refs: []ShipRef{
		{ID: "3f1c2a9e-8b7d-4c6e-9a5b-1d2e3f4a5b6c", Name: "Gladius", Slug: "gladius"},
		{ID: "a1", Name: "Arrow", Slug: "arrow"},
	}})
	require.NoError(t, err)

	bad := idx.NonCanonicalIDs()
	require.Len(t, bad, 1)
	assert.Equal(t, "a1", bad[0].ID)
	testLogger.AssertContains(t, "Catalog id is not a UUID")
	testLogger.AssertContains(t, `"id":"a1"`)
}
