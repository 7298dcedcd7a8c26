package migrate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/internal/store/memory"
	"github.com/agentstation/shipref/pkg/ships"
)

const (
	gladiusID   = "5b0c6a3e-2f4d-4e8a-9c17-8d2e4f6a1b03"
	gladiusPEID = "c7e1d9a2-4b6f-4d3c-8e5a-1f2b3c4d5e6f"
	idrisPID    = "0a9b8c7d-6e5f-4a3b-9c2d-1e0f9a8b7c6d"
	idrisMID    = "f1e2d3c4-b5a6-4978-8a6b-5c4d3e2f1a09"
	arrowID     = "9d8c7b6a-5f4e-4d3c-8b2a-190817263544"
)

type staticSource struct {
	refs []ships.ShipRef
	err  error
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) Ships(context.Context) ([]ships.ShipRef, error) {
	return s.refs, s.err
}

func testSource() staticSource {
	return staticSource{refs: []ships.ShipRef{
		{ID: gladiusID, Name: "Gladius", Slug: "gladius"},
		{ID: gladiusPEID, Name: "Gladius Pirate Edition", Slug: "gladius-pirate-edition"},
		{ID: idrisPID, Name: "Idris-P", Slug: "idris-p"},
		{ID: idrisMID, Name: "Idris-M", Slug: "idris-m"},
		{ID: arrowID, Name: "Arrow", Slug: "arrow"},
	}}
}

func testOverrides() ships.Overrides {
	return ships.Overrides{
		"Idris-K":   "idris-p",
		"Starfarer": "starfarer", // not in the test catalog
	}
}

func ship(name string) map[string]any {
	return map[string]any{"name": name}
}

func participant(userID, shipName string) map[string]any {
	return map[string]any{"userId": userID, "shipName": shipName}
}

// seededBackend returns a backend with legacy data covering every kind of
// reference: resolvable, unresolvable, already canonical and absent.
func seededBackend(t *testing.T) *memory.Backend {
	t.Helper()
	b := memory.New()
	b.Seed(store.Users,
		store.Document{"id": "u1", "handle": "alice", "ships": []any{
			ship("Gladius"),
			ship("gladius pirate edition"),
			map[string]any{"name": "Unknown Hauler", "custom": true},
		}},
		store.Document{"id": "u2", "handle": "bob", "ships": []any{ship("Idris-K")}},
		store.Document{"id": "u3", "handle": "carol"},
		store.Document{"id": "u4", "handle": "dave", "ships": []any{
			map[string]any{"name": "Arrow", "shipId": arrowID},
		}},
	)
	b.Seed(store.Missions,
		store.Document{"id": "m1", "title": "Escort", "participants": []any{
			participant("u1", "Idris"),
			participant("u2", "gladius"),
		}},
		store.Document{"id": "m2", "title": "Empty", "participants": []any{}},
	)
	b.Seed(store.PlannedMissions,
		store.Document{"id": "p1", "title": "Patrol",
			"ships":        []any{ship("Arrow")},
			"participants": []any{participant("u3", "Zeppelin")},
		},
	)
	return b
}

func memCollection(t *testing.T, b *memory.Backend, name string) *memory.Collection {
	t.Helper()
	c, ok := b.Collection(name).(*memory.Collection)
	require.True(t, ok)
	return c
}

func totalPatches(t *testing.T, b *memory.Backend) int {
	t.Helper()
	n := 0
	for _, name := range store.Names() {
		n += memCollection(t, b, name).Patches()
	}
	return n
}

var errTransient = errors.New("connection reset by peer")

// flakyCollection fails patches for selected documents a number of times
// before delegating.
type flakyCollection struct {
	store.Collection

	mu       sync.Mutex
	failures map[string]int
	err      error
	attempts map[string]int
}

func newFlakyCollection(inner store.Collection, err error, failures map[string]int) *flakyCollection {
	return &flakyCollection{
		Collection: inner,
		failures:   failures,
		err:        err,
		attempts:   make(map[string]int),
	}
}

func (f *flakyCollection) Patch(ctx context.Context, id, field string, value any) error {
	f.mu.Lock()
	f.attempts[id]++
	if f.failures[id] > 0 {
		f.failures[id]--
		f.mu.Unlock()
		return f.err
	}
	f.mu.Unlock()
	return f.Collection.Patch(ctx, id, field, value)
}

func (f *flakyCollection) Attempts(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[id]
}

// brokenCollection cannot be listed.
type brokenCollection struct {
	name string
}

func (c brokenCollection) Name() string { return c.name }

func (c brokenCollection) List(context.Context) ([]store.Document, error) {
	return nil, errors.New("permission denied")
}

func (c brokenCollection) Patch(context.Context, string, string, any) error {
	return errors.New("permission denied")
}
