// Package memory provides an in-process document backend, used by tests
// and by dry runs against fixture data.
package memory

import (
	"context"
	"sync"

	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/pkg/errors"
)

// Backend holds collections in memory.
type Backend struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

// New creates an empty memory backend.
func New() *Backend {
	return &Backend{collections: make(map[string]*Collection)}
}

// Collection returns the named collection, creating it if needed.
func (b *Backend) Collection(name string) store.Collection {
	return b.collection(name)
}

func (b *Backend) collection(name string) *Collection {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.collections[name]
	if !ok {
		c = &Collection{name: name, byID: make(map[string]int)}
		b.collections[name] = c
	}
	return c
}

// Seed appends documents to the named collection.
func (b *Backend) Seed(name string, docs ...store.Document) {
	c := b.collection(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range docs {
		c.byID[doc.ID()] = len(c.docs)
		c.docs = append(c.docs, doc.Clone())
	}
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	return nil
}

// Collection is an ordered in-memory collection.
type Collection struct {
	name    string
	mu      sync.Mutex
	docs    []store.Document
	byID    map[string]int
	patches int
}

// Name implements store.Collection.
func (c *Collection) Name() string {
	return c.name
}

// List implements store.Collection.
func (c *Collection) List(ctx context.Context) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]store.Document, len(c.docs))
	for i, doc := range c.docs {
		out[i] = doc.Clone()
	}
	return out, nil
}

// Patch implements store.Collection.
func (c *Collection) Patch(ctx context.Context, id, field string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := store.Normalize(value)
	if err != nil {
		return errors.WrapValidation(field, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.byID[id]
	if !ok {
		return errors.NewNotFoundError(c.name, id)
	}
	c.docs[i][field] = normalized
	c.patches++
	return nil
}

// Get returns a copy of the document with the given id.
func (c *Collection) Get(id string) (store.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.docs[i].Clone(), true
}

// Patches returns how many patches were applied.
func (c *Collection) Patches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patches
}
