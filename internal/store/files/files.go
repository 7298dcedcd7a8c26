// Package files provides a flat-file document backend: one YAML or JSON
// file per collection inside a directory, each holding a list of documents.
// Every patch rewrites the file atomically through a temp file and rename.
package files

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/pkg/constants"
	"github.com/agentstation/shipref/pkg/errors"
)

// Backend serves collections from files in a directory.
type Backend struct {
	dir string

	mu          sync.Mutex
	collections map[string]*Collection
}

// New creates a files backend rooted at dir.
func New(dir string) (*Backend, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WrapIO("stat", dir, err)
	}
	if !info.IsDir() {
		return nil, errors.NewValidationError("store.path", dir, "not a directory")
	}
	return &Backend{dir: dir, collections: make(map[string]*Collection)}, nil
}

// Collection returns the named collection. It reads <name>.yaml, <name>.yml
// or <name>.json, whichever exists first; a collection with no file is empty.
func (b *Backend) Collection(name string) store.Collection {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.collections[name]; ok {
		return c
	}
	c := &Collection{name: name, path: b.resolvePath(name)}
	b.collections[name] = c
	return c
}

func (b *Backend) resolvePath(name string) string {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(b.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(b.dir, name+".yaml")
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	return nil
}

// Collection is a list of documents in one file.
type Collection struct {
	name string
	path string
	mu   sync.Mutex
}

// Name implements store.Collection.
func (c *Collection) Name() string {
	return c.name
}

// Path returns the file backing the collection.
func (c *Collection) Path() string {
	return c.path
}

// List implements store.Collection.
func (c *Collection) List(ctx context.Context) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

// Patch implements store.Collection.
func (c *Collection) Patch(ctx context.Context, id, field string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, err := c.read()
	if err != nil {
		return err
	}
	found := false
	for _, doc := range docs {
		if doc.ID() == id {
			// Stored as decoded so integer siblings are not rewritten as floats.
			doc[field] = value
			found = true
			break
		}
	}
	if !found {
		return errors.NewNotFoundError(c.name, id)
	}
	return c.write(docs)
}

func (c *Collection) isJSON() bool {
	return filepath.Ext(c.path) == ".json"
}

func (c *Collection) read() ([]store.Document, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", c.path, err)
	}

	var docs []store.Document
	if c.isJSON() {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&docs); err != nil {
			return nil, errors.WrapParse("json", c.path, err)
		}
		return docs, nil
	}
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, errors.WrapParse("yaml", c.path, err)
	}
	return docs, nil
}

func (c *Collection) write(docs []store.Document) error {
	var (
		data []byte
		err  error
	)
	if c.isJSON() {
		data, err = json.MarshalIndent(docs, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	} else {
		data, err = yaml.MarshalWithOptions(docs, yaml.Indent(2), yaml.IndentSequence(false))
	}
	if err != nil {
		return errors.WrapResource("encode", "collection", c.name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+c.name+"-*.tmp")
	if err != nil {
		return errors.WrapIO("create", c.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.WrapIO("write", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmpName, err)
	}
	if err := os.Chmod(tmpName, constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmpName, err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return errors.WrapIO("rename", c.path, err)
	}
	return nil
}
