// Package catalog provides the sources the canonical ship catalog and the
// override table can be loaded from: the embedded defaults, a YAML or JSON
// file, or a postgres table.
package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/shipref/internal/embedded"
	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/ships"
)

// Source kinds accepted by configuration.
const (
	KindEmbedded = "embedded"
	KindFile     = "file"
	KindPostgres = "postgres"
)

// FSSource reads a YAML (or JSON) list of ships from a filesystem.
type FSSource struct {
	fsys fs.FS
	path string
	name string
}

// NewEmbeddedSource returns the catalog compiled into the binary.
func NewEmbeddedSource() *FSSource {
	return &FSSource{fsys: embedded.FS, path: embedded.CatalogFile, name: KindEmbedded}
}

// NewFileSource returns a source reading the file at path.
func NewFileSource(path string) *FSSource {
	return &FSSource{
		fsys: os.DirFS(filepath.Dir(path)),
		path: filepath.Base(path),
		name: KindFile + ":" + path,
	}
}

// Name implements ships.Source.
func (s *FSSource) Name() string {
	return s.name
}

// Ships implements ships.Source. Entries keep file order.
func (s *FSSource) Ships(ctx context.Context) ([]ships.ShipRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fsys, s.path)
	if err != nil {
		return nil, errors.WrapIO("read", s.path, err)
	}

	var refs []ships.ShipRef
	if err := yaml.Unmarshal(data, &refs); err != nil {
		return nil, errors.WrapParse("yaml", s.path, err)
	}
	return refs, nil
}

// LoadOverrides returns the embedded override table merged with the file at
// path, if any. File entries win over embedded ones.
func LoadOverrides(path string) (ships.Overrides, error) {
	data, err := fs.ReadFile(embedded.FS, embedded.OverridesFile)
	if err != nil {
		return nil, errors.WrapIO("read", embedded.OverridesFile, err)
	}
	overrides, err := ships.ParseOverrides(data, embedded.OverridesFile)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return overrides, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	fromFile, err := ships.ParseOverrides(data, path)
	if err != nil {
		return nil, err
	}
	return overrides.Merge(fromFile), nil
}
