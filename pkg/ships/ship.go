// Package ships holds the canonical ship catalog index and the name
// resolver that maps free-text legacy ship names onto catalog entries.
//
// The index is built once per run from a catalog Source and is read-only
// afterwards, so a single *Index can be shared by every migrator.
package ships

import (
	"context"

	"github.com/google/uuid"
)

// ShipRef is one canonical catalog entry.
type ShipRef struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Slug string `json:"slug" yaml:"slug"`
}

// Source provides the full canonical catalog. It is queried once per run.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Ships returns every catalog entry in the source's natural order.
	Ships(ctx context.Context) ([]ShipRef, error)
}

// IsCanonicalID reports whether id is a canonical ship id (hyphenated UUID text).
// Fields already carrying such an id are treated as migrated.
func IsCanonicalID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
