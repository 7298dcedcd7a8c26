package ships

import (
	"context"
	"strings"

	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/logging"
)

// Index is the lookup structure built from the full catalog.
// It is safe for concurrent reads and must not be modified after BuildIndex returns.
type Index struct {
	byName      map[string]ShipRef
	byNameLower map[string]ShipRef
	bySlug      map[string]ShipRef
	byID        map[string]ShipRef

	// entries keeps catalog order for the contains pass.
	entries    []ShipRef
	duplicates []Duplicate
}

// Duplicate records a catalog key that appeared more than once.
// The later entry replaced the earlier one in the map named by Key.
type Duplicate struct {
	Key      string  `json:"key" yaml:"key"`
	Value    string  `json:"value" yaml:"value"`
	Replaced ShipRef `json:"replaced" yaml:"replaced"`
	By       ShipRef `json:"by" yaml:"by"`
}

// BuildIndex loads the catalog from source and indexes every entry by exact
// name, lowercase name, slug and id. A load failure or an empty catalog is
// returned as a *errors.CatalogError.
func BuildIndex(ctx context.Context, source Source) (*Index, error) {
	refs, err := source.Ships(ctx)
	if err != nil {
		return nil, errors.NewCatalogError(source.Name(), err)
	}
	if len(refs) == 0 {
		return nil, errors.NewCatalogError(source.Name(), errors.New("catalog is empty"))
	}

	idx, err := NewIndex(refs)
	if err != nil {
		return nil, errors.NewCatalogError(source.Name(), err)
	}

	logger := logging.FromContext(ctx)
	for _, d := range idx.duplicates {
		logger.Warn().
			Str("key", d.Key).
			Str("value", d.Value).
			Str("replaced_id", d.Replaced.ID).
			Str("by_id", d.By.ID).
			Msg("Duplicate catalog key, later entry wins")
	}
	for _, ref := range idx.NonCanonicalIDs() {
		logger.Warn().
			Str("id", ref.ID).
			Str("name", ref.Name).
			Msg("Catalog id is not a UUID, references to it will be re-resolved on every run")
	}
	logger.Info().
		Str("source", source.Name()).
		Int("ship_count", idx.Len()).
		Msg("Loaded ship catalog")

	return idx, nil
}

// NewIndex indexes refs in order. Entries missing an id, name or slug are rejected.
func NewIndex(refs []ShipRef) (*Index, error) {
	idx := &Index{
		byName:      make(map[string]ShipRef, len(refs)),
		byNameLower: make(map[string]ShipRef, len(refs)),
		bySlug:      make(map[string]ShipRef, len(refs)),
		byID:        make(map[string]ShipRef, len(refs)),
		entries:     make([]ShipRef, 0, len(refs)),
	}

	for i, ref := range refs {
		switch {
		case ref.ID == "":
			return nil, errors.NewValidationError("id", i, "catalog entry has no id")
		case ref.Name == "":
			return nil, errors.NewValidationError("name", ref.ID, "catalog entry has no name")
		case ref.Slug == "":
			return nil, errors.NewValidationError("slug", ref.ID, "catalog entry has no slug")
		}

		idx.put(idx.byName, "name", ref.Name, ref)
		idx.put(idx.byNameLower, "name_lower", strings.ToLower(ref.Name), ref)
		idx.put(idx.bySlug, "slug", ref.Slug, ref)
		idx.put(idx.byID, "id", ref.ID, ref)
		idx.entries = append(idx.entries, ref)
	}

	return idx, nil
}

func (idx *Index) put(m map[string]ShipRef, key, value string, ref ShipRef) {
	if prev, ok := m[value]; ok && prev != ref {
		idx.duplicates = append(idx.duplicates, Duplicate{Key: key, Value: value, Replaced: prev, By: ref})
	}
	m[value] = ref
}

// Len returns the number of catalog entries indexed, duplicates included.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// ByName looks up an exact, case-sensitive name.
func (idx *Index) ByName(name string) (ShipRef, bool) {
	ref, ok := idx.byName[name]
	return ref, ok
}

// ByNameLower looks up an already lowercased name.
func (idx *Index) ByNameLower(name string) (ShipRef, bool) {
	ref, ok := idx.byNameLower[name]
	return ref, ok
}

// BySlug looks up a slug.
func (idx *Index) BySlug(slug string) (ShipRef, bool) {
	ref, ok := idx.bySlug[slug]
	return ref, ok
}

// ByID looks up a canonical id.
func (idx *Index) ByID(id string) (ShipRef, bool) {
	ref, ok := idx.byID[id]
	return ref, ok
}

// Entries returns a copy of the catalog entries in catalog order.
func (idx *Index) Entries() []ShipRef {
	out := make([]ShipRef, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Duplicates returns the keys that collided while indexing.
func (idx *Index) Duplicates() []Duplicate {
	out := make([]Duplicate, len(idx.duplicates))
	copy(out, idx.duplicates)
	return out
}

// NonCanonicalIDs returns the entries whose id is not a canonical UUID, in
// catalog order. Stored references to them never count as migrated.
func (idx *Index) NonCanonicalIDs() []ShipRef {
	var out []ShipRef
	for _, ref := range idx.entries {
		if !IsCanonicalID(ref.ID) {
			out = append(out, ref)
		}
	}
	return out
}
