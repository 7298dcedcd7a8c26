package ships

import (
	"maps"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/shipref/pkg/errors"
)

// Overrides maps an exact legacy name to the slug of its canonical ship.
// It is hand-maintained data, consulted before any automatic matching.
type Overrides map[string]string

// OverrideDefect is an override whose target slug is missing from the catalog.
type OverrideDefect struct {
	Name       string `json:"name" yaml:"name"`
	TargetSlug string `json:"target_slug" yaml:"target_slug"`
}

// ParseOverrides decodes a YAML mapping of legacy name to slug.
// file is only used in error messages.
func ParseOverrides(data []byte, file string) (Overrides, error) {
	overrides := Overrides{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, errors.WrapParse("yaml", file, err)
	}
	for name, slug := range overrides {
		if slug == "" {
			return nil, errors.NewValidationError("overrides", name, "override has an empty target slug")
		}
	}
	return overrides, nil
}

// Merge returns a new table with other's entries layered over o.
func (o Overrides) Merge(other Overrides) Overrides {
	merged := make(Overrides, len(o)+len(other))
	maps.Copy(merged, o)
	maps.Copy(merged, other)
	return merged
}

// Validate returns every override whose target slug is not in the index,
// sorted by name. Such overrides fall through to automatic matching.
func (o Overrides) Validate(idx *Index) []OverrideDefect {
	var defects []OverrideDefect
	for _, name := range slices.Sorted(maps.Keys(o)) {
		if _, ok := idx.BySlug(o[name]); !ok {
			defects = append(defects, OverrideDefect{Name: name, TargetSlug: o[name]})
		}
	}
	return defects
}
