package ships

import "strings"

// Strategy names the resolution pass that produced a match.
type Strategy string

// String returns the string representation of a strategy.
func (s Strategy) String() string {
	return string(s)
}

// Resolution passes, in the order they are attempted.
const (
	StrategyManualOverride  Strategy = "manual-override"
	StrategyExact           Strategy = "exact"
	StrategyCaseInsensitive Strategy = "case-insensitive"
	StrategySlug            Strategy = "slug"
	StrategyContains        Strategy = "contains"
)

// Strategies lists every pass in resolution order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyManualOverride,
		StrategyExact,
		StrategyCaseInsensitive,
		StrategySlug,
		StrategyContains,
	}
}

// MatchResult is the outcome of a successful resolution.
type MatchResult struct {
	ID          string   `json:"id" yaml:"id"`
	MatchedName string   `json:"matched_name" yaml:"matched_name"`
	Strategy    Strategy `json:"strategy" yaml:"strategy"`
}

func matched(ref ShipRef, s Strategy) *MatchResult {
	return &MatchResult{ID: ref.ID, MatchedName: ref.Name, Strategy: s}
}

// Resolve maps a free-text ship name onto the catalog. It returns nil when
// the name is blank or no pass matches. Passes run in a fixed order and the
// first match wins:
//
//  1. manual override (target slug must exist, otherwise fall through)
//  2. exact name
//  3. case-insensitive name
//  4. slug of the name
//  5. contains, either direction, case-insensitive, in catalog order
func Resolve(name string, idx *Index, overrides Overrides) *MatchResult {
	if strings.TrimSpace(name) == "" || idx == nil {
		return nil
	}

	if slug, ok := overrides[name]; ok {
		if ref, ok := idx.BySlug(slug); ok {
			return matched(ref, StrategyManualOverride)
		}
	}

	if ref, ok := idx.ByName(name); ok {
		return matched(ref, StrategyExact)
	}

	lower := strings.ToLower(name)
	if ref, ok := idx.ByNameLower(lower); ok {
		return matched(ref, StrategyCaseInsensitive)
	}

	if ref, ok := idx.BySlug(Slug(name)); ok {
		return matched(ref, StrategySlug)
	}

	seen := make(map[string]bool, len(idx.entries))
	for _, entry := range idx.entries {
		if seen[entry.Name] {
			continue
		}
		seen[entry.Name] = true

		catalogLower := strings.ToLower(entry.Name)
		if catalogLower == "" {
			continue
		}
		if strings.Contains(lower, catalogLower) || strings.Contains(catalogLower, lower) {
			// A repeated name resolves to the entry that won the name map.
			ref, _ := idx.ByName(entry.Name)
			return matched(ref, StrategyContains)
		}
	}

	return nil
}

// Resolver binds an index and override table for repeated lookups.
type Resolver struct {
	index     *Index
	overrides Overrides
}

// NewResolver creates a Resolver over idx and overrides.
func NewResolver(idx *Index, overrides Overrides) *Resolver {
	return &Resolver{index: idx, overrides: overrides}
}

// Resolve resolves name against the bound index and overrides.
func (r *Resolver) Resolve(name string) *MatchResult {
	return Resolve(name, r.index, r.overrides)
}

// Index returns the bound index.
func (r *Resolver) Index() *Index {
	return r.index
}
