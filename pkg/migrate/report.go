package migrate

import (
	"time"

	"github.com/agentstation/shipref/pkg/ships"
)

// Counters are the per-collection outcome counts. Total, Updated, Skipped
// and Failed count documents; FieldsCanonical counts ship reference fields
// that already carried a canonical id and were left alone.
type Counters struct {
	Total           int `json:"total" yaml:"total"`
	Updated         int `json:"updated" yaml:"updated"`
	Skipped         int `json:"skipped" yaml:"skipped"`
	Failed          int `json:"failed" yaml:"failed"`
	FieldsCanonical int `json:"fields_canonical" yaml:"fields_canonical"`
}

func (c *Counters) add(other Counters) {
	c.Total += other.Total
	c.Updated += other.Updated
	c.Skipped += other.Skipped
	c.Failed += other.Failed
	c.FieldsCanonical += other.FieldsCanonical
}

// CollectionReport is the outcome for one collection.
type CollectionReport struct {
	Name     string `json:"name" yaml:"name"`
	Counters `yaml:",inline"`
	// Disabled marks a collection whose ship references are not migrated.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	// Error is set when the collection could not be read.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Mapping is the audit record of one resolved ship reference.
type Mapping struct {
	Collection   string         `json:"collection" yaml:"collection"`
	DocumentID   string         `json:"document_id" yaml:"document_id"`
	FieldPath    string         `json:"field_path" yaml:"field_path"`
	OriginalName string         `json:"original_name" yaml:"original_name"`
	ResolvedName string         `json:"resolved_name" yaml:"resolved_name"`
	CanonicalID  string         `json:"canonical_id" yaml:"canonical_id"`
	Strategy     ships.Strategy `json:"strategy" yaml:"strategy"`
}

// UnmatchedEntry is a ship name no resolution pass could map.
type UnmatchedEntry struct {
	Collection string `json:"collection" yaml:"collection"`
	DocumentID string `json:"document_id" yaml:"document_id"`
	FieldPath  string `json:"field_path" yaml:"field_path"`
	Name       string `json:"name" yaml:"name"`
}

// Report accumulates the outcome of a run. It is written by one goroutine
// during the run and must be treated as read-only once Run returns.
type Report struct {
	StartedAt       time.Time              `json:"started_at" yaml:"started_at"`
	CompletedAt     time.Time              `json:"completed_at" yaml:"completed_at"`
	DryRun          bool                   `json:"dry_run" yaml:"dry_run"`
	CatalogSource   string                 `json:"catalog_source" yaml:"catalog_source"`
	CatalogSize     int                    `json:"catalog_size" yaml:"catalog_size"`
	Collections     []*CollectionReport    `json:"collections" yaml:"collections"`
	Totals          Counters               `json:"totals" yaml:"totals"`
	Mappings        []Mapping              `json:"mappings" yaml:"mappings"`
	Unmatched       []UnmatchedEntry       `json:"unmatched" yaml:"unmatched"`
	OverrideDefects []ships.OverrideDefect `json:"override_defects,omitempty" yaml:"override_defects,omitempty"`
}

// NewReport creates an empty report.
func NewReport(dryRun bool, startedAt time.Time) *Report {
	return &Report{
		StartedAt: startedAt,
		DryRun:    dryRun,
		Mappings:  []Mapping{},
		Unmatched: []UnmatchedEntry{},
	}
}

// Collection returns the report for name, adding it in first-seen order.
func (r *Report) Collection(name string) *CollectionReport {
	for _, c := range r.Collections {
		if c.Name == name {
			return c
		}
	}
	c := &CollectionReport{Name: name}
	r.Collections = append(r.Collections, c)
	return c
}

// AddMapping records a resolved reference.
func (r *Report) AddMapping(m Mapping) {
	r.Mappings = append(r.Mappings, m)
}

// AddUnmatched records an unresolved reference.
func (r *Report) AddUnmatched(u UnmatchedEntry) {
	r.Unmatched = append(r.Unmatched, u)
}

// Finalize sums the run-wide totals and stamps the completion time.
func (r *Report) Finalize(completedAt time.Time) {
	r.Totals = Counters{}
	for _, c := range r.Collections {
		r.Totals.add(c.Counters)
	}
	r.CompletedAt = completedAt
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// HasCollectionErrors reports whether any collection could not be read.
func (r *Report) HasCollectionErrors() bool {
	for _, c := range r.Collections {
		if c.Error != "" {
			return true
		}
	}
	return false
}

// Success reports whether every encountered name resolved and every
// collection could be read. Persistence failures are counted but do not
// fail the run; a rerun picks those documents up again.
func (r *Report) Success() bool {
	return len(r.Unmatched) == 0 && !r.HasCollectionErrors()
}

// ExitCode returns 0 for a successful run and 1 otherwise.
func (r *Report) ExitCode() int {
	if r.Success() {
		return 0
	}
	return 1
}

// UnmatchedNames returns the distinct unmatched names in first-seen order.
func (r *Report) UnmatchedNames() []string {
	seen := make(map[string]bool, len(r.Unmatched))
	var names []string
	for _, u := range r.Unmatched {
		if !seen[u.Name] {
			seen[u.Name] = true
			names = append(names, u.Name)
		}
	}
	return names
}

// StrategyCounts returns how many mappings each strategy produced.
func (r *Report) StrategyCounts() map[ships.Strategy]int {
	counts := make(map[ships.Strategy]int, len(ships.Strategies()))
	for _, m := range r.Mappings {
		counts[m.Strategy]++
	}
	return counts
}
