// Package report renders migration reports for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/migrate"
)

// Format is a report rendering.
type Format string

const (
	// FormatTable renders aligned text tables.
	FormatTable Format = "table"
	// FormatMarkdown renders a markdown document.
	FormatMarkdown Format = "markdown"
	// FormatJSON renders the report as indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders the report as YAML.
	FormatYAML Format = "yaml"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatMarkdown, FormatJSON, FormatYAML}
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// MachineReadable reports whether the format is meant for other programs.
func (f Format) MachineReadable() bool {
	return f == FormatJSON || f == FormatYAML
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}

// ParseFormat converts a string to a Format. "md" and "yml" are accepted
// as aliases.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatMarkdown, FormatJSON, FormatYAML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errors.NewValidationError("format", s,
			fmt.Sprintf("invalid format %q: must be one of: table, markdown, json, yaml", s))
	}
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *migrate.Report, format Format) error {
	if r == nil {
		return errors.NewValidationError("report", nil, "report is required")
	}
	switch format {
	case FormatTable:
		return renderTable(w, r)
	case FormatMarkdown:
		return renderMarkdown(w, r)
	case FormatJSON:
		return renderJSON(w, r)
	case FormatYAML:
		return renderYAML(w, r)
	default:
		_, err := ParseFormat(string(format))
		return err
	}
}

func renderJSON(w io.Writer, r *migrate.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func renderYAML(w io.Writer, r *migrate.Report) error {
	data, err := yaml.MarshalWithOptions(r,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return errors.WrapParse("yaml", "", err)
	}
	_, err = w.Write(data)
	return err
}

// Summary returns a one-line description of the outcome.
func Summary(r *migrate.Report) string {
	var parts []string
	if r.DryRun {
		parts = append(parts, "(Dry run)")
	}
	parts = append(parts,
		fmt.Sprintf("%d documents", r.Totals.Total),
		fmt.Sprintf("%d updated", r.Totals.Updated),
		fmt.Sprintf("%d skipped", r.Totals.Skipped),
		fmt.Sprintf("%d failed", r.Totals.Failed),
		fmt.Sprintf("%d mapped", len(r.Mappings)),
		fmt.Sprintf("%d unmatched", len(r.Unmatched)),
	)
	return strings.Join(parts, ", ")
}

// collectionStatus describes how a collection fared.
func collectionStatus(c *migrate.CollectionReport) string {
	switch {
	case c.Error != "":
		return "error: " + c.Error
	case c.Disabled:
		return "disabled"
	case c.Failed > 0:
		return "partial"
	default:
		return "ok"
	}
}

func counterRow(name string, c migrate.Counters, status string) []string {
	return []string{
		name,
		fmt.Sprint(c.Total),
		fmt.Sprint(c.Updated),
		fmt.Sprint(c.Skipped),
		fmt.Sprint(c.Failed),
		fmt.Sprint(c.FieldsCanonical),
		status,
	}
}

var collectionHeaders = []string{"collection", "total", "updated", "skipped", "failed", "canonical", "status"}

func collectionRows(r *migrate.Report) [][]string {
	rows := make([][]string, 0, len(r.Collections)+1)
	for _, c := range r.Collections {
		rows = append(rows, counterRow(c.Name, c.Counters, collectionStatus(c)))
	}
	return append(rows, counterRow("total", r.Totals, ""))
}

var mappingHeaders = []string{"collection", "document", "field", "original_name", "resolved_name", "ship_id", "strategy"}

func mappingRows(r *migrate.Report) [][]string {
	rows := make([][]string, 0, len(r.Mappings))
	for _, m := range r.Mappings {
		rows = append(rows, []string{
			m.Collection, m.DocumentID, m.FieldPath, m.OriginalName, m.ResolvedName, m.CanonicalID, m.Strategy.String(),
		})
	}
	return rows
}

var unmatchedHeaders = []string{"collection", "document", "field", "name"}

func unmatchedRows(r *migrate.Report) [][]string {
	rows := make([][]string, 0, len(r.Unmatched))
	for _, u := range r.Unmatched {
		rows = append(rows, []string{u.Collection, u.DocumentID, u.FieldPath, u.Name})
	}
	return rows
}

var defectHeaders = []string{"name", "target_slug"}

func defectRows(r *migrate.Report) [][]string {
	rows := make([][]string, 0, len(r.OverrideDefects))
	for _, d := range r.OverrideDefects {
		rows = append(rows, []string{d.Name, d.TargetSlug})
	}
	return rows
}
