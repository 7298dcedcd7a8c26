package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/shipref/pkg/migrate"
)

// title turns a snake_case key into a column header.
func title(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

func titles(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = title(k)
	}
	return out
}

type tableSection struct {
	name    string
	headers []string
	rows    [][]string
	numeric bool
}

func renderTable(w io.Writer, r *migrate.Report) error {
	heading := "Ship reference migration"
	if r.DryRun {
		heading += " (dry run, nothing written)"
	}
	fmt.Fprintln(w, heading)
	fmt.Fprintf(w, "Catalog: %s (%d ships)\n", r.CatalogSource, r.CatalogSize)
	fmt.Fprintf(w, "Started: %s  Duration: %s\n\n", r.StartedAt.Format(time.RFC3339), r.Duration().Round(time.Millisecond))

	sections := []tableSection{
		{"Collections", collectionHeaders, collectionRows(r), true},
		{fmt.Sprintf("Mappings (%d)", len(r.Mappings)), mappingHeaders, mappingRows(r), false},
		{fmt.Sprintf("Unmatched (%d)", len(r.Unmatched)), unmatchedHeaders, unmatchedRows(r), false},
	}
	if len(r.OverrideDefects) > 0 {
		sections = append(sections, tableSection{
			fmt.Sprintf("Override defects (%d)", len(r.OverrideDefects)), defectHeaders, defectRows(r), false,
		})
	}

	for _, s := range sections {
		fmt.Fprintln(w, s.name)
		if len(s.rows) == 0 {
			fmt.Fprint(w, "  none\n\n")
			continue
		}
		if err := writeTable(w, titles(s.headers), s.rows, s.numeric); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, Summary(r))
	return nil
}

// writeTable renders one table. Numeric tables right-align every column
// except the first and last.
func writeTable(w io.Writer, headers []string, rows [][]string, numeric bool) error {
	config := tablewriter.Config{}
	if numeric {
		align := make([]tw.Align, len(headers))
		for i := range align {
			align[i] = tw.AlignRight
		}
		align[0] = tw.AlignLeft
		align[len(align)-1] = tw.AlignLeft
		config.Row.Alignment = tw.CellAlignment{PerColumn: align}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	table.Header(header...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}
