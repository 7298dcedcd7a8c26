package report

import (
	"fmt"
	"io"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/shipref/pkg/migrate"
)

func renderMarkdown(w io.Writer, r *migrate.Report) error {
	doc := md.NewMarkdown(w)

	heading := "Ship reference migration"
	if r.DryRun {
		heading += " (dry run)"
	}
	doc.H1(heading).LF()

	summary := []string{
		fmt.Sprintf("Catalog: %s (%d ships)", md.Code(r.CatalogSource), r.CatalogSize),
		fmt.Sprintf("Started: %s", r.StartedAt.Format(time.RFC3339)),
		fmt.Sprintf("Duration: %s", r.Duration().Round(time.Millisecond)),
		fmt.Sprintf("Result: %s", Summary(r)),
	}
	if r.DryRun {
		summary = append(summary, md.Bold("Dry run: no documents were written"))
	}
	doc.BulletList(summary...).LF()

	doc.H2("Collections").LF()
	doc.Table(md.TableSet{Header: titles(collectionHeaders), Rows: collectionRows(r)}).LF()

	section(doc, "Mappings", titles(mappingHeaders), mappingRows(r))
	section(doc, "Unmatched names", titles(unmatchedHeaders), unmatchedRows(r))
	if len(r.OverrideDefects) > 0 {
		section(doc, "Override defects", titles(defectHeaders), defectRows(r))
	}

	return doc.Build()
}

func section(doc *md.Markdown, name string, headers []string, rows [][]string) {
	doc.H2(fmt.Sprintf("%s (%d)", name, len(rows))).LF()
	if len(rows) == 0 {
		doc.PlainText("None.").LF()
		return
	}
	doc.Table(md.TableSet{Header: headers, Rows: rows}).LF()
}
