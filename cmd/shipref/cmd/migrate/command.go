// Package migrate implements the migrate command.
package migrate

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/shipref/cmd/application"
)

// Flags holds the migrate command flags.
type Flags struct {
	DryRun     bool
	ReportFile string
	Archive    bool
}

// NewCommand creates the migrate command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "migrate",
		GroupID: "core",
		Short:   "Rewrite legacy ship names to canonical ship ids",
		Args:    cobra.NoArgs,
		Long: `Migrate resolves every free-text ship name stored in users, missions and
planned missions against the canonical ship catalog and writes the matching
ship id next to the name. Names are never modified.

Resolution tries, in order: manual overrides, exact name, case-insensitive
name, slug, and finally a contains match in catalog order.

The report lists every mapping with the strategy that produced it and every
name that could not be resolved. The command exits non-zero when any name
was left unresolved or a collection could not be read, so a CI job fails
until the override table covers the remaining names.

Running the migration again is safe: references that already carry a
canonical id are left untouched.`,
		Example: `  shipref migrate --dry-run                 # Preview without writing
  shipref migrate                           # Migrate and print a table report
  shipref migrate --format markdown         # Markdown report for a ticket
  shipref migrate --report-file run.json    # Also save the JSON report
  shipref migrate --archive                 # Also upload the report to the archive bucket`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), app, flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "resolve and report without writing any document")
	cmd.Flags().StringVar(&flags.ReportFile, "report-file", "", "also write the report to this file (.json, .yaml or .md)")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "upload the JSON report to the configured archive bucket")

	return cmd
}
