// Package resolve implements the resolve command, which shows how names
// would be resolved without touching any document.
package resolve

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/shipref/cmd/application"
	"github.com/agentstation/shipref/internal/cmd/output"
	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/ships"
)

// Unmatched is the strategy shown for names no pass resolved.
const Unmatched = "unmatched"

// Resolution is one row of resolve output.
type Resolution struct {
	Name     string `json:"name" yaml:"name"`
	Ship     string `json:"ship" yaml:"ship"`
	ShipID   string `json:"ship_id" yaml:"ship_id"`
	Strategy string `json:"strategy" yaml:"strategy"`
}

// NewCommand creates the resolve command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "resolve <name>...",
		GroupID: "core",
		Short:   "Resolve ship names against the catalog",
		Args:    cobra.MinimumNArgs(1),
		Long: `Resolve runs each name through the same resolution passes the migration
uses and prints the ship it maps to and the strategy that matched. Use it to
check a new override before running the migration. Exits non-zero when any
name is unresolved.`,
		Example: `  shipref resolve "Gladius PE" "Idris-K"
  shipref resolve --format json Zeppelin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), app, args, cmd.OutOrStdout())
		},
	}
}

// Execute resolves names and writes the results to out.
func Execute(ctx context.Context, app application.Application, names []string, out io.Writer) error {
	source, err := app.CatalogSource(ctx)
	if err != nil {
		return err
	}
	overrides, err := app.Overrides()
	if err != nil {
		return err
	}
	idx, err := ships.BuildIndex(ctx, source)
	if err != nil {
		return err
	}

	results, unmatched := Resolve(ships.NewResolver(idx, overrides), names)

	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	if err := output.NewFormatter(output.DetectFormat(string(format))).Format(out, results); err != nil {
		return err
	}

	if unmatched > 0 {
		return errors.NewExitError(1, fmt.Errorf("%w: %d of %d", errors.ErrUnmatchedNames, unmatched, len(names)))
	}
	return nil
}

// Resolve resolves every name and counts the unresolved ones.
func Resolve(resolver *ships.Resolver, names []string) ([]Resolution, int) {
	results := make([]Resolution, 0, len(names))
	unmatched := 0
	for _, name := range names {
		row := Resolution{Name: name, Strategy: Unmatched}
		if match := resolver.Resolve(name); match != nil {
			row.Ship = match.MatchedName
			row.ShipID = match.ID
			row.Strategy = match.Strategy.String()
		} else {
			unmatched++
		}
		results = append(results, row)
	}
	return results, unmatched
}
