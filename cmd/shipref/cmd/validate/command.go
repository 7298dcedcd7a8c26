// Package validate implements the validate command, which checks the
// catalog and the override table before a migration runs.
package validate

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

// Issue kinds.
const (
	KindOverride  = "override"
	KindDuplicate = "duplicate"
	KindSlug      = "slug"
	KindID        = "id"
)

// Issue is one problem found in the catalog or the overrides.
type Issue struct {
	Kind   string `json:"kind" yaml:"kind"`
	Key    string `json:"key" yaml:"key"`
	Detail string `json:"detail" yaml:"detail"`
}

// NewCommand creates the validate command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Check the ship catalog and the override table",
		Args:    cobra.NoArgs,
		Long: `Validate loads the catalog and the merged override table and reports:

  override   an override whose target slug is not in the catalog
  duplicate  a name, slug or id that appears more than once in the catalog
  slug       a catalog slug that differs from the slug of its name
  id         a catalog id that is not a UUID, so references never settle

Exits non-zero when any issue is found.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

// Execute validates the catalog and overrides and writes the issues to out.
func Execute(ctx context.Context, app application.Application, out io.Writer) error {
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

	issues := Check(idx, overrides)

	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	format = output.DetectFormat(string(format))
	if len(issues) == 0 && format != output.FormatJSON && format != output.FormatYAML {
		fmt.Fprintf(out, "Catalog %s is valid: %d ships, %d overrides\n", source.Name(), idx.Len(), len(overrides))
		return nil
	}
	if err := output.NewFormatter(format).Format(out, issues); err != nil {
		return err
	}

	if len(issues) > 0 {
		return errors.NewExitError(1, errors.NewValidationError("catalog", source.Name(),
			fmt.Sprintf("%d issues found", len(issues))))
	}
	return nil
}

// Check returns every issue found in idx and overrides.
func Check(idx *ships.Index, overrides ships.Overrides) []Issue {
	issues := []Issue{}
	for _, d := range overrides.Validate(idx) {
		issues = append(issues, Issue{
			Kind:   KindOverride,
			Key:    d.Name,
			Detail: fmt.Sprintf("target slug %q is not in the catalog", d.TargetSlug),
		})
	}
	for _, d := range idx.Duplicates() {
		issues = append(issues, Issue{
			Kind:   KindDuplicate,
			Key:    d.Value,
			Detail: fmt.Sprintf("%s %s replaced by %s", d.Key, d.Replaced.ID, d.By.ID),
		})
	}
	for _, ref := range idx.Entries() {
		if want := ships.Slug(ref.Name); ref.Slug != want {
			issues = append(issues, Issue{
				Kind:   KindSlug,
				Key:    ref.Name,
				Detail: fmt.Sprintf("slug %q, expected %q", ref.Slug, want),
			})
		}
	}
	for _, ref := range idx.NonCanonicalIDs() {
		issues = append(issues, Issue{
			Kind:   KindID,
			Key:    ref.Name,
			Detail: fmt.Sprintf("id %q is not a UUID", ref.ID),
		})
	}
	return issues
}
