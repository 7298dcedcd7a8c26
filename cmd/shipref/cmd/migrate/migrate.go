package migrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/shipref/cmd/application"
	"github.com/agentstation/shipref/internal/cmd/output"
	"github.com/agentstation/shipref/pkg/constants"
	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/migrate"
	"github.com/agentstation/shipref/pkg/report"
)

// Execute runs the migration and renders its report to out. The report is
// always rendered once the run started, even when the command then fails
// with a non-zero exit code.
func Execute(ctx context.Context, app application.Application, flags *Flags, out io.Writer) error {
	logger := app.Logger()

	format, err := reportFormat(app.OutputFormat())
	if err != nil {
		return err
	}

	source, err := app.CatalogSource(ctx)
	if err != nil {
		return err
	}
	overrides, err := app.Overrides()
	if err != nil {
		return err
	}
	backend, err := app.Backend(ctx)
	if err != nil {
		return err
	}

	opts := []migrate.Option{
		migrate.WithDryRun(flags.DryRun),
		migrate.WithPersistRetries(app.PersistRetries()),
		migrate.WithLogger(logger),
	}
	orchestrator := migrate.NewOrchestrator(source, overrides, migrate.DefaultMigrators(backend, opts...), opts...)

	rep, runErr := orchestrator.Run(ctx)
	if rep == nil {
		return runErr
	}

	if err := report.Render(out, rep, format); err != nil {
		return err
	}

	reportFile := flags.ReportFile
	if reportFile == "" {
		reportFile = app.ReportFile()
	}
	if reportFile != "" {
		if err := writeReportFile(reportFile, rep); err != nil {
			return err
		}
		logger.Info().Str("path", reportFile).Msg("Wrote migration report")
	}

	if flags.Archive {
		archiver, err := app.Archiver()
		if err != nil {
			return err
		}
		location, err := archiver.Upload(ctx, rep)
		if err != nil {
			return err
		}
		logger.Info().Str("location", location).Msg("Archived migration report")
	}

	if runErr != nil {
		return errors.NewExitError(1, runErr)
	}
	if code := rep.ExitCode(); code != 0 {
		return errors.NewExitError(code, failureReason(rep))
	}
	return nil
}

// reportFormat maps the configured output format onto a report format,
// auto-detecting when none was given.
func reportFormat(configured string) (report.Format, error) {
	if configured == "" {
		configured = string(output.DetectFormat(""))
	}
	return report.ParseFormat(configured)
}

// fileFormat picks the report format from a file extension; JSON is the default.
func fileFormat(path string) report.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return report.FormatYAML
	case ".md", ".markdown":
		return report.FormatMarkdown
	case ".txt":
		return report.FormatTable
	default:
		return report.FormatJSON
	}
}

func writeReportFile(path string, rep *migrate.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("mkdir", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("open", path, err)
	}
	if err := report.Render(f, rep, fileFormat(path)); err != nil {
		_ = f.Close()
		return err
	}
	return errors.WrapIO("close", path, f.Close())
}

func failureReason(rep *migrate.Report) error {
	var parts []string
	if n := len(rep.Unmatched); n > 0 {
		parts = append(parts, fmt.Sprintf("%d references (%s)", n, strings.Join(rep.UnmatchedNames(), ", ")))
	}
	for _, c := range rep.Collections {
		if c.Error != "" {
			parts = append(parts, fmt.Sprintf("collection %s could not be read", c.Name))
		}
	}
	msg := strings.Join(parts, "; ")
	if len(rep.Unmatched) > 0 {
		return fmt.Errorf("%w: %s", errors.ErrUnmatchedNames, msg)
	}
	return errors.New(msg)
}
