package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alexis-ROYER/tsd-default-export/internal/config"
	"github.com/Alexis-ROYER/tsd-default-export/internal/harness"
	"github.com/Alexis-ROYER/tsd-default-export/internal/matrix"
	"github.com/Alexis-ROYER/tsd-default-export/internal/render"
	"github.com/Alexis-ROYER/tsd-default-export/internal/report"
	"github.com/Alexis-ROYER/tsd-default-export/internal/store"
)

// RunSummary is the result of a completed run.
type RunSummary struct {
	report.Summary
	Report  string  `json:"report"`
	Minutes float64 `json:"minutes"`
	RunID   string  `json:"run_id,omitempty"`
}

func (s RunSummary) String() string {
	text := fmt.Sprintf("%d test cases executed in %.1f minutes: %d passed, %d failed",
		s.Total, s.Minutes, s.Passed, s.Failed)
	if s.RunID != "" {
		text += fmt.Sprintf("\nRecorded as run %s", s.RunID)
	}
	return text
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every test case of the matrix",
		Long: `Run every test case of the matrix and write all-test-cases.csv.

A test case fails when tsc or node exits with a nonzero status; the run
goes on. The run stops when a case cannot be prepared or archived, when a
process cannot be started, or when node exits with status 0 without
printing the marker.

Examples:
  tsdcompat run
  tsdcompat run --matrix matrix.cue --history-db history.db
  tsdcompat run --project-dir ../lib --no-color`,
		Args:          commandArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(cmd, rootOpts)
		},
	}
}

func runMatrix(cmd *cobra.Command, opts *RootOptions) error {
	cfg := opts.cfg
	logger := opts.logger

	m, err := loadMatrix(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load matrix", err)
	}
	templates, err := render.Load(cfg.TemplatesDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load templates", err)
	}

	out := cmd.OutOrStdout()
	runOpts := []harness.Option{
		harness.WithLogger(logger),
		harness.WithClock(opts.Clock),
	}
	if opts.Format == "text" {
		fmt.Fprintf(out, "Running %d test cases:\n", m.Count())
		runOpts = append(runOpts, harness.WithProgress(newProgressPrinter(out, cfg.NoColor).Print))
	}

	runner := harness.NewRunner(harness.Config{
		DistDir:    cfg.DistDir,
		ResultsDir: cfg.ResultsDir,
		Node:       cfg.Node,
		TscScript:  cfg.TscScript,
		Marker:     cfg.Marker,
	}, templates, opts.executor(), runOpts...)

	started := opts.Clock.Now()
	cases, err := runner.RunAll(cmd.Context(), m)
	if err != nil {
		return WrapExitError(ExitFailure, "harness failure", err)
	}
	finished := opts.Clock.Now()

	summary := RunSummary{
		Summary: report.Summarize(cases),
		Report:  filepath.Join(cfg.ResultsDir, report.FileName),
		Minutes: finished.Sub(started).Minutes(),
	}

	if opts.Format == "text" {
		fmt.Fprintf(out, "Writing results to '%s'\n", summary.Report)
	}
	if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
		return WrapExitError(ExitFailure, "failed to create results directory", err)
	}
	if err := report.WriteFile(summary.Report, cases); err != nil {
		return WrapExitError(ExitFailure, "failed to write report", err)
	}
	logger.Info("report written", zap.String("path", summary.Report))

	if cfg.HistoryDB != "" {
		id, err := recordRun(cmd.Context(), cfg.HistoryDB, started, finished, cases)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to record run", err)
		}
		summary.RunID = id
		logger.Info("run recorded", zap.String("run_id", id), zap.String("db", cfg.HistoryDB))
	}

	f := &OutputFormatter{Format: opts.Format, Writer: out}
	return f.Success(summary)
}

func loadMatrix(cfg *config.Config) (*matrix.Matrix, error) {
	if cfg.Matrix == "" {
		return matrix.Default(), nil
	}
	return matrix.Load(cfg.Matrix)
}

func recordRun(ctx context.Context, path string, started, finished time.Time, cases []harness.TestCase) (id string, err error) {
	st, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		err = errors.Join(err, st.Close())
	}()

	run := &store.Run{StartedAt: started, FinishedAt: finished}
	if err := st.SaveRun(ctx, run, cases); err != nil {
		return "", err
	}
	return run.ID, nil
}
