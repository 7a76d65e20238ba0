package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alexis-ROYER/tsd-default-export/internal/harness"
	"github.com/Alexis-ROYER/tsd-default-export/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Failed bool // only failing cases of a run
}

// RunDetail is a recorded run with its cases.
type RunDetail struct {
	store.Run
	Cases []harness.TestCase `json:"cases"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `Without arguments, list the runs recorded in the history database,
most recent first. With a run id, show the cases of that run.

Requires --history-db (or history_db in tsdcompat.yaml).

Examples:
  tsdcompat history --history-db history.db
  tsdcompat history --history-db history.db 0190b1a4-... --failed`,
		Args:          commandArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only show failing cases")

	return cmd
}

func showHistory(cmd *cobra.Command, opts *HistoryOptions, args []string) (err error) {
	if opts.cfg.HistoryDB == "" {
		return NewExitError(ExitCommandError, "no history database configured (set --history-db)")
	}

	st, err := store.Open(opts.cfg.HistoryDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer func() {
		err = errors.Join(err, st.Close())
	}()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	f := &OutputFormatter{Format: opts.Format, Writer: out}

	if len(args) == 0 {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list runs", err)
		}
		if runs == nil {
			runs = []store.Run{}
		}
		if opts.Format == "json" {
			return f.Success(runs)
		}
		printRuns(out, runs)
		return nil
	}

	run, err := st.GetRun(ctx, args[0])
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read run", err)
	}
	cases, err := st.Cases(ctx, run.ID, opts.Failed)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read cases", err)
	}
	if cases == nil {
		cases = []harness.TestCase{}
	}

	if opts.Format == "json" {
		return f.Success(RunDetail{Run: run, Cases: cases})
	}
	printRunDetail(out, run, cases)
	return nil
}

func printRuns(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %d cases  %d passed  %d failed\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Total, r.Passed, r.Failed)
	}
}

func printRunDetail(w io.Writer, run store.Run, cases []harness.TestCase) {
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "  started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	fmt.Fprintf(w, "  results:  %d passed, %d failed\n", run.Passed, run.Failed)

	for i := range cases {
		tc := &cases[i]
		fmt.Fprintf(w, "%s: %s\n", tc.Result, tc.Label())
		if tc.Error != "" {
			fmt.Fprintf(w, "%s\n", tc.Error)
		}
	}
}
