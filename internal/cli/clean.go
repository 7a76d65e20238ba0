package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alexis-ROYER/tsd-default-export/internal/clean"
)

// CleanResult lists what a clean removed.
type CleanResult struct {
	Removed []string `json:"removed"`
}

func (r CleanResult) String() string {
	if len(r.Removed) == 0 {
		return "Nothing to clean."
	}
	return "Removed:\n  " + strings.Join(r.Removed, "\n  ")
}

// NewCleanCommand creates the clean subcommand.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete generated sources and the results directory",
		Long: `Delete the generated .js and .ts files directly under the dist directory
and remove the results directory with every case archive and the report.

Examples:
  tsdcompat clean
  tsdcompat clean --project-dir ../lib`,
		Args:          commandArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, rootOpts)
		},
	}
}

// NewCleanRootCommand creates the standalone tsdclean command.
func NewCleanRootCommand() *cobra.Command {
	return NewCleanRootCommandWithOptions(&RootOptions{})
}

// NewCleanRootCommandWithOptions creates the tsdclean command around opts.
func NewCleanRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := NewCleanCommand(opts)
	cmd.Use = "tsdclean"
	cmd.PersistentPreRunE = opts.setup
	addGlobalFlags(cmd.PersistentFlags(), opts)
	cmd.SetFlagErrorFunc(flagError)
	return cmd
}

func runClean(cmd *cobra.Command, opts *RootOptions) error {
	cfg := opts.cfg

	removed, err := clean.Clean(cfg.DistDir, cfg.ResultsDir)
	for _, path := range removed {
		opts.logger.Debug("removed", zap.String("path", path))
	}
	if err != nil {
		return WrapExitError(ExitFailure, "clean failed", err)
	}
	if removed == nil {
		removed = []string{}
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := f.Success(CleanResult{Removed: removed}); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
