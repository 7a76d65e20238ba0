package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Alexis-ROYER/tsd-default-export/internal/clock"
	"github.com/Alexis-ROYER/tsd-default-export/internal/config"
	"github.com/Alexis-ROYER/tsd-default-export/internal/logging"
	"github.com/Alexis-ROYER/tsd-default-export/internal/process"
)

// RootOptions holds global flags and the state resolved before a command runs.
type RootOptions struct {
	Format     string // "json" | "text"
	ConfigFile string

	// Executor overrides subprocess execution (for testing).
	// If nil, a process.Exec rooted at the project directory is used.
	Executor process.Executor
	// Clock overrides the progress clock (for testing).
	Clock clock.Clock

	cfg    *config.Config
	logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the tsdcompat command. Without a subcommand it
// runs the whole matrix.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the tsdcompat command around opts.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tsdcompat",
		Short: "Default-export compatibility harness for TypeScript declarations",
		Long: `Run every combination of .js default export, .d.ts default export,
.ts default import, tsc options and Node.js options through the TypeScript
compiler and Node.js, and record which combinations work.

Each case is archived under the results directory and the whole run is
summarized in all-test-cases.csv.

Exit codes:
  0 - Run completed (failing test cases are part of the results)
  1 - Harness failure
  2 - Command or configuration error`,
		Args:              commandArgs(cobra.NoArgs),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(cmd, opts)
		},
	}

	addGlobalFlags(cmd.PersistentFlags(), opts)
	cmd.SetFlagErrorFunc(flagError)

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewCleanCommand(opts))
	cmd.AddCommand(NewMatrixCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

func addGlobalFlags(fs *pflag.FlagSet, opts *RootOptions) {
	fs.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	fs.StringVar(&opts.ConfigFile, "config", "", "config file (default <project-dir>/tsdcompat.yaml)")

	fs.String(config.FlagName(config.KeyProjectDir), "", "project directory (default current directory)")
	fs.String(config.FlagName(config.KeyDistDir), "", "directory receiving the generated sources (default <project-dir>/dist)")
	fs.String(config.FlagName(config.KeyResultsDir), "", "directory receiving the case archives and report (default <project-dir>/results)")
	fs.String(config.FlagName(config.KeyTemplatesDir), "", "directory overriding the embedded source templates")
	fs.String(config.FlagName(config.KeyNode), "", "Node.js binary (default node)")
	fs.String(config.FlagName(config.KeyTscScript), "", "TypeScript compiler script (default <project-dir>/node_modules/typescript/bin/tsc)")
	fs.String(config.FlagName(config.KeyMarker), "", "text a successful execution prints (default \"Hello A!\")")
	fs.String(config.FlagName(config.KeyMatrix), "", "matrix file (.yaml, .yml or .cue) replacing the built-in matrix")
	fs.String(config.FlagName(config.KeyHistoryDB), "", "SQLite database recording run history (disabled when empty)")
	fs.BoolP(config.FlagName(config.KeyVerbose), "v", false, "verbose output")
	fs.Bool(config.FlagName(config.KeyNoColor), false, "disable coloured progress output")
}

// commandArgs maps argument validation errors to ExitCommandError.
func commandArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

func flagError(cmd *cobra.Command, err error) error {
	return WrapExitError(ExitCommandError, "invalid flags", err)
}

// setup validates the format, resolves the configuration and builds the logger.
func (opts *RootOptions) setup(cmd *cobra.Command, args []string) error {
	if !slices.Contains(ValidFormats, opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}

	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	cfg, err := config.Load(v, opts.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	opts.cfg = cfg

	opts.logger = logging.New(cmd.ErrOrStderr(), cfg.Verbose)
	opts.logger.Debug("configuration loaded", zap.Any("config", cfg))

	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	return nil
}

// syncLogger flushes the logger. Cobra skips post-run hooks when RunE
// fails, so this runs from Execute.
func (opts *RootOptions) syncLogger() {
	if opts.logger != nil {
		_ = opts.logger.Sync()
	}
}

func (opts *RootOptions) executor() process.Executor {
	if opts.Executor != nil {
		return opts.Executor
	}
	return &process.Exec{Dir: opts.cfg.ProjectDir, Redact: opts.cfg.ProjectDir}
}

// Execute runs cmd, reports any error on the command's error stream in the
// selected format and returns the process exit code.
func Execute(ctx context.Context, cmd *cobra.Command, opts *RootOptions) int {
	err := cmd.ExecuteContext(ctx)
	opts.syncLogger()
	if err == nil {
		return ExitSuccess
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.ErrOrStderr()}
	_ = f.ReportError(err)
	return GetExitCode(err)
}
