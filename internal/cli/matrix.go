package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alexis-ROYER/tsd-default-export/internal/harness"
	"github.com/Alexis-ROYER/tsd-default-export/internal/matrix"
)

// MatrixOptions holds flags for the matrix command.
type MatrixOptions struct {
	*RootOptions
	List bool // print every case
	Dump bool // print the matrix as YAML
}

// MatrixResult describes the matrix without running it.
type MatrixResult struct {
	Count    int                `json:"count"`
	Describe string             `json:"describe"`
	Axes     []matrix.Axis      `json:"axes"`
	Cases    []harness.TestCase `json:"cases,omitempty"`
}

// NewMatrixCommand creates the matrix command.
func NewMatrixCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatrixOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Show the option matrix without running it",
		Long: `Show the size of the option matrix and, with --list, every test case
with the id it will get in a run.

--dump prints the matrix as YAML, a starting point for a --matrix file.

Examples:
  tsdcompat matrix
  tsdcompat matrix --list --format json
  tsdcompat matrix --dump > matrix.yaml`,
		Args:          commandArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMatrix(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.List, "list", false, "list every test case")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "print the matrix as YAML")

	return cmd
}

func showMatrix(cmd *cobra.Command, opts *MatrixOptions) error {
	if opts.List && opts.Dump {
		return NewExitError(ExitCommandError, "--list and --dump cannot be used together")
	}

	m, err := loadMatrix(opts.cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load matrix", err)
	}
	out := cmd.OutOrStdout()

	if opts.Dump {
		data, err := m.YAML()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to encode matrix", err)
		}
		_, err = out.Write(data)
		return err
	}

	result := MatrixResult{
		Count:    m.Count(),
		Describe: m.Describe(),
		Axes:     m.Axes(),
	}
	if opts.List {
		for i, o := range m.Tuples() {
			result.Cases = append(result.Cases, harness.TestCase{ID: i + 1, Options: o})
		}
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: opts.Format, Writer: out}
		return f.Success(result)
	}

	fmt.Fprintf(out, "%d test cases (%s)\n", result.Count, result.Describe)
	for i := range result.Cases {
		fmt.Fprintln(out, result.Cases[i].Label())
	}
	return nil
}
