package harness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Alexis-ROYER/tsd-default-export/internal/archive"
	"github.com/Alexis-ROYER/tsd-default-export/internal/clock"
	"github.com/Alexis-ROYER/tsd-default-export/internal/matrix"
	"github.com/Alexis-ROYER/tsd-default-export/internal/process"
	"github.com/Alexis-ROYER/tsd-default-export/internal/render"
)

// DefaultMarker is printed by the consumer when the default export resolved.
const DefaultMarker = "Hello A!"

// Config locates the toolchain and the working areas.
type Config struct {
	// DistDir receives the rendered sources of the current case.
	DistDir string
	// ResultsDir holds one archive directory per case.
	ResultsDir string
	// Node is the Node.js binary.
	Node string
	// TscScript is the TypeScript compiler entry script run with Node.
	TscScript string
	// Marker must appear on stdout of a successful execution.
	Marker string
}

// Runner executes test cases one at a time.
type Runner struct {
	cfg        Config
	templates  *render.Templates
	exec       process.Executor
	clock      clock.Clock
	logger     *zap.Logger
	onProgress func(Progress)
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithClock replaces the wall clock used for progress timing.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithProgress registers a callback invoked after every case.
func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) { r.onProgress = fn }
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, templates *render.Templates, exec process.Executor, opts ...Option) *Runner {
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	r := &Runner{
		cfg:       cfg,
		templates: templates,
		exec:      exec,
		clock:     clock.System{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunAll runs every tuple of m in order and returns the finished cases.
//
// Case failures are part of the returned slice. A non-nil error is a
// *FatalError or *MarkerError; the cases finished before it are still
// returned.
func (r *Runner) RunAll(ctx context.Context, m *matrix.Matrix) ([]TestCase, error) {
	tuples := m.Tuples()
	total := len(tuples)
	cases := make([]TestCase, 0, total)

	r.logger.Info("running test cases", zap.Int("count", total), zap.String("matrix", m.Describe()))
	start := r.clock.Now()

	for i, opts := range tuples {
		tc := TestCase{ID: i + 1, Options: opts}

		if err := ctx.Err(); err != nil {
			return cases, &FatalError{Op: "run", CaseID: tc.ID, Err: err}
		}

		caseStart := r.clock.Now()
		if err := r.RunCase(ctx, &tc); err != nil {
			r.logger.Error("harness failure", zap.Int("case", tc.ID), zap.Error(err))
			return cases, err
		}
		cases = append(cases, tc)

		if r.onProgress != nil {
			now := r.clock.Now()
			r.onProgress(progress(tc, len(cases), total, now.Sub(caseStart), now.Sub(start)))
		}
	}

	elapsed := r.clock.Now().Sub(start)
	r.logger.Info("test cases executed", zap.Int("count", len(cases)), zap.Duration("elapsed", elapsed))
	return cases, nil
}

func progress(tc TestCase, done, total int, caseDuration, elapsed time.Duration) Progress {
	perCase := elapsed / time.Duration(done)
	return Progress{
		Case:         tc,
		Done:         done,
		Total:        total,
		CaseDuration: caseDuration,
		Elapsed:      elapsed,
		Remaining:    perCase * time.Duration(total-done),
		Projected:    perCase * time.Duration(total),
	}
}

// RunCase renders, compiles and executes one case and records the outcome on tc.
//
// The returned error is non-nil only for harness failures; a failing case
// returns nil with tc.Result set to Fail.
func (r *Runner) RunCase(ctx context.Context, tc *TestCase) error {
	tc.Result = Fail
	tc.Error = "Uncaught error"

	dir := archive.New(r.cfg.ResultsDir, tc.ID)
	if err := r.prepare(tc, dir); err != nil {
		return &FatalError{Op: "prepare", CaseID: tc.ID, Err: err}
	}

	// Compile the consumer against the rendered declaration.
	compile := process.NewCommand(r.cfg.Node, r.cfg.TscScript).
		AddFlags(tc.TscTarget, tc.TscModuleInterop, tc.TscModule).
		AddOptions(filepath.Join(r.cfg.DistDir, render.ConsumerFile))

	r.logger.Debug("compiling", zap.Int("case", tc.ID), zap.Stringer("cmd", compile))
	res, err := r.exec.Run(ctx, compile)
	if err != nil {
		return &FatalError{Op: "compile", CaseID: tc.ID, Err: err}
	}
	if !res.Success() {
		return r.fail(tc, dir, "Compilation failure", res)
	}

	if err := dir.CopyIn(filepath.Join(r.cfg.DistDir, render.CompiledFile)); err != nil {
		return &FatalError{Op: "archive", CaseID: tc.ID, Err: err}
	}

	// Execute the compiled consumer with the rendered module.
	execute := process.NewCommand(r.cfg.Node).
		AddFlags(tc.NodeOpts).
		AddOptions(filepath.Join(r.cfg.DistDir, render.CompiledFile))

	r.logger.Debug("executing", zap.Int("case", tc.ID), zap.Stringer("cmd", execute))
	res, err = r.exec.Run(ctx, execute)
	if err != nil {
		return &FatalError{Op: "execute", CaseID: tc.ID, Err: err}
	}
	if !res.Success() {
		return r.fail(tc, dir, "Execution failure", res)
	}

	if !strings.Contains(res.Stdout, r.cfg.Marker) {
		return &MarkerError{
			CaseID:   tc.ID,
			Marker:   r.cfg.Marker,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}

	tc.Result = Pass
	tc.Error = ""
	return nil
}

func (r *Runner) prepare(tc *TestCase, dir *archive.Dir) error {
	if err := dir.Prepare(); err != nil {
		return err
	}
	if err := dir.WriteCase(tc.archiveFields()); err != nil {
		return err
	}

	// A stale user.js would be archived if the compiler emitted nothing.
	if err := removeIfExists(filepath.Join(r.cfg.DistDir, render.CompiledFile)); err != nil {
		return err
	}

	files := r.templates.Render(tc.Options)
	if err := render.WriteTo(r.cfg.DistDir, files); err != nil {
		return err
	}
	for _, f := range files {
		if err := dir.CopyIn(filepath.Join(r.cfg.DistDir, f.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) fail(tc *TestCase, dir *archive.Dir, kind string, res *process.Result) error {
	tc.Result = Fail
	tc.Error = formatFailure(kind, res.ExitCode, res.Stdout, res.Stderr)
	r.logger.Debug("test case failed", zap.Int("case", tc.ID), zap.String("kind", kind), zap.Int("status", res.ExitCode))

	if err := dir.WriteError(tc.Error); err != nil {
		return &FatalError{Op: "archive", CaseID: tc.ID, Err: err}
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
