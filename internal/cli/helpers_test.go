package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/Alexis-ROYER/tsd-default-export/internal/clock"
	"github.com/Alexis-ROYER/tsd-default-export/internal/process"
)

// smallMatrix expands to two cases: the CommonJS module fails to compile
// when the fake compiler is told to reject "module.exports".
const smallMatrix = `js:
  - export default
  - module.exports =
dts:
  - export default
ts:
  - import MyClass from './my-module';
tsc_target:
  - ""
tsc_module_interop:
  - ""
tsc_module:
  - ""
node_opts:
  - ""
`

// fakeToolchain stands in for tsc and node. Compiling writes user.js next
// to user.ts; executing prints stdout.
type fakeToolchain struct {
	rejectJS string // compile fails when my-module.js contains this
	stdout   string
}

func (f *fakeToolchain) Run(ctx context.Context, cmd *process.Command) (*process.Result, error) {
	if len(cmd.Args) > 0 && strings.HasSuffix(cmd.Args[0], "tsc") {
		ts := cmd.Args[len(cmd.Args)-1]
		dir := filepath.Dir(ts)
		if f.rejectJS != "" {
			src, err := os.ReadFile(filepath.Join(dir, "my-module.js"))
			if err != nil {
				return nil, err
			}
			if strings.Contains(string(src), f.rejectJS) {
				return &process.Result{ExitCode: 2, Stdout: "dist/user.ts(1,8): error TS1259"}, nil
			}
		}
		return &process.Result{}, os.WriteFile(filepath.Join(dir, "user.js"), []byte("compiled\n"), 0o644)
	}
	return &process.Result{Stdout: f.stdout}, nil
}

type testEnv struct {
	project string
	opts    *RootOptions
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
}

func newTestEnv(t *testing.T, tc *fakeToolchain) *testEnv {
	t.Helper()
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "matrix.yaml"), []byte(smallMatrix), 0o644))

	if tc.stdout == "" {
		tc.stdout = "Hello A!\n"
	}
	return &testEnv{
		project: project,
		opts: &RootOptions{
			Executor: tc,
			Clock:    clock.NewStepped(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), 3*time.Second),
		},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
}

func (e *testEnv) command(root *cobra.Command, args ...string) *cobra.Command {
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	root.SetArgs(append([]string{"--project-dir", e.project}, args...))
	return root
}

// tsdcompat builds the root command with the project directory preset.
func (e *testEnv) tsdcompat(args ...string) *cobra.Command {
	return e.command(NewRootCommandWithOptions(e.opts), args...)
}

func (e *testEnv) path(elem ...string) string {
	return filepath.Join(append([]string{e.project}, elem...)...)
}
