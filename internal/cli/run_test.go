package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexis-ROYER/tsd-default-export/internal/harness"
	"github.com/Alexis-ROYER/tsd-default-export/internal/process"
	"github.com/Alexis-ROYER/tsd-default-export/internal/report"
)

func readReport(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = report.Delimiter
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunWritesReport(t *testing.T) {
	env := newTestEnv(t, &fakeToolchain{rejectJS: "module.exports"})

	err := env.tsdcompat("run", "--matrix", "matrix.yaml", "--no-color").Execute()
	require.NoError(t, err)

	out := env.stdout.String()
	assert.Contains(t, out, "Running 2 test cases:")
	assert.Contains(t, out, `>>> PASS: {"id":1,`)
	assert.Contains(t, out, `>>> FAIL: {"id":2,`)
	assert.Contains(t, out, "Writing results to '"+env.path("results", report.FileName)+"'")
	assert.Contains(t, out, "2 test cases executed in")
	assert.Contains(t, out, "1 passed, 1 failed")

	records := readReport(t, env.path("results", report.FileName))
	require.Len(t, records, 3)
	assert.Equal(t, report.Header, records[0])
	assert.Equal(t, []string{"1", "export default", "export default", "import MyClass from './my-module';", "", "", "", "", "PASS", ""}, records[1])
	assert.Equal(t, "FAIL", records[2][8])
	assert.Contains(t, records[2][9], "Compilation failure: status=2")

	assert.FileExists(t, env.path("results", "00002", "error.log"))
	assert.FileExists(t, env.path("results", "00001", "testCase.json"))
}

func TestRunIsDefaultCommand(t *testing.T) {
	env := newTestEnv(t, &fakeToolchain{})

	require.NoError(t, env.tsdcompat("--matrix", "matrix.yaml").Execute())
	assert.FileExists(t, env.path("results", report.FileName))
}

func TestRunProgressTiming(t *testing.T) {
	env := newTestEnv(t, &fakeToolchain{})

	require.NoError(t, env.tsdcompat("run", "--matrix", "matrix.yaml", "--no-color").Execute())
	// The stepped clock advances 3s per reading: run start, then case start
	// and case end for each case.
	assert.Contains(t, env.stdout.String(), "(3000 ms, 0.10/0.2 minutes remaining)")
}

func TestRunJSON(t *testing.T) {
	env := newTestEnv(t, &fakeToolchain{rejectJS: "module.exports"})

	require.NoError(t, env.tsdcompat("run", "--matrix", "matrix.yaml", "--format", "json").Execute())

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.stdout.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.Equal(t, env.path("results", report.FileName), resp.Data.Report)
	assert.Empty(t, resp.Data.RunID)
}

func TestRunMissingMarker(t *testing.T) {
	env := newTestEnv(t, &fakeToolchain{stdout: "Hello undefined!\n"})

	err := env.tsdcompat("run", "--matrix", "matrix.yaml").Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var marker *harness.MarkerError
	require.True(t, errors.As(err, &marker))
	assert.Equal(t, 1, marker.CaseID)

	assert.NoFileExists(t, env.path("results", report.FileName))
}

func TestRunCustomMarker(t *testing.T) {
	env := newTestEnv(t, &fakeToolchain{stdout: "Bonjour A!\n"})

	require.NoError(t, env.tsdcompat("run", "--matrix", "matrix.yaml", "--marker", "Bonjour A!").Execute())
	assert.Contains(t, env.stdout.String(), "2 passed, 0 failed")
}

func TestRunToolchainStartFailure(t *testing.T) {
	env := newTestEnv(t, &fakeToolchain{})
	env.opts.Executor = failingExecutor{}

	err := env.tsdcompat("run", "--matrix", "matrix.yaml").Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, harness.IsFatal(err))
}

type failingExecutor struct{}

func (failingExecutor) Run(context.Context, *process.Command) (*process.Result, error) {
	return nil, errors.New("exec: \"node\": executable file not found in $PATH")
}

func TestRunMatrixErrors(t *testing.T) {
	tests := []struct {
		name   string
		matrix string
		body   string
	}{
		{"missing file", "missing.yaml", ""},
		{"empty axis", "empty.yaml", "js: []\n"},
		{"bad extension", "matrix.json", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &fakeToolchain{})
			if tt.body != "" {
				require.NoError(t, os.WriteFile(env.path(tt.matrix), []byte(tt.body), 0o644))
			}

			err := env.tsdcompat("run", "--matrix", tt.matrix).Execute()
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), "failed to load matrix")
		})
	}
}

func TestRunTemplatesOverride(t *testing.T) {
	env := newTestEnv(t, &fakeToolchain{})
	templates := env.path("templates")
	require.NoError(t, os.MkdirAll(templates, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templates, "user.ts.in"), []byte("${importDefaultStatement}\n// custom\n"), 0o644))

	require.NoError(t, env.tsdcompat("run", "--matrix", "matrix.yaml", "--templates-dir", "templates").Execute())

	data, err := os.ReadFile(env.path("results", "00001", "user.ts"))
	require.NoError(t, err)
	assert.Equal(t, "import MyClass from './my-module';\n// custom\n", string(data))
}

func TestRunConfigFile(t *testing.T) {
	env := newTestEnv(t, &fakeToolchain{})
	require.NoError(t, os.WriteFile(env.path("tsdcompat.yaml"), []byte("matrix: matrix.yaml\nresults_dir: out\n"), 0o644))

	require.NoError(t, env.tsdcompat("run").Execute())
	assert.FileExists(t, env.path("out", report.FileName))
}

func TestRunRecordsHistory(t *testing.T) {
	env := newTestEnv(t, &fakeToolchain{rejectJS: "module.exports"})
	db := env.path("history.db")

	require.NoError(t, env.tsdcompat("run", "--matrix", "matrix.yaml", "--history-db", db).Execute())
	assert.Contains(t, env.stdout.String(), "Recorded as run ")
	assert.FileExists(t, db)
}
