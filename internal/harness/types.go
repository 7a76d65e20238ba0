package harness

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/Alexis-ROYER/tsd-default-export/internal/matrix"
)

// Result is the outcome of a test case.
type Result string

const (
	Pass Result = "PASS"
	Fail Result = "FAIL"
)

// TestCase is one fully specified combination of axis values and its outcome.
// The runner sets Result and Error once; the record is not modified afterwards.
type TestCase struct {
	ID int `json:"id"`
	matrix.Options

	Result Result `json:"result,omitempty"`
	// Error holds the captured failure text. Empty for passing cases.
	Error string `json:"error,omitempty"`
}

// Passed reports whether the case passed.
func (tc *TestCase) Passed() bool {
	return tc.Result == Pass
}

// Label is the compact JSON form of the id and options used in progress
// lines. Unset optional options are null.
func (tc *TestCase) Label() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(struct {
		ID               int     `json:"id"`
		JS               string  `json:"js"`
		DTS              string  `json:"dts"`
		TS               string  `json:"ts"`
		TscTarget        *string `json:"tsc-target"`
		TscModuleInterop *string `json:"tsc-module-interop"`
		TscModule        *string `json:"tsc-module"`
		NodeOpts         *string `json:"node-opts"`
	}{
		tc.ID, tc.JS, tc.DTS, tc.TS,
		optional(tc.TscTarget), optional(tc.TscModuleInterop), optional(tc.TscModule), optional(tc.NodeOpts),
	})
	if err != nil {
		// only strings and an int
		panic(err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// archiveFields returns the case options for testCase.json. Unset options are omitted.
func (tc *TestCase) archiveFields() map[string]any {
	fields := map[string]any{
		"id":  tc.ID,
		"js":  tc.JS,
		"dts": tc.DTS,
		"ts":  tc.TS,
	}
	optional := map[string]string{
		"tsc-target":         tc.TscTarget,
		"tsc-module-interop": tc.TscModuleInterop,
		"tsc-module":         tc.TscModule,
		"node-opts":          tc.NodeOpts,
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}

// Progress is reported after every case.
type Progress struct {
	Case  TestCase
	Done  int
	Total int

	// CaseDuration is the wall time spent on this case.
	CaseDuration time.Duration
	// Elapsed is the wall time since the run started.
	Elapsed time.Duration
	// Remaining estimates the time left from the average case duration so far.
	Remaining time.Duration
	// Projected estimates the duration of the whole run.
	Projected time.Duration
}
