// Package report writes the results of a run as a semicolon-delimited table.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Alexis-ROYER/tsd-default-export/internal/harness"
)

// FileName is the report written into the results directory.
const FileName = "all-test-cases.csv"

// Delimiter separates cells.
const Delimiter = ';'

// DefaultModuleNote marks cells where tsc picks --module from --target.
const DefaultModuleNote = " (--module=es6)"

// Header is the fixed first row.
var Header = []string{
	"Test case identifier",
	".js default export statement",
	".d.ts default export statement",
	".ts default import statement",
	"TypeScript --target option",
	"TypeScript --esModuleInterop option",
	"TypeScript --module option",
	"Node.js execution options",
	"Test case result",
	"Test case error",
}

// Summary counts results.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summarize counts passing and failing cases.
func Summarize(cases []harness.TestCase) Summary {
	s := Summary{Total: len(cases)}
	for i := range cases {
		if cases[i].Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// Row converts a case into report cells.
//
// Spreadsheet applications read a cell starting with '-' as a formula, so
// such cells get a leading space. When --target is set without --module the
// module cell notes the implied default.
func Row(tc harness.TestCase) []string {
	cells := []string{
		tc.JS,
		tc.DTS,
		tc.TS,
		tc.TscTarget,
		tc.TscModuleInterop,
		tc.TscModule,
		tc.NodeOpts,
		string(tc.Result),
		tc.Error,
	}
	for i, cell := range cells {
		if strings.HasPrefix(cell, "-") {
			cells[i] = " " + cell
		}
	}

	if tc.TscTarget != "" && tc.TscModule == "" {
		cells[5] = DefaultModuleNote
	}

	return append([]string{strconv.Itoa(tc.ID)}, cells...)
}

// Write writes the header and one row per case to w.
func Write(w io.Writer, cases []harness.TestCase) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, tc := range cases {
		if err := cw.Write(Row(tc)); err != nil {
			return fmt.Errorf("failed to write test case %d: %w", tc.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

// WriteFile writes the report to path, replacing any previous file.
func WriteFile(path string, cases []harness.TestCase) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if err := Write(f, cases); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}
