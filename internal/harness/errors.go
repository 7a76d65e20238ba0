package harness

import (
	"errors"
	"fmt"
)

// FatalError is a harness failure that aborts the whole run: a file system
// error while preparing or archiving a case, a process that could not be
// started, or cancellation.
//
// Expected test failures (nonzero compiler or runtime exit) are never
// reported this way; they are recorded on the TestCase.
type FatalError struct {
	Op     string // "prepare", "compile", "execute", "archive", "run"
	CaseID int
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("test case %d: %s: %v", e.CaseID, e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// MarkerError reports a program that exited with status 0 without printing
// the expected marker. The run stops: a success that does not look like one
// means the templates or toolchain changed under the harness.
type MarkerError struct {
	CaseID   int
	Marker   string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *MarkerError) Error() string {
	return fmt.Sprintf("test case %d: execution succeeded but stdout does not contain %q", e.CaseID, e.Marker)
}

// Detail returns the captured output in the same layout as error.log.
func (e *MarkerError) Detail() string {
	return formatFailure("Execution failure", e.ExitCode, e.Stdout, e.Stderr)
}

// IsFatal reports whether err aborts the run.
func IsFatal(err error) bool {
	var fatal *FatalError
	var marker *MarkerError
	return errors.As(err, &fatal) || errors.As(err, &marker)
}

func formatFailure(kind string, status int, stdout, stderr string) string {
	return fmt.Sprintf("%s: status=%d\n---\n%s\n---\n%s", kind, status, stdout, stderr)
}
