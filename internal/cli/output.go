package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Alexis-ROYER/tsd-default-export/internal/harness"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Run completed; failing test cases are results, not errors
	ExitFailure      = 1 // Harness failure (file system, toolchain start, missing marker, report)
	ExitCommandError = 2 // Command error (bad flags, config, matrix or templates)
)

// Error codes reported in JSON output.
const (
	CodeCommand = "E_COMMAND"
	CodeHarness = "E_HARNESS"
	CodeMarker  = "E_MARKER"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format.
// Text output prints data with its String method or %v.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if details != nil {
		fmt.Fprintln(f.Writer, details)
	}
	return nil
}

// ReportError writes err through the formatter. A missing marker carries the
// captured output of the program as details.
func (f *OutputFormatter) ReportError(err error) error {
	var marker *harness.MarkerError
	if errors.As(err, &marker) {
		return f.Error(CodeMarker, err.Error(), marker.Detail())
	}
	if GetExitCode(err) == ExitCommandError {
		return f.Error(CodeCommand, err.Error(), nil)
	}
	return f.Error(CodeHarness, err.Error(), nil)
}
