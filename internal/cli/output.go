package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The cart rejected the operation (stock, missing line)
	ExitCommandError = 2 // Bad flags, unreadable files, unreachable API
)

// ExitError carries the exit code a command wants the process to end with.
type ExitError struct {
	Code    int
	Message string
	Err     error
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
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
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

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status  string `json:"status"` // "ok" or "error"
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Success writes data as JSON, or lets text render it for humans.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Rejected reports a business rejection and returns the ExitError the
// command should return.
func (f *OutputFormatter) Rejected(message string) error {
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Message: message})
	} else {
		fmt.Fprintf(f.Writer, "Error: %s\n", message)
	}
	return NewExitError(ExitFailure, message)
}
