package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/tally/internal/ledger"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // successful execution
	ExitFailure      = 1 // operation rejected (insufficient funds, validation, ...)
	ExitCommandError = 2 // command error (bad flags, database not found, ...)
	ExitInconsistent = 3 // ledger inconsistency detected - operator attention
)

// ExitError represents an error with a specific exit code.
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

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Ledger rejections map to
// ExitFailure, inconsistencies to ExitInconsistent, everything else to
// ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if ledger.IsInconsistency(err) {
		return ExitInconsistent
	}
	if isRejection(err) {
		return ExitFailure
	}
	return ExitCommandError
}

// isRejection reports whether the error is a business rejection rather than
// an infrastructure failure.
func isRejection(err error) bool {
	return ledger.IsValidation(err) ||
		ledger.IsTimedOut(err) ||
		errors.Is(err, ledger.ErrInsufficientFunds) ||
		errors.Is(err, ledger.ErrSelfTransfer) ||
		errors.Is(err, ledger.ErrRecipientNotFound) ||
		errors.Is(err, ledger.ErrDuplicateOwner) ||
		errors.Is(err, ledger.ErrArchived) ||
		errors.Is(err, ledger.ErrNotFound)
}

// errorCode maps an error to a stable machine-readable code for JSON output.
func errorCode(err error) string {
	switch {
	case ledger.IsValidation(err):
		return "validation"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, ledger.ErrRecipientNotFound):
		return "recipient_not_found"
	case errors.Is(err, ledger.ErrDuplicateOwner):
		return "duplicate_owner"
	case errors.Is(err, ledger.ErrArchived):
		return "archived"
	case errors.Is(err, ledger.ErrNotFound):
		return "not_found"
	case ledger.IsTimedOut(err):
		return "operation_timed_out"
	case ledger.IsInconsistency(err):
		return "ledger_inconsistency"
	default:
		return "storage_failure"
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output; defaults to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response envelope.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success outputs a successful result in the configured format. For text
// format, data's String()/fmt rendering is printed as-is.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(err error) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    errorCode(err),
				Message: err.Error(),
			},
		})
	}
	fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", errorCode(err), err.Error())
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled. When format
// is JSON, diagnostics go to ErrWriter so they cannot corrupt JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the writer for diagnostic output.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
