package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/invoiceforge/internal/catalog"
	"github.com/roach88/invoiceforge/internal/draft"
	"github.com/roach88/invoiceforge/internal/importer"
	"github.com/roach88/invoiceforge/internal/kvstore"
	"github.com/roach88/invoiceforge/internal/profile"
	"github.com/roach88/invoiceforge/internal/settings"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Invalid invoice document, render failure
	ExitCommandError = 2 // Command error (bad arguments, unknown id, storage unavailable)
)

// Error codes reported in the JSON envelope and text output.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeNotFound       = "E002" // Invoice, client or service not found
	ErrCodeInvalidInput   = "E003" // Bad argument or rejected edit
	ErrCodeStorage        = "E004" // Database could not be opened or written
	ErrCodeInvalidInvoice = "E005" // Imported document failed validation
	ErrCodeConfig         = "E006" // Configuration could not be loaded
	ErrCodeRender         = "E007" // Document could not be rendered or written
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
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
// Returns ExitFailure (1) if the error is not an ExitError.
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

// usageError marks a malformed argument or flag value.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// renderError marks a failure to render or write an export.
type renderError struct {
	err error
}

func (e *renderError) Error() string { return e.err.Error() }
func (e *renderError) Unwrap() error { return e.err }

// configError marks a configuration that failed to load.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// classify maps an error to its error code, exit code and JSON details.
func classify(err error) (code string, exit int, details any) {
	var (
		verr   *importer.ValidationError
		uerr   *usageError
		rerr   *renderError
		cfgErr *configError
	)
	switch {
	case errors.As(err, &verr):
		return ErrCodeInvalidInvoice, ExitFailure, verr.Violations
	case errors.As(err, &cfgErr):
		return ErrCodeConfig, ExitCommandError, nil
	case errors.As(err, &rerr):
		return ErrCodeRender, ExitFailure, nil
	case errors.Is(err, draft.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, profile.ErrNotFound):
		return ErrCodeNotFound, ExitCommandError, nil
	case errors.As(err, &uerr),
		errors.Is(err, settings.ErrInvalid),
		errors.Is(err, draft.ErrLastLineItem),
		errors.Is(err, draft.ErrLineItemIndex),
		errors.Is(err, draft.ErrNotHistory):
		return ErrCodeInvalidInput, ExitCommandError, nil
	case kvstore.IsOpenError(err), errors.Is(err, kvstore.ErrConstraint):
		return ErrCodeStorage, ExitCommandError, nil
	default:
		return ErrCodeGeneric, ExitFailure, nil
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format. In text
// format data is printed with its String method when it has one.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
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

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if verr, ok := details.([]importer.Violation); ok {
		for _, v := range verr {
			fmt.Fprintf(f.Writer, "  %s\n", v)
		}
	} else if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err in the configured format and returns the ExitError the
// command should return. An error already reported is returned unchanged.
func (f *OutputFormatter) Fail(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	code, exit, details := classify(err)
	message := err.Error()
	var verr *importer.ValidationError
	if errors.As(err, &verr) {
		message = verr.Name + ": invalid invoice"
	}
	_ = f.Error(code, message, details)
	return WrapExitError(exit, code, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
