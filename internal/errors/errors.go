package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the structured error type for wikimg.
// It carries enough context for logging, CLI presentation and errors.Is matching.
type Error struct {
	// Code is the unique error code (e.g., "ERR_202_KEY_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinels for errors.Is matching. Matching is by code, so any Error built with the
// same code compares equal to these.
var (
	// ErrNotFound is returned by stores when a key is absent.
	ErrNotFound = New(ErrCodeKeyNotFound, "key not found", nil)

	// ErrMalformedRecord marks an input line that could not be decomposed.
	ErrMalformedRecord = New(ErrCodeMalformedRecord, "malformed record", nil)

	// ErrBackendUnavailable marks a network-level storage failure.
	ErrBackendUnavailable = New(ErrCodeBackendUnavailable, "storage backend unavailable", nil)
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// NotFound creates a key-not-found error for the named store.
func NotFound(storeName, key string) *Error {
	return New(ErrCodeKeyNotFound, fmt.Sprintf("key %q not found in %s", key, storeName), nil).
		WithDetail("store", storeName).
		WithDetail("key", key)
}

// MalformedRecord creates an error describing an input line that was rejected.
func MalformedRecord(line int, reason string) *Error {
	return New(ErrCodeMalformedRecord, fmt.Sprintf("line %d: %s", line, reason), nil).
		WithDetail("line", fmt.Sprint(line))
}

// StorageError creates a local storage failure (disk backend).
func StorageError(message string, cause error) *Error {
	return New(ErrCodeStorageIO, message, cause)
}

// BackendUnavailable creates a remote storage failure (network backend).
func BackendUnavailable(message string, cause error) *Error {
	return New(ErrCodeBackendUnavailable, message, cause).
		WithSuggestion("Check credentials, region and endpoint of the remote store")
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error for input files.
func IOError(message string, cause error) *Error {
	return New(ErrCodeFileNotFound, message, cause)
}

// ReadError creates an error for an input file that could not be read to the end.
func ReadError(message string, cause error) *Error {
	return New(ErrCodeInputRead, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *Error {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// IsNotFound reports whether err is, or wraps, a key-not-found error.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// IsBackendUnavailable reports whether err is, or wraps, a storage backend failure.
// NotFound is never a backend failure.
func IsBackendUnavailable(err error) bool {
	var e *Error
	for err != nil {
		if stderrors.As(err, &e) {
			if isBackendCode(e.Code) {
				return true
			}
			err = e.Cause
			continue
		}
		return false
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an Error.
// Returns empty string if not an Error.
func GetCode(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetCategory extracts the category from an Error.
// Returns empty string if not an Error.
func GetCategory(err error) Category {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category
	}
	return ""
}
