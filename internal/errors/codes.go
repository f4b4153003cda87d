// Package errors provides structured error handling for wikimg.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (input files, local storage)
//   - 3XX: Network errors (remote storage)
//   - 4XX: Validation errors (records, user input)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates network-related errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeKeyNotFound  = "ERR_202_KEY_NOT_FOUND"
	ErrCodeStorageIO    = "ERR_203_STORAGE_IO"
	ErrCodeStoreLocked  = "ERR_204_STORE_LOCKED"
	ErrCodeInputRead    = "ERR_205_INPUT_READ"

	// Network errors (300-399)
	ErrCodeBackendUnavailable = "ERR_301_BACKEND_UNAVAILABLE"

	// Validation errors (400-499)
	ErrCodeMalformedRecord = "ERR_401_MALFORMED_RECORD"
	ErrCodeUnknownBackend  = "ERR_402_UNKNOWN_BACKEND"
	ErrCodeInvalidInput    = "ERR_403_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeIndexFailed = "ERR_502_INDEX_FAILED"
	ErrCodeQueryFailed = "ERR_503_QUERY_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeStorageIO, ErrCodeStoreLocked, ErrCodeBackendUnavailable:
		return SeverityFatal
	case ErrCodeMalformedRecord:
		return SeverityWarning
	case ErrCodeKeyNotFound:
		// Absent keys are an expected lookup outcome.
		return SeverityInfo
	default:
		return SeverityError
	}
}

// isBackendCode reports whether code describes a storage backend that could not be reached.
func isBackendCode(code string) bool {
	switch code {
	case ErrCodeStorageIO, ErrCodeStoreLocked, ErrCodeBackendUnavailable:
		return true
	default:
		return false
	}
}
