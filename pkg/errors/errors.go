package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Policy errors
	ErrPolicyLoad  ErrorCode = "POLICY_LOAD"
	ErrPolicyValid ErrorCode = "POLICY_INVALID"

	// Manifest errors
	ErrManifestNotFound ErrorCode = "MANIFEST_NOT_FOUND"
	ErrManifestParse    ErrorCode = "MANIFEST_PARSE"
	ErrManifestValid    ErrorCode = "MANIFEST_INVALID"

	// Remote API errors
	ErrNetwork   ErrorCode = "NETWORK"
	ErrAPIStatus ErrorCode = "API_STATUS"
	ErrAPIDecode ErrorCode = "API_DECODE"
	ErrNotFound  ErrorCode = "NOT_FOUND"
	ErrNoVersion ErrorCode = "NO_COMPATIBLE_VERSION"

	// Resolution errors
	ErrConflict ErrorCode = "CONFLICT"

	// Download errors
	ErrIntegrity ErrorCode = "INTEGRITY"
	ErrDownload  ErrorCode = "DOWNLOAD"

	// Package index errors
	ErrIndexLoad  ErrorCode = "INDEX_LOAD"
	ErrIndexParse ErrorCode = "INDEX_PARSE"
	ErrIndexWrite ErrorCode = "INDEX_WRITE"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
)

// ModsmithError represents a structured error with code and details
type ModsmithError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ModsmithError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ModsmithError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ModsmithError) Is(target error) bool {
	var targetErr *ModsmithError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ModsmithError with the given code and message
func New(code ErrorCode, message string) *ModsmithError {
	return &ModsmithError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ModsmithError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ModsmithError {
	return &ModsmithError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ModsmithError
func Wrap(err error, code ErrorCode, message string) *ModsmithError {
	if err == nil {
		return nil
	}
	return &ModsmithError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ModsmithError {
	if err == nil {
		return nil
	}
	return &ModsmithError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ModsmithError) WithDetail(key string, value interface{}) *ModsmithError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *ModsmithError) WithDetails(details map[string]interface{}) *ModsmithError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var msErr *ModsmithError
	if errors.As(err, &msErr) {
		return msErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ModsmithError
func GetErrorCode(err error) ErrorCode {
	var msErr *ModsmithError
	if errors.As(err, &msErr) {
		return msErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ModsmithError
func GetErrorDetails(err error) map[string]interface{} {
	var msErr *ModsmithError
	if errors.As(err, &msErr) {
		return msErr.Details
	}
	return nil
}
