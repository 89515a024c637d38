// Package errors provides standardized error types for the nubops CLI tool.
//
// OpsError is the single structured error type. It carries a Code for
// programmatic handling and, for template data problems, the template path and
// the zero-based line number the problem was found on.
//
// # Data Errors
//
// Errors in template files are reported in the compiler-like form
//
//	nginx.conf:12: cannot resolve content because of missing symbol: domain
//
// where the file is shown by base name and the line is one-based.
//
// # Error Checking
//
// Use errors.Is with the sentinel errors to check the category:
//
//	if errors.Is(err, errors.ErrTargetExists) {
//	    // Suggest --mode=overwrite
//	}
//
// Use errors.As to inspect details:
//
//	var opsErr *errors.OpsError
//	if errors.As(err, &opsErr) {
//	    fmt.Printf("%s in %s\n", opsErr.Code, opsErr.Path)
//	}
package errors

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"      // Recipe or file not found
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS" // Target file already exists
	ErrCodeValidation    ErrorCode = "VALIDATION"     // Input validation failed
	ErrCodePermission    ErrorCode = "PERMISSION"     // Permission denied
	ErrCodeConfig        ErrorCode = "CONFIG"         // Configuration error
	ErrCodeData          ErrorCode = "DATA"           // Broken template data
	ErrCodeBuild         ErrorCode = "BUILD"          // Symbol resolution or build error
	ErrCodeScript        ErrorCode = "SCRIPT"         // Shell script failed
)

// NoLine marks an OpsError that is not tied to a line.
const NoLine = -1

// OpsError represents a structured error with context about the operation.
type OpsError struct {
	Code    ErrorCode // Error category
	Message string    // Human-readable message
	Path    string    // Template path (if applicable)
	Line    int       // Zero-based line in Path, NoLine if unknown
	Err     error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *OpsError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		}
	}
	if e.Path == "" {
		return msg
	}
	location := filepath.Base(e.Path) + ":"
	if e.Line >= 0 {
		location += fmt.Sprintf("%d:", e.Line+1)
	}
	return location + " " + msg
}

// Unwrap returns the underlying error for error chain traversal.
func (e *OpsError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code.
func (e *OpsError) Is(target error) bool {
	t, ok := target.(*OpsError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for common error scenarios.
// Use these with errors.Is() for error checking.
var (
	// ErrRecipeNotFound indicates there is no template folder for a recipe.
	ErrRecipeNotFound = &OpsError{Code: ErrCodeNotFound, Message: "recipe not found", Line: NoLine}

	// ErrTargetExists indicates a target file exists and the mode forbids replacing it.
	ErrTargetExists = &OpsError{Code: ErrCodeAlreadyExists, Message: "target already exists", Line: NoLine}

	// ErrInvalidInput indicates an argument or option failed validation.
	ErrInvalidInput = &OpsError{Code: ErrCodeValidation, Message: "invalid input", Line: NoLine}

	// ErrRootRequired indicates root privileges are required.
	ErrRootRequired = &OpsError{Code: ErrCodePermission, Message: "root privileges required", Line: NoLine}

	// ErrConfigInvalid indicates the configuration is invalid or corrupt.
	ErrConfigInvalid = &OpsError{Code: ErrCodeConfig, Message: "invalid configuration", Line: NoLine}

	// ErrData indicates a template file is malformed.
	ErrData = &OpsError{Code: ErrCodeData, Message: "invalid template data", Line: NoLine}

	// ErrBuild indicates symbols could not be resolved.
	ErrBuild = &OpsError{Code: ErrCodeBuild, Message: "cannot build", Line: NoLine}

	// ErrScript indicates a shell script exited with an error.
	ErrScript = &OpsError{Code: ErrCodeScript, Message: "script failed", Line: NoLine}
)

// Data creates an error for a problem at a line of a template file.
// Pass NoLine when the problem concerns the file as a whole.
func Data(path string, line int, msg string) error {
	return &OpsError{
		Code:    ErrCodeData,
		Message: msg,
		Path:    path,
		Line:    line,
	}
}

// WrapData creates a data error with an underlying cause.
func WrapData(path string, line int, msg string, err error) error {
	return &OpsError{
		Code:    ErrCodeData,
		Message: msg,
		Path:    path,
		Line:    line,
		Err:     err,
	}
}

// Build creates an error for symbols that cannot be resolved.
func Build(msg string) error {
	return &OpsError{
		Code:    ErrCodeBuild,
		Message: msg,
		Line:    NoLine,
	}
}

// TargetExists creates an error for a target that must not be replaced.
func TargetExists(path string) error {
	return &OpsError{
		Code:    ErrCodeAlreadyExists,
		Message: "cannot write existing target file, use --mode=overwrite to overwrite: " + path,
		Line:    NoLine,
	}
}

// Validation creates a validation error with a custom message.
func Validation(msg string) error {
	return &OpsError{
		Code:    ErrCodeValidation,
		Message: msg,
		Line:    NoLine,
	}
}

// Permission creates an error for an operation that needs more privileges.
func Permission(msg string) error {
	return &OpsError{
		Code:    ErrCodePermission,
		Message: msg,
		Line:    NoLine,
	}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &OpsError{
		Code:    code,
		Message: msg,
		Line:    NoLine,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As
