package errors

import (
	stderrors "errors"
	"fmt"

	"mcprice/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:  code,
		Cause: err,
	}
}

// IsAppError checks if an error is (or wraps) an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeNumericDegenerate  = "NUMERIC_DEGENERATE"
	CodeResourceExhaustion = "RESOURCE_EXHAUSTION"
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeNonDeterministic   = "NON_DETERMINISTIC"
	CodeInternalError      = "INTERNAL_ERROR"
)

// Common error constructors. Each wraps the matching domain sentinel so
// callers can test with errors.Is against domain/core.

func InvalidArgument(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    CodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
		Cause:   core.ErrInvalidArgument,
	}
}

func NumericDegenerate(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    CodeNumericDegenerate,
		Message: fmt.Sprintf(format, args...),
		Cause:   core.ErrNumericDegenerate,
	}
}

func ResourceExhaustion(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    CodeResourceExhaustion,
		Message: fmt.Sprintf(format, args...),
		Cause:   core.ErrResourceExhaustion,
	}
}

func ConfigInvalid(message string) *AppError {
	return &AppError{
		Code:    CodeConfigInvalid,
		Message: message,
		Cause:   core.ErrInvalidArgument,
	}
}

func NonDeterministic(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    CodeNonDeterministic,
		Message: fmt.Sprintf(format, args...),
		Cause:   core.ErrNonDeterministic,
	}
}

func HashMismatch(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    CodeNonDeterministic,
		Message: fmt.Sprintf(format, args...),
		Cause:   core.ErrHashMismatch,
	}
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

// IsInvalidArgument reports whether err carries the INVALID_ARGUMENT code or sentinel
func IsInvalidArgument(err error) bool {
	return GetCode(err) == CodeInvalidArgument || stderrors.Is(err, core.ErrInvalidArgument)
}

// IsNumericDegenerate reports whether err carries the NUMERIC_DEGENERATE code or sentinel
func IsNumericDegenerate(err error) bool {
	return GetCode(err) == CodeNumericDegenerate || stderrors.Is(err, core.ErrNumericDegenerate)
}

// IsResourceExhaustion reports whether err carries the RESOURCE_EXHAUSTION code or sentinel
func IsResourceExhaustion(err error) bool {
	return GetCode(err) == CodeResourceExhaustion || stderrors.Is(err, core.ErrResourceExhaustion)
}

// IsDeterminismError reports whether a rerun disagreed with a recorded run
func IsDeterminismError(err error) bool {
	return GetCode(err) == CodeNonDeterministic || core.IsDeterminismError(err)
}
