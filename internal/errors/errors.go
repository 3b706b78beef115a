// Package errors defines AppError, the coded error that HTTP handlers render
// as JSON, and the mapping of Postgres failures onto it.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable category carried in error responses.
type ErrorCode string

const (
	ErrCodeNotFound    ErrorCode = "not_found"
	ErrCodeConflict    ErrorCode = "conflict"
	ErrCodeValidation  ErrorCode = "validation"
	ErrCodeForeignKey  ErrorCode = "foreign_key"
	ErrCodeInternal    ErrorCode = "internal"
	ErrCodeTimeout     ErrorCode = "timeout"
	ErrCodeCanceled    ErrorCode = "canceled"
	ErrCodeUnavailable ErrorCode = "unavailable"
)

// StatusClientClosedRequest is the non-standard status used when the caller went away.
const StatusClientClosedRequest = 499

var codeStatus = map[ErrorCode]int{
	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeConflict:    http.StatusConflict,
	ErrCodeForeignKey:  http.StatusConflict,
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeTimeout:     http.StatusGatewayTimeout,
	ErrCodeCanceled:    StatusClientClosedRequest,
	ErrCodeUnavailable: http.StatusServiceUnavailable,
}

// HTTPStatus maps an error code to a response status. Unknown codes are 500.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError is an error with a code and a message that is safe to show users.
// Cause holds the diagnostic and is never rendered.
type AppError struct {
	Code    ErrorCode
	Message string
	// Field names the offending input, for validation errors.
	Field string
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// New returns an AppError without a cause.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches code and message to err. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func NotFound(message string) *AppError { return New(ErrCodeNotFound, message) }

func Conflictf(format string, args ...any) *AppError {
	return New(ErrCodeConflict, fmt.Sprintf(format, args...))
}

func Validation(message string) *AppError { return New(ErrCodeValidation, message) }

func Validationf(format string, args ...any) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidationField reports invalid input in a named request field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Unavailable reports that the service cannot take the request right now.
func Unavailable(message string) *AppError { return New(ErrCodeUnavailable, message) }

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// FieldOf returns the field of the first AppError in err's chain, or "".
func FieldOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

func IsNotFound(err error) bool    { return CodeOf(err) == ErrCodeNotFound }
func IsConflict(err error) bool    { return CodeOf(err) == ErrCodeConflict }
func IsValidation(err error) bool  { return CodeOf(err) == ErrCodeValidation }
func IsUnavailable(err error) bool { return CodeOf(err) == ErrCodeUnavailable }
