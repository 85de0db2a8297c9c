// Package domainerrors defines coded errors shared across the engine.
//
// Services and handlers attach a Code to every failure so transports can map
// errors to wire responses without string matching, and so callers can branch
// on failure class with HasCode. Infrastructure facts (row missing, CAS lost)
// live in pkg/platform/sentinel; services translate them into coded errors at
// the boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// Input and transport level.
	CodeValidation   Code = "validation_error"
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"

	// Access decision taxonomy.
	CodeInvalidPolicy    Code = "invalid_policy"
	CodeNotFound         Code = "not_found"
	CodeNoMatch          Code = "no_match"
	CodeIdentityMismatch Code = "identity_mismatch"
	CodeAccessDenied     Code = "access_denied"
	CodeAccessExpired    Code = "access_expired"
	CodeDuplicateEntry   Code = "duplicate_ledger_entry"
	CodeTimeout          Code = "timeout"
	CodeExtractorDown    Code = "extractor_unavailable"

	// Infrastructure.
	CodeConflict Code = "conflict"
	CodeInternal Code = "internal_error"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so nothing leaks internals to the wire.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the coded message, or an empty string for uncoded errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a code to the HTTP status used by all handlers.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeNoMatch, CodeIdentityMismatch, CodeAccessDenied, CodeAccessExpired:
		return http.StatusForbidden
	case CodeInvalidPolicy:
		return http.StatusUnprocessableEntity
	case CodeDuplicateEntry, CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeExtractorDown:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the kiosk may retry the same method after this
// failure. Policy and entitlement failures are terminal for the attempt.
func Retryable(code Code) bool {
	switch code {
	case CodeNotFound, CodeNoMatch, CodeTimeout, CodeExtractorDown:
		return true
	default:
		return false
	}
}
