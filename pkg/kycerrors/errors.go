// Package kycerrors defines the coded error taxonomy shared by services,
// stores, and the HTTP layer. Services create coded errors; the transport
// layer maps codes to status codes without inspecting messages.
package kycerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	// CodeInvalidInput marks malformed caller input (one message per violated
	// field rule, collected exhaustively by request validation).
	CodeInvalidInput Code = "invalid_input"

	// CodePreconditionFailed marks a verify attempt with required documents
	// still missing. The message names the missing types.
	CodePreconditionFailed Code = "precondition_failed"

	// CodeNotFound marks an absent, tombstoned, or wrong-tenant record.
	CodeNotFound Code = "not_found"

	// CodeConflict marks duplicate-identifier collisions.
	CodeConflict Code = "conflict"

	// CodeUnauthorized marks failed organisation credential checks.
	CodeUnauthorized Code = "unauthorized"

	// CodeInternal marks unexpected defects. Fatal for the single request.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Compare with HasCode, not string matching.
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

// New creates a coded error with no underlying cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// MessageOf extracts the bare message from err, without the code prefix
// Error() carries. Uncoded errors return their Error() string unchanged.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error code to the status the API layer should return.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidInput, CodePreconditionFailed:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
