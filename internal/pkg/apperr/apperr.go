package apperr

import (
	"errors"
	"fmt"
)

// Code classifies engine errors so HTTP handlers can map them to statuses
// and clients get a stable machine-readable identifier.
type Code string

const (
	CodeValidation   Code = "validation"
	CodeConflict     Code = "conflict"
	CodeNotFound     Code = "not_found"
	CodeBalance      Code = "balance"
	CodeUnauthorized Code = "unauthorized"
)

// Error is a coded engine error. Machine-readable Reason strings (e.g.
// "already_paid", "amount_exceeds_remaining") travel to API clients; Msg is
// for humans and logs.
type Error struct {
	Code   Code
	Reason string
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code) + ": " + e.Reason
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Reason, e.Msg)
}

func Validation(reason, msg string) *Error {
	return &Error{Code: CodeValidation, Reason: reason, Msg: msg}
}

func Conflict(reason, msg string) *Error {
	return &Error{Code: CodeConflict, Reason: reason, Msg: msg}
}

func NotFound(reason, msg string) *Error {
	return &Error{Code: CodeNotFound, Reason: reason, Msg: msg}
}

func Balance(reason, msg string) *Error {
	return &Error{Code: CodeBalance, Reason: reason, Msg: msg}
}

func Unauthorized(reason, msg string) *Error {
	return &Error{Code: CodeUnauthorized, Reason: reason, Msg: msg}
}

// CodeOf extracts the code from err, or "" if err is not an engine error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ReasonOf extracts the machine-readable reason from err, or "" if absent.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsConflict reports whether err is the success-adjacent duplicate outcome
// (e.g. an idempotency guard firing). Callers must not treat it as a retryable
// failure.
func IsConflict(err error) bool {
	return CodeOf(err) == CodeConflict
}

func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}
