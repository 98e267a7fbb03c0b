package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the transport layer
type Kind string

const (
	KindInternal        Kind = "internal"
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation_failed"
	KindUnauthorized    Kind = "unauthorized"
	KindConflict        Kind = "conflict"
	KindUpstream        Kind = "upstream_unavailable"
	KindUpstreamTimeout Kind = "upstream_timeout"
	KindStorage         Kind = "storage_failure"
)

// Error is an application error carrying its kind and a client-safe message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound reports a missing user, scenario or vocabulary item
func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

// Validation reports malformed input
func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

// Unauthorized reports a missing or invalid credential
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message, nil)
}

// Conflict reports a uniqueness violation, e.g. an email already registered
func Conflict(message string) *Error {
	return New(KindConflict, message, nil)
}

// Storage wraps a persistence failure
func Storage(op string, err error) *Error {
	return New(KindStorage, op, err)
}

// Upstream wraps a failure of an external provider
func Upstream(message string, err error) *Error {
	return New(KindUpstream, message, err)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-facing message of err
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Internal server error"
}

// HTTPStatus maps a kind to a response status
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
