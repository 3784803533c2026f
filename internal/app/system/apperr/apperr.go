// internal/app/system/apperr/apperr.go
// Package apperr defines the error kinds shared by the verification,
// import, room and reconciliation services, and how the admin API maps
// them to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for callers that need to react to it.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindExternal
	KindInProgress
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindExternal:
		return "external_capability"
	case KindInProgress:
		return "already_in_progress"
	}
	return "unknown"
}

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrValidation = &Error{Kind: KindValidation, Msg: "validation error"}
	ErrNotFound   = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrConflict   = &Error{Kind: KindConflict, Msg: "conflict"}
	ErrExternal   = &Error{Kind: KindExternal, Msg: "external capability error"}
	ErrInProgress = &Error{Kind: KindInProgress, Msg: "already in progress"}
)

// Error is a classified error with a user-facing message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so errors.Is(err, ErrNotFound)
// works for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// E returns a new error of kind k.
func E(k Kind, msg string) error {
	return &Error{Kind: k, Msg: msg}
}

// Wrap returns a new error of kind k wrapping err.
func Wrap(k Kind, msg string, err error) error {
	return &Error{Kind: k, Msg: msg, Err: err}
}

// Validation, NotFound, Conflict and External are shorthands for E.
func Validation(msg string) error { return E(KindValidation, msg) }
func NotFound(msg string) error   { return E(KindNotFound, msg) }
func Conflict(msg string) error   { return E(KindConflict, msg) }
func External(msg string, err error) error {
	return Wrap(KindExternal, msg, err)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the user-facing message of the first *Error in err's
// chain, or fallback when there is none.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return fallback
}

// HTTPStatus maps err to the status code returned by the admin API.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInProgress:
		return http.StatusConflict
	case KindExternal:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
