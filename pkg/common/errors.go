package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds shared by every layer. Wrap them with %w to attach detail.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// Invalid returns a validation error carrying a user-facing message.
func Invalid(format string, args ...interface{}) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error carrying a user-facing message.
func NotFound(format string, args ...interface{}) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Forbidden returns an authorization error carrying a user-facing message.
func Forbidden(format string, args ...interface{}) error {
	return &kindError{kind: ErrForbidden, msg: fmt.Sprintf(format, args...)}
}

// Conflict returns an error for a resource that already exists.
func Conflict(format string, args ...interface{}) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// StatusCode maps an error to the HTTP status of its kind.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// PublicMessage is the text safe to show to the client. Internal errors are not exposed.
func PublicMessage(err error) string {
	if StatusCode(err) == http.StatusInternalServerError {
		return "internal error"
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	// Strip the "pkg/file: " prefixes added while wrapping.
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

// WriteErr writes `{success:false, message}` with the status of the error kind.
func WriteErr(w http.ResponseWriter, err error) {
	WriteMsg(w, PublicMessage(err), StatusCode(err))
}
