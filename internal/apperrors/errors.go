// Package apperrors holds the error taxonomy shared by every store.
//
// An *Error always carries a user-displayable Message; its Kind is one of the
// sentinel errors below and is matched with errors.Is.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrAuthentication: no or invalid token where one is required. Never retried.
	ErrAuthentication = errors.New("authentication error")
	// ErrAuthorization: the backend answered 403, or a local admin check failed.
	ErrAuthorization = errors.New("authorization error")
	// ErrValidation: local pre-flight check failed, no request was sent.
	ErrValidation = errors.New("validation error")
	// ErrPolicy: business rule rejection, e.g. OAuth accounts changing email.
	ErrPolicy = errors.New("policy error")
	// ErrNotFound: 404; transient for the rank lookup, which retries once.
	ErrNotFound = errors.New("not found")
	// ErrRemote: any other non-2xx, transport failure, or malformed body.
	ErrRemote = errors.New("remote error")
)

const GenericMessage = "Error desconocido"

type Error struct {
	Kind    error
	Message string
	// Status is the HTTP status code, 0 for local errors and transport failures.
	Status int
	// Cause is the underlying error, if any.
	Cause error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return GenericMessage
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Authentication(message string) *Error { return New(ErrAuthentication, message) }
func Authorization(message string) *Error  { return New(ErrAuthorization, message) }
func Validation(message string) *Error     { return New(ErrValidation, message) }
func Policy(message string) *Error         { return New(ErrPolicy, message) }

// FromStatus maps a non-2xx HTTP status to an error kind.
func FromStatus(status int, message string) *Error {
	var kind error
	switch status {
	case http.StatusUnauthorized:
		kind = ErrAuthentication
	case http.StatusForbidden:
		kind = ErrAuthorization
	case http.StatusNotFound:
		kind = ErrNotFound
	default:
		kind = ErrRemote
	}
	return &Error{Kind: kind, Message: message, Status: status}
}

// Transport wraps a network level failure (dial, timeout, canceled context).
func Transport(cause error, message string) *Error {
	return &Error{Kind: ErrRemote, Message: message, Cause: cause}
}

// WithKind returns a copy of err re-kinded as kind, keeping its message and
// status. Non *Error values are wrapped with the generic message.
func WithKind(err error, kind error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{Kind: kind, Message: appErr.Message, Status: appErr.Status, Cause: appErr.Cause}
	}
	return &Error{Kind: kind, Message: GenericMessage, Cause: err}
}

// WithFallbackMessage replaces an empty backend message with fallback.
func WithFallbackMessage(err error, fallback string) error {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message == "" {
		cp := *appErr
		cp.Message = fallback
		return &cp
	}
	return err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

// Message returns the user facing message of any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return GenericMessage
}
