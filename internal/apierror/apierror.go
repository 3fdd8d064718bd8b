// Package apierror maps the error taxonomy to an HTTP status and a stable
// string code, so a handler's JSON body and its structured log line agree
// on classification without re-deriving it from error text.
package apierror

import "net/http"

// Code is a stable machine-readable error classification.
type Code string

const (
	CodeMalformedInput   Code = "malformed_input"
	CodeTransientRemote  Code = "transient_remote"
	CodePermanentRemote  Code = "permanent_remote"
	CodeTokenAcquisition Code = "token_acquisition_failed"
	CodeInternal         Code = "internal_error"
)

// Error is an application error carrying an HTTP status and stable code
// alongside the underlying cause.
type Error struct {
	Status  int
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error.
func New(status int, code Code, message string, cause error) *Error {
	return &Error{Status: status, Code: code, Message: message, Cause: cause}
}

// MalformedInput builds a 400 malformed-input error.
func MalformedInput(message string, cause error) *Error {
	return New(http.StatusBadRequest, CodeMalformedInput, message, cause)
}

// TransientRemote builds a 500 transient-remote error (upstream 5xx,
// timeout, connection reset) — the delivery service is expected to retry.
func TransientRemote(message string, cause error) *Error {
	return New(http.StatusInternalServerError, CodeTransientRemote, message, cause)
}

// PermanentRemote builds a 500 permanent-remote error (upstream 4xx, auth
// failure) — retries will exhaust and dead-letter upstream.
func PermanentRemote(message string, cause error) *Error {
	return New(http.StatusInternalServerError, CodePermanentRemote, message, cause)
}

// TokenAcquisition builds a 500 token-acquisition-failure error.
func TokenAcquisition(cause error) *Error {
	return New(http.StatusInternalServerError, CodeTokenAcquisition, "failed to acquire identity token", cause)
}

// Internal builds a generic 500 internal error.
func Internal(message string, cause error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, message, cause)
}
