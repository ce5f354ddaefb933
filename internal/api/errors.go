package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Kind classifies request failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthExpired
	KindForbidden
	KindNotFound
	KindServer
	KindNetwork
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failure"
	case KindAuthExpired:
		return "auth_expired"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server_error"
	case KindNetwork:
		return "network_unreachable"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Human-readable messages attached to errors without a backend detail.
const (
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgGeneric        = "An error occurred"
	MsgNoConnection   = "Unable to connect to the server"
	MsgTimeout        = "The request timed out"
	MsgUnknown        = "An unknown error occurred"
)

// Error is returned by every Client call that fails.
type Error struct {
	// Op is the operation that failed, e.g. "list tours".
	Op string

	Kind Kind

	// Status is the HTTP status, or 0 if no response was received.
	Status int

	// Message is safe to show to the user.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// MessageOf returns the user-facing message for err. Errors that did not
// come from the client are reported with the generic unknown message so raw
// error text never reaches the user.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return MsgUnknown
}

// kindForStatus maps an HTTP error status to a Kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthExpired
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 400:
		return KindServer
	default:
		return KindUnknown
	}
}

// statusError builds the error for a response with an error status.
func statusError(op string, status int, detail string) *Error {
	msg := detail
	if msg == "" {
		msg = MsgGeneric
	}
	return &Error{Op: op, Kind: kindForStatus(status), Status: status, Message: msg}
}

// transportError classifies a failure where no response was received.
func transportError(op string, err error) *Error {
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Op: op, Kind: KindTimeout, Message: MsgTimeout, Err: err}
	case errors.As(err, &urlErr) && urlErr.Timeout():
		return &Error{Op: op, Kind: KindTimeout, Message: MsgTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Op: op, Kind: KindUnknown, Message: MsgUnknown, Err: err}
	default:
		return &Error{Op: op, Kind: KindNetwork, Message: MsgNoConnection, Err: err}
	}
}

// unknownError wraps failures outside the request/response exchange.
func unknownError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindUnknown, Message: MsgUnknown, Err: err}
}
