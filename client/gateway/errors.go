package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindForbidden  Kind = "forbidden"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindTimeout    Kind = "timeout"
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
)

// User-facing messages for failures where the server gave no message.
const (
	MsgGeneric = "An unexpected error occurred"
	MsgTimeout = "Request timed out. Please check your internet connection and try again."
	MsgNetwork = "Network error. Please check your internet connection and ensure the server is running."

	MsgInvalidResponse = "Invalid response format from server"
)

// Error is the only error type returned by Client operations. StatusCode is
// 500 when no HTTP response was received.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a gateway *Error of kind k.
func IsKind(err error, k Kind) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == k
}

// AsError returns err as a gateway *Error, wrapping foreign errors as KindServer.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}
	return &Error{Kind: KindServer, StatusCode: http.StatusInternalServerError, Message: err.Error(), Cause: err}
}

func statusError(status int, message string, body []byte) *Error {
	if strings.TrimSpace(message) == "" {
		message = MsgGeneric
	}
	return &Error{
		Kind:       kindForStatus(status, message),
		StatusCode: status,
		Message:    message,
		Cause:      fmt.Errorf("http %d: %s", status, strings.TrimSpace(string(body))),
	}
}

func kindForStatus(status int, message string) Kind {
	switch status {
	case http.StatusBadRequest:
		// The API reports unique-constraint violations as 400.
		if strings.HasPrefix(message, "Duplicate value entered") || strings.HasPrefix(message, "User already exists") {
			return KindConflict
		}
		return KindValidation
	case http.StatusUnauthorized:
		return KindAuth
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindServer
	}
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, StatusCode: http.StatusBadRequest, Message: message}
}
