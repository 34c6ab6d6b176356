package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindValidation is a request rejected locally before any network I/O.
	KindValidation Kind = iota + 1
	// KindAuth is a 401 or 403 response.
	KindAuth
	// KindTransport is a failure to reach the server.
	KindTransport
	// KindServer is a 5xx response or a body that could not be decoded.
	KindServer
	// KindRejected is any other non-2xx response.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrValidation = errors.New("api: validation failed")
	ErrAuth       = errors.New("api: not authorized")
	ErrTransport  = errors.New("api: server unreachable")
	ErrServer     = errors.New("api: server error")
	ErrRejected   = errors.New("api: request rejected")
)

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindAuth:
		return ErrAuth
	case KindTransport:
		return ErrTransport
	case KindServer:
		return ErrServer
	default:
		return ErrRejected
	}
}

// Error is the structured result of a failed call.
type Error struct {
	// Err is the underlying cause, if any.
	Err error
	// Op names the operation, e.g. "login".
	Op string
	// Message is safe to show to a user.
	Message string
	// Status is the HTTP status code, zero when no response was received.
	Status int
	Kind   Kind
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func validationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func transportError(op string, err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Op:      op,
		Message: "could not reach the server",
		Err:     err,
	}
}

func statusError(op string, status int, body []byte) *Error {
	kind := KindRejected
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status >= http.StatusInternalServerError:
		kind = KindServer
	}
	return &Error{
		Kind:    kind,
		Op:      op,
		Status:  status,
		Message: extractMessage(body, status),
	}
}

func decodeError(op string, status int, err error) *Error {
	return &Error{
		Kind:    KindServer,
		Op:      op,
		Status:  status,
		Message: fmt.Sprintf("unexpected response from server (HTTP %d)", status),
		Err:     err,
	}
}

// extractMessage picks the human-readable text out of an error body:
// a JSON "error" field, then a JSON "message" field, then the raw text,
// then a generic fallback naming the status.
func extractMessage(body []byte, status int) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("HTTP %d", status)
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if strings.HasPrefix(trimmed, "{") && json.Unmarshal([]byte(trimmed), &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
		return fmt.Sprintf("HTTP %d", status)
	}
	return trimmed
}
