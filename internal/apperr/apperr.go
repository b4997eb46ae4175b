// Package apperr defines the error taxonomy shared by the session, gateway,
// and note store layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Match with errors.Is.
var (
	// ErrAuth covers bad credentials and expired or invalid refresh tokens.
	ErrAuth = errors.New("authentication failed")
	// ErrValidation covers input rejected before or by the server.
	ErrValidation = errors.New("validation failed")
	// ErrNetwork covers transport and connectivity failures.
	ErrNetwork = errors.New("network failure")
	// ErrNotFound is returned when the target note (or record) is missing.
	ErrNotFound = errors.New("not found")
	// ErrServer covers 5xx responses and undecodable payloads.
	ErrServer = errors.New("server error")
)

// Error carries the kind of failure plus the operation and server detail.
type Error struct {
	Kind   error
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation builds a ValidationError for op.
func Validation(op, detail string) *Error {
	return &Error{Kind: ErrValidation, Op: op, Detail: detail}
}

// Auth builds an AuthError for op.
func Auth(op, detail string) *Error {
	return &Error{Kind: ErrAuth, Op: op, Detail: detail}
}

// Network wraps a transport failure.
func Network(op string, err error) *Error {
	return &Error{Kind: ErrNetwork, Op: op, Err: err}
}

// FromStatus maps an HTTP status code to a kind.
func FromStatus(op string, status int, detail string) *Error {
	return &Error{Kind: KindForStatus(status), Op: op, Status: status, Detail: detail}
}

// KindForStatus returns the sentinel for an HTTP status code.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		return ErrServer
	}
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusUnauthorized
}

// Message renders err as a single user-facing line.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		switch {
		case e.Detail != "" && errors.Is(e.Kind, ErrValidation):
			return e.Detail
		case errors.Is(e.Kind, ErrAuth):
			if e.Detail != "" {
				return "Authentication failed: " + e.Detail
			}
			return "Authentication failed. Check your credentials and try again."
		case errors.Is(e.Kind, ErrNetwork):
			return "Cannot reach the server. Check your connection."
		case errors.Is(e.Kind, ErrNotFound):
			return "The note no longer exists."
		}
	}
	return err.Error()
}
