package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iota-uz/ats-console/pkg/serrors"
)

type Kind string

const (
	KindMissingIdentity Kind = "missing-identity"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not-found"
	KindNetwork         Kind = "network"
	KindValidation      Kind = "validation"
)

// Error is returned by every Client call that reached (or refused to reach)
// the backend. Status is zero when no response was received.
type Error struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	Body    string `json:"body,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, backend.ErrForbidden).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrMissingBaseURL = serrors.NewError("BACKEND_MISSING_BASE_URL", "API_URL is required", "Errors.MissingBaseURL")

	ErrMissingIdentity = &Error{Kind: KindMissingIdentity, Message: "Missing org/user identity"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "Insufficient permissions"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "Not found"}
	ErrNetwork         = &Error{Kind: KindNetwork, Message: "Request failed"}
	ErrValidation      = &Error{Kind: KindValidation, Message: "Invalid response"}
)

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNetwork
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsMissingIdentity(err error) bool {
	return errors.Is(err, ErrMissingIdentity)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// statusError formats action as "<action> (<status> <status text>): <body>".
func statusError(action string, status int, body string) *Error {
	body = strings.TrimSpace(body)
	msg := fmt.Sprintf("%s (%d %s)", action, status, http.StatusText(status))
	if body != "" {
		msg += ": " + body
	}
	return &Error{Kind: KindNetwork, Status: status, Message: msg, Body: body}
}

func transportError(action string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("%s: %v", action, err),
		Err:     err,
	}
}

func validationError(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}
