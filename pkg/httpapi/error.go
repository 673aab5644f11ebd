package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iota-uz/ats-console/pkg/backend"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// StatusFor maps a backend error to the status the console answers with.
func StatusFor(err error) int {
	if errors.Is(err, backend.ErrMissingBaseURL) {
		return http.StatusServiceUnavailable
	}
	var be *backend.Error
	if !errors.As(err, &be) {
		return http.StatusInternalServerError
	}
	switch be.Kind {
	case backend.KindMissingIdentity:
		return http.StatusUnauthorized
	case backend.KindForbidden:
		return http.StatusForbidden
	case backend.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// WriteBackendError answers with the envelope for err. The code is the
// upper-cased backend error kind.
func WriteBackendError(w http.ResponseWriter, err error) error {
	code := "INTERNAL_ERROR"
	var be *backend.Error
	if errors.As(err, &be) {
		code = strings.ToUpper(strings.ReplaceAll(string(be.Kind), "-", "_"))
	}
	return WriteError(w, StatusFor(err), code, err.Error(), nil)
}
