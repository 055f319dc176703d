package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/flowerdaily/internal/secret"
	"github.com/atinyakov/flowerdaily/internal/service"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCount),
		errors.Is(err, service.ErrInvalidFlower),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidKey),
		errors.Is(err, secret.ErrNonASCII):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrFlowerNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSettingNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrFlowerExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a plain-text error. Internal failures are not
// described to the client.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
