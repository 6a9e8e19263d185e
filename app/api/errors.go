// Package api holds the JSON response helpers and the error taxonomy
// shared by all handlers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Error is a structured API failure with an HTTP status. Fields carries
// optional per-field validation messages.
type Error struct {
	Status  int               `json:"-"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(message string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Message: message}
}

func ValidationFields(message string, fields map[string]string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Message: message, Fields: fields}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Respond writes v as JSON with the given status.
func Respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("write response")
	}
}

// RespondError maps err onto the taxonomy and writes it. Unknown errors
// become a generic 500 so internals never leak to the client.
func RespondError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		Respond(w, apiErr.Status, apiErr)
		return
	}
	log.WithError(err).Error("unhandled error")
	Respond(w, http.StatusInternalServerError, &Error{
		Message: "Internal server error, please contact an administrator",
	})
}
