// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"
	"net/http"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Messages shared by handlers and middleware.
const (
	MessageValidation   = "The given data was invalid."
	MessageUnauthorized = "Unauthorized action"
	MessageUnauthentic  = "Unauthenticated."
	MessageInternal     = "Server Error"
	MessageTooLarge     = "Request body too large"
	MessageRateLimited  = "Too Many Attempts."
)

// Envelope is the body of every API response.
type Envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

// SuccessWithMessage wraps data in a success envelope that also carries message.
func SuccessWithMessage(message string, data any) Envelope {
	return Envelope{Status: StatusSuccess, Message: message, Data: data}
}

// SuccessMessage is a success envelope with a message and no data.
func SuccessMessage(message string) Envelope {
	return Envelope{Status: StatusSuccess, Message: message}
}

// Error builds an error envelope.
func Error(message string, fields map[string][]string) Envelope {
	return Envelope{Status: StatusError, Message: message, Errors: fields}
}

// WriteJSON writes v as JSON with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Error(message, nil))
}
