// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Vicae-a/Blog/internal/handler/dto"
	"github.com/Vicae-a/Blog/internal/media"
	"github.com/Vicae-a/Blog/internal/middleware"
	"github.com/Vicae-a/Blog/internal/service"
)

// NotFound handles unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	dto.WriteError(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed handles routes matched with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	dto.WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	dto.WriteJSON(w, status, data)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	dto.WriteJSON(w, status, dto.Success(data))
}

func writeCreated(w http.ResponseWriter, message string, data any) {
	dto.WriteJSON(w, http.StatusCreated, dto.SuccessWithMessage(message, data))
}

func writeValidation(w http.ResponseWriter, fields map[string][]string) {
	dto.WriteJSON(w, http.StatusUnprocessableEntity, dto.Error(dto.MessageValidation, fields))
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if verr, ok := service.AsValidationError(err); ok {
		writeValidation(w, verr.Fields)
		return
	}

	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrForbidden):
		dto.WriteError(w, http.StatusForbidden, dto.MessageUnauthorized)
	case errors.Is(err, service.ErrPostNotFound):
		dto.WriteError(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, service.ErrCommentNotFound):
		dto.WriteError(w, http.StatusNotFound, "Comment not found")
	case errors.Is(err, service.ErrUserNotFound):
		dto.WriteError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		dto.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrUnauthenticated):
		dto.WriteError(w, http.StatusUnauthorized, dto.MessageUnauthentic)
	case errors.As(err, &maxBytes):
		dto.WriteError(w, http.StatusRequestEntityTooLarge, dto.MessageTooLarge)
	default:
		logger.Error("internal_error",
			"request_id", middleware.GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		dto.WriteError(w, http.StatusInternalServerError, dto.MessageInternal)
	}
}

// uploadError converts media validation failures into field errors on image.
func uploadError(err error, maxBytes int64) error {
	if media.IsValidationError(err) {
		return service.FieldError("image", uploadMessage(err, maxBytes))
	}
	return err
}

func uploadMessage(err error, maxBytes int64) string {
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return fmt.Sprintf("The image may not be greater than %d kilobytes.", maxBytes/1024)
	case errors.Is(err, media.ErrUnsupportedType):
		return "The image must be a file of type: jpeg, png, jpg, gif."
	default:
		return "The image failed to upload."
	}
}

// pathID parses a numeric route parameter. Anything else reads as a miss.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	if err != nil {
		return service.FieldError("body", "The request body must be valid JSON.")
	}
	return nil
}
