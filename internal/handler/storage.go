package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Vicae-a/Blog/internal/handler/dto"
	"github.com/Vicae-a/Blog/internal/media"
)

// ObjectReader opens stored images. *media.Processor implements it.
type ObjectReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, media.ObjectInfo, error)
}

// StorageHandler serves stored post images.
type StorageHandler struct {
	objects ObjectReader
	logger  *slog.Logger
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(objects ObjectReader, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{objects: objects, logger: logger}
}

// Serve handles GET /storage/*.
func (h *StorageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" {
		dto.WriteError(w, http.StatusNotFound, "File not found")
		return
	}

	rc, info, err := h.objects.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, media.ErrObjectNotFound) || errors.Is(err, media.ErrInvalidKey) {
			dto.WriteError(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error("storage_read_failed", "key", key, "error", err)
		dto.WriteError(w, http.StatusInternalServerError, dto.MessageInternal)
		return
	}
	defer rc.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if !info.ModTime.IsZero() {
		w.Header().Set("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("storage_write_interrupted", "key", key, "error", err)
	}
}
