package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Vicae-a/Blog/internal/auth"
	"github.com/Vicae-a/Blog/internal/handler/dto"
	"github.com/Vicae-a/Blog/internal/model"
	"github.com/Vicae-a/Blog/internal/service"
)

// CommentService is the comment use-case surface used by CommentHandler.
type CommentService interface {
	AddComment(ctx context.Context, userID, postID int64, input service.AddCommentInput) (*model.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID int64) error
}

// CommentHandler handles HTTP requests for comments.
type CommentHandler struct {
	svc    CommentService
	logger *slog.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(svc CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, logger: logger}
}

// Create handles POST /posts/{id}/comments.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrUnauthenticated)
		return
	}
	postID, ok := pathID(r, "id")
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrPostNotFound)
		return
	}

	var req dto.AddCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	comment, err := h.svc.AddComment(r.Context(), userID, postID, service.AddCommentInput{Content: req.Content})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeCreated(w, "Comment added successfully", dto.ToCommentResponse(comment))
}

// Delete handles DELETE /comments/{id}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrUnauthenticated)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrCommentNotFound)
		return
	}

	if err := h.svc.DeleteComment(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessMessage("Comment deleted successfully"))
}
