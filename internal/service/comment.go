package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Vicae-a/Blog/internal/metrics"
	"github.com/Vicae-a/Blog/internal/model"
	"github.com/Vicae-a/Blog/internal/repository"
)

// CommentService handles comment business logic.
type CommentService struct {
	comments CommentRepository
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments CommentRepository, logger *slog.Logger, recorder metrics.Recorder) *CommentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentService{
		comments: comments,
		logger:   logger.With("component", "service.comment"),
		metrics:  recorder,
	}
}

// AddCommentInput defines input for adding a comment.
type AddCommentInput struct {
	Content string `json:"content" validate:"required,max=500"`
}

// AddComment attaches a comment by userID to postID.
func (s *CommentService) AddComment(ctx context.Context, userID, postID int64, input AddCommentInput) (*model.Comment, error) {
	input.Content = strings.TrimSpace(input.Content)
	if err := validateStruct(input).Err(); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: input.Content,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.metrics.IncCommentCreated()

	fresh, err := s.comments.GetCommentByID(ctx, comment.ID)
	if err != nil {
		s.logger.Warn("comment reload failed", "comment_id", comment.ID, "error", err)
		return comment, nil
	}
	return fresh, nil
}

// DeleteComment removes a comment authored by userID. The parent post is
// left untouched.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID int64) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("get comment: %w", err)
	}
	if !comment.IsAuthoredBy(userID) {
		return ErrForbidden
	}

	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}

	s.metrics.IncCommentDeleted()
	return nil
}
