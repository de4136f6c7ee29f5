package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Vicae-a/Blog/internal/media"
	"github.com/Vicae-a/Blog/internal/metrics"
	"github.com/Vicae-a/Blog/internal/model"
	"github.com/Vicae-a/Blog/internal/repository"
)

// Accepted layouts for published_at, tried in order.
var publishedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// PostService handles post business logic.
type PostService struct {
	posts    PostRepository
	comments CommentRepository
	images   ImageStore
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewPostService creates a new PostService.
func NewPostService(posts PostRepository, comments CommentRepository, images ImageStore, logger *slog.Logger, recorder metrics.Recorder) *PostService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{
		posts:    posts,
		comments: comments,
		images:   images,
		logger:   logger.With("component", "service.post"),
		metrics:  recorder,
	}
}

// ListPostsInput holds raw query parameters for a listing.
type ListPostsInput struct {
	Page   string
	Search string
	Author string
}

// ListPosts returns one page of posts, newest first. Invalid page numbers
// read as page 1 and an author that is not a user id matches nothing.
func (s *PostService) ListPosts(ctx context.Context, input ListPostsInput) (*model.PostPage, error) {
	page := parsePage(input.Page)

	filter := repository.PostFilter{Search: strings.TrimSpace(input.Search)}
	if author := strings.TrimSpace(input.Author); author != "" {
		id, err := strconv.ParseInt(author, 10, 64)
		if err != nil || id <= 0 {
			return emptyPage(page), nil
		}
		filter.AuthorID = id
	}

	posts, total, err := s.posts.ListPosts(ctx, filter, page, model.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return &model.PostPage{
		Items:       posts,
		CurrentPage: page,
		LastPage:    model.LastPageFor(total, model.PageSize),
		PerPage:     model.PageSize,
		Total:       total,
	}, nil
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func emptyPage(page int) *model.PostPage {
	return &model.PostPage{
		Items:       []*model.Post{},
		CurrentPage: page,
		LastPage:    1,
		PerPage:     model.PageSize,
	}
}

// GetPost returns a post with its author and comments.
func (s *PostService) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.loadPost(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListCommentsByPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	post.Comments = comments

	return post, nil
}

// CreatePostInput defines input for creating a post.
type CreatePostInput struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Content     string  `json:"content" validate:"required"`
	PublishedAt *string `json:"published_at"`

	Image *media.Upload `json:"-" validate:"-"`
}

// CreatePost validates input, stores the image and inserts the post owned by
// userID. An image that cannot be stored is dropped and the post is created
// without it.
func (s *PostService) CreatePost(ctx context.Context, userID int64, input CreatePostInput) (*model.Post, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)

	verr := validateStruct(input)
	publishedAt, ok := parsePublishedAt(input.PublishedAt, verr)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	post := &model.Post{
		UserID:  userID,
		Title:   input.Title,
		Content: input.Content,
	}
	if ok {
		post.PublishedAt = publishedAt
	}

	if input.Image != nil {
		if key := s.storeImage(ctx, input.Image); key != "" {
			post.ImagePath = &key
		}
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		if post.HasImage() {
			s.images.Discard(ctx, *post.ImagePath)
		}
		if errors.Is(err, repository.ErrOwnerMissing) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.metrics.IncPostCreated()
	s.logger.Info("post created", "post_id", post.ID, "user_id", userID, "has_image", post.HasImage())

	return s.reload(ctx, post), nil
}

// UpdatePostInput defines a partial update. Nil fields are left unchanged;
// an empty PublishedAt clears the schedule.
type UpdatePostInput struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Content     *string `json:"content" validate:"omitnil,min=1"`
	PublishedAt *string `json:"published_at"`

	Image *media.Upload `json:"-" validate:"-"`
}

// Empty reports whether the update changes nothing. UpdatePost returns the
// current post for an empty update without writing it.
func (in UpdatePostInput) Empty() bool {
	return in.Title == nil && in.Content == nil && in.PublishedAt == nil && in.Image == nil
}

// UpdatePost applies a partial update to a post owned by userID. Ownership
// is checked before any image is stored. A new image is stored before the
// row changes and the previous image is discarded only after the row update
// succeeds.
func (s *PostService) UpdatePost(ctx context.Context, userID, postID int64, input UpdatePostInput) (*model.Post, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsOwnedBy(userID) {
		return nil, ErrForbidden
	}
	if input.Empty() {
		return s.reload(ctx, post), nil
	}

	if input.Title != nil {
		v := strings.TrimSpace(*input.Title)
		input.Title = &v
	}
	if input.Content != nil {
		v := strings.TrimSpace(*input.Content)
		input.Content = &v
	}

	verr := validateStruct(input)
	publishedAt, setPublished := parsePublishedAt(input.PublishedAt, verr)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if input.Title != nil {
		post.Title = *input.Title
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	if setPublished {
		post.PublishedAt = publishedAt
	}

	var oldImage, newImage string
	if input.Image != nil {
		if key := s.storeImage(ctx, input.Image); key != "" {
			newImage = key
			if post.HasImage() {
				oldImage = *post.ImagePath
			}
			post.ImagePath = &newImage
		}
	}

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		if newImage != "" {
			s.images.Discard(ctx, newImage)
		}
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	if oldImage != "" && oldImage != newImage {
		s.images.Discard(ctx, oldImage)
	}

	s.metrics.IncPostUpdated()
	s.logger.Info("post updated", "post_id", post.ID, "user_id", userID, "image_replaced", newImage != "")

	return s.reload(ctx, post), nil
}

// DeletePost removes a post owned by userID together with its comments,
// then discards its image.
func (s *PostService) DeletePost(ctx context.Context, userID, postID int64) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsOwnedBy(userID) {
		return ErrForbidden
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}

	if post.HasImage() {
		s.images.Discard(ctx, *post.ImagePath)
	}

	s.metrics.IncPostDeleted()
	s.logger.Info("post deleted", "post_id", postID, "user_id", userID)

	return nil
}

func (s *PostService) loadPost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// storeImage returns the stored key, or "" when storage failed.
func (s *PostService) storeImage(ctx context.Context, up *media.Upload) string {
	if s.images == nil {
		return ""
	}
	key, err := s.images.Save(ctx, up)
	if err != nil {
		s.logger.Warn("image store failed, continuing without image",
			"filename", up.Filename,
			"error", err,
		)
		return ""
	}
	return key
}

// reload fetches the persisted post with its author. The in-memory copy is
// returned if the read fails, since the write already succeeded.
func (s *PostService) reload(ctx context.Context, post *model.Post) *model.Post {
	fresh, err := s.posts.GetPostByID(ctx, post.ID)
	if err != nil {
		s.logger.Warn("post reload failed", "post_id", post.ID, "error", err)
		return post
	}
	return fresh
}

// parsePublishedAt interprets the raw published_at value. The second result
// is false when the field was absent. An empty string clears the value.
func parsePublishedAt(raw *string, verr *ValidationError) (*time.Time, bool) {
	if raw == nil {
		return nil, false
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil, true
	}
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	verr.Add("published_at", "The published at is not a valid date.")
	return nil, false
}
