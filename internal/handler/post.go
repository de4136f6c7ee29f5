package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Vicae-a/Blog/internal/auth"
	"github.com/Vicae-a/Blog/internal/handler/dto"
	"github.com/Vicae-a/Blog/internal/media"
	"github.com/Vicae-a/Blog/internal/model"
	"github.com/Vicae-a/Blog/internal/service"
)

// multipartMemory is the in-memory budget for multipart forms on top of the
// image limit.
const multipartMemory = 1 << 20

// PostService is the post use-case surface used by PostHandler.
type PostService interface {
	ListPosts(ctx context.Context, input service.ListPostsInput) (*model.PostPage, error)
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	CreatePost(ctx context.Context, userID int64, input service.CreatePostInput) (*model.Post, error)
	UpdatePost(ctx context.Context, userID, postID int64, input service.UpdatePostInput) (*model.Post, error)
	DeletePost(ctx context.Context, userID, postID int64) error
}

// Uploads validates image uploads and builds their public URLs.
type Uploads interface {
	Read(r io.Reader, filename string) (*media.Upload, error)
	MaxBytes() int64
	PublicURL(key string) string
}

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	svc     PostService
	uploads Uploads
	logger  *slog.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(svc PostService, uploads Uploads, logger *slog.Logger) *PostHandler {
	return &PostHandler{svc: svc, uploads: uploads, logger: logger}
}

// List handles GET /posts.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.svc.ListPosts(r.Context(), service.ListPostsInput{
		Page:   q.Get("page"),
		Search: q.Get("search"),
		Author: q.Get("author"),
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, dto.ToPostPageResponse(page, h.uploads.PublicURL))
}

// Show handles GET /posts/{id}.
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrPostNotFound)
		return
	}

	post, err := h.svc.GetPost(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, dto.ToPostResponse(post, h.uploads.PublicURL))
}

// Create handles POST /posts as multipart form or JSON.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrUnauthenticated)
		return
	}

	var input service.CreatePostInput
	if isMultipart(r) {
		form, err := h.parseForm(r)
		if err != nil {
			handleServiceError(w, r, h.logger, err)
			return
		}
		input.Title = form.value("title")
		input.Content = form.value("content")
		input.PublishedAt = form.optional("published_at")
		input.Image = form.image
	} else {
		var req dto.CreatePostRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, h.logger, err)
			return
		}
		input.Title = req.Title
		input.Content = req.Content
		input.PublishedAt = req.PublishedAt
	}

	post, err := h.svc.CreatePost(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeCreated(w, "Post created successfully", dto.ToPostResponse(post, h.uploads.PublicURL))
}

// Update handles PUT /posts/{id} and POST /posts/{id} with _method=PUT.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrUnauthenticated)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrPostNotFound)
		return
	}

	var input service.UpdatePostInput
	if isMultipart(r) {
		form, err := h.parseForm(r)
		if err != nil {
			handleServiceError(w, r, h.logger, err)
			return
		}
		if r.Method == http.MethodPost && !strings.EqualFold(form.value("_method"), http.MethodPut) &&
			!strings.EqualFold(r.URL.Query().Get("_method"), http.MethodPut) {
			MethodNotAllowed(w, r)
			return
		}
		input.Title = form.optional("title")
		input.Content = form.optional("content")
		input.PublishedAt = form.optional("published_at")
		input.Image = form.image
	} else {
		if r.Method == http.MethodPost && !strings.EqualFold(r.URL.Query().Get("_method"), http.MethodPut) {
			MethodNotAllowed(w, r)
			return
		}
		var req dto.UpdatePostRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, h.logger, err)
			return
		}
		input.Title = req.Title
		input.Content = req.Content
		input.PublishedAt = req.PublishedAt
	}

	post, err := h.svc.UpdatePost(r.Context(), userID, id, input)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessWithMessage("Post updated successfully", dto.ToPostResponse(post, h.uploads.PublicURL)))
}

// Delete handles DELETE /posts/{id}.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrUnauthenticated)
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrPostNotFound)
		return
	}

	if err := h.svc.DeletePost(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessMessage("Post deleted successfully"))
}

type postForm struct {
	values map[string][]string
	image  *media.Upload
}

func (f *postForm) value(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// optional returns nil when key was not sent at all.
func (f *postForm) optional(key string) *string {
	v, ok := f.values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	s := v[0]
	return &s
}

func isMultipart(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "multipart/form-data"
}

// parseForm reads a multipart form and validates the optional image field.
func (h *PostHandler) parseForm(r *http.Request) (*postForm, error) {
	if err := r.ParseMultipartForm(h.uploads.MaxBytes() + multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, service.FieldError("body", "The request body must be a valid multipart form.")
	}

	form := &postForm{values: r.MultipartForm.Value}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return form, nil
	case err != nil:
		return nil, service.FieldError("image", "The image failed to upload.")
	}
	defer file.Close()

	up, err := h.readImage(file, header)
	if err != nil {
		return nil, err
	}
	form.image = up
	return form, nil
}

func (h *PostHandler) readImage(file multipart.File, header *multipart.FileHeader) (*media.Upload, error) {
	if header.Size > h.uploads.MaxBytes() {
		return nil, uploadError(media.ErrTooLarge, h.uploads.MaxBytes())
	}
	up, err := h.uploads.Read(file, header.Filename)
	if err != nil {
		return nil, uploadError(err, h.uploads.MaxBytes())
	}
	return up, nil
}
