package service

import (
	"context"

	"github.com/Vicae-a/Blog/internal/media"
	"github.com/Vicae-a/Blog/internal/model"
	"github.com/Vicae-a/Blog/internal/repository"
)

// PostRepository persists posts. *repository.Repository implements it.
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id int64) (*model.Post, error)
	ListPosts(ctx context.Context, filter repository.PostFilter, page, perPage int) ([]*model.Post, int64, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id int64) error
}

// CommentRepository persists comments. *repository.Repository implements it.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentByID(ctx context.Context, id int64) (*model.Comment, error)
	ListCommentsByPost(ctx context.Context, postID int64) ([]*model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// UserRepository persists users. *repository.Repository implements it.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

// ImageStore stores post images. *media.Processor implements it.
type ImageStore interface {
	Save(ctx context.Context, up *media.Upload) (string, error)
	// Discard deletes an image best-effort; failures never reach the caller.
	Discard(ctx context.Context, key string)
}

// SessionStore tracks live sessions. *cache.Cache implements it.
type SessionStore interface {
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	DeleteSession(ctx context.Context, session *model.Session) error
	RevokeUserSessions(ctx context.Context, userID int64, keepSessionID string) (int, error)
}
