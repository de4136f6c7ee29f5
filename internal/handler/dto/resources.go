package dto

import (
	"time"

	"github.com/Vicae-a/Blog/internal/model"
)

// URLFunc turns a storage key into a fetchable URL.
type URLFunc func(key string) string

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentResponse is a comment with its author.
type CommentResponse struct {
	ID        int64         `json:"id"`
	PostID    int64         `json:"post_id"`
	UserID    int64         `json:"user_id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	User      *UserResponse `json:"user,omitempty"`
}

// PostResponse is a post with its author and, on detail views, comments.
type PostResponse struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	ImagePath   *string           `json:"image_path"`
	ImageURL    *string           `json:"image_url"`
	PublishedAt *time.Time        `json:"published_at"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	User        *UserResponse     `json:"user,omitempty"`
	Comments    []CommentResponse `json:"comments,omitempty"`
}

// PostPageResponse is one page of the post listing.
type PostPageResponse struct {
	Items       []PostResponse `json:"items"`
	CurrentPage int            `json:"current_page"`
	LastPage    int            `json:"last_page"`
	PerPage     int            `json:"per_page"`
	Total       int64          `json:"total"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// ProfileResponse wraps the current user.
type ProfileResponse struct {
	User UserResponse `json:"user"`
}

// ToUserResponse converts a user model.
func ToUserResponse(u *model.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ToCommentResponse converts a comment model.
func ToCommentResponse(c *model.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		User:      ToUserResponse(c.Author),
	}
}

// ToPostResponse converts a post model. urlFor may be nil.
func ToPostResponse(p *model.Post, urlFor URLFunc) PostResponse {
	resp := PostResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Title:       p.Title,
		Content:     p.Content,
		ImagePath:   p.ImagePath,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		User:        ToUserResponse(p.Author),
	}
	if p.HasImage() && urlFor != nil {
		u := urlFor(*p.ImagePath)
		resp.ImageURL = &u
	}
	if p.Comments != nil {
		resp.Comments = make([]CommentResponse, 0, len(p.Comments))
		for _, c := range p.Comments {
			resp.Comments = append(resp.Comments, ToCommentResponse(c))
		}
	}
	return resp
}

// ToPostPageResponse converts a listing page.
func ToPostPageResponse(page *model.PostPage, urlFor URLFunc) PostPageResponse {
	items := make([]PostResponse, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, ToPostResponse(p, urlFor))
	}
	return PostPageResponse{
		Items:       items,
		CurrentPage: page.CurrentPage,
		LastPage:    page.LastPage,
		PerPage:     page.PerPage,
		Total:       page.Total,
	}
}
