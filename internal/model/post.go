package model

import "time"

// PageSize is the fixed number of posts per listing page.
const PageSize = 10

// Post is a blog entry owned by exactly one user.
type Post struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ImagePath   *string    `json:"image_path"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Author and Comments are populated by read paths that join them.
	Author   *User      `json:"user,omitempty"`
	Comments []*Comment `json:"comments,omitempty"`
}

// IsOwnedBy reports whether userID created the post.
func (p *Post) IsOwnedBy(userID int64) bool {
	return p.UserID == userID
}

// HasImage reports whether an image is attached.
func (p *Post) HasImage() bool {
	return p.ImagePath != nil && *p.ImagePath != ""
}

// PostPage is one page of a post listing.
type PostPage struct {
	Items       []*Post
	CurrentPage int
	LastPage    int
	PerPage     int
	Total       int64
}

// LastPageFor returns the last page number for total items, never less than 1.
func LastPageFor(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
