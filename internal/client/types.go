package client

import "time"

// User is the public view of an account.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is a comment with its author.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      *User     `json:"user,omitempty"`
}

// Post is a blog post. Comments is only populated by GetPost.
type Post struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ImagePath   *string    `json:"image_path"`
	ImageURL    *string    `json:"image_url"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	User        *User      `json:"user,omitempty"`
	Comments    []Comment  `json:"comments,omitempty"`
}

// PostPage is one page of the listing.
type PostPage struct {
	Items       []Post `json:"items"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int64  `json:"total"`
}

// Session is the authenticated identity a client acts as.
type Session struct {
	Token string
	User  *User
}

// RegisterInput is the body of POST /register.
type RegisterInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ProfileInput is a partial profile update. Nil fields are left unchanged.
type ProfileInput struct {
	Name                 *string `json:"name,omitempty"`
	Email                *string `json:"email,omitempty"`
	Password             *string `json:"password,omitempty"`
	PasswordConfirmation *string `json:"password_confirmation,omitempty"`
}

// ListOptions filters GET /posts. Zero values are omitted.
type ListOptions struct {
	Page   int
	Search string
	// Author is a user id.
	Author int64
}

// Image is an upload attached to a post.
type Image struct {
	Filename string
	Data     []byte
}

// CreatePostInput is a new post. Image is optional.
type CreatePostInput struct {
	Title       string
	Content     string
	PublishedAt string
	Image       *Image
}

// UpdatePostInput is a partial post update. Nil fields are left unchanged.
type UpdatePostInput struct {
	Title       *string
	Content     *string
	PublishedAt *string
	Image       *Image
}

type authData struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type profileData struct {
	User User `json:"user"`
}
