package model

import "time"

// MaxCommentLength is the maximum comment length in characters.
const MaxCommentLength = 500

// Comment belongs to a post and is authored by a user.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author *User `json:"user,omitempty"`
}

// IsAuthoredBy reports whether userID wrote the comment.
func (c *Comment) IsAuthoredBy(userID int64) bool {
	return c.UserID == userID
}
