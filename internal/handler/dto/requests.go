package dto

// UpdatePostRequest is the JSON body of a post update. Absent fields stay
// unchanged.
type UpdatePostRequest struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	PublishedAt *string `json:"published_at"`
}

// CreatePostRequest is the JSON body of a post create without an image.
type CreatePostRequest struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	PublishedAt *string `json:"published_at"`
}

// AddCommentRequest is the body of a new comment. PostID is accepted for
// compatibility and ignored; the path decides the post.
type AddCommentRequest struct {
	Content string `json:"content"`
	PostID  any    `json:"post_id,omitempty"`
}
