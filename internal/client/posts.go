package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func postPath(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10)
}

// Query renders the options as GET /posts query parameters.
func (o ListOptions) Query() url.Values {
	q := url.Values{}
	if o.Page > 1 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Author != 0 {
		q.Set("author", strconv.FormatInt(o.Author, 10))
	}
	return q
}

// ListPosts returns one page of posts, newest first.
func (c *Client) ListPosts(ctx context.Context, opts ListOptions) (*PostPage, error) {
	var page PostPage
	req := request{method: http.MethodGet, path: "/posts", query: opts.Query()}
	if _, err := c.do(ctx, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPost returns a post with its comments.
func (c *Client) GetPost(ctx context.Context, id int64) (*Post, error) {
	var post Post
	if _, err := c.do(ctx, request{method: http.MethodGet, path: postPath(id)}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost publishes a post. With an image the body is multipart,
// otherwise JSON.
func (c *Client) CreatePost(ctx context.Context, in CreatePostInput) (*Post, error) {
	var (
		req request
		err error
	)
	if in.Image != nil {
		fields := [][2]string{{"title", in.Title}, {"content", in.Content}}
		if in.PublishedAt != "" {
			fields = append(fields, [2]string{"published_at", in.PublishedAt})
		}
		req = request{method: http.MethodPost, path: "/posts"}
		req.body, req.contentType, err = multipartBody(fields, in.Image)
	} else {
		body := struct {
			Title       string  `json:"title"`
			Content     string  `json:"content"`
			PublishedAt *string `json:"published_at,omitempty"`
		}{Title: in.Title, Content: in.Content}
		if in.PublishedAt != "" {
			body.PublishedAt = &in.PublishedAt
		}
		req, err = jsonRequest(http.MethodPost, "/posts", body)
	}
	if err != nil {
		return nil, err
	}
	req.auth = true

	var post Post
	if _, err := c.do(ctx, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost applies a partial update. With an image the body is a multipart
// POST spoofed to PUT via _method, otherwise a JSON PUT.
func (c *Client) UpdatePost(ctx context.Context, id int64, in UpdatePostInput) (*Post, error) {
	var (
		req request
		err error
	)
	if in.Image != nil {
		var fields [][2]string
		for _, f := range []struct {
			name  string
			value *string
		}{{"title", in.Title}, {"content", in.Content}, {"published_at", in.PublishedAt}} {
			if f.value != nil {
				fields = append(fields, [2]string{f.name, *f.value})
			}
		}
		req = request{
			method: http.MethodPost,
			path:   postPath(id),
			query:  url.Values{"_method": {http.MethodPut}},
		}
		req.body, req.contentType, err = multipartBody(fields, in.Image)
	} else {
		req, err = jsonRequest(http.MethodPut, postPath(id), struct {
			Title       *string `json:"title,omitempty"`
			Content     *string `json:"content,omitempty"`
			PublishedAt *string `json:"published_at,omitempty"`
		}{in.Title, in.Content, in.PublishedAt})
	}
	if err != nil {
		return nil, err
	}
	req.auth = true

	var post Post
	if _, err := c.do(ctx, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post and its comments.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: postPath(id), auth: true}, nil)
	return err
}

// AddComment comments on a post.
func (c *Client) AddComment(ctx context.Context, postID int64, content string) (*Comment, error) {
	req, err := jsonRequest(http.MethodPost, postPath(postID)+"/comments", map[string]string{"content": content})
	if err != nil {
		return nil, err
	}
	req.auth = true

	var comment Comment
	if _, err := c.do(ctx, req, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment written by the current user.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	path := "/comments/" + strconv.FormatInt(id, 10)
	_, err := c.do(ctx, request{method: http.MethodDelete, path: path, auth: true}, nil)
	return err
}
