// Package client is a typed Go client for the blog API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	maxResponseBytes = 8 << 20
	userAgent        = "blog-client/1.0"
)

// Client calls the API as the session it holds, or anonymously when it
// holds none. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string

	mu      sync.RWMutex
	session *Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSession starts the client authenticated as s.
func WithSession(s Session) Option {
	return func(c *Client) {
		if s.Token != "" {
			c.session = &s
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      NewHTTPClient(),
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Session returns a copy of the current session, or nil when anonymous.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// SetSession replaces the current session.
func (c *Client) SetSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &s
}

// ClearSession drops the current session.
func (c *Client) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

type envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	auth        bool
}

func jsonRequest(method, path string, payload any) (request, error) {
	req := request{method: method, path: path}
	if payload == nil {
		return req, nil
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("encode request: %w", err)
	}
	req.body = bytes.NewReader(buf)
	req.contentType = "application/json"
	return req, nil
}

// do sends req and decodes the envelope's data into out when out is non-nil.
// Non-success envelopes become *APIError. A 401 clears the session.
func (c *Client) do(ctx context.Context, req request, out any) (string, error) {
	token := c.token()
	if req.auth && token == "" {
		return "", ErrNoSession
	}

	u := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), req.body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.ClearSession()
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest || (decodeErr == nil && env.Status != "success") {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
			apiErr.Errors = env.Errors
		}
		return "", apiErr
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("decode %s data: %w", req.path, err)
		}
	}
	return env.Message, nil
}

// multipartBody renders fields and an optional image as multipart/form-data.
func multipartBody(fields [][2]string, image *Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	if image != nil {
		name := image.Filename
		if name == "" {
			name = "image"
		}
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// IsAPIError reports whether err came from an API envelope and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
