package client

import (
	"context"
	"net/http"
)

// Register creates an account and adopts the returned session.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	req, err := jsonRequest(http.MethodPost, "/register", in)
	if err != nil {
		return nil, err
	}
	return c.authenticate(ctx, req)
}

// Login exchanges credentials for a session and adopts it.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	req, err := jsonRequest(http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return c.authenticate(ctx, req)
}

func (c *Client) authenticate(ctx context.Context, req request) (*Session, error) {
	var data authData
	if _, err := c.do(ctx, req, &data); err != nil {
		return nil, err
	}
	user := data.User
	s := Session{Token: data.Token, User: &user}
	c.SetSession(s)
	return &s, nil
}

// Logout revokes the current session on the server and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/logout", auth: true}, nil)
	if err != nil {
		return err
	}
	c.ClearSession()
	return nil
}

// Me returns the current user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var data profileData
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/user", auth: true}, &data); err != nil {
		return nil, err
	}
	c.rememberUser(data.User)
	return &data.User, nil
}

// UpdateProfile applies a partial profile update.
func (c *Client) UpdateProfile(ctx context.Context, in ProfileInput) (*User, error) {
	req, err := jsonRequest(http.MethodPut, "/user", in)
	if err != nil {
		return nil, err
	}
	req.auth = true

	var data profileData
	if _, err := c.do(ctx, req, &data); err != nil {
		return nil, err
	}
	c.rememberUser(data.User)
	return &data.User, nil
}

func (c *Client) rememberUser(u User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.User = &u
	}
}
