package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ainotes-dev/ainotes/internal/model"
)

// Register creates an account. The server answers with the new user.
func (c *Client) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	req.Anonymous = true

	var user model.User
	if err := c.Do(ctx, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges an email or username plus password for a token pair.
// The server expects an OAuth2 password form, not JSON.
func (c *Client) Login(ctx context.Context, identifier, secret string) (*model.TokenPair, error) {
	form := url.Values{}
	form.Set("username", identifier)
	form.Set("password", secret)

	req := Request{
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Body:        []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
		Anonymous:   true,
	}

	var pair model.TokenPair
	if err := c.Do(ctx, req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Me fetches the profile of the bearer of the current access token.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/auth/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RefreshTokens trades a refresh token for a new pair. The old refresh
// token is revoked by the server.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	req.Anonymous = true

	var pair model.TokenPair
	if err := c.Do(ctx, req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}
