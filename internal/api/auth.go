package api

import (
	"context"
	"net/http"

	"github.com/mmcdole/medbook/internal/domain"
)

// Login exchanges credentials for a token pair
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := c.Do(ctx, http.MethodPost, RouteLogin, nil, nil, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := c.Do(ctx, http.MethodPost, RouteRegister, nil, nil, reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh trades a refresh token for a new token pair
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	body := struct {
		RefreshToken string `json:"refreshToken"`
	}{refreshToken}
	var out domain.AuthResult
	if err := c.Do(ctx, http.MethodPost, RouteRefresh, nil, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the current token server-side
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, RouteLogout, nil, nil, struct{}{}, nil)
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.Do(ctx, http.MethodGet, RouteMe, nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
