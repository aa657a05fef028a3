package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. The caller stores it.
func (c *Client) Login(ctx context.Context, req LoginRequest) (string, error) {
	var resp loginResponse
	if err := c.call(ctx, http.MethodPost, "/auth/login", req, &resp, false); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return resp.Token, nil
}

// Register creates an account and returns the server's confirmation text.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	return c.message(ctx, http.MethodPost, "/auth/register", req)
}

// ForgotPassword asks the server to mail a reset link to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.message(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email})
}

// ResetPassword sets a new password using the token from a reset link.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	path := "/auth/reset-password?" + url.Values{"token": {token}}.Encode()
	return c.message(ctx, http.MethodPost, path, map[string]string{"newPassword": newPassword})
}

// VerifyEmail confirms an account using the token from a verification link.
func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	path := "/auth/verify?" + url.Values{"token": {token}}.Encode()
	return c.message(ctx, http.MethodGet, path, nil)
}

func (c *Client) message(ctx context.Context, method, path string, body interface{}) (string, error) {
	raw, _, err := c.do(ctx, method, path, body, false)
	if err != nil {
		return "", err
	}
	return textOrMessage(raw), nil
}
