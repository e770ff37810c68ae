// Package authapi implements the outbound HTTP client for the OpsDesk auth
// service. It classifies failures into the domain sentinels so the session
// manager can distinguish credential rejection from transport loss.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings for reaching the auth service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the auth service over HTTP and satisfies ports.AuthClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client. A default timeout is applied when none is provided.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type resetRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login exchanges credentials for a bearer token. Any rejection maps to
// ErrInvalidCredentials; the server's message is carried for display.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("encode login request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/auth/login", "", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode >= 500 {
			return "", fmt.Errorf("%w: status %d", domain.ErrAuthUnavailable, resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, readError(resp.Body))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil || lr.AccessToken == "" {
		return "", fmt.Errorf("%w: malformed login response", domain.ErrAuthUnavailable)
	}
	return lr.AccessToken, nil
}

// FetchIdentity retrieves the canonical identity record for the token.
// 401/403 map to ErrTokenInvalid; everything else that is not a 2xx is
// treated as the service being unavailable, not as a rejection.
func (c *Client) FetchIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s", domain.ErrTokenInvalid, readError(resp.Body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: status %d", domain.ErrAuthUnavailable, resp.StatusCode)
	}

	var identity domain.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("%w: malformed identity response", domain.ErrAuthUnavailable)
	}
	if identity.ID == "" {
		return nil, fmt.Errorf("%w: identity missing id", domain.ErrAuthUnavailable)
	}
	return &identity, nil
}

// ResetPassword replaces the current password, re-proving knowledge of it.
func (c *Client) ResetPassword(ctx context.Context, token, currentPassword, newPassword string) error {
	body, err := json.Marshal(resetRequest{CurrentPassword: currentPassword, NewPassword: newPassword})
	if err != nil {
		return fmt.Errorf("encode reset request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/auth/reset-password", token, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", domain.ErrAuthUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: %s", domain.ErrResetRejected, readError(resp.Body))
	}
}

// do issues the request, mapping connection-level failures to ErrAuthUnavailable.
func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthUnavailable, err)
	}
	return resp, nil
}

func readError(r io.Reader) string {
	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&er); err != nil || er.Error == "" {
		return "request rejected"
	}
	return er.Error
}
