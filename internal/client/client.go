// Package client is the caller side of the auth API: a typed HTTP client,
// durable token storage and the Session that ties them together.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/authgate/authgate/internal/handler/dto"
	"github.com/authgate/authgate/internal/model"
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "http://localhost:3000/api"

// User-visible fallback messages.
const (
	MsgAuthFailed  = "Authentication failed"
	MsgUnreachable = "Connection failed. Make sure the backend is reachable"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// ErrUnreachable indicates the request never got an HTTP response.
var ErrUnreachable = errors.New("backend unreachable")

// APIError is a non-2xx response from the auth API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// DisplayMessage returns the text to show a user for err.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnreachable) {
		return MsgUnreachable
	}
	return err.Error()
}

// AuthResult is the token and user context returned by Register and Login.
type AuthResult struct {
	Token       string
	UserContext model.UserContext
}

// Client calls the register, login and me endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client rooted at baseURL (for example http://localhost:3000/api).
// A nil httpClient uses NewHTTPClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (*AuthResult, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/register", "", req, &resp); err != nil {
		return nil, err
	}
	return &AuthResult{Token: resp.Token, UserContext: resp.UserContext}, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var resp dto.AuthResponse
	req := dto.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &AuthResult{Token: resp.Token, UserContext: resp.UserContext}, nil
}

// Me resolves a token to its user context.
func (c *Client) Me(ctx context.Context, token string) (*model.UserContext, error) {
	var resp dto.MeResponse
	if err := c.do(ctx, http.MethodGet, "/me", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.UserContext, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status, Message: MsgAuthFailed}
	var body dto.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}
