package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CredentialProvider supplies the bearer token and is told when the server
// rejects it.
type CredentialProvider interface {
	Token() (string, error)
	Invalidate()
}

// Client is a thin HTTP client for the task-management REST API.
// It handles Bearer token authentication and JSON marshaling. Requests are
// never retried; callers surface failures and let the user try again.
type Client struct {
	baseURL    string
	creds      CredentialProvider
	httpClient *http.Client
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a new API client rooted at baseURL
// (e.g. http://localhost:8080). creds may be nil for a client that only
// calls the unauthenticated /auth endpoints.
func NewClient(baseURL string, creds CredentialProvider, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the root URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.call(ctx, http.MethodGet, path, nil, result, true)
}

// Post performs an HTTP POST request with a JSON body and unmarshals
// the JSON response.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.call(ctx, http.MethodPost, path, body, result, true)
}

// Put performs an HTTP PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.call(ctx, http.MethodPut, path, body, result, true)
}

// Delete performs an HTTP DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil, true)
}

func (c *Client) call(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
	authed bool,
) error {
	respBody, status, err := c.do(ctx, method, path, body, authed)
	if err != nil {
		return err
	}

	// No content to parse (e.g. 204).
	if result == nil || status == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}

// do builds the request, attaches credentials, and classifies the response.
// It returns the raw body of a 2xx response.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	authed bool,
) ([]byte, int, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	if authed {
		if c.creds == nil {
			return nil, 0, &AuthError{Message: "not logged in"}
		}
		token, err := c.creds.Token()
		if err != nil {
			return nil, 0, &AuthError{Message: err.Error()}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return nil, 0, fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", readErr)
	}

	log = log.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode == http.StatusUnauthorized {
		log.Warn("unauthorized")
		if authed && c.creds != nil {
			c.creds.Invalidate()
		}
		return nil, resp.StatusCode, &AuthError{Message: serverMessage(respBody)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("request rejected")
		return nil, resp.StatusCode, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    serverMessage(respBody),
		}
	}

	log.Debug("request completed")
	return respBody, resp.StatusCode, nil
}

// errorBody is the shape of an error response. The service uses either
// field depending on the endpoint.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func serverMessage(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if eb.Message != "" {
			return eb.Message
		}
		return eb.Error
	}
	return ""
}

// textOrMessage decodes a {"message": ...} body, falling back to the raw
// text for endpoints that reply with a bare string.
func textOrMessage(body []byte) string {
	if msg := serverMessage(body); msg != "" {
		return msg
	}
	var s string
	if json.Unmarshal(body, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(body))
}
