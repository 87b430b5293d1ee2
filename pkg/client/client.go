// Package client is the Go SDK for the admin API. It wraps the HTTP surface
// behind typed calls, normalizes the response envelope, and handles token
// attachment and session expiry in one place.
//
// Example:
//
//	c := client.New("https://api.example.com",
//	    client.WithOnUnauthorized(func() { redirectToLogin() }),
//	)
//	c.SetToken(accessToken)
//	var products []Product
//	_, err := c.Get(ctx, "/api/v1/products", url.Values{"search": {"tea"}}, &products)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds every request unless the caller's context is tighter.
const DefaultTimeout = 30 * time.Second

// Envelope is the wire format shared by every API endpoint.
type Envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Pagination *Pagination         `json:"pagination,omitempty"`
}

// Pagination mirrors the server's paging block.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	Limit       int   `json:"limit"`
}

// APIError is a non-2xx response decoded from the envelope.
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 APIError.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusUnauthorized
}

// Client talks to the admin API. It is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	onUnauthorized func()

	mu    sync.RWMutex
	token string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithOnUnauthorized registers a callback invoked once per 401 response,
// after the stored token has been cleared.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New builds a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken stores the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the stored token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the currently stored token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Get issues a GET request and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) (*Envelope, error) {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) (*Envelope, error) {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Download issues a GET request and returns the raw body, for endpoints that
// stream files instead of envelopes.
func (c *Client) Download(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFrom(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (*Envelope, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, query, payload)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFrom(resp)
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("client: decode envelope: %w", err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("client: decode data: %w", err)
		}
	}
	return &env, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// errorFrom decodes the error envelope. A 401 clears the stored token and
// fires the onUnauthorized callback so the app can route to login.
func (c *Client) errorFrom(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil {
		apiErr.Message = env.Message
		apiErr.Errors = env.Errors
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.ClearToken()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}
	return apiErr
}
