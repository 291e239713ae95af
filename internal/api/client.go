// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Configuration constants for the backend client.
const (
	// DefaultBaseURL is where a locally run backend listens.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps response bodies so a misbehaving backend
	// cannot exhaust client memory.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// sharedHTTPClient is the pooled transport used for all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// Error variables for common backend failures.
var (
	// ErrUnauthorized indicates the bearer token was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated user lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the addressed resource does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation (username or email
	// already registered).
	ErrConflict = errors.New("conflict")

	// ErrBadRequest indicates the backend rejected the request payload.
	ErrBadRequest = errors.New("bad request")

	// ErrEmptyResponse indicates the backend returned no usable payload.
	ErrEmptyResponse = errors.New("empty response")
)

// APIError is a structured error from the backend, either an HTTP
// failure status or a success-shaped envelope with status "error".
type APIError struct {
	Status  int    // HTTP status code (0 for envelope-only failures)
	Code    string // backend message_code when present
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
}

// envelope is the backend's {status, message, data} wrapper.
type envelope struct {
	Status      string          `json:"status"`
	Message     string          `json:"message"`
	MessageCode string          `json:"message_code"`
	Data        json.RawMessage `json:"data"`
}

// Client is the HTTP client for the admission console backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logf       func(format string, args ...any)
}

// NewClient creates a backend client for the given base URL. An empty
// URL falls back to DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: sharedHTTPClient,
		userAgent:  "admitcon/0.2.0",
		logf:       log.Printf,
	}
}

// WithTimeout sets the request timeout. Returns the client for chaining.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	// Copy the shared transport so the pooled connections are kept.
	client := *c.httpClient
	client.Timeout = timeout
	c.httpClient = &client
	return c
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// SetBaseURL updates the backend base URL. Safe to call between
// requests; the config watcher uses this for hot reload.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// newRequest builds a request with common headers set. An empty token
// leaves the Authorization header off (login and register).
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	// Correlates client log lines with backend request logs.
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do executes a request and returns the body. Non-2xx statuses are
// mapped to errors; bodies are size-limited.
func (c *Client) do(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)

	// Never let the bearer token leak into whatever logs the caller keeps.
	req.Header.Del("Authorization")

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logf("API %s %s: %d (%v)", req.Method, req.URL.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// getJSON performs a GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, token)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	return decodeBody(body, out)
}

// sendJSON performs a request with a JSON body and decodes the response
// into out (out may be nil when the response body is irrelevant).
func (c *Client) sendJSON(ctx context.Context, method, path, token string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, bytes.NewReader(payload), token)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil {
		return checkEnvelope(body)
	}
	return decodeBody(body, out)
}

// delete performs a DELETE. Deletes may legitimately return 204 with no
// body.
func (c *Client) delete(ctx context.Context, path, token string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil, token)
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	return checkEnvelope(body)
}

// checkEnvelope rejects success-shaped bodies whose envelope status is
// not "success". Empty and non-envelope bodies pass.
func checkEnvelope(body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Status != "" && env.Status != "success" {
		return &APIError{Code: env.MessageCode, Message: env.Message}
	}
	return nil
}

// decodeBody unmarshals a response body, treating an empty body as
// ErrEmptyResponse. When the body is an envelope, the envelope status is
// checked and data is unwrapped before decoding into out.
func decodeBody(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyResponse
	}

	// An envelope can arrive with a 2xx status but status: "error"
	// (taxonomy class (c)); detect and reject it uniformly.
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Status != "" {
		if env.Status != "success" {
			return &APIError{Code: env.MessageCode, Message: env.Message}
		}
		if len(env.Data) > 0 {
			body = env.Data
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to Go errors,
// preferring the envelope's message when one is present.
func handleErrorResponse(statusCode int, body []byte) error {
	var env envelope
	message := ""
	code := ""
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		message = env.Message
		code = env.MessageCode
	}

	var sentinel error
	switch statusCode {
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusConflict:
		sentinel = ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = ErrBadRequest
	}

	if sentinel != nil {
		if message != "" {
			return fmt.Errorf("%w: %s", sentinel, message)
		}
		return sentinel
	}

	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	return &APIError{Status: statusCode, Code: code, Message: message}
}

// pathEscape escapes a path segment (ids are backend-assigned UUIDs, but
// nothing stops a hostile value from arriving through a cookie).
func pathEscape(segment string) string {
	return url.PathEscape(segment)
}
