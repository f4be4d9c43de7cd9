// Package remote is the typed HTTP client for the /api surface. Every call
// makes exactly one attempt; there are no retries.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/domain/entity"
	"gymdash/internal/logger"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Client calls one gymdash server.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout on the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithBearerToken sends Authorization: Bearer <token> on every request.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for request traces.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logger.OrNop(l) }
}

// New creates a client for baseURL, e.g. "http://localhost:8080".
// PRE: baseURL is an absolute http(s) URL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 10 * time.Second}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do sends one request to path (relative to the base URL, query allowed).
// body, if non-nil, is JSON-encoded; out, if non-nil, receives the decoded
// 2xx response.
// POST: errors are *EncodeError, *NetworkError, *HTTPError or *DecodeError
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	target := c.base.String() + "/" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &EncodeError{Kind: fmt.Sprintf("%T", body), Err: err}
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &NetworkError{Op: method, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("remote_request_failed", zap.String("method", method), zap.String("url", target), zap.Error(err))
		return &NetworkError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("remote_request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Kind: fmt.Sprintf("%T", out), Err: err}
	}
	return nil
}

// errorMessage extracts {"error": "..."} when present, else the raw text.
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}

func kindPath(kind entity.Kind, parts ...string) string {
	p := "api/" + string(kind)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// List fetches GET /api/<kind>.
func List[T any](ctx context.Context, c *Client, kind entity.Kind) ([]T, error) {
	var out []T
	if err := c.Do(ctx, http.MethodGet, kindPath(kind), nil, &out); err != nil {
		return nil, wrapKind(err, kind)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Get fetches GET /api/<kind>/<id>.
func Get[T any](ctx context.Context, c *Client, kind entity.Kind, id string) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodGet, kindPath(kind, id), nil, &out)
	return out, wrapKind(err, kind)
}

// Create sends POST /api/<kind> and returns the stored record.
func Create[T any](ctx context.Context, c *Client, kind entity.Kind, payload T) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodPost, kindPath(kind), payload, &out)
	return out, wrapKind(err, kind)
}

// Update sends PUT /api/<kind>/<id> and returns the stored record.
func Update[T any](ctx context.Context, c *Client, kind entity.Kind, id string, payload T) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodPut, kindPath(kind, id), payload, &out)
	return out, wrapKind(err, kind)
}

// Delete sends DELETE /api/<kind>/<id>.
func Delete(ctx context.Context, c *Client, kind entity.Kind, id string) error {
	return c.Do(ctx, http.MethodDelete, kindPath(kind, id), nil, nil)
}

// wrapKind stamps the entity kind onto decode failures.
func wrapKind(err error, kind entity.Kind) error {
	if de, ok := err.(*DecodeError); ok {
		de.Kind = string(kind)
	}
	return err
}
