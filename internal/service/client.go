// Package service is a client for the remote extraction service.
//
// The service extracts named entities and events from text.
// It also enumerates the domains and entity types it supports,
// offers sample texts, and exports results as downloadable files.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"braces.dev/errtrace"
	"go.abhg.dev/extractview/internal/errdefer"
)

// MaxBodySize bounds the size of any response body read from the service.
const MaxBodySize = 16 << 20

// ErrBodyTooLarge indicates a successful response
// whose body is larger than the client accepts.
var ErrBodyTooLarge = errors.New("response body too large")

// Client talks to the extraction service over HTTP.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	http       *http.Client
	log        *slog.Logger
	maxRetries int
	baseDelay  time.Duration
	maxBody    int64
}

// Option configures a [Client].
type Option func(*Client)

// WithTimeout sets the timeout for a single HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		// Shared clients such as http.DefaultClient must not change.
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used to report retries.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithMaxRetries sets how many times idempotent requests are retried
// after a 429 or 5xx response.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBaseDelay sets the first retry delay.
// Each following retry waits twice as long.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithMaxBodySize bounds the size of a successful response body.
// Larger bodies fail with [ErrBodyTooLarge].
// Defaults to MaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		c.maxBody = n
	}
}

// New builds a client for the service at baseURL,
// e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 60 * time.Second},
		log:        slog.New(slog.DiscardHandler),
		maxRetries: 3,
		baseDelay:  time.Second,
		maxBody:    MaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int

	// Message is the "error" field of a JSON body, if any.
	Message string

	// Body holds the first 512 bytes of the response.
	Body string

	retryAfter string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether a request failing this way may be retried.
func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Error
	}

	if len(body) > 512 {
		body = body[:512]
	}
	apiErr.Body = string(body)
	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr.retryAfter = resp.Header.Get("Retry-After")
	}
	return apiErr
}

// reply is a successful response from the service.
type reply struct {
	ContentType string
	Body        []byte
}

// newRequest builds a request that do can replay.
type newRequest func(ctx context.Context) (*http.Request, error)

// get sends a GET request, retrying on 429 and 5xx responses.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*reply, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	newReq := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	}

	var lastErr *APIError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoffDelay(attempt, lastErr)
			c.log.Debug("retrying request",
				"path", path, "attempt", attempt, "wait", wait, "err", lastErr)

			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, errtrace.Wrap(ctx.Err())
			case <-t.C:
			}
		}

		rep, err := c.do(ctx, newReq)
		if err == nil {
			return rep, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.retryable() {
			return nil, err
		}
		lastErr = apiErr
	}
	return nil, errtrace.Wrap(lastErr)
}

// post sends a POST request once.
func (c *Client) post(ctx context.Context, path, contentType string, body []byte) (*reply, error) {
	return c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
}

func (c *Client) postJSON(ctx context.Context, path string, v any) (*reply, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return c.post(ctx, path, "application/json", body)
}

func (c *Client) do(ctx context.Context, newReq newRequest) (_ *reply, err error) {
	req, err := newReq(ctx)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	defer errdefer.Close(&err, resp.Body)

	// One byte past the limit tells a full body from a cut one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errtrace.Wrap(newAPIError(resp, body))
	}
	if int64(len(body)) > c.maxBody {
		return nil, errtrace.Wrap(fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, c.maxBody))
	}

	return &reply{
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// backoffDelay returns the wait before a retry attempt.
// Retry-After on a 429 wins over exponential backoff.
func (c *Client) backoffDelay(attempt int, lastErr *APIError) time.Duration {
	if lastErr != nil && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.baseDelay << (attempt - 1)
}
