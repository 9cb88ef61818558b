// Package client is the Go SDK for the CRM API. Reads go through a query
// cache keyed by endpoint and parameters, writes invalidate the collections
// they touch, and pipeline moves are applied optimistically to cached boards.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/querycache"
)

const (
	apiPrefix       = "/api/v1"
	maxResponseSize = 16 << 20
)

var (
	// ErrUnauthorized is returned for every 401 response
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRequestFailed covers every other failure, rejected or unreachable
	ErrRequestFailed = errors.New("request failed")
)

// Error describes one failed call. It matches ErrUnauthorized or
// ErrRequestFailed with errors.Is.
type Error struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
	kind    error
	cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (%d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// StatusCode returns the HTTP status behind err, or 0 when no response was received
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Options configures a Client
type Options struct {
	Token      string
	HTTPClient *http.Client
	// Cache tunes the read cache. Zero StaleTimes use DefaultStaleTimes.
	Cache *querycache.Options
	// OnUnauthorized runs once UnauthorizedDelay after a 401, typically to
	// send the user back to the login screen
	OnUnauthorized    func()
	UnauthorizedDelay time.Duration
	Logger            logger.Logger
}

// DefaultStaleTimes returns the staleness threshold of each resource.
// Leads change more often than listings, so they go stale sooner.
func DefaultStaleTimes() map[string]time.Duration {
	return map[string]time.Duration{
		"/leads":         30 * time.Second,
		"/properties":    5 * time.Minute,
		"/deals":         time.Minute,
		"/tasks":         30 * time.Second,
		"/pipeline":      30 * time.Second,
		"/notifications": 15 * time.Second,
		"/dashboard":     time.Minute,
		"/activities":    time.Minute,
	}
}

// Client talks to one CRM server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *querycache.Cache
	log     logger.Logger

	onUnauthorized    func()
	unauthorizedDelay time.Duration

	mu      sync.Mutex
	token   string
	pending *time.Timer
	closed  bool
}

// New creates a client for baseURL, the server root without /api/v1
func New(baseURL string, opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.UnauthorizedDelay <= 0 {
		opts.UnauthorizedDelay = 500 * time.Millisecond
	}
	log := logger.OrDefault(opts.Logger)

	cacheOpts := querycache.DefaultOptions()
	if opts.Cache != nil {
		cacheOpts = *opts.Cache
	}
	if cacheOpts.StaleTimes == nil {
		cacheOpts.StaleTimes = DefaultStaleTimes()
	}
	if cacheOpts.ShouldRetry == nil {
		cacheOpts.ShouldRetry = retryable
	}
	if cacheOpts.Logger == nil {
		cacheOpts.Logger = log
	}

	return &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		http:              opts.HTTPClient,
		cache:             querycache.New(cacheOpts),
		log:               log,
		onUnauthorized:    opts.OnUnauthorized,
		unauthorizedDelay: opts.UnauthorizedDelay,
		token:             opts.Token,
	}
}

// Close stops background revalidations and any pending unauthorized hook
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.mu.Unlock()

	c.cache.Close()
}

// SetToken switches the session. Everything cached under the previous
// token is dropped.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	c.cache.Invalidate("")
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// retryable keeps the cache from retrying requests the server rejected
func retryable(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return false
	}
	status := StatusCode(err)
	return status == 0 || status >= http.StatusInternalServerError
}

func (c *Client) unauthorized() {
	if c.onUnauthorized == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil || c.closed {
		return
	}
	c.pending = time.AfterFunc(c.unauthorizedDelay, func() {
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		c.onUnauthorized()
	})
}

func (c *Client) invalidate(prefixes ...string) {
	for _, p := range prefixes {
		c.cache.Invalidate(p)
	}
}

func failure(method, path string, cause error) *Error {
	return &Error{Method: method, Path: path, kind: ErrRequestFailed, cause: cause}
}

// do sends a JSON request and decodes a JSON response into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return failure(method, path, fmt.Errorf("encoding request body: %w", err))
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, query, reader, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	target := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return failure(method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return failure(method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return failure(method, path, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.unauthorized()
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Code: "unauthorized", kind: ErrUnauthorized}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var rejected models.ErrorResponse
		_ = json.Unmarshal(data, &rejected)
		c.log.Debug("api request rejected", "method", method, "path", path, "status", resp.StatusCode, "code", rejected.Error)
		return &Error{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Code:    rejected.Error,
			Message: rejected.Message,
			kind:    ErrRequestFailed,
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return failure(method, path, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// write dispatches a mutation. Writes are never retried, and once sent they
// no longer follow the caller's cancellation.
func (c *Client) write(ctx context.Context, method, path string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return failure(method, path, err)
	}
	return c.do(context.WithoutCancel(ctx), method, path, nil, body, out)
}

// get reads through the query cache
func get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	v, err := querycache.Fetch(ctx, c.cache, querycache.Key(path, query), func(ctx context.Context) (T, error) {
		var out T
		err := c.do(ctx, http.MethodGet, path, query, nil, &out)
		return out, err
	})
	if err != nil {
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			err = failure(http.MethodGet, path, err)
		}
	}
	return v, err
}
