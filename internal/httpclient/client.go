// Package httpclient issues requests to upstream APIs with bounded
// exponential backoff on transient failures.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/service"
)

const (
	// DefaultTimeout is the default timeout for a single HTTP attempt.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response size (50MB).
	MaxResponseSize = 50 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests.
	UserAgent = "partner-directory-sync/1.0"

	// maxErrorBody bounds how much of an error response ends up in errors.
	maxErrorBody = 512
)

// RequestFunc builds a fresh request for one attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// ResponseCheck inspects a 2xx body. Returning an error marked with
// common.Transient retries the request; any other error is final.
type ResponseCheck func(body []byte) error

// Client executes requests under a retry policy.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	sleep      common.Sleeper
	opts       service.RetryOptions
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSleeper replaces the sleep used between attempts.
func WithSleeper(sleep common.Sleeper) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client that retries according to opts.
func New(opts service.RetryOptions, options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default().With("component", "httpclient"),
		sleep:      common.Sleep,
		opts:       opts,
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Do runs build/execute/check until success or a final error. The body of
// the successful response is returned. Exhausting the attempts yields an
// error wrapping common.ErrRetriesExhausted.
func (c *Client) Do(ctx context.Context, build RequestFunc, check ResponseCheck) ([]byte, error) {
	var body []byte

	err := common.WithRetry(ctx, func() error {
		b, err := c.attempt(ctx, build)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(b); err != nil {
				return err
			}
		}
		body = b
		return nil
	}, c.opts, c.sleep)
	if err != nil {
		return nil, err
	}

	return body, nil
}

func (c *Client) attempt(ctx context.Context, build RequestFunc) ([]byte, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactURL(req)
		}
		c.logger.Debug("Request failed", "url", redactURL(req), "error", err)
		return nil, common.Transient(fmt.Errorf("failed to execute request: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &common.HTTPStatusError{
			StatusCode: resp.StatusCode,
			URL:        redactURL(req),
			Body:       string(snippet),
		}
		if c.opts.IsRetryableStatus(resp.StatusCode) {
			return nil, common.Transient(statusErr)
		}
		return nil, statusErr
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxResponseSize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, common.Transient(fmt.Errorf("failed to read response body: %w", err))
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	return body, nil
}

// redactURL drops the query string, which may carry API keys.
func redactURL(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}
