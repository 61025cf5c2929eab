// Package httputil fetches score documents over HTTP.
//
// The [Client] wraps an http.Client with two behaviors every remote fetch
// needs: transient failures (network errors, 5xx responses, 429 rate
// limits) are retried with exponential backoff, and successful responses
// are stored in a [cache.Cache] so repeated fetches of the same URL skip
// the network entirely.
//
// Usage:
//
//	client := httputil.NewClient(fileCache)
//	data, err := client.FetchScore(ctx, "https://example.com/prelude.json")
package httputil

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aylabs/musicore/pkg/cache"
	"github.com/aylabs/musicore/pkg/errors"
	"github.com/aylabs/musicore/pkg/observability"
)

// maxScoreBytes caps the response body size for a fetched score.
const maxScoreBytes = 16 << 20

// Client fetches score documents over HTTP with caching and retry.
//
// The zero value is not usable; construct with [NewClient]. Client is safe
// for concurrent use if the underlying cache is.
type Client struct {
	http  *http.Client
	cache cache.Cache
	ttl   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTTL sets the cache lifetime for fetched scores.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// NewClient creates a Client backed by c. A nil cache disables caching.
// Defaults: 30 second request timeout, [cache.TTLScore] cache lifetime.
func NewClient(c cache.Cache, opts ...Option) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	client := &Client{
		http:  &http.Client{Timeout: 30 * time.Second},
		cache: c,
		ttl:   cache.TTLScore,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FetchScore retrieves the document at rawURL, consulting the cache first.
//
// Only http and https URLs are accepted. Responses with status 5xx or 429
// are retried with backoff; other non-200 statuses fail immediately. The
// fetched bytes are returned as-is; callers are expected to validate them
// with score.Parse before use.
func (c *Client) FetchScore(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid score URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported URL scheme %q (want http or https)", u.Scheme)
	}

	key := "url:" + cache.Hash([]byte(rawURL))
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		return data, nil
	}

	var body []byte
	err = cache.RetryWithBackoff(ctx, func() error {
		var fetchErr error
		body, fetchErr = c.fetchOnce(ctx, rawURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	// Cache write failures are not fatal; the fetch already succeeded.
	_ = c.cache.Set(ctx, key, body, c.ttl)

	return body, nil
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, req.URL.Host, req.URL.Path, err)
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch score"))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to body read
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, cache.Retryable(errors.New(errors.ErrCodeNetwork, "fetch score: server returned %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeScoreNotFound, "score not found at %s", rawURL)
	default:
		return nil, errors.New(errors.ErrCodeNetwork, "fetch score: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScoreBytes+1))
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read response"))
	}
	if len(body) > maxScoreBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "score document exceeds 16MB limit")
	}
	return body, nil
}
