// Package fetch is the thin I/O layer between the importer and the
// network: timeout-bounded GET, transparent gzip decompression,
// rate-limited and retried. It never parses and never knows about
// chain dialects.
package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chainwatch/price-compare/internal/fetch/ratelimit"
)

// Client fetches bytes from chain portals with rate limiting and retry.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	config     ratelimit.Config
}

// NewClient creates an HTTP client with the given rate-limit config and
// per-request timeout.
func NewClient(cfg ratelimit.Config, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		limiter: ratelimit.NewLimiter(cfg),
		config:  cfg,
	}
}

// NewDefaultClient creates a client with default rate limiting and a
// 30s timeout.
func NewDefaultClient() *Client {
	return NewClient(ratelimit.DefaultConfig(), 30*time.Second)
}

// GetText performs a GET and returns the raw response body as text
// (used for HTML index pages, which are never gzipped on these portals).
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, _, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetBytes performs a GET and transparently gunzips the body when the
// response is gzip-compressed (either by Content-Encoding or by a
// gzip magic number in the payload, since several chains serve .gz
// files without the header). Non-2xx and corrupt gzip both return an
// error; GetBytes never panics and never retries beyond MaxRetries.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	body, contentEncoding, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	if contentEncoding == "gzip" || isGzipMagic(body) {
		decompressed, err := gunzip(body)
		if err != nil {
			return nil, fmt.Errorf("gunzip %s: %w", url, err)
		}
		return decompressed, nil
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, string, error) {
	var lastErr error
	var lastStatus int

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(c.config.Backoff(attempt - 1)):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, "", fmt.Errorf("build request for %s: %w", url, err)
		}
		req.Header.Set("User-Agent", "price-compare/1.0")
		req.Header.Set("Accept-Encoding", "gzip")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastStatus = resp.StatusCode
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				// Client errors other than 429 are not worth retrying.
				return nil, "", &ratelimit.RetryError{URL: url, Attempts: attempt + 1, LastStatus: lastStatus}
			}
			continue
		}

		if readErr != nil {
			lastErr = fmt.Errorf("read body: %w", readErr)
			continue
		}

		return body, resp.Header.Get("Content-Encoding"), nil
	}

	return nil, "", &ratelimit.RetryError{URL: url, Attempts: c.config.MaxRetries + 1, LastStatus: lastStatus, LastErr: lastErr}
}

func isGzipMagic(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

func gunzip(b []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
