package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// ErrNetwork is returned when a request could not be completed after all
// retry attempts.
var ErrNetwork = errors.New("http: network error")

// Options configures the transfer client.
type Options struct {
	// MaxIdleConnsPerHost caps pooled idle connections per host.
	// Set this to the transfer concurrency.
	// Default: 5
	MaxIdleConnsPerHost int

	// IdleConnTimeout closes pooled connections idle for longer than this.
	// Default: 30s
	IdleConnTimeout time.Duration

	// DialTimeout bounds TCP connection setup.
	// Default: 30s
	DialTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers.
	// Default: 60s
	ResponseHeaderTimeout time.Duration

	// RetryAttempts is the total number of attempts per request.
	// Default: 3
	RetryAttempts int

	// RetryBackoff is the delay before the second attempt; it doubles after.
	// Default: 500ms
	RetryBackoff time.Duration

	// RetryMaxBackoff caps the delay between attempts.
	// Default: 10s
	RetryMaxBackoff time.Duration

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       30 * time.Second,
		DialTimeout:           30 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		RetryAttempts:         3,
		RetryBackoff:          500 * time.Millisecond,
		RetryMaxBackoff:       10 * time.Second,
		UserAgent:             "tlc-downloader",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxIdleConnsPerHost <= 0 {
		o.MaxIdleConnsPerHost = d.MaxIdleConnsPerHost
	}
	if o.IdleConnTimeout <= 0 {
		o.IdleConnTimeout = d.IdleConnTimeout
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = d.DialTimeout
	}
	if o.ResponseHeaderTimeout <= 0 {
		o.ResponseHeaderTimeout = d.ResponseHeaderTimeout
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = d.RetryAttempts
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = d.RetryBackoff
	}
	if o.RetryMaxBackoff <= 0 {
		o.RetryMaxBackoff = d.RetryMaxBackoff
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	return o
}

// Stream is an open GET response.
//
// The caller must close Body. ContentLength is -1 when the server did not
// announce a length.
type Stream struct {
	StatusCode    int
	ContentLength int64
	Body          io.ReadCloser
}

// OK reports whether the response status is 2xx.
func (s *Stream) OK() bool {
	return s.StatusCode >= 200 && s.StatusCode < 300
}

// Client wraps a single pooled HTTP client shared by every download.
//
// Client provides:
//   - Persistent connections reused across tasks
//   - HTTP/2 when the server negotiates it, HTTP/1.1 otherwise
//   - Transparent retries with exponential backoff for transient failures
//   - Size probing via HEAD requests
//
// Example usage:
//
//	client := NewClient(DefaultOptions())
//
//	// Probe size, best effort
//	size, ok := client.ContentLength(ctx, url)
//
//	// Open a body stream
//	stream, err := client.GetStream(ctx, url)
//	if err != nil {
//	    return err
//	}
//	defer stream.Body.Close()
type Client struct {
	httpClient *http.Client
	opts       Options
}

// NewClient creates a client with its own connection pool.
//
// The transport prefers HTTP/2 through ALPN and falls back to HTTP/1.1 when
// the server does not offer it. HTTP/2 connections are health-checked with
// pings so a silent peer is detected instead of hanging forever.
func NewClient(opts Options) *Client {
	opts = opts.withDefaults()

	dialer := &net.Dialer{
		Timeout:   opts.DialTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          opts.MaxIdleConnsPerHost * 2,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		IdleConnTimeout:       opts.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	if h2, err := http2.ConfigureTransports(transport); err == nil {
		h2.ReadIdleTimeout = 30 * time.Second
		h2.PingTimeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		opts:       opts,
	}
}

// ContentLength returns the size of the resource at url via HEAD request.
//
// Probing is best effort: any failure, non-2xx status or missing
// Content-Length header reports ok=false instead of an error.
func (c *Client) ContentLength(ctx context.Context, url string) (size int64, ok bool) {
	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return 0, false
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || resp.ContentLength < 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

// GetStream issues a GET request and returns the open response.
//
// Transient failures are retried. A non-2xx response that is not retryable,
// or that is still failing after the last attempt, is returned as a Stream
// so the caller can report its status code. Only an exhausted network error
// is returned as an error wrapping ErrNetwork, or the context error if ctx
// ended first.
func (c *Client) GetStream(ctx context.Context, url string) (*Stream, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	return &Stream{
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

// do runs a request with retries. On the final attempt a retryable status is
// handed back to the caller rather than discarded.
func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if isRetryableStatus(resp.StatusCode) && attempt < c.opts.RetryAttempts-1 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("%w: %s %s failed after %d attempts: %v", ErrNetwork, method, url, c.opts.RetryAttempts, lastErr)
}

// backoff waits for an exponentially increasing duration with jitter.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := c.opts.RetryBackoff * time.Duration(1<<uint(attempt-1))
	if backoff > c.opts.RetryMaxBackoff {
		backoff = c.opts.RetryMaxBackoff
	}

	// Jitter: 0.5 to 1.5 of backoff
	jitter := time.Duration(float64(backoff) * (0.5 + rand.Float64()))

	timer := time.NewTimer(jitter)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableStatus reports whether a status code is a transient failure.
func isRetryableStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}
